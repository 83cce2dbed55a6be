package storage

import (
	"errors"
	"time"

	"echoload/internal/report"
	"echoload/internal/runner"
)

var ErrNotFound = errors.New("run not found")

// RunRecord is one finished run as stored in history.
type RunRecord struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Config    runner.Config  `json:"config"`
	Summary   report.Summary `json:"summary"`
}

// NewRunRecord captures a finished runner.
func NewRunRecord(r *runner.Runner) RunRecord {
	s := report.NewSummary(r)
	ts := s.StartedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return RunRecord{
		Timestamp: ts,
		Config:    r.Cfg,
		Summary:   s,
	}
}
