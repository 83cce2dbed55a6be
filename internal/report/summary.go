// Package report writes the end-of-run artifacts selected by --out.
package report

import (
	"encoding/json"
	"io"
	"sync/atomic"
	"time"

	"echoload/internal/runner"
	"echoload/internal/stats"
)

// Summary is the machine-readable result of one run. It is also what the
// history store persists.
type Summary struct {
	Scenario    string                `json:"scenario"`
	Host        string                `json:"host"`
	Users       int                   `json:"users"`
	SpawnRate   float64               `json:"spawn_rate"`
	StartedAt   time.Time             `json:"started_at"`
	DurationSec float64               `json:"duration_sec"`
	Requests    uint64                `json:"total_requests"`
	Success     uint64                `json:"success"`
	Failures    uint64                `json:"fail"`
	TaskErrors  uint64                `json:"task_errors"`
	Bytes       uint64                `json:"bytes"`
	RPS         float64               `json:"rps"`
	ErrorRate   float64               `json:"error_rate_pct"`
	Latency     stats.Latency         `json:"latency"`
	Statuses    map[int]uint64        `json:"statuses"`
	Entries     []stats.EntrySnapshot `json:"entries"`
	Errors      []stats.ErrorEntry    `json:"errors"`
}

func NewSummary(r *runner.Runner) Summary {
	st := r.Stats
	elapsed := r.Elapsed()
	reqs := atomic.LoadUint64(&st.Requests)

	rps := 0.0
	if elapsed > 0 {
		rps = float64(reqs) / elapsed.Seconds()
	}

	return Summary{
		Scenario:    r.Scenario.Name,
		Host:        r.Cfg.Host,
		Users:       r.Cfg.Users,
		SpawnRate:   r.Cfg.SpawnRate,
		StartedAt:   r.StartedAt(),
		DurationSec: elapsed.Seconds(),
		Requests:    reqs,
		Success:     atomic.LoadUint64(&st.Success),
		Failures:    atomic.LoadUint64(&st.Fail),
		TaskErrors:  atomic.LoadUint64(&st.TaskErrors),
		Bytes:       atomic.LoadUint64(&st.Bytes),
		RPS:         rps,
		ErrorRate:   st.ErrorRate(),
		Latency:     st.ResponseTime.Latency(),
		Statuses:    st.Aggregated().Statuses,
		Entries:     st.Entries(),
		Errors:      st.Errors(),
	}
}

// Duration returns the run time as a time.Duration.
func (s Summary) Duration() time.Duration {
	return time.Duration(s.DurationSec * float64(time.Second))
}

func WriteSummaryJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
