package runner

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// DefaultTimeoutSec applies when Config.TimeoutSec is zero.
const DefaultTimeoutSec = 30

// ErrInvalidConfig wraps every Config validation failure.
var ErrInvalidConfig = errors.New("invalid runner config")

type Config struct {
	Host       string        `json:"host"`
	Users      int           `json:"users"`
	SpawnRate  float64       `json:"spawn_rate"` // users per second, <= 0 spawns all at once
	RunTime    time.Duration `json:"run_time"`   // 0 runs until cancelled or iterations are exhausted
	Iterations int           `json:"iterations"` // per user, 0 is unlimited
	TimeoutSec int           `json:"timeout_sec"`
	OutPrefix  string        `json:"out_prefix,omitempty"`
	Seed       uint64        `json:"seed,omitempty"` // 0 picks a random seed per user
}

func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.Host)
	if err != nil {
		return fmt.Errorf("%w: host: %v", ErrInvalidConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: host %q must be an absolute http(s) URL", ErrInvalidConfig, c.Host)
	}
	if c.Users < 1 {
		return fmt.Errorf("%w: users must be at least 1, got %d", ErrInvalidConfig, c.Users)
	}
	if c.SpawnRate < 0 {
		return fmt.Errorf("%w: spawn rate must be non-negative", ErrInvalidConfig)
	}
	if c.RunTime < 0 {
		return fmt.Errorf("%w: run time must be non-negative", ErrInvalidConfig)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("%w: iterations must be non-negative", ErrInvalidConfig)
	}
	if c.TimeoutSec < 0 {
		return fmt.Errorf("%w: timeout must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSec == 0 {
		return DefaultTimeoutSec * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// StatsSnapshot is sent over the channel
type StatsSnapshot struct {
	Elapsed    time.Duration
	Users      int64
	Requests   uint64
	Success    uint64
	Fail       uint64
	TaskErrors uint64
	Bytes      uint64
	Inflight   int64

	// Pre-calculated percentiles for the UI (cheap copy)
	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs float64

	Done bool
}

// StatsUpdateChan is the channel type
type StatsUpdateChan chan StatsSnapshot
