package stats

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxErrorKeyLen = 120

// Stats holds real-time aggregated metrics
type Stats struct {
	Requests uint64
	Success  uint64
	Fail     uint64
	Bytes    uint64

	// Task errors that did not come from a recorded request
	TaskErrors uint64

	// Response time across every entry (microseconds)
	ResponseTime *SafeHistogram

	mu        sync.Mutex
	startTime time.Time
	entries   map[string]*entry
	errors    map[string]*ErrorEntry
}

type entry struct {
	method   string
	name     string
	requests uint64
	failures uint64
	bytes    uint64
	statuses map[int]uint64
	latency  *SafeHistogram
}

// EntrySnapshot is the per-request-name view used by reports.
type EntrySnapshot struct {
	Method   string         `json:"method"`
	Name     string         `json:"name"`
	Requests uint64         `json:"requests"`
	Failures uint64         `json:"failures"`
	Bytes    uint64         `json:"bytes"`
	Statuses map[int]uint64 `json:"statuses"`
	Latency  Latency        `json:"latency"`
}

// FailRatio returns failures/requests in [0, 1].
func (e EntrySnapshot) FailRatio() float64 {
	if e.Requests == 0 {
		return 0
	}
	return float64(e.Failures) / float64(e.Requests)
}

// ErrorEntry groups identical failures.
type ErrorEntry struct {
	Source      string `json:"source"`
	Message     string `json:"message"`
	Occurrences uint64 `json:"occurrences"`
}

func NewStats() *Stats {
	return &Stats{
		ResponseTime: NewSafeHistogram(),
		startTime:    time.Now(),
		entries:      make(map[string]*entry),
		errors:       make(map[string]*ErrorEntry),
	}
}

// IsSuccess is the engine's success rule: no transport error and a 2xx/3xx status.
func IsSuccess(status int, err error) bool {
	return err == nil && status >= 200 && status < 400
}

// RecordRequest accounts one HTTP exchange under "method name".
func (s *Stats) RecordRequest(method, name string, status int, bytes int64, latency time.Duration, err error) {
	success := IsSuccess(status, err)

	atomic.AddUint64(&s.Requests, 1)
	if success {
		atomic.AddUint64(&s.Success, 1)
	} else {
		atomic.AddUint64(&s.Fail, 1)
	}
	if bytes > 0 {
		atomic.AddUint64(&s.Bytes, uint64(bytes))
	}
	s.ResponseTime.RecordDuration(latency)

	s.mu.Lock()
	key := method + " " + name
	e, ok := s.entries[key]
	if !ok {
		e = &entry{
			method:   method,
			name:     name,
			statuses: make(map[int]uint64),
			latency:  NewSafeHistogram(),
		}
		s.entries[key] = e
	}
	e.requests++
	if !success {
		e.failures++
	}
	if bytes > 0 {
		e.bytes += uint64(bytes)
	}
	if err == nil {
		e.statuses[status]++
	}
	s.mu.Unlock()

	e.latency.RecordDuration(latency)

	switch {
	case err != nil:
		s.recordError(key, err.Error())
	case !success:
		s.recordError(key, fmt.Sprintf("HTTP %d", status))
	}
}

// RecordTaskError accounts an error returned by a task that is not tied to
// a recorded request, such as a template failure or a panic.
func (s *Stats) RecordTaskError(task string, err error) {
	atomic.AddUint64(&s.TaskErrors, 1)
	s.recordError(task, err.Error())
}

func (s *Stats) recordError(source, msg string) {
	if len(msg) > maxErrorKeyLen {
		msg = msg[:maxErrorKeyLen]
	}
	key := source + "|" + msg

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.errors[key]
	if !ok {
		e = &ErrorEntry{Source: source, Message: msg}
		s.errors[key] = e
	}
	e.Occurrences++
}

// Entries returns per-entry snapshots sorted by name, then method.
func (s *Stats) Entries() []EntrySnapshot {
	s.mu.Lock()
	list := make([]*entry, 0, len(s.entries))
	snaps := make([]EntrySnapshot, 0, len(s.entries))
	for _, e := range s.entries {
		list = append(list, e)
		statuses := make(map[int]uint64, len(e.statuses))
		for code, n := range e.statuses {
			statuses[code] = n
		}
		snaps = append(snaps, EntrySnapshot{
			Method:   e.method,
			Name:     e.name,
			Requests: e.requests,
			Failures: e.failures,
			Bytes:    e.bytes,
			Statuses: statuses,
		})
	}
	s.mu.Unlock()

	for i, e := range list {
		snaps[i].Latency = e.latency.Latency()
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].Name != snaps[j].Name {
			return snaps[i].Name < snaps[j].Name
		}
		return snaps[i].Method < snaps[j].Method
	})
	return snaps
}

// Aggregated returns the totals row across every entry.
func (s *Stats) Aggregated() EntrySnapshot {
	agg := EntrySnapshot{
		Name:     "Aggregated",
		Requests: atomic.LoadUint64(&s.Requests),
		Failures: atomic.LoadUint64(&s.Fail),
		Bytes:    atomic.LoadUint64(&s.Bytes),
		Statuses: make(map[int]uint64),
		Latency:  s.ResponseTime.Latency(),
	}
	for _, e := range s.Entries() {
		for code, n := range e.Statuses {
			agg.Statuses[code] += n
		}
	}
	return agg
}

// Errors returns grouped failures, most frequent first.
func (s *Stats) Errors() []ErrorEntry {
	s.mu.Lock()
	out := make([]ErrorEntry, 0, len(s.errors))
	for _, e := range s.errors {
		out = append(out, *e)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].Source+out[i].Message < out[j].Source+out[j].Message
	})
	return out
}

// ErrorRate returns failed requests as a percentage.
func (s *Stats) ErrorRate() float64 {
	reqs := atomic.LoadUint64(&s.Requests)
	if reqs == 0 {
		return 0
	}
	fails := atomic.LoadUint64(&s.Fail)
	return (float64(fails) / float64(reqs)) * 100
}

// Elapsed is the time since NewStats or the last Reset.
func (s *Stats) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startTime)
}

// RPS is the mean request rate since start.
func (s *Stats) RPS() float64 {
	secs := s.Elapsed().Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&s.Requests)) / secs
}

func (s *Stats) GetP50() float64 {
	return usToMs(s.ResponseTime.ValueAtQuantile(50))
}

func (s *Stats) GetP90() float64 {
	return usToMs(s.ResponseTime.ValueAtQuantile(90))
}

func (s *Stats) GetP95() float64 {
	return usToMs(s.ResponseTime.ValueAtQuantile(95))
}

func (s *Stats) GetP99() float64 {
	return usToMs(s.ResponseTime.ValueAtQuantile(99))
}

// Reset clears every counter and restarts the clock.
func (s *Stats) Reset() {
	atomic.StoreUint64(&s.Requests, 0)
	atomic.StoreUint64(&s.Success, 0)
	atomic.StoreUint64(&s.Fail, 0)
	atomic.StoreUint64(&s.Bytes, 0)
	atomic.StoreUint64(&s.TaskErrors, 0)
	s.ResponseTime.Reset()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = time.Now()
	s.entries = make(map[string]*entry)
	s.errors = make(map[string]*ErrorEntry)
}
