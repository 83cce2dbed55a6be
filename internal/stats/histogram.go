package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minTrackableUs = 1
	maxTrackableUs = int64(10 * time.Minute / time.Microsecond)
)

// SafeHistogram is a thread-safe wrapper around hdrhistogram
type SafeHistogram struct {
	hist *hdrhistogram.Histogram
	mu   sync.Mutex
}

func NewSafeHistogram() *SafeHistogram {
	// 1us to 10min, 3 significant figures
	h := hdrhistogram.New(minTrackableUs, maxTrackableUs, 3)
	return &SafeHistogram{hist: h}
}

// RecordDuration records d, clamped to the trackable range.
func (h *SafeHistogram) RecordDuration(d time.Duration) {
	us := d.Microseconds()
	if us < minTrackableUs {
		us = minTrackableUs
	}
	if us > maxTrackableUs {
		us = maxTrackableUs
	}
	// cannot fail once clamped
	_ = h.RecordValue(us)
}

// RecordValue records a latency in microseconds
func (h *SafeHistogram) RecordValue(v int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.RecordValue(v)
}

// ValueAtQuantile takes q in [0, 100].
func (h *SafeHistogram) ValueAtQuantile(q float64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.ValueAtQuantile(q)
}

func (h *SafeHistogram) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Mean()
}

func (h *SafeHistogram) Min() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Min()
}

func (h *SafeHistogram) Max() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Max()
}

func (h *SafeHistogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}

func (h *SafeHistogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hist.Reset()
}

// Latency is a point-in-time percentile view in milliseconds.
type Latency struct {
	MinMs  float64 `json:"min_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P90Ms  float64 `json:"p90_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
	MaxMs  float64 `json:"max_ms"`
	Sample int64   `json:"samples"`
}

// Latency reads every percentile under one lock.
func (h *SafeHistogram) Latency() Latency {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hist.TotalCount() == 0 {
		return Latency{}
	}
	return Latency{
		MinMs:  usToMs(h.hist.Min()),
		AvgMs:  h.hist.Mean() / 1000.0,
		P50Ms:  usToMs(h.hist.ValueAtQuantile(50)),
		P90Ms:  usToMs(h.hist.ValueAtQuantile(90)),
		P95Ms:  usToMs(h.hist.ValueAtQuantile(95)),
		P99Ms:  usToMs(h.hist.ValueAtQuantile(99)),
		MaxMs:  usToMs(h.hist.Max()),
		Sample: h.hist.TotalCount(),
	}
}

func usToMs(us int64) float64 {
	return float64(us) / 1000.0
}
