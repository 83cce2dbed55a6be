package report

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"echoload/internal/runner"
)

// TimelinePoint is one per-second bucket of a run.
type TimelinePoint struct {
	Second   int     `json:"second"`
	Users    int64   `json:"users"`
	Requests uint64  `json:"requests"`
	Failures uint64  `json:"failures"`
	RPS      float64 `json:"rps"`
	P90Ms    float64 `json:"p90_ms"`
}

// Timeline folds runner snapshots into per-second buckets. Safe for
// concurrent use.
type Timeline struct {
	mu       sync.Mutex
	points   []TimelinePoint
	lastReqs uint64
	lastFail uint64

	// bucketStart is the elapsed time the open bucket counts from; lastSeen
	// is the elapsed time of the newest snapshot.
	bucketStart time.Duration
	lastSeen    time.Duration
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Add records a snapshot. Snapshots that fall in the same whole second as
// the last bucket overwrite it. RPS is taken over the time the bucket
// actually spans, which is longer than a second when snapshots were dropped.
func (t *Timeline) Add(s runner.StatsSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sec := int(s.Elapsed.Seconds())
	n := len(t.points)
	if n == 0 || t.points[n-1].Second != sec {
		if n > 0 {
			t.lastReqs += t.points[n-1].Requests
			t.lastFail += t.points[n-1].Failures
			t.bucketStart = t.lastSeen
		}
		t.points = append(t.points, TimelinePoint{Second: sec})
		n++
	}

	p := &t.points[n-1]
	p.Users = s.Users
	p.Requests = s.Requests - t.lastReqs
	p.Failures = s.Fail - t.lastFail
	p.P90Ms = s.P90Ms
	p.RPS = 0
	if span := (s.Elapsed - t.bucketStart).Seconds(); span > 0 {
		p.RPS = float64(p.Requests) / span
	}
	t.lastSeen = s.Elapsed
}

func (t *Timeline) Points() []TimelinePoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TimelinePoint, len(t.points))
	copy(out, t.points)
	return out
}

func WriteTimelineJSON(w io.Writer, points []TimelinePoint) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(points)
}
