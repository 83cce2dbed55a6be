package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// ErrInvalidWaitTime is returned when a wait range violates 0 <= Min <= Max.
var ErrInvalidWaitTime = errors.New("invalid wait time")

// MaxWaitSeconds is the largest wait that fits in a time.Duration.
const MaxWaitSeconds = float64(math.MaxInt64 / int64(time.Second))

// WaitTime is an inclusive pause range in seconds.
type WaitTime struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Between returns the wait range [min, max] seconds.
func Between(min, max float64) WaitTime {
	return WaitTime{Min: min, Max: max}
}

// Constant returns a fixed wait of d seconds.
func Constant(d float64) WaitTime {
	return WaitTime{Min: d, Max: d}
}

// Validate checks 0 <= Min <= Max <= MaxWaitSeconds.
func (w WaitTime) Validate() error {
	if math.IsNaN(w.Min) || math.IsNaN(w.Max) {
		return fmt.Errorf("%w: NaN bound", ErrInvalidWaitTime)
	}
	if w.Min < 0 {
		return fmt.Errorf("%w: min %.3fs is negative", ErrInvalidWaitTime, w.Min)
	}
	if w.Min > w.Max {
		return fmt.Errorf("%w: min %.3fs exceeds max %.3fs", ErrInvalidWaitTime, w.Min, w.Max)
	}
	if w.Max > MaxWaitSeconds {
		return fmt.Errorf("%w: max %gs exceeds %gs", ErrInvalidWaitTime, w.Max, MaxWaitSeconds)
	}
	return nil
}

// Draw returns a uniformly random duration in [Min, Max].
func (w WaitTime) Draw(rng *rand.Rand) time.Duration {
	secs := w.Min
	if w.Max > w.Min {
		secs += rng.Float64() * (w.Max - w.Min)
	}
	d := time.Duration(secs * float64(time.Second))

	// float rounding must not push the draw outside the range
	if lo := w.MinDuration(); d < lo {
		d = lo
	}
	if hi := w.MaxDuration(); d > hi {
		d = hi
	}
	return d
}

// MinDuration returns Min as a time.Duration.
func (w WaitTime) MinDuration() time.Duration {
	return time.Duration(w.Min * float64(time.Second))
}

// MaxDuration returns Max as a time.Duration.
func (w WaitTime) MaxDuration() time.Duration {
	return time.Duration(w.Max * float64(time.Second))
}

func (w WaitTime) String() string {
	if w.Min == w.Max {
		return fmt.Sprintf("%gs", w.Min)
	}
	return fmt.Sprintf("%gs..%gs", w.Min, w.Max)
}
