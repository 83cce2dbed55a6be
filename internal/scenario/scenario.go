package scenario

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	// ErrNoTasks is returned by Validate for a scenario without tasks.
	ErrNoTasks = errors.New("scenario has no tasks")
	// ErrInvalidTask is returned by Validate for a task without a body or with weight < 1.
	ErrInvalidTask = errors.New("invalid task")
)

// Scenario is a simulated-user behavior profile.
type Scenario struct {
	Name  string
	Wait  WaitTime
	Tasks []Task
}

// Validate checks the wait range and every task registration.
func (s Scenario) Validate() error {
	if err := s.Wait.Validate(); err != nil {
		return fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	if len(s.Tasks) == 0 {
		return fmt.Errorf("scenario %q: %w", s.Name, ErrNoTasks)
	}
	for i, t := range s.Tasks {
		if t.Fn == nil {
			return fmt.Errorf("scenario %q: %w: task %d (%s) has no function", s.Name, ErrInvalidTask, i, t.Name)
		}
		if t.Weight < 1 {
			return fmt.Errorf("scenario %q: %w: task %d (%s) weight %d < 1", s.Name, ErrInvalidTask, i, t.Name, t.Weight)
		}
	}
	return nil
}

// TotalWeight is the sum of all task weights.
func (s Scenario) TotalWeight() int {
	total := 0
	for _, t := range s.Tasks {
		total += t.Weight
	}
	return total
}

// Pick chooses a task with probability weight/TotalWeight.
// The scenario must have passed Validate.
func (s Scenario) Pick(rng *rand.Rand) Task {
	if len(s.Tasks) == 1 {
		return s.Tasks[0]
	}
	n := rng.IntN(s.TotalWeight())
	for _, t := range s.Tasks {
		if n < t.Weight {
			return t
		}
		n -= t.Weight
	}
	return s.Tasks[len(s.Tasks)-1]
}
