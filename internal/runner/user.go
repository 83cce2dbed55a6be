package runner

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"echoload/internal/scenario"
)

// User is one simulated client: pick a task, run it, wait, repeat.
type User struct {
	ID         string
	Index      int
	scenario   scenario.Scenario
	client     scenario.Client
	rng        *rand.Rand
	iterations int
	onError    func(task string, err error)

	completed atomic.Int64
}

func NewUser(index int, sc scenario.Scenario, c scenario.Client, rng *rand.Rand, iterations int, onError func(string, error)) *User {
	if onError == nil {
		onError = func(string, error) {}
	}
	return &User{
		ID:         uuid.NewString(),
		Index:      index,
		scenario:   sc,
		client:     c,
		rng:        rng,
		iterations: iterations,
		onError:    onError,
	}
}

// Run loops until ctx ends or the iteration cap is reached. There is no
// wait after the final iteration.
func (u *User) Run(ctx context.Context) {
	ctx = scenario.WithUserID(ctx, u.ID)
	for {
		if ctx.Err() != nil {
			return
		}

		task := u.scenario.Pick(u.rng)
		u.execute(ctx, task)
		done := u.completed.Add(1)

		if u.iterations > 0 && done >= int64(u.iterations) {
			return
		}
		if !sleep(ctx, u.scenario.Wait.Draw(u.rng)) {
			return
		}
	}
}

// Completed returns the number of finished task invocations.
func (u *User) Completed() int64 {
	return u.completed.Load()
}

func (u *User) execute(ctx context.Context, task scenario.Task) {
	defer func() {
		if r := recover(); r != nil {
			u.onError(task.Name, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := task.Fn(ctx, u.client); err != nil && ctx.Err() == nil {
		u.onError(task.Name, err)
	}
}

// sleep waits d or until ctx is done; it reports whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
