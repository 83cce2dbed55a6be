package runner

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"echoload/internal/scenario"
)

type countingClient struct {
	calls int
}

func (c *countingClient) Get(ctx context.Context, path string) (*scenario.Response, error) {
	return c.Do(ctx, "GET", path, nil)
}

func (c *countingClient) Do(context.Context, string, string, []byte) (*scenario.Response, error) {
	c.calls++
	return &scenario.Response{StatusCode: 200}, nil
}

func TestUserRunIterations(t *testing.T) {
	c := &countingClient{}
	sc := scenario.Echo(nil)
	sc.Wait = scenario.Constant(0)

	u := NewUser(0, sc, c, rand.New(rand.NewPCG(1, 1)), 5, nil)
	u.Run(context.Background())

	assert.Equal(t, 5, c.calls)
	assert.EqualValues(t, 5, u.Completed())
	assert.Len(t, u.ID, 36)
}

func TestUserSeesOwnID(t *testing.T) {
	var seen string
	sc := scenario.Scenario{
		Wait: scenario.Constant(0),
		Tasks: []scenario.Task{{Name: "id", Weight: 1, Fn: func(ctx context.Context, _ scenario.Client) error {
			seen = scenario.UserIDFrom(ctx)
			return nil
		}}},
	}

	u := NewUser(3, sc, &countingClient{}, rand.New(rand.NewPCG(1, 1)), 1, nil)
	u.Run(context.Background())

	assert.Equal(t, u.ID, seen)
	assert.Equal(t, 3, u.Index)
}

func TestUserStopsOnCancelledContext(t *testing.T) {
	c := &countingClient{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := NewUser(0, scenario.Echo(nil), c, rand.New(rand.NewPCG(1, 1)), 0, nil)
	u.Run(ctx)

	assert.Equal(t, 0, c.calls)
}

func TestSleep(t *testing.T) {
	assert.True(t, sleep(context.Background(), 0))
	assert.True(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.False(t, sleep(ctx, time.Minute))
	assert.False(t, sleep(ctx, 0))
	assert.Less(t, time.Since(start), time.Second)
}
