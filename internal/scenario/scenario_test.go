package scenario

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type call struct {
	method string
	path   string
	body   string
	name   string // request name carried in the context
}

// fakeClient answers every request with a fixed status or error.
type fakeClient struct {
	mu     sync.Mutex
	status int
	err    error
	calls  []call
}

func (f *fakeClient) Get(ctx context.Context, path string) (*Response, error) {
	return f.Do(ctx, http.MethodGet, path, nil)
}

func (f *fakeClient) Do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: method, path: path, body: string(body), name: RequestNameFrom(ctx)})
	if f.err != nil {
		return nil, f.err
	}
	return &Response{StatusCode: f.status}, nil
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestWaitTimeValidate(t *testing.T) {
	tests := []struct {
		name    string
		wait    WaitTime
		wantErr bool
	}{
		{"echo range", Between(1, 5), false},
		{"zero", Between(0, 0), false},
		{"constant", Constant(2), false},
		{"negative min", Between(-1, 5), true},
		{"min above max", Between(5, 1), true},
		{"largest duration", Between(0, MaxWaitSeconds), false},
		{"max overflows duration", Between(1, 1e11), true},
		{"infinite max", Between(1, math.Inf(1)), true},
		{"NaN max", Between(1, math.NaN()), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wait.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWaitTime)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWaitTimeDrawWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	w := Between(1, 5)

	for range 10000 {
		d := w.Draw(rng)
		require.GreaterOrEqual(t, d, time.Second)
		require.LessOrEqual(t, d, 5*time.Second)
	}
}

func TestWaitTimeDrawLargestRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	w := Between(1, MaxWaitSeconds)
	require.NoError(t, w.Validate())

	for range 1000 {
		d := w.Draw(rng)
		require.GreaterOrEqual(t, d, time.Second)
	}
}

func TestWaitTimeDrawConstant(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	assert.Equal(t, 1500*time.Millisecond, Constant(1.5).Draw(rng))
	assert.Equal(t, time.Duration(0), Between(0, 0).Draw(rng))
}

func TestWaitTimeString(t *testing.T) {
	assert.Equal(t, "1s..5s", Between(1, 5).String())
	assert.Equal(t, "0.5s", Constant(0.5).String())
}

func TestEchoScenario(t *testing.T) {
	sc := Echo(zap.NewNop())

	require.NoError(t, sc.Validate())
	assert.Equal(t, "echo", sc.Name)
	assert.Equal(t, Between(1, 5), sc.Wait)
	require.Len(t, sc.Tasks, 1)
	assert.Equal(t, "echo_request", sc.Tasks[0].Name)
	assert.Equal(t, 1, sc.Tasks[0].Weight)
}

func TestEchoTaskOK(t *testing.T) {
	log, logs := observedLogger()
	c := &fakeClient{status: http.StatusOK}

	err := EchoTask(log)(context.Background(), c)

	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())
	assert.Equal(t, []call{{method: "GET", path: "/echo"}}, c.calls)
}

func TestEchoTaskNotFound(t *testing.T) {
	log, logs := observedLogger()
	c := &fakeClient{status: http.StatusNotFound}

	err := EchoTask(log)(context.Background(), c)

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Contains(t, entry.Message, "404")
	assert.Equal(t, "Received non-200 status code: 404", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Len(t, c.calls, 1)
}

func TestEchoTaskTransportError(t *testing.T) {
	log, logs := observedLogger()
	refused := errors.New("connection refused")
	c := &fakeClient{err: refused}

	err := EchoTask(log)(context.Background(), c)

	assert.ErrorIs(t, err, refused)
	assert.Equal(t, 0, logs.Len())
	assert.Len(t, c.calls, 1, "no retry on failure")
}

func TestEchoTaskOneRequestPerInvocation(t *testing.T) {
	c := &fakeClient{status: http.StatusInternalServerError}
	fn := EchoTask(zap.NewNop())

	for i := 1; i <= 5; i++ {
		require.NoError(t, fn(context.Background(), c))
		assert.Len(t, c.calls, i)
	}
}

func TestScenarioValidate(t *testing.T) {
	noop := func(context.Context, Client) error { return nil }

	tests := []struct {
		name string
		sc   Scenario
		want error
	}{
		{"ok", Scenario{Wait: Between(0, 1), Tasks: []Task{{Name: "a", Weight: 1, Fn: noop}}}, nil},
		{"bad wait", Scenario{Wait: Between(2, 1), Tasks: []Task{{Name: "a", Weight: 1, Fn: noop}}}, ErrInvalidWaitTime},
		{"no tasks", Scenario{Wait: Between(0, 1)}, ErrNoTasks},
		{"nil fn", Scenario{Wait: Between(0, 1), Tasks: []Task{{Name: "a", Weight: 1}}}, ErrInvalidTask},
		{"zero weight", Scenario{Wait: Between(0, 1), Tasks: []Task{{Name: "a", Fn: noop}}}, ErrInvalidTask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sc.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestScenarioPickWeighted(t *testing.T) {
	noop := func(context.Context, Client) error { return nil }
	sc := Scenario{
		Wait: Constant(0),
		Tasks: []Task{
			{Name: "light", Weight: 1, Fn: noop},
			{Name: "heavy", Weight: 3, Fn: noop},
		},
	}
	require.NoError(t, sc.Validate())
	assert.Equal(t, 4, sc.TotalWeight())

	rng := rand.New(rand.NewPCG(7, 11))
	counts := map[string]int{}
	const n = 40000
	for range n {
		counts[sc.Pick(rng).Name]++
	}

	heavy := float64(counts["heavy"]) / n
	assert.InDelta(t, 0.75, heavy, 0.02)
	assert.Equal(t, n, counts["light"]+counts["heavy"])
}

func TestUserIDContext(t *testing.T) {
	assert.Equal(t, "", UserIDFrom(context.Background()))
	ctx := WithUserID(context.Background(), "user-1")
	assert.Equal(t, "user-1", UserIDFrom(ctx))
}
