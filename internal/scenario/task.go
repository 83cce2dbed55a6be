package scenario

import (
	"context"
	"time"
)

// Response is what a task sees of an HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
	Elapsed    time.Duration
}

// Client is the HTTP handle injected into every task. Implementations are
// bound to a base address; paths are relative to it.
type Client interface {
	Get(ctx context.Context, path string) (*Response, error)
	Do(ctx context.Context, method, path string, body []byte) (*Response, error)
}

// TaskFunc performs one unit of simulated work.
type TaskFunc func(ctx context.Context, c Client) error

// Task is a named, weighted TaskFunc.
type Task struct {
	Name   string
	Weight int
	Fn     TaskFunc
}

type (
	userIDKey      struct{}
	requestNameKey struct{}
)

// WithUserID attaches the simulated user's ID to ctx.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserIDFrom returns the user ID stored by WithUserID, or "".
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// WithRequestName sets the name requests made with ctx are recorded under,
// so that rendered paths with varying parts group into one entry.
func WithRequestName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, requestNameKey{}, name)
}

// RequestNameFrom returns the name stored by WithRequestName, or "".
func RequestNameFrom(ctx context.Context) string {
	name, _ := ctx.Value(requestNameKey{}).(string)
	return name
}
