package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"echoload/internal/metrics"
	"echoload/internal/scenario"
	"echoload/internal/stats"
)

// RequestError is a transport failure that HTTPClient has already
// accounted for in the stats.
type RequestError struct {
	Method string
	Path   string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// HTTPClient is the scenario.Client handed to every simulated user. It is
// bound to one base address and records each exchange.
type HTTPClient struct {
	base     string
	http     *http.Client
	stats    *stats.Stats
	metrics  *metrics.Collector
	inflight atomic.Int64
}

var _ scenario.Client = (*HTTPClient)(nil)

// NewHTTPClient binds hc to base. metrics may be nil.
func NewHTTPClient(base string, hc *http.Client, st *stats.Stats, m *metrics.Collector) (*HTTPClient, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse host: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("host %q must be an absolute URL", base)
	}
	return &HTTPClient{
		base:    strings.TrimRight(base, "/"),
		http:    hc,
		stats:   st,
		metrics: m,
	}, nil
}

func (c *HTTPClient) Get(ctx context.Context, path string) (*scenario.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Do performs exactly one request, recorded under scenario.RequestNameFrom(ctx)
// or, when unset, the path without its query. Requests abandoned because
// ctx ended are not recorded.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body []byte) (*scenario.Response, error) {
	name := scenario.RequestNameFrom(ctx)
	if name == "" {
		name = requestName(path)
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		c.record(method, name, 0, 0, 0, err)
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}

	c.inflight.Add(1)
	defer c.inflight.Add(-1)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.record(method, name, 0, 0, time.Since(start), err)
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.record(method, name, resp.StatusCode, int64(len(data)), elapsed, err)
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}

	c.record(method, name, resp.StatusCode, int64(len(data)), elapsed, nil)
	return &scenario.Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Elapsed:    elapsed,
	}, nil
}

// Inflight returns the number of requests currently on the wire.
func (c *HTTPClient) Inflight() int64 {
	return c.inflight.Load()
}

func (c *HTTPClient) record(method, name string, status int, n int64, d time.Duration, err error) {
	c.stats.RecordRequest(method, name, status, n, d, err)
	if c.metrics != nil {
		if err != nil {
			status = 0
		}
		c.metrics.ObserveRequest(method, name, status, d)
	}
}

// requestName strips the query string so stats group by path.
func requestName(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
