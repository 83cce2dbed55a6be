package echo

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, rd))
	return rec, rec.Body.String()
}

func TestEchoGet(t *testing.T) {
	h := NewServer(ServerConfig{}, nil).Handler()

	rec, body := do(t, h, "GET", "/echo", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "echo", body)

	rec, body = do(t, h, "GET", "/echo?user=42", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user=42", body)
}

func TestEchoPost(t *testing.T) {
	h := NewServer(ServerConfig{}, nil).Handler()

	rec, body := do(t, h, "POST", "/echo", "Hello, World!")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, World!", body)
}

func TestStatusRoute(t *testing.T) {
	h := NewServer(ServerConfig{}, nil).Handler()

	tests := []struct {
		target string
		want   int
	}{
		{"/status/200", 200},
		{"/status/404", 404},
		{"/status/503", 503},
		{"/status/99", 400},
		{"/status/abc", 400},
	}
	for _, tt := range tests {
		rec, _ := do(t, h, "GET", tt.target, "")
		assert.Equal(t, tt.want, rec.Code, tt.target)
	}
}

func TestUnknownRoute(t *testing.T) {
	h := NewServer(ServerConfig{}, nil).Handler()
	rec, _ := do(t, h, "GET", "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, "DELETE", "/echo", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFailRate(t *testing.T) {
	h := NewServer(ServerConfig{FailRate: 1}, nil).Handler()
	for range 5 {
		rec, _ := do(t, h, "GET", "/echo", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	}

	rec, _ := do(t, h, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health is never failed")
}

func TestLatency(t *testing.T) {
	h := NewServer(ServerConfig{Latency: 30 * time.Millisecond}, nil).Handler()
	start := time.Now()
	rec, _ := do(t, h, "GET", "/echo", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ServerConfig{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/echo"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
}
