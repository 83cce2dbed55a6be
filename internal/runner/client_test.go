package runner

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echoload/internal/scenario"
	"echoload/internal/stats"
)

func TestHTTPClientDo(t *testing.T) {
	var hits atomic.Int64
	var gotBody, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))
	defer srv.Close()

	st := stats.NewStats()
	c, err := NewHTTPClient(srv.URL+"/api/", srv.Client(), st, nil)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), http.MethodPost, "/echo?x=1", []byte("hi"))
	require.NoError(t, err)

	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "created", string(resp.Body))
	assert.Equal(t, "hi", gotBody)
	assert.Equal(t, "/api/echo", gotPath)
	assert.Equal(t, "x=1", gotQuery)
	assert.Positive(t, resp.Elapsed)

	entries := st.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "POST", entries[0].Method)
	assert.Equal(t, "/echo", entries[0].Name)
	assert.EqualValues(t, 7, entries[0].Bytes)
	assert.EqualValues(t, 0, c.Inflight())
}

func TestHTTPClientGetOneRequest(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, srv.Client(), stats.NewStats(), nil)
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/echo")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.EqualValues(t, 1, hits.Load(), "non-2xx must not be retried")
}

func TestHTTPClientCancelledNotRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	st := stats.NewStats()
	c, err := NewHTTPClient(srv.URL, srv.Client(), st, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Get(ctx, "/echo")

	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, st.Requests)
}

func TestHTTPClientRecordsContextRequestName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := stats.NewStats()
	c, err := NewHTTPClient(srv.URL, srv.Client(), st, nil)
	require.NoError(t, err)

	ctx := scenario.WithRequestName(context.Background(), "/users/{{userID}}")
	for _, path := range []string{"/users/a", "/users/b", "/users/c"} {
		_, err := c.Get(ctx, path)
		require.NoError(t, err)
	}

	entries := st.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "/users/{{userID}}", entries[0].Name)
	assert.EqualValues(t, 3, entries[0].Requests)
}

func TestNewHTTPClientRejectsRelative(t *testing.T) {
	_, err := NewHTTPClient("localhost:8080", http.DefaultClient, stats.NewStats(), nil)
	assert.Error(t, err)
}

func TestRequestName(t *testing.T) {
	assert.Equal(t, "/echo", requestName("/echo"))
	assert.Equal(t, "/echo", requestName("/echo?a=b"))
}
