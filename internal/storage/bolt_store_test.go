package storage

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echoload/internal/echo"
	"echoload/internal/report"
	"echoload/internal/runner"
	"echoload/internal/scenario"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(host string, reqs uint64) RunRecord {
	return RunRecord{
		Timestamp: time.Now(),
		Config:    runner.Config{Host: host, Users: 1},
		Summary:   report.Summary{Host: host, Requests: reqs},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTemp(t)

	id, err := s.Save(record("http://a", 10))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "http://a", got.Config.Host)
	assert.Equal(t, uint64(10), got.Summary.Requests)
}

func TestGetMissing(t *testing.T) {
	s := openTemp(t)
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTemp(t)

	for i, host := range []string{"http://1", "http://2", "http://3"} {
		_, err := s.Save(record(host, uint64(i)))
		require.NoError(t, err)
		// UUIDv7 has millisecond precision
		time.Sleep(2 * time.Millisecond)
	}

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "http://3", all[0].Config.Host)
	assert.Equal(t, "http://1", all[2].Config.Host)

	two, err := s.List(2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "http://2", two[1].Config.Host)
}

func TestSaveKeepsExplicitID(t *testing.T) {
	s := openTemp(t)
	rec := record("http://x", 1)
	rec.ID = "fixed"

	id, err := s.Save(rec)
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)

	rec.Summary.Requests = 2
	_, err = s.Save(rec)
	require.NoError(t, err)

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 1, "same ID overwrites")
	assert.Equal(t, uint64(2), all[0].Summary.Requests)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.Save(record("http://p", 3))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Summary.Requests)
}

func TestNewRunRecord(t *testing.T) {
	srv := httptest.NewServer(echo.NewServer(echo.ServerConfig{}, nil).Handler())
	defer srv.Close()

	r := runner.NewRunner(runner.Config{Host: srv.URL, Users: 1, Iterations: 2}, scenario.Echo(nil), nil, nil)
	r.Scenario.Wait = scenario.Constant(0)
	require.NoError(t, r.Run(context.Background()))

	rec := NewRunRecord(r)
	assert.Equal(t, srv.URL, rec.Config.Host)
	assert.Equal(t, uint64(2), rec.Summary.Requests)
	assert.False(t, rec.Timestamp.IsZero())

	s := openTemp(t)
	id, err := s.Save(rec)
	require.NoError(t, err)
	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, scenario.EchoScenarioName, got.Summary.Scenario)
}
