package stats

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSuccess(t *testing.T) {
	tests := []struct {
		status int
		err    error
		want   bool
	}{
		{200, nil, true},
		{204, nil, true},
		{302, nil, true},
		{404, nil, false},
		{500, nil, false},
		{0, errors.New("dial tcp: refused"), false},
		{200, errors.New("body read"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSuccess(tt.status, tt.err), "status %d err %v", tt.status, tt.err)
	}
}

func TestRecordRequest(t *testing.T) {
	s := NewStats()

	s.RecordRequest("GET", "/echo", 200, 4, 10*time.Millisecond, nil)
	s.RecordRequest("GET", "/echo", 200, 4, 20*time.Millisecond, nil)
	s.RecordRequest("GET", "/echo", 500, 0, 30*time.Millisecond, nil)
	s.RecordRequest("GET", "/echo", 0, 0, 5*time.Millisecond, errors.New("connection refused"))

	assert.EqualValues(t, 4, s.Requests)
	assert.EqualValues(t, 2, s.Success)
	assert.EqualValues(t, 2, s.Fail)
	assert.EqualValues(t, 8, s.Bytes)
	assert.InDelta(t, 50.0, s.ErrorRate(), 0.001)

	entries := s.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "GET", e.Method)
	assert.Equal(t, "/echo", e.Name)
	assert.EqualValues(t, 4, e.Requests)
	assert.EqualValues(t, 2, e.Failures)
	assert.Equal(t, map[int]uint64{200: 2, 500: 1}, e.Statuses)
	assert.InDelta(t, 0.5, e.FailRatio(), 0.001)
	assert.EqualValues(t, 4, e.Latency.Sample)
	assert.InDelta(t, 30.0, e.Latency.MaxMs, 0.1)
	assert.InDelta(t, 5.0, e.Latency.MinMs, 0.1)

	errs := s.Errors()
	require.Len(t, errs, 2)
	msgs := []string{errs[0].Message, errs[1].Message}
	assert.ElementsMatch(t, []string{"HTTP 500", "connection refused"}, msgs)
	assert.Equal(t, "GET /echo", errs[0].Source)
}

func TestEntriesSorted(t *testing.T) {
	s := NewStats()
	s.RecordRequest("POST", "/b", 200, 0, time.Millisecond, nil)
	s.RecordRequest("GET", "/a", 200, 0, time.Millisecond, nil)
	s.RecordRequest("GET", "/b", 200, 0, time.Millisecond, nil)

	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "GET /a", entries[0].Method+" "+entries[0].Name)
	assert.Equal(t, "GET /b", entries[1].Method+" "+entries[1].Name)
	assert.Equal(t, "POST /b", entries[2].Method+" "+entries[2].Name)
}

func TestAggregated(t *testing.T) {
	s := NewStats()
	s.RecordRequest("GET", "/a", 200, 1, time.Millisecond, nil)
	s.RecordRequest("GET", "/b", 404, 1, time.Millisecond, nil)

	agg := s.Aggregated()
	assert.Equal(t, "Aggregated", agg.Name)
	assert.EqualValues(t, 2, agg.Requests)
	assert.EqualValues(t, 1, agg.Failures)
	assert.Equal(t, map[int]uint64{200: 1, 404: 1}, agg.Statuses)
}

func TestErrorsGroupedAndTruncated(t *testing.T) {
	s := NewStats()
	long := errors.New(strings.Repeat("x", 500))
	for range 3 {
		s.RecordTaskError("echo_request", long)
	}
	s.RecordTaskError("other", errors.New("boom"))

	errs := s.Errors()
	require.Len(t, errs, 2)
	assert.EqualValues(t, 3, errs[0].Occurrences)
	assert.Len(t, errs[0].Message, maxErrorKeyLen)
	assert.Equal(t, "other", errs[1].Source)
	assert.EqualValues(t, 4, s.TaskErrors)
}

func TestReset(t *testing.T) {
	s := NewStats()
	s.RecordRequest("GET", "/echo", 500, 10, time.Millisecond, nil)
	s.RecordTaskError("t", errors.New("e"))

	s.Reset()

	assert.EqualValues(t, 0, s.Requests)
	assert.EqualValues(t, 0, s.Fail)
	assert.EqualValues(t, 0, s.TaskErrors)
	assert.Empty(t, s.Entries())
	assert.Empty(t, s.Errors())
	assert.EqualValues(t, 0, s.ResponseTime.TotalCount())
}

func TestConcurrentRecord(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 250 {
				s.RecordRequest("GET", "/echo", 200, 1, time.Millisecond, nil)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 2000, s.Requests)
	assert.EqualValues(t, 2000, s.Entries()[0].Requests)
	assert.EqualValues(t, 2000, s.ResponseTime.TotalCount())
}

func TestHistogramClampAndPercentiles(t *testing.T) {
	h := NewSafeHistogram()
	h.RecordDuration(0)
	h.RecordDuration(time.Hour)
	for i := 1; i <= 100; i++ {
		h.RecordDuration(time.Duration(i) * time.Millisecond)
	}

	assert.EqualValues(t, 102, h.TotalCount())
	assert.EqualValues(t, 1, h.Min())

	l := h.Latency()
	assert.InDelta(t, 50.0, l.P50Ms, 1.0)
	assert.InDelta(t, 99.0, l.P99Ms, 2.0)
	assert.InDelta(t, 600000.0, l.MaxMs, 1000.0)
}

func TestEmptyHistogramLatency(t *testing.T) {
	assert.Equal(t, Latency{}, NewSafeHistogram().Latency())
}
