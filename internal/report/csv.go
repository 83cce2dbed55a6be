package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"echoload/internal/stats"
)

var statsHeader = []string{
	"Type", "Name", "Request Count", "Failure Count",
	"Median Response Time", "Average Response Time",
	"Min Response Time", "Max Response Time",
	"Average Content Size", "Requests/s", "Failures/s",
	"90%", "95%", "99%",
}

// WriteStatsCSV writes one row per request name followed by an
// Aggregated row.
func WriteStatsCSV(w io.Writer, st *stats.Stats, elapsed time.Duration) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statsHeader); err != nil {
		return err
	}

	for _, e := range st.Entries() {
		if err := cw.Write(statsRow(e, elapsed)); err != nil {
			return err
		}
	}
	if err := cw.Write(statsRow(st.Aggregated(), elapsed)); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

func statsRow(e stats.EntrySnapshot, elapsed time.Duration) []string {
	avgSize := 0.0
	if e.Requests > 0 {
		avgSize = float64(e.Bytes) / float64(e.Requests)
	}
	var rps, fps float64
	if secs := elapsed.Seconds(); secs > 0 {
		rps = float64(e.Requests) / secs
		fps = float64(e.Failures) / secs
	}

	return []string{
		e.Method,
		e.Name,
		strconv.FormatUint(e.Requests, 10),
		strconv.FormatUint(e.Failures, 10),
		ms(e.Latency.P50Ms),
		ms(e.Latency.AvgMs),
		ms(e.Latency.MinMs),
		ms(e.Latency.MaxMs),
		fmt.Sprintf("%.2f", avgSize),
		fmt.Sprintf("%.2f", rps),
		fmt.Sprintf("%.2f", fps),
		ms(e.Latency.P90Ms),
		ms(e.Latency.P95Ms),
		ms(e.Latency.P99Ms),
	}
}

// WriteFailuresCSV writes the grouped error table.
func WriteFailuresCSV(w io.Writer, st *stats.Stats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Source", "Error", "Occurrences"}); err != nil {
		return err
	}
	for _, e := range st.Errors() {
		row := []string{e.Source, e.Message, strconv.FormatUint(e.Occurrences, 10)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ms(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
