package report

import (
	"fmt"
	"io"
	"os"

	"echoload/internal/runner"
)

// WriteAll writes <prefix>_stats.csv, <prefix>_failures.csv,
// <prefix>_summary.json and, when tl is non-nil, <prefix>_timeline.json.
// It returns the paths written.
func WriteAll(prefix string, r *runner.Runner, tl *Timeline) ([]string, error) {
	if prefix == "" {
		return nil, fmt.Errorf("report: empty output prefix")
	}

	var written []string
	write := func(suffix string, fn func(io.Writer) error) error {
		path := prefix + suffix
		if err := writeFile(path, fn); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	elapsed := r.Elapsed()
	if err := write("_stats.csv", func(w io.Writer) error {
		return WriteStatsCSV(w, r.Stats, elapsed)
	}); err != nil {
		return written, err
	}
	if err := write("_failures.csv", func(w io.Writer) error {
		return WriteFailuresCSV(w, r.Stats)
	}); err != nil {
		return written, err
	}
	if err := write("_summary.json", func(w io.Writer) error {
		return WriteSummaryJSON(w, NewSummary(r))
	}); err != nil {
		return written, err
	}
	if tl != nil {
		if err := write("_timeline.json", func(w io.Writer) error {
			return WriteTimelineJSON(w, tl.Points())
		}); err != nil {
			return written, err
		}
	}
	return written, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
