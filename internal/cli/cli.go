// Package cli is the headless front end of `echoload run`.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"echoload/internal/report"
	"echoload/internal/runner"
	"echoload/internal/storage"
)

const progressInterval = 200 * time.Millisecond

const rule = "======================================================================"

type Options struct {
	Out       io.Writer      // defaults to os.Stdout
	OutPrefix string         // empty disables report files
	Store     *storage.Store // nil disables history
	Log       *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

// Start runs r to completion while printing a progress line, then prints
// the summary, writes reports and records the run in history.
func Start(ctx context.Context, r *runner.Runner, opts Options) error {
	opts = opts.withDefaults()
	PrintHeader(opts.Out, r)

	tl := report.NewTimeline()
	runErr := make(chan error, 1)
	go func() {
		runErr <- r.Run(ctx)
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case snap := <-r.Updates:
			tl.Add(snap)
		case <-ticker.C:
			fmt.Fprintf(opts.Out, "\r%s", progressLine(r.Snapshot(), r.Cfg.RunTime))
		case err := <-runErr:
			if err != nil {
				fmt.Fprintln(opts.Out)
				return err
			}
			drain(r.Updates, tl)
			fmt.Fprintf(opts.Out, "\r%s\n", progressLine(r.Snapshot(), r.Cfg.RunTime))
			Finish(r, tl, opts)
			return nil
		}
	}
}

func drain(updates runner.StatsUpdateChan, tl *report.Timeline) {
	for {
		select {
		case snap := <-updates:
			tl.Add(snap)
		default:
			return
		}
	}
}

// Finish prints the summary and handles reports and history for a
// completed run. The TUI path calls it after the dashboard closes.
func Finish(r *runner.Runner, tl *report.Timeline, opts Options) {
	opts = opts.withDefaults()
	PrintSummary(opts.Out, report.NewSummary(r))
	handleAutoReport(r, tl, opts)
	saveHistory(r, opts)
}

func PrintHeader(w io.Writer, r *runner.Runner) {
	cfg := r.Cfg
	fmt.Fprintf(w, "\nSTARTING ECHOLOAD\n")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Scenario   : %s (%d tasks, wait %s)\n", r.Scenario.Name, len(r.Scenario.Tasks), r.Scenario.Wait)
	fmt.Fprintf(w, "Host       : %s\n", cfg.Host)
	fmt.Fprintf(w, "Users      : %d (spawn rate %s)\n", cfg.Users, spawnRate(cfg.SpawnRate))
	fmt.Fprintf(w, "Run time   : %s\n", limit(cfg.RunTime))
	if cfg.Iterations > 0 {
		fmt.Fprintf(w, "Iterations : %d per user\n", cfg.Iterations)
	}
	fmt.Fprintf(w, "Timeout    : %s\n", cfg.Timeout())
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

func spawnRate(rate float64) string {
	if rate <= 0 {
		return "all at once"
	}
	return fmt.Sprintf("%.2f/s", rate)
}

func limit(d time.Duration) string {
	if d <= 0 {
		return "until stopped"
	}
	return d.String()
}

func progressLine(s runner.StatsSnapshot, runTime time.Duration) string {
	rps := 0.0
	if secs := s.Elapsed.Seconds(); secs > 0 {
		rps = float64(s.Requests) / secs
	}

	prefix := s.Elapsed.Round(time.Second).String()
	if runTime > 0 {
		pct := min(1.0, s.Elapsed.Seconds()/runTime.Seconds())
		prefix = fmt.Sprintf("%s %3.0f%% | %s/%s", progressBar(pct, 20), pct*100, s.Elapsed.Round(time.Second), runTime)
	}

	return fmt.Sprintf("%s | Users: %d | Inf: %3d | RPS: %.1f | OK: %d | Fail: %d",
		prefix, s.Users, s.Inflight, rps, s.Success, s.Fail)
}

func progressBar(pct float64, width int) string {
	filled := max(0, min(width, int(pct*float64(width))))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func PrintSummary(w io.Writer, s report.Summary) {
	fmt.Fprintf(w, "\nLOAD TEST RESULTS\n")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total Duration : %s\n", s.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "Requests Sent  : %d\n", s.Requests)
	fmt.Fprintf(w, "Success        : %d\n", s.Success)
	fmt.Fprintf(w, "Failures       : %d (%.2f%%)\n", s.Failures, s.ErrorRate)
	fmt.Fprintf(w, "Task Errors    : %d\n", s.TaskErrors)
	fmt.Fprintf(w, "Actual RPS     : %.2f\n", s.RPS)

	fmt.Fprintf(w, "\nRESPONSE TIMES (ms)\n")
	fmt.Fprintf(w, "   Avg : %.2f\n", s.Latency.AvgMs)
	fmt.Fprintf(w, "   P50 : %.2f\n", s.Latency.P50Ms)
	fmt.Fprintf(w, "   P90 : %.2f\n", s.Latency.P90Ms)
	fmt.Fprintf(w, "   P95 : %.2f\n", s.Latency.P95Ms)
	fmt.Fprintf(w, "   P99 : %.2f\n", s.Latency.P99Ms)
	fmt.Fprintf(w, "   Max : %.2f\n", s.Latency.MaxMs)

	if len(s.Entries) > 0 {
		fmt.Fprintf(w, "\nREQUESTS\n")
		fmt.Fprintf(w, "   %-6s %-30s %8s %8s %10s\n", "Method", "Name", "Reqs", "Fails", "P90 ms")
		for _, e := range s.Entries {
			fmt.Fprintf(w, "   %-6s %-30s %8d %8d %10.2f\n", e.Method, e.Name, e.Requests, e.Failures, e.Latency.P90Ms)
		}
	}

	if len(s.Statuses) > 0 {
		codes := make([]int, 0, len(s.Statuses))
		for c := range s.Statuses {
			codes = append(codes, c)
		}
		sort.Ints(codes)

		fmt.Fprintf(w, "\nSTATUS CODES\n")
		for _, c := range codes {
			label := fmt.Sprintf("%d", c)
			if c == 0 {
				label = "error"
			}
			fmt.Fprintf(w, "   %-5s : %d\n", label, s.Statuses[c])
		}
	}

	if len(s.Errors) > 0 {
		fmt.Fprintf(w, "\nFAILURE SUMMARY\n")
		for _, e := range s.Errors {
			fmt.Fprintf(w, "   %d x [%s] %s\n", e.Occurrences, e.Source, e.Message)
		}
	}
	fmt.Fprintln(w, rule)
}

func handleAutoReport(r *runner.Runner, tl *report.Timeline, opts Options) {
	if opts.OutPrefix == "" {
		return
	}

	fmt.Fprintf(opts.Out, "\nGenerating reports with prefix: %s\n", opts.OutPrefix)
	paths, err := report.WriteAll(opts.OutPrefix, r, tl)
	if err != nil {
		opts.Log.Error("report failed", zap.String("prefix", opts.OutPrefix), zap.Error(err))
		return
	}
	for _, p := range paths {
		fmt.Fprintf(opts.Out, "   %s\n", p)
	}
}

func saveHistory(r *runner.Runner, opts Options) {
	if opts.Store == nil {
		return
	}
	id, err := opts.Store.Save(storage.NewRunRecord(r))
	if err != nil {
		opts.Log.Warn("could not save run history", zap.Error(err))
		return
	}
	opts.Log.Debug("run saved", zap.String("id", id), zap.String("path", opts.Store.Path()))
	fmt.Fprintf(opts.Out, "Run saved to history as %s\n", id)
}
