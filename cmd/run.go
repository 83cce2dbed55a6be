package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"echoload/internal/cli"
	"echoload/internal/config"
	"echoload/internal/metrics"
	"echoload/internal/report"
	"echoload/internal/runner"
	"echoload/internal/storage"
	"echoload/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a load test against --host",
	Example: `  echoload run --host http://localhost:8080 -u 10 -r 2 -t 1m
  echoload run --host http://localhost:8080 -u 1 --iterations 5 --out report
  echoload run --host https://staging.example.com --scenario load.yaml --tui`,
	RunE: runLoad,
}

func init() {
	f := runCmd.Flags()
	f.String("host", "", "base URL of the system under test (required)")
	f.IntP("users", "u", 1, "number of concurrent simulated users")
	f.Float64P("spawn-rate", "r", 1, "users started per second (0 starts all at once)")
	f.DurationP("run-time", "t", 0, "stop after this long, e.g. 30s or 5m (0 runs until stopped)")
	f.Int("iterations", 0, "tasks per user before it stops (0 is unlimited)")
	f.String("scenario", "", "YAML or JSON scenario file (default is the built-in echo scenario)")
	f.Bool("tui", false, "show the interactive dashboard")
	f.StringP("out", "o", "", "output filename prefix for CSV/JSON reports")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")
	f.Int("timeout", runner.DefaultTimeoutSec, "per-request timeout in seconds")
	f.Uint64("seed", 0, "random seed for waits and task picks (0 is random)")
	f.Bool("no-history", false, "do not record this run in history")

	for _, name := range []string{
		"host", "users", "spawn-rate", "run-time", "iterations", "scenario", "tui",
		"out", "metrics-addr", "timeout", "seed", "no-history",
	} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}
}

func runConfigFromViper() runner.Config {
	return runner.Config{
		Host:       viper.GetString("host"),
		Users:      viper.GetInt("users"),
		SpawnRate:  viper.GetFloat64("spawn-rate"),
		RunTime:    viper.GetDuration("run-time"),
		Iterations: viper.GetInt("iterations"),
		TimeoutSec: viper.GetInt("timeout"),
		OutPrefix:  viper.GetString("out"),
		Seed:       viper.GetUint64("seed"),
	}
}

func runLoad(cmd *cobra.Command, _ []string) error {
	cfg := runConfigFromViper()
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc, err := config.Load(viper.GetString("scenario"), log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	if addr := viper.GetString("metrics-addr"); addr != "" {
		shutdown, err := serveMetrics(addr, collector)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	opts := cli.Options{
		Out:       cmd.OutOrStdout(),
		OutPrefix: cfg.OutPrefix,
		Log:       log,
	}
	if !viper.GetBool("no-history") {
		store, err := openHistory()
		if err != nil {
			log.Warn("run history disabled", zap.Error(err))
		} else {
			defer store.Close()
			opts.Store = store
		}
	}

	updates := make(runner.StatsUpdateChan, 100)
	r := runner.NewRunner(cfg, sc, updates, log, runner.WithMetrics(collector))

	if viper.GetBool("tui") {
		return runTUI(ctx, r, opts)
	}
	return cli.Start(ctx, r, opts)
}

func runTUI(ctx context.Context, r *runner.Runner, opts cli.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tl := report.NewTimeline()
	m := tui.NewModel(r, cancel)
	m.Timeline = tl
	p := tea.NewProgram(m, tea.WithAltScreen())

	runErr := make(chan error, 1)
	go func() {
		err := r.Run(ctx)
		runErr <- err
		p.Send(tui.RunDoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-runErr
		return fmt.Errorf("dashboard: %w", err)
	}

	// the dashboard exits after the run finished or was asked to stop
	cancel()
	if err := <-runErr; err != nil {
		return err
	}
	cli.Finish(r, tl, opts)
	return nil
}

func serveMetrics(addr string, c *metrics.Collector) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	router := chi.NewRouter()
	router.Handle("/metrics", c.Handler())
	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func openHistory() (*storage.Store, error) {
	path := viper.GetString("history-path")
	if path == "" {
		p, err := storage.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return storage.Open(path)
}
