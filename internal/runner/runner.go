package runner

import (
	"context"
	"crypto/tls"
	"errors"
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"echoload/internal/metrics"
	"echoload/internal/scenario"
	"echoload/internal/stats"
)

const tickInterval = 200 * time.Millisecond

type Runner struct {
	Cfg      Config
	Scenario scenario.Scenario
	Stats    *stats.Stats
	Client   *http.Client

	// Event Channel
	Updates StatsUpdateChan

	log     *zap.Logger
	metrics *metrics.Collector
	client  atomic.Pointer[HTTPClient]

	users   atomic.Int64
	running atomic.Bool
	clockMu sync.Mutex
	started time.Time
	ended   time.Time
}

type Option func(*Runner)

// WithMetrics mirrors every request into a Prometheus collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

// WithHTTPClient replaces the tuned default client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) { r.Client = c }
}

func NewRunner(cfg Config, sc scenario.Scenario, updates StatsUpdateChan, log *zap.Logger, opts ...Option) *Runner {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	client := &http.Client{
		Timeout:   cfg.Timeout(),
		Transport: t,
	}

	if updates == nil {
		// Avoid nil panics if not provided
		updates = make(StatsUpdateChan, 10)
	}
	if log == nil {
		log = zap.NewNop()
	}

	r := &Runner{
		Cfg:      cfg,
		Scenario: sc,
		Stats:    stats.NewStats(),
		Client:   client,
		Updates:  updates,
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartTickLoop starts a goroutine that pushes stats updates
func (r *Runner) StartTickLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendUpdate(false)
			}
		}
	}()
}

// Snapshot returns the current counters and percentiles.
func (r *Runner) Snapshot() StatsSnapshot {
	lat := r.Stats.ResponseTime.Latency()
	return StatsSnapshot{
		Elapsed:    r.Elapsed(),
		Users:      r.users.Load(),
		Requests:   atomic.LoadUint64(&r.Stats.Requests),
		Success:    atomic.LoadUint64(&r.Stats.Success),
		Fail:       atomic.LoadUint64(&r.Stats.Fail),
		TaskErrors: atomic.LoadUint64(&r.Stats.TaskErrors),
		Bytes:      atomic.LoadUint64(&r.Stats.Bytes),
		Inflight:   r.GetInflight(),
		P50Ms:      lat.P50Ms,
		P90Ms:      lat.P90Ms,
		P99Ms:      lat.P99Ms,
		MaxMs:      lat.MaxMs,
	}
}

func (r *Runner) sendUpdate(done bool) {
	s := r.Snapshot()
	s.Done = done

	// Non-blocking send
	select {
	case r.Updates <- s:
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}

// Run spawns Cfg.Users simulated users and blocks until every user has
// stopped: run time elapsed, ctx cancelled, or iterations exhausted.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.Cfg.Validate(); err != nil {
		return err
	}
	if err := r.Scenario.Validate(); err != nil {
		return err
	}
	if !r.running.CompareAndSwap(false, true) {
		return errors.New("runner already running")
	}
	defer r.running.Store(false)

	client, err := NewHTTPClient(r.Cfg.Host, r.Client, r.Stats, r.metrics)
	if err != nil {
		return err
	}
	r.client.Store(client)

	r.Stats.Reset()
	r.clockMu.Lock()
	r.started = time.Now()
	r.ended = time.Time{}
	r.clockMu.Unlock()

	if r.Cfg.RunTime > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, r.Cfg.RunTime)
		defer cancelTimeout()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start Tick Loop for UI
	r.StartTickLoop(ctx, tickInterval)

	r.log.Info("load test starting",
		zap.String("scenario", r.Scenario.Name),
		zap.String("host", r.Cfg.Host),
		zap.Int("users", r.Cfg.Users),
		zap.Float64("spawn_rate", r.Cfg.SpawnRate),
		zap.Duration("run_time", r.Cfg.RunTime),
		zap.Int("iterations", r.Cfg.Iterations),
		zap.Stringer("wait", r.Scenario.Wait),
	)

	var wg sync.WaitGroup
	limiter := spawnLimiter(r.Cfg.SpawnRate)
	for i := 0; i < r.Cfg.Users; i++ {
		if err := limiter.Wait(ctx); err != nil {
			r.log.Debug("spawning interrupted", zap.Int("spawned", i), zap.Error(err))
			break
		}

		u := NewUser(i, r.Scenario, client, r.userRand(i), r.Cfg.Iterations, r.recordTaskError)
		r.users.Add(1)
		if r.metrics != nil {
			r.metrics.UserStarted()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				r.users.Add(-1)
				if r.metrics != nil {
					r.metrics.UserStopped()
				}
			}()
			u.Run(ctx)
			r.log.Debug("user stopped", zap.String("user", u.ID), zap.Int64("iterations", u.Completed()))
		}()
	}

	wg.Wait()
	cancel()
	r.clockMu.Lock()
	r.ended = time.Now()
	r.clockMu.Unlock()
	r.sendUpdate(true)

	r.log.Info("load test finished",
		zap.Duration("elapsed", r.Elapsed()),
		zap.Uint64("requests", atomic.LoadUint64(&r.Stats.Requests)),
		zap.Uint64("failures", atomic.LoadUint64(&r.Stats.Fail)),
		zap.Uint64("task_errors", atomic.LoadUint64(&r.Stats.TaskErrors)),
	)
	return nil
}

func (r *Runner) recordTaskError(task string, err error) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		// already counted as a failed request by HTTPClient
		r.log.Debug("request failed", zap.String("task", task), zap.Error(err))
		return
	}
	r.Stats.RecordTaskError(task, err)
	if r.metrics != nil {
		r.metrics.TaskError(task)
	}
	r.log.Debug("task error", zap.String("task", task), zap.Error(err))
}

func (r *Runner) userRand(i int) *rand.Rand {
	if r.Cfg.Seed != 0 {
		return rand.New(rand.NewPCG(r.Cfg.Seed, uint64(i)))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func spawnLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// StartedAt is when the current or last run began; zero before the first run.
func (r *Runner) StartedAt() time.Time {
	r.clockMu.Lock()
	defer r.clockMu.Unlock()
	return r.started
}

// Elapsed is the wall time of the current or last run.
func (r *Runner) Elapsed() time.Duration {
	r.clockMu.Lock()
	defer r.clockMu.Unlock()
	switch {
	case r.started.IsZero():
		return 0
	case !r.ended.IsZero():
		return r.ended.Sub(r.started)
	default:
		return time.Since(r.started)
	}
}

func (r *Runner) ActiveUsers() int64 {
	return r.users.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) GetInflight() int64 {
	c := r.client.Load()
	if c == nil {
		return 0
	}
	return c.Inflight()
}
