// Package metrics exposes live load-test counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "echoload"

// Collector owns a private registry so several runs (or tests) never collide.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	taskErrors      *prometheus.CounterVec
	usersActive     prometheus.Gauge
}

// NewCollector registers every load-test metric on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests issued by simulated users",
			},
			[]string{"method", "name", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "name"},
		),
		taskErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_errors_total",
				Help:      "Errors returned by tasks outside of a recorded request",
			},
			[]string{"task"},
		),
		usersActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "users_active",
				Help:      "Number of running simulated users",
			},
		),
	}
}

// ObserveRequest records one request. status 0 is reported as "error".
func (c *Collector) ObserveRequest(method, name string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.requestsTotal.WithLabelValues(method, name, label).Inc()
	c.requestDuration.WithLabelValues(method, name).Observe(d.Seconds())
}

func (c *Collector) TaskError(task string) {
	c.taskErrors.WithLabelValues(task).Inc()
}

func (c *Collector) UserStarted() {
	c.usersActive.Inc()
}

func (c *Collector) UserStopped() {
	c.usersActive.Dec()
}

// Registry exposes the underlying registry for tests and custom exporters.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
