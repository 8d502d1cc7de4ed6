// Package metrics turns live device state, host resource readings and HTTP
// instrumentation counters into a Prometheus exposition snapshot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"visionix/internal/state"
)

// Metrics owns the process-private registry and every collector registered
// on it. Constructed once at startup; no default-registry globals.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the state, host and HTTP collectors on a fresh registry.
func New(store *state.Store, logger *zap.Logger) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}

	reg.MustRegister(
		NewStateCollector(store),
		NewHostCollector(logger),
		m.requestsTotal,
		m.requestDuration,
	)
	return m
}

// RecordRequest counts one completed request and observes its latency. Pure
// in-memory increment; never blocks, never fails.
func (m *Metrics) RecordRequest(method, path, status string, latency time.Duration) {
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(path).Observe(latency.Seconds())
}

// Handler serves the exposition. A failing collector degrades the scrape
// instead of aborting it.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
