// Package metrics exposes Prometheus instrumentation for query generation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// QueryMetrics counts model calls and their latency.
type QueryMetrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
	gather  prometheus.Gatherer
}

// NewQueryMetrics registers the collectors on reg. A nil reg uses a fresh
// registry, so repeated construction in tests does not collide.
func NewQueryMetrics(reg *prometheus.Registry) *QueryMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &QueryMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datenollm",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Model calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "datenollm",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Latency of model calls including validation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		gather: reg,
	}
	reg.MustRegister(m.calls, m.latency)
	return m
}

// Observe records one call.
func (m *QueryMetrics) Observe(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *QueryMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gather, promhttp.HandlerOpts{})
}
