package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
//
// It records decision counters, check duration histograms, active key
// gauges, and eviction counters, all labeled by limiter name.
type PrometheusMetrics struct {
	// decisionsTotal tracks rate limit decisions by limiter and outcome.
	// Labels: limiter, status ("allowed" or "denied")
	decisionsTotal *prometheus.CounterVec

	// checkDuration tracks the duration of rate limit check operations.
	// Buckets target sub-millisecond in-memory checks with headroom for
	// remote stores.
	checkDuration *prometheus.HistogramVec

	// activeKeys tracks the current number of tracked identifiers.
	activeKeys *prometheus.GaugeVec

	// evictionsTotal tracks keys evicted or cleaned from the store.
	evictionsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its collectors on the given registerer. Pass prometheus.NewRegistry() in
// tests to keep metrics isolated.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Rate limit decisions by limiter and status",
		},
		[]string{"limiter", "status"},
	)

	checkDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rate_limit_check_duration_seconds",
			Help:    "Duration of rate limit check operations",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"limiter"},
	)

	activeKeys := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rate_limit_active_keys",
			Help: "Current number of tracked identifiers by limiter",
		},
		[]string{"limiter"},
	)

	evictionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_evictions_total",
			Help: "Identifiers evicted or cleaned from the store",
		},
		[]string{"limiter"},
	)

	reg.MustRegister(decisionsTotal, checkDuration, activeKeys, evictionsTotal)

	return &PrometheusMetrics{
		decisionsTotal: decisionsTotal,
		checkDuration:  checkDuration,
		activeKeys:     activeKeys,
		evictionsTotal: evictionsTotal,
	}
}

// RecordAllowed records an admitted request.
func (m *PrometheusMetrics) RecordAllowed(limiter string) {
	m.decisionsTotal.WithLabelValues(limiter, "allowed").Inc()
}

// RecordDenied records a rate limit violation.
func (m *PrometheusMetrics) RecordDenied(limiter string) {
	m.decisionsTotal.WithLabelValues(limiter, "denied").Inc()
}

// RecordCheckDuration records how long a rate limit check took.
func (m *PrometheusMetrics) RecordCheckDuration(limiter string, d time.Duration) {
	m.checkDuration.WithLabelValues(limiter).Observe(d.Seconds())
}

// SetActiveKeys records the current number of tracked identifiers.
func (m *PrometheusMetrics) SetActiveKeys(limiter string, count int) {
	m.activeKeys.WithLabelValues(limiter).Set(float64(count))
}

// RecordEviction records keys evicted or cleaned from the store.
func (m *PrometheusMetrics) RecordEviction(limiter string, count int) {
	m.evictionsTotal.WithLabelValues(limiter).Add(float64(count))
}
