package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics defines the interface for recording cache metrics.
type Metrics interface {
	// RecordHit records a cache hit on the named tier ("local" or "secondary").
	RecordHit(tier string)

	// RecordMiss records a full cache miss that triggered a computation.
	RecordMiss()

	// RecordCoalesced records a caller that attached to an in-flight
	// computation instead of starting its own.
	RecordCoalesced()

	// RecordEviction records a capacity eviction from the in-memory tier.
	RecordEviction()

	// SetEntries records the current in-memory entry count.
	SetEntries(n int)
}

// NoopMetrics is the default no-op Metrics implementation.
type NoopMetrics struct{}

// NewNoopMetrics creates a new NoopMetrics instance.
func NewNoopMetrics() *NoopMetrics { return &NoopMetrics{} }

func (m *NoopMetrics) RecordHit(tier string) {}
func (m *NoopMetrics) RecordMiss()           {}
func (m *NoopMetrics) RecordCoalesced()      {}
func (m *NoopMetrics) RecordEviction()       {}
func (m *NoopMetrics) SetEntries(n int)      {}

// PrometheusMetrics implements Metrics using Prometheus collectors
// registered on a provided registerer.
type PrometheusMetrics struct {
	hits      *prometheus.CounterVec
	misses    prometheus.Counter
	coalesced prometheus.Counter
	evictions prometheus.Counter
	entries   prometheus.Gauge
}

// NewPrometheusMetrics creates cache metrics registered on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verification_cache_hits_total",
			Help: "Cache hits by tier",
		}, []string{"tier"}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verification_cache_misses_total",
			Help: "Cache misses that triggered a computation",
		}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verification_cache_coalesced_total",
			Help: "Requests that attached to an in-flight computation",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verification_cache_evictions_total",
			Help: "Capacity evictions from the in-memory tier",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "verification_cache_entries",
			Help: "Current in-memory entry count",
		}),
	}
	reg.MustRegister(m.hits, m.misses, m.coalesced, m.evictions, m.entries)
	return m
}

func (m *PrometheusMetrics) RecordHit(tier string) { m.hits.WithLabelValues(tier).Inc() }
func (m *PrometheusMetrics) RecordMiss()           { m.misses.Inc() }
func (m *PrometheusMetrics) RecordCoalesced()      { m.coalesced.Inc() }
func (m *PrometheusMetrics) RecordEviction()       { m.evictions.Inc() }
func (m *PrometheusMetrics) SetEntries(n int)      { m.entries.Set(float64(n)) }
