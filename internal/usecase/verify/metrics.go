package verify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics receives verification pipeline measurements.
type Metrics interface {
	// RecordVerification counts a completed verification by final verdict
	// and cache disposition ("hit" or "computed").
	RecordVerification(verdict string, disposition string, elapsed time.Duration)

	// RecordProviderCall counts one provider call by outcome
	// ("success", "error", "panic") with its latency.
	RecordProviderCall(provider, outcome string, latency time.Duration)

	// RecordProviderSkipped counts a provider skipped due to cooldown.
	RecordProviderSkipped(provider string)

	// RecordRateLimited counts a request rejected by the rate limiter.
	RecordRateLimited()
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

func (NoopMetrics) RecordVerification(string, string, time.Duration)  {}
func (NoopMetrics) RecordProviderCall(string, string, time.Duration) {}
func (NoopMetrics) RecordProviderSkipped(string)                     {}
func (NoopMetrics) RecordRateLimited()                               {}

// PrometheusMetrics exports verification pipeline measurements as Prometheus
// collectors.
type PrometheusMetrics struct {
	verifications    *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	providerCalls    *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	providerSkipped  *prometheus.CounterVec
	rateLimited      prometheus.Counter
}

// NewPrometheusMetrics creates and registers the verification collectors on
// the given registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_requests_total",
				Help: "Completed verifications by final verdict and cache disposition.",
			},
			[]string{"verdict", "disposition"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "verification_duration_seconds",
				Help:    "End-to-end verification latency.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"disposition"},
		),
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_provider_calls_total",
				Help: "Provider calls by outcome.",
			},
			[]string{"provider", "outcome"},
		),
		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "verification_provider_latency_seconds",
				Help:    "Per-provider call latency including retries.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),
		providerSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_provider_skipped_total",
				Help: "Providers skipped because their circuit was in cooldown.",
			},
			[]string{"provider"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "verification_rate_limited_total",
				Help: "Requests rejected by the rate limiter.",
			},
		),
	}
	reg.MustRegister(
		m.verifications,
		m.duration,
		m.providerCalls,
		m.providerLatency,
		m.providerSkipped,
		m.rateLimited,
	)
	return m
}

func (m *PrometheusMetrics) RecordVerification(verdict, disposition string, elapsed time.Duration) {
	m.verifications.WithLabelValues(verdict, disposition).Inc()
	m.duration.WithLabelValues(disposition).Observe(elapsed.Seconds())
}

func (m *PrometheusMetrics) RecordProviderCall(provider, outcome string, latency time.Duration) {
	m.providerCalls.WithLabelValues(provider, outcome).Inc()
	m.providerLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

func (m *PrometheusMetrics) RecordProviderSkipped(provider string) {
	m.providerSkipped.WithLabelValues(provider).Inc()
}

func (m *PrometheusMetrics) RecordRateLimited() {
	m.rateLimited.Inc()
}
