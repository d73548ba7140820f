package ratelimit

import "time"

// NoopMetrics implements the Metrics interface with no-op implementations.
//
// It is the default recorder for limiters constructed without metrics and
// is useful in tests and benchmarks where metric overhead is unwanted.
type NoopMetrics struct{}

// NewNoopMetrics creates a new NoopMetrics instance.
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

// RecordAllowed is a no-op implementation.
func (m *NoopMetrics) RecordAllowed(limiter string) {
	// No-op
}

// RecordDenied is a no-op implementation.
func (m *NoopMetrics) RecordDenied(limiter string) {
	// No-op
}

// RecordCheckDuration is a no-op implementation.
func (m *NoopMetrics) RecordCheckDuration(limiter string, d time.Duration) {
	// No-op
}

// SetActiveKeys is a no-op implementation.
func (m *NoopMetrics) SetActiveKeys(limiter string, count int) {
	// No-op
}

// RecordEviction is a no-op implementation.
func (m *NoopMetrics) RecordEviction(limiter string, count int) {
	// No-op
}
