package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Config holds the configuration for a sliding-window limiter.
type Config struct {
	// MaxRequests is the maximum number of requests per identifier per window
	MaxRequests int

	// Window is the trailing time window
	Window time.Duration

	// MaxKeys bounds the number of identifiers tracked in memory
	MaxKeys int
}

// DefaultConfig returns a default limiter configuration.
func DefaultConfig() Config {
	return Config{
		MaxRequests: 30,
		Window:      time.Minute,
		MaxKeys:     10000,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.MaxRequests <= 0 {
		return fmt.Errorf("max requests must be positive, got %d", c.MaxRequests)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", c.Window)
	}
	return nil
}

// Limiter is a sliding-window rate limiter over a pluggable store.
//
// On each check it prunes timestamps older than the window from the
// identifier's record, admits the request if fewer than MaxRequests remain,
// and records the timestamp atomically with the check. Identifiers are
// independent: one caller hitting its limit never affects another.
type Limiter struct {
	name    string
	cfg     Config
	store   Store
	clock   Clock
	metrics Metrics
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock replaces the system clock, for tests.
func WithClock(c Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithMetrics sets the metrics recorder. Default is no-op.
func WithMetrics(m Metrics) Option {
	return func(l *Limiter) { l.metrics = m }
}

// WithStore replaces the default in-memory store.
func WithStore(s Store) Option {
	return func(l *Limiter) { l.store = s }
}

// NewLimiter creates a sliding-window limiter with the given name and
// configuration. The name labels log entries and metrics.
func NewLimiter(name string, cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}

	l := &Limiter{
		name:    name,
		cfg:     cfg,
		clock:   &SystemClock{},
		metrics: NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.store == nil {
		l.store = NewMemoryStore(MemoryStoreConfig{MaxKeys: cfg.MaxKeys, Clock: l.clock})
	}
	return l, nil
}

// Allow checks whether the identifier may start another request now.
//
// The returned Decision always carries the current count, limit, and reset
// time so callers can populate rate limit response headers regardless of
// the outcome.
func (l *Limiter) Allow(ctx context.Context, key string) (*Decision, error) {
	start := l.clock.Now()
	cutoff := start.Add(-l.cfg.Window)
	resetAt := start.Add(l.cfg.Window)

	allowed, count, err := l.store.CheckAndAdd(ctx, key, start, cutoff, l.cfg.MaxRequests)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	l.metrics.RecordCheckDuration(l.name, time.Since(start))

	if allowed {
		l.metrics.RecordAllowed(l.name)
		return allowedDecision(key, l.cfg.MaxRequests, count, resetAt), nil
	}

	l.metrics.RecordDenied(l.name)
	return deniedDecision(key, l.cfg.MaxRequests, count, start, resetAt), nil
}

// Cleanup prunes expired state across all identifiers. Intended to be run
// periodically from a maintenance job; the limiter also prunes lazily on
// each check, so cleanup only reclaims memory from idle identifiers.
func (l *Limiter) Cleanup(ctx context.Context) (int, error) {
	cutoff := l.clock.Now().Add(-l.cfg.Window)
	removed, err := l.store.Cleanup(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		l.metrics.RecordEviction(l.name, removed)
	}
	if n, err := l.store.KeyCount(ctx); err == nil {
		l.metrics.SetActiveKeys(l.name, n)
	}
	return removed, nil
}

// ActiveKeys returns the number of identifiers currently tracked.
func (l *Limiter) ActiveKeys(ctx context.Context) (int, error) {
	return l.store.KeyCount(ctx)
}

// Name returns the limiter's name.
func (l *Limiter) Name() string {
	return l.name
}
