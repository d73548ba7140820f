// Package ratelimit provides framework-agnostic sliding-window rate limiting.
//
// It implements admission control with pluggable storage backends and metrics
// collectors. A caller-facing limiter answers one question: may this
// identifier start another request right now? Denial is an admission-control
// rejection made at the edge, before any downstream work is scheduled.
package ratelimit

import (
	"context"
	"time"
)

// Store defines the interface for storing and retrieving rate limit state.
//
// Implementations can use in-memory storage, Redis, or other backends.
// All methods must be safe for concurrent use.
type Store interface {
	// CheckAndAdd atomically checks whether the identifier is within the
	// limit and records the request timestamp if allowed. The check and the
	// add must happen under a single lock acquisition so concurrent
	// requests cannot slip past the limit.
	//
	// cutoff marks the trailing edge of the window: timestamps at or before
	// it are pruned and do not count. Returns whether the request was
	// admitted and the count of requests in the window after the call.
	CheckAndAdd(ctx context.Context, key string, now, cutoff time.Time, limit int) (allowed bool, count int, err error)

	// Count returns the number of recorded requests for key newer than cutoff.
	Count(ctx context.Context, key string, cutoff time.Time) (int, error)

	// Cleanup removes request timestamps older than cutoff across all keys
	// and drops keys left empty. Returns the number of keys removed.
	Cleanup(ctx context.Context, cutoff time.Time) (int, error)

	// KeyCount returns the number of active keys currently in storage.
	KeyCount(ctx context.Context) (int, error)
}

// Metrics defines the interface for recording rate limiting metrics.
//
// Implementations can use Prometheus or custom metrics systems.
type Metrics interface {
	// RecordAllowed records an admitted request for the named limiter.
	RecordAllowed(limiter string)

	// RecordDenied records a rate limit violation (request denied).
	RecordDenied(limiter string)

	// RecordCheckDuration records how long a rate limit check took.
	RecordCheckDuration(limiter string, d time.Duration)

	// SetActiveKeys records the current number of tracked identifiers.
	SetActiveKeys(limiter string, count int)

	// RecordEviction records keys evicted or cleaned from the store.
	RecordEviction(limiter string, count int)
}

// Clock provides an abstraction for time operations to enable testing.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is a Clock implementation that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}
