package ratelimit

import (
	"fmt"
	"time"
)

// Decision represents the result of a rate limit check. It carries the
// metadata a caller needs to understand the current limit state: the
// request count, the limit, and when the window resets.
type Decision struct {
	// Key is the identifier the decision applies to (API key, IP address).
	Key string

	// Allowed indicates whether the request should be permitted.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Current is the number of requests counted in the window,
	// including this one if it was admitted.
	Current int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAt is when the current window ends and capacity frees up.
	ResetAt time.Time

	// RetryAfter is how long a denied caller should wait before retrying.
	RetryAfter time.Duration
}

// String returns a human-readable representation of the decision.
func (d *Decision) String() string {
	if d.Allowed {
		return fmt.Sprintf("Decision{allowed, key=%s, %d/%d used, reset=%s}",
			d.Key, d.Current, d.Limit, d.ResetAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("Decision{denied, key=%s, limit=%d, retry_after=%s}",
		d.Key, d.Limit, d.RetryAfter)
}

// RetryAfterSeconds returns the retry delay in whole seconds, never
// negative. Useful for the Retry-After HTTP header.
func (d *Decision) RetryAfterSeconds() int64 {
	s := int64(d.RetryAfter.Seconds())
	if s < 0 {
		return 0
	}
	return s
}

func allowedDecision(key string, limit, count int, resetAt time.Time) *Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &Decision{
		Key:       key,
		Allowed:   true,
		Limit:     limit,
		Current:   count,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

func deniedDecision(key string, limit, count int, now, resetAt time.Time) *Decision {
	return &Decision{
		Key:        key,
		Allowed:    false,
		Limit:      limit,
		Current:    count,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: resetAt.Sub(now),
	}
}
