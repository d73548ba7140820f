package verify

import (
	"fmt"

	"claimcheck/internal/domain/entity"
	"claimcheck/pkg/ratelimit"
)

// RateLimitError reports a request rejected by the rate limiter. It carries
// the limiter decision so callers can surface retry hints.
type RateLimitError struct {
	Decision *ratelimit.Decision
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: retry after %s", e.Decision.Key, e.Decision.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return entity.ErrRateLimited
}
