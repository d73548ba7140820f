package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"claimcheck/internal/domain/entity"
	"claimcheck/internal/infra/cache"
	"claimcheck/internal/observability/tracing"
	"claimcheck/internal/resilience/health"
	"claimcheck/internal/utils/text"
	"claimcheck/pkg/ratelimit"
)

// Service is the verification orchestrator. A single Verify call runs the
// full pipeline: rate limiting per caller, claim fingerprinting, cache
// lookup with request coalescing, concurrent provider fan-out, and weighted
// consensus aggregation.
type Service struct {
	limiter    *ratelimit.Limiter
	cache      *cache.Cache
	fanout     *Fanout
	aggregator *Aggregator
	health     *health.Tracker
	metrics    Metrics
}

// NewService wires the verification pipeline from its components.
func NewService(
	limiter *ratelimit.Limiter,
	verificationCache *cache.Cache,
	fanout *Fanout,
	aggregator *Aggregator,
	tracker *health.Tracker,
	metrics Metrics,
) *Service {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Service{
		limiter:    limiter,
		cache:      verificationCache,
		fanout:     fanout,
		aggregator: aggregator,
		health:     tracker,
		metrics:    metrics,
	}
}

// Verify checks a claim on behalf of callerID and returns the consensus
// verdict. Identical claims verified concurrently share a single provider
// fan-out, and recent results are served from cache.
//
// Returns *RateLimitError when the caller exceeds its rate limit,
// entity.ErrInvalidInput (wrapped) for malformed claims, and ctx.Err() if
// the caller gives up before the shared computation finishes.
func (s *Service) Verify(ctx context.Context, rawClaim string, params map[string]string, callerID string) (*entity.VerificationResult, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "verify.claim")
	defer span.End()

	decision, err := s.limiter.Allow(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if !decision.Allowed {
		s.metrics.RecordRateLimited()
		span.SetStatus(codes.Error, "rate limited")
		return nil, &RateLimitError{Decision: decision}
	}

	claim, err := entity.NewClaim(rawClaim, params)
	if err != nil {
		span.SetStatus(codes.Error, "invalid claim")
		return nil, err
	}

	fingerprint := claim.Fingerprint()
	span.SetAttributes(attribute.String("claim.fingerprint", fingerprint))

	start := time.Now()
	computed := false
	result, err := s.cache.GetOrCompute(ctx, fingerprint, func(ctx context.Context) (*entity.VerificationResult, error) {
		computed = true
		return s.runPipeline(ctx, claim)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	disposition := "hit"
	if computed {
		disposition = "computed"
	}
	s.metrics.RecordVerification(string(result.Verdict), disposition, time.Since(start))
	span.SetAttributes(
		attribute.String("verify.verdict", string(result.Verdict)),
		attribute.Float64("verify.confidence", result.Confidence),
		attribute.String("verify.disposition", disposition),
	)

	slog.Info("claim verified",
		"claim", text.Truncate(claim.Text, 80),
		"fingerprint", fingerprint,
		"verdict", result.Verdict,
		"confidence", result.Confidence,
		"disposition", disposition,
		"caller", callerID,
	)
	return result, nil
}

// runPipeline executes the uncached path: provider fan-out followed by
// consensus aggregation.
func (s *Service) runPipeline(ctx context.Context, claim entity.Claim) (*entity.VerificationResult, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "verify.fanout")
	defer span.End()

	start := time.Now()
	results := s.fanout.Execute(ctx, claim)
	if len(results) == 0 {
		// Every provider is in cooldown. Degraded availability is not an
		// error to the caller; the empty pool aggregates to UNVERIFIABLE
		// and the short failure TTL keeps the cache entry brief.
		span.AddEvent("no providers available")
	}

	result := s.aggregator.Aggregate(claim, results, time.Since(start))
	span.SetAttributes(attribute.Int("verify.providers_queried", len(results)))
	return result, nil
}

// ProviderStatus reports the health tracker's current view of all
// providers.
func (s *Service) ProviderStatus() health.Status {
	return s.health.GetStatus()
}

// CacheLen reports the number of entries in the local cache tier.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

// ActiveCallers reports the number of callers currently tracked by the
// rate limiter.
func (s *Service) ActiveCallers(ctx context.Context) (int, error) {
	return s.limiter.ActiveKeys(ctx)
}

// Maintain runs periodic housekeeping: it evicts expired cache entries and
// drops idle rate-limiter keys. Intended to be driven by a scheduler.
func (s *Service) Maintain(ctx context.Context) {
	removed := s.cache.RemoveExpired()
	dropped, err := s.limiter.Cleanup(ctx)
	if err != nil {
		slog.Warn("rate limiter cleanup failed", "error", err)
	}
	slog.Debug("maintenance sweep complete",
		"cache_expired", removed,
		"limiter_keys_dropped", dropped,
	)
}
