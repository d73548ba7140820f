package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"claimcheck/internal/domain/entity"
	"claimcheck/internal/resilience/health"
	"claimcheck/internal/resilience/retry"
)

// FanoutConfig tunes the concurrent provider fan-out.
type FanoutConfig struct {
	// OverallTimeout bounds the whole fan-out. Providers still running at
	// the deadline are recorded as errored results.
	OverallTimeout time.Duration

	// CallTimeout bounds a single provider attempt.
	CallTimeout time.Duration

	// Retry governs per-provider retries within the overall deadline.
	Retry retry.Config
}

// DefaultFanoutConfig returns the standard fan-out settings: 20s overall,
// 10s per attempt, provider retry preset.
func DefaultFanoutConfig() FanoutConfig {
	return FanoutConfig{
		OverallTimeout: 20 * time.Second,
		CallTimeout:    10 * time.Second,
		Retry:          retry.ProviderConfig(),
	}
}

// Fanout queries all healthy providers concurrently and collects their
// judgments. A provider failure never fails the fan-out: it degrades to an
// ERROR result for that provider and is reported to the health tracker.
type Fanout struct {
	cfg      FanoutConfig
	registry *Registry
	health   *health.Tracker
	metrics  Metrics
}

// NewFanout creates a fan-out over the registry's providers, gated by the
// given health tracker.
func NewFanout(cfg FanoutConfig, registry *Registry, tracker *health.Tracker, metrics Metrics) *Fanout {
	if cfg.OverallTimeout <= 0 {
		cfg.OverallTimeout = DefaultFanoutConfig().OverallTimeout
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultFanoutConfig().CallTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.ProviderConfig()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Fanout{cfg: cfg, registry: registry, health: tracker, metrics: metrics}
}

// Execute fans the claim out to every provider not in cooldown and returns
// one result per queried provider, in registration order. Providers in
// cooldown are skipped entirely and do not appear in the output.
func (f *Fanout) Execute(ctx context.Context, claim entity.Claim) []entity.ProviderCallResult {
	registered := f.registry.All()
	queried := make([]RegisteredProvider, 0, len(registered))
	for _, rp := range registered {
		name := rp.Provider.Name()
		if !f.health.IsAvailable(name) {
			slog.Debug("skipping provider in cooldown", "provider", name)
			f.metrics.RecordProviderSkipped(name)
			continue
		}
		queried = append(queried, rp)
	}
	if len(queried) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.OverallTimeout)
	defer cancel()

	results := make([]entity.ProviderCallResult, len(queried))
	g, ctx := errgroup.WithContext(ctx)
	for i, rp := range queried {
		g.Go(func() error {
			results[i] = f.callOne(ctx, rp.Provider, claim)
			return nil
		})
	}
	// Goroutines never return errors; failures degrade to ERROR results.
	_ = g.Wait()

	return results
}

// callOne runs a single provider with retries, panic isolation, and health
// bookkeeping.
func (f *Fanout) callOne(ctx context.Context, p providerCaller, claim entity.Claim) (out entity.ProviderCallResult) {
	name := p.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("provider panicked", "provider", name, "panic", r)
			f.health.RecordFailure(name, 0)
			f.metrics.RecordProviderCall(name, "panic", time.Since(start))
			out = entity.ErrorResult(name, fmt.Sprintf("provider panic: %v", r), time.Since(start))
		}
	}()

	var result entity.ProviderCallResult
	err := retry.WithBackoff(ctx, f.cfg.Retry, func() error {
		callCtx, cancel := context.WithTimeout(ctx, f.cfg.CallTimeout)
		defer cancel()

		var callErr error
		result, callErr = p.Verify(callCtx, claim)
		if errors.Is(callErr, context.DeadlineExceeded) && ctx.Err() == nil {
			// Only this attempt's timeout fired; the fan-out deadline
			// still has budget. Strip the context error so the retry
			// classifier treats the timeout as transient.
			return fmt.Errorf("attempt timed out after %s", f.cfg.CallTimeout)
		}
		return callErr
	})
	latency := time.Since(start)

	if err != nil {
		reason := failureReason(err)
		slog.Warn("provider call failed",
			"provider", name,
			"reason", reason,
			"latency", latency,
		)
		f.health.RecordFailure(name, statusCodeOf(err))
		f.metrics.RecordProviderCall(name, "error", latency)
		return entity.ErrorResult(name, reason, latency)
	}

	f.health.RecordSuccess(name)
	f.metrics.RecordProviderCall(name, "success", latency)
	result.Latency = latency
	return result
}

// providerCaller is the slice of the provider interface the fan-out needs.
type providerCaller interface {
	Name() string
	Verify(ctx context.Context, claim entity.Claim) (entity.ProviderCallResult, error)
}

// failureReason renders a provider error into the reasoning field of an
// ERROR result.
func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return err.Error()
	}
}

// statusCodeOf extracts an HTTP status from the error chain for health
// classification, or zero when none is present.
func statusCodeOf(err error) int {
	var httpErr *retry.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
