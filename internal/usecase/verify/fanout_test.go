package verify

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"claimcheck/internal/domain/entity"
	"claimcheck/internal/resilience/health"
	"claimcheck/internal/resilience/retry"
)

// stubProvider is a canned provider for orchestration tests.
type stubProvider struct {
	name    string
	verdict entity.Verdict
	conf    float64
	err     error
	delay   time.Duration
	// delayOnce applies only to the first call, for timeout-then-recover
	// scenarios.
	delayOnce time.Duration
	panics    bool
	calls     atomic.Int64
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Verify(ctx context.Context, claim entity.Claim) (entity.ProviderCallResult, error) {
	s.calls.Add(1)
	if s.panics {
		panic("stub provider exploded")
	}
	delay := s.delay
	if s.delayOnce > 0 && s.calls.Load() == 1 {
		delay = s.delayOnce
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return entity.ProviderCallResult{}, ctx.Err()
		}
	}
	if s.err != nil {
		return entity.ProviderCallResult{}, s.err
	}
	return entity.ProviderCallResult{
		Provider:   s.name,
		Verdict:    s.verdict,
		Confidence: s.conf,
		Reasoning:  "stubbed",
	}, nil
}

// fastRetry keeps failure-path tests from sleeping.
func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts:    1,
		BaseDelay:      time.Millisecond,
		MaxDelay:       time.Millisecond,
		Multiplier:     1,
		JitterFraction: 0,
		Classify:       retry.AnyTransient,
	}
}

func newTestFanout(t *testing.T, tracker *health.Tracker, providers ...*stubProvider) (*Fanout, *Registry) {
	t.Helper()
	reg := NewRegistry()
	for _, p := range providers {
		if err := reg.Register(p, 1.0); err != nil {
			t.Fatalf("Register(%s) failed: %v", p.name, err)
		}
	}
	cfg := FanoutConfig{
		OverallTimeout: 2 * time.Second,
		CallTimeout:    time.Second,
		Retry:          fastRetry(),
	}
	return NewFanout(cfg, reg, tracker, NoopMetrics{}), reg
}

func TestExecute_AllSucceedInRegistrationOrder(t *testing.T) {
	tracker := health.New(health.DefaultConfig())
	first := &stubProvider{name: "first", verdict: entity.VerdictTrue, conf: 90, delay: 20 * time.Millisecond}
	second := &stubProvider{name: "second", verdict: entity.VerdictFalse, conf: 80}
	f, _ := newTestFanout(t, tracker, first, second)

	results := f.Execute(context.Background(), mustClaim(t, "two providers"))

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Provider != "first" || results[1].Provider != "second" {
		t.Errorf("results out of registration order: %s, %s", results[0].Provider, results[1].Provider)
	}
	if results[0].Latency <= 0 {
		t.Errorf("Latency not recorded: %v", results[0].Latency)
	}
}

func TestExecute_FailureDegradesToErrorResult(t *testing.T) {
	tracker := health.New(health.DefaultConfig())
	healthy := &stubProvider{name: "healthy", verdict: entity.VerdictTrue, conf: 90}
	broken := &stubProvider{name: "broken", err: errors.New("connection refused")}
	f, _ := newTestFanout(t, tracker, healthy, broken)

	results := f.Execute(context.Background(), mustClaim(t, "one provider down"))

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Verdict != entity.VerdictTrue {
		t.Errorf("healthy provider verdict = %s, want TRUE", results[0].Verdict)
	}
	if results[1].Verdict != entity.VerdictError {
		t.Errorf("broken provider verdict = %s, want ERROR", results[1].Verdict)
	}
	if !strings.Contains(results[1].Reasoning, "connection refused") {
		t.Errorf("error reason not propagated: %q", results[1].Reasoning)
	}

	status := tracker.GetStatus()
	if status.Failures["broken"] != 1 {
		t.Errorf("failure count for broken = %d, want 1", status.Failures["broken"])
	}
	if status.Failures["healthy"] != 0 {
		t.Errorf("failure count for healthy = %d, want 0", status.Failures["healthy"])
	}
}

func TestExecute_SkipsProvidersInCooldown(t *testing.T) {
	tracker := health.New(health.Config{
		FailureThreshold: 3,
		CooldownBase:     time.Minute,
		CooldownMax:      time.Minute,
	})
	for i := 0; i < 3; i++ {
		tracker.RecordFailure("tripped", 503)
	}

	healthy := &stubProvider{name: "healthy", verdict: entity.VerdictTrue, conf: 90}
	tripped := &stubProvider{name: "tripped", verdict: entity.VerdictTrue, conf: 90}
	f, _ := newTestFanout(t, tracker, healthy, tripped)

	results := f.Execute(context.Background(), mustClaim(t, "cooldown skip"))

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (tripped provider skipped)", len(results))
	}
	if results[0].Provider != "healthy" {
		t.Errorf("queried %s, want healthy", results[0].Provider)
	}
	if tripped.calls.Load() != 0 {
		t.Errorf("tripped provider was called %d times, want 0", tripped.calls.Load())
	}
}

func TestExecute_NoAvailableProviders(t *testing.T) {
	tracker := health.New(health.Config{
		FailureThreshold: 1,
		CooldownBase:     time.Minute,
		CooldownMax:      time.Minute,
	})
	tracker.RecordFailure("only", 500)

	only := &stubProvider{name: "only", verdict: entity.VerdictTrue, conf: 90}
	f, _ := newTestFanout(t, tracker, only)

	if results := f.Execute(context.Background(), mustClaim(t, "nobody home")); results != nil {
		t.Errorf("got %d results, want nil", len(results))
	}
}

func TestExecute_PanicIsolated(t *testing.T) {
	tracker := health.New(health.DefaultConfig())
	calm := &stubProvider{name: "calm", verdict: entity.VerdictFalse, conf: 70}
	wild := &stubProvider{name: "wild", panics: true}
	f, _ := newTestFanout(t, tracker, calm, wild)

	results := f.Execute(context.Background(), mustClaim(t, "panic containment"))

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[1].Verdict != entity.VerdictError {
		t.Errorf("panicking provider verdict = %s, want ERROR", results[1].Verdict)
	}
	if !strings.Contains(results[1].Reasoning, "panic") {
		t.Errorf("panic not reflected in reasoning: %q", results[1].Reasoning)
	}
	if results[0].Verdict != entity.VerdictFalse {
		t.Errorf("calm provider verdict = %s, want FALSE", results[0].Verdict)
	}
}

func TestExecute_OverallDeadline(t *testing.T) {
	tracker := health.New(health.DefaultConfig())
	slow := &stubProvider{name: "slow", verdict: entity.VerdictTrue, conf: 90, delay: time.Second}
	reg := NewRegistry()
	if err := reg.Register(slow, 1.0); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	f := NewFanout(FanoutConfig{
		OverallTimeout: 50 * time.Millisecond,
		CallTimeout:    time.Second,
		Retry:          fastRetry(),
	}, reg, tracker, NoopMetrics{})

	start := time.Now()
	results := f.Execute(context.Background(), mustClaim(t, "too slow"))
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Errorf("fan-out took %v, want bounded by the overall deadline", elapsed)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Verdict != entity.VerdictError {
		t.Errorf("slow provider verdict = %s, want ERROR", results[0].Verdict)
	}
	if !strings.Contains(results[0].Reasoning, "deadline") {
		t.Errorf("deadline not reflected in reasoning: %q", results[0].Reasoning)
	}
}

func TestExecute_AttemptTimeoutRetried(t *testing.T) {
	tracker := health.New(health.DefaultConfig())
	// First call overruns the per-attempt timeout, second answers quickly.
	slowStart := &stubProvider{
		name:      "slow-start",
		verdict:   entity.VerdictTrue,
		conf:      88,
		delayOnce: 500 * time.Millisecond,
	}
	reg := NewRegistry()
	if err := reg.Register(slowStart, 1.0); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	f := NewFanout(FanoutConfig{
		OverallTimeout: 2 * time.Second,
		CallTimeout:    30 * time.Millisecond,
		Retry: retry.Config{
			MaxAttempts:    2,
			BaseDelay:      time.Millisecond,
			MaxDelay:       time.Millisecond,
			Multiplier:     1,
			JitterFraction: 0,
			Classify:       retry.AnyTransient,
		},
	}, reg, tracker, NoopMetrics{})

	results := f.Execute(context.Background(), mustClaim(t, "slow to warm up"))

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Verdict != entity.VerdictTrue {
		t.Errorf("verdict = %s, want TRUE after retry", results[0].Verdict)
	}
	if got := slowStart.calls.Load(); got != 2 {
		t.Errorf("provider called %d times, want 2", got)
	}
	if tracker.GetStatus().Failures["slow-start"] != 0 {
		t.Errorf("retried timeout must not count as a provider failure")
	}
}
