package retry

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		BaseDelay:      5 * time.Millisecond,
		MaxDelay:       50 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Classify:       AnyTransient,
	}
}

func TestWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithBackoff_SuccessAfterRetry(t *testing.T) {
	cfg := fastConfig()

	var delays []time.Duration
	cfg.OnBackoff = func(attempt int, delay time.Duration) {
		delays = append(delays, delay)
	}

	attempts := 0
	err := WithBackoff(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	// Two failures before the success mean exactly two backoff sleeps,
	// with strictly increasing pre-jitter delays.
	if len(delays) != 2 {
		t.Fatalf("expected 2 backoffs, got %d", len(delays))
	}
	if delays[1] <= delays[0] {
		t.Errorf("expected strictly increasing delays, got %v then %v", delays[0], delays[1])
	}
	if delays[0] != 5*time.Millisecond || delays[1] != 10*time.Millisecond {
		t.Errorf("unexpected pre-jitter delays: %v", delays)
	}
}

func TestWithBackoff_Exhausted(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		return errors.New("still broken")
	})

	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithBackoff_NonRetryable(t *testing.T) {
	cfg := fastConfig()
	cfg.Classify = IsRetryable

	attempts := 0
	err := WithBackoff(context.Background(), cfg, func() error {
		attempts++
		return errors.New("parse failure")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt for non-retryable error, got %d", attempts)
	}
}

func TestWithBackoff_ContextCancelled(t *testing.T) {
	cfg := fastConfig()
	cfg.BaseDelay = 500 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := WithBackoff(ctx, cfg, func() error {
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWithBackoff_MaxDelayCap(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 6
	cfg.MaxDelay = 12 * time.Millisecond

	var delays []time.Duration
	cfg.OnBackoff = func(attempt int, delay time.Duration) {
		delays = append(delays, delay)
	}

	_ = WithBackoff(context.Background(), cfg, func() error {
		return errors.New("transient")
	})

	for _, d := range delays {
		if d > cfg.MaxDelay {
			t.Errorf("delay %v exceeds MaxDelay %v", d, cfg.MaxDelay)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"http 500", &HTTPError{StatusCode: 500, Message: "server error"}, true},
		{"http 429", &HTTPError{StatusCode: 429, Message: "too many requests"}, true},
		{"http 408", &HTTPError{StatusCode: 408, Message: "timeout"}, true},
		{"http 400", &HTTPError{StatusCode: 400, Message: "bad request"}, false},
		{"generic", errors.New("something"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAnyTransient(t *testing.T) {
	if !AnyTransient(errors.New("opaque adapter failure")) {
		t.Error("opaque errors should be transient")
	}
	if AnyTransient(context.Canceled) {
		t.Error("cancellation should not be transient")
	}
	if AnyTransient(nil) {
		t.Error("nil should not be transient")
	}
}
