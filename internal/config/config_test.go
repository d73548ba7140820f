package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.RateLimit.MaxRequests != 30 {
		t.Errorf("RateLimit.MaxRequests = %d, want 30", cfg.RateLimit.MaxRequests)
	}
	if cfg.Cache.SuccessTTL != time.Hour {
		t.Errorf("Cache.SuccessTTL = %v, want 1h", cfg.Cache.SuccessTTL)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty by default", cfg.RedisAddr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("RATELIMIT_MAX_REQUESTS", "5")
	t.Setenv("RATELIMIT_WINDOW", "30s")
	t.Setenv("CACHE_FAILURE_TTL", "10s")
	t.Setenv("AGGREGATOR_SINGLE_SOURCE_CEILING", "90")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", cfg.Addr)
	}
	if cfg.RateLimit.MaxRequests != 5 {
		t.Errorf("RateLimit.MaxRequests = %d, want 5", cfg.RateLimit.MaxRequests)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("RateLimit.Window = %v, want 30s", cfg.RateLimit.Window)
	}
	if cfg.Cache.FailureTTL != 10*time.Second {
		t.Errorf("Cache.FailureTTL = %v, want 10s", cfg.Cache.FailureTTL)
	}
	if cfg.Aggregator.SingleSourceCeiling != 90 {
		t.Errorf("SingleSourceCeiling = %g, want 90", cfg.Aggregator.SingleSourceCeiling)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg.RateLimit.MaxRequests = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero rate limit")
	}
}
