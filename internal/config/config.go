// Package config loads the service configuration from the environment and
// the provider registry from a YAML file.
package config

import (
	"fmt"
	"time"

	"claimcheck/internal/infra/cache"
	"claimcheck/internal/resilience/health"
	"claimcheck/internal/usecase/verify"
	"claimcheck/pkg/config"
	"claimcheck/pkg/ratelimit"
)

// Config holds the full service configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// ProvidersFile is the path to the YAML provider registry.
	ProvidersFile string

	// RedisAddr enables the distributed cache tier when non-empty.
	RedisAddr string

	// MaintenanceInterval is how often expired cache entries and idle
	// limiter keys are swept.
	MaintenanceInterval time.Duration

	RateLimit  ratelimit.Config
	Cache      cache.Config
	Health     health.Config
	Fanout     verify.FanoutConfig
	Aggregator verify.AggregatorConfig
}

// Load reads the configuration from environment variables, applying
// defaults for anything unset.
//
// Environment variables:
//   - ADDR: HTTP listen address (default ":8080")
//   - PROVIDERS_FILE: provider registry path (default "providers.yaml")
//   - REDIS_ADDR: redis address for the distributed cache tier (default off)
//   - MAINTENANCE_INTERVAL: housekeeping sweep interval (default 5m)
//   - RATELIMIT_MAX_REQUESTS, RATELIMIT_WINDOW, RATELIMIT_MAX_KEYS
//   - CACHE_MAX_ENTRIES, CACHE_SUCCESS_TTL, CACHE_FAILURE_TTL
//   - HEALTH_FAILURE_THRESHOLD, HEALTH_COOLDOWN_BASE, HEALTH_COOLDOWN_MAX
//   - FANOUT_OVERALL_TIMEOUT, FANOUT_CALL_TIMEOUT
//   - AGGREGATOR_QUORUM, AGGREGATOR_SINGLE_SOURCE_CEILING
func Load() (*Config, error) {
	cfg := &Config{
		Addr:                config.GetEnvString("ADDR", ":8080"),
		ProvidersFile:       config.GetEnvString("PROVIDERS_FILE", "providers.yaml"),
		RedisAddr:           config.GetEnvString("REDIS_ADDR", ""),
		MaintenanceInterval: config.GetEnvDuration("MAINTENANCE_INTERVAL", 5*time.Minute),
		RateLimit: ratelimit.Config{
			MaxRequests: config.GetEnvInt("RATELIMIT_MAX_REQUESTS", ratelimit.DefaultConfig().MaxRequests),
			Window:      config.GetEnvDuration("RATELIMIT_WINDOW", ratelimit.DefaultConfig().Window),
			MaxKeys:     config.GetEnvInt("RATELIMIT_MAX_KEYS", ratelimit.DefaultConfig().MaxKeys),
		},
		Cache: cache.Config{
			MaxEntries: config.GetEnvInt("CACHE_MAX_ENTRIES", cache.DefaultConfig().MaxEntries),
			SuccessTTL: config.GetEnvDuration("CACHE_SUCCESS_TTL", cache.DefaultConfig().SuccessTTL),
			FailureTTL: config.GetEnvDuration("CACHE_FAILURE_TTL", cache.DefaultConfig().FailureTTL),
		},
		Health: health.Config{
			FailureThreshold: config.GetEnvInt("HEALTH_FAILURE_THRESHOLD", health.DefaultConfig().FailureThreshold),
			CooldownBase:     config.GetEnvDuration("HEALTH_COOLDOWN_BASE", health.DefaultConfig().CooldownBase),
			CooldownMax:      config.GetEnvDuration("HEALTH_COOLDOWN_MAX", health.DefaultConfig().CooldownMax),
		},
		Fanout: verify.FanoutConfig{
			OverallTimeout: config.GetEnvDuration("FANOUT_OVERALL_TIMEOUT", verify.DefaultFanoutConfig().OverallTimeout),
			CallTimeout:    config.GetEnvDuration("FANOUT_CALL_TIMEOUT", verify.DefaultFanoutConfig().CallTimeout),
			Retry:          verify.DefaultFanoutConfig().Retry,
		},
		Aggregator: verify.AggregatorConfig{
			Quorum:              config.GetEnvInt("AGGREGATOR_QUORUM", verify.DefaultAggregatorConfig().Quorum),
			SingleSourceCeiling: config.GetEnvFloat("AGGREGATOR_SINGLE_SOURCE_CEILING", verify.DefaultAggregatorConfig().SingleSourceCeiling),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit config: %w", err)
	}
	if err := config.ValidatePositiveDuration(c.Cache.SuccessTTL); err != nil {
		return fmt.Errorf("cache success TTL: %w", err)
	}
	if err := config.ValidatePositiveDuration(c.Cache.FailureTTL); err != nil {
		return fmt.Errorf("cache failure TTL: %w", err)
	}
	if err := config.ValidatePositiveDuration(c.Fanout.OverallTimeout); err != nil {
		return fmt.Errorf("fanout overall timeout: %w", err)
	}
	if err := config.ValidatePositiveDuration(c.MaintenanceInterval); err != nil {
		return fmt.Errorf("maintenance interval: %w", err)
	}
	return nil
}
