package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"claimcheck/internal/domain/entity"
	"claimcheck/internal/resilience/circuitbreaker"
)

// Secondary is an optional distributed tier backing the in-memory cache.
// It is best-effort: implementations report failures but the cache never
// surfaces them to callers, and the local tier always wins on conflicting
// reads within a process.
type Secondary interface {
	// Get returns the stored result for key, reporting presence separately
	// from transport failure.
	Get(ctx context.Context, key string) (*entity.VerificationResult, bool, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value *entity.VerificationResult, ttl time.Duration) error
}

// keyPrefix namespaces verification entries in a shared redis instance.
const keyPrefix = "claimcheck:verification:"

// RedisSecondary implements Secondary on a redis backend. Every operation
// runs through a circuit breaker so a dead backend costs one rejected call
// instead of a connection timeout per request.
type RedisSecondary struct {
	client    redis.UniversalClient
	breaker   *circuitbreaker.CircuitBreaker
	opTimeout time.Duration
}

// NewRedisSecondary creates a redis-backed secondary tier.
func NewRedisSecondary(client redis.UniversalClient) *RedisSecondary {
	return &RedisSecondary{
		client:    client,
		breaker:   circuitbreaker.New(circuitbreaker.CacheBackendConfig()),
		opTimeout: 500 * time.Millisecond,
	}
}

// Get fetches and decodes the entry for key.
func (r *RedisSecondary) Get(ctx context.Context, key string) (*entity.VerificationResult, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	raw, err := r.breaker.Execute(func() (interface{}, error) {
		data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, false, fmt.Errorf("cache backend circuit open: %w", err)
		}
		return nil, false, fmt.Errorf("cache backend get: %w", err)
	}
	if raw == nil {
		return nil, false, nil
	}

	var result entity.VerificationResult
	if err := json.Unmarshal(raw.([]byte), &result); err != nil {
		// Corrupt entries are treated as misses; they will be overwritten.
		return nil, false, fmt.Errorf("cache backend decode: %w", err)
	}
	return &result, true, nil
}

// Set encodes and stores value under key with the given TTL.
func (r *RedisSecondary) Set(ctx context.Context, key string, value *entity.VerificationResult, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache backend encode: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	_, err = r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, keyPrefix+key, data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("cache backend set: %w", err)
	}
	return nil
}
