// Package cache provides the coalescing verification cache: an in-memory
// LRU tier with per-outcome TTLs, request coalescing so concurrent identical
// claims share one computation, and an optional best-effort secondary tier
// (e.g., Redis) consulted on local miss.
package cache

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"claimcheck/internal/domain/entity"
)

// ComputeFunc produces a verification result for a cache miss. The cache
// invokes it at most once per key across all concurrent callers.
type ComputeFunc func(ctx context.Context) (*entity.VerificationResult, error)

// Config holds the configuration for the verification cache.
type Config struct {
	// MaxEntries bounds the in-memory tier; least recently used entries
	// are evicted when full
	MaxEntries int

	// SuccessTTL is the lifetime of entries whose verdict was reached
	// from at least one usable provider result
	SuccessTTL time.Duration

	// FailureTTL is the shorter lifetime of error and UNVERIFIABLE
	// entries, allowing prompt retry after transient outages
	FailureTTL time.Duration
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxEntries: 10000,
		SuccessTTL: time.Hour,
		FailureTTL: 30 * time.Second,
	}
}

// cacheEntry is a resolved cache slot. Either value or err is set.
type cacheEntry struct {
	key       string
	value     *entity.VerificationResult
	err       error
	expiresAt time.Time
}

// Cache is the coalescing verification cache.
//
// Concurrency: the entry map and LRU list are guarded by one mutex held
// only for map/list manipulation, never across a computation. Coalescing
// is delegated to singleflight keyed by claim fingerprint, so unrelated
// claims never contend on each other's computations.
type Cache struct {
	cfg       Config
	secondary Secondary // optional, may be nil
	metrics   Metrics

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front = most recently used

	group singleflight.Group

	// now is replaceable in tests
	now func() time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithSecondary attaches a secondary cache tier consulted on local miss
// and written on resolve. Secondary failures degrade silently to
// memory-only operation.
func WithSecondary(s Secondary) Option {
	return func(c *Cache) { c.secondary = s }
}

// WithMetrics sets the metrics recorder. Default is no-op.
func WithMetrics(m Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a verification cache with the given configuration.
func New(cfg Config, opts ...Option) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	if cfg.SuccessTTL <= 0 {
		cfg.SuccessTTL = DefaultConfig().SuccessTTL
	}
	if cfg.FailureTTL <= 0 {
		cfg.FailureTTL = DefaultConfig().FailureTTL
	}

	c := &Cache{
		cfg:     cfg,
		metrics: NewNoopMetrics(),
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached result for key, or computes it.
//
// Exactly one computation runs per key at any time: concurrent callers for
// the same key attach to the in-flight computation instead of starting
// their own. A caller whose context is cancelled while attached gets its
// context error, but the shared computation keeps running on a detached
// context and still populates the cache for future requests.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (*entity.VerificationResult, error) {
	if entry, ok := c.lookupLocal(key); ok {
		c.metrics.RecordHit("local")
		return entry.value, entry.err
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.resolve(context.WithoutCancel(ctx), key, compute)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.RecordCoalesced()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entity.VerificationResult), nil
	case <-ctx.Done():
		// The flight continues for other attached callers and for the
		// cache; only this caller abandons it.
		return nil, ctx.Err()
	}
}

// resolve runs inside singleflight: re-check the local tier, consult the
// secondary tier, and finally compute. The outcome (success or terminal
// failure) is always stored before returning.
func (c *Cache) resolve(ctx context.Context, key string, compute ComputeFunc) (*entity.VerificationResult, error) {
	// A caller may have been queued behind a flight that just resolved.
	if entry, ok := c.lookupLocal(key); ok {
		c.metrics.RecordHit("local")
		return entry.value, entry.err
	}
	c.metrics.RecordMiss()

	if c.secondary != nil {
		if result, ok := c.lookupSecondary(ctx, key); ok {
			c.metrics.RecordHit("secondary")
			c.storeLocal(key, result, nil)
			return result, nil
		}
	}

	result, err := compute(ctx)
	c.storeLocal(key, result, err)

	if err == nil && c.secondary != nil {
		c.storeSecondary(ctx, key, result)
	}

	return result, err
}

// lookupLocal returns the resolved local entry for key if it is fresh.
func (c *Cache) lookupLocal(key string) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := el.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.removeLocked(el)
		return nil, false
	}

	c.lru.MoveToFront(el)
	return entry, true
}

// storeLocal inserts or replaces the entry for key, choosing the TTL by
// outcome and evicting the LRU entry when at capacity.
func (c *Cache) storeLocal(key string, result *entity.VerificationResult, err error) {
	ttl := c.ttlFor(result, err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.value = result
		entry.err = err
		entry.expiresAt = c.now().Add(ttl)
		c.lru.MoveToFront(el)
		return
	}

	if c.lru.Len() >= c.cfg.MaxEntries {
		if back := c.lru.Back(); back != nil {
			c.removeLocked(back)
			c.metrics.RecordEviction()
		}
	}

	entry := &cacheEntry{key: key, value: result, err: err, expiresAt: c.now().Add(ttl)}
	c.entries[key] = c.lru.PushFront(entry)
	c.metrics.SetEntries(c.lru.Len())
}

// ttlFor selects the TTL for an outcome: failures and unusable verdicts get
// the short TTL so transient outages are not cached for long.
func (c *Cache) ttlFor(result *entity.VerificationResult, err error) time.Duration {
	if err != nil {
		return c.cfg.FailureTTL
	}
	if result == nil || !result.Verdict.Votable() {
		return c.cfg.FailureTTL
	}
	return c.cfg.SuccessTTL
}

func (c *Cache) lookupSecondary(ctx context.Context, key string) (*entity.VerificationResult, bool) {
	result, ok, err := c.secondary.Get(ctx, key)
	if err != nil {
		// Degrade silently to memory-only.
		slog.Warn("secondary cache read failed, serving memory-only",
			slog.String("key", key),
			slog.Any("error", err))
		return nil, false
	}
	return result, ok
}

func (c *Cache) storeSecondary(ctx context.Context, key string, result *entity.VerificationResult) {
	if err := c.secondary.Set(ctx, key, result, c.ttlFor(result, nil)); err != nil {
		slog.Warn("secondary cache write failed",
			slog.String("key", key),
			slog.Any("error", err))
	}
}

// removeLocked removes an element from the map and list.
// Caller must hold c.mu.
func (c *Cache) removeLocked(el *list.Element) {
	entry := el.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.lru.Remove(el)
	c.metrics.SetEntries(c.lru.Len())
}

// RemoveExpired drops expired entries. Expiry is also enforced lazily on
// lookup; this sweep exists so idle entries do not pin memory until
// evicted. Intended to run from a periodic maintenance job.
func (c *Cache) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0

	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*cacheEntry).expiresAt) {
			c.removeLocked(el)
			removed++
		}
		el = prev
	}

	if removed > 0 {
		slog.Debug("cache sweep removed expired entries",
			slog.Int("removed", removed),
			slog.Int("remaining", c.lru.Len()))
	}
	return removed
}

// Len returns the number of entries in the in-memory tier.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
