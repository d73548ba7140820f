package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-memory implementation of Store.
//
// It tracks request timestamps per key with two bounds on growth:
// per-key lists are pruned to the window on every check, and the key count
// is capped with least-recently-used eviction when full.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	maxKeys int
	clock   Clock
}

// memoryEntry holds the window state for a single key.
type memoryEntry struct {
	timestamps []time.Time
	lastAccess time.Time
}

// MemoryStoreConfig holds configuration for MemoryStore.
type MemoryStoreConfig struct {
	// MaxKeys is the maximum number of keys kept in memory.
	// When the limit is reached, the least recently used key is evicted.
	// Default: 10000
	MaxKeys int

	// Clock provides time operations for testing. Default: SystemClock
	Clock Clock
}

// NewMemoryStore creates a new in-memory rate limit store.
func NewMemoryStore(cfg MemoryStoreConfig) *MemoryStore {
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	if cfg.Clock == nil {
		cfg.Clock = &SystemClock{}
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		maxKeys: cfg.MaxKeys,
		clock:   cfg.Clock,
	}
}

// CheckAndAdd atomically prunes the key's window, checks the count against
// the limit, and appends the timestamp if admitted. A key's window never
// holds more than limit timestamps newer than cutoff.
func (s *MemoryStore) CheckAndAdd(ctx context.Context, key string, now, cutoff time.Time, limit int) (bool, int, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		if len(s.entries) >= s.maxKeys {
			s.evictLRULocked()
		}
		e = &memoryEntry{}
		s.entries[key] = e
	}

	e.timestamps = pruneBefore(e.timestamps, cutoff)
	e.lastAccess = now

	if len(e.timestamps) >= limit {
		return false, len(e.timestamps), nil
	}

	e.timestamps = append(e.timestamps, now)
	return true, len(e.timestamps), nil
}

// Count returns the number of recorded requests for key newer than cutoff.
func (s *MemoryStore) Count(ctx context.Context, key string, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return 0, nil
	}

	n := 0
	for _, ts := range e.timestamps {
		if ts.After(cutoff) {
			n++
		}
	}
	return n, nil
}

// Cleanup removes timestamps older than cutoff and drops keys left empty.
func (s *MemoryStore) Cleanup(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		e.timestamps = pruneBefore(e.timestamps, cutoff)
		if len(e.timestamps) == 0 {
			delete(s.entries, key)
			removed++
		}
	}

	if removed > 0 {
		slog.Debug("rate limit store cleanup",
			slog.Int("removed", removed),
			slog.Int("remaining", len(s.entries)))
	}
	return removed, nil
}

// KeyCount returns the number of active keys currently in storage.
func (s *MemoryStore) KeyCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// evictLRULocked removes the least recently accessed key.
// Caller must hold s.mu. The linear scan is acceptable: eviction only
// happens when the store is at capacity, and maxKeys bounds the scan.
func (s *MemoryStore) evictLRULocked() {
	var (
		oldestKey  string
		oldestTime time.Time
		found      bool
	)
	for key, e := range s.entries {
		if !found || e.lastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccess
			found = true
		}
	}
	if found {
		delete(s.entries, oldestKey)
		slog.Debug("rate limit store evicted LRU key",
			slog.String("key", oldestKey))
	}
}

// pruneBefore drops timestamps at or before cutoff, preserving order.
func pruneBefore(timestamps []time.Time, cutoff time.Time) []time.Time {
	// Timestamps are appended in order; find the first one inside the window.
	idx := 0
	for idx < len(timestamps) && !timestamps[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return timestamps
	}
	return append(timestamps[:0], timestamps[idx:]...)
}
