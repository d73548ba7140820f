// Package health tracks per-provider failure state and temporarily excludes
// failing providers from the verification fan-out. It implements a cooldown
// circuit: repeated failures open the circuit for a growing cooldown period,
// and a successful probe after expiry closes it again.
package health

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Config holds the configuration for the provider health tracker.
type Config struct {
	// FailureThreshold is the failure count at which a provider enters cooldown
	FailureThreshold int

	// CooldownBase is the cooldown duration after the first trip
	CooldownBase time.Duration

	// CooldownMax caps the cooldown duration as trips accumulate
	CooldownMax time.Duration
}

// DefaultConfig returns a default tracker configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		CooldownBase:     30 * time.Second,
		CooldownMax:      10 * time.Minute,
	}
}

// record is the mutable health state for one provider. Records are created
// on first use and never deleted.
type record struct {
	failures      int
	trips         int
	cooldownUntil time.Time
	lastStatus    int
}

// Tracker tracks rolling failure counts and cooldown state per provider.
// All methods are safe for concurrent use. The tracker holds no external
// resources; its state is queryable for health-check exposure.
type Tracker struct {
	cfg Config

	mu      sync.Mutex
	records map[string]*record

	// now is replaceable in tests
	now func() time.Time
}

// New creates a new Tracker with the given configuration.
func New(cfg Config) *Tracker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.CooldownBase <= 0 {
		cfg.CooldownBase = DefaultConfig().CooldownBase
	}
	if cfg.CooldownMax < cfg.CooldownBase {
		cfg.CooldownMax = DefaultConfig().CooldownMax
	}

	return &Tracker{
		cfg:     cfg,
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// RecordSuccess reports a successful call for the named provider.
//
// A success while the circuit is closed decrements the failure counter
// (floor zero) rather than resetting it, so a flaky provider recovers
// gradually instead of oscillating. A success after the cooldown has
// elapsed is a half-open probe succeeding: the circuit closes fully and
// the failure count and trip history are cleared.
func (t *Tracker) RecordSuccess(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.record(name)
	now := t.now()

	if !r.cooldownUntil.IsZero() && !now.Before(r.cooldownUntil) {
		// Half-open probe succeeded
		slog.Info("provider circuit closed",
			slog.String("provider", name),
			slog.Int("trips", r.trips))
		r.failures = 0
		r.trips = 0
		r.cooldownUntil = time.Time{}
		return
	}

	if r.failures > 0 {
		r.failures--
	}
}

// RecordFailure reports a failed call for the named provider. statusCode is
// the terminal HTTP status if one was observed (0 otherwise); it is retained
// for status reporting only.
//
// Reaching the failure threshold opens the circuit for a cooldown that
// doubles with each consecutive trip, capped at CooldownMax. A failure on a
// half-open probe re-opens immediately with the extended cooldown.
func (t *Tracker) RecordFailure(name string, statusCode int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.record(name)
	now := t.now()
	r.lastStatus = statusCode
	r.failures++

	inCooldown := !r.cooldownUntil.IsZero() && now.Before(r.cooldownUntil)
	if r.failures >= t.cfg.FailureThreshold && !inCooldown {
		r.trips++
		cooldown := t.cooldownFor(r.trips)
		r.cooldownUntil = now.Add(cooldown)

		slog.Warn("provider circuit opened",
			slog.String("provider", name),
			slog.Int("failures", r.failures),
			slog.Int("trips", r.trips),
			slog.Int("last_status", statusCode),
			slog.Duration("cooldown", cooldown))
	}
}

// IsAvailable reports whether the named provider may be called. It returns
// false while the provider's cooldown has not elapsed; callers must treat an
// unavailable provider as absent from the fan-out, not as retried.
//
// Once the cooldown elapses the provider becomes available again and the
// next call acts as a half-open probe.
func (t *Tracker) IsAvailable(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[name]
	if !ok {
		return true
	}
	return r.cooldownUntil.IsZero() || !t.now().Before(r.cooldownUntil)
}

// Status is a point-in-time snapshot of tracker state, suitable for an
// operational /health endpoint.
type Status struct {
	// InCooldown lists providers whose cooldown has not elapsed, sorted by name
	InCooldown []string `json:"in_cooldown"`

	// Failures maps provider name to its current failure count
	Failures map[string]int `json:"failures"`

	// CooldownUntil maps cooling-down providers to their cooldown expiry
	CooldownUntil map[string]time.Time `json:"cooldown_until,omitempty"`
}

// GetStatus returns a snapshot of the current health state of all tracked
// providers.
func (t *Tracker) GetStatus() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	status := Status{
		Failures:      make(map[string]int, len(t.records)),
		CooldownUntil: make(map[string]time.Time),
	}

	for name, r := range t.records {
		status.Failures[name] = r.failures
		if !r.cooldownUntil.IsZero() && now.Before(r.cooldownUntil) {
			status.InCooldown = append(status.InCooldown, name)
			status.CooldownUntil[name] = r.cooldownUntil
		}
	}

	sort.Strings(status.InCooldown)
	return status
}

// record returns the record for name, creating it if needed.
// Caller must hold t.mu.
func (t *Tracker) record(name string) *record {
	r, ok := t.records[name]
	if !ok {
		r = &record{}
		t.records[name] = r
	}
	return r
}

// cooldownFor returns the cooldown duration for the given consecutive trip
// count: base * 2^(trips-1), capped at CooldownMax.
func (t *Tracker) cooldownFor(trips int) time.Duration {
	cooldown := t.cfg.CooldownBase
	for i := 1; i < trips; i++ {
		cooldown *= 2
		if cooldown >= t.cfg.CooldownMax {
			return t.cfg.CooldownMax
		}
	}
	if cooldown > t.cfg.CooldownMax {
		cooldown = t.cfg.CooldownMax
	}
	return cooldown
}
