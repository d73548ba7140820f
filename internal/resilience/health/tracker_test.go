package health

import (
	"testing"
	"time"
)

// fakeClock lets tests advance time deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time            { return c.t }
func (c *fakeClock) Advance(d time.Duration)   { c.t = c.t.Add(d) }

func newTestTracker(cfg Config) (*Tracker, *fakeClock) {
	tr := New(cfg)
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tr.now = clock.Now
	return tr, clock
}

func TestTracker_AvailableByDefault(t *testing.T) {
	tr, _ := newTestTracker(DefaultConfig())

	if !tr.IsAvailable("wikipedia") {
		t.Error("unknown provider should be available")
	}
}

func TestTracker_OpensAtThreshold(t *testing.T) {
	tr, _ := newTestTracker(Config{FailureThreshold: 3, CooldownBase: time.Minute, CooldownMax: time.Hour})

	tr.RecordFailure("snopes", 500)
	tr.RecordFailure("snopes", 500)
	if !tr.IsAvailable("snopes") {
		t.Fatal("provider should stay available below threshold")
	}

	tr.RecordFailure("snopes", 503)
	if tr.IsAvailable("snopes") {
		t.Error("provider should be unavailable immediately after 3rd failure")
	}
}

func TestTracker_CooldownDominates(t *testing.T) {
	tr, clock := newTestTracker(Config{FailureThreshold: 3, CooldownBase: time.Minute, CooldownMax: time.Hour})

	for i := 0; i < 3; i++ {
		tr.RecordFailure("snopes", 500)
	}

	// Remains unavailable throughout the cooldown, regardless of further
	// failures recorded in the meantime.
	clock.Advance(30 * time.Second)
	tr.RecordFailure("snopes", 500)
	if tr.IsAvailable("snopes") {
		t.Error("provider should remain unavailable during cooldown")
	}

	clock.Advance(31 * time.Second)
	if !tr.IsAvailable("snopes") {
		t.Error("provider should become available after cooldown elapses")
	}
}

func TestTracker_HalfOpenSuccessCloses(t *testing.T) {
	tr, clock := newTestTracker(Config{FailureThreshold: 3, CooldownBase: time.Minute, CooldownMax: time.Hour})

	for i := 0; i < 3; i++ {
		tr.RecordFailure("openai", 500)
	}
	clock.Advance(2 * time.Minute)

	tr.RecordSuccess("openai")

	if !tr.IsAvailable("openai") {
		t.Error("provider should be available after half-open success")
	}
	if got := tr.GetStatus().Failures["openai"]; got != 0 {
		t.Errorf("failure count should reset after half-open success, got %d", got)
	}
}

func TestTracker_HalfOpenFailureExtendsCooldown(t *testing.T) {
	tr, clock := newTestTracker(Config{FailureThreshold: 3, CooldownBase: time.Minute, CooldownMax: time.Hour})

	for i := 0; i < 3; i++ {
		tr.RecordFailure("claude", 500)
	}
	clock.Advance(61 * time.Second)
	if !tr.IsAvailable("claude") {
		t.Fatal("cooldown should have elapsed")
	}

	// Half-open probe fails: re-opens with doubled cooldown.
	tr.RecordFailure("claude", 502)
	if tr.IsAvailable("claude") {
		t.Fatal("provider should re-open on half-open failure")
	}

	clock.Advance(90 * time.Second)
	if tr.IsAvailable("claude") {
		t.Error("second cooldown should be longer than the first")
	}
	clock.Advance(31 * time.Second)
	if !tr.IsAvailable("claude") {
		t.Error("provider should be available after extended cooldown")
	}
}

func TestTracker_SuccessDecrements(t *testing.T) {
	tr, _ := newTestTracker(Config{FailureThreshold: 3, CooldownBase: time.Minute, CooldownMax: time.Hour})

	tr.RecordFailure("wikidata", 500)
	tr.RecordFailure("wikidata", 500)
	tr.RecordSuccess("wikidata")

	// One failure was absorbed; two more failures are needed to trip.
	tr.RecordFailure("wikidata", 500)
	if !tr.IsAvailable("wikidata") {
		t.Error("flaky provider should not trip after intervening success")
	}
	tr.RecordFailure("wikidata", 500)
	if tr.IsAvailable("wikidata") {
		t.Error("provider should trip at threshold")
	}
}

func TestTracker_GetStatus(t *testing.T) {
	tr, _ := newTestTracker(Config{FailureThreshold: 2, CooldownBase: time.Minute, CooldownMax: time.Hour})

	tr.RecordFailure("b-provider", 500)
	tr.RecordFailure("b-provider", 500)
	tr.RecordFailure("a-provider", 500)
	tr.RecordFailure("a-provider", 500)
	tr.RecordFailure("healthy", 404)

	status := tr.GetStatus()

	if len(status.InCooldown) != 2 {
		t.Fatalf("expected 2 providers in cooldown, got %v", status.InCooldown)
	}
	// Sorted for deterministic health responses.
	if status.InCooldown[0] != "a-provider" || status.InCooldown[1] != "b-provider" {
		t.Errorf("expected sorted cooldown list, got %v", status.InCooldown)
	}
	if status.Failures["healthy"] != 1 {
		t.Errorf("expected 1 failure for healthy provider, got %d", status.Failures["healthy"])
	}
	if _, ok := status.CooldownUntil["a-provider"]; !ok {
		t.Error("expected cooldown expiry for a-provider")
	}
}

func TestCooldownFor_Capped(t *testing.T) {
	tr := New(Config{FailureThreshold: 3, CooldownBase: time.Minute, CooldownMax: 5 * time.Minute})

	if got := tr.cooldownFor(1); got != time.Minute {
		t.Errorf("trip 1: got %v", got)
	}
	if got := tr.cooldownFor(3); got != 4*time.Minute {
		t.Errorf("trip 3: got %v", got)
	}
	if got := tr.cooldownFor(10); got != 5*time.Minute {
		t.Errorf("trip 10 should be capped: got %v", got)
	}
}
