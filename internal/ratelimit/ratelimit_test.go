package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestAllow_ExactBoundary(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 10, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	defer l.Stop()

	// Exactly N admitted, the (N+1)th rejected.
	const limit = 5
	for i := 0; i < limit; i++ {
		if !l.Allow("acct_1", limit) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("acct_1", limit) {
		t.Error("request over the limit should be rejected")
	}
}

func TestAllow_WindowReset(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 10, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	defer l.Stop()

	for i := 0; i < 3; i++ {
		l.Allow("acct_1", 3)
	}
	if l.Allow("acct_1", 3) {
		t.Error("should be limited within the window")
	}

	// After the window fully elapses, requests are admitted again.
	now = now.Add(time.Minute)
	if !l.Allow("acct_1", 3) {
		t.Error("should be allowed in the next window")
	}
}

func TestAllow_RejectedAttemptsStillCount(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 10, 0, time.UTC)
	store := NewMemoryStore()
	l := New(WithClock(fixedClock(&now)), WithStore(store))
	defer l.Stop()

	for i := 0; i < 10; i++ {
		l.Allow("acct_1", 3)
	}

	windowStart := now.Truncate(time.Minute)
	if got := store.Incr("acct_1", windowStart); got != 11 {
		t.Errorf("expected 11 recorded attempts, got %d", got)
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 10, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	defer l.Stop()

	for i := 0; i < 3; i++ {
		l.Allow("acct_a", 3)
	}
	if l.Allow("acct_a", 3) {
		t.Error("acct_a should be limited")
	}
	if !l.Allow("acct_b", 3) {
		t.Error("acct_b should not be affected by acct_a's window")
	}
}

func TestAllow_PerKeyLimits(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 10, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	defer l.Stop()

	// Demo identities get a stricter ceiling than registered ones.
	for i := 0; i < 10; i++ {
		if !l.Allow("demo", 10) {
			t.Fatalf("demo request %d should be allowed", i+1)
		}
	}
	if l.Allow("demo", 10) {
		t.Error("11th demo request should be rejected")
	}
	for i := 0; i < 60; i++ {
		if !l.Allow("registered", 60) {
			t.Fatalf("registered request %d should be allowed", i+1)
		}
	}
	if l.Allow("registered", 60) {
		t.Error("61st registered request should be rejected")
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	store.Incr("old", base.Add(-5*time.Minute))
	store.Incr("fresh", base)

	removed := store.Sweep(base.Add(-2 * time.Minute))
	if removed != 1 {
		t.Errorf("expected 1 swept entry, got %d", removed)
	}
	if store.Size() != 1 {
		t.Errorf("expected 1 remaining entry, got %d", store.Size())
	}
}

func TestAllow_ConcurrentSameKey(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 10, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	defer l.Stop()

	const limit = 50
	results := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		go func() { results <- l.Allow("acct_1", limit) }()
	}

	allowed := 0
	for i := 0; i < 100; i++ {
		if <-results {
			allowed++
		}
	}
	if allowed != limit {
		t.Errorf("expected exactly %d admitted, got %d", limit, allowed)
	}
}

func TestSweeper_Lifecycle(t *testing.T) {
	l := New()
	l.StartSweeper(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	l.Stop()
	// Stop twice must not panic.
	l.Stop()
}

func BenchmarkAllow(b *testing.B) {
	l := New()
	defer l.Stop()
	for i := 0; i < b.N; i++ {
		l.Allow(fmt.Sprintf("key_%d", i%100), 60)
	}
}
