package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func newTestWindow(window time.Duration, max int, now *time.Time) *FixedWindow {
	return &FixedWindow{
		entries: make(map[string]*windowEntry),
		window:  window,
		max:     max,
		now:     func() time.Time { return *now },
	}
}

func TestFixedWindow_Boundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fw := newTestWindow(10*time.Minute, 10, &now)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		if !fw.Allow(ctx, "1.2.3.4") {
			t.Fatalf("request %d should be accepted", i)
		}
	}
	if fw.Allow(ctx, "1.2.3.4") {
		t.Fatal("11th request in window should be rejected")
	}
	// Rejected requests do not consume budget for later windows.
	if fw.Allow(ctx, "1.2.3.4") {
		t.Fatal("12th request in window should be rejected")
	}
}

func TestFixedWindow_ResetAfterWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fw := newTestWindow(10*time.Minute, 2, &now)
	ctx := context.Background()

	fw.Allow(ctx, "key")
	fw.Allow(ctx, "key")
	if fw.Allow(ctx, "key") {
		t.Fatal("third request should be rejected")
	}

	now = now.Add(10*time.Minute + time.Second)
	if !fw.Allow(ctx, "key") {
		t.Fatal("request after window expiry should be accepted")
	}
}

func TestFixedWindow_KeysIndependent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fw := newTestWindow(10*time.Minute, 1, &now)
	ctx := context.Background()

	if !fw.Allow(ctx, "a") {
		t.Fatal("first request for a should pass")
	}
	if fw.Allow(ctx, "a") {
		t.Fatal("second request for a should be rejected")
	}
	if !fw.Allow(ctx, "b") {
		t.Fatal("b has its own budget")
	}
}

func TestFixedWindow_StopIsIdempotent(t *testing.T) {
	fw := NewFixedWindow(10*time.Minute, 10)
	fw.Stop()
	fw.Stop()

	// The limiter still answers after the sweep is stopped.
	if !fw.Allow(context.Background(), "key") {
		t.Fatal("Allow should still work after Stop")
	}
}

func TestFixedWindow_SweepEvictsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fw := newTestWindow(10*time.Minute, 5, &now)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		fw.Allow(ctx, fmt.Sprintf("client-%d", i))
	}
	now = now.Add(11 * time.Minute)

	fw.mu.Lock()
	for key, entry := range fw.entries {
		if now.After(entry.resetAt) {
			delete(fw.entries, key)
		}
	}
	remaining := len(fw.entries)
	fw.mu.Unlock()

	if remaining != 0 {
		t.Fatalf("expected all expired entries evicted, %d left", remaining)
	}
}
