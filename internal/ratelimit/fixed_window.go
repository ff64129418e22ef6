// Package ratelimit provides fixed-window request limiting for lead intake.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter reports whether a request from the given client key is within
// budget. Implementations are safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// FixedWindow counts requests per key in fixed windows: the first request
// in a window sets the reset time, and once the count reaches max every
// further request is rejected until the window expires.
type FixedWindow struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	window  time.Duration
	max     int
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// NewFixedWindow creates an in-memory fixed-window limiter allowing max
// requests per window for each key.
func NewFixedWindow(window time.Duration, max int) *FixedWindow {
	fw := &FixedWindow{
		entries: make(map[string]*windowEntry),
		window:  window,
		max:     max,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	// Evict expired windows so the key set does not grow unboundedly.
	go fw.sweep()
	return fw
}

// Stop terminates the background sweep. Safe to call more than once.
func (fw *FixedWindow) Stop() {
	fw.stopOnce.Do(func() { close(fw.stop) })
}

// Allow records a request for key and reports whether it is accepted.
func (fw *FixedWindow) Allow(_ context.Context, key string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := fw.now()
	entry, ok := fw.entries[key]
	if !ok || now.After(entry.resetAt) {
		fw.entries[key] = &windowEntry{count: 1, resetAt: now.Add(fw.window)}
		return true
	}

	if entry.count >= fw.max {
		return false
	}
	entry.count++
	return true
}

func (fw *FixedWindow) sweep() {
	ticker := time.NewTicker(fw.window)
	defer ticker.Stop()
	for {
		select {
		case <-fw.stop:
			return
		case <-ticker.C:
			fw.mu.Lock()
			now := fw.now()
			for key, entry := range fw.entries {
				if now.After(entry.resetAt) {
					delete(fw.entries, key)
				}
			}
			fw.mu.Unlock()
		}
	}
}

var _ Limiter = (*FixedWindow)(nil)
