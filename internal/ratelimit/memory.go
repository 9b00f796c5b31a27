package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	expires time.Time
}

// MemoryLimiter keeps counters in process. Expired windows are swept at
// most once per window length, so keys that never return are still freed.
type MemoryLimiter struct {
	mu        sync.Mutex
	cfg       Config
	windows   map[string]window
	nextSweep time.Time
	now       func() time.Time
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{cfg: cfg, windows: make(map[string]window), now: time.Now}
}

func (l *MemoryLimiter) Blocked(_ context.Context, key string) (bool, error) {
	if l.cfg.MaxFailures <= 0 {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.current(key)
	return ok && w.count >= l.cfg.MaxFailures, nil
}

func (l *MemoryLimiter) RecordFailure(_ context.Context, key string) error {
	if l.cfg.MaxFailures <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep()
	w, ok := l.current(key)
	if !ok {
		w = window{expires: l.now().Add(l.cfg.Window)}
	}
	w.count++
	l.windows[key] = w
	return nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// current returns the live window for key, dropping an expired one.
func (l *MemoryLimiter) current(key string) (window, bool) {
	w, ok := l.windows[key]
	if !ok {
		return window{}, false
	}
	if !l.now().Before(w.expires) {
		delete(l.windows, key)
		return window{}, false
	}
	return w, true
}

func (l *MemoryLimiter) sweep() {
	now := l.now()
	if now.Before(l.nextSweep) {
		return
	}
	for key, w := range l.windows {
		if !now.Before(w.expires) {
			delete(l.windows, key)
		}
	}
	l.nextSweep = now.Add(l.cfg.Window)
}
