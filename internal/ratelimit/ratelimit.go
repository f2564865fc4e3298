// Package ratelimit provides approximate fixed-window admission control in
// front of ingestion and monitoring. Counters are best-effort, not
// linearizable; on backend errors requests are allowed through.
package ratelimit

import (
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	Allow(key string, limit int, window time.Duration) Decision
	Close()
}

type memoryLimiter struct {
	mu      sync.Mutex
	entries map[string]windowState
	stopCh  chan struct{}
	once    sync.Once
	now     func() time.Time
}

type windowState struct {
	count     int64
	windowEnd time.Time
}

// NewMemory returns an in-process limiter, used when Redis is not configured
// or unreachable.
func NewMemory() Limiter {
	return newMemory(time.Now)
}

func newMemory(now func() time.Time) *memoryLimiter {
	rl := &memoryLimiter{
		entries: make(map[string]windowState),
		stopCh:  make(chan struct{}),
		now:     now,
	}
	go rl.sweepLoop()
	return rl
}

func (rl *memoryLimiter) Allow(key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.entries[key]
	if !ok || now.After(state.windowEnd) {
		state = windowState{count: 1, windowEnd: now.Add(window)}
		rl.entries[key] = state
		return Decision{Allowed: true, Count: 1}
	}
	state.count++
	rl.entries[key] = state
	return Decision{
		Allowed:    state.count <= int64(limit),
		Count:      state.count,
		RetryAfter: state.windowEnd.Sub(now),
	}
}

func (rl *memoryLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep(rl.now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *memoryLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, state := range rl.entries {
		if now.After(state.windowEnd) {
			delete(rl.entries, key)
		}
	}
}

func (rl *memoryLimiter) Close() {
	rl.once.Do(func() {
		close(rl.stopCh)
	})
}
