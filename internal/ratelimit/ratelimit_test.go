package ratelimit

import (
	"testing"
	"time"
)

func TestMemoryLimiterEnforcesLimit(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	rl := newMemory(func() time.Time { return now })
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if d := rl.Allow("ip:1.2.3.4", 3, time.Minute); !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	d := rl.Allow("ip:1.2.3.4", 3, time.Minute)
	if d.Allowed {
		t.Fatalf("fourth request should be rejected")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("unexpected retry-after %s", d.RetryAfter)
	}
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	rl := newMemory(func() time.Time { return now })
	defer rl.Close()

	rl.Allow("k", 1, time.Minute)
	if d := rl.Allow("k", 1, time.Minute); d.Allowed {
		t.Fatalf("second request in window should be rejected")
	}

	now = now.Add(61 * time.Second)
	if d := rl.Allow("k", 1, time.Minute); !d.Allowed {
		t.Fatalf("request in new window should be allowed")
	}
}

func TestMemoryLimiterKeysIndependent(t *testing.T) {
	rl := NewMemory()
	defer rl.Close()

	rl.Allow("a", 1, time.Minute)
	if d := rl.Allow("b", 1, time.Minute); !d.Allowed {
		t.Fatalf("different key should not share a counter")
	}
}

func TestMemoryLimiterZeroLimitAllows(t *testing.T) {
	rl := NewMemory()
	defer rl.Close()

	if d := rl.Allow("k", 0, time.Minute); !d.Allowed {
		t.Fatalf("zero limit disables the check")
	}
}

func TestMemoryLimiterSweep(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	rl := newMemory(func() time.Time { return now })
	defer rl.Close()

	rl.Allow("stale", 5, time.Minute)
	rl.sweep(now.Add(2 * time.Minute))

	rl.mu.Lock()
	_, ok := rl.entries["stale"]
	rl.mu.Unlock()
	if ok {
		t.Fatalf("expected expired entry to be swept")
	}
}
