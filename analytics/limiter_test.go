package analytics

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(max int, window time.Duration) (*rateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(max, window)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterBlocksAfterMax(t *testing.T) {
	limiter, _ := newTestLimiter(2, time.Minute)
	ip := "203.0.113.10"

	if !limiter.allow(ip) {
		t.Fatalf("expected first hit to be allowed")
	}
	if !limiter.allow(ip) {
		t.Fatalf("expected second hit to be allowed")
	}
	if limiter.allow(ip) {
		t.Fatalf("expected third hit to be blocked")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	limiter, clock := newTestLimiter(1, time.Minute)
	ip := "203.0.113.20"

	if !limiter.allow(ip) {
		t.Fatalf("expected first hit to be allowed")
	}
	if limiter.allow(ip) {
		t.Fatalf("expected second hit to be blocked")
	}

	clock.t = clock.t.Add(61 * time.Second)
	if !limiter.allow(ip) {
		t.Fatalf("expected hit after window to be allowed")
	}
}

func TestRateLimiterIsPerKey(t *testing.T) {
	limiter, _ := newTestLimiter(1, time.Minute)

	if !limiter.allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestRateLimiterPrune(t *testing.T) {
	limiter, clock := newTestLimiter(5, time.Minute)
	limiter.allow("old")
	clock.t = clock.t.Add(45 * time.Second)
	limiter.allow("fresh")

	clock.t = clock.t.Add(30 * time.Second)
	limiter.prune()

	if got := limiter.size(); got != 1 {
		t.Errorf("size after prune = %d, want 1", got)
	}
}
