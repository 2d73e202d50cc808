package ratelimiter

import (
	"testing"
	"time"
)

func TestFixedWindowLimiterBlocksOverLimit(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("10.0.0.1")
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, retryAfter := rl.Allow("10.0.0.1")
	if allowed {
		t.Fatalf("fourth request should be blocked")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Errorf("retryAfter = %v, want a remainder of the one minute window", retryAfter)
	}
}

func TestFixedWindowLimiterIsPerClient(t *testing.T) {
	rl := NewFixedWindowLimiter(1, time.Minute)

	if allowed, _ := rl.Allow("10.0.0.1"); !allowed {
		t.Fatalf("first client should be allowed")
	}
	if allowed, _ := rl.Allow("10.0.0.2"); !allowed {
		t.Fatalf("second client should not be affected by first client's count")
	}
	if allowed, _ := rl.Allow("10.0.0.1"); allowed {
		t.Fatalf("first client should now be blocked")
	}
}
