// Package ratelimiter spaces out requests per caller.
package ratelimiter

import (
	"sync"
	"time"
)

const DefaultRate = time.Second

// RateLimiter allows one request per key every rate.
type RateLimiter struct {
	rate     time.Duration
	lastSent map[string]time.Time
	mu       sync.Mutex
}

// New returns a limiter. A rate of zero or less disables limiting.
func New(rate time.Duration) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		lastSent: make(map[string]time.Time),
	}
}

// Allow records a request for key at now when it is allowed. Otherwise it
// returns how long the caller has to wait.
func (rl *RateLimiter) Allow(key string, now time.Time) (time.Duration, bool) {
	if rl == nil || rl.rate <= 0 {
		return 0, true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if lastSent, exists := rl.lastSent[key]; exists {
		if delay := getDelay(rl.rate, lastSent, now); delay > 0 {
			return delay, false
		}
	}

	rl.lastSent[key] = now

	return 0, true
}

// Sweep forgets keys idle for longer than the rate.
func (rl *RateLimiter) Sweep(now time.Time) int {
	if rl == nil {
		return 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, lastSent := range rl.lastSent {
		if getDelay(rl.rate, lastSent, now) == 0 {
			delete(rl.lastSent, key)
			removed++
		}
	}

	return removed
}

func getDelay(rate time.Duration, lastSent, now time.Time) time.Duration {
	return max(rate-now.Sub(lastSent), 0)
}
