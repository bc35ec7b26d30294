package service

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window per-key counter used to throttle
// verification attempts. Windows are tracked in memory; entries are
// dropped lazily once their window has passed.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	windowStart time.Time
	count       int
}

// NewRateLimiter allows limit attempts per key per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*rateBucket),
		now:     time.Now,
	}
}

// Allow records an attempt for key. When the limit is exceeded it returns
// false and the wait until the window resets.
func (r *RateLimiter) Allow(key string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, ok := r.buckets[key]
	if !ok || now.Sub(b.windowStart) >= r.window {
		r.buckets[key] = &rateBucket{windowStart: now, count: 1}
		r.sweep(now)
		return true, 0
	}

	if b.count >= r.limit {
		return false, b.windowStart.Add(r.window).Sub(now)
	}
	b.count++
	return true, 0
}

func (r *RateLimiter) sweep(now time.Time) {
	for key, b := range r.buckets {
		if now.Sub(b.windowStart) >= r.window {
			delete(r.buckets, key)
		}
	}
}
