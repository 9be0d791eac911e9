package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// TokenBucket is an in-memory limiter. Each key's bucket holds Limit tokens
// and refills continuously over Window.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	window   time.Duration
	now      func() time.Time
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucket creates an in-memory limiter.
func NewTokenBucket(cfg Config) (*TokenBucket, error) {
	if cfg.Limit <= 0 {
		return nil, errors.New("limit must be greater than 0")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("window must be greater than 0")
	}
	return &TokenBucket{
		buckets:  make(map[string]*bucket),
		capacity: cfg.Limit,
		window:   cfg.Window,
		now:      time.Now,
	}, nil
}

// Allow implements RateLimiter.
func (tb *TokenBucket) Allow(_ context.Context, key string) (*RateLimitInfo, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(tb.capacity), lastRefill: now}
		tb.buckets[key] = b
	}

	rate := float64(tb.capacity) / tb.window.Seconds()
	if elapsed := now.Sub(b.lastRefill).Seconds(); elapsed > 0 {
		b.tokens += elapsed * rate
		if b.tokens > float64(tb.capacity) {
			b.tokens = float64(tb.capacity)
		}
		b.lastRefill = now
	}

	info := &RateLimitInfo{Limit: tb.capacity}
	if b.tokens >= 1 {
		b.tokens--
		info.Allowed = true
	}
	info.Remaining = int(b.tokens)

	// Time until the bucket is full again.
	missing := float64(tb.capacity) - b.tokens
	info.ResetAt = now.Add(time.Duration(missing / rate * float64(time.Second)))
	return info, nil
}

// Prune drops buckets that have been idle for longer than a full window and
// so would be indistinguishable from new ones.
func (tb *TokenBucket) Prune() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	removed := 0
	for key, b := range tb.buckets {
		if now.Sub(b.lastRefill) > tb.window {
			delete(tb.buckets, key)
			removed++
		}
	}
	return removed
}

// Run prunes idle buckets every interval until ctx is done.
func (tb *TokenBucket) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tb.Prune()
		}
	}
}
