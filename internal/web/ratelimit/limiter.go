// Package ratelimit provides per-key request limiters for the API server.
package ratelimit

import (
	"context"
	"time"
)

// RateLimiter decides whether a request for key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (*RateLimitInfo, error)
}

// RateLimitInfo is the limiter state after a decision.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	Allowed   bool
}

// Config is the limit shared by both implementations: Limit requests per
// Window.
type Config struct {
	Limit  int
	Window time.Duration
}

// DefaultConfig allows 30 requests per minute per key. Generation calls are
// expensive, so the default is conservative.
func DefaultConfig() Config {
	return Config{Limit: 30, Window: time.Minute}
}
