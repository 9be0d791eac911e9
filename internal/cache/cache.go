// Package cache stores finished server packages keyed by a fingerprint of
// the requirements that produced them, so identical requests can skip the
// completion gateway.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl; a zero ttl selects the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error
}

// Config holds settings common to all backends.
type Config struct {
	DefaultTTL time.Duration
	Prefix     string
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTTL: time.Hour,
		Prefix:     "buildmcp:pkg:",
	}
}

// ErrCacheMiss is returned when a key is absent or expired.
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool {
	_, ok := err.(ErrCacheMiss)
	return ok
}
