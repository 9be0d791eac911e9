package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims entries older than the window, then admits the
// request if fewer than limit remain. Returns {allowed, count}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, 0, window_start)
local current = redis.call('ZCARD', key)
if current < limit then
	redis.call('ZADD', key, now, ARGV[5])
	redis.call('EXPIRE', key, ttl)
	return {1, current + 1}
end
return {0, current}
`)

// RedisRateLimiter is a sliding-window limiter shared across server
// instances through Redis.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
	member func() string
}

// NewRedisRateLimiter creates a Redis-backed limiter.
func NewRedisRateLimiter(client *redis.Client, cfg Config) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.Limit <= 0 {
		return nil, errors.New("limit must be greater than 0")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("window must be greater than 0")
	}
	return &RedisRateLimiter{
		client: client,
		limit:  cfg.Limit,
		window: cfg.Window,
		prefix: "buildmcp:ratelimit:",
		now:    time.Now,
		member: uuid.NewString,
	}, nil
}

// Allow implements RateLimiter.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (*RateLimitInfo, error) {
	now := r.now()
	ttl := int(r.window / time.Second)
	if ttl < 1 {
		ttl = 1
	}

	res, err := slidingWindow.Run(ctx, r.client, []string{r.prefix + key},
		now.UnixNano(),
		now.Add(-r.window).UnixNano(),
		r.limit,
		ttl,
		r.member(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check: %w", err)
	}
	if len(res) != 2 {
		return nil, errors.New("unexpected redis rate limit result")
	}

	remaining := r.limit - int(res[1])
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitInfo{
		Limit:     r.limit,
		Remaining: remaining,
		ResetAt:   now.Add(r.window),
		Allowed:   res[0] == 1,
	}, nil
}

// Reset clears the window for key.
func (r *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
