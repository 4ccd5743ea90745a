package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// slidingWindow keeps one sorted-set member per admitted request, scored by
// the server clock in microseconds. Members older than the window are
// dropped before counting. Returns 1 when the request is admitted.
//
// KEYS[1] = key, ARGV[1] = window (µs), ARGV[2] = limit, ARGV[3] = member.
var slidingWindow = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000000 + tonumber(t[2])
local window = tonumber(ARGV[1])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[2]) then
    return 0
end
redis.call('ZADD', KEYS[1], now, ARGV[3])
redis.call('PEXPIRE', KEYS[1], math.ceil(window / 1000))
return 1
`)

// RateLimiter is a sliding-window limiter shared by every API replica.
type RateLimiter struct {
	rdb *redis.Client
}

// NewRateLimiter creates a RateLimiter backed by the given Client.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{rdb: c.Underlying()}
}

func rateLimitKey(key string) string {
	return "hedgesim:ratelimit:" + key
}

// Allow counts one request against key and reports whether it fits in
// limit requests per window. Rejected requests are not counted.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	admitted, err := slidingWindow.Run(ctx, rl.rdb,
		[]string{rateLimitKey(key)},
		window.Microseconds(), limit, uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit %s: %w", key, err)
	}
	return admitted == 1, nil
}

var _ domain.RateLimiter = (*RateLimiter)(nil)
