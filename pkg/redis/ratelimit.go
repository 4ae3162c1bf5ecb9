package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript is an atomic Lua script for sliding window rate limiting
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local window_start = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('EXPIRE', key, math.ceil(window / 1000) + 1)
    return {1, limit - count - 1, 0}
else
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local reset_at = 0
    if #oldest >= 2 then
        reset_at = tonumber(oldest[2]) + window
    end
    return {0, 0, reset_at}
end
`)

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed   bool
	Remaining int64
	// ResetAt is the unix millisecond at which a slot frees up (only set when denied)
	ResetAt int64
}

// RetryAfter returns how long a denied caller should wait, at least one second
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := time.Duration(d.ResetAt-now.UnixMilli()) * time.Millisecond
	if wait < time.Second {
		return time.Second
	}
	return wait
}

// AllowSlidingWindow records one hit on key and reports whether it fits in limit per window
func AllowSlidingWindow(ctx context.Context, client *redis.Client, key string, limit int, window time.Duration) (Decision, error) {
	now := time.Now().UnixMilli()
	result, err := slidingWindowScript.Run(ctx, client, []string{key},
		limit, window.Milliseconds(), now,
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   result[0] == 1,
		Remaining: result[1],
		ResetAt:   result[2],
	}, nil
}
