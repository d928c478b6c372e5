package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "vars:login:"

// RedisLimiter keeps counters in Redis with INCR and a TTL set on the first
// attempt of a window. INCR is atomic, so parallel requests from several
// server instances each get a distinct count.
type RedisLimiter struct {
	redis       redis.UniversalClient
	maxAttempts int
	window      time.Duration
}

// NewRedisLimiter returns a limiter allowing maxAttempts attempts per window.
func NewRedisLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{redis: client, maxAttempts: maxAttempts, window: window}
}

// NewRedisClient parses a redis:// URL and returns a client for it.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func key(id string) string { return redisKeyPrefix + Normalize(id) }

func (l *RedisLimiter) Reserve(ctx context.Context, id string) error {
	k := key(id)

	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	// fixed window: the first attempt starts the clock
	if count == 1 {
		if err := l.redis.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}

	if count > int64(l.maxAttempts) {
		return ErrTooManyAttempts
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, id string) error {
	if err := l.redis.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
