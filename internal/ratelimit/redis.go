package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "helpdesk:access_failures:"

type redisLimiter struct {
	client *redis.Client
	cfg    Config
}

// NewRedisLimiter keeps counters in redis so they survive restarts.
func NewRedisLimiter(client *redis.Client, cfg Config) FailureLimiter {
	return &redisLimiter{client: client, cfg: cfg}
}

func (l *redisLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	if l.cfg.MaxFailures <= 0 {
		return false, nil
	}
	count, err := l.client.Get(ctx, keyPrefix+key).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read failure count: %w", err)
	}
	return count >= l.cfg.MaxFailures, nil
}

// RecordFailure starts the window on the first failure; later failures do not
// extend it.
func (l *redisLimiter) RecordFailure(ctx context.Context, key string) error {
	if l.cfg.MaxFailures <= 0 {
		return nil
	}
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, keyPrefix+key)
	pipe.ExpireNX(ctx, keyPrefix+key, l.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

func (l *redisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, keyPrefix+key).Err()
}
