package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterBlocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(Config{MaxFailures: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		blocked, err := limiter.Blocked(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, blocked, "attempt %d", i+1)
		require.NoError(t, limiter.RecordFailure(ctx, "10.0.0.1"))
	}

	blocked, err := limiter.Blocked(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, blocked)

	other, err := limiter.Blocked(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.False(t, other, "keys are independent")
}

func TestMemoryLimiterWindowExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(Config{MaxFailures: 1, Window: time.Minute})
	limiter.now = func() time.Time { return now }

	require.NoError(t, limiter.RecordFailure(ctx, "k"))
	blocked, _ := limiter.Blocked(ctx, "k")
	assert.True(t, blocked)

	now = now.Add(time.Minute)
	blocked, _ = limiter.Blocked(ctx, "k")
	assert.False(t, blocked)
}

func TestMemoryLimiterSweepsAbandonedKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(Config{MaxFailures: 3, Window: time.Minute})
	limiter.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.Len(t, limiter.windows, 100)

	now = now.Add(30 * time.Second)
	require.NoError(t, limiter.RecordFailure(ctx, "10.0.1.1"))
	assert.Len(t, limiter.windows, 101, "live windows survive")

	now = now.Add(45 * time.Second)
	require.NoError(t, limiter.RecordFailure(ctx, "10.0.1.2"))
	assert.Len(t, limiter.windows, 2)
	blocked, err := limiter.Blocked(ctx, "10.0.1.1")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestMemoryLimiterResetAndDisabled(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(Config{MaxFailures: 1, Window: time.Minute})
	require.NoError(t, limiter.RecordFailure(ctx, "k"))
	require.NoError(t, limiter.Reset(ctx, "k"))
	blocked, _ := limiter.Blocked(ctx, "k")
	assert.False(t, blocked)

	disabled := NewMemoryLimiter(Config{})
	for i := 0; i < 10; i++ {
		require.NoError(t, disabled.RecordFailure(ctx, "k"))
	}
	blocked, _ = disabled.Blocked(ctx, "k")
	assert.False(t, blocked)
}

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})
	return client
}

func TestRedisLimiterBlocksAfterMaxFailures(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	limiter := NewRedisLimiter(client, Config{MaxFailures: 2, Window: time.Minute})

	require.NoError(t, limiter.RecordFailure(ctx, "ip"))
	blocked, err := limiter.Blocked(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, limiter.RecordFailure(ctx, "ip"))
	blocked, err = limiter.Blocked(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, blocked)

	ttl := client.TTL(ctx, keyPrefix+"ip").Val()
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, limiter.Reset(ctx, "ip"))
	blocked, err = limiter.Blocked(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, blocked)
}
