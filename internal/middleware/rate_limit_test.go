package middleware_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakgung/drugfood-guard/backend/internal/middleware"
)

func redisForTest(t *testing.T) *redis.Client {
	t.Helper()

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("skipping Redis-dependent test - REDIS_HOST not set")
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port)})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	return client
}

func TestRateLimiter_IsAllowed(t *testing.T) {
	client := redisForTest(t)
	limiter := middleware.NewRateLimiter(client, middleware.RateLimitConfig{
		Window:    time.Minute,
		Limit:     3,
		KeyPrefix: "rate_limit:test:" + uuid.NewString(),
	})
	ctx := context.Background()
	userID := uuid.NewString()

	for i := 1; i <= 3; i++ {
		allowed, remaining, _, err := limiter.IsAllowed(ctx, userID)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i)
		assert.Equal(t, 3-i, remaining)
	}

	allowed, remaining, resetTime, err := limiter.IsAllowed(ctx, userID)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.True(t, resetTime.After(time.Now()))
}

func TestRateLimiter_GetRemainingRequests(t *testing.T) {
	client := redisForTest(t)
	limiter := middleware.NewRateLimiter(client, middleware.RateLimitConfig{
		Window:    time.Minute,
		Limit:     5,
		KeyPrefix: "rate_limit:test:" + uuid.NewString(),
	})
	ctx := context.Background()
	userID := uuid.NewString()

	remaining, _, err := limiter.GetRemainingRequests(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	_, _, _, err = limiter.IsAllowed(ctx, userID)
	require.NoError(t, err)

	remaining, _, err = limiter.GetRemainingRequests(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}
