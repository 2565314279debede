package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/remitwise/core"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *RedisStore {
	t.Helper()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	s := NewRedisStore(client)
	s.prefix = "remitwise-test:" + uuid.NewString() + ":"
	require.NoError(t, s.Ping(context.Background()))

	return s
}

func TestRedisStoreNonce(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Issue(ctx, testAddress, "first", time.Minute))
	require.NoError(t, s.Issue(ctx, testAddress, "second", time.Minute))

	got, err := s.Consume(ctx, testAddress)
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	_, err = s.Consume(ctx, testAddress)
	assert.ErrorIs(t, err, core.ErrNonceNotFound)
}

func TestRedisStoreNonceExpiry(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Issue(ctx, testAddress, "short", 50*time.Millisecond))
	time.Sleep(150 * time.Millisecond)

	_, err := s.Consume(ctx, testAddress)
	assert.ErrorIs(t, err, core.ErrNonceNotFound)
}

func TestRedisStoreInvalidation(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()

	invalidated, err := s.IsTokenInvalidated(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, s.InvalidateToken(ctx, "jti", time.Minute))
	invalidated, err = s.IsTokenInvalidated(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, invalidated)
}
