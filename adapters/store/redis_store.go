package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/remitwise/core"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of the nonce and token stores
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "remitwise:",
	}
}

func (s *RedisStore) nonceKey(address string) string {
	return s.prefix + "nonce:" + address
}

func (s *RedisStore) invalidatedKey(tokenID string) string {
	return s.prefix + "invalidated:" + tokenID
}

// Issue stores the nonce with a native Redis TTL, replacing any previous one
func (s *RedisStore) Issue(ctx context.Context, address string, nonce string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.nonceKey(address), nonce, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store nonce: %w", err)
	}

	return nil
}

// Consume reads and deletes the nonce with a single GETDEL
func (s *RedisStore) Consume(ctx context.Context, address string) (string, error) {
	val, err := s.client.GetDel(ctx, s.nonceKey(address)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", core.ErrNonceNotFound
		}
		return "", fmt.Errorf("failed to consume nonce: %w", err)
	}

	return val, nil
}

// InvalidateToken marks a token as invalidated in Redis
func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	if err := s.client.Set(ctx, s.invalidatedKey(tokenID), "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	return nil
}

// IsTokenInvalidated checks if a token is invalidated in Redis
func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	val, err := s.client.Exists(ctx, s.invalidatedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}

	return val > 0, nil
}

// Ping checks connectivity, used by the readiness probe
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
