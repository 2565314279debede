package ports

import (
	"context"
	"time"
)

// NonceStore keeps at most one outstanding login nonce per address
type NonceStore interface {
	// Issue stores nonce for address, replacing any previous one
	Issue(ctx context.Context, address string, nonce string, ttl time.Duration) error
	// Consume atomically reads and deletes the nonce for address
	Consume(ctx context.Context, address string) (string, error)
}

// Store interface for token invalidation
type Store interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}
