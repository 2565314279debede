package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/remitwise/core"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of the nonce and token stores.
// It is meant for tests and single-instance development.
type MemoryStore struct {
	nonces            map[string]entry
	invalidatedTokens map[string]time.Time
	mu                sync.Mutex

	now func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nonces:            make(map[string]entry),
		invalidatedTokens: make(map[string]time.Time),
		now:               time.Now,
	}
}

// Issue stores the nonce for address, overwriting any previous one
func (s *MemoryStore) Issue(ctx context.Context, address string, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.nonces[address] = entry{value: nonce, expiresAt: now.Add(ttl)}

	return nil
}

// Consume returns and deletes the nonce for address in one step
func (s *MemoryStore) Consume(ctx context.Context, address string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.nonces[address]
	if !exists {
		return "", core.ErrNonceNotFound
	}
	delete(s.nonces, address)

	if !s.now().Before(e.expiresAt) {
		return "", core.ErrNonceNotFound
	}

	return e.value, nil
}

// InvalidateToken marks a token as invalidated
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime := s.now().Add(expiry)
	if stored, exists := s.invalidatedTokens[tokenID]; !exists || stored.Before(expiryTime) {
		s.invalidatedTokens[tokenID] = expiryTime
	}

	return nil
}

// IsTokenInvalidated checks if a token is invalidated
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}

	// The invalidation record outlives the token itself
	if s.now().After(expiryTime) {
		delete(s.invalidatedTokens, tokenID)
		return false, nil
	}

	return true, nil
}

// Len returns the number of outstanding nonces, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nonces)
}

// sweep drops expired nonces and invalidation records. Caller holds mu.
func (s *MemoryStore) sweep(now time.Time) {
	for address, e := range s.nonces {
		if !now.Before(e.expiresAt) {
			delete(s.nonces, address)
		}
	}
	for id, exp := range s.invalidatedTokens {
		if now.After(exp) {
			delete(s.invalidatedTokens, id)
		}
	}
}
