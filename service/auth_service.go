package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/metrics"
	"github.com/layer-3/remitwise/ports"
	"github.com/rs/zerolog"
)

const (
	DefaultNonceTTL   = 5 * time.Minute
	DefaultSessionTTL = 24 * time.Hour

	nonceBytes = 32
)

// errBadNonce is what clients see for a missing, expired or mismatched nonce
const errBadNonce = "invalid or expired nonce"

// AuthConfig holds the lifetimes used by AuthService
type AuthConfig struct {
	NonceTTL   time.Duration
	SessionTTL time.Duration
}

// AuthService handles authentication business logic
type AuthService struct {
	nonces    ports.NonceStore
	verifier  ports.SignatureVerifier
	tokenizer ports.Tokenizer
	store     ports.Store
	users     ports.UserRepository
	eventPub  ports.EventPublisher
	logger    zerolog.Logger

	nonceTTL   time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	cfg AuthConfig,
	nonces ports.NonceStore,
	verifier ports.SignatureVerifier,
	tokenizer ports.Tokenizer,
	store ports.Store,
	users ports.UserRepository,
	eventPub ports.EventPublisher,
	logger zerolog.Logger,
) *AuthService {
	if cfg.NonceTTL <= 0 {
		cfg.NonceTTL = DefaultNonceTTL
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}

	return &AuthService{
		nonces:     nonces,
		verifier:   verifier,
		tokenizer:  tokenizer,
		store:      store,
		users:      users,
		eventPub:   eventPub,
		logger:     logger.With().Str("component", "auth").Logger(),
		nonceTTL:   cfg.NonceTTL,
		sessionTTL: cfg.SessionTTL,
		now:        time.Now,
	}
}

// SessionTTL returns how long issued sessions stay valid
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// IssueNonce generates a new login nonce for address, replacing any
// outstanding one.
func (s *AuthService) IssueNonce(ctx context.Context, address string) (*core.Nonce, error) {
	if address == "" {
		return nil, core.InvalidInput("address is required")
	}
	if err := s.verifier.ValidateAddress(address); err != nil {
		return nil, core.InvalidInput("invalid Stellar address")
	}

	raw := make([]byte, nonceBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	nonce := &core.Nonce{
		Address:   address,
		Value:     hex.EncodeToString(raw),
		ExpiresAt: s.now().Add(s.nonceTTL),
	}

	if err := s.nonces.Issue(ctx, address, nonce.Value, s.nonceTTL); err != nil {
		return nil, fmt.Errorf("failed to store nonce: %w", err)
	}

	metrics.RecordNonceIssued()
	return nonce, nil
}

// Login verifies a signed nonce and opens a session for address. The stored
// nonce is consumed before anything else is checked, so a failed attempt
// still burns it.
func (s *AuthService) Login(ctx context.Context, address, message, signature string) (*core.Session, string, error) {
	if address == "" || message == "" || signature == "" {
		return nil, "", core.InvalidInput("address, message and signature are required")
	}
	if err := s.verifier.ValidateAddress(address); err != nil {
		return nil, "", core.InvalidInput("invalid Stellar address")
	}

	stored, err := s.nonces.Consume(ctx, address)
	if err != nil {
		if errors.Is(err, core.ErrNonceNotFound) {
			metrics.RecordLogin(metrics.LoginBadNonce)
			return nil, "", core.InvalidCredential(errBadNonce, err)
		}
		metrics.RecordLogin(metrics.LoginError)
		return nil, "", fmt.Errorf("failed to consume nonce: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(message)) != 1 {
		metrics.RecordLogin(metrics.LoginBadNonce)
		return nil, "", core.InvalidCredential(errBadNonce, core.ErrNonceMismatch)
	}

	if err := s.verifier.Verify(address, message, signature); err != nil {
		metrics.RecordLogin(metrics.LoginBadSig)
		return nil, "", core.InvalidCredential("invalid signature", err)
	}

	user, err := s.users.Upsert(ctx, address)
	if err != nil {
		metrics.RecordLogin(metrics.LoginError)
		return nil, "", fmt.Errorf("failed to upsert user: %w", err)
	}
	if user.Deactivated() {
		metrics.RecordLogin(metrics.LoginDeactivated)
		return nil, "", core.ErrUserDeactivated
	}

	now := s.now()
	session := &core.Session{
		ID:        uuid.New().String(),
		Address:   address,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		metrics.RecordLogin(metrics.LoginError)
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	if err := s.eventPub.PublishLogin(ctx, address, session.ID); err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("failed to publish login event")
	}

	metrics.RecordLogin(metrics.LoginSuccess)
	return session, token, nil
}

// Logout revokes the session carried by token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, token string) error {
	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		return fmt.Errorf("invalid session token: %w", err)
	}

	remaining := session.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		// Expired tokens are already rejected, nothing to revoke
		return nil
	}

	if err := s.store.InvalidateToken(ctx, session.ID, remaining); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	if err := s.eventPub.PublishLogout(ctx, session.Address, session.ID); err != nil {
		s.logger.Warn().Err(err).Str("address", session.Address).Msg("failed to publish logout event")
	}

	return nil
}

// ParseSession resolves token to a session that has not been revoked. It
// does not look at the state of the user behind it.
func (s *AuthService) ParseSession(ctx context.Context, token string) (*core.Session, error) {
	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	invalidated, err := s.store.IsTokenInvalidated(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if invalidated {
		return nil, core.ErrTokenInvalidated
	}

	return session, nil
}

// ValidateSession resolves token to a live session of an active user. It
// fails with core.ErrUserDeactivated when the session owner has been
// deactivated since logging in.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*core.Session, error) {
	session, err := s.ParseSession(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetIncludingDeactivated(ctx, session.Address)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			// Purged while the token was still live
			return nil, core.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if user.Deactivated() {
		return nil, core.ErrUserDeactivated
	}

	return session, nil
}
