package service

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/layer-3/remitwise/adapters/repository"
	"github.com/layer-3/remitwise/adapters/stellar"
	"github.com/layer-3/remitwise/adapters/store"
	"github.com/layer-3/remitwise/adapters/tokenizer"
	"github.com/layer-3/remitwise/ports"
	"github.com/rs/zerolog"
	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/require"
)

// recordingPublisher remembers the topics it was asked to publish
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) record(kind, address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, kind+":"+address)
	return nil
}

func (p *recordingPublisher) PublishLogin(_ context.Context, address string, _ string) error {
	return p.record("login", address)
}

func (p *recordingPublisher) PublishLogout(_ context.Context, address string, _ string) error {
	return p.record("logout", address)
}

func (p *recordingPublisher) PublishUserDeactivated(_ context.Context, address string) error {
	return p.record("deactivated", address)
}

func (p *recordingPublisher) PublishUserReactivated(_ context.Context, address string) error {
	return p.record("reactivated", address)
}

func (p *recordingPublisher) PublishUserPurged(_ context.Context, address string) error {
	return p.record("purged", address)
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type fixture struct {
	auth   *AuthService
	users  *UserService
	repo   ports.UserRepository
	store  *store.MemoryStore
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := repository.Open(context.Background(), "sqlite3", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	key, err := tokenizer.GenerateSigningKey()
	require.NoError(t, err)

	repo := repository.NewUserRepository(db)
	memStore := store.NewMemoryStore()
	events := &recordingPublisher{}
	logger := zerolog.Nop()

	return &fixture{
		auth: NewAuthService(AuthConfig{}, memStore, stellar.NewVerifier(), tokenizer.NewJWTTokenizer(key, "remitwise-test"),
			memStore, repo, events, logger),
		users:  NewUserService(repo, events, logger),
		repo:   repo,
		store:  memStore,
		events: events,
	}
}

// sign returns the base64 signature of the raw bytes behind a hex nonce
func sign(t *testing.T, kp *keypair.Full, nonce string) string {
	t.Helper()
	raw, err := hex.DecodeString(nonce)
	require.NoError(t, err)
	sig, err := kp.Sign(raw)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(sig)
}

// login runs the full nonce and login round trip for kp
func (f *fixture) login(t *testing.T, kp *keypair.Full) string {
	t.Helper()
	ctx := context.Background()

	nonce, err := f.auth.IssueNonce(ctx, kp.Address())
	require.NoError(t, err)

	_, token, err := f.auth.Login(ctx, kp.Address(), nonce.Value, sign(t, kp, nonce.Value))
	require.NoError(t, err)
	return token
}
