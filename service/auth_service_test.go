package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/layer-3/remitwise/core"
	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueNonce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kp := keypair.MustRandom()

	nonce, err := f.auth.IssueNonce(ctx, kp.Address())
	require.NoError(t, err)
	assert.Len(t, nonce.Value, 64)
	assert.WithinDuration(t, time.Now().Add(DefaultNonceTTL), nonce.ExpiresAt, time.Second)

	again, err := f.auth.IssueNonce(ctx, kp.Address())
	require.NoError(t, err)
	assert.NotEqual(t, nonce.Value, again.Value)
	assert.Equal(t, 1, f.store.Len())
}

func TestIssueNonce_InvalidAddress(t *testing.T) {
	f := newFixture(t)

	for _, address := range []string{"", "GABC", "not-an-address"} {
		_, err := f.auth.IssueNonce(context.Background(), address)
		var coreErr *core.Error
		require.ErrorAs(t, err, &coreErr, address)
		assert.Equal(t, core.KindInvalidInput, coreErr.Kind)
	}
	assert.Zero(t, f.store.Len())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kp := keypair.MustRandom()

	nonce, err := f.auth.IssueNonce(ctx, kp.Address())
	require.NoError(t, err)
	sig := sign(t, kp, nonce.Value)

	session, token, err := f.auth.Login(ctx, kp.Address(), nonce.Value, sig)
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), session.Address)
	assert.NotEmpty(t, token)

	user, err := f.repo.GetActive(ctx, kp.Address())
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), user.Address)

	validated, err := f.auth.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, validated.ID)

	assert.Contains(t, f.events.Events(), "login:"+kp.Address())

	t.Run("replay is rejected", func(t *testing.T) {
		_, _, err := f.auth.Login(ctx, kp.Address(), nonce.Value, sig)
		assertInvalidCredential(t, err)
	})
}

func TestLogin_BadSignatureConsumesNonce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kp := keypair.MustRandom()

	nonce, err := f.auth.IssueNonce(ctx, kp.Address())
	require.NoError(t, err)

	_, _, err = f.auth.Login(ctx, kp.Address(), nonce.Value, sign(t, keypair.MustRandom(), nonce.Value))
	assertInvalidCredential(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)

	// The correct signature can no longer be used with the burnt nonce
	_, _, err = f.auth.Login(ctx, kp.Address(), nonce.Value, sign(t, kp, nonce.Value))
	assertInvalidCredential(t, err)
	assert.ErrorIs(t, err, core.ErrNonceNotFound)

	_, err = f.repo.GetIncludingDeactivated(ctx, kp.Address())
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestLogin_NonceMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kp := keypair.MustRandom()

	_, err := f.auth.IssueNonce(ctx, kp.Address())
	require.NoError(t, err)

	forged := strings.Repeat("ab", 32)
	_, _, err = f.auth.Login(ctx, kp.Address(), forged, sign(t, kp, forged))
	assertInvalidCredential(t, err)
	assert.ErrorIs(t, err, core.ErrNonceMismatch)
	assert.Zero(t, f.store.Len())
}

func TestLogin_InputValidation(t *testing.T) {
	f := newFixture(t)
	kp := keypair.MustRandom()

	cases := map[string][3]string{
		"missing address":   {"", "aa", "sig"},
		"missing message":   {kp.Address(), "", "sig"},
		"missing signature": {kp.Address(), "aa", ""},
		"invalid address":   {"GABC", "aa", "sig"},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := f.auth.Login(context.Background(), in[0], in[1], in[2])
			var coreErr *core.Error
			require.ErrorAs(t, err, &coreErr)
			assert.Equal(t, core.KindInvalidInput, coreErr.Kind)
		})
	}
}

func TestLogin_DeactivatedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kp := keypair.MustRandom()

	token := f.login(t, kp)
	_, err := f.users.Deactivate(ctx, kp.Address())
	require.NoError(t, err)

	_, err = f.auth.ValidateSession(ctx, token)
	assert.ErrorIs(t, err, core.ErrUserDeactivated)

	session, err := f.auth.ParseSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), session.Address)

	nonce, err := f.auth.IssueNonce(ctx, kp.Address())
	require.NoError(t, err)

	session, token, err = f.auth.Login(ctx, kp.Address(), nonce.Value, sign(t, kp, nonce.Value))
	assert.ErrorIs(t, err, core.ErrUserDeactivated)
	assert.Nil(t, session)
	assert.Empty(t, token)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kp := keypair.MustRandom()

	token := f.login(t, kp)
	require.NoError(t, f.auth.Logout(ctx, token))

	_, err := f.auth.ValidateSession(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenInvalidated)
	_, err = f.auth.ParseSession(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenInvalidated)
	assert.Contains(t, f.events.Events(), "logout:"+kp.Address())

	assert.Error(t, f.auth.Logout(ctx, "garbage"))
}

func TestValidateSession_PurgedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kp := keypair.MustRandom()

	token := f.login(t, kp)
	require.NoError(t, f.repo.SetDeletedAt(ctx, kp.Address(), time.Now().AddDate(0, 0, -200)))
	_, err := f.users.PurgeEligible(ctx, DefaultRetentionDays)
	require.NoError(t, err)

	_, err = f.auth.ValidateSession(ctx, token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func assertInvalidCredential(t *testing.T, err error) {
	t.Helper()
	var coreErr *core.Error
	require.True(t, errors.As(err, &coreErr), "expected *core.Error, got %v", err)
	assert.Equal(t, core.KindInvalidCredential, coreErr.Kind)
}
