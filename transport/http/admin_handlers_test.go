package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adminHeaders = map[string]string{"Authorization": "Bearer " + testAdminSecret}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, request{method: http.MethodGet, path: "/admin/users"})
	assertError(t, rec, http.StatusUnauthorized, "UNAUTHENTICATED")

	rec = s.do(t, request{method: http.MethodGet, path: "/admin/users", headers: map[string]string{"Authorization": "Bearer wrong"}})
	assertError(t, rec, http.StatusForbidden, "FORBIDDEN")

	// A user session is not an admin credential
	cookie := s.login(t, keypair.MustRandom())
	rec = s.do(t, request{method: http.MethodGet, path: "/admin/users", headers: map[string]string{"Authorization": "Bearer " + cookie.Value}})
	assertError(t, rec, http.StatusForbidden, "FORBIDDEN")
}

func TestAdminReactivate(t *testing.T) {
	s := newTestServer(t)
	kp := keypair.MustRandom()
	cookie := s.login(t, kp)

	rec := s.do(t, request{method: http.MethodPost, path: "/user/deactivate", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: "/admin/users/" + kp.Address(), headers: adminHeaders})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode(t, rec)["deletedAt"])

	rec = s.do(t, request{method: http.MethodPost, path: "/admin/users/" + kp.Address() + "/reactivate", headers: adminHeaders})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, request{method: http.MethodPost, path: "/admin/users/" + kp.Address() + "/reactivate", headers: adminHeaders})
	assertError(t, rec, http.StatusBadRequest, "USER_NOT_DEACTIVATED")

	rec = s.do(t, request{method: http.MethodPost, path: "/admin/users/" + keypair.MustRandom().Address() + "/reactivate", headers: adminHeaders})
	assertError(t, rec, http.StatusNotFound, "USER_NOT_FOUND")

	// The old session works again and a fresh login succeeds
	rec = s.do(t, request{method: http.MethodGet, path: "/auth/me", cookie: cookie})
	assert.Equal(t, http.StatusOK, rec.Code)
	s.login(t, kp)
}

func TestAdminListAndPurge(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	active := keypair.MustRandom().Address()
	old := keypair.MustRandom().Address()
	recent := keypair.MustRandom().Address()
	for _, address := range []string{active, old, recent} {
		_, err := s.repo.Upsert(ctx, address)
		require.NoError(t, err)
	}
	require.NoError(t, s.repo.SetDeletedAt(ctx, old, time.Now().AddDate(0, 0, -100)))
	require.NoError(t, s.repo.SetDeletedAt(ctx, recent, time.Now().AddDate(0, 0, -5)))

	rec := s.do(t, request{method: http.MethodGet, path: "/admin/users", headers: adminHeaders})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = s.do(t, request{method: http.MethodGet, path: "/admin/users?active=false", headers: adminHeaders})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["count"])

	rec = s.do(t, request{method: http.MethodGet, path: "/admin/users?active=maybe", headers: adminHeaders})
	assertError(t, rec, http.StatusBadRequest, "INVALID_INPUT")

	rec = s.do(t, request{method: http.MethodGet, path: "/admin/users/count", headers: adminHeaders})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["active"])

	rec = s.do(t, request{method: http.MethodGet, path: "/admin/users/purge-eligible", headers: adminHeaders})
	require.Equal(t, http.StatusOK, rec.Code)
	eligible := decode(t, rec)
	assert.EqualValues(t, 90, eligible["retentionDays"])
	assert.EqualValues(t, 1, eligible["count"])

	rec = s.do(t, request{method: http.MethodPost, path: "/admin/users/purge?retentionDays=abc", headers: adminHeaders})
	assertError(t, rec, http.StatusBadRequest, "INVALID_INPUT")

	rec = s.do(t, request{method: http.MethodPost, path: "/admin/users/purge", headers: adminHeaders})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{old}, decode(t, rec)["purged"])

	rec = s.do(t, request{method: http.MethodPost, path: "/admin/users/purge?retentionDays=1", headers: adminHeaders})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{recent}, decode(t, rec)["purged"])

	rec = s.do(t, request{method: http.MethodGet, path: "/admin/users/" + old, headers: adminHeaders})
	assertError(t, rec, http.StatusNotFound, "USER_NOT_FOUND")
}
