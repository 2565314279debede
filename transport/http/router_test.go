package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/layer-3/remitwise/adapters/events"
	"github.com/layer-3/remitwise/adapters/repository"
	"github.com/layer-3/remitwise/adapters/stellar"
	"github.com/layer-3/remitwise/adapters/store"
	"github.com/layer-3/remitwise/adapters/tokenizer"
	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/ports"
	"github.com/layer-3/remitwise/service"
	"github.com/rs/zerolog"
	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminSecret = "s3cret"

type stubInvoker struct{}

func (stubInvoker) BuildInvocation(_ context.Context, inv core.Invocation) (string, error) {
	if inv.Contract == core.ContractSplit {
		return "", core.ErrContractNotConfigured
	}
	return "AAAA-" + inv.Function, nil
}

type testServer struct {
	router *gin.Engine
	repo   ports.UserRepository
	nonces *store.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.Open(context.Background(), "sqlite3", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	key, err := tokenizer.GenerateSigningKey()
	require.NoError(t, err)

	logger := zerolog.Nop()
	repo := repository.NewUserRepository(db)
	memStore := store.NewMemoryStore()
	pub := events.NopPublisher{}

	authService := service.NewAuthService(service.AuthConfig{}, memStore, stellar.NewVerifier(),
		tokenizer.NewJWTTokenizer(key, "remitwise-test"), memStore, repo, pub, logger)

	cookie := DefaultCookieConfig()
	cookie.Secure = false

	router := SetupRouter(RouterConfig{
		Logger:      logger,
		CORSOrigins: []string{"http://localhost:3000"},
		Cookie:      cookie,
		AdminSecret: testAdminSecret,
	}, Services{
		Auth:      authService,
		Users:     service.NewUserService(repo, pub, logger),
		Contracts: service.NewContractService(stubInvoker{}, logger),
	})

	return &testServer{router: router, repo: repo, nonces: memStore}
}

type request struct {
	method  string
	path    string
	body    interface{}
	cookie  *http.Cookie
	headers map[string]string
}

func (s *testServer) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(r.body))
	}

	req := httptest.NewRequest(r.method, r.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if r.cookie != nil {
		req.AddCookie(r.cookie)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			return c
		}
	}
	return nil
}

func (s *testServer) nonce(t *testing.T, address string) string {
	t.Helper()
	rec := s.do(t, request{method: http.MethodGet, path: "/auth/nonce?address=" + address})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["nonce"].(string)
}

func signNonce(t *testing.T, kp *keypair.Full, nonce string) string {
	t.Helper()
	raw, err := hex.DecodeString(nonce)
	require.NoError(t, err)
	sig, err := kp.Sign(raw)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(sig)
}

func loginBody(kp *keypair.Full, nonce, signature string) map[string]string {
	return map[string]string{"address": kp.Address(), "message": nonce, "signature": signature}
}

// login signs in kp and returns the session cookie
func (s *testServer) login(t *testing.T, kp *keypair.Full) *http.Cookie {
	t.Helper()
	nonce := s.nonce(t, kp.Address())
	rec := s.do(t, request{method: http.MethodPost, path: "/auth/login", body: loginBody(kp, nonce, signNonce(t, kp, nonce))})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	return cookie
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, code, body["error"])
	assert.NotEmpty(t, body["message"])
}
