package http

import (
	"net/http"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractRoutes(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, keypair.MustRandom())

	cases := []struct {
		method string
		path   string
		body   interface{}
		xdr    string
	}{
		{http.MethodPost, "/api/v1/bills", map[string]interface{}{
			"name": "Electricity", "amount": "42.50", "dueDate": "2026-03-01", "recurring": true, "frequencyDays": 30,
		}, "AAAA-create_bill"},
		{http.MethodPost, "/api/v1/bills/12/pay", nil, "AAAA-pay_bill"},
		{http.MethodPost, "/api/v1/insurance", map[string]interface{}{
			"name": "Family health", "coverageType": "health", "monthlyPremium": 25, "coverageAmount": "5000",
		}, "AAAA-create_policy"},
		{http.MethodPost, "/api/v1/insurance/p1/pay", nil, "AAAA-pay_premium"},
		{http.MethodPost, "/api/v1/insurance/p1/deactivate", nil, "AAAA-deactivate_policy"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := s.do(t, request{method: tc.method, path: tc.path, body: tc.body, cookie: cookie})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tc.xdr, decode(t, rec)["xdr"])
		})
	}
}

func TestContractRoutes_Errors(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, keypair.MustRandom())

	rec := s.do(t, request{method: http.MethodPost, path: "/api/v1/bills", body: map[string]interface{}{"name": "x"}})
	assertError(t, rec, http.StatusUnauthorized, "UNAUTHENTICATED")

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/bills", cookie: cookie, body: map[string]interface{}{
		"name": "Electricity", "amount": -3, "dueDate": "2026-03-01",
	}})
	assertError(t, rec, http.StatusBadRequest, "INVALID_INPUT")

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/bills", cookie: cookie, body: map[string]interface{}{
		"name": "Electricity", "amount": "lots", "dueDate": "2026-03-01",
	}})
	assertError(t, rec, http.StatusBadRequest, "INVALID_INPUT")

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/split", cookie: cookie, body: map[string]interface{}{
		"spending": 50, "savings": 30, "bills": 10, "insurance": 5,
	}})
	assertError(t, rec, http.StatusBadRequest, "INVALID_INPUT")

	rec = s.do(t, request{method: http.MethodPut, path: "/api/v1/split", cookie: cookie, body: map[string]interface{}{
		"spending": 50, "savings": 30, "bills": 15, "insurance": 5,
	}})
	assertError(t, rec, http.StatusInternalServerError, "INTERNAL")
	assert.Equal(t, "contract not configured", decode(t, rec)["message"])
}
