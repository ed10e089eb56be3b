package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/taskpay/internal/escrow"
	"github.com/example/taskpay/internal/ledger"
	"github.com/example/taskpay/internal/security"
	"github.com/example/taskpay/internal/transaction"
	"github.com/example/taskpay/internal/wallet"
	"github.com/example/taskpay/pkg/audit"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	wallets := wallet.NewService(wallet.NewMemoryStore(), nil)
	transactions := transaction.NewService(transaction.NewMemoryStore(), nil)
	ledgerSvc := ledger.NewService(ledger.NewMemoryStore(), nil)
	auditor := audit.NewChainLogger()

	escrowSvc := escrow.NewService(escrow.Deps{
		Wallets:      wallets,
		Transactions: transactions,
		Ledger:       ledgerSvc,
		Auditor:      auditor,
	})

	router, err := NewRouter(Dependencies{
		Wallets:      wallets,
		Transactions: transactions,
		Escrow:       escrowSvc,
		Auditor:      auditor,
		MaxBodyBytes: 1 << 20,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func getJSON(t *testing.T, srv *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func createWallet(t *testing.T, srv *httptest.Server, userID, initial string) string {
	t.Helper()
	resp, body := postJSON(t, srv, "/v1/wallets", map[string]any{
		"user_id":         userID,
		"currency":        "USD",
		"initial_balance": initial,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %v", body)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestNewRouterConstructs(t *testing.T) {
	wallets := wallet.NewService(wallet.NewMemoryStore(), nil)
	transactions := transaction.NewService(transaction.NewMemoryStore(), nil)
	escrowSvc := escrow.NewService(escrow.Deps{
		Wallets:      wallets,
		Transactions: transactions,
	})

	var (
		router http.Handler
		err    error
	)
	require.NotPanics(t, func() {
		router, err = NewRouter(Dependencies{
			Wallets:      wallets,
			Transactions: transactions,
			Escrow:       escrowSvc,
		})
	})
	require.NoError(t, err)
	require.NotNil(t, router)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateWalletEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv, "/v1/wallets", map[string]any{
		"user_id":         "user-1",
		"currency":        "USD",
		"initial_balance": "250.50",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "user-1", body["user_id"])
	assert.Equal(t, "250.5", body["balance"])
	assert.Equal(t, "active", body["status"])
	assert.NotEmpty(t, resp.Header.Get(security.CorrelationIDHeader))

	// One wallet per user.
	resp, body = postJSON(t, srv, "/v1/wallets", map[string]any{
		"user_id":  "user-1",
		"currency": "USD",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "wallet_exists", body["error"])
}

func TestCreateWalletSchemaRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	cases := []map[string]any{
		{"currency": "USD"},                                            // no user_id
		{"user_id": "u", "currency": "EUR"},                            // unsupported currency
		{"user_id": "u", "currency": "USD", "initial_balance": "-1"},   // negative
		{"user_id": "u", "currency": "USD", "unexpected_field": "yes"}, // extra field
	}
	for i, c := range cases {
		resp, _ := postJSON(t, srv, "/v1/wallets", c)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "case %d", i)
	}
}

func TestEscrowFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	payerID := createWallet(t, srv, "payer", "500")
	payeeID := createWallet(t, srv, "payee", "0")

	hold := map[string]any{
		"task_id":                 "task-1",
		"payer_wallet_id":         payerID,
		"payee_wallet_id":         payeeID,
		"amount":                  "100",
		"platform_fee_percentage": "0.05",
	}

	resp, body := postJSON(t, srv, "/v1/escrow/hold", hold)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %v", body)
	assert.Equal(t, "held", body["status"])
	assert.Equal(t, "105", body["total_amount"])

	resp, body = getJSON(t, srv, "/v1/escrow/task-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "held", body["status"])

	resp, body = postJSON(t, srv, "/v1/escrow/release", hold)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %v", body)
	assert.Equal(t, "released", body["status"])

	resp, body = getJSON(t, srv, fmt.Sprintf("/v1/wallets/%s", payeeID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "100", body["balance"])

	resp, body = getJSON(t, srv, "/v1/escrow/task-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "released", body["status"])
}

func TestHoldInsufficientFunds(t *testing.T) {
	srv := newTestServer(t)

	payerID := createWallet(t, srv, "payer", "10")
	payeeID := createWallet(t, srv, "payee", "0")

	resp, body := postJSON(t, srv, "/v1/escrow/hold", map[string]any{
		"task_id":         "task-1",
		"payer_wallet_id": payerID,
		"payee_wallet_id": payeeID,
		"amount":          "100",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "insufficient_funds", body["error"])
}

func TestHoldSchemaRejectsBadAmounts(t *testing.T) {
	srv := newTestServer(t)

	for _, amount := range []string{"-100", "1.23456", "abc", ""} {
		resp, _ := postJSON(t, srv, "/v1/escrow/hold", map[string]any{
			"task_id":         "task-1",
			"payer_wallet_id": "w1",
			"payee_wallet_id": "w2",
			"amount":          amount,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "amount %q", amount)
	}
}

func TestEscrowStatusUnknownTask(t *testing.T) {
	srv := newTestServer(t)

	resp, body := getJSON(t, srv, "/v1/escrow/task-unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "escrow_not_found", body["error"])
}

func TestWalletStatusEndpoints(t *testing.T) {
	srv := newTestServer(t)

	id := createWallet(t, srv, "user-1", "0")

	resp, body := postJSON(t, srv, fmt.Sprintf("/v1/wallets/%s/suspend", id), map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "suspended", body["status"])

	resp, body = postJSON(t, srv, fmt.Sprintf("/v1/wallets/%s/activate", id), map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", body["status"])

	resp, body = postJSON(t, srv, fmt.Sprintf("/v1/wallets/%s/close", id), map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "closed", body["status"])

	// Closed is terminal.
	resp, body = postJSON(t, srv, fmt.Sprintf("/v1/wallets/%s/activate", id), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["error"])
}

func TestGetWalletNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, body := getJSON(t, srv, "/v1/wallets/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])
}

func TestListTransactionsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	payerID := createWallet(t, srv, "payer", "500")
	payeeID := createWallet(t, srv, "payee", "0")

	for i := 0; i < 3; i++ {
		resp, body := postJSON(t, srv, "/v1/escrow/hold", map[string]any{
			"task_id":         fmt.Sprintf("task-%d", i),
			"payer_wallet_id": payerID,
			"payee_wallet_id": payeeID,
			"amount":          "50",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %v", body)
	}

	resp, body := getJSON(t, srv, "/v1/transactions?wallet_id="+payerID+"&page_size=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(2), body["total_pages"])
	items, ok := body["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, body := getJSON(t, srv, "/v1/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])
}
