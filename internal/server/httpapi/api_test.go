package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/creatorpay/core/internal/audit"
	"github.com/creatorpay/core/internal/common"
	"github.com/creatorpay/core/internal/csrf"
	"github.com/creatorpay/core/internal/datastore"
	"github.com/creatorpay/core/internal/kv"
	"github.com/creatorpay/core/internal/logging"
	"github.com/creatorpay/core/internal/provider"
	"github.com/creatorpay/core/internal/session"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *mux.Router
	audit  *audit.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logging.NewJSONLogger(io.Discard)
	store := kv.NewMemory()
	data := datastore.New(store)

	auditLog := audit.NewLogger(log)
	providers := provider.NewManager(data, log, provider.Settings{
		InsecureMockAuth: true,
		ShareURLBase:     "https://pay.example.com",
	}, provider.WithAudit(auditLog))

	tokens := session.NewTokenManager("test-secret", time.Hour)
	sessions := session.NewManager(store, tokens, false)
	protection := csrf.New(store, false)

	api := New(providers, sessions, protection, auditLog, log)
	return &testEnv{router: api.Router(), audit: auditLog}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// register creates a user and returns nothing; login returns the session
// cookie and csrf token for authenticated calls.
func (e *testEnv) register(t *testing.T, username, email, password string) {
	t.Helper()
	w := e.do(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username, "email": email, "password": password,
	}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (e *testEnv) login(t *testing.T, email, password string) (*http.Cookie, string) {
	t.Helper()
	w := e.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]any{
		"email": email, "password": password,
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)

	env := decodeEnvelope(t, w)
	var data struct {
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.CSRFToken)
	return sessionCookie, data.CSRFToken
}

func (e *testEnv) authed(req *http.Request, cookie *http.Cookie, csrfToken string) *http.Request {
	req.AddCookie(cookie)
	if csrfToken != "" {
		req.Header.Set(common.CSRFHeaderName, csrfToken)
	}
	return req
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "email": "not-an-email", "password": "longenough",
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "email": "a@b.co", "password": "short",
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterDuplicateConflict(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")

	w := e.do(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice2", "email": "alice@example.com", "password": "password123",
	}))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error, "already exists")
}

func TestLoginSetsCookiesAndCacheHeaders(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")

	w := e.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "password123",
	}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
	assert.NotEmpty(t, w.Header().Get("X-Session-ID"))

	names := map[string]bool{}
	for _, c := range w.Result().Cookies() {
		names[c.Name] = true
		assert.True(t, c.HttpOnly)
	}
	assert.True(t, names[common.SessionCookieName])
	assert.True(t, names[common.AuthTokenCookieName])
	assert.True(t, names[common.CSRFCookieName])
}

func TestLoginRateLimitReturns429(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")

	for i := 0; i < session.MaxLoginAttempts; i++ {
		w := e.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"email": "ghost@example.com", "password": "wrong",
		}))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := e.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "wrong",
	}))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// The rate limit is keyed by identifier; other users still log in.
	_, _ = e.login(t, "alice@example.com", "password123")

	events := e.audit.Query(audit.Filter{Type: audit.EventRateLimitExceeded})
	assert.NotEmpty(t, events)
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(httptest.NewRequest(http.MethodGet, "/api/transactions", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	events := e.audit.Query(audit.Filter{Type: audit.EventUnauthorizedAccess})
	assert.NotEmpty(t, events)
}

func TestCSRFRejectedWithoutToken(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")
	cookie, _ := e.login(t, "alice@example.com", "password123")

	req := jsonRequest(http.MethodPost, "/api/transactions", map[string]any{"amount": 5})
	req.AddCookie(cookie)
	w := e.do(req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, csrf.ReasonMissing, w.Header().Get("X-CSRF-Error"))
	assert.NotEmpty(t, e.audit.Query(audit.Filter{Type: audit.EventCSRFViolation}))
}

func TestCSRFMismatchRejected(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")
	cookie, _ := e.login(t, "alice@example.com", "password123")

	req := e.authed(jsonRequest(http.MethodPost, "/api/transactions", map[string]any{"amount": 5}), cookie, "wrong-token")
	w := e.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, csrf.ReasonMismatch, w.Header().Get("X-CSRF-Error"))
}

func TestTransactionRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")
	cookie, token := e.login(t, "alice@example.com", "password123")

	w := e.do(e.authed(jsonRequest(http.MethodPost, "/api/transactions", map[string]any{
		"amount": 25.5, "type": "donation", "status": "completed",
	}), cookie, token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// GET needs no CSRF token.
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.AddCookie(cookie)
	w = e.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var txs []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, 25.5, txs[0]["amount"])
	assert.Equal(t, "transaction-1", txs[0]["id"])
}

func TestPayoutStatusStampsCompletedAt(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")
	cookie, token := e.login(t, "alice@example.com", "password123")

	w := e.do(e.authed(jsonRequest(http.MethodPost, "/api/payouts", map[string]any{
		"amount": 100, "method": "paypal",
	}), cookie, token))
	require.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	var payout map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &payout))
	id := payout["id"].(string)
	assert.Equal(t, "pending", payout["status"])

	w = e.do(e.authed(jsonRequest(http.MethodPatch, fmt.Sprintf("/api/payouts/%s/status", id), map[string]any{
		"status": "completed",
	}), cookie, token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &payout))
	assert.Equal(t, "completed", payout["status"])
	assert.NotEmpty(t, payout["completed_at"])
}

func TestStatusUpdatesRejectUnknownValues(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")
	cookie, token := e.login(t, "alice@example.com", "password123")

	w := e.do(e.authed(jsonRequest(http.MethodPost, "/api/payouts", map[string]any{
		"amount": 100, "method": "paypal",
	}), cookie, token))
	require.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	var payout map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &payout))
	id := payout["id"].(string)

	w = e.do(e.authed(jsonRequest(http.MethodPatch, fmt.Sprintf("/api/payouts/%s/status", id), map[string]any{
		"status": "cancelled",
	}), cookie, token))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error, "invalid status")

	w = e.do(e.authed(jsonRequest(http.MethodPost, "/api/payment-requests", map[string]any{
		"recipient_email": "bob@example.com", "amount": 20,
	}), cookie, token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env = decodeEnvelope(t, w)
	var pr map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &pr))
	id = pr["id"].(string)

	w = e.do(e.authed(jsonRequest(http.MethodPatch, fmt.Sprintf("/api/payment-requests/%s/status", id), map[string]any{
		"status": "approved",
	}), cookie, token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(e.authed(jsonRequest(http.MethodPatch, fmt.Sprintf("/api/payment-requests/%s/status", id), map[string]any{
		"status": "accepted",
	}), cookie, token))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPaymentLinkValidationAndShareURL(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")
	cookie, token := e.login(t, "alice@example.com", "password123")

	w := e.do(e.authed(jsonRequest(http.MethodPost, "/api/payment-links", map[string]any{
		"name": "Tips",
	}), cookie, token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(e.authed(jsonRequest(http.MethodPost, "/api/payment-links", map[string]any{
		"name": "Tips", "reference": "tips-1", "customer_redirect_url": "javascript:alert(1)",
	}), cookie, token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(e.authed(jsonRequest(http.MethodPost, "/api/payment-links", map[string]any{
		"name": "Tips", "reference": "tips-1", "currency": "USD",
	}), cookie, token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	var link map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &link))
	assert.Equal(t, "https://pay.example.com/l/tips-1", link["share_url"])
	assert.Equal(t, "active", link["status"])
}

func TestDashboardStats(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")
	cookie, token := e.login(t, "alice@example.com", "password123")

	for _, tx := range []map[string]any{
		{"amount": 10, "status": "completed"},
		{"amount": 5, "status": "pending"},
		{"amount": 7, "status": "completed"},
	} {
		w := e.do(e.authed(jsonRequest(http.MethodPost, "/api/transactions", tx), cookie, token))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
	req.AddCookie(cookie)
	w := e.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 17.0, stats["total_earnings"])
	assert.Equal(t, 3.0, stats["total_transactions"])
}

func TestLogoutClearsSession(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")
	cookie, token := e.login(t, "alice@example.com", "password123")

	w := e.do(e.authed(jsonRequest(http.MethodPost, "/api/auth/logout", nil), cookie, token))
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		assert.Less(t, c.MaxAge, 0, c.Name)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	w = e.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.NotEmpty(t, e.audit.Query(audit.Filter{Type: audit.EventLogout}))
}

func TestMeReturnsProfile(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")
	cookie, _ := e.login(t, "alice@example.com", "password123")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	w := e.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var user map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password_hash")
}

func TestUpdateProfile(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")
	cookie, token := e.login(t, "alice@example.com", "password123")

	w := e.do(e.authed(jsonRequest(http.MethodPatch, "/api/users/me", map[string]any{
		"bio": "creator of things",
	}), cookie, token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	var user map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "creator of things", user["bio"])
	assert.Equal(t, "alice", user["username"])
}

func TestSecurityEventsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")

	// Produce a login failure worth querying.
	e.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "wrong-but-insecure-mode-ignores"}))
	cookie, _ := e.login(t, "alice@example.com", "password123")

	req := httptest.NewRequest(http.MethodGet, "/api/security/events?type=login_success&limit=10", nil)
	req.AddCookie(cookie)
	w := e.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var events []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &events))
	assert.NotEmpty(t, events)

	req = httptest.NewRequest(http.MethodGet, "/api/security/stats?window=1h", nil)
	req.AddCookie(cookie)
	w = e.do(req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProviderConfigurationEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@example.com", "password123")
	cookie, token := e.login(t, "alice@example.com", "password123")

	req := httptest.NewRequest(http.MethodGet, "/api/provider", nil)
	req.AddCookie(cookie)
	w := e.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	var data map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "mock", data["provider"])

	// Misconfigured supabase: the name sticks, the mock keeps serving.
	w = e.do(e.authed(jsonRequest(http.MethodPost, "/api/provider", map[string]any{
		"enabled": true, "provider": "supabase",
	}), cookie, token))
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "supabase", data["provider"])

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	w = e.do(req)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.NotEmpty(t, e.audit.Query(audit.Filter{Type: audit.EventProviderFallback}))
}
