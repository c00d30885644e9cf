package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/creatorpay/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseListFiltersByUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/transactions", r.URL.Path)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]models.Transaction{{ID: "transaction-1", UserID: "user-1", Amount: 5}})
	}))
	defer srv.Close()

	s, err := NewSupabase(srv.URL, "anon-key")
	require.NoError(t, err)

	res := s.GetTransactions(context.Background(), "user-1")
	require.True(t, res.Success)
	txs := res.Data.([]models.Transaction)
	require.Len(t, txs, 1)
	assert.Equal(t, 5.0, txs[0].Amount)
}

func TestSupabaseCreateReturnsRepresentation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/users", r.URL.Path)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var u models.User
		require.NoError(t, json.NewDecoder(r.Body).Decode(&u))
		u.ID = "user-7"
		_ = json.NewEncoder(w).Encode([]models.User{u})
	}))
	defer srv.Close()

	s, err := NewSupabase(srv.URL, "anon-key")
	require.NoError(t, err)

	res := s.CreateUser(context.Background(), models.User{Username: "alice", Email: "a@b.co"})
	require.True(t, res.Success)
	assert.Equal(t, "user-7", res.Data.(models.User).ID)
}

func TestSupabaseHTTPErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, err := NewSupabase(srv.URL, "anon-key")
	require.NoError(t, err)

	res := s.GetPayouts(context.Background(), "user-1")
	require.False(t, res.Success)
	assert.Equal(t, "HTTP error! status: 500", res.Error)
}

func TestSupabaseUserLookupMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.ghost@example.com", r.URL.Query().Get("email"))
		_ = json.NewEncoder(w).Encode([]models.User{})
	}))
	defer srv.Close()

	s, err := NewSupabase(srv.URL, "anon-key")
	require.NoError(t, err)

	res := s.GetUserByEmail(context.Background(), "ghost@example.com")
	require.False(t, res.Success)
	assert.Equal(t, "user not found", res.Error)
}

func TestSupabaseAuthenticateSetsCurrentUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"user": models.User{ID: "user-3", Email: "a@b.co"},
			})
		case "/rest/v1/users":
			assert.Equal(t, "eq.user-3", r.URL.Query().Get("id"))
			_ = json.NewEncoder(w).Encode([]models.User{{ID: "user-3", Email: "a@b.co"}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	s, err := NewSupabase(srv.URL, "anon-key")
	require.NoError(t, err)

	res := s.Authenticate(context.Background(), "a@b.co", "pw")
	require.True(t, res.Success)

	res = s.GetCurrentUser(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, "user-3", res.Data.(models.User).ID)

	require.True(t, s.Logout(context.Background()).Success)
	assert.False(t, s.GetCurrentUser(context.Background()).Success)
}

func TestCustomListFiltersByUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment-links", r.URL.Path)
		assert.Equal(t, "user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "Bearer api-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]models.PaymentLink{{ID: "payment-link-1", UserID: "user-1"}})
	}))
	defer srv.Close()

	c, err := NewCustom(srv.URL, "api-key")
	require.NoError(t, err)

	res := c.GetPaymentLinks(context.Background(), "user-1")
	require.True(t, res.Success)
	assert.Len(t, res.Data.([]models.PaymentLink), 1)
}

func TestCustomPatchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/payouts/payout-2", r.URL.Path)

		var patch map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		assert.Equal(t, "completed", patch["status"])
		assert.NotEmpty(t, patch["completed_at"])

		_ = json.NewEncoder(w).Encode(models.Payout{ID: "payout-2", Status: "completed"})
	}))
	defer srv.Close()

	c, err := NewCustom(srv.URL, "api-key")
	require.NoError(t, err)

	done := time.Now()
	res := c.UpdatePayoutStatus(context.Background(), "payout-2", models.StatusCompleted, &done)
	require.True(t, res.Success)
	assert.Equal(t, models.StatusCompleted, res.Data.(models.Payout).Status)
}

func TestCustomHTTPErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewCustom(srv.URL, "api-key")
	require.NoError(t, err)

	res := c.GetUserByEmail(context.Background(), "ghost@example.com")
	require.False(t, res.Success)
	assert.Equal(t, "HTTP error! status: 404", res.Error)
}

func TestCustomDashboardStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dashboard-stats", r.URL.Path)
		assert.Equal(t, "user-1", r.URL.Query().Get("user_id"))
		_ = json.NewEncoder(w).Encode(models.DashboardStats{TotalEarnings: 17, TotalTransactions: 3})
	}))
	defer srv.Close()

	c, err := NewCustom(srv.URL, "api-key")
	require.NoError(t, err)

	res := c.GetDashboardStats(context.Background(), "user-1")
	require.True(t, res.Success)
	stats := res.Data.(models.DashboardStats)
	assert.Equal(t, 17.0, stats.TotalEarnings)
	assert.Equal(t, 3, stats.TotalTransactions)
}
