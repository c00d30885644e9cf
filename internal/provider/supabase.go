package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/creatorpay/core/internal/models"
)

// Supabase talks to a Supabase project over its PostgREST surface. Rows are
// filtered with the `column=eq.value` operator and writes ask for the
// created/updated representation back.
type Supabase struct {
	baseURL string
	anonKey string
	client  *http.Client

	mu            sync.Mutex
	currentUserID string
}

func NewSupabase(rawURL, anonKey string) (*Supabase, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("supabase url must be absolute http(s)")
	}
	return &Supabase{
		baseURL: u.String(),
		anonKey: anonKey,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

func (s *Supabase) headers(prefer string) http.Header {
	h := http.Header{}
	h.Set("apikey", s.anonKey)
	h.Set("Authorization", "Bearer "+s.anonKey)
	if prefer != "" {
		h.Set("Prefer", prefer)
	}
	return h
}

func (s *Supabase) rest(table string, query url.Values) string {
	u := s.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func userFilter(userID string) url.Values {
	q := url.Values{}
	if userID != "" {
		q.Set("user_id", "eq."+userID)
	}
	return q
}

// insertOne POSTs a row and returns the created representation.
func insertOne[T any](ctx context.Context, s *Supabase, table string, row T) Result {
	var out []T
	if err := doJSON(ctx, s.client, http.MethodPost, s.rest(table, nil), s.headers("return=representation"), row, &out); err != nil {
		return fail(err.Error())
	}
	if len(out) == 0 {
		return fail("empty response")
	}
	return ok(out[0])
}

// patchByID PATCHes the row matching id and returns the updated row.
func patchByID[T any](ctx context.Context, s *Supabase, table, id string, patch any) Result {
	q := url.Values{}
	q.Set("id", "eq."+id)
	var out []T
	if err := doJSON(ctx, s.client, http.MethodPatch, s.rest(table, q), s.headers("return=representation"), patch, &out); err != nil {
		return fail(err.Error())
	}
	if len(out) == 0 {
		return fail("record not found")
	}
	return ok(out[0])
}

func listRows[T any](ctx context.Context, s *Supabase, table string, query url.Values) Result {
	var out []T
	if err := doJSON(ctx, s.client, http.MethodGet, s.rest(table, query), s.headers(""), nil, &out); err != nil {
		return fail(err.Error())
	}
	return ok(out)
}

func (s *Supabase) findUser(ctx context.Context, column, value string) Result {
	q := url.Values{}
	q.Set(column, "eq."+value)
	q.Set("limit", "1")
	var out []models.User
	if err := doJSON(ctx, s.client, http.MethodGet, s.rest("users", q), s.headers(""), nil, &out); err != nil {
		return fail(err.Error())
	}
	if len(out) == 0 {
		return fail("user not found")
	}
	return ok(sanitized(out[0]))
}

func (s *Supabase) CreateUser(ctx context.Context, user models.User) Result {
	return insertOne(ctx, s, "users", user)
}

func (s *Supabase) GetUserByEmail(ctx context.Context, email string) Result {
	return s.findUser(ctx, "email", email)
}

func (s *Supabase) GetUserByUsername(ctx context.Context, username string) Result {
	return s.findUser(ctx, "username", username)
}

func (s *Supabase) UpdateUser(ctx context.Context, id string, update UserUpdate) Result {
	return patchByID[models.User](ctx, s, "users", id, update)
}

func (s *Supabase) SetCurrentUser(ctx context.Context, id string) Result {
	s.mu.Lock()
	s.currentUserID = id
	s.mu.Unlock()
	return ok(nil)
}

func (s *Supabase) GetCurrentUser(ctx context.Context) Result {
	s.mu.Lock()
	id := s.currentUserID
	s.mu.Unlock()
	if id == "" {
		return fail("no user logged in")
	}
	return s.findUser(ctx, "id", id)
}

func (s *Supabase) Logout(ctx context.Context) Result {
	s.mu.Lock()
	s.currentUserID = ""
	s.mu.Unlock()
	return okMsg(nil, "logged out")
}

// Authenticate goes through the Supabase auth endpoint with the password
// grant and records the returned user as current.
func (s *Supabase) Authenticate(ctx context.Context, email, password string) Result {
	var out struct {
		User models.User `json:"user"`
	}
	authURL := s.baseURL + "/auth/v1/token?grant_type=password"
	body := map[string]string{"email": email, "password": password}
	if err := doJSON(ctx, s.client, http.MethodPost, authURL, s.headers(""), body, &out); err != nil {
		return fail(err.Error())
	}
	s.mu.Lock()
	s.currentUserID = out.User.ID
	s.mu.Unlock()
	return ok(sanitized(out.User))
}

func (s *Supabase) CreateTransaction(ctx context.Context, tx models.Transaction) Result {
	return insertOne(ctx, s, "transactions", tx)
}

func (s *Supabase) GetTransactions(ctx context.Context, userID string) Result {
	return listRows[models.Transaction](ctx, s, "transactions", userFilter(userID))
}

func (s *Supabase) CreatePayout(ctx context.Context, p models.Payout) Result {
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	return insertOne(ctx, s, "payouts", p)
}

func (s *Supabase) GetPayouts(ctx context.Context, userID string) Result {
	return listRows[models.Payout](ctx, s, "payouts", userFilter(userID))
}

func (s *Supabase) UpdatePayoutStatus(ctx context.Context, id, status string, completedAt *time.Time) Result {
	patch := map[string]any{"status": status}
	if completedAt != nil {
		patch["completed_at"] = completedAt
	}
	return patchByID[models.Payout](ctx, s, "payouts", id, patch)
}

func (s *Supabase) CreatePaymentLink(ctx context.Context, l models.PaymentLink) Result {
	if l.Status == "" {
		l.Status = models.LinkActive
	}
	return insertOne(ctx, s, "payment_links", l)
}

func (s *Supabase) GetPaymentLinks(ctx context.Context, userID string) Result {
	return listRows[models.PaymentLink](ctx, s, "payment_links", userFilter(userID))
}

func (s *Supabase) UpdatePaymentLinkStatus(ctx context.Context, id, status string) Result {
	return patchByID[models.PaymentLink](ctx, s, "payment_links", id, map[string]any{"status": status})
}

func (s *Supabase) CreatePaymentRequest(ctx context.Context, r models.PaymentRequest) Result {
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	return insertOne(ctx, s, "payment_requests", r)
}

func (s *Supabase) GetPaymentRequests(ctx context.Context, userID string) Result {
	return listRows[models.PaymentRequest](ctx, s, "payment_requests", userFilter(userID))
}

func (s *Supabase) UpdatePaymentRequestStatus(ctx context.Context, id, status string) Result {
	return patchByID[models.PaymentRequest](ctx, s, "payment_requests", id, map[string]any{"status": status})
}

// GetDashboardStats calls the dashboard_stats RPC rather than aggregating
// client-side; the database owns the computation for remote backends.
func (s *Supabase) GetDashboardStats(ctx context.Context, userID string) Result {
	var out models.DashboardStats
	rpcURL := s.baseURL + "/rest/v1/rpc/dashboard_stats"
	if err := doJSON(ctx, s.client, http.MethodPost, rpcURL, s.headers(""), map[string]string{"user_id": userID}, &out); err != nil {
		return fail(err.Error())
	}
	return ok(out)
}
