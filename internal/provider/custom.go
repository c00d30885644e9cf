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

// Custom talks to a plain REST backend: bearer-token auth, kebab-case
// collection paths, `?user_id=<id>` filtering, and single-object responses
// for lookups and updates.
type Custom struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu            sync.Mutex
	currentUserID string
}

func NewCustom(rawURL, apiKey string) (*Custom, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("custom base url must be absolute http(s)")
	}
	return &Custom{
		baseURL: u.String(),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

func (c *Custom) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.apiKey)
	return h
}

func (c *Custom) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func customList[T any](ctx context.Context, c *Custom, path, userID string) Result {
	q := url.Values{}
	if userID != "" {
		q.Set("user_id", userID)
	}
	var out []T
	if err := doJSON(ctx, c.client, http.MethodGet, c.endpoint(path, q), c.headers(), nil, &out); err != nil {
		return fail(err.Error())
	}
	return ok(out)
}

func customCreate[T any](ctx context.Context, c *Custom, path string, body T) Result {
	var out T
	if err := doJSON(ctx, c.client, http.MethodPost, c.endpoint(path, nil), c.headers(), body, &out); err != nil {
		return fail(err.Error())
	}
	return ok(out)
}

func customPatch[T any](ctx context.Context, c *Custom, path string, patch any) Result {
	var out T
	if err := doJSON(ctx, c.client, http.MethodPatch, c.endpoint(path, nil), c.headers(), patch, &out); err != nil {
		return fail(err.Error())
	}
	return ok(out)
}

func (c *Custom) findUser(ctx context.Context, key, value string) Result {
	q := url.Values{}
	q.Set(key, value)
	var out models.User
	if err := doJSON(ctx, c.client, http.MethodGet, c.endpoint("/users", q), c.headers(), nil, &out); err != nil {
		return fail(err.Error())
	}
	return ok(sanitized(out))
}

func (c *Custom) CreateUser(ctx context.Context, user models.User) Result {
	return customCreate(ctx, c, "/users", user)
}

func (c *Custom) GetUserByEmail(ctx context.Context, email string) Result {
	return c.findUser(ctx, "email", email)
}

func (c *Custom) GetUserByUsername(ctx context.Context, username string) Result {
	return c.findUser(ctx, "username", username)
}

func (c *Custom) UpdateUser(ctx context.Context, id string, update UserUpdate) Result {
	return customPatch[models.User](ctx, c, "/users/"+id, update)
}

func (c *Custom) SetCurrentUser(ctx context.Context, id string) Result {
	c.mu.Lock()
	c.currentUserID = id
	c.mu.Unlock()
	return ok(nil)
}

func (c *Custom) GetCurrentUser(ctx context.Context) Result {
	c.mu.Lock()
	id := c.currentUserID
	c.mu.Unlock()
	if id == "" {
		return fail("no user logged in")
	}
	var out models.User
	if err := doJSON(ctx, c.client, http.MethodGet, c.endpoint("/users/"+id, nil), c.headers(), nil, &out); err != nil {
		return fail(err.Error())
	}
	return ok(sanitized(out))
}

func (c *Custom) Logout(ctx context.Context) Result {
	c.mu.Lock()
	c.currentUserID = ""
	c.mu.Unlock()
	return okMsg(nil, "logged out")
}

func (c *Custom) Authenticate(ctx context.Context, email, password string) Result {
	var out models.User
	body := map[string]string{"email": email, "password": password}
	if err := doJSON(ctx, c.client, http.MethodPost, c.endpoint("/auth/login", nil), c.headers(), body, &out); err != nil {
		return fail(err.Error())
	}
	c.mu.Lock()
	c.currentUserID = out.ID
	c.mu.Unlock()
	return ok(sanitized(out))
}

func (c *Custom) CreateTransaction(ctx context.Context, tx models.Transaction) Result {
	return customCreate(ctx, c, "/transactions", tx)
}

func (c *Custom) GetTransactions(ctx context.Context, userID string) Result {
	return customList[models.Transaction](ctx, c, "/transactions", userID)
}

func (c *Custom) CreatePayout(ctx context.Context, p models.Payout) Result {
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	return customCreate(ctx, c, "/payouts", p)
}

func (c *Custom) GetPayouts(ctx context.Context, userID string) Result {
	return customList[models.Payout](ctx, c, "/payouts", userID)
}

func (c *Custom) UpdatePayoutStatus(ctx context.Context, id, status string, completedAt *time.Time) Result {
	patch := map[string]any{"status": status}
	if completedAt != nil {
		patch["completed_at"] = completedAt
	}
	return customPatch[models.Payout](ctx, c, "/payouts/"+id, patch)
}

func (c *Custom) CreatePaymentLink(ctx context.Context, l models.PaymentLink) Result {
	if l.Status == "" {
		l.Status = models.LinkActive
	}
	return customCreate(ctx, c, "/payment-links", l)
}

func (c *Custom) GetPaymentLinks(ctx context.Context, userID string) Result {
	return customList[models.PaymentLink](ctx, c, "/payment-links", userID)
}

func (c *Custom) UpdatePaymentLinkStatus(ctx context.Context, id, status string) Result {
	return customPatch[models.PaymentLink](ctx, c, "/payment-links/"+id, map[string]any{"status": status})
}

func (c *Custom) CreatePaymentRequest(ctx context.Context, r models.PaymentRequest) Result {
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	return customCreate(ctx, c, "/payment-requests", r)
}

func (c *Custom) GetPaymentRequests(ctx context.Context, userID string) Result {
	return customList[models.PaymentRequest](ctx, c, "/payment-requests", userID)
}

func (c *Custom) UpdatePaymentRequestStatus(ctx context.Context, id, status string) Result {
	return customPatch[models.PaymentRequest](ctx, c, "/payment-requests/"+id, map[string]any{"status": status})
}

func (c *Custom) GetDashboardStats(ctx context.Context, userID string) Result {
	q := url.Values{}
	q.Set("user_id", userID)
	var out models.DashboardStats
	if err := doJSON(ctx, c.client, http.MethodGet, c.endpoint("/dashboard-stats", q), c.headers(), nil, &out); err != nil {
		return fail(err.Error())
	}
	return ok(out)
}
