// Package provider defines the pluggable backend contract for the dashboard
// and its three implementations: the mock store-backed provider, a Supabase
// (PostgREST) client, and a generic custom REST client. Every operation
// returns a uniform Result envelope; expected failures (not found,
// validation, transport) never surface as Go errors past this boundary.
package provider

import (
	"context"
	"time"

	"github.com/creatorpay/core/internal/models"
)

// Result is the uniform response envelope shared by all providers.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func ok(data any) Result {
	return Result{Success: true, Data: data}
}

func okMsg(data any, message string) Result {
	return Result{Success: true, Data: data, Message: message}
}

func fail(errMsg string) Result {
	return Result{Success: false, Error: errMsg}
}

// UserUpdate carries a partial user update; nil fields are left unchanged.
type UserUpdate struct {
	Username     *string           `json:"username,omitempty"`
	Email        *string           `json:"email,omitempty"`
	Tagline      *string           `json:"tagline,omitempty"`
	Bio          *string           `json:"bio,omitempty"`
	ProfileImage *string           `json:"profile_image,omitempty"`
	SocialLinks  map[string]string `json:"social_links,omitempty"`
}

// Provider is the interface all backends implement. Passing an empty userID
// to the Get* collection methods returns all records; scoping is the
// caller's responsibility.
type Provider interface {
	CreateUser(ctx context.Context, user models.User) Result
	GetUserByEmail(ctx context.Context, email string) Result
	GetUserByUsername(ctx context.Context, username string) Result
	UpdateUser(ctx context.Context, id string, update UserUpdate) Result
	SetCurrentUser(ctx context.Context, id string) Result
	GetCurrentUser(ctx context.Context) Result
	Logout(ctx context.Context) Result
	Authenticate(ctx context.Context, email, password string) Result

	CreateTransaction(ctx context.Context, tx models.Transaction) Result
	GetTransactions(ctx context.Context, userID string) Result

	CreatePayout(ctx context.Context, p models.Payout) Result
	GetPayouts(ctx context.Context, userID string) Result
	UpdatePayoutStatus(ctx context.Context, id, status string, completedAt *time.Time) Result

	CreatePaymentLink(ctx context.Context, l models.PaymentLink) Result
	GetPaymentLinks(ctx context.Context, userID string) Result
	UpdatePaymentLinkStatus(ctx context.Context, id, status string) Result

	CreatePaymentRequest(ctx context.Context, r models.PaymentRequest) Result
	GetPaymentRequests(ctx context.Context, userID string) Result
	UpdatePaymentRequestStatus(ctx context.Context, id, status string) Result

	GetDashboardStats(ctx context.Context, userID string) Result
}
