package provider

import (
	"context"
	"strings"
	"time"

	"github.com/creatorpay/core/internal/cryptox"
	"github.com/creatorpay/core/internal/datastore"
	"github.com/creatorpay/core/internal/models"
)

// Mock serves everything from the local data store. It is the default
// provider and the fallback when a remote provider is misconfigured.
//
// When insecureAuth is set, Authenticate accepts any password for an
// existing user. This mirrors the dashboard's demo mode and must stay
// disabled in production configurations.
type Mock struct {
	data         *datastore.Store
	shareBase    string
	insecureAuth bool
}

func NewMock(data *datastore.Store, shareBase string, insecureAuth bool) *Mock {
	return &Mock{data: data, shareBase: strings.TrimSuffix(shareBase, "/"), insecureAuth: insecureAuth}
}

// sanitized strips the password hash before a user leaves the provider.
func sanitized(u models.User) models.User {
	u.PasswordHash = ""
	return u
}

// CreateUser pre-checks email and username uniqueness, then appends. The
// store itself does not enforce uniqueness; the pre-check lives here.
func (m *Mock) CreateUser(ctx context.Context, user models.User) Result {
	if m.data.GetUserByEmail(ctx, user.Email) != nil {
		return fail("user already exists")
	}
	if m.data.GetUserByUsername(ctx, user.Username) != nil {
		return fail("username already taken")
	}
	created := m.data.CreateUser(ctx, user)
	return okMsg(sanitized(created), "user created")
}

func (m *Mock) GetUserByEmail(ctx context.Context, email string) Result {
	u := m.data.GetUserByEmail(ctx, email)
	if u == nil {
		return fail("user not found")
	}
	return ok(sanitized(*u))
}

func (m *Mock) GetUserByUsername(ctx context.Context, username string) Result {
	u := m.data.GetUserByUsername(ctx, username)
	if u == nil {
		return fail("user not found")
	}
	return ok(sanitized(*u))
}

func (m *Mock) UpdateUser(ctx context.Context, id string, update UserUpdate) Result {
	u := m.data.UpdateUser(ctx, id, func(u *models.User) {
		if update.Username != nil {
			u.Username = *update.Username
		}
		if update.Email != nil {
			u.Email = *update.Email
		}
		if update.Tagline != nil {
			u.Tagline = *update.Tagline
		}
		if update.Bio != nil {
			u.Bio = *update.Bio
		}
		if update.ProfileImage != nil {
			u.ProfileImage = *update.ProfileImage
		}
		if update.SocialLinks != nil {
			u.SocialLinks = update.SocialLinks
		}
	})
	if u == nil {
		return fail("user not found")
	}
	return ok(sanitized(*u))
}

func (m *Mock) SetCurrentUser(ctx context.Context, id string) Result {
	if m.data.GetUserByID(ctx, id) == nil {
		return fail("user not found")
	}
	m.data.SetCurrentUserID(ctx, id)
	return ok(nil)
}

func (m *Mock) GetCurrentUser(ctx context.Context) Result {
	id := m.data.CurrentUserID(ctx)
	if id == "" {
		return fail("no user logged in")
	}
	u := m.data.GetUserByID(ctx, id)
	if u == nil {
		return fail("user not found")
	}
	return ok(sanitized(*u))
}

func (m *Mock) Logout(ctx context.Context) Result {
	m.data.ClearCurrentUser(ctx)
	return okMsg(nil, "logged out")
}

// Authenticate looks the user up by email and, unless insecureAuth is set,
// verifies the stored argon2id hash. Success records the current user.
func (m *Mock) Authenticate(ctx context.Context, email, password string) Result {
	u := m.data.GetUserByEmail(ctx, email)
	if u == nil {
		return fail("invalid email or password")
	}
	if !m.insecureAuth {
		match, err := cryptox.VerifyPassword(password, u.PasswordHash)
		if err != nil || !match {
			return fail("invalid email or password")
		}
	}
	m.data.SetCurrentUserID(ctx, u.ID)
	return ok(sanitized(*u))
}

func (m *Mock) CreateTransaction(ctx context.Context, tx models.Transaction) Result {
	return ok(m.data.CreateTransaction(ctx, tx))
}

func (m *Mock) GetTransactions(ctx context.Context, userID string) Result {
	return ok(m.data.ListTransactions(ctx, userID))
}

func (m *Mock) CreatePayout(ctx context.Context, p models.Payout) Result {
	return ok(m.data.CreatePayout(ctx, p))
}

func (m *Mock) GetPayouts(ctx context.Context, userID string) Result {
	return ok(m.data.ListPayouts(ctx, userID))
}

func (m *Mock) UpdatePayoutStatus(ctx context.Context, id, status string, completedAt *time.Time) Result {
	p := m.data.UpdatePayoutStatus(ctx, id, status, completedAt)
	if p == nil {
		return fail("payout not found")
	}
	return ok(*p)
}

// CreatePaymentLink derives the share URL from the reference; whatever the
// caller supplied is overwritten.
func (m *Mock) CreatePaymentLink(ctx context.Context, l models.PaymentLink) Result {
	l.ShareURL = m.shareBase + "/l/" + l.Reference
	return ok(m.data.CreatePaymentLink(ctx, l))
}

func (m *Mock) GetPaymentLinks(ctx context.Context, userID string) Result {
	return ok(m.data.ListPaymentLinks(ctx, userID))
}

func (m *Mock) UpdatePaymentLinkStatus(ctx context.Context, id, status string) Result {
	l := m.data.UpdatePaymentLinkStatus(ctx, id, status)
	if l == nil {
		return fail("payment link not found")
	}
	return ok(*l)
}

func (m *Mock) CreatePaymentRequest(ctx context.Context, r models.PaymentRequest) Result {
	return ok(m.data.CreatePaymentRequest(ctx, r))
}

func (m *Mock) GetPaymentRequests(ctx context.Context, userID string) Result {
	return ok(m.data.ListPaymentRequests(ctx, userID))
}

func (m *Mock) UpdatePaymentRequestStatus(ctx context.Context, id, status string) Result {
	r := m.data.UpdatePaymentRequestStatus(ctx, id, status)
	if r == nil {
		return fail("payment request not found")
	}
	return ok(*r)
}

func (m *Mock) GetDashboardStats(ctx context.Context, userID string) Result {
	return ok(m.data.Stats(ctx, userID))
}
