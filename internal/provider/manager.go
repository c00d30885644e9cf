package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/creatorpay/core/internal/audit"
	"github.com/creatorpay/core/internal/datastore"
	"github.com/creatorpay/core/internal/logging"
	"github.com/creatorpay/core/internal/models"
)

// Provider names accepted in Settings.Provider. Anything else selects mock.
const (
	ProviderMock     = "mock"
	ProviderLocal    = "localStorage"
	ProviderSupabase = "supabase"
	ProviderCustom   = "custom"
)

// Settings is the provider configuration in effect. The configured provider
// name is preserved even when initialization falls back to mock.
type Settings struct {
	Enabled          bool
	Provider         string
	SupabaseURL      string
	SupabaseAnonKey  string
	CustomBaseURL    string
	CustomAPIKey     string
	ShareURLBase     string
	InsecureMockAuth bool
}

// Overrides is a partial Settings; nil fields keep their current value.
type Overrides struct {
	Enabled          *bool
	Provider         *string
	SupabaseURL      *string
	SupabaseAnonKey  *string
	CustomBaseURL    *string
	CustomAPIKey     *string
	ShareURLBase     *string
	InsecureMockAuth *bool
}

// Manager owns exactly one active provider at a time and exposes one stable
// surface regardless of backend. Misconfiguration never produces an error
// from the manager; it logs a warning, records a fallback event, and serves
// the mock provider instead.
type Manager struct {
	data  *datastore.Store
	log   logging.Logger
	audit *audit.Logger

	mu       sync.RWMutex
	settings Settings
	active   Provider
}

// Option configures optional manager collaborators.
type Option func(*Manager)

// WithAudit records provider fallbacks and reconfigurations as security
// events.
func WithAudit(a *audit.Logger) Option {
	return func(m *Manager) { m.audit = a }
}

func NewManager(data *datastore.Store, log logging.Logger, settings Settings, opts ...Option) *Manager {
	m := &Manager{data: data, log: log, settings: settings}
	for _, opt := range opts {
		opt(m)
	}
	m.mu.Lock()
	m.rebuildLocked(context.Background())
	m.mu.Unlock()
	return m
}

// Configure merges the overrides into the current settings and re-initializes
// the active provider. In-flight calls against the previous provider are
// unaffected. Configure never returns an error or panics.
func (m *Manager) Configure(ctx context.Context, o Overrides) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.Enabled != nil {
		m.settings.Enabled = *o.Enabled
	}
	if o.Provider != nil {
		m.settings.Provider = *o.Provider
	}
	if o.SupabaseURL != nil {
		m.settings.SupabaseURL = *o.SupabaseURL
	}
	if o.SupabaseAnonKey != nil {
		m.settings.SupabaseAnonKey = *o.SupabaseAnonKey
	}
	if o.CustomBaseURL != nil {
		m.settings.CustomBaseURL = *o.CustomBaseURL
	}
	if o.CustomAPIKey != nil {
		m.settings.CustomAPIKey = *o.CustomAPIKey
	}
	if o.ShareURLBase != nil {
		m.settings.ShareURLBase = *o.ShareURLBase
	}
	if o.InsecureMockAuth != nil {
		m.settings.InsecureMockAuth = *o.InsecureMockAuth
	}

	m.rebuildLocked(ctx)

	if m.audit != nil {
		m.audit.Log(ctx, audit.Event{
			Type:     audit.EventConfigChange,
			Severity: audit.SeverityLow,
			Details:  audit.Details{Message: "provider configuration changed", Data: map[string]any{"provider": m.settings.Provider, "enabled": m.settings.Enabled}},
		})
	}
}

func (m *Manager) rebuildLocked(ctx context.Context) {
	mock := NewMock(m.data, m.settings.ShareURLBase, m.settings.InsecureMockAuth)

	if !m.settings.Enabled {
		m.active = mock
		return
	}

	switch strings.ToLower(m.settings.Provider) {
	case ProviderSupabase:
		if m.settings.SupabaseURL == "" || m.settings.SupabaseAnonKey == "" {
			m.fallback(ctx, "supabase url or anon key missing")
			m.active = mock
			return
		}
		p, err := NewSupabase(m.settings.SupabaseURL, m.settings.SupabaseAnonKey)
		if err != nil {
			m.fallback(ctx, err.Error())
			m.active = mock
			return
		}
		m.active = p
	case ProviderCustom:
		if m.settings.CustomBaseURL == "" || m.settings.CustomAPIKey == "" {
			m.fallback(ctx, "custom base url or api key missing")
			m.active = mock
			return
		}
		p, err := NewCustom(m.settings.CustomBaseURL, m.settings.CustomAPIKey)
		if err != nil {
			m.fallback(ctx, err.Error())
			m.active = mock
			return
		}
		m.active = p
	default:
		m.active = mock
	}
}

func (m *Manager) fallback(ctx context.Context, reason string) {
	m.log.Warn(ctx, "provider misconfigured, falling back to mock",
		"provider", m.settings.Provider, "reason", reason)
	if m.audit != nil {
		m.audit.Log(ctx, audit.Event{
			Type:     audit.EventProviderFallback,
			Severity: audit.SeverityMedium,
			Details:  audit.Details{Message: reason, Data: map[string]any{"provider": m.settings.Provider}},
		})
	}
}

// API returns the currently active provider.
func (m *Manager) API() Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// CurrentProvider reports the configured provider name, which is preserved
// even when the manager has fallen back to mock.
func (m *Manager) CurrentProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings.Provider == "" {
		return ProviderMock
	}
	return m.settings.Provider
}

// Convenience delegation. No manager-side business logic or validation.

func (m *Manager) CreateUser(ctx context.Context, user models.User) Result {
	return m.API().CreateUser(ctx, user)
}

func (m *Manager) GetUserByEmail(ctx context.Context, email string) Result {
	return m.API().GetUserByEmail(ctx, email)
}

func (m *Manager) GetUserByUsername(ctx context.Context, username string) Result {
	return m.API().GetUserByUsername(ctx, username)
}

func (m *Manager) UpdateUser(ctx context.Context, id string, update UserUpdate) Result {
	return m.API().UpdateUser(ctx, id, update)
}

func (m *Manager) SetCurrentUser(ctx context.Context, id string) Result {
	return m.API().SetCurrentUser(ctx, id)
}

func (m *Manager) GetCurrentUser(ctx context.Context) Result {
	return m.API().GetCurrentUser(ctx)
}

func (m *Manager) Logout(ctx context.Context) Result {
	return m.API().Logout(ctx)
}

func (m *Manager) Authenticate(ctx context.Context, email, password string) Result {
	return m.API().Authenticate(ctx, email, password)
}

func (m *Manager) CreateTransaction(ctx context.Context, tx models.Transaction) Result {
	return m.API().CreateTransaction(ctx, tx)
}

func (m *Manager) GetTransactions(ctx context.Context, userID string) Result {
	return m.API().GetTransactions(ctx, userID)
}

func (m *Manager) CreatePayout(ctx context.Context, p models.Payout) Result {
	return m.API().CreatePayout(ctx, p)
}

func (m *Manager) GetPayouts(ctx context.Context, userID string) Result {
	return m.API().GetPayouts(ctx, userID)
}

func (m *Manager) UpdatePayoutStatus(ctx context.Context, id, status string, completedAt *time.Time) Result {
	return m.API().UpdatePayoutStatus(ctx, id, status, completedAt)
}

func (m *Manager) CreatePaymentLink(ctx context.Context, l models.PaymentLink) Result {
	return m.API().CreatePaymentLink(ctx, l)
}

func (m *Manager) GetPaymentLinks(ctx context.Context, userID string) Result {
	return m.API().GetPaymentLinks(ctx, userID)
}

func (m *Manager) UpdatePaymentLinkStatus(ctx context.Context, id, status string) Result {
	return m.API().UpdatePaymentLinkStatus(ctx, id, status)
}

func (m *Manager) CreatePaymentRequest(ctx context.Context, r models.PaymentRequest) Result {
	return m.API().CreatePaymentRequest(ctx, r)
}

func (m *Manager) GetPaymentRequests(ctx context.Context, userID string) Result {
	return m.API().GetPaymentRequests(ctx, userID)
}

func (m *Manager) UpdatePaymentRequestStatus(ctx context.Context, id, status string) Result {
	return m.API().UpdatePaymentRequestStatus(ctx, id, status)
}

func (m *Manager) GetDashboardStats(ctx context.Context, userID string) Result {
	return m.API().GetDashboardStats(ctx, userID)
}
