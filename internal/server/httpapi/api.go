// Package httpapi exposes the dashboard's REST surface: authentication,
// payment collections, dashboard stats, provider configuration, and the
// security event log. Handlers delegate all business behavior to the
// provider manager; this layer owns HTTP concerns only.
package httpapi

import (
	"net/http"

	"github.com/creatorpay/core/internal/audit"
	"github.com/creatorpay/core/internal/csrf"
	"github.com/creatorpay/core/internal/logging"
	"github.com/creatorpay/core/internal/provider"
	"github.com/creatorpay/core/internal/session"
	"github.com/gorilla/mux"
)

// API wires handlers to their collaborators.
type API struct {
	providers *provider.Manager
	sessions  *session.Manager
	csrf      *csrf.Protection
	audit     *audit.Logger
	log       logging.Logger
}

func New(providers *provider.Manager, sessions *session.Manager, protection *csrf.Protection, auditLog *audit.Logger, log logging.Logger) *API {
	return &API{
		providers: providers,
		sessions:  sessions,
		csrf:      protection,
		audit:     auditLog,
		log:       log.With("component", "httpapi"),
	}
}

// Router builds the route table. Auth routes carry no-cache headers; every
// state-changing route under /api sits behind session auth and CSRF checks.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.requestID)

	r.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)

	authRoutes := r.PathPrefix("/api/auth").Subrouter()
	authRoutes.Use(mux.MiddlewareFunc(noCache))
	authRoutes.HandleFunc("/register", a.handleRegister).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", a.handleLogin).Methods(http.MethodPost)

	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(mux.MiddlewareFunc(a.requireAuth), mux.MiddlewareFunc(a.csrfProtect))

	authed.HandleFunc("/auth/logout", a.handleLogout).Methods(http.MethodPost)
	authed.HandleFunc("/auth/refresh", a.handleRefresh).Methods(http.MethodPost)
	authed.HandleFunc("/auth/me", a.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/auth/csrf", a.handleCSRFToken).Methods(http.MethodGet)
	authed.HandleFunc("/users/me", a.handleUpdateProfile).Methods(http.MethodPatch)

	authed.HandleFunc("/transactions", a.handleListTransactions).Methods(http.MethodGet)
	authed.HandleFunc("/transactions", a.handleCreateTransaction).Methods(http.MethodPost)

	authed.HandleFunc("/payouts", a.handleListPayouts).Methods(http.MethodGet)
	authed.HandleFunc("/payouts", a.handleCreatePayout).Methods(http.MethodPost)
	authed.HandleFunc("/payouts/{id}/status", a.handleUpdatePayoutStatus).Methods(http.MethodPatch)

	authed.HandleFunc("/payment-links", a.handleListPaymentLinks).Methods(http.MethodGet)
	authed.HandleFunc("/payment-links", a.handleCreatePaymentLink).Methods(http.MethodPost)
	authed.HandleFunc("/payment-links/{id}/status", a.handleUpdatePaymentLinkStatus).Methods(http.MethodPatch)

	authed.HandleFunc("/payment-requests", a.handleListPaymentRequests).Methods(http.MethodGet)
	authed.HandleFunc("/payment-requests", a.handleCreatePaymentRequest).Methods(http.MethodPost)
	authed.HandleFunc("/payment-requests/{id}/status", a.handleUpdatePaymentRequestStatus).Methods(http.MethodPatch)

	authed.HandleFunc("/dashboard/stats", a.handleDashboardStats).Methods(http.MethodGet)

	authed.HandleFunc("/provider", a.handleGetProvider).Methods(http.MethodGet)
	authed.HandleFunc("/provider", a.handleConfigureProvider).Methods(http.MethodPost)

	authed.HandleFunc("/security/events", a.handleSecurityEvents).Methods(http.MethodGet)
	authed.HandleFunc("/security/events/{id}/resolve", a.handleResolveEvent).Methods(http.MethodPost)
	authed.HandleFunc("/security/stats", a.handleSecurityStats).Methods(http.MethodGet)

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
