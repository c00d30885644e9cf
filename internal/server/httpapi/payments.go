package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/creatorpay/core/internal/models"
	"github.com/creatorpay/core/internal/sanitize"
	"github.com/gorilla/mux"
)

// scopedUserID resolves the user scope for list endpoints: the session user
// unless an explicit user_id query parameter is given.
func scopedUserID(r *http.Request) string {
	if id := r.URL.Query().Get("user_id"); id != "" {
		return id
	}
	s := sessionFromContext(r.Context())
	if s == nil {
		return ""
	}
	return s.UserID
}

type statusUpdateRequest struct {
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// --- transactions ---

func (a *API) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeResult(w, a.providers.GetTransactions(r.Context(), scopedUserID(r)), http.StatusOK, http.StatusBadRequest)
}

func (a *API) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	var tx models.Transaction
	if !decodeBody(w, r, &tx) {
		return
	}
	if tx.Amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must be non-negative")
		return
	}
	tx.UserID = s.UserID
	writeResult(w, a.providers.CreateTransaction(r.Context(), tx), http.StatusCreated, http.StatusBadRequest)
}

// --- payouts ---

func (a *API) handleListPayouts(w http.ResponseWriter, r *http.Request) {
	writeResult(w, a.providers.GetPayouts(r.Context(), scopedUserID(r)), http.StatusOK, http.StatusBadRequest)
}

func (a *API) handleCreatePayout(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	var p models.Payout
	if !decodeBody(w, r, &p) {
		return
	}
	if p.Amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must be non-negative")
		return
	}
	p.UserID = s.UserID
	writeResult(w, a.providers.CreatePayout(r.Context(), p), http.StatusCreated, http.StatusBadRequest)
}

// handleUpdatePayoutStatus stamps CompletedAt when the transition is to
// completed and the caller did not supply a timestamp; the store itself
// never auto-stamps it.
func (a *API) handleUpdatePayoutStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	switch req.Status {
	case models.StatusPending, models.PayoutProcessing, models.StatusCompleted, models.StatusFailed:
	default:
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.Status == models.StatusCompleted && req.CompletedAt == nil {
		now := time.Now()
		req.CompletedAt = &now
	}
	id := mux.Vars(r)["id"]
	writeResult(w, a.providers.UpdatePayoutStatus(r.Context(), id, req.Status, req.CompletedAt), http.StatusOK, http.StatusNotFound)
}

// --- payment links ---

func (a *API) handleListPaymentLinks(w http.ResponseWriter, r *http.Request) {
	writeResult(w, a.providers.GetPaymentLinks(r.Context(), scopedUserID(r)), http.StatusOK, http.StatusBadRequest)
}

func (a *API) handleCreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	var l models.PaymentLink
	if !decodeBody(w, r, &l) {
		return
	}
	if l.Reference == "" {
		writeError(w, http.StatusBadRequest, "reference is required")
		return
	}
	if l.StartDate != nil && l.ExpiryDate != nil && !l.StartDate.Before(*l.ExpiryDate) {
		writeError(w, http.StatusBadRequest, "start date must precede expiry date")
		return
	}
	if l.CustomerRedirectURL != "" && !sanitize.ValidRedirectURL(l.CustomerRedirectURL) {
		writeError(w, http.StatusBadRequest, "invalid redirect URL")
		return
	}
	if l.CustomerFailRedirectURL != "" && !sanitize.ValidRedirectURL(l.CustomerFailRedirectURL) {
		writeError(w, http.StatusBadRequest, "invalid redirect URL")
		return
	}
	l.UserID = s.UserID
	writeResult(w, a.providers.CreatePaymentLink(r.Context(), l), http.StatusCreated, http.StatusBadRequest)
}

func (a *API) handleUpdatePaymentLinkStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status != models.LinkActive && req.Status != models.LinkInactive {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	id := mux.Vars(r)["id"]
	writeResult(w, a.providers.UpdatePaymentLinkStatus(r.Context(), id, req.Status), http.StatusOK, http.StatusNotFound)
}

// --- payment requests ---

func (a *API) handleListPaymentRequests(w http.ResponseWriter, r *http.Request) {
	writeResult(w, a.providers.GetPaymentRequests(r.Context(), scopedUserID(r)), http.StatusOK, http.StatusBadRequest)
}

func (a *API) handleCreatePaymentRequest(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	var pr models.PaymentRequest
	if !decodeBody(w, r, &pr) {
		return
	}
	if !sanitize.ValidEmail(pr.RecipientEmail) {
		writeError(w, http.StatusBadRequest, "valid recipient email is required")
		return
	}
	if pr.Amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must be non-negative")
		return
	}
	pr.UserID = s.UserID
	writeResult(w, a.providers.CreatePaymentRequest(r.Context(), pr), http.StatusCreated, http.StatusBadRequest)
}

func (a *API) handleUpdatePaymentRequestStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	switch req.Status {
	case models.RequestPending, models.RequestAccepted, models.RequestRejected:
	default:
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	id := mux.Vars(r)["id"]
	writeResult(w, a.providers.UpdatePaymentRequestStatus(r.Context(), id, req.Status), http.StatusOK, http.StatusNotFound)
}

// --- dashboard ---

func (a *API) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	writeResult(w, a.providers.GetDashboardStats(r.Context(), s.UserID), http.StatusOK, http.StatusBadRequest)
}
