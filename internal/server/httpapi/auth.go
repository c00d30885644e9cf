package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/creatorpay/core/internal/audit"
	"github.com/creatorpay/core/internal/cryptox"
	"github.com/creatorpay/core/internal/models"
	"github.com/creatorpay/core/internal/provider"
	"github.com/creatorpay/core/internal/sanitize"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Tagline  string `json:"tagline"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || !sanitize.ValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "username and a valid email are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	res := a.providers.CreateUser(r.Context(), models.User{
		Username:     req.Username,
		Email:        req.Email,
		Tagline:      sanitize.EscapeHTML(req.Tagline),
		PasswordHash: hash,
	})
	writeResult(w, res, http.StatusCreated, http.StatusConflict)
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	limit := a.sessions.CheckLoginRateLimit(r.Context(), req.Email)
	if !limit.Allowed {
		a.audit.Log(r.Context(), audit.Event{
			Type:     audit.EventRateLimitExceeded,
			Severity: audit.SeverityHigh,
			Source:   a.source(r, "", ""),
			Target:   target(r),
			Details:  audit.Details{Message: "login rate limit exceeded", Data: map[string]any{"identifier": req.Email}},
			Response: &audit.Response{StatusCode: http.StatusTooManyRequests, Action: "blocked"},
		})
		writeJSON(w, http.StatusTooManyRequests, provider.Result{
			Success: false,
			Error:   "too many failed attempts",
			Data:    map[string]any{"blocked_until": limit.BlockedUntil},
		})
		return
	}

	res := a.providers.Authenticate(r.Context(), req.Email, req.Password)
	if !res.Success {
		a.sessions.RecordFailedLogin(r.Context(), req.Email)
		a.audit.Log(r.Context(), audit.Event{
			Type:     audit.EventLoginFailure,
			Severity: audit.SeverityMedium,
			Source:   a.source(r, "", ""),
			Target:   target(r),
			Details:  audit.Details{Message: "authentication failed", Data: map[string]any{"identifier": req.Email}},
		})
		writeResult(w, res, http.StatusOK, http.StatusUnauthorized)
		return
	}
	a.sessions.ResetLoginAttempts(r.Context(), req.Email)

	user, _ := res.Data.(models.User)
	s, err := a.sessions.CreateSession(r.Context(), user.ID, user.Email, r, req.RememberMe)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	token, err := a.csrf.GetOrCreateToken(r.Context(), s.ID)
	if err != nil {
		a.log.Error(r.Context(), "csrf token issue failed", "error", err.Error())
	}
	if err := a.sessions.SetAuthCookies(w, s, token); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue auth cookies")
		return
	}

	a.audit.Log(r.Context(), audit.Event{
		Type:     audit.EventLoginSuccess,
		Severity: audit.SeverityLow,
		Source:   a.source(r, s.ID, user.ID),
		Target:   target(r),
		Details:  audit.Details{Message: "login successful"},
	})
	writeJSON(w, http.StatusOK, provider.Result{
		Success: true,
		Data:    map[string]any{"user": user, "csrf_token": token},
		Message: "login successful",
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	_ = a.sessions.DestroySession(r.Context(), s.ID)
	a.csrf.Destroy(r.Context(), s.ID)
	a.providers.Logout(r.Context())
	a.sessions.ClearAuthCookies(w)

	a.audit.Log(r.Context(), audit.Event{
		Type:     audit.EventLogout,
		Severity: audit.SeverityLow,
		Source:   a.source(r, s.ID, s.UserID),
		Target:   target(r),
		Details:  audit.Details{Message: "logout"},
	})
	writeJSON(w, http.StatusOK, provider.Result{Success: true, Message: "logged out"})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	refreshed, err := a.sessions.RefreshSession(r.Context(), s.ID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Session not found")
		return
	}
	token, _ := a.csrf.GetOrCreateToken(r.Context(), refreshed.ID)
	if err := a.sessions.SetAuthCookies(w, refreshed, token); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue auth cookies")
		return
	}
	writeJSON(w, http.StatusOK, provider.Result{
		Success: true,
		Data:    map[string]any{"expires_at": refreshed.ExpiresAt},
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	res := a.providers.GetUserByEmail(r.Context(), s.Email)
	writeResult(w, res, http.StatusOK, http.StatusNotFound)
}

// handleCSRFToken returns the session's current token so single-page
// clients can attach it to subsequent requests.
func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	token, err := a.csrf.GetOrCreateToken(r.Context(), s.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue csrf token")
		return
	}
	writeJSON(w, http.StatusOK, provider.Result{Success: true, Data: map[string]string{"csrf_token": token}})
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	var update provider.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if update.Email != nil && !sanitize.ValidEmail(*update.Email) {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	res := a.providers.UpdateUser(r.Context(), s.UserID, update)
	writeResult(w, res, http.StatusOK, http.StatusNotFound)
}
