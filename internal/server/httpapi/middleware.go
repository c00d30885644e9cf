package httpapi

import (
	"context"
	"net/http"

	"github.com/creatorpay/core/internal/audit"
	"github.com/creatorpay/core/internal/common"
	"github.com/creatorpay/core/internal/session"
	"github.com/google/uuid"
)

type contextKey string

const sessionContextKey contextKey = "session"

// sessionFromContext returns the authenticated session set by requireAuth.
func sessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionContextKey).(*session.Session)
	return s
}

// requestID tags every request and response with an X-Request-ID.
func (a *API) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// noCache disables response caching. Applied to authentication routes so
// proxies never replay a login response.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

// requireAuth validates the session cookie and stashes the session in the
// request context. Missing or invalid sessions get a 401 and an audit event.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(common.SessionCookieName)
		if err != nil || cookie.Value == "" {
			a.rejectUnauthorized(w, r, "", "missing session cookie")
			return
		}

		s, err := a.sessions.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			switch err {
			case common.ErrSessionExpired:
				a.audit.Log(r.Context(), audit.Event{
					Type:     audit.EventSessionExpired,
					Severity: audit.SeverityLow,
					Source:   a.source(r, cookie.Value, ""),
					Target:   target(r),
					Details:  audit.Details{Message: "session has expired"},
				})
				writeError(w, http.StatusUnauthorized, "Session has expired")
			default:
				a.rejectUnauthorized(w, r, cookie.Value, "session not found")
			}
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) rejectUnauthorized(w http.ResponseWriter, r *http.Request, sessionID, msg string) {
	a.audit.Log(r.Context(), audit.Event{
		Type:     audit.EventUnauthorizedAccess,
		Severity: audit.SeverityMedium,
		Source:   a.source(r, sessionID, ""),
		Target:   target(r),
		Details:  audit.Details{Message: msg},
		Response: &audit.Response{StatusCode: http.StatusUnauthorized, Action: "rejected"},
	})
	writeError(w, http.StatusUnauthorized, "Session not found")
}

// csrfProtect validates the CSRF token on state-changing requests. Runs
// after requireAuth so the session is available.
func (a *API) csrfProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := sessionFromContext(r.Context())
		sessionID := ""
		if s != nil {
			sessionID = s.ID
		}

		okTok, reason := a.csrf.Validate(r.Context(), r, sessionID)
		if !okTok {
			w.Header().Set("X-CSRF-Error", reason)
			a.audit.Log(r.Context(), audit.Event{
				Type:     audit.EventCSRFViolation,
				Severity: audit.SeverityHigh,
				Source:   a.source(r, sessionID, userID(s)),
				Target:   target(r),
				Details:  audit.Details{Message: reason},
				Response: &audit.Response{StatusCode: http.StatusForbidden, Action: "rejected"},
			})
			writeError(w, http.StatusForbidden, "CSRF validation failed: "+reason)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) source(r *http.Request, sessionID, userID string) audit.Source {
	return audit.Source{
		IP:        session.ClientIP(r),
		UserAgent: r.UserAgent(),
		SessionID: sessionID,
		UserID:    userID,
	}
}

func target(r *http.Request) audit.Target {
	return audit.Target{Path: r.URL.Path, Method: r.Method}
}

func userID(s *session.Session) string {
	if s == nil {
		return ""
	}
	return s.UserID
}
