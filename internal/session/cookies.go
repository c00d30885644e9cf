package session

import (
	"net/http"
	"time"

	"github.com/creatorpay/core/internal/common"
)

// SetAuthCookies writes the three auth cookies for a fresh login: the
// site-wide session cookie, the API-scoped bearer token, and the CSRF
// token. All are httpOnly with strict same-site; Secure in production.
func (m *Manager) SetAuthCookies(w http.ResponseWriter, s *Session, csrfToken string) error {
	authToken, err := m.tokens.Generate(s.UserID, s.Email)
	if err != nil {
		return err
	}

	maxAge := int(time.Until(s.ExpiresAt).Seconds())

	http.SetCookie(w, m.cookie(common.SessionCookieName, s.ID, "/", maxAge))
	http.SetCookie(w, m.cookie(common.AuthTokenCookieName, authToken, common.APIPathPrefix, maxAge))
	http.SetCookie(w, m.cookie(common.CSRFCookieName, csrfToken, "/", maxAge))

	w.Header().Set("X-Session-ID", s.ID)
	return nil
}

// ClearAuthCookies expires all three cookies, e.g. on logout.
func (m *Manager) ClearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie(common.SessionCookieName, "", "/", -1))
	http.SetCookie(w, m.cookie(common.AuthTokenCookieName, "", common.APIPathPrefix, -1))
	http.SetCookie(w, m.cookie(common.CSRFCookieName, "", "/", -1))
}

func (m *Manager) cookie(name, value, path string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.production,
		SameSite: http.SameSiteStrictMode,
	}
}
