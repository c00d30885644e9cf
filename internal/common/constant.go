package common

// Cookie names shared by the session manager and the HTTP middleware.
const (
	SessionCookieName   = "session-id"
	AuthTokenCookieName = "auth-token"
	CSRFCookieName      = "csrf-token"
)

// CSRFHeaderName carries the CSRF token on state-changing requests.
// CSRFFieldName is the fallback body field for non-form-encoded submissions.
const (
	CSRFHeaderName = "x-csrf-token"
	CSRFFieldName  = "_csrf"
)

// APIPathPrefix scopes the auth-token cookie; the session cookie is site-wide.
const APIPathPrefix = "/api"
