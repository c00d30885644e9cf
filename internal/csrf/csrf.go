// Package csrf issues and validates per-session CSRF tokens. One token is
// active per session; regenerating replaces the previous one.
package csrf

import (
	"bytes"
	"context"
	"crypto/hmac"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/creatorpay/core/internal/common"
	"github.com/creatorpay/core/internal/cryptox"
	"github.com/creatorpay/core/internal/kv"
)

const (
	keyPrefix  = "csrf:"
	DefaultTTL = 24 * time.Hour

	maxBodyPeek = 1 << 20
)

// Validation failure reasons, reported for audit logging.
const (
	ReasonNoToken     = "no token issued for session"
	ReasonMissing     = "missing csrf token"
	ReasonExpired     = "csrf token expired"
	ReasonMismatch    = "csrf token mismatch"
	ReasonStoreFailed = "csrf token store unavailable"
)

type entry struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Protection owns the per-session token store. Construct one per process
// and share it between the middleware and the handlers that render tokens.
type Protection struct {
	store      kv.Store
	ttl        time.Duration
	production bool

	now func() time.Time
}

func New(store kv.Store, production bool) *Protection {
	return &Protection{store: store, ttl: DefaultTTL, production: production, now: time.Now}
}

// GenerateToken mints a fresh token for the session, replacing any previous
// one, and sweeps expired entries for every session as a side effect.
func (p *Protection) GenerateToken(ctx context.Context, sessionID string) (string, error) {
	p.purgeExpired(ctx)

	token, err := cryptox.GenerateToken(32)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(entry{Token: token, ExpiresAt: p.now().Add(p.ttl)})
	if err != nil {
		return "", err
	}
	if err := p.store.Set(ctx, keyPrefix+sessionID, raw); err != nil {
		return "", err
	}
	return token, nil
}

// GetOrCreateToken returns the session's current token, minting one lazily
// if none exists or the stored one has expired.
func (p *Protection) GetOrCreateToken(ctx context.Context, sessionID string) (string, error) {
	e, err := p.load(ctx, sessionID)
	if err == nil && p.now().Before(e.ExpiresAt) {
		return e.Token, nil
	}
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return "", err
	}
	return p.GenerateToken(ctx, sessionID)
}

// Validate checks the request's CSRF token against the session's stored one.
// Safe methods always pass. Returns ok plus a failure reason for logging.
func (p *Protection) Validate(ctx context.Context, r *http.Request, sessionID string) (bool, string) {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true, ""
	}

	// Development convenience only: a same-origin request passes without a
	// token. Never applies in production.
	if !p.production && sameOrigin(r) {
		return true, ""
	}

	e, err := p.load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, ReasonNoToken
		}
		return false, ReasonStoreFailed
	}
	if !p.now().Before(e.ExpiresAt) {
		_ = p.store.Delete(ctx, keyPrefix+sessionID)
		return false, ReasonExpired
	}

	supplied := TokenFromRequest(r)
	if supplied == "" {
		return false, ReasonMissing
	}
	if !hmac.Equal([]byte(supplied), []byte(e.Token)) {
		return false, ReasonMismatch
	}
	return true, ""
}

// Destroy removes the session's token, e.g. on logout.
func (p *Protection) Destroy(ctx context.Context, sessionID string) {
	_ = p.store.Delete(ctx, keyPrefix+sessionID)
}

func (p *Protection) load(ctx context.Context, sessionID string) (entry, error) {
	raw, err := p.store.Get(ctx, keyPrefix+sessionID)
	if err != nil {
		return entry{}, err
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return entry{}, common.ErrNotFound
	}
	return e, nil
}

func (p *Protection) purgeExpired(ctx context.Context) {
	keys, err := p.store.List(ctx, keyPrefix)
	if err != nil {
		return
	}
	now := p.now()
	for _, key := range keys {
		raw, err := p.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil || !now.Before(e.ExpiresAt) {
			_ = p.store.Delete(ctx, key)
		}
	}
}

// TokenFromRequest extracts the supplied token: the x-csrf-token header is
// preferred; for JSON bodies the _csrf field is accepted as a fallback. The
// body is restored so downstream handlers can still read it.
func TokenFromRequest(r *http.Request) string {
	if token := r.Header.Get(common.CSRFHeaderName); token != "" {
		return token
	}

	ct := r.Header.Get("Content-Type")
	if !strings.Contains(ct, "application/json") || r.Body == nil {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyPeek))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if token, ok := body[common.CSRFFieldName].(string); ok {
		return token
	}
	return ""
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
