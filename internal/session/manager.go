// Package session implements server-tracked authentication sessions, login
// rate limiting, and cookie issuance. Session state lives in an injected
// kv.Store so production can back it with Postgres while tests use memory.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/creatorpay/core/internal/common"
	"github.com/creatorpay/core/internal/kv"
)

const (
	sessionKeyPrefix = "session:"

	// DefaultTTL applies to ordinary logins; RememberMeTTL to logins with
	// the remember-me flag. RefreshSession always extends by RefreshTTL
	// regardless of how the session was created.
	DefaultTTL    = 24 * time.Hour
	RememberMeTTL = 30 * 24 * time.Hour
	RefreshTTL    = 24 * time.Hour
)

// Session is exclusively owned by the manager; callers receive copies.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	ExpiresAt    time.Time `json:"expires_at"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
}

// Manager owns the session store and the login-attempt ledger.
type Manager struct {
	store      kv.Store
	tokens     *TokenManager
	production bool

	now func() time.Time
}

func NewManager(store kv.Store, tokens *TokenManager, production bool) *Manager {
	return &Manager{store: store, tokens: tokens, production: production, now: time.Now}
}

// sessionIDBytes sizes the random session ID; the hex form is twice as long.
const sessionIDBytes = 32

// CreateSession generates an opaque session ID and computes the expiry from
// the remember-me flag.
func (m *Manager) CreateSession(ctx context.Context, userID, email string, r *http.Request, rememberMe bool) (*Session, error) {
	ttl := DefaultTTL
	if rememberMe {
		ttl = RememberMeTTL
	}

	id, err := common.MakeRandHexString(sessionIDBytes)
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := Session{
		ID:           id,
		UserID:       userID,
		Email:        email,
		CreatedAt:    now,
		LastAccessed: now,
		ExpiresAt:    now.Add(ttl),
		IPAddress:    ClientIP(r),
		UserAgent:    r.UserAgent(),
	}
	if err := m.save(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ValidateSession checks existence and expiry and bumps LastAccessed.
// An expired session is deleted as a side effect. Returns
// common.ErrSessionNotFound or common.ErrSessionExpired on failure.
func (m *Manager) ValidateSession(ctx context.Context, sessionID string) (*Session, error) {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !m.now().Before(s.ExpiresAt) {
		_ = m.store.Delete(ctx, sessionKeyPrefix+sessionID)
		return nil, common.ErrSessionExpired
	}
	s.LastAccessed = m.now()
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// RefreshSession resets the expiry to now + RefreshTTL, a fixed duration
// regardless of the original remember-me setting, and bumps LastAccessed.
func (m *Manager) RefreshSession(ctx context.Context, sessionID string) (*Session, error) {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := m.now()
	s.ExpiresAt = now.Add(RefreshTTL)
	s.LastAccessed = now
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// DestroySession removes the session unconditionally. Idempotent.
func (m *Manager) DestroySession(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionKeyPrefix+sessionID)
}

// CleanupExpired sweeps expired sessions and returns how many were removed.
// Intended for a periodic schedule.
func (m *Manager) CleanupExpired(ctx context.Context) int {
	keys, err := m.store.List(ctx, sessionKeyPrefix)
	if err != nil {
		return 0
	}
	removed := 0
	now := m.now()
	for _, key := range keys {
		raw, err := m.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil || !now.Before(s.ExpiresAt) {
			_ = m.store.Delete(ctx, key)
			removed++
		}
	}
	return removed
}

func (m *Manager) load(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := m.store.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrSessionNotFound
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, common.ErrSessionNotFound
	}
	return &s, nil
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, sessionKeyPrefix+s.ID, raw)
}

// ClientIP extracts the originating address, preferring the first
// X-Forwarded-For hop over the socket peer.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
