package session

import (
	"context"
	"encoding/json"
	"time"
)

const (
	attemptKeyPrefix = "login-attempt:"

	MaxLoginAttempts = 5
	BlockDuration    = 15 * time.Minute
)

type attemptRecord struct {
	Attempts     int        `json:"attempts"`
	LastAttempt  time.Time  `json:"last_attempt"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
}

// RateLimitResult reports whether a login attempt may proceed.
type RateLimitResult struct {
	Allowed      bool
	Remaining    int
	BlockedUntil *time.Time
}

// CheckLoginRateLimit evaluates the attempt ledger for an identifier
// (email or IP). Callers check before attempting auth, then call
// RecordFailedLogin or ResetLoginAttempts afterwards, in that order.
func (m *Manager) CheckLoginRateLimit(ctx context.Context, identifier string) RateLimitResult {
	rec, ok := m.loadAttempts(ctx, identifier)
	if !ok {
		return RateLimitResult{Allowed: true, Remaining: MaxLoginAttempts}
	}

	now := m.now()
	if rec.BlockedUntil != nil {
		if now.Before(*rec.BlockedUntil) {
			return RateLimitResult{Allowed: false, BlockedUntil: rec.BlockedUntil}
		}
		// Block window elapsed; the record resets to zero.
		_ = m.store.Delete(ctx, attemptKeyPrefix+identifier)
		return RateLimitResult{Allowed: true, Remaining: MaxLoginAttempts}
	}

	if rec.Attempts >= MaxLoginAttempts {
		until := now.Add(BlockDuration)
		rec.BlockedUntil = &until
		m.saveAttempts(ctx, identifier, rec)
		return RateLimitResult{Allowed: false, BlockedUntil: &until}
	}

	return RateLimitResult{Allowed: true, Remaining: MaxLoginAttempts - rec.Attempts}
}

// RecordFailedLogin increments the identifier's failure counter.
func (m *Manager) RecordFailedLogin(ctx context.Context, identifier string) {
	rec, _ := m.loadAttempts(ctx, identifier)
	rec.Attempts++
	rec.LastAttempt = m.now()
	m.saveAttempts(ctx, identifier, rec)
}

// ResetLoginAttempts clears the ledger entry on successful authentication.
func (m *Manager) ResetLoginAttempts(ctx context.Context, identifier string) {
	_ = m.store.Delete(ctx, attemptKeyPrefix+identifier)
}

func (m *Manager) loadAttempts(ctx context.Context, identifier string) (attemptRecord, bool) {
	raw, err := m.store.Get(ctx, attemptKeyPrefix+identifier)
	if err != nil {
		return attemptRecord{}, false
	}
	var rec attemptRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return attemptRecord{}, false
	}
	return rec, true
}

func (m *Manager) saveAttempts(ctx context.Context, identifier string, rec attemptRecord) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_ = m.store.Set(ctx, attemptKeyPrefix+identifier, raw)
}
