// Package audit implements the security event log: a capped in-memory
// buffer with query, statistics, alerting, and retention surfaces.
package audit

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// EventType is the closed set of recordable security occurrences.
type EventType string

const (
	EventLoginSuccess       EventType = "login_success"
	EventLoginFailure       EventType = "login_failure"
	EventLogout             EventType = "logout"
	EventRateLimitExceeded  EventType = "rate_limit_exceeded"
	EventSessionExpired     EventType = "session_expired"
	EventCSRFViolation      EventType = "csrf_violation"
	EventUnauthorizedAccess EventType = "unauthorized_access"
	EventSuspiciousInput    EventType = "suspicious_input"
	EventProviderFallback   EventType = "provider_fallback"
	EventConfigChange       EventType = "config_change"
)

// Source identifies where a request came from.
type Source struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// Target identifies what the request touched.
type Target struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

// Details carries the human-readable message plus structured extras.
type Details struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Risk scores the event and names the contributing factors.
type Risk struct {
	Score   int      `json:"score"`
	Factors []string `json:"factors,omitempty"`
}

// Response records what the server did about the event, when anything.
type Response struct {
	StatusCode int    `json:"status_code"`
	Action     string `json:"action,omitempty"`
}

// Event is an append-only audit record. After creation only the Resolved
// flag may change; ring eviction is the sole removal path besides Cleanup.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Severity  Severity  `json:"severity"`
	Source    Source    `json:"source"`
	Target    Target    `json:"target"`
	Details   Details   `json:"details"`
	Risk      Risk      `json:"risk"`
	Resolved  bool      `json:"resolved"`
	Response  *Response `json:"response,omitempty"`
}
