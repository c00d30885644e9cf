package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/creatorpay/core/internal/logging"
	"github.com/google/uuid"
)

// DefaultMaxEvents caps the in-memory buffer; oldest events are dropped
// first once the cap is reached.
const DefaultMaxEvents = 10000

const (
	alertWindow        = time.Hour
	alertHighThreshold = 5
)

// Archiver receives events about to be discarded by Cleanup.
type Archiver interface {
	Archive(ctx context.Context, events []Event) error
}

// Logger is the process-wide security event log. All methods are safe for
// concurrent use.
type Logger struct {
	mu     sync.Mutex
	events []Event

	max        int
	log        logging.Logger
	webhookURL string
	client     *http.Client
	archiver   Archiver
	now        func() time.Time
}

type Option func(*Logger)

// WithMaxEvents overrides the buffer capacity.
func WithMaxEvents(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.max = n
		}
	}
}

// WithWebhook forwards every event to url, best-effort.
func WithWebhook(url string) Option {
	return func(l *Logger) { l.webhookURL = url }
}

// WithArchiver attaches a retention archive sink used by Cleanup.
func WithArchiver(a Archiver) Option {
	return func(l *Logger) { l.archiver = a }
}

func NewLogger(log logging.Logger, opts ...Option) *Logger {
	l := &Logger{
		max:    DefaultMaxEvents,
		log:    log.With("component", "audit"),
		client: &http.Client{Timeout: 5 * time.Second},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log assigns an ID and timestamp, appends the event (evicting the oldest
// at capacity), forwards it to the webhook, and evaluates alert thresholds.
// It never fails: forwarding errors are logged and swallowed.
func (l *Logger) Log(ctx context.Context, e Event) Event {
	e.ID = uuid.NewString()
	e.Timestamp = l.now()
	if e.Severity == "" {
		e.Severity = SeverityLow
	}

	l.mu.Lock()
	l.events = append(l.events, e)
	if len(l.events) > l.max {
		l.events = l.events[len(l.events)-l.max:]
	}
	alert := l.shouldAlertLocked(e)
	l.mu.Unlock()

	l.log.Info(ctx, "security event",
		"event_id", e.ID, "type", string(e.Type), "severity", string(e.Severity),
		"ip", e.Source.IP, "path", e.Target.Path)

	if l.webhookURL != "" {
		go l.forward(e)
	}
	if alert {
		l.log.Warn(ctx, "security alert threshold reached",
			"type", string(e.Type), "severity", string(e.Severity))
		if l.webhookURL != "" {
			go l.forward(Event{
				ID:        uuid.NewString(),
				Type:      e.Type,
				Timestamp: e.Timestamp,
				Severity:  SeverityCritical,
				Details:   Details{Message: "alert threshold reached"},
			})
		}
	}
	return e
}

// shouldAlertLocked implements the alert rule: any critical event, or five
// or more high-severity events within the trailing hour.
func (l *Logger) shouldAlertLocked(e Event) bool {
	if e.Severity == SeverityCritical {
		return true
	}
	if e.Severity != SeverityHigh {
		return false
	}
	cutoff := l.now().Add(-alertWindow)
	high := 0
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Timestamp.Before(cutoff) {
			break
		}
		if l.events[i].Severity == SeverityHigh {
			high++
		}
	}
	return high >= alertHighThreshold
}

func (l *Logger) forward(e Event) {
	body, err := json.Marshal(e)
	if err != nil {
		return
	}
	resp, err := l.client.Post(l.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		l.log.Warn(context.Background(), "webhook forward failed", "error", err.Error())
		return
	}
	resp.Body.Close()
}

// Filter narrows Query results. Zero values mean "no constraint".
type Filter struct {
	Type     EventType
	Severity Severity
	Source   string // substring match on IP or user agent
	Target   string // substring match on path
	Since    time.Time
	Limit    int
}

// Query returns matching events, newest first.
func (l *Logger) Query(f Filter) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Event, 0)
	for i := len(l.events) - 1; i >= 0; i-- {
		e := l.events[i]
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.Severity != "" && e.Severity != f.Severity {
			continue
		}
		if f.Source != "" && !strings.Contains(e.Source.IP, f.Source) && !strings.Contains(e.Source.UserAgent, f.Source) {
			continue
		}
		if f.Target != "" && !strings.Contains(e.Target.Path, f.Target) {
			continue
		}
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// GetByID returns the event with the given id, or nil.
func (l *Logger) GetByID(id string) *Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.events {
		if l.events[i].ID == id {
			e := l.events[i]
			return &e
		}
	}
	return nil
}

// Resolve flips the resolved flag on an event. Returns false if unknown.
func (l *Logger) Resolve(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.events {
		if l.events[i].ID == id {
			l.events[i].Resolved = true
			return true
		}
	}
	return false
}

// SourceCount pairs an IP with its event count.
type SourceCount struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

// Stats is the aggregate view over the buffer.
type Stats struct {
	Total      int               `json:"total"`
	ByType     map[EventType]int `json:"by_type"`
	BySeverity map[Severity]int  `json:"by_severity"`
	TopSources []SourceCount     `json:"top_sources"`
	Recent     []Event           `json:"recent_high_severity"`
}

// GetStats aggregates counts by type and severity, the top 10 source IPs
// within the window, and the 5 most recent high/critical events.
func (l *Logger) GetStats(window time.Duration) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := Stats{
		Total:      len(l.events),
		ByType:     make(map[EventType]int),
		BySeverity: make(map[Severity]int),
	}
	cutoff := l.now().Add(-window)
	ipCounts := make(map[string]int)

	for _, e := range l.events {
		stats.ByType[e.Type]++
		stats.BySeverity[e.Severity]++
		if e.Source.IP != "" && !e.Timestamp.Before(cutoff) {
			ipCounts[e.Source.IP]++
		}
	}

	for ip, n := range ipCounts {
		stats.TopSources = append(stats.TopSources, SourceCount{IP: ip, Count: n})
	}
	sort.Slice(stats.TopSources, func(i, j int) bool {
		if stats.TopSources[i].Count != stats.TopSources[j].Count {
			return stats.TopSources[i].Count > stats.TopSources[j].Count
		}
		return stats.TopSources[i].IP < stats.TopSources[j].IP
	})
	if len(stats.TopSources) > 10 {
		stats.TopSources = stats.TopSources[:10]
	}

	for i := len(l.events) - 1; i >= 0 && len(stats.Recent) < 5; i-- {
		if l.events[i].Severity == SeverityHigh || l.events[i].Severity == SeverityCritical {
			stats.Recent = append(stats.Recent, l.events[i])
		}
	}
	return stats
}

// Cleanup drops events older than daysToKeep, handing them to the archiver
// first when one is attached. Returns the number of events removed.
// Intended to run on a periodic schedule.
func (l *Logger) Cleanup(ctx context.Context, daysToKeep int) int {
	cutoff := l.now().AddDate(0, 0, -daysToKeep)

	l.mu.Lock()
	idx := 0
	for idx < len(l.events) && l.events[idx].Timestamp.Before(cutoff) {
		idx++
	}
	dropped := make([]Event, idx)
	copy(dropped, l.events[:idx])
	l.events = l.events[idx:]
	l.mu.Unlock()

	if len(dropped) > 0 && l.archiver != nil {
		if err := l.archiver.Archive(ctx, dropped); err != nil {
			l.log.Warn(ctx, "event archive failed", "error", err.Error(), "count", len(dropped))
		}
	}
	return len(dropped)
}
