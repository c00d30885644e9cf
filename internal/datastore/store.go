// Package datastore implements the mock backend's persistence: five JSON
// collections plus a counter table layered over a kv.Store. Every
// read-modify-write runs under one mutex, so per-table ID assignment and
// whole-list replacement stay atomic within the process. Conflicts between
// separate processes sharing one backend resolve last-write-wins.
package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/creatorpay/core/internal/kv"
	"github.com/creatorpay/core/internal/models"
)

// Storage keys. The layout matches the dashboard's client-side store: one
// key per collection, one counter document, one current-user pointer.
const (
	keyUsers           = "users"
	keyTransactions    = "transactions"
	keyPayouts         = "payouts"
	keyPaymentLinks    = "paymentLinks"
	keyPaymentRequests = "paymentRequests"
	keyCounters        = "counters"
	keyCurrentUser     = "currentUser"
)

var singulars = map[string]string{
	keyUsers:           "user",
	keyTransactions:    "transaction",
	keyPayouts:         "payout",
	keyPaymentLinks:    "payment-link",
	keyPaymentRequests: "payment-request",
}

// Store provides CRUD over the mock collections. Storage-access failures
// degrade to empty reads and no-op writes; the store never propagates them.
type Store struct {
	mu sync.Mutex
	kv kv.Store

	now func() time.Time
}

func New(store kv.Store) *Store {
	return &Store{kv: store, now: time.Now}
}

// NextID returns the next per-table ID, formatted <singular>-<n>, and
// advances the stored counter. IDs are monotonically increasing per table
// and never reused.
func (s *Store) NextID(ctx context.Context, table string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextIDLocked(ctx, table)
}

func (s *Store) nextIDLocked(ctx context.Context, table string) string {
	counters := map[string]int{}
	if raw, err := s.kv.Get(ctx, keyCounters); err == nil {
		_ = json.Unmarshal(raw, &counters)
	}

	n := counters[table]
	if n == 0 {
		n = 1
	}
	counters[table] = n + 1
	if raw, err := json.Marshal(counters); err == nil {
		_ = s.kv.Set(ctx, keyCounters, raw)
	}

	singular, ok := singulars[table]
	if !ok {
		singular = strings.TrimSuffix(table, "s")
	}
	return fmt.Sprintf("%s-%d", singular, n)
}

// --- users ---

// CreateUser assigns an ID and creation timestamp and appends the user.
// Uniqueness of username/email is the caller's pre-check responsibility; the
// store itself appends unconditionally.
func (s *Store) CreateUser(ctx context.Context, user models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = s.nextIDLocked(ctx, keyUsers)
	user.CreatedAt = s.now()

	users := readList[models.User](ctx, s.kv, keyUsers)
	writeList(ctx, s.kv, keyUsers, append(users, user))
	return user
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) *models.User {
	return s.findUser(ctx, func(u models.User) bool { return u.Email == email })
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) *models.User {
	return s.findUser(ctx, func(u models.User) bool { return u.Username == username })
}

func (s *Store) GetUserByID(ctx context.Context, id string) *models.User {
	return s.findUser(ctx, func(u models.User) bool { return u.ID == id })
}

func (s *Store) findUser(ctx context.Context, match func(models.User) bool) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range readList[models.User](ctx, s.kv, keyUsers) {
		if match(u) {
			return &u
		}
	}
	return nil
}

// UpdateUser merges fields into the stored user via apply and persists the
// result. Returns nil if the user does not exist.
func (s *Store) UpdateUser(ctx context.Context, id string, apply func(*models.User)) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := readList[models.User](ctx, s.kv, keyUsers)
	for i := range users {
		if users[i].ID == id {
			apply(&users[i])
			users[i].ID = id // the ID is assigned once and never changes
			writeList(ctx, s.kv, keyUsers, users)
			u := users[i]
			return &u
		}
	}
	return nil
}

// CurrentUserID returns the stored current-user pointer, or "".
func (s *Store) CurrentUserID(ctx context.Context) string {
	raw, err := s.kv.Get(ctx, keyCurrentUser)
	if err != nil {
		return ""
	}
	return string(raw)
}

func (s *Store) SetCurrentUserID(ctx context.Context, id string) {
	_ = s.kv.Set(ctx, keyCurrentUser, []byte(id))
}

func (s *Store) ClearCurrentUser(ctx context.Context) {
	_ = s.kv.Delete(ctx, keyCurrentUser)
}

// --- transactions ---

func (s *Store) CreateTransaction(ctx context.Context, tx models.Transaction) models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = s.nextIDLocked(ctx, keyTransactions)
	tx.CreatedAt = s.now()
	tx.UpdatedAt = tx.CreatedAt

	list := readList[models.Transaction](ctx, s.kv, keyTransactions)
	writeList(ctx, s.kv, keyTransactions, append(list, tx))
	return tx
}

// ListTransactions returns transactions filtered by userID; an empty userID
// returns all of them.
func (s *Store) ListTransactions(ctx context.Context, userID string) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := readList[models.Transaction](ctx, s.kv, keyTransactions)
	if userID == "" {
		return list
	}
	out := make([]models.Transaction, 0, len(list))
	for _, tx := range list {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out
}

// --- payouts ---

func (s *Store) CreatePayout(ctx context.Context, p models.Payout) models.Payout {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextIDLocked(ctx, keyPayouts)
	p.CreatedAt = s.now()
	if p.Status == "" {
		p.Status = models.StatusPending
	}

	list := readList[models.Payout](ctx, s.kv, keyPayouts)
	writeList(ctx, s.kv, keyPayouts, append(list, p))
	return p
}

func (s *Store) ListPayouts(ctx context.Context, userID string) []models.Payout {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := readList[models.Payout](ctx, s.kv, keyPayouts)
	if userID == "" {
		return list
	}
	out := make([]models.Payout, 0, len(list))
	for _, p := range list {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

// UpdatePayoutStatus sets the payout's status and, when provided, its
// completion timestamp. The store does not auto-stamp CompletedAt; callers
// pair status=completed with a timestamp. Returns nil if not found.
func (s *Store) UpdatePayoutStatus(ctx context.Context, id, status string, completedAt *time.Time) *models.Payout {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := readList[models.Payout](ctx, s.kv, keyPayouts)
	for i := range list {
		if list[i].ID == id {
			list[i].Status = status
			if completedAt != nil {
				list[i].CompletedAt = completedAt
			}
			writeList(ctx, s.kv, keyPayouts, list)
			p := list[i]
			return &p
		}
	}
	return nil
}

// --- payment links ---

func (s *Store) CreatePaymentLink(ctx context.Context, l models.PaymentLink) models.PaymentLink {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.ID = s.nextIDLocked(ctx, keyPaymentLinks)
	l.CreatedAt = s.now()
	l.UpdatedAt = l.CreatedAt
	if l.Status == "" {
		l.Status = models.LinkActive
	}

	list := readList[models.PaymentLink](ctx, s.kv, keyPaymentLinks)
	writeList(ctx, s.kv, keyPaymentLinks, append(list, l))
	return l
}

func (s *Store) ListPaymentLinks(ctx context.Context, userID string) []models.PaymentLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := readList[models.PaymentLink](ctx, s.kv, keyPaymentLinks)
	if userID == "" {
		return list
	}
	out := make([]models.PaymentLink, 0, len(list))
	for _, l := range list {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) UpdatePaymentLinkStatus(ctx context.Context, id, status string) *models.PaymentLink {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := readList[models.PaymentLink](ctx, s.kv, keyPaymentLinks)
	for i := range list {
		if list[i].ID == id {
			list[i].Status = status
			list[i].UpdatedAt = s.now()
			writeList(ctx, s.kv, keyPaymentLinks, list)
			l := list[i]
			return &l
		}
	}
	return nil
}

// --- payment requests ---

func (s *Store) CreatePaymentRequest(ctx context.Context, r models.PaymentRequest) models.PaymentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextIDLocked(ctx, keyPaymentRequests)
	r.CreatedAt = s.now()
	if r.Status == "" {
		r.Status = models.StatusPending
	}

	list := readList[models.PaymentRequest](ctx, s.kv, keyPaymentRequests)
	writeList(ctx, s.kv, keyPaymentRequests, append(list, r))
	return r
}

func (s *Store) ListPaymentRequests(ctx context.Context, userID string) []models.PaymentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := readList[models.PaymentRequest](ctx, s.kv, keyPaymentRequests)
	if userID == "" {
		return list
	}
	out := make([]models.PaymentRequest, 0, len(list))
	for _, r := range list {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) UpdatePaymentRequestStatus(ctx context.Context, id, status string) *models.PaymentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := readList[models.PaymentRequest](ctx, s.kv, keyPaymentRequests)
	for i := range list {
		if list[i].ID == id {
			list[i].Status = status
			writeList(ctx, s.kv, keyPaymentRequests, list)
			r := list[i]
			return &r
		}
	}
	return nil
}

// --- aggregates ---

// Stats computes the dashboard aggregate for one user from transaction and
// payout state. Pure derivation; nothing is stored.
func (s *Store) Stats(ctx context.Context, userID string) models.DashboardStats {
	txs := s.ListTransactions(ctx, userID)
	payouts := s.ListPayouts(ctx, userID)

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var stats models.DashboardStats
	stats.TotalTransactions = len(txs)
	for _, tx := range txs {
		if tx.Status != models.StatusCompleted {
			continue
		}
		stats.TotalEarnings += tx.Amount
		if !tx.CreatedAt.Before(startOfDay) {
			stats.TodayEarnings += tx.Amount
		}
	}
	for _, p := range payouts {
		if p.Status == models.StatusPending || p.Status == models.PayoutProcessing {
			stats.PendingPayouts += p.Amount
		}
	}
	return stats
}

// --- kv helpers ---

func readList[T any](ctx context.Context, store kv.Store, key string) []T {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return nil
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

func writeList[T any](ctx context.Context, store kv.Store, key string, list []T) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	_ = store.Set(ctx, key, raw)
}
