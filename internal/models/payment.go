package models

import "time"

// Transaction types.
const (
	TransactionDonation       = "donation"
	TransactionPaymentLink    = "payment_link"
	TransactionPaymentRequest = "payment_request"
)

// Transaction statuses.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

// Payout methods and statuses.
const (
	PayoutBankTransfer = "bank_transfer"
	PayoutPaypal       = "paypal"
	PayoutStripe       = "stripe"

	PayoutProcessing = "processing"
)

// Payment link statuses.
const (
	LinkActive   = "active"
	LinkInactive = "inactive"
)

// Payment request statuses.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// FromUser is a denormalized snapshot of the paying user attached to a
// transaction at creation time.
type FromUser struct {
	Username     string `json:"username"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Transaction records money movement toward a creator. Status may change
// after creation; transactions are never deleted through the public
// interface.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	FromUser    *FromUser `json:"from_user,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Payout is a withdrawal to an external account. CompletedAt is nil until
// the payout transitions to completed; once set it is never cleared.
type Payout struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Amount      float64    `json:"amount"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PaymentLink is a shareable payment page. ShareURL is derived from the
// reference once at creation: <base>/l/<reference>.
type PaymentLink struct {
	ID                      string     `json:"id"`
	UserID                  string     `json:"user_id"`
	Name                    string     `json:"name"`
	Currency                string     `json:"currency"`
	Reference               string     `json:"reference"`
	Description             string     `json:"description,omitempty"`
	ShareURL                string     `json:"share_url"`
	Logo                    string     `json:"logo,omitempty"`
	CustomerRedirectURL     string     `json:"customer_redirect_url,omitempty"`
	CustomerFailRedirectURL string     `json:"customer_fail_redirect_url,omitempty"`
	StartDate               *time.Time `json:"start_date,omitempty"`
	ExpiryDate              *time.Time `json:"expiry_date,omitempty"`
	Status                  string     `json:"status"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// PaymentRequest asks a specific recipient for money.
type PaymentRequest struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	RecipientEmail string    `json:"recipient_email"`
	Amount         float64   `json:"amount"`
	Reason         string    `json:"reason,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// DashboardStats is a derived aggregate over transactions and payouts; it is
// computed on demand and never stored.
type DashboardStats struct {
	TotalEarnings     float64 `json:"total_earnings"`
	TodayEarnings     float64 `json:"today_earnings"`
	PendingPayouts    float64 `json:"pending_payouts"`
	TotalTransactions int     `json:"total_transactions"`
}
