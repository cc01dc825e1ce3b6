package payment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle of a payment event row
type EventStatus string

const (
	EventPending   EventStatus = "pending"
	EventProcessed EventStatus = "processed"
	EventFailed    EventStatus = "failed"
	EventExpired   EventStatus = "expired"
)

// Poll statuses exposed to the purchaser
const (
	StatusPending  = "pending"
	StatusFinished = "finished"
)

// PaymentEvent correlates a checkout session with the purchaser and the tokens it pays for.
// It is written at checkout and flipped to processed exactly once by the webhook.
type PaymentEvent struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	OrderID     string         `db:"order_id" json:"order_id"`
	UserID      uuid.UUID      `db:"user_id" json:"user_id"`
	Provider    string         `db:"provider" json:"provider"`
	SessionID   sql.NullString `db:"session_id" json:"-"`
	EventID     sql.NullString `db:"event_id" json:"-"`
	PlanID      string         `db:"plan_id" json:"plan_id"`
	PlanName    string         `db:"plan_name" json:"plan_name"`
	PriceCents  int64          `db:"price_cents" json:"price_cents"`
	Currency    string         `db:"currency" json:"currency"`
	Tokens      int64          `db:"tokens" json:"tokens"`
	Status      EventStatus    `db:"status" json:"status"`
	TokensAdded int64          `db:"tokens_added" json:"tokens_added"`
	ProcessedAt sql.NullTime   `db:"processed_at" json:"-"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// IsProcessed reports whether tokens were already credited for this event
func (e *PaymentEvent) IsProcessed() bool {
	return e.Status == EventProcessed
}

// CheckoutInput carries either a plan id or a raw USD amount
type CheckoutInput struct {
	PlanID   string
	Amount   any
	Provider string
	Lang     string
	Email    string
}

// CheckoutResult is returned to the browser for redirect
type CheckoutResult struct {
	SessionID  string `json:"sessionId"`
	OrderID    string `json:"orderId"`
	URL        string `json:"url"`
	Tokens     int64  `json:"tokens"`
	PriceCents int64  `json:"priceCents"`
}

// StatusResult is the poll response
type StatusResult struct {
	Status string `json:"status"`
	Tokens *int64 `json:"tokens,omitempty"`
}

// Receipt is passed to notifiers after a committed credit
type Receipt struct {
	UserID      uuid.UUID
	Email       string
	OrderID     string
	Provider    string
	PlanName    string
	Tokens      int64
	AmountCents int64
	Currency    string
	CreditedAt  time.Time
}
