package credit

import (
	"time"

	"github.com/google/uuid"
)

// Profile carries the purchasable token balance of a user
type Profile struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	TokenBalance int64     `db:"token_balance" json:"token_balance"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TxStatus values for ledger rows
const (
	TxStatusCompleted = "completed"
)

// ProviderAdmin is the provider recorded on manual grants
const ProviderAdmin = "admin"

// Transaction is an immutable ledger row, one per credit
type Transaction struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	AmountCents   int64     `db:"amount_cents" json:"amount_cents"`
	Currency      string    `db:"currency" json:"currency"`
	Provider      string    `db:"provider" json:"provider"`
	Status        string    `db:"status" json:"status"`
	TokensGranted int64     `db:"tokens_granted" json:"tokens_granted"`
	ExternalID    string    `db:"external_id" json:"external_id"`
	Description   string    `db:"description" json:"description"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Entry describes the ledger row written alongside a credit
type Entry struct {
	AmountCents int64
	Currency    string
	Provider    string
	ExternalID  string
	Description string
	Email       string
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}
