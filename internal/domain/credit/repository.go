package credit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nebula-studio/billing-api/internal/pkg/database"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, tokens int64, entry Entry) (*Transaction, error)
	Grant(ctx context.Context, userID uuid.UUID, tokens int64, entry Entry) (int64, error)
	UpsertProfile(ctx context.Context, userID uuid.UUID, email string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	FindByExternalID(ctx context.Context, userID uuid.UUID, externalID string) (*Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Transaction, error)
}

// TokenRepository stores balances in profiles and the ledger in transactions.
// Queries are written with '?' placeholders and rebound for the connected driver.
type TokenRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// CreditTx adds tokens and appends the ledger row inside the caller's transaction.
// A missing profile is created with a zero balance first. The caller commits or rolls back.
func (r *TokenRepository) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, tokens int64, entry Entry) (*Transaction, error) {
	if tokens <= 0 {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(entry.ExternalID) == "" {
		return nil, fmt.Errorf("%w: empty external id", ErrInternal)
	}

	now := r.now()
	if err := r.ensureProfile(ctx, tx, userID, entry.Email, now); err != nil {
		return nil, err
	}

	// single additive expression, no read-modify-write in Go
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE profiles
		SET token_balance = token_balance + ?, updated_at = ?
		WHERE id = ?
	`), tokens, now, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: update token balance: %v", ErrInternal, err)
	}

	return r.insertLedger(ctx, tx, userID, tokens, entry, now)
}

// Grant credits an existing profile in its own transaction and returns the new balance
func (r *TokenRepository) Grant(ctx context.Context, userID uuid.UUID, tokens int64, entry Entry) (int64, error) {
	if tokens <= 0 {
		return 0, ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	now := r.now()
	result, err := tx.ExecContext(ctx2, tx.Rebind(`
		UPDATE profiles
		SET token_balance = token_balance + ?, updated_at = ?
		WHERE id = ?
	`), tokens, now, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: update token balance", ErrInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return 0, ErrUserNotFound
	}

	if _, err := r.insertLedger(ctx2, tx, userID, tokens, entry, now); err != nil {
		return 0, err
	}

	var balance int64
	if err := tx.GetContext(ctx2, &balance, tx.Rebind(`SELECT token_balance FROM profiles WHERE id = ?`), userID); err != nil {
		return 0, fmt.Errorf("%w: read balance", ErrInternal)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit tx", ErrInternal)
	}
	return balance, nil
}

// UpsertProfile makes sure a profile row exists, refreshing the email when one is given
func (r *TokenRepository) UpsertProfile(ctx context.Context, userID uuid.UUID, email string) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := r.now()
	_, err := r.db.ExecContext(ctx2, r.db.Rebind(`
		INSERT INTO profiles (id, email, token_balance, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET email = CASE WHEN excluded.email = '' THEN profiles.email ELSE excluded.email END,
		    updated_at = excluded.updated_at
	`), userID, email, now, now)
	if err != nil {
		return fmt.Errorf("%w: upsert profile", ErrInternal)
	}
	return nil
}

func (r *TokenRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Profile
	err := r.db.GetContext(ctx2, &p, r.db.Rebind(`
		SELECT id, email, token_balance, created_at, updated_at
		FROM profiles WHERE id = ?
	`), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: get profile", ErrInternal)
	}
	return &p, nil
}

// GetBalance returns 0 for users who never bought tokens
func (r *TokenRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int64
	err := r.db.GetContext(ctx2, &balance, r.db.Rebind(`SELECT token_balance FROM profiles WHERE id = ?`), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: get balance", ErrInternal)
	}
	return balance, nil
}

// FindByExternalID returns nil, nil when no ledger row matches
func (r *TokenRepository) FindByExternalID(ctx context.Context, userID uuid.UUID, externalID string) (*Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t Transaction
	err := r.db.GetContext(ctx2, &t, r.db.Rebind(`
		SELECT id, user_id, amount_cents, currency, provider, status, tokens_granted, external_id, description, created_at
		FROM transactions
		WHERE user_id = ? AND external_id = ?
	`), userID, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: find transaction", ErrInternal)
	}
	return &t, nil
}

func (r *TokenRepository) ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, r.db.Rebind(`
		SELECT id, user_id, amount_cents, currency, provider, status, tokens_granted, external_id, description, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`), userID, limit, pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}
	return transactions, nil
}

func (r *TokenRepository) ensureProfile(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, email string, now time.Time) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO profiles (id, email, token_balance, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`), userID, email, now, now)
	if err != nil {
		return fmt.Errorf("%w: ensure profile: %v", ErrInternal, err)
	}
	return nil
}

func (r *TokenRepository) insertLedger(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, tokens int64, entry Entry, now time.Time) (*Transaction, error) {
	t := &Transaction{
		ID:            uuid.New(),
		UserID:        userID,
		AmountCents:   entry.AmountCents,
		Currency:      entry.Currency,
		Provider:      entry.Provider,
		Status:        TxStatusCompleted,
		TokensGranted: tokens,
		ExternalID:    entry.ExternalID,
		Description:   entry.Description,
		CreatedAt:     now,
	}
	if t.Currency == "" {
		t.Currency = "usd"
	}
	if strings.TrimSpace(t.Description) == "" {
		t.Description = "token purchase"
	}

	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, amount_cents, currency, provider, status, tokens_granted, external_id, description, created_at
		) VALUES (
			:id, :user_id, :amount_cents, :currency, :provider, :status, :tokens_granted, :external_id, :description, :created_at
		)
	`, t)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateExternalID
		}
		return nil, fmt.Errorf("%w: insert transaction: %v", ErrInternal, err)
	}
	return t, nil
}
