package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines payment event data access
type Repository interface {
	BeginTxx(ctx context.Context) (*sqlx.Tx, error)
	CreatePending(ctx context.Context, ev *PaymentEvent) error
	AttachSession(ctx context.Context, orderID, sessionID string) error
	GetByOrderID(ctx context.Context, orderID string) (*PaymentEvent, error)
	FindForUser(ctx context.Context, userID uuid.UUID, ref string) (*PaymentEvent, error)
	MarkProcessedTx(ctx context.Context, tx *sqlx.Tx, orderID, eventID string, tokens int64) (bool, error)
	MarkClosed(ctx context.Context, orderID string, status EventStatus) (bool, error)
}

type repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepository creates payment repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *repository) BeginTxx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{})
}

func (r *repository) CreatePending(ctx context.Context, ev *PaymentEvent) error {
	now := r.now()
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	ev.Status = EventPending
	ev.CreatedAt = now
	ev.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO payment_events (id, order_id, user_id, provider, plan_id, plan_name, price_cents, currency, tokens, status, tokens_added, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		ev.ID,
		ev.OrderID,
		ev.UserID,
		ev.Provider,
		ev.PlanID,
		ev.PlanName,
		ev.PriceCents,
		ev.Currency,
		ev.Tokens,
		ev.Status,
		ev.CreatedAt,
		ev.UpdatedAt,
	)
	return err
}

func (r *repository) AttachSession(ctx context.Context, orderID, sessionID string) error {
	query := r.db.Rebind(`UPDATE payment_events SET session_id = ?, updated_at = ? WHERE order_id = ?`)
	_, err := r.db.ExecContext(ctx, query, sessionID, r.now(), orderID)
	return err
}

func (r *repository) GetByOrderID(ctx context.Context, orderID string) (*PaymentEvent, error) {
	var ev PaymentEvent
	err := r.db.GetContext(ctx, &ev, r.db.Rebind(`SELECT * FROM payment_events WHERE order_id = ?`), orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

// FindForUser matches either the order id or the provider session id, scoped to the owner
func (r *repository) FindForUser(ctx context.Context, userID uuid.UUID, ref string) (*PaymentEvent, error) {
	query := r.db.Rebind(`
		SELECT * FROM payment_events
		WHERE user_id = ? AND (order_id = ? OR session_id = ?)
		ORDER BY created_at DESC
		LIMIT 1
	`)
	var ev PaymentEvent
	if err := r.db.GetContext(ctx, &ev, query, userID, ref, ref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

// MarkProcessedTx flips the row to processed unless it already is.
// It returns false when another delivery got there first.
func (r *repository) MarkProcessedTx(ctx context.Context, tx *sqlx.Tx, orderID, eventID string, tokens int64) (bool, error) {
	now := r.now()
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE payment_events
		SET status = ?, event_id = ?, tokens_added = ?, processed_at = ?, updated_at = ?
		WHERE order_id = ? AND status <> ?
	`), EventProcessed, nullString(eventID), tokens, now, now, orderID, EventProcessed)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkClosed moves a pending row to failed or expired
func (r *repository) MarkClosed(ctx context.Context, orderID string, status EventStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE payment_events SET status = ?, updated_at = ?
		WHERE order_id = ? AND status = ?
	`), status, r.now(), orderID, EventPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
