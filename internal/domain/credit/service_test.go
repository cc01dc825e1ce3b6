package credit_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nebula-studio/billing-api/internal/domain/credit"
	"github.com/nebula-studio/billing-api/internal/pkg/database/dbtest"
)

func creditInTx(t *testing.T, db *sqlx.DB, svc *credit.Service, userID uuid.UUID, tokens int64, externalID string) error {
	t.Helper()

	tx, err := db.BeginTxx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := svc.CreditTx(context.Background(), tx, userID, tokens, credit.Entry{
		AmountCents: tokens * 100 / 3,
		Provider:    "stripe",
		ExternalID:  externalID,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

func TestCreditTxCreatesProfile(t *testing.T) {
	db := dbtest.NewSQLite(t)
	svc := credit.NewService(credit.NewRepository(db))
	userID := uuid.New()

	requireNoError(t, creditInTx(t, db, svc, userID, 42, "order-1"))

	balance, err := svc.GetBalance(context.Background(), userID)
	requireNoError(t, err)
	if balance != 42 {
		t.Fatalf("expected balance 42, got %d", balance)
	}

	tx, err := svc.FindByExternalID(context.Background(), userID, "order-1")
	requireNoError(t, err)
	if tx == nil || tx.TokensGranted != 42 || tx.Status != credit.TxStatusCompleted {
		t.Fatalf("unexpected ledger row: %+v", tx)
	}
}

func TestCreditTxDuplicateExternalID(t *testing.T) {
	db := dbtest.NewSQLite(t)
	svc := credit.NewService(credit.NewRepository(db))
	userID := uuid.New()

	requireNoError(t, creditInTx(t, db, svc, userID, 42, "order-dup"))

	err := creditInTx(t, db, svc, userID, 42, "order-dup")
	if !errors.Is(err, credit.ErrDuplicateExternalID) {
		t.Fatalf("expected ErrDuplicateExternalID, got %v", err)
	}

	balance, err := svc.GetBalance(context.Background(), userID)
	requireNoError(t, err)
	if balance != 42 {
		t.Fatalf("rolled back credit must not change balance, got %d", balance)
	}
}

func TestConcurrentDistinctCredits(t *testing.T) {
	db := dbtest.NewSQLite(t)
	svc := credit.NewService(credit.NewRepository(db))
	userID := uuid.New()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- creditInTx(t, db, svc, userID, int64(10+i), fmt.Sprintf("order-%d", i))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("credit failed: %v", err)
		}
	}

	var want int64
	for i := 0; i < workers; i++ {
		want += int64(10 + i)
	}
	balance, err := svc.GetBalance(context.Background(), userID)
	requireNoError(t, err)
	if balance != want {
		t.Fatalf("expected balance %d, got %d", want, balance)
	}

	items, err := svc.ListTransactions(context.Background(), userID, 0, 0)
	requireNoError(t, err)
	if len(items) != workers {
		t.Fatalf("expected %d ledger rows, got %d", workers, len(items))
	}
}

func TestAdminGrant(t *testing.T) {
	db := dbtest.NewSQLite(t)
	svc := credit.NewService(credit.NewRepository(db))
	userID := uuid.New()

	_, err := svc.Grant(context.Background(), userID, 10, credit.GrantMeta{Reason: "support"})
	if !errors.Is(err, credit.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown profile, got %v", err)
	}

	requireNoError(t, svc.EnsureProfile(context.Background(), userID, "buyer@example.com"))

	balance, err := svc.Grant(context.Background(), userID, 10, credit.GrantMeta{AdminID: uuid.New(), Reason: "support"})
	requireNoError(t, err)
	if balance != 10 {
		t.Fatalf("expected balance 10, got %d", balance)
	}

	profile, err := svc.GetProfile(context.Background(), userID)
	requireNoError(t, err)
	if profile.Email != "buyer@example.com" || profile.TokenBalance != 10 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestInvalidAmount(t *testing.T) {
	db := dbtest.NewSQLite(t)
	svc := credit.NewService(credit.NewRepository(db))

	if _, err := svc.Grant(context.Background(), uuid.New(), 0, credit.GrantMeta{}); !errors.Is(err, credit.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := creditInTx(t, db, svc, uuid.New(), -5, "order-neg"); !errors.Is(err, credit.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestGetBalanceUnknownUser(t *testing.T) {
	db := dbtest.NewSQLite(t)
	svc := credit.NewService(credit.NewRepository(db))

	balance, err := svc.GetBalance(context.Background(), uuid.New())
	requireNoError(t, err)
	if balance != 0 {
		t.Fatalf("expected 0, got %d", balance)
	}

	tx, err := svc.FindByExternalID(context.Background(), uuid.New(), "nope")
	requireNoError(t, err)
	if tx != nil {
		t.Fatalf("expected nil transaction, got %+v", tx)
	}
}

func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
