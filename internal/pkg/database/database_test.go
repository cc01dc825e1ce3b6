package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nebula-studio/billing-api/internal/pkg/database"
	"github.com/nebula-studio/billing-api/internal/pkg/database/dbtest"
)

func TestDialectFor(t *testing.T) {
	cases := map[string]database.Dialect{
		"postgres://u:p@localhost:5432/billing?sslmode=disable": database.DialectPostgres,
		"sqlite:./data/billing.db":                               database.DialectSQLite,
		"file:/tmp/x.db":                                         database.DialectSQLite,
		"./billing.db":                                           database.DialectSQLite,
	}
	for in, want := range cases {
		if got := database.DialectFor(in); got != want {
			t.Fatalf("DialectFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMigrationsAndUniqueViolation(t *testing.T) {
	db := dbtest.NewSQLite(t)

	insert := db.Rebind(`INSERT INTO transactions (id, user_id, amount_cents, currency, provider, status, tokens_granted, external_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	userID := uuid.New()
	if _, err := db.Exec(insert, uuid.New(), userID, 1400, "usd", "stripe", "completed", 42, "order-1"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := db.Exec(insert, uuid.New(), userID, 1400, "usd", "stripe", "completed", 42, "order-1")
	if err == nil {
		t.Fatal("expected unique violation on external_id")
	}
	if !database.IsUniqueViolation(err) {
		t.Fatalf("expected IsUniqueViolation to match, got %v", err)
	}
	if database.IsUniqueViolation(errors.New("connection refused")) {
		t.Fatal("plain error must not be a unique violation")
	}
}

func TestMigratorStatus(t *testing.T) {
	db := dbtest.NewSQLite(t)

	m, err := database.NewMigrator(db, database.DialectSQLite)
	if err != nil {
		t.Fatalf("NewMigrator: %v", err)
	}
	statuses, err := m.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("expected at least one migration")
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Fatalf("migration %s not applied", s.Path)
		}
	}
}
