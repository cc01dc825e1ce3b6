package database

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Dialect names the SQL engine behind a connection
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DialectFor picks the engine from a DATABASE_URL value.
// "sqlite:" and "file:" prefixes (or a bare *.db path) select SQLite, everything else is Postgres.
func DialectFor(databaseURL string) Dialect {
	u := strings.TrimSpace(databaseURL)
	switch {
	case strings.HasPrefix(u, "sqlite:"), strings.HasPrefix(u, "file:"), strings.HasSuffix(u, ".db"):
		return DialectSQLite
	default:
		return DialectPostgres
	}
}

// Open connects to the database described by databaseURL
func Open(databaseURL string) (*sqlx.DB, Dialect, error) {
	dialect := DialectFor(databaseURL)
	if dialect == DialectSQLite {
		db, err := NewSQLite(strings.TrimPrefix(databaseURL, "sqlite:"))
		return db, dialect, err
	}
	db, err := NewPostgres(databaseURL)
	return db, dialect, err
}

// NewPostgres creates a new PostgreSQL connection pool
func NewPostgres(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Msg("Connected to PostgreSQL")
	return db, nil
}

// Close closes the database connection
func Close(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	} else {
		log.Info().Msg("Database connection closed")
	}
}
