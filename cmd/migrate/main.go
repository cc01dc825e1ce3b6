// Command migrate applies or inspects the embedded schema migrations.
//
//	migrate up|down|status
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nebula-studio/billing-api/internal/config"
	"github.com/nebula-studio/billing-api/internal/pkg/database"
	"github.com/nebula-studio/billing-api/internal/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate up|down|status")
		os.Exit(2)
	}

	cfg := config.Load()
	_ = logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "migrate"})

	db, dialect, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)

	migrator, err := database.NewMigrator(db, dialect)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	case "status":
		var statuses []database.MigrationStatus
		statuses, err = migrator.Status(ctx)
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Printf("%05d  %-8s %s\n", s.Version, state, s.Path)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Migration failed")
	}
}
