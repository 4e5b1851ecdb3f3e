package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed migrations/postgres/001_initial.up.sql
var postgresInitialSQL string

//go:embed migrations/sqlite/001_initial.up.sql
var sqliteInitialSQL string

var requiredTables = []string{
	"users",
	"readings",
}

// EnsureSchema creates the users and readings tables when they are missing.
// The migration only uses IF NOT EXISTS so it is safe to re-run.
func (db *Postgres) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_name = ANY($1)
	`, requiredTables).Scan(&count)
	if err != nil {
		return fmt.Errorf("check existing tables: %w", err)
	}

	if count != len(requiredTables) {
		slog.Info("database schema missing tables; applying initial migration", "driver", "postgres")
		if _, err := db.Pool.Exec(ctx, postgresInitialSQL); err != nil {
			return fmt.Errorf("apply initial migration: %w", err)
		}
	}

	slog.Info("database schema ensured", "driver", "postgres")
	return nil
}

func (db *SQLite) EnsureSchema(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database handle is not initialized")
	}

	if _, err := db.ExecContext(ctx, sqliteInitialSQL); err != nil {
		return fmt.Errorf("apply initial migration: %w", err)
	}

	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN (?, ?)`,
		requiredTables[0], requiredTables[1]).Scan(&count)
	if err != nil {
		return fmt.Errorf("re-check tables after migration: %w", err)
	}
	if count != len(requiredTables) {
		return fmt.Errorf("schema initialization incomplete: required tables are still missing")
	}

	slog.Info("database schema ensured", "driver", "sqlite")
	return nil
}
