package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	dirPermissions    = 0o750
	filePermissions   = 0o600
	busyTimeoutMillis = 5000
	connectionTimeout = 5 * time.Second
)

// SQLite wraps a database/sql handle on a local SQLite file.
type SQLite struct {
	*sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database file at path with WAL
// journaling and a busy timeout. SQLite has a single writer, so the pool is
// capped at one connection.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL", path, busyTimeoutMillis)

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	_ = os.Chmod(path, filePermissions)

	slog.Info("database connected", "driver", "sqlite", "path", path)
	return &SQLite{DB: sqlDB, path: path}, nil
}

func (db *SQLite) Path() string {
	return db.path
}

func (db *SQLite) Close() {
	if db.DB != nil {
		_ = db.DB.Close()
	}
}

func (db *SQLite) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
