// Package db opens the controller's SQLite file and keeps its schema current.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// connPragmas apply to the single pooled connection.
var connPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

// migrations are applied in order; PRAGMA user_version records how many
// have run. Append only.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS fan_state (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		status      TEXT    NOT NULL,
		tool_path   TEXT    NOT NULL DEFAULT '',
		interval_s  INTEGER NOT NULL,
		reading_c   INTEGER NOT NULL DEFAULT 0,
		smoothed_c  REAL    NOT NULL DEFAULT 0,
		target_duty INTEGER NOT NULL DEFAULT 0,
		duty        INTEGER NOT NULL DEFAULT 0,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fan_events (
		id          TEXT PRIMARY KEY,
		occurred_at TIMESTAMP NOT NULL,
		type        TEXT NOT NULL,
		message     TEXT NOT NULL,
		meta        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fan_events_occurred_at ON fan_events (occurred_at)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL
	)`,
}

// InitDB opens (or creates) the database at path and migrates it.
func InitDB(path string) (*sql.DB, error) {
	conn, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}
	// the loop writes every tick while the API reads; one handle serializes them
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := prepare(context.Background(), conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func prepare(ctx context.Context, conn *sql.DB) error {
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	for _, p := range connPragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return migrate(ctx, conn)
}

// migrate runs the migrations newer than user_version in one transaction.
func migrate(ctx context.Context, conn *sql.DB) error {
	var applied int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&applied); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if applied > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this build (%d)", applied, len(migrations))
	}
	if applied == len(migrations) {
		return nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := applied; i < len(migrations); i++ {
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	// PRAGMA takes no bind parameters
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// SchemaVersion reports how many migrations have been applied to conn.
func SchemaVersion(ctx context.Context, conn *sql.DB) (int, error) {
	var v int
	err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}
