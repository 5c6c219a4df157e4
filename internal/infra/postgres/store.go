// Package postgres persists chat memory, Bitrix tokens and case
// records. When DATABASE_URL is absent the service runs without these
// stores entirely; the callers handle nil stores, not this package.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables this service owns. Idempotent; runs
// at startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bitrix_tokens (
			member_id     TEXT PRIMARY KEY,
			access_token  TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			domain        TEXT NOT NULL,
			expires_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS chat_memory (
			chat_id            TEXT PRIMARY KEY,
			last_document_text TEXT NOT NULL DEFAULT '',
			scenario_override  TEXT NOT NULL DEFAULT '',
			updated_at         TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS case_records (
			id          TEXT PRIMARY KEY,
			chat_id     TEXT NOT NULL,
			transport   TEXT NOT NULL,
			scenario_id TEXT NOT NULL,
			confidence  DOUBLE PRECISION NOT NULL,
			message     TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS case_records_created_at_idx ON case_records (created_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
