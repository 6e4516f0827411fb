package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Bootstrap creates the schema if it does not exist. The unique index on
// lower(email_address) is what makes concurrent registrations of the same
// e-mail safe; application code relies on it instead of read-then-write.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id       text PRIMARY KEY,
			email_address text NOT NULL,
			password_hash text NOT NULL,
			status        text NOT NULL DEFAULT 'pending',
			created_at    timestamptz NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_address_lower_idx
			ON users (lower(email_address))`,
		`CREATE TABLE IF NOT EXISTS validation_codes (
			user_id    text PRIMARY KEY REFERENCES users (user_id) ON DELETE CASCADE,
			code       text NOT NULL,
			expires_at timestamptz NOT NULL,
			consumed   boolean NOT NULL DEFAULT false
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
