package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as unix nanoseconds (BIGINT) so the same queries and
// comparisons work on both dialects.
var migrations = map[string][]string{
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name          TEXT NOT NULL,
			role          TEXT NOT NULL,
			blocked       INTEGER NOT NULL DEFAULT 0,
			phone         TEXT,
			address       TEXT,
			position      TEXT,
			department    TEXT,
			created_at    INTEGER NOT NULL,
			updated_at    INTEGER NOT NULL,
			deleted_at    INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			token      TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expiry ON refresh_tokens(expires_at)`,
	},
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS users (
			id            VARCHAR(36) PRIMARY KEY,
			email         VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			name          VARCHAR(100) NOT NULL,
			role          VARCHAR(16) NOT NULL,
			blocked       TINYINT(1) NOT NULL DEFAULT 0,
			phone         VARCHAR(32) NULL,
			address       VARCHAR(255) NULL,
			position      VARCHAR(100) NULL,
			department    VARCHAR(100) NULL,
			created_at    BIGINT NOT NULL,
			updated_at    BIGINT NOT NULL,
			deleted_at    BIGINT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			token      CHAR(64) PRIMARY KEY,
			user_id    VARCHAR(36) NOT NULL,
			expires_at BIGINT NOT NULL,
			created_at BIGINT NOT NULL,
			INDEX idx_refresh_tokens_user (user_id),
			INDEX idx_refresh_tokens_expiry (expires_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

// Migrate creates the users and refresh_tokens tables when they are missing.
// It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	stmts, ok := migrations[dialect]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
