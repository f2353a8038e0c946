package database

import (
	"context"
	"fmt"
)

// schemaStatements holds the full schema. Statements are idempotent so the
// configure CLI can run them repeatedly.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS user_profiles (
		account_id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS user_profiles_email_key ON user_profiles (email)`,
	`CREATE TABLE IF NOT EXISTS search_terms (
		id UUID PRIMARY KEY,
		term TEXT NOT NULL UNIQUE,
		count BIGINT NOT NULL DEFAULT 0,
		movie_id BIGINT NOT NULL DEFAULT 0,
		poster_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cors_config (
		config_key TEXT PRIMARY KEY,
		allowed_origins TEXT NOT NULL,
		allow_credentials BOOLEAN NOT NULL DEFAULT true,
		max_age INTEGER NOT NULL DEFAULT 86400,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ratelimit_config (
		config_key TEXT PRIMARY KEY,
		rate TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates all tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
