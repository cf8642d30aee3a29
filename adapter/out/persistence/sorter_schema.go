// Package persistence provides the Postgres adapters implementing the
// contact store ports.
package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"sorter/pkg/apperr"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		color      TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id                TEXT PRIMARY KEY,
		identifier        TEXT NOT NULL,
		display_name      TEXT,
		message_count     INTEGER NOT NULL DEFAULT 0,
		sent_count        INTEGER NOT NULL DEFAULT 0,
		received_count    INTEGER NOT NULL DEFAULT 0,
		last_message_date TIMESTAMPTZ,
		is_saved_contact  BOOLEAN NOT NULL DEFAULT FALSE,
		category_id       TEXT NOT NULL DEFAULT 'uncategorized',
		category_reason   TEXT,
		notes             TEXT NOT NULL DEFAULT '',
		custom_name       TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_category ON contacts (category_id)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id             INTEGER PRIMARY KEY DEFAULT 1,
		category_order TEXT[] NOT NULL DEFAULT '{}'
	)`,
}

// Migrate creates the contact store tables when they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return apperr.DatabaseError("migrate", err)
		}
	}
	return nil
}
