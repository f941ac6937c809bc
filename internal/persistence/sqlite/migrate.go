package sqlite

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin INTEGER NOT NULL DEFAULT 0,
		calendar_access_token TEXT,
		calendar_refresh_token TEXT,
		calendar_token_expiry TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		weekday INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		time_of_day TEXT NOT NULL,
		timezone TEXT NOT NULL DEFAULT '',
		cursor INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS group_members (
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id),
		order_position INTEGER NOT NULL,
		PRIMARY KEY (group_id, user_id),
		UNIQUE (group_id, order_position)
	)`,
	`CREATE TABLE IF NOT EXISTS skip_weeks (
		user_id TEXT NOT NULL REFERENCES users(id),
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		period_start TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		PRIMARY KEY (user_id, group_id, period_start)
	)`,
	`CREATE TABLE IF NOT EXISTS rotations (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		assigned_user_id TEXT NOT NULL REFERENCES users(id),
		period_start TEXT NOT NULL,
		calendar_event_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'scheduled',
		created_at TEXT NOT NULL,
		swapped_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rotations_group_period ON rotations (group_id, period_start)`,
	`CREATE INDEX IF NOT EXISTS idx_rotations_assignee ON rotations (assigned_user_id, period_start)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
}

// Migrate creates the schema. Statements are idempotent so the service can
// run them on every start.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	for _, statement := range schema {
		if _, err := pool.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
