// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for wizard sessions and submission history
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS wizard_sessions (
	id TEXT PRIMARY KEY,
	step INTEGER NOT NULL DEFAULT 0 CHECK(step BETWEEN 0 AND 3),
	data TEXT NOT NULL,
	event_title TEXT,
	client_name TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_wizard_sessions_updated ON wizard_sessions(updated_at DESC);

CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	session_id TEXT,
	proposal_id TEXT,
	status TEXT NOT NULL CHECK(status IN ('draft', 'sent')),
	title TEXT NOT NULL,
	total_investment INTEGER NOT NULL DEFAULT 0,
	error TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_session ON submissions(session_id);
CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
