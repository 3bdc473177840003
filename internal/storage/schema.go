package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all tables and indexes. It is safe to run repeatedly.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createSessionsTable(ctx, db); err != nil {
		return err
	}
	if err := createResponsesTable(ctx, db); err != nil {
		return err
	}
	return createMeetingsTable(ctx, db)
}

func createSessionsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		phase TEXT NOT NULL,
		profile TEXT NOT NULL,
		messages TEXT NOT NULL,
		recommendations_shown INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	return nil
}

func createResponsesTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS responses (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		goal TEXT,
		country TEXT,
		english_level TEXT,
		native_level TEXT,
		selected_programs TEXT NOT NULL,
		recommendations TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_session ON responses(session_id);
	CREATE INDEX IF NOT EXISTS idx_responses_country ON responses(country);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create responses table: %w", err)
	}
	return nil
}

func createMeetingsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS meetings (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		datetime INTEGER NOT NULL,
		status TEXT CHECK(status IN ('SCHEDULED', 'COMPLETED', 'CANCELLED')) NOT NULL,
		notes TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_meetings_session ON meetings(session_id);
	CREATE INDEX IF NOT EXISTS idx_meetings_datetime ON meetings(datetime);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create meetings table: %w", err)
	}
	return nil
}
