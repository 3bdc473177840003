package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/genocem/Edumond-AI-portal/internal/conversation"
	domerrors "github.com/genocem/Edumond-AI-portal/internal/errors"
)

// SaveSession inserts or replaces a session.
func (db *DB) SaveSession(ctx context.Context, s *conversation.Session) error {
	profile, err := json.Marshal(s.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	messages, err := json.Marshal(s.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	query := `
		INSERT INTO sessions (id, phase, profile, messages, recommendations_shown, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			profile = excluded.profile,
			messages = excluded.messages,
			recommendations_shown = excluded.recommendations_shown,
			updated_at = excluded.updated_at
	`
	start := time.Now()
	_, err = db.conn.ExecContext(ctx, query,
		s.ID, string(s.Phase), string(profile), string(messages),
		s.RecommendationsShown, s.CreatedAt.UnixMilli(), s.UpdatedAt.UnixMilli())
	if err != nil {
		slog.ErrorContext(ctx, "failed to save session",
			"session_id", s.ID,
			"error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}

	warnIfSlow(ctx, "SaveSession", start)
	return nil
}

// LoadSession returns the session with id, or an error wrapping
// errors.ErrNotFound.
func (db *DB) LoadSession(ctx context.Context, id string) (*conversation.Session, error) {
	query := `
		SELECT id, phase, profile, messages, recommendations_shown, created_at, updated_at
		FROM sessions WHERE id = ?
	`
	var (
		s                    conversation.Session
		phase                string
		profile, messages    string
		createdAt, updatedAt int64
	)
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &phase, &profile, &messages, &s.RecommendationsShown, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if err := json.Unmarshal([]byte(profile), &s.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile of session %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(messages), &s.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages of session %s: %w", id, err)
	}
	if s.Profile.SelectedPrograms == nil {
		s.Profile.SelectedPrograms = []string{}
	}
	if s.Messages == nil {
		s.Messages = []conversation.Message{}
	}
	s.Phase = conversation.Phase(phase)
	s.CreatedAt = time.UnixMilli(createdAt).UTC()
	s.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &s, nil
}

// DeleteSession removes a session with its responses and meetings.
// Deleting an unknown id is not an error.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CountSessions counts sessions updated within the TTL.
func (db *DB) CountSessions(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE updated_at >= ?`, db.ttlCutoff()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// PurgeExpiredSessions deletes sessions idle for longer than the TTL. Sessions
// with a submitted questionnaire or a booked meeting are kept.
func (db *DB) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE updated_at < ?
			AND NOT EXISTS (SELECT 1 FROM responses r WHERE r.session_id = sessions.id)
			AND NOT EXISTS (SELECT 1 FROM meetings m WHERE m.session_id = sessions.id)
	`
	res, err := db.conn.ExecContext(ctx, query, db.ttlCutoff())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged sessions: %w", err)
	}
	return n, nil
}

// ttlCutoff is the updated_at below which a session is expired.
func (db *DB) ttlCutoff() int64 {
	return db.now().Add(-db.sessionTTL).UnixMilli()
}

func warnIfSlow(ctx context.Context, operation string, start time.Time) {
	if duration := time.Since(start); duration > slowQueryThreshold {
		slog.WarnContext(ctx, "slow database operation",
			"operation", operation,
			"duration_ms", duration.Milliseconds())
	}
}
