package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/genocem/Edumond-AI-portal/internal/conversation"
	domerrors "github.com/genocem/Edumond-AI-portal/internal/errors"
)

// SaveMeeting stores a booked consultation.
func (db *DB) SaveMeeting(ctx context.Context, m *conversation.Meeting) error {
	query := `
		INSERT INTO meetings (id, session_id, datetime, status, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := db.conn.ExecContext(ctx, query,
		m.ID, m.SessionID, m.Datetime.UnixMilli(), string(m.Status),
		sql.NullString{String: m.Notes, Valid: m.Notes != ""}, m.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save meeting: %w", err)
	}
	return nil
}

// ListMeetings returns the consultations of a session by date.
func (db *DB) ListMeetings(ctx context.Context, sessionID string) ([]conversation.Meeting, error) {
	return db.queryMeetings(ctx, `
		SELECT id, session_id, datetime, status, notes, created_at
		FROM meetings WHERE session_id = ?
		ORDER BY datetime, id
	`, sessionID)
}

// ListUpcomingMeetings returns scheduled consultations in [from, to), across
// all sessions, by date.
func (db *DB) ListUpcomingMeetings(ctx context.Context, from, to time.Time) ([]conversation.Meeting, error) {
	return db.queryMeetings(ctx, `
		SELECT id, session_id, datetime, status, notes, created_at
		FROM meetings
		WHERE status = ? AND datetime >= ? AND datetime < ?
		ORDER BY datetime, id
	`, string(conversation.MeetingScheduled), from.UnixMilli(), to.UnixMilli())
}

// UpdateMeetingStatus sets the status of a meeting belonging to sessionID.
func (db *DB) UpdateMeetingStatus(ctx context.Context, sessionID, meetingID string, status conversation.MeetingStatus) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE meetings SET status = ? WHERE id = ? AND session_id = ?`,
		string(status), meetingID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("meeting %s: %w", meetingID, domerrors.ErrNotFound)
	}
	return nil
}

func (db *DB) queryMeetings(ctx context.Context, query string, args ...any) ([]conversation.Meeting, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []conversation.Meeting{}
	for rows.Next() {
		var (
			m                   conversation.Meeting
			status              string
			notes               sql.NullString
			datetime, createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &datetime, &status, &notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		m.Datetime = time.UnixMilli(datetime).UTC()
		m.Status = conversation.MeetingStatus(status)
		m.Notes = notes.String
		m.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meetings: %w", err)
	}
	return out, nil
}

var _ conversation.Store = (*DB)(nil)
