package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
	"github.com/genocem/Edumond-AI-portal/internal/conversation"
	"github.com/genocem/Edumond-AI-portal/internal/matcher"
)

// SaveResponse stores a submitted questionnaire.
func (db *DB) SaveResponse(ctx context.Context, r *conversation.Response) error {
	selected, err := json.Marshal(nonNil(r.SelectedPrograms))
	if err != nil {
		return fmt.Errorf("failed to encode selected programs: %w", err)
	}
	recs := r.Recommendations
	if recs == nil {
		recs = []matcher.Recommendation{}
	}
	recommendations, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}

	query := `
		INSERT INTO responses (id, session_id, goal, country, english_level, native_level,
			selected_programs, recommendations, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	start := time.Now()
	_, err = db.conn.ExecContext(ctx, query,
		r.ID, r.SessionID,
		string(r.Profile.Goal), r.Profile.Country, r.Profile.EnglishLevel, r.Profile.NativeLevel,
		string(selected), string(recommendations), r.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}

	warnIfSlow(ctx, "SaveResponse", start)
	return nil
}

// ListResponses returns the questionnaires of a session, oldest first.
func (db *DB) ListResponses(ctx context.Context, sessionID string) ([]conversation.Response, error) {
	query := `
		SELECT id, session_id, goal, country, english_level, native_level,
			selected_programs, recommendations, created_at
		FROM responses WHERE session_id = ?
		ORDER BY created_at, id
	`
	rows, err := db.conn.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []conversation.Response{}
	for rows.Next() {
		var (
			r                         conversation.Response
			goal                      string
			selected, recommendations string
			createdAt                 int64
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &goal, &r.Profile.Country,
			&r.Profile.EnglishLevel, &r.Profile.NativeLevel,
			&selected, &recommendations, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if err := json.Unmarshal([]byte(selected), &r.SelectedPrograms); err != nil {
			return nil, fmt.Errorf("failed to decode selected programs of response %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(recommendations), &r.Recommendations); err != nil {
			return nil, fmt.Errorf("failed to decode recommendations of response %s: %w", r.ID, err)
		}
		r.Profile.Goal = catalog.Goal(goal)
		r.Profile.SelectedPrograms = r.SelectedPrograms
		r.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate responses: %w", err)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
