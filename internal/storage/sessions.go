package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/atelier-ai/maestro/internal/model"
)

// SaveSession upserts the full session state. The mutable orchestration
// state rides in one JSONB column; the columns that admin queries filter on
// are broken out.
func (db *DB) SaveSession(ctx context.Context, s *model.Session) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("storage: marshal session %s: %w", s.ID, err)
	}

	_, err = db.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, state, turn_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			turn_count = EXCLUDED.turn_count,
			updated_at = EXCLUDED.updated_at
	`, s.ID, s.UserID, state, s.TurnCount, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("storage: save session %s: %w", s.ID, err)
	}
	return nil
}

// LoadSession rehydrates a session. Returns ErrNotFound for unknown IDs.
func (db *DB) LoadSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var state []byte
	err := db.pool.QueryRow(ctx,
		`SELECT state FROM sessions WHERE id = $1`, sessionID,
	).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load session %s: %w", sessionID, err)
	}

	var s model.Session
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("storage: unmarshal session %s: %w", sessionID, err)
	}
	return &s, nil
}

// DeleteSession removes the session row. Deleting an unknown session is not
// an error.
func (db *DB) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("storage: delete session %s: %w", sessionID, err)
	}
	return nil
}

// SessionSummary is the list view of a stored session.
type SessionSummary struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	TurnCount int       `json:"turn_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListSessions returns summaries for a user, most recently active first.
func (db *DB) ListSessions(ctx context.Context, userID string, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx, `
		SELECT id, user_id, turn_count, created_at, updated_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list sessions for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.UserID, &s.TurnCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan session summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
