package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/atelier-ai/maestro/internal/model"
)

// Interaction is one recorded turn: what the user asked, who answered,
// and how the pipeline treated it.
type Interaction struct {
	ID            int64           `json:"id"`
	SessionID     string          `json:"session_id"`
	UserID        string          `json:"user_id"`
	Persona       model.PersonaID `json:"persona"`
	Message       string          `json:"message"`
	Response      string          `json:"response"`
	Blocked       bool            `json:"blocked"`
	CacheHit      bool            `json:"cache_hit"`
	HintTriggered bool            `json:"hint_triggered"`
	LatencyMS     float64         `json:"latency_ms"`
	CreatedAt     time.Time       `json:"created_at"`
}

// LogInteraction appends an interaction row. The engine calls this
// best-effort after a turn commits; failures are logged, not fatal.
func (db *DB) LogInteraction(ctx context.Context, in Interaction) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO interactions
			(session_id, user_id, persona, message, response, blocked, cache_hit, hint_triggered, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		in.SessionID, in.UserID, string(in.Persona), in.Message, in.Response,
		in.Blocked, in.CacheHit, in.HintTriggered, in.LatencyMS,
	)
	if err != nil {
		return fmt.Errorf("storage: log interaction: %w", err)
	}
	return nil
}

// RecentInteractions returns the newest interactions for a session,
// most recent first.
func (db *DB) RecentInteractions(ctx context.Context, sessionID string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx, `
		SELECT id, session_id, user_id, persona, message, response,
		       blocked, cache_hit, hint_triggered, latency_ms, created_at
		FROM interactions
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: recent interactions: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var in Interaction
		var persona string
		if err := rows.Scan(&in.ID, &in.SessionID, &in.UserID, &persona, &in.Message,
			&in.Response, &in.Blocked, &in.CacheHit, &in.HintTriggered, &in.LatencyMS, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan interaction: %w", err)
		}
		in.Persona = model.PersonaID(persona)
		out = append(out, in)
	}
	return out, rows.Err()
}
