package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// UpsertUser records a user on first contact and bumps last_seen_at after.
func (db *DB) UpsertUser(ctx context.Context, userID string) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO users (id, first_seen_at, last_seen_at)
		VALUES ($1, now(), now())
		ON CONFLICT (id) DO UPDATE SET last_seen_at = now()
	`, userID)
	if err != nil {
		return fmt.Errorf("storage: upsert user %s: %w", userID, err)
	}
	return nil
}

// User is one known simulation participant.
type User struct {
	ID          string    `json:"id"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

func (db *DB) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	err := db.pool.QueryRow(ctx,
		`SELECT id, first_seen_at, last_seen_at FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.FirstSeenAt, &u.LastSeenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get user %s: %w", userID, err)
	}
	return &u, nil
}
