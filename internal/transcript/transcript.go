// Package transcript keeps an append-only local record of every committed
// turn. It lives in SQLite so operators can replay a conversation even when
// the session row has been pruned from Postgres.
package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atelier-ai/maestro/internal/model"
	"github.com/atelier-ai/maestro/internal/storage"
	_ "modernc.org/sqlite"
)

// Store is an append-only transcript log backed by SQLite.
type Store struct {
	db *sql.DB
}

// Entry is one recorded utterance.
type Entry struct {
	ID        int64         `json:"id"`
	SessionID string        `json:"session_id"`
	UserID    string        `json:"user_id"`
	Speaker   model.Speaker `json:"speaker"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewSQLite opens (or creates) the transcript database at dbPath.
func NewSQLite(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("transcript: create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("transcript: open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("transcript: ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("transcript: initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS transcript (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		speaker TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transcript_session ON transcript(session_id, id);
	CREATE TABLE IF NOT EXISTS session_state (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		state TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Append records the given turns for a session. Turn timestamps are
// preserved; insertion order fixes the replay order.
func (s *Store) Append(ctx context.Context, sessionID, userID string, turns []model.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transcript: begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transcript (session_id, user_id, speaker, text, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("transcript: prepare append: %w", err)
	}
	defer stmt.Close()

	for _, t := range turns {
		ts := t.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, sessionID, userID, string(t.Speaker), t.Text, ts.Unix()); err != nil {
			return fmt.Errorf("transcript: append turn: %w", err)
		}
	}
	return tx.Commit()
}

// History returns a session's transcript in replay order, oldest first.
// limit <= 0 means everything.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	query := `
		SELECT id, session_id, user_id, speaker, text, created_at
		FROM transcript WHERE session_id = ? ORDER BY id`
	args := []any{sessionID}
	if limit > 0 {
		// Last N entries, still returned oldest first.
		query = `
			SELECT id, session_id, user_id, speaker, text, created_at FROM (
				SELECT id, session_id, user_id, speaker, text, created_at
				FROM transcript WHERE session_id = ? ORDER BY id DESC LIMIT ?
			) ORDER BY id`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("transcript: query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var speaker string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.UserID, &speaker, &e.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("transcript: scan history row: %w", err)
		}
		e.Speaker = model.Speaker(speaker)
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveSession stores a full state snapshot alongside the transcript. When no
// Postgres store is configured, this snapshot is what rehydrates the session
// after a restart.
func (s *Store) SaveSession(ctx context.Context, sess *model.Session) error {
	state, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("transcript: marshal session state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_state (session_id, user_id, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			user_id = excluded.user_id,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		sess.ID, sess.UserID, string(state), sess.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("transcript: save session snapshot: %w", err)
	}
	return nil
}

// LoadSession returns the latest state snapshot, or storage.ErrNotFound.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM session_state WHERE session_id = ?`, sessionID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("transcript: load session snapshot: %w", err)
	}
	var sess model.Session
	if err := json.Unmarshal([]byte(state), &sess); err != nil {
		return nil, fmt.Errorf("transcript: unmarshal session state: %w", err)
	}
	return &sess, nil
}

// Purge drops a session's transcript and snapshot. Used when an operator
// deletes the session itself.
func (s *Store) Purge(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transcript WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("transcript: purge session: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_state WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("transcript: purge session snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
