package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/atelier-ai/maestro/internal/knowledge"
)

// InsertChunks writes chunk rows with their embeddings in one batch.
// Existing ids are overwritten so re-ingestion is idempotent.
func (db *DB) InsertChunks(ctx context.Context, chunks []knowledge.Chunk, embeddings []pgvector.Vector) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("storage: chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	batch := &pgx.Batch{}
	for i, c := range chunks {
		batch.Queue(`
			INSERT INTO knowledge_chunks (id, roles, topic, text, embedding)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				roles = EXCLUDED.roles,
				topic = EXCLUDED.topic,
				text = EXCLUDED.text,
				embedding = EXCLUDED.embedding`,
			c.ID, c.Roles, c.Topic, c.Text, embeddings[i],
		)
	}
	br := db.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range chunks {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("storage: insert chunk: %w", err)
		}
	}
	return nil
}

// GetChunks fetches chunks by id. Missing ids are silently skipped so
// callers can hydrate stale index hits without erroring.
func (db *DB) GetChunks(ctx context.Context, ids []uuid.UUID) ([]knowledge.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.pool.Query(ctx, `
		SELECT id, roles, topic, text
		FROM knowledge_chunks
		WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// SearchChunks runs a cosine nearest-neighbor scan filtered to chunks
// whose roles overlap the requested set.
func (db *DB) SearchChunks(ctx context.Context, embedding pgvector.Vector, roles []string, limit int) ([]knowledge.Chunk, error) {
	if limit <= 0 {
		limit = 3
	}
	rows, err := db.pool.Query(ctx, `
		SELECT id, roles, topic, text
		FROM knowledge_chunks
		WHERE roles && $2::text[]
		ORDER BY embedding <=> $1
		LIMIT $3`,
		embedding, roles, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: search chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows pgx.Rows) ([]knowledge.Chunk, error) {
	var out []knowledge.Chunk
	for rows.Next() {
		var c knowledge.Chunk
		if err := rows.Scan(&c.ID, &c.Roles, &c.Topic, &c.Text); err != nil {
			return nil, fmt.Errorf("storage: scan chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ knowledge.ChunkStore = (*DB)(nil)
