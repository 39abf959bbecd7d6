// Package knowledge retrieves role-scoped reference context for persona
// answers. Chunk text lives in Postgres; Qdrant serves approximate vector
// search with a pgvector fallback when the index is unreachable.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/singleflight"

	"github.com/atelier-ai/maestro/internal/embedding"
	"github.com/atelier-ai/maestro/internal/model"
	"github.com/atelier-ai/maestro/internal/rescache"
)

// Chunk is one indexed slice of a reference document.
type Chunk struct {
	ID    uuid.UUID `json:"id"`
	Roles []string  `json:"roles"`
	Topic string    `json:"topic"`
	Text  string    `json:"text"`
}

// RoleShared marks chunks visible to every persona.
const RoleShared = "shared"

// ChunkStore is the durable home of chunk text and embeddings.
type ChunkStore interface {
	InsertChunks(ctx context.Context, chunks []Chunk, embeddings []pgvector.Vector) error
	GetChunks(ctx context.Context, ids []uuid.UUID) ([]Chunk, error)
	// SearchChunks is the pgvector fallback path.
	SearchChunks(ctx context.Context, embedding pgvector.Vector, roles []string, limit int) ([]Chunk, error)
}

const defaultTopK = 3

// Service implements the engine's Retriever.
type Service struct {
	provider embedding.Provider
	searcher Searcher
	store    ChunkStore
	cache    *rescache.Manager
	logger   *slog.Logger
	topK     int

	group singleflight.Group
}

func NewService(provider embedding.Provider, searcher Searcher, store ChunkStore, cache *rescache.Manager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		searcher: searcher,
		store:    store,
		cache:    cache,
		logger:   logger.With("component", "knowledge"),
		topK:     defaultTopK,
	}
}

// rolesFor scopes retrieval: each content persona sees its own chunks plus
// shared ones; the Mentor sees only shared material.
func rolesFor(id model.PersonaID) []string {
	if model.IsContentPersona(id) {
		return []string{string(id), RoleShared}
	}
	return []string{RoleShared}
}

// Retrieve returns formatted reference context for the persona and query.
// Results are cached with a TTL, and concurrent identical lookups collapse
// into one search.
func (s *Service) Retrieve(ctx context.Context, id model.PersonaID, query string) (string, error) {
	cacheKey := string(id) + ":" + query
	if s.cache != nil {
		if cached, ok := s.cache.GetRetrieval(cacheKey); ok {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		return s.retrieve(ctx, id, query)
	})
	if err != nil {
		return "", err
	}
	result := v.(string)

	if s.cache != nil {
		s.cache.PutRetrieval(cacheKey, result)
	}
	return result, nil
}

func (s *Service) retrieve(ctx context.Context, id model.PersonaID, query string) (string, error) {
	vec, err := s.provider.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("knowledge: embed query: %w", err)
	}
	roles := rolesFor(id)

	chunks, err := s.search(ctx, vec, roles)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		s.logger.Warn("no reference context found", "persona", string(id))
		return "(No specific reference documents available for this query.)", nil
	}
	return formatContext(chunks), nil
}

// search tries the vector index first and degrades to pgvector in Postgres
// when the index errors.
func (s *Service) search(ctx context.Context, vec pgvector.Vector, roles []string) ([]Chunk, error) {
	if s.searcher != nil {
		results, err := s.searcher.Search(ctx, vec.Slice(), roles, s.topK)
		if err == nil {
			return s.hydrate(ctx, results)
		}
		s.logger.Warn("vector index search failed, falling back to pgvector", "error", err)
	}
	if s.store == nil {
		return nil, fmt.Errorf("knowledge: no search backend available")
	}
	chunks, err := s.store.SearchChunks(ctx, vec, roles, s.topK)
	if err != nil {
		return nil, fmt.Errorf("knowledge: pgvector search: %w", err)
	}
	return chunks, nil
}

// hydrate loads chunk text for index hits, preserving score order and
// skipping chunks deleted since indexing.
func (s *Service) hydrate(ctx context.Context, results []Result) ([]Chunk, error) {
	if len(results) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(results))
	for i, r := range results {
		ids[i] = r.ChunkID
	}
	chunks, err := s.store.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("knowledge: hydrate chunks: %w", err)
	}
	byID := make(map[uuid.UUID]Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}
	ordered := make([]Chunk, 0, len(results))
	for _, r := range results {
		if c, ok := byID[r.ChunkID]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func formatContext(chunks []Chunk) string {
	parts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		parts = append(parts, fmt.Sprintf("[Reference %d - Topic: %s]\n%s", i+1, c.Topic, c.Text))
	}
	return strings.Join(parts, "\n\n")
}
