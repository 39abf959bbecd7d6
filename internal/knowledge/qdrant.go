package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection settings for the vector index.
type QdrantConfig struct {
	URL        string // "https://host:6333" or "http://localhost:6333"
	APIKey     string
	Collection string
	Dims       uint64
}

// Result is a chunk ID with its raw similarity score. The caller hydrates
// chunk text from Postgres, which stays the source of truth.
type Result struct {
	ChunkID uuid.UUID
	Score   float32
}

// Searcher is a vector index over knowledge chunks. Implementations must be
// safe for concurrent use.
type Searcher interface {
	// Search returns chunk IDs visible to any of the given roles.
	Search(ctx context.Context, embedding []float32, roles []string, limit int) ([]Result, error)
	Healthy(ctx context.Context) error
}

// QdrantIndex implements Searcher backed by Qdrant over gRPC.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dims       uint64
	logger     *slog.Logger
}

// parseQdrantURL extracts host, port, and TLS flag. A REST port (6333) is
// rewritten to the gRPC port (6334).
func parseQdrantURL(rawURL string) (host string, port int, useTLS bool, err error) {
	u, parseErr := url.Parse(rawURL)
	if parseErr != nil || u.Host == "" {
		return "", 0, false, fmt.Errorf("knowledge: invalid qdrant URL: %q", rawURL)
	}

	useTLS = u.Scheme == "https"
	host = u.Hostname()

	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return "", 0, false, fmt.Errorf("knowledge: invalid port in qdrant URL: %q", portStr)
		}
		if p == 6333 {
			port = 6334
		} else {
			port = p
		}
	} else {
		port = 6334
	}
	return host, port, useTLS, nil
}

func NewQdrantIndex(cfg QdrantConfig, logger *slog.Logger) (*QdrantIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: connect to qdrant at %s:%d: %w", host, port, err)
	}

	return &QdrantIndex{
		client:     client,
		collection: cfg.Collection,
		dims:       cfg.Dims,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the collection if missing and always ensures the
// payload indexes; CreateFieldIndex is idempotent on Qdrant so this backfills
// indexes added after the collection was first created.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("knowledge: check collection exists: %w", err)
	}

	if !exists {
		if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     q.dims,
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("knowledge: create collection %q: %w", q.collection, err)
		}
		q.logger.Info("qdrant: created collection", "collection", q.collection, "dims", q.dims)
	}

	keywordType := qdrant.FieldType_FieldTypeKeyword
	for _, field := range []string{"roles", "topic"} {
		if _, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.collection,
			FieldName:      field,
			FieldType:      &keywordType,
		}); err != nil {
			return fmt.Errorf("knowledge: ensure index on %q: %w", field, err)
		}
	}
	return nil
}

// Upsert writes chunk vectors with role and topic payloads.
func (q *QdrantIndex) Upsert(ctx context.Context, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("knowledge: %d chunks but %d embeddings", len(chunks), len(embeddings))
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, c := range chunks {
		roles := make([]any, len(c.Roles))
		for j, r := range c.Roles {
			roles[j] = r
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(c.ID.String()),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"roles": roles,
				"topic": c.Topic,
			}),
		})
	}

	wait := true
	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
		Wait:           &wait,
	}); err != nil {
		return fmt.Errorf("knowledge: upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search queries for chunks whose roles payload matches any of the given
// roles.
func (q *QdrantIndex) Search(ctx context.Context, embedding []float32, roles []string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 3
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatchKeywords("roles", roles...),
		},
	}

	fetchLimit := uint64(limit)
	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(embedding),
		Filter:         filter,
		Limit:          &fetchLimit,
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: qdrant query: %w", err)
	}

	results := make([]Result, 0, len(scored))
	for _, sp := range scored {
		idStr := sp.Id.GetUuid()
		if idStr == "" {
			continue
		}
		chunkID, err := uuid.Parse(idStr)
		if err != nil {
			q.logger.Warn("qdrant: invalid UUID in point ID", "id", idStr)
			continue
		}
		results = append(results, Result{ChunkID: chunkID, Score: sp.Score})
	}
	return results, nil
}

// Healthy reports whether the index is reachable.
func (q *QdrantIndex) Healthy(ctx context.Context) error {
	if _, err := q.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("knowledge: qdrant health: %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}
