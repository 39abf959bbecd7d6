package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Section is a role-tagged slice of a reference document before chunking.
type Section struct {
	Roles []string
	Topic string
	Text  string
}

const (
	chunkSize    = 500
	chunkOverlap = 80
)

// Ingestor chunks reference material, embeds it, and writes it to both the
// chunk store and the vector index.
type Ingestor struct {
	svc    *Service
	logger *slog.Logger
}

func NewIngestor(svc *Service, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{svc: svc, logger: logger.With("component", "ingest")}
}

// Ingest processes sections end to end. The vector index write is skipped
// when no index is configured; pgvector search still works off the store.
func (in *Ingestor) Ingest(ctx context.Context, sections []Section) (int, error) {
	var chunks []Chunk
	for _, sec := range sections {
		for _, text := range splitText(sec.Text, chunkSize, chunkOverlap) {
			chunks = append(chunks, Chunk{
				ID:    uuid.New(),
				Roles: sec.Roles,
				Topic: sec.Topic,
				Text:  text,
			})
		}
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := in.svc.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("knowledge: embed %d chunks: %w", len(chunks), err)
	}

	if err := in.svc.store.InsertChunks(ctx, chunks, vecs); err != nil {
		return 0, fmt.Errorf("knowledge: store chunks: %w", err)
	}

	if idx, ok := in.svc.searcher.(*QdrantIndex); ok && idx != nil {
		raw := make([][]float32, len(vecs))
		for i, v := range vecs {
			raw[i] = v.Slice()
		}
		if err := idx.Upsert(ctx, chunks, raw); err != nil {
			return 0, err
		}
	}

	in.logger.Info("ingested reference material", "sections", len(sections), "chunks", len(chunks))
	return len(chunks), nil
}

// splitText breaks text into chunks of roughly size characters, preferring
// paragraph boundaries and carrying overlap characters between neighbors so
// a fact straddling a boundary stays retrievable.
func splitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if len(text) <= size {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		chunks = append(chunks, strings.TrimSpace(cur.String()))
		tail := cur.String()
		cur.Reset()
		if overlap > 0 && len(tail) > overlap {
			cur.WriteString(tail[len(tail)-overlap:])
			cur.WriteString("\n")
		}
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(p) > size {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	if strings.TrimSpace(cur.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(cur.String()))
	}
	return chunks
}
