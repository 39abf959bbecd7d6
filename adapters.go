package maestro

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/atelier-ai/maestro/internal/embedding"
	"github.com/atelier-ai/maestro/internal/persona"
)

// generatorAdapter bridges a public Generator into the internal persona
// package without leaking internal types across the module boundary.
type generatorAdapter struct {
	g Generator
}

var _ persona.Generator = generatorAdapter{}

func (a generatorAdapter) Generate(ctx context.Context, req persona.Request) (string, error) {
	pub := GenerateRequest{
		Prompt:      req.Prompt,
		UserMessage: req.UserMessage,
	}
	if req.Profile != nil {
		pub.Persona = string(req.Profile.ID)
	}
	return a.g.Generate(ctx, pub)
}

// embeddingAdapter bridges a public EmbeddingProvider into the internal
// pgvector-typed interface.
type embeddingAdapter struct {
	p EmbeddingProvider
}

var _ embedding.Provider = embeddingAdapter{}

func (a embeddingAdapter) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	vec, err := a.p.Embed(ctx, text)
	if err != nil {
		return pgvector.Vector{}, err
	}
	return pgvector.NewVector(vec), nil
}

func (a embeddingAdapter) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	raw, err := a.p.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	vecs := make([]pgvector.Vector, len(raw))
	for i, v := range raw {
		vecs[i] = pgvector.NewVector(v)
	}
	return vecs, nil
}

func (a embeddingAdapter) Dimensions() int { return a.p.Dimensions() }
