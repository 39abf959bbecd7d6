package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/atelier-ai/maestro/internal/model"
	"github.com/atelier-ai/maestro/internal/persona"
)

// GeneratorClassifier routes through the same LLM provider that speaks for
// the personas, asked for a single routing token at low stakes. Anything
// other than a clean content-persona token counts as out-of-set and the
// Supervisor falls back to keywords.
type GeneratorClassifier struct {
	gen persona.Generator
}

func NewGeneratorClassifier(gen persona.Generator) *GeneratorClassifier {
	return &GeneratorClassifier{gen: gen}
}

func (c *GeneratorClassifier) Classify(ctx context.Context, in ClassifyInput) (model.PersonaID, error) {
	out, err := c.gen.Generate(ctx, persona.Request{
		Prompt:      routingPrompt(in),
		UserMessage: in.Message,
	})
	if err != nil {
		return "", fmt.Errorf("engine: classify: %w", err)
	}
	return model.PersonaID(strings.TrimSpace(out)), nil
}
