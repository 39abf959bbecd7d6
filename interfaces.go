package maestro

import "context"

// GenerateRequest is one persona generation call, as seen by external
// Generator implementations. Persona is the persona ID ("CEO", "CHRO",
// "RegionalManager", "Mentor"); Prompt is the fully assembled system prompt.
type GenerateRequest struct {
	Persona     string
	Prompt      string
	UserMessage string
}

// Generator produces a persona's reply. When provided via WithGenerator it
// replaces the config-selected backend (Anthropic or scripted).
// Implementations must honor ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// EmbeddingProvider generates vector embeddings from text. When provided via
// WithEmbeddingProvider it replaces the auto-detected OpenAI/Ollama/noop
// provider. Uses []float32 (not pgvector.Vector) so external consumers do
// not need the pgvector dependency — New() wraps it in an adapter.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
