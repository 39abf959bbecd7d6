package embedding

import (
	"log/slog"

	"github.com/atelier-ai/maestro/internal/config"
)

// FromConfig selects a provider. "auto" prefers OpenAI when a key is
// present, then Ollama, then noop.
func FromConfig(cfg *config.Config, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.EmbeddingProvider {
	case "ollama":
		return NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, cfg.EmbeddingDimensions)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	case "noop":
		return NewNoopProvider(cfg.EmbeddingDimensions)
	}

	if cfg.OpenAIAPIKey != "" {
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	}
	if cfg.OllamaURL != "" {
		return NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, cfg.EmbeddingDimensions)
	}
	logger.Warn("no embedding backend configured, retrieval will return nothing")
	return NewNoopProvider(cfg.EmbeddingDimensions)
}
