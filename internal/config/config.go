// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Durable stores. Both are optional: the in-memory tier is authoritative
	// and persistence is best-effort.
	DatabaseURL    string // Postgres URL for users, sessions, interaction logs, knowledge chunks.
	TranscriptPath string // SQLite file for message transcripts; empty disables it.

	// Safety gate settings.
	RateLimitMax        int           // Requests allowed per window per user.
	RateLimitWindow     time.Duration // Sliding window size.
	RateLimitMultiplier int           // Block duration = window × multiplier after a violation.
	MaxMessageLength    int           // Raw input longer than this is blocked (low severity).

	// Response cache settings.
	CacheL1Size  int
	CacheL2Size  int
	RetrievalTTL time.Duration // L3 retrieval-cache TTL.

	// Persona generation settings.
	GeneratorProvider string // "anthropic" or "scripted".
	AnthropicModel    string
	GenerateTimeout   time.Duration

	// Knowledge retrieval settings.
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// Embedding provider settings.
	EmbeddingProvider   string // "auto", "openai", "ollama", or "noop".
	OpenAIAPIKey        string
	EmbeddingModel      string
	EmbeddingDimensions int
	OllamaURL           string
	OllamaModel         string

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel            string
	AdminToken          string // Gates /v1/admin/* endpoints; empty disables them.
	MaxRequestBodyBytes int64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                envInt("MAESTRO_PORT", 8080),
		ReadTimeout:         envDuration("MAESTRO_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        envDuration("MAESTRO_WRITE_TIMEOUT", 60*time.Second),
		DatabaseURL:         envStr("DATABASE_URL", ""),
		TranscriptPath:      envStr("MAESTRO_TRANSCRIPT_PATH", ""),
		RateLimitMax:        envInt("MAESTRO_RATE_LIMIT_MAX", 20),
		RateLimitWindow:     envDuration("MAESTRO_RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMultiplier: envInt("MAESTRO_RATE_LIMIT_MULTIPLIER", 2),
		MaxMessageLength:    envInt("MAESTRO_MAX_MESSAGE_LENGTH", 2000),
		CacheL1Size:         envInt("MAESTRO_CACHE_L1_SIZE", 500),
		CacheL2Size:         envInt("MAESTRO_CACHE_L2_SIZE", 200),
		RetrievalTTL:        envDuration("MAESTRO_RETRIEVAL_TTL", 300*time.Second),
		GeneratorProvider:   envStr("MAESTRO_GENERATOR", "anthropic"),
		AnthropicModel:      envStr("MAESTRO_ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
		GenerateTimeout:     envDuration("MAESTRO_GENERATE_TIMEOUT", 45*time.Second),
		QdrantURL:           envStr("QDRANT_URL", ""),
		QdrantAPIKey:        envStr("QDRANT_API_KEY", ""),
		QdrantCollection:    envStr("MAESTRO_QDRANT_COLLECTION", "maestro_knowledge"),
		EmbeddingProvider:   envStr("MAESTRO_EMBEDDING_PROVIDER", "auto"),
		OpenAIAPIKey:        envStr("OPENAI_API_KEY", ""),
		EmbeddingModel:      envStr("MAESTRO_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: envInt("MAESTRO_EMBEDDING_DIMENSIONS", 1024),
		OllamaURL:           envStr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:         envStr("OLLAMA_MODEL", "mxbai-embed-large"),
		OTELEndpoint:        envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:        envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:         envStr("OTEL_SERVICE_NAME", "maestro"),
		LogLevel:            envStr("MAESTRO_LOG_LEVEL", "info"),
		AdminToken:          envStr("MAESTRO_ADMIN_TOKEN", ""),
		MaxRequestBodyBytes: int64(envInt("MAESTRO_MAX_REQUEST_BODY_BYTES", 64*1024)),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that configuration values are internally consistent.
func (c Config) Validate() error {
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("config: MAESTRO_RATE_LIMIT_MAX must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("config: MAESTRO_RATE_LIMIT_WINDOW must be positive")
	}
	if c.RateLimitMultiplier <= 0 {
		return fmt.Errorf("config: MAESTRO_RATE_LIMIT_MULTIPLIER must be positive")
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("config: MAESTRO_MAX_MESSAGE_LENGTH must be positive")
	}
	if c.CacheL1Size <= 0 || c.CacheL2Size <= 0 {
		return fmt.Errorf("config: cache sizes must be positive")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("config: MAESTRO_EMBEDDING_DIMENSIONS must be positive")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: MAESTRO_MAX_REQUEST_BODY_BYTES must be positive")
	}
	switch c.GeneratorProvider {
	case "anthropic", "scripted":
	default:
		return fmt.Errorf("config: MAESTRO_GENERATOR must be \"anthropic\" or \"scripted\", got %q", c.GeneratorProvider)
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
