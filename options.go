package maestro

import (
	"io/fs"
	"log/slog"
)

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	port              int
	databaseURL       string
	transcriptPath    string
	logger            *slog.Logger
	version           string
	generator         Generator
	embeddingProvider EmbeddingProvider
	seedCorpus        bool
	extraMigrations   []fs.FS
}

// WithPort overrides the TCP port from config (MAESTRO_PORT env var).
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithDatabaseURL overrides the Postgres connection string from config
// (DATABASE_URL env var).
func WithDatabaseURL(url string) Option {
	return func(o *resolvedOptions) { o.databaseURL = url }
}

// WithTranscriptPath overrides the SQLite transcript location from config
// (MAESTRO_TRANSCRIPT_PATH env var).
func WithTranscriptPath(path string) Option {
	return func(o *resolvedOptions) { o.transcriptPath = path }
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in the health endpoint and logs.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithGenerator replaces the config-selected persona generator
// (Anthropic or scripted). Useful for tests and offline demos.
func WithGenerator(g Generator) Option {
	return func(o *resolvedOptions) { o.generator = g }
}

// WithEmbeddingProvider replaces the auto-detected embedding provider
// (OpenAI/Ollama/noop).
func WithEmbeddingProvider(p EmbeddingProvider) Option {
	return func(o *resolvedOptions) { o.embeddingProvider = p }
}

// WithSeedCorpus ingests the built-in reference corpus on startup. Requires
// both Postgres and Qdrant to be configured; ingestion is idempotent only
// per process start, so repeated runs grow the index.
func WithSeedCorpus() Option {
	return func(o *resolvedOptions) { o.seedCorpus = true }
}

// WithExtraMigrations appends migration filesystems applied after the
// built-in set. Each fs.FS must contain ordered .sql files at its root.
func WithExtraMigrations(migrations ...fs.FS) Option {
	return func(o *resolvedOptions) { o.extraMigrations = append(o.extraMigrations, migrations...) }
}
