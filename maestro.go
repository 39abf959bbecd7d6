// Package maestro is the public API for embedding the Maestro dialogue
// orchestration server.
//
// Consumers import this package to construct and run the server without
// touching internal wiring:
//
//	app, err := maestro.New(
//	    maestro.WithVersion(version),
//	    maestro.WithLogger(logger),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The import graph enforces a strict no-cycle rule: maestro (root) imports
// internal/*, but internal/* never imports maestro (root).
package maestro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/atelier-ai/maestro/internal/config"
	"github.com/atelier-ai/maestro/internal/embedding"
	"github.com/atelier-ai/maestro/internal/engine"
	"github.com/atelier-ai/maestro/internal/knowledge"
	"github.com/atelier-ai/maestro/internal/latency"
	"github.com/atelier-ai/maestro/internal/mcp"
	"github.com/atelier-ai/maestro/internal/persona"
	"github.com/atelier-ai/maestro/internal/rescache"
	"github.com/atelier-ai/maestro/internal/safety"
	"github.com/atelier-ai/maestro/internal/server"
	"github.com/atelier-ai/maestro/internal/storage"
	"github.com/atelier-ai/maestro/internal/telemetry"
	"github.com/atelier-ai/maestro/internal/transcript"
	"github.com/atelier-ai/maestro/migrations"
)

// App is the Maestro server lifecycle. Construct with New(), run with Run().
// App has no public fields — use New() options to configure it.
type App struct {
	cfg          config.Config
	db           *storage.DB
	transcript   *transcript.Store
	qdrantIndex  *knowledge.QdrantIndex
	kb           *knowledge.Service
	gate         *safety.Gate
	cache        *rescache.Manager
	tracker      *latency.Tracker
	engine       *engine.Engine
	srv          *server.Server
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	version      string
}

// New constructs a fully wired App from environment configuration plus the
// given options. It connects to Postgres and Qdrant when configured, runs
// pending migrations, and builds the turn pipeline. It does not start
// serving — call Run.
func New(opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	// Best-effort .env load for local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port > 0 {
		cfg.Port = o.port
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.transcriptPath != "" {
		cfg.TranscriptPath = o.transcriptPath
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	ctx := context.Background()

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	app := &App{
		cfg:          cfg,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}

	// Durable stores are optional: sessions live in memory and persistence
	// is best-effort, so a missing DATABASE_URL degrades rather than fails.
	if cfg.DatabaseURL != "" {
		db, err := storage.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			app.closePartial()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		app.db = db

		if err := db.RunMigrations(ctx, migrations.FS); err != nil {
			app.closePartial()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		for _, extra := range o.extraMigrations {
			if err := db.RunMigrations(ctx, extra); err != nil {
				app.closePartial()
				return nil, fmt.Errorf("run extra migrations: %w", err)
			}
		}
	}

	if cfg.TranscriptPath != "" {
		ts, err := transcript.NewSQLite(cfg.TranscriptPath)
		if err != nil {
			app.closePartial()
			return nil, fmt.Errorf("open transcript store: %w", err)
		}
		app.transcript = ts
	}

	app.gate = safety.NewGate(&cfg, logger)
	app.cache = rescache.NewManager(cfg.CacheL1Size, cfg.CacheL2Size, cfg.RetrievalTTL)
	app.tracker = latency.NewTracker()

	// Retrieval needs all three legs: an embedding backend, a vector index,
	// and the chunk store that hydrates results.
	var retriever engine.Retriever
	if cfg.QdrantURL != "" && app.db != nil {
		idx, err := knowledge.NewQdrantIndex(knowledge.QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Dims:       uint64(cfg.EmbeddingDimensions),
		}, logger)
		if err != nil {
			app.closePartial()
			return nil, fmt.Errorf("connect qdrant: %w", err)
		}
		app.qdrantIndex = idx

		if err := idx.EnsureCollection(ctx); err != nil {
			app.closePartial()
			return nil, fmt.Errorf("ensure qdrant collection: %w", err)
		}

		var provider embedding.Provider
		if o.embeddingProvider != nil {
			provider = embeddingAdapter{p: o.embeddingProvider}
		} else {
			provider = embedding.FromConfig(&cfg, logger)
		}
		app.kb = knowledge.NewService(provider, idx, app.db, app.cache, logger)
		retriever = app.kb

		if o.seedCorpus {
			n, err := knowledge.NewIngestor(app.kb, logger).Ingest(ctx, knowledge.SeedSections())
			if err != nil {
				app.closePartial()
				return nil, fmt.Errorf("seed knowledge corpus: %w", err)
			}
			logger.Info("knowledge corpus seeded", "chunks", n)
		}
	} else if cfg.QdrantURL != "" {
		logger.Warn("QDRANT_URL set but no DATABASE_URL; retrieval disabled (chunk text lives in postgres)")
	}

	var gen persona.Generator
	if o.generator != nil {
		gen = generatorAdapter{g: o.generator}
	} else {
		switch cfg.GeneratorProvider {
		case "scripted":
			gen = persona.NewScriptedGenerator()
		default:
			gen = persona.NewAnthropicGenerator(cfg.AnthropicModel)
		}
	}

	// Postgres is the preferred rehydration source; the SQLite snapshot
	// covers deployments running without it.
	var store engine.SessionStore
	switch {
	case app.db != nil:
		store = app.db
	case app.transcript != nil:
		store = app.transcript
	}
	var sink engine.TranscriptSink
	if app.transcript != nil {
		sink = app.transcript
	}

	app.engine = engine.New(engine.Options{
		Gate:            app.gate,
		Classifier:      engine.NewGeneratorClassifier(gen),
		Generator:       gen,
		Cache:           app.cache,
		Tracker:         app.tracker,
		Retriever:       retriever,
		Store:           store,
		Transcript:      sink,
		Logger:          logger,
		GenerateTimeout: cfg.GenerateTimeout,
	})

	mcpSrv := mcp.New(app.engine, app.transcript, logger)

	var searcher knowledge.Searcher
	if app.qdrantIndex != nil {
		searcher = app.qdrantIndex
	}
	app.srv = server.New(server.ServerConfig{
		Engine:              app.engine,
		Gate:                app.gate,
		Cache:               app.cache,
		Tracker:             app.tracker,
		Logger:              logger,
		DB:                  app.db,
		Transcript:          app.transcript,
		Searcher:            searcher,
		MCPServer:           mcpSrv.MCPServer(),
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		AdminToken:          cfg.AdminToken,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	return app, nil
}

// Engine exposes the turn pipeline for embedding callers that bypass HTTP.
func (a *App) Engine() *engine.Engine { return a.engine }

// Handler returns the HTTP handler without starting a listener. Useful for
// tests and for mounting Maestro inside a larger mux.
func (a *App) Handler() http.Handler { return a.srv.Handler() }

// Run starts the HTTP server and blocks until ctx is cancelled or a fatal
// server error occurs. On return, Shutdown is called automatically —
// callers should not call Shutdown separately.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("maestro starting",
		"version", a.version,
		"port", a.cfg.Port,
		"postgres", a.db != nil,
		"transcript", a.transcript != nil,
		"qdrant", a.qdrantIndex != nil,
		"generator", a.cfg.GeneratorProvider,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	return a.Shutdown(context.Background())
}

// Shutdown drains in-flight HTTP requests, then closes the stores and the
// OTEL providers.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("maestro shutting down")

	httpCtx, cancel := context.WithTimeout(ctx, a.cfg.WriteTimeout)
	if err := a.srv.Shutdown(httpCtx); err != nil {
		a.logger.Error("http shutdown error", "error", err)
	}
	cancel()

	a.closePartial()

	a.logger.Info("maestro stopped")
	return nil
}

// closePartial releases whatever resources have been opened so far. Safe to
// call on a half-constructed App.
func (a *App) closePartial() {
	if a.qdrantIndex != nil {
		_ = a.qdrantIndex.Close()
	}
	if a.transcript != nil {
		_ = a.transcript.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
}
