// Package server implements the HTTP API for Maestro.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/atelier-ai/maestro/internal/engine"
	"github.com/atelier-ai/maestro/internal/knowledge"
	"github.com/atelier-ai/maestro/internal/latency"
	"github.com/atelier-ai/maestro/internal/rescache"
	"github.com/atelier-ai/maestro/internal/safety"
	"github.com/atelier-ai/maestro/internal/storage"
	"github.com/atelier-ai/maestro/internal/transcript"
)

// Server is the Maestro HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a
// Server. Optional fields (nil-safe): DB, Transcript, Searcher, MCPServer.
type ServerConfig struct {
	// Required dependencies.
	Engine  *engine.Engine
	Gate    *safety.Gate
	Cache   *rescache.Manager
	Tracker *latency.Tracker
	Logger  *slog.Logger

	// Optional dependencies (nil = disabled).
	DB         *storage.DB
	Transcript *transcript.Store
	Searcher   knowledge.Searcher
	MCPServer  *mcpserver.MCPServer

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	AdminToken          string // empty disables /v1/admin/*
	MaxRequestBodyBytes int64
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Engine:              cfg.Engine,
		Gate:                cfg.Gate,
		Cache:               cfg.Cache,
		Tracker:             cfg.Tracker,
		DB:                  cfg.DB,
		Transcript:          cfg.Transcript,
		Searcher:            cfg.Searcher,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	mux := http.NewServeMux()

	// Conversation endpoints.
	mux.HandleFunc("POST /v1/chat", h.HandleChat)
	mux.HandleFunc("GET /v1/chat/{session_id}/history", h.HandleHistory)

	// Session endpoints.
	mux.HandleFunc("GET /v1/sessions", h.HandleListSessions)
	mux.HandleFunc("GET /v1/sessions/{session_id}", h.HandleGetSession)
	mux.HandleFunc("DELETE /v1/sessions/{session_id}", h.HandleDeleteSession)

	// Roster.
	mux.HandleFunc("GET /v1/personas", h.HandlePersonas)

	// Business tools.
	mux.HandleFunc("POST /v1/tools/{tool_name}", h.HandleToolInvoke)

	// Admin endpoints, gated by a shared token.
	admin := requireAdminToken(cfg.AdminToken)
	mux.Handle("GET /v1/admin/safety/events", admin(http.HandlerFunc(h.HandleSafetyEvents)))
	mux.Handle("GET /v1/admin/cache/stats", admin(http.HandlerFunc(h.HandleCacheStats)))
	mux.Handle("POST /v1/admin/cache/invalidate", admin(http.HandlerFunc(h.HandleCacheInvalidate)))
	mux.Handle("GET /v1/admin/latency/stats", admin(http.HandlerFunc(h.HandleLatencyStats)))

	// MCP StreamableHTTP transport.
	if cfg.MCPServer != nil {
		mcpHTTP := mcpserver.NewStreamableHTTPServer(cfg.MCPServer)
		mux.Handle("/mcp", mcpHTTP)
	}

	// Health (no auth, no body limit).
	mux.HandleFunc("GET /healthz", h.HandleHealth)

	// Middleware chain (outermost executes first):
	// request ID → tracing → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
