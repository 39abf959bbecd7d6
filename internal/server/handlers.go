package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atelier-ai/maestro/internal/engine"
	"github.com/atelier-ai/maestro/internal/knowledge"
	"github.com/atelier-ai/maestro/internal/latency"
	"github.com/atelier-ai/maestro/internal/model"
	"github.com/atelier-ai/maestro/internal/persona"
	"github.com/atelier-ai/maestro/internal/rescache"
	"github.com/atelier-ai/maestro/internal/safety"
	"github.com/atelier-ai/maestro/internal/storage"
	"github.com/atelier-ai/maestro/internal/tools"
	"github.com/atelier-ai/maestro/internal/transcript"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	engine     *engine.Engine
	gate       *safety.Gate
	cache      *rescache.Manager
	tracker    *latency.Tracker
	db         *storage.DB
	transcript *transcript.Store
	searcher   knowledge.Searcher
	logger     *slog.Logger

	version     string
	maxBodySize int64
	startTime   time.Time
}

// HandlersDeps holds dependencies for NewHandlers.
type HandlersDeps struct {
	Engine              *engine.Engine
	Gate                *safety.Gate
	Cache               *rescache.Manager
	Tracker             *latency.Tracker
	DB                  *storage.DB
	Transcript          *transcript.Store
	Searcher            knowledge.Searcher
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
}

// NewHandlers creates the handler set.
func NewHandlers(deps HandlersDeps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxRequestBodyBytes <= 0 {
		deps.MaxRequestBodyBytes = 64 * 1024
	}
	return &Handlers{
		engine:      deps.Engine,
		gate:        deps.Gate,
		cache:       deps.Cache,
		tracker:     deps.Tracker,
		db:          deps.DB,
		transcript:  deps.Transcript,
		searcher:    deps.Searcher,
		logger:      deps.Logger,
		version:     deps.Version,
		maxBodySize: deps.MaxRequestBodyBytes,
		startTime:   time.Now(),
	}
}

// HandleChat processes one user message through the conversation engine.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req model.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" || req.UserID == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "session_id, user_id, and message are required")
		return
	}
	if req.Persona != "" && !model.IsContentPersona(req.Persona) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "persona must be CEO, CHRO, or RegionalManager")
		return
	}

	if h.db != nil {
		if err := h.db.UpsertUser(r.Context(), req.UserID); err != nil {
			h.logger.Warn("user upsert failed", "user_id", req.UserID, "error", err)
		}
	}

	start := time.Now()
	result, err := h.engine.HandleTurn(r.Context(), req.UserID, req.SessionID, req.Message, req.Persona)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.logger.Error("turn failed", "session_id", req.SessionID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "turn failed")
		return
	}

	if h.db != nil {
		h.logInteraction(r.Context(), req, result, time.Since(start))
	}

	status := http.StatusOK
	if result.Blocked && result.BlockedReason == "rate_limited" {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, r, status, result)
}

func (h *Handlers) logInteraction(ctx context.Context, req model.ChatRequest, res *engine.TurnResult, elapsed time.Duration) {
	err := h.db.LogInteraction(ctx, storage.Interaction{
		SessionID:     req.SessionID,
		UserID:        req.UserID,
		Persona:       res.Persona,
		Message:       req.Message,
		Response:      res.Response,
		Blocked:       res.Blocked,
		CacheHit:      res.CacheHit,
		HintTriggered: res.HintTriggered,
		LatencyMS:     float64(elapsed.Microseconds()) / 1000,
	})
	if err != nil {
		h.logger.Warn("interaction log failed", "session_id", req.SessionID, "error", err)
	}
}

// HandleHistory returns the replayable transcript for a session.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	limit := queryInt(r, "limit", 0)

	if h.transcript != nil {
		entries, err := h.transcript.History(r.Context(), sessionID, limit)
		if err != nil {
			h.logger.Error("history query failed", "session_id", sessionID, "error", err)
			writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "history query failed")
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{
			"session_id": sessionID,
			"entries":    entries,
		})
		return
	}

	// No transcript store: serve the in-memory session turns.
	sess, err := h.engine.Session(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "session not found")
		return
	}
	turns := sess.Turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      turns,
	})
}

// HandleGetSession returns the full orchestration state of a session.
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	sess, err := h.engine.Session(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "session not found")
		return
	}
	writeJSON(w, r, http.StatusOK, sess)
}

// HandleDeleteSession drops a session from memory and its durable records.
func (h *Handlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	h.engine.DeleteSession(sessionID)

	if h.db != nil {
		if err := h.db.DeleteSession(r.Context(), sessionID); err != nil {
			h.logger.Warn("session row delete failed", "session_id", sessionID, "error", err)
		}
	}
	if h.transcript != nil {
		if err := h.transcript.Purge(r.Context(), sessionID); err != nil {
			h.logger.Warn("transcript purge failed", "session_id", sessionID, "error", err)
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"deleted": sessionID})
}

// HandleListSessions lists stored sessions for a user, most recent first.
func (h *Handlers) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "session persistence is disabled")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "user_id is required")
		return
	}
	sessions, err := h.db.ListSessions(r.Context(), userID, queryInt(r, "limit", 0))
	if err != nil {
		h.logger.Error("session list failed", "user_id", userID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "session list failed")
		return
	}
	writeJSON(w, r, http.StatusOK, sessions)
}

// HandlePersonas returns the simulation roster.
func (h *Handlers) HandlePersonas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, persona.All())
}

// HandleToolInvoke runs one of the simulated business tools.
func (h *Handlers) HandleToolInvoke(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	name := r.PathValue("tool_name")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "unreadable request body")
		return
	}

	out, err := tools.Invoke(r.Context(), name, json.RawMessage(body))
	if err != nil {
		if strings.Contains(err.Error(), "unknown tool") {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, err.Error())
			return
		}
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

// HandleHealth reports liveness plus backend reachability.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := model.HealthResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  int64(time.Since(h.startTime).Seconds()),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		resp.Postgres = "ok"
		if err := h.db.Ping(ctx); err != nil {
			resp.Postgres = "unreachable"
			resp.Status = "degraded"
		}
	}
	if h.searcher != nil {
		resp.Qdrant = "ok"
		if err := h.searcher.Healthy(ctx); err != nil {
			resp.Qdrant = "unreachable"
			resp.Status = "degraded"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
