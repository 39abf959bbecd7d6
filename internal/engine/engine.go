// Package engine is the per-turn decision pipeline: safety screening,
// persona routing, progress direction, cached or generated responses, and
// all-or-nothing session commits.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atelier-ai/maestro/internal/emotion"
	"github.com/atelier-ai/maestro/internal/latency"
	"github.com/atelier-ai/maestro/internal/model"
	"github.com/atelier-ai/maestro/internal/persona"
	"github.com/atelier-ai/maestro/internal/rescache"
	"github.com/atelier-ai/maestro/internal/safety"
)

// ErrSessionNotFound is returned by session accessors for unknown sessions.
var ErrSessionNotFound = errors.New("engine: session not found")

// Retriever fetches knowledge context for a persona's answer. An error is a
// transient dependency failure: the turn proceeds without context.
type Retriever interface {
	Retrieve(ctx context.Context, id model.PersonaID, query string) (string, error)
}

// TranscriptSink receives turn appends after a successful commit,
// best-effort.
type TranscriptSink interface {
	Append(ctx context.Context, sessionID, userID string, turns []model.Turn) error
}

// TurnResult is the outcome of one user message.
type TurnResult struct {
	SessionID string          `json:"session_id"`
	Persona   model.PersonaID `json:"persona"`
	Response  string          `json:"response"`
	TurnCount int             `json:"turn_count"`

	Blocked       bool           `json:"blocked"`
	BlockedReason string         `json:"blocked_reason,omitempty"`
	Severity      model.Severity `json:"severity,omitempty"`

	CacheHit      bool     `json:"cache_hit"`
	HintTriggered bool     `json:"hint_triggered"`
	Flags         []string `json:"flags,omitempty"`

	State     *TurnState `json:"state,omitempty"`
	LatencyMS float64    `json:"latency_ms"`
}

// TurnState is the post-turn session snapshot returned with each result.
// Blocked turns report the pre-turn state, since they commit nothing.
type TurnState struct {
	SentimentScore float64         `json:"sentiment_score"`
	StuckCounter   int             `json:"stuck_counter"`
	TaskProgress   map[string]bool `json:"task_progress"`
}

func snapshotState(s *model.Session) *TurnState {
	progress := make(map[string]bool, len(s.TaskProgress))
	for k, v := range s.TaskProgress {
		progress[k] = v
	}
	return &TurnState{
		SentimentScore: s.SentimentScore,
		StuckCounter:   s.StuckCounter,
		TaskProgress:   progress,
	}
}

// Engine wires the pipeline together. All fields except Store, Transcript,
// and Classifier are required.
type Engine struct {
	gate       *safety.Gate
	supervisor *Supervisor
	director   *Director
	generator  persona.Generator
	cache      *rescache.Manager
	tracker    *latency.Tracker
	retriever  Retriever
	store      SessionStore
	transcript TranscriptSink
	registry   *registry
	logger     *slog.Logger

	generateTimeout time.Duration
}

// Options carries the engine's collaborators.
type Options struct {
	Gate            *safety.Gate
	Classifier      Classifier
	Generator       persona.Generator
	Cache           *rescache.Manager
	Tracker         *latency.Tracker
	Retriever       Retriever
	Store           SessionStore
	Transcript      TranscriptSink
	Logger          *slog.Logger
	GenerateTimeout time.Duration
}

func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.GenerateTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Engine{
		gate:            opts.Gate,
		supervisor:      NewSupervisor(opts.Classifier, logger),
		director:        NewDirector(logger),
		generator:       opts.Generator,
		cache:           opts.Cache,
		tracker:         opts.Tracker,
		retriever:       opts.Retriever,
		store:           opts.Store,
		transcript:      opts.Transcript,
		registry:        newRegistry(),
		logger:          logger.With("component", "engine"),
		generateTimeout: timeout,
	}
}

// HandleTurn processes one user message end to end. The session lock is
// held only to read state and to commit, never across generation, so slow
// turns on the same session overlap; a turn whose context is cancelled
// commits nothing.
func (e *Engine) HandleTurn(ctx context.Context, userID, sessionID, message string, explicitTarget model.PersonaID) (*TurnResult, error) {
	turnStart := time.Now()
	defer func() { e.tracker.Record(latency.StageTotal, time.Since(turnStart)) }()

	safetyStart := time.Now()
	verdict := e.gate.Evaluate(message, userID, true)
	e.tracker.Record(latency.StageSafety, time.Since(safetyStart))

	lock := e.registry.lock(sessionID)
	lock.Lock()
	stored, err := e.registry.get(ctx, e.store, sessionID, userID)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("engine: load session %s: %w", sessionID, err)
	}
	if stored.Normalize() {
		e.logger.Error("session state repaired", "session_id", sessionID)
	}

	if !verdict.IsSafe {
		blocked := blockedResult(sessionID, stored.TurnCount, verdict)
		blocked.State = snapshotState(stored)
		lock.Unlock()
		blocked.LatencyMS = float64(time.Since(turnStart).Microseconds()) / 1000
		return blocked, nil
	}

	// All routing and generation works on a private clone of the state
	// read above; the lock is released so other turns on this session can
	// proceed while the generator runs.
	sess := stored.Clone()
	lock.Unlock()

	routeStart := time.Now()
	target, explicit := e.supervisor.Route(ctx, sess, verdict.Sanitized, explicitTarget)
	hint := e.director.Check(sess, verdict.Sanitized, explicit)
	e.tracker.Record(latency.StageRouting, time.Since(routeStart))

	if hint {
		target = model.PersonaMentor
	}
	profile := persona.ByID(target)
	if profile == nil {
		return nil, fmt.Errorf("engine: no profile for persona %q", target)
	}

	result := &TurnResult{
		SessionID:     sessionID,
		Persona:       target,
		HintTriggered: hint,
	}
	if verdict.CharacterBreak {
		result.Flags = append(result.Flags, "character_break")
	}
	if verdict.Manipulation {
		result.Flags = append(result.Flags, "manipulation")
	}

	cacheStart := time.Now()
	response, cacheHit := e.cache.Get(target, verdict.Sanitized)
	e.tracker.Record(latency.StageCache, time.Since(cacheStart))
	result.CacheHit = cacheHit

	if !cacheHit {
		response, err = e.generate(ctx, sess, profile, verdict.Sanitized)
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled turn: commit nothing.
				return nil, ctx.Err()
			}
			if errors.Is(err, persona.ErrGenerationTimeout) {
				e.logger.Error("generation timed out", "session_id", sessionID, "persona", string(target))
			} else {
				e.logger.Error("generation failed", "session_id", sessionID, "persona", string(target), "error", err)
			}
			response = persona.FallbackResponse
		} else {
			if clean, reasons := e.gate.ScreenResponse(target, response); !clean {
				result.Flags = append(result.Flags, reasons...)
			}
			e.cache.Put(target, verdict.Sanitized, response)
		}
	}
	result.Response = response

	e.applyPersonaEffects(sess, target, verdict.Sanitized)
	e.appendTurns(sess, message, target, response)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Reacquire the lock to commit. If no other turn committed while the
	// generator ran, the clone supersedes the stored session directly;
	// otherwise this turn's changes replay onto the fresher state.
	lock.Lock()
	current, err := e.registry.get(ctx, e.store, sessionID, userID)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("engine: reload session %s: %w", sessionID, err)
	}
	final := sess
	if current != stored {
		final = current.Clone()
		final.TurnCount++
		e.director.Check(final, verdict.Sanitized, explicit)
		e.applyPersonaEffects(final, target, verdict.Sanitized)
		e.appendTurns(final, message, target, response)
	}
	e.commit(ctx, final)
	result.TurnCount = final.TurnCount
	result.State = snapshotState(final)
	lock.Unlock()

	result.LatencyMS = float64(time.Since(turnStart).Microseconds()) / 1000
	return result, nil
}

// generate assembles the prompt and calls the generator under its own
// deadline. Retrieval failures degrade to an answer without context.
func (e *Engine) generate(ctx context.Context, sess *model.Session, profile *persona.Profile, message string) (string, error) {
	var knowledgeCtx string
	if e.retriever != nil {
		retrStart := time.Now()
		kc, err := e.retriever.Retrieve(ctx, profile.ID, message)
		e.tracker.Record(latency.StageRetrieval, time.Since(retrStart))
		if err != nil {
			e.logger.Warn("retrieval failed, answering without context",
				"session_id", sess.ID, "persona", string(profile.ID), "error", err)
		} else {
			knowledgeCtx = kc
		}
	}

	var emotionCtx string
	if mem, ok := sess.AgentEmotions[profile.ID]; ok {
		emotionCtx = emotion.RenderContext(profile.ID, mem)
	}

	prompt := profile.BuildPrompt(persona.PromptInput{
		KnowledgeContext: knowledgeCtx,
		EmotionContext:   emotionCtx,
		TaskProgress:     sess.TaskProgress,
		History:          sess.Turns,
	})

	genCtx, cancel := context.WithTimeout(ctx, e.generateTimeout)
	defer cancel()

	genStart := time.Now()
	response, err := e.generator.Generate(genCtx, persona.Request{
		Profile:     profile,
		Prompt:      prompt,
		UserMessage: message,
	})
	e.tracker.Record(latency.StageGeneration, time.Since(genStart))
	return response, err
}

// applyPersonaEffects folds the responding persona's emotional reaction and
// consultation progress into the clone.
func (e *Engine) applyPersonaEffects(sess *model.Session, target model.PersonaID, message string) {
	if d, ok := persona.Trigger(target, message); ok {
		mem := sess.AgentEmotions[target]
		emotion.Apply(&mem, d)
		sess.AgentEmotions[target] = mem
	}
	if task, ok := persona.ConsultTask(target); ok {
		sess.TaskProgress[task] = true
	}
}

func (e *Engine) appendTurns(sess *model.Session, userMessage string, speaker model.PersonaID, response string) {
	now := time.Now().UTC()
	sess.Turns = append(sess.Turns,
		model.Turn{Speaker: model.SpeakerUser, Text: userMessage, Timestamp: now},
		model.Turn{Speaker: model.SpeakerFor(speaker), Text: response, Timestamp: now},
	)
	if model.IsContentPersona(speaker) {
		sess.PreviousSpeaker = speaker
	}
	sess.UpdatedAt = now
}

// commit replaces the stored session with the mutated clone and pushes
// best-effort writes to the durable store and transcript.
func (e *Engine) commit(ctx context.Context, sess *model.Session) {
	e.registry.put(sess)

	persistStart := time.Now()
	defer func() { e.tracker.Record(latency.StagePersist, time.Since(persistStart)) }()

	if e.store != nil {
		if err := e.store.SaveSession(ctx, sess); err != nil {
			e.logger.Warn("session persist failed", "session_id", sess.ID, "error", err)
		}
	}
	if e.transcript != nil {
		turns := sess.Turns[len(sess.Turns)-2:]
		if err := e.transcript.Append(ctx, sess.ID, sess.UserID, turns); err != nil {
			e.logger.Warn("transcript append failed", "session_id", sess.ID, "error", err)
		}
	}
}

func blockedResult(sessionID string, turnCount int, v model.SafetyVerdict) *TurnResult {
	response := v.SuggestedResponse
	if response == "" {
		response = persona.SafetyBlockResponse
	}
	return &TurnResult{
		SessionID:     sessionID,
		Persona:       model.PersonaSystem,
		Response:      response,
		TurnCount:     turnCount,
		Blocked:       true,
		BlockedReason: v.BlockedReason,
		Severity:      v.Severity,
	}
}

// Session returns a deep copy of the live session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*model.Session, error) {
	if s, ok := e.registry.peek(sessionID); ok {
		return s.Clone(), nil
	}
	if e.store != nil {
		s, err := e.store.LoadSession(ctx, sessionID)
		if err == nil {
			return s, nil
		}
	}
	return nil, ErrSessionNotFound
}

// DeleteSession drops the live session. The durable record is the caller's
// concern.
func (e *Engine) DeleteSession(sessionID string) {
	e.registry.drop(sessionID)
}
