package model

import (
	"time"
)

// Task keys tracked per session. Progress is monotonic: once a key flips to
// true it never reverts for the lifetime of the session.
const (
	TaskProblemStatement   = "problem_statement_written"
	TaskCEOConsulted       = "ceo_consulted"
	TaskCHROConsulted      = "chro_consulted"
	TaskCompetencyModel    = "competency_model_drafted"
	TaskFeedbackProgram    = "360_program_designed"
	TaskRegionalConsulted  = "regional_manager_consulted"
	TaskRolloutPlan        = "rollout_plan_built"
	TaskKPITable           = "kpi_table_defined"
)

// TaskKeys is the fixed ordered set of tracked objectives.
var TaskKeys = []string{
	TaskProblemStatement,
	TaskCEOConsulted,
	TaskCHROConsulted,
	TaskCompetencyModel,
	TaskFeedbackProgram,
	TaskRegionalConsulted,
	TaskRolloutPlan,
	TaskKPITable,
}

// NewTaskProgress returns the all-false starting progress map.
func NewTaskProgress() map[string]bool {
	p := make(map[string]bool, len(TaskKeys))
	for _, k := range TaskKeys {
		p[k] = false
	}
	return p
}

// Turn is a single utterance in a session transcript.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// EmotionalMemory tracks one persona's accumulated disposition toward the
// user within a session. Mutated only by that persona's own turn handler.
type EmotionalMemory struct {
	// RelationshipScore is clamped to [0,1]. 0 = hostile, 1 = trusting.
	RelationshipScore float64 `json:"relationship_score"`
	// TensionCount is a cumulative friction counter; it never decreases.
	TensionCount int `json:"tension_count"`
	// LastTopic is the most recent truncated topic string.
	LastTopic string `json:"last_topic"`
	// MemorableEvents holds the 5 most recent notable events, oldest evicted.
	MemorableEvents []string `json:"memorable_events"`
}

// MaxMemorableEvents bounds EmotionalMemory.MemorableEvents.
const MaxMemorableEvents = 5

// NewEmotionalMemory returns the neutral starting disposition.
func NewEmotionalMemory() EmotionalMemory {
	return EmotionalMemory{RelationshipScore: 0.5}
}

// ApproachStyle is the detected user communication style.
type ApproachStyle string

const (
	ApproachUnknown       ApproachStyle = "unknown"
	ApproachCollaborative ApproachStyle = "collaborative"
	ApproachAggressive    ApproachStyle = "aggressive"
	ApproachPassive       ApproachStyle = "passive"
	ApproachAnalytical    ApproachStyle = "analytical"
)

// Session is the full mutable state of one conversation. A published session
// is never mutated in place; the engine works on clones and swaps them in.
type Session struct {
	ID               string                        `json:"session_id"`
	UserID           string                        `json:"user_id"`
	Turns            []Turn                        `json:"turns"`
	PreviousSpeaker  PersonaID                     `json:"previous_speaker"`
	SentimentScore   float64                       `json:"sentiment_score"`
	TurnCount        int                           `json:"turn_count"`
	StuckCounter     int                           `json:"stuck_counter"`
	TaskProgress     map[string]bool               `json:"task_progress"`
	AgentEmotions    map[PersonaID]EmotionalMemory `json:"agent_emotions"`
	ApproachStyle    ApproachStyle                 `json:"user_approach_style"`
	RepeatedMistakes []string                      `json:"repeated_mistakes"`
	Narrative        string                        `json:"session_narrative"`
	CreatedAt        time.Time                     `json:"created_at"`
	UpdatedAt        time.Time                     `json:"updated_at"`
}

// NewSession creates a fresh session with neutral defaults.
func NewSession(id, userID string) *Session {
	now := time.Now().UTC()
	emotions := make(map[PersonaID]EmotionalMemory, len(ContentPersonas))
	for _, p := range ContentPersonas {
		emotions[p] = NewEmotionalMemory()
	}
	return &Session{
		ID:             id,
		UserID:         userID,
		SentimentScore: 0.5,
		TaskProgress:   NewTaskProgress(),
		AgentEmotions:  emotions,
		ApproachStyle:  ApproachUnknown,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Normalize substitutes neutral defaults for malformed or missing fields so a
// corrupted session never crashes a turn. It reports whether any repair was
// needed so the caller can log the invariant violation.
func (s *Session) Normalize() bool {
	repaired := false
	if s.SentimentScore < 0 || s.SentimentScore > 1 {
		s.SentimentScore = 0.5
		repaired = true
	}
	if s.TurnCount < 0 {
		s.TurnCount = 0
		repaired = true
	}
	if s.StuckCounter < 0 {
		s.StuckCounter = 0
		repaired = true
	}
	if s.TaskProgress == nil {
		s.TaskProgress = NewTaskProgress()
		repaired = true
	}
	if s.AgentEmotions == nil {
		s.AgentEmotions = make(map[PersonaID]EmotionalMemory, len(ContentPersonas))
		repaired = true
	}
	for _, p := range ContentPersonas {
		if _, ok := s.AgentEmotions[p]; !ok {
			s.AgentEmotions[p] = NewEmotionalMemory()
			repaired = true
		}
	}
	if s.ApproachStyle == "" {
		s.ApproachStyle = ApproachUnknown
		repaired = true
	}
	return repaired
}

// Clone returns a deep copy of the session. Turn processing mutates a clone
// and commits it back in one step so a cancelled turn leaves the stored
// session untouched.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Turns = append([]Turn(nil), s.Turns...)
	cp.TaskProgress = make(map[string]bool, len(s.TaskProgress))
	for k, v := range s.TaskProgress {
		cp.TaskProgress[k] = v
	}
	cp.AgentEmotions = make(map[PersonaID]EmotionalMemory, len(s.AgentEmotions))
	for k, v := range s.AgentEmotions {
		v.MemorableEvents = append([]string(nil), v.MemorableEvents...)
		cp.AgentEmotions[k] = v
	}
	cp.RepeatedMistakes = append([]string(nil), s.RepeatedMistakes...)
	return &cp
}

// RecentText joins the text of the last n turns, lowercased by callers as
// needed. Used by the Director's progress scan.
func (s *Session) RecentText(n int) []string {
	start := len(s.Turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, len(s.Turns)-start)
	for _, t := range s.Turns[start:] {
		out = append(out, t.Text)
	}
	return out
}
