package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atelier-ai/maestro/internal/model"
)

// Classifier decides which persona should answer, given recent conversation
// context. An error or an out-of-set answer sends routing to the keyword
// fallback.
type Classifier interface {
	Classify(ctx context.Context, in ClassifyInput) (model.PersonaID, error)
}

// ClassifyInput is the routing context handed to a Classifier.
type ClassifyInput struct {
	RecentTurns     []model.Turn
	TaskProgress    map[string]bool
	PreviousSpeaker model.PersonaID
	Message         string
}

// Domain keyword sets for fallback routing, in tie-break priority order.
var routingKeywords = []struct {
	id       model.PersonaID
	keywords []string
}{
	{model.PersonaCEO, []string{
		"strategy", "strategic", "brand dna", "group dna", "mission",
		"culture", "autonomy", "vision", "budget", "maison",
	}},
	{model.PersonaCHRO, []string{
		"hr", "competency", "competencies", "framework", "360", "feedback",
		"coaching", "talent", "pillar", "pillars", "anonymity",
	}},
	{model.PersonaRegionalManager, []string{
		"regional", "rollout", "europe", "training", "logistics",
		"local", "italy", "france", "timeline", "pilot",
	}},
}

// Supervisor routes each user message to a content persona. The Mentor is
// never a Supervisor decision; only the Director can summon the Mentor.
type Supervisor struct {
	classifier Classifier
	logger     *slog.Logger
}

func NewSupervisor(classifier Classifier, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{classifier: classifier, logger: logger.With("component", "supervisor")}
}

// Route picks the persona for this turn and increments the session's turn
// counter. The explicit return reports whether the user named the persona
// themselves, which suppresses the Director's override.
func (s *Supervisor) Route(ctx context.Context, sess *model.Session, message string, explicitTarget model.PersonaID) (model.PersonaID, bool) {
	sess.TurnCount++

	if explicitTarget != "" {
		if model.IsContentPersona(explicitTarget) {
			s.logger.Info("user selected persona", "session_id", sess.ID, "persona", string(explicitTarget))
			return explicitTarget, true
		}
		s.logger.Warn("invalid explicit target, falling through to routing",
			"session_id", sess.ID, "target", string(explicitTarget))
	}

	if s.classifier != nil {
		decision, err := s.classifier.Classify(ctx, ClassifyInput{
			RecentTurns:     sess.Turns,
			TaskProgress:    sess.TaskProgress,
			PreviousSpeaker: sess.PreviousSpeaker,
			Message:         message,
		})
		if err == nil && model.IsContentPersona(decision) {
			s.logger.Info("classifier routed", "session_id", sess.ID, "persona", string(decision))
			return decision, false
		}
		if err != nil {
			s.logger.Warn("classifier unavailable, using keyword fallback",
				"session_id", sess.ID, "error", err)
		} else {
			s.logger.Warn("classifier returned out-of-set decision, using keyword fallback",
				"session_id", sess.ID, "decision", string(decision))
		}
	}

	decision := fallbackRoute(message)
	s.logger.Info("keyword fallback routed", "session_id", sess.ID, "persona", string(decision))
	return decision, false
}

// fallbackRoute scores the message against each persona's keyword set. Ties
// break by priority order; a zero score defaults to the CEO.
func fallbackRoute(message string) model.PersonaID {
	lower := strings.ToLower(message)

	best := model.PersonaID("")
	bestScore := 0
	for _, set := range routingKeywords {
		score := 0
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = set.id, score
		}
	}
	if bestScore > 0 {
		return best
	}
	return model.PersonaCEO
}

// routingPrompt renders the classifier prompt for LLM-backed classifiers.
func routingPrompt(in ClassifyInput) string {
	var b strings.Builder
	b.WriteString(`You are an invisible routing director for a leadership simulation.
Decide which co-worker should answer the user's latest message.

ROUTING RULES (in priority order):
1. Strategy, Group DNA, mission, culture, autonomy, vision, budget -> CEO
2. HR, competency framework, 360 feedback, coaching, talent, pillars -> CHRO
3. Regional rollout, Europe, training logistics, local challenges -> RegionalManager
4. Only if the message is a follow-up on the same topic and matches no rule above, keep the previous speaker.

Content match always beats sticky routing.

Respond with exactly one of: CEO | CHRO | RegionalManager

`)
	if len(in.RecentTurns) > 0 {
		b.WriteString("CONVERSATION HISTORY:\n")
		recent := in.RecentTurns
		if len(recent) > 10 {
			recent = recent[len(recent)-10:]
		}
		for _, t := range recent {
			text := t.Text
			if len(text) > 200 {
				text = text[:200]
			}
			fmt.Fprintf(&b, "%s: %s\n", t.Speaker, text)
		}
	}
	fmt.Fprintf(&b, "\nPREVIOUS SPEAKER: %s\n", orNone(string(in.PreviousSpeaker)))
	fmt.Fprintf(&b, "\nUSER'S MESSAGE: %s\n\nYOUR ROUTING DECISION:", in.Message)
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
