// Package emotion maintains each persona's private emotional memory of the
// user and renders it into prompt context. Persona emotions are independent:
// a tense exchange with one agent leaves the others unaffected.
package emotion

import (
	"fmt"
	"strings"

	"github.com/atelier-ai/maestro/internal/model"
)

// Delta is the emotional effect of one exchange on one persona.
type Delta struct {
	// Relationship shifts the relationship score; the result is clamped
	// to [0, 1].
	Relationship float64
	// Tension increments the tension count. Negative values are ignored;
	// tension only ever rises within a session.
	Tension int
	// Topic replaces the remembered last topic when non-empty.
	Topic string
	// Event, when non-empty, is appended to the memorable-events window.
	Event string
}

// Apply folds a delta into the memory in place.
func Apply(mem *model.EmotionalMemory, d Delta) {
	mem.RelationshipScore = clamp(mem.RelationshipScore + d.Relationship)
	if d.Tension > 0 {
		mem.TensionCount += d.Tension
	}
	if d.Topic != "" {
		mem.LastTopic = d.Topic
	}
	if d.Event != "" {
		mem.MemorableEvents = append(mem.MemorableEvents, d.Event)
		if len(mem.MemorableEvents) > model.MaxMemorableEvents {
			mem.MemorableEvents = mem.MemorableEvents[len(mem.MemorableEvents)-model.MaxMemorableEvents:]
		}
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RenderContext turns a persona's emotional memory into a prompt fragment.
// An empty string means the memory carries nothing worth mentioning.
func RenderContext(personaID model.PersonaID, mem model.EmotionalMemory) string {
	var parts []string

	switch {
	case mem.RelationshipScore < 0.3:
		parts = append(parts, "Your relationship with this person is strained. Be reserved and guarded.")
	case mem.RelationshipScore < 0.5:
		parts = append(parts, "You are somewhat wary of this person.")
	case mem.RelationshipScore > 0.7:
		parts = append(parts, "You have a warm working relationship with this person.")
	}

	if mem.TensionCount >= 3 {
		parts = append(parts, "There has been repeated friction in this conversation. You may redirect them to a colleague if it continues.")
	} else if mem.TensionCount >= 1 {
		parts = append(parts, "There has been some friction recently. Stay alert.")
	}

	if mem.LastTopic != "" {
		parts = append(parts, fmt.Sprintf("The last topic you discussed with them was: %s.", mem.LastTopic))
	}

	if len(mem.MemorableEvents) > 0 {
		recent := mem.MemorableEvents
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		parts = append(parts, "Memorable moments with this person: "+strings.Join(recent, "; ")+".")
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ")
}
