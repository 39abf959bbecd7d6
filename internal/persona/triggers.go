package persona

import (
	"strings"

	"github.com/atelier-ai/maestro/internal/emotion"
	"github.com/atelier-ai/maestro/internal/model"
)

const topicLen = 60

// Hot-button phrases per persona. Hitting one turns the exchange tense and
// costs relationship; an uneventful exchange earns a small amount.
var tensionTriggers = map[model.PersonaID]struct {
	phrases []string
	event   string
}{
	model.PersonaCEO: {
		phrases: []string{"standardiz", "centraliz", "uniform", "same for all"},
		event:   "User proposed standardization; the CEO pushed back",
	},
	model.PersonaCHRO: {
		phrases: []string{"skip anonymity", "no coaching", "ignore feedback"},
		event:   "User dismissed HR best practices; the CHRO was concerned",
	},
	model.PersonaRegionalManager: {
		phrases: []string{"q3 rollout", "september", "rush", "same everywhere"},
		event:   "User pushed an aggressive timeline; the Regional Manager resisted",
	},
}

// Trigger computes the emotional effect of the user's message on the persona
// who answered it. The Mentor keeps no emotional memory.
func Trigger(id model.PersonaID, userMessage string) (emotion.Delta, bool) {
	t, ok := tensionTriggers[id]
	if !ok {
		return emotion.Delta{}, false
	}

	lower := strings.ToLower(userMessage)
	topic := lower
	if len(topic) > topicLen {
		topic = topic[:topicLen]
	}

	d := emotion.Delta{Relationship: 0.05, Topic: topic}
	for _, phrase := range t.phrases {
		if strings.Contains(lower, phrase) {
			d.Relationship = -0.1
			d.Tension = 1
			d.Event = t.event
			break
		}
	}
	return d, true
}

// ConsultTask maps a content persona to the progress key its consultation
// completes.
func ConsultTask(id model.PersonaID) (string, bool) {
	switch id {
	case model.PersonaCEO:
		return model.TaskCEOConsulted, true
	case model.PersonaCHRO:
		return model.TaskCHROConsulted, true
	case model.PersonaRegionalManager:
		return model.TaskRegionalConsulted, true
	default:
		return "", false
	}
}
