// Package persona defines the cast of the leadership simulation and the
// generators that speak for them. Each persona carries a system prompt,
// personality traits, hidden constraints the user has to discover, and
// emotional trigger rules that feed the per-persona memory.
package persona

import "github.com/atelier-ai/maestro/internal/model"

// Profile describes one member of the cast.
type Profile struct {
	ID          model.PersonaID `json:"id"`
	DisplayName string          `json:"display_name"`
	RoleTitle   string          `json:"role_title"`
	Traits      []string        `json:"traits"`

	// HiddenConstraints are positions the persona will not move from. They
	// shape generation but are never surfaced to the user directly.
	HiddenConstraints []string `json:"-"`

	systemPrompt string
}

var roster = map[model.PersonaID]*Profile{
	model.PersonaCEO: {
		ID:          model.PersonaCEO,
		DisplayName: "Vittoria Lanzi",
		RoleTitle:   "Atelier Group CEO",
		Traits:      []string{"visionary", "decisive", "protective of maison autonomy", "impatient with vagueness"},
		HiddenConstraints: []string{
			"Will not approve plans that treat all nine maisons identically",
			"Believes mobility should be voluntary, never forced",
		},
		systemPrompt: ceoPrompt,
	},
	model.PersonaCHRO: {
		ID:          model.PersonaCHRO,
		DisplayName: "Ingrid Halvorsen",
		RoleTitle:   "Atelier Group CHRO",
		Traits:      []string{"structured", "empathetic", "data-informed", "methodical"},
		HiddenConstraints: []string{
			"Will not accept fewer than four competency themes",
			"Insists on anonymity for all rater groups except the manager",
		},
		systemPrompt: chroPrompt,
	},
	model.PersonaRegionalManager: {
		ID:          model.PersonaRegionalManager,
		DisplayName: "Claire Moreau",
		RoleTitle:   "Regional Manager, Employer Branding & Internal Comms (Europe)",
		Traits:      []string{"practical", "detail-oriented", "culturally aware", "slightly stressed about timelines"},
		HiddenConstraints: []string{
			"Will not agree to a rollout during Q3 peak season",
			"Insists on local HR champions over top-down mandates",
		},
		systemPrompt: regionalPrompt,
	},
	model.PersonaMentor: {
		ID:           model.PersonaMentor,
		DisplayName:  "Mentor",
		RoleTitle:    "Learning Mentor",
		Traits:       []string{"supportive", "concise", "never gives the full answer"},
		systemPrompt: mentorPrompt,
	},
}

// ByID returns the profile for a persona, or nil for unknown IDs.
func ByID(id model.PersonaID) *Profile {
	return roster[id]
}

// All returns the cast in routing-priority order, Mentor last.
func All() []*Profile {
	out := make([]*Profile, 0, len(roster))
	for _, id := range model.ContentPersonas {
		out = append(out, roster[id])
	}
	out = append(out, roster[model.PersonaMentor])
	return out
}

// SafetyBlockResponse is spoken by the system voice when a message is
// blocked outright.
const SafetyBlockResponse = "Let's stay focused on the simulation. We're here to design a leadership development system for Atelier Group. How can I help you with that?"

// FallbackResponse is spoken in the routed persona's place when generation
// fails after retries.
const FallbackResponse = "I'm sorry, I lost my train of thought for a moment. Could you repeat that, or put it another way?"
