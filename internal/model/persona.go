package model

// PersonaID identifies one of the fixed scripted co-worker roles.
// The set is closed: personas are compiled in, not registered dynamically.
type PersonaID string

const (
	// Content personas — valid Supervisor outputs and explicit user targets.
	PersonaCEO             PersonaID = "CEO"
	PersonaCHRO            PersonaID = "CHRO"
	PersonaRegionalManager PersonaID = "RegionalManager"

	// PersonaMentor is the helper persona. It is reachable only through a
	// Director override, never through routing or explicit selection.
	PersonaMentor PersonaID = "Mentor"

	// PersonaSystem tags engine-authored turns (safety blocks, fallbacks).
	PersonaSystem PersonaID = "System"
)

// ContentPersonas lists the personas a user may address directly, in the
// fixed priority order used to break keyword-scoring ties.
var ContentPersonas = []PersonaID{PersonaCEO, PersonaCHRO, PersonaRegionalManager}

// IsContentPersona reports whether id names a directly addressable persona.
func IsContentPersona(id PersonaID) bool {
	for _, p := range ContentPersonas {
		if p == id {
			return true
		}
	}
	return false
}

// Speaker is a turn's author tag: a PersonaID, SpeakerUser, or PersonaSystem.
type Speaker string

const SpeakerUser Speaker = "user"

// SpeakerFor converts a persona id to its speaker tag.
func SpeakerFor(id PersonaID) Speaker { return Speaker(id) }
