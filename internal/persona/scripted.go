package persona

import (
	"context"
	"strings"

	"github.com/atelier-ai/maestro/internal/model"
)

// ScriptedGenerator answers from canned persona lines, keyed on what the
// prompt asks about. It keeps the demo binary and the test suite independent
// of any API credential.
type ScriptedGenerator struct{}

func NewScriptedGenerator() *ScriptedGenerator { return &ScriptedGenerator{} }

type scriptedLine struct {
	keywords []string
	text     string
}

var scriptedLines = map[model.PersonaID][]scriptedLine{
	model.PersonaCEO: {
		{[]string{"dna", "mission", "vision", "strategy"}, "Our Group DNA rests on Craftsmanship, Heritage, Innovation, and Maison Autonomy. Every decision you propose should strengthen those four, not dilute them."},
		{[]string{"standardiz", "centraliz", "uniform"}, "Each maison is a universe unto itself. We unify on values, not on process."},
		{[]string{"budget"}, "Budget follows conviction. Show me a plan that respects maison autonomy and the funding conversation becomes easy."},
	},
	model.PersonaCHRO: {
		{[]string{"pillar", "vept", "competenc"}, "The four pillars are Vision, Entrepreneurship, Passion, and Trust. Each is defined by behavioral indicators at Junior, Mid, and Senior levels."},
		{[]string{"360", "feedback", "rater"}, "The 360 design uses manager, peer, and direct-report rater groups on a five-point scale, with anonymity for everyone except the manager."},
		{[]string{"coach"}, "Coaching is an ICF-certified three-session arc: goal setting, practice review, and consolidation."},
	},
	model.PersonaRegionalManager: {
		{[]string{"rollout", "timeline", "phase"}, "Realistic phasing is a Q1 pilot, a Q2 iteration, and a full cascade in Q4. France and Italy are furthest along, so pilot there."},
		{[]string{"q3", "september"}, "Pulling managers into workshops in September? Non-starter. That's peak season across every maison."},
		{[]string{"train", "champion"}, "Local HR champions with a train-the-trainer setup scale far better than flying one central team around Europe."},
	},
	model.PersonaMentor: {
		{[]string{"stuck", "help", "hint", "next"}, "Try the CHRO next. The competency pillars anchor everything else you'll design."},
	},
}

var scriptedDefaults = map[model.PersonaID]string{
	model.PersonaCEO:             "Bring me something concrete and I'll give you a straight answer. What part of the program are you shaping right now?",
	model.PersonaCHRO:            "Happy to dig into that. Which piece of the framework are you working on: the pillars, the 360 design, or coaching?",
	model.PersonaRegionalManager: "From the field view, the details matter. Tell me which region or phase you have in mind and I'll be specific.",
	model.PersonaMentor:          "You're making progress. Pick the open task that blocks the others and talk to the person who owns it.",
}

func (s *ScriptedGenerator) Generate(_ context.Context, req Request) (string, error) {
	if req.Profile == nil {
		return "", nil
	}
	lower := strings.ToLower(req.UserMessage)
	for _, line := range scriptedLines[req.Profile.ID] {
		for _, kw := range line.keywords {
			if strings.Contains(lower, kw) {
				return line.text, nil
			}
		}
	}
	return scriptedDefaults[req.Profile.ID], nil
}
