package tools

// Competency is one pillar of the VEPT leadership framework.
type Competency struct {
	Description       string              `json:"description"`
	Behaviors         map[string][]string `json:"behaviors"` // keyed by level: junior, mid, senior
	AssessmentMethods []string            `json:"assessment_methods"`
}

// CompetencyResult wraps a framework lookup.
type CompetencyResult struct {
	Framework    string                `json:"framework"`
	Source       string                `json:"source"`
	Competencies map[string]Competency `json:"competencies"`
	Note         string                `json:"note"`
}

var veptFramework = map[string]Competency{
	"Vision": {
		Description: "Ability to see beyond the immediate, anticipate trends, and inspire strategic direction",
		Behaviors: map[string][]string{
			"junior": {
				"Understands maison positioning within market context",
				"Can articulate team goals and their connection to the maison vision",
				"Seeks to understand customer journey and brand touchpoints",
			},
			"mid": {
				"Develops 1-2 year strategic plans for their function",
				"Identifies emerging trends relevant to luxury market",
				"Translates maison vision into operational objectives",
			},
			"senior": {
				"Shapes long-term maison direction (3-5 year horizon)",
				"Anticipates market disruptions and positions the maison accordingly",
				"Influences Group-level strategic decisions",
			},
		},
		AssessmentMethods: []string{"360 feedback", "Strategic presentation", "Case study analysis"},
	},
	"Entrepreneurship": {
		Description: "Drive to innovate, take calculated risks, and create value",
		Behaviors: map[string][]string{
			"junior": {
				"Proposes improvements to existing processes",
				"Shows initiative in problem-solving",
				"Comfortable with ambiguity in new projects",
			},
			"mid": {
				"Launches new initiatives within budget constraints",
				"Takes ownership of innovation projects",
				"Builds business cases for new opportunities",
			},
			"senior": {
				"Creates new revenue streams or market approaches",
				"Challenges status quo at strategic level",
				"Sponsors innovation across the organization",
			},
		},
		AssessmentMethods: []string{"Innovation portfolio review", "Risk-taking history", "P&L ownership"},
	},
	"Passion": {
		Description: "Deep connection to luxury, craftsmanship, and maison heritage",
		Behaviors: map[string][]string{
			"junior": {
				"Demonstrates genuine interest in maison history",
				"Advocates for quality and attention to detail",
				"Engages emotionally with product and customer experience",
			},
			"mid": {
				"Embodies maison values in daily interactions",
				"Inspires team with enthusiasm for the maison mission",
				"Actively protects brand standards",
			},
			"senior": {
				"Serves as cultural ambassador for the maison",
				"Makes decisions that honor heritage while embracing innovation",
				"Creates emotional connection between maison and stakeholders",
			},
		},
		AssessmentMethods: []string{"Cultural fit interview", "Brand knowledge assessment", "Team feedback"},
	},
	"Trust": {
		Description: "Ability to build authentic relationships and foster psychological safety",
		Behaviors: map[string][]string{
			"junior": {
				"Maintains confidentiality and follows through on commitments",
				"Communicates transparently with peers",
				"Admits mistakes and seeks feedback",
			},
			"mid": {
				"Creates safe environment for team to voice concerns",
				"Builds cross-functional relationships",
				"Handles conflict constructively",
			},
			"senior": {
				"Models vulnerability and authenticity at scale",
				"Builds trust across organizational boundaries",
				"Navigates complex stakeholder relationships with integrity",
			},
		},
		AssessmentMethods: []string{"360 feedback on trust", "Team psychological safety survey", "Peer nominations"},
	},
}

// LookupCompetency returns VEPT framework details. An empty competency
// returns all four pillars; a non-empty level keeps only that level's
// behaviors.
func LookupCompetency(competency, level string) CompetencyResult {
	selected := make(map[string]Competency, len(veptFramework))
	if c, ok := veptFramework[competency]; ok {
		selected[competency] = c
	} else {
		for name, c := range veptFramework {
			selected[name] = c
		}
	}

	if level != "" {
		for name, c := range selected {
			if behaviors, ok := c.Behaviors[level]; ok {
				c.Behaviors = map[string][]string{level: behaviors}
				selected[name] = c
			}
		}
	}

	return CompetencyResult{
		Framework:    "VEPT (Vision, Entrepreneurship, Passion, Trust)",
		Source:       "Atelier Group Talent & Leadership Development 2.0",
		Competencies: selected,
		Note:         "Behaviors should be assessed through multiple methods including 360 feedback",
	}
}
