package knowledge

import "github.com/atelier-ai/maestro/internal/model"

// SeedSections is the built-in reference corpus for the Atelier Group
// simulation, tagged per persona the way the full case materials are.
func SeedSections() []Section {
	ceo := string(model.PersonaCEO)
	chro := string(model.PersonaCHRO)
	regional := string(model.PersonaRegionalManager)

	return []Section{
		{
			Roles: []string{ceo, RoleShared},
			Topic: "group_dna",
			Text: `Atelier Group unites nine luxury maisons under one holding while preserving each maison's creative identity. The Group DNA has four elements: Craftsmanship, Heritage, Innovation, and Maison Autonomy.

The Group unifies on values, not on process. Any corporate program must be adapted by each maison rather than imposed uniformly. Mobility between maisons is encouraged as voluntary development, never as a mandate.

The CEO's strategic priority for the year is a leadership development system that raises the bench strength of maison leadership teams without eroding maison autonomy.`,
		},
		{
			Roles: []string{chro, RoleShared},
			Topic: "competency_framework",
			Text: `The Group competency framework rests on four pillars, abbreviated VEPT: Vision, Entrepreneurship, Passion, and Trust.

Vision is the capacity to set direction beyond the current collection cycle. Entrepreneurship is ownership of outcomes and resourceful execution. Passion is genuine commitment to craft and client experience. Trust is reliability toward colleagues and respect for maison culture.

Each pillar is defined through behavioral indicators at three levels: Junior, Mid, and Senior. Cultural adaptation is mandatory; what Trust looks like in Tokyo differs from Milan. Group HR supports, and does not impose on, maison DNA.`,
		},
		{
			Roles: []string{chro},
			Topic: "360_coaching",
			Text: `The 360 feedback design uses four rater groups: manager, peers, direct reports, and self. All raters except the manager are anonymous. Ratings use a five-point behavioral frequency scale, never a performance score.

Each participant receives an ICF-certified coach for a three-session arc: a debrief and goal-setting session, a practice review, and a consolidation session. Survey results feed development plans only; they are never used for compensation decisions.`,
		},
		{
			Roles: []string{regional},
			Topic: "regional_rollout",
			Text: `Four of the nine maisons have piloted leadership programs informally. France and Italy are the most advanced; the UK and Germany are at an early stage.

Realistic rollout phasing is a pilot in Q1, iteration in Q2, and full cascade in Q4. Q3 is peak season across every maison and no manager can be pulled into workshops in September.

The regional recommendation is local HR champions in each maison with a train-the-trainer model, rather than a central team flying between markets.`,
		},
		{
			Roles: []string{RoleShared},
			Topic: "simulation_tasks",
			Text: `The simulation asks the learner to produce eight deliverables: a problem statement naming the tension between Group consistency and maison autonomy, consultations with the CEO, CHRO, and Regional Manager, a drafted competency model with behavioral indicators, a 360 feedback program design, a rollout plan with phases, and a KPI table covering promotion rate, mobility rate, and program adoption.`,
		},
	}
}
