package tools

// ResourceRequest parameterizes a program resource estimate.
type ResourceRequest struct {
	ProgramType            string   `json:"program_type"`
	TargetHeadcount        int      `json:"target_headcount"`
	Regions                []string `json:"regions"`
	IncludeExternalCoaches bool     `json:"include_external_coaches"`
}

// ResourceEstimate is a budget, timeline, and headcount projection.
type ResourceEstimate struct {
	ProgramType     string   `json:"program_type"`
	TargetHeadcount int      `json:"target_headcount"`
	Regions         []string `json:"regions"`
	Budget          Budget   `json:"budget"`
	Timeline        Timeline `json:"timeline"`
	Headcount       Staffing `json:"headcount"`
	Assumptions     []string `json:"assumptions"`
}

type Budget struct {
	EstimatedTotalEUR int            `json:"estimated_total_eur"`
	PerParticipantEUR int            `json:"per_participant_eur"`
	Breakdown         map[string]int `json:"breakdown"`
}

type Timeline struct {
	TotalMonths int            `json:"total_months"`
	Phases      map[string]int `json:"phases"`
}

type Staffing struct {
	HRTeamFTE       int `json:"hr_team_fte"`
	ExternalCoaches int `json:"external_coaches"`
}

// Per-participant base cost in EUR by program type.
var programBaseCosts = map[string]int{
	"360_feedback":         150,
	"competency_framework": 80,
	"coaching":             2500,
	"leadership_academy":   3500,
	"train_the_trainer":    1200,
}

var regionalCostMultipliers = map[string]float64{
	"Western Europe": 1.2,
	"Eastern Europe": 0.85,
	"Americas":       1.3,
	"APAC":           1.1,
	"Middle East":    1.15,
}

var programTimelineMonths = map[string]int{
	"360_feedback":         4,
	"competency_framework": 6,
	"coaching":             12,
	"leadership_academy":   18,
	"train_the_trainer":    3,
}

// EstimateResources projects budget, timeline, and staffing for a
// leadership program rollout.
func EstimateResources(req ResourceRequest) ResourceEstimate {
	if req.TargetHeadcount <= 0 {
		req.TargetHeadcount = 1
	}

	costPerPerson, ok := programBaseCosts[req.ProgramType]
	if !ok {
		costPerPerson = 500
	}

	avgMultiplier := 1.0
	if len(req.Regions) > 0 {
		sum := 0.0
		for _, r := range req.Regions {
			m, ok := regionalCostMultipliers[r]
			if !ok {
				m = 1.0
			}
			sum += m
		}
		avgMultiplier = sum / float64(len(req.Regions))
	}

	programCost := float64(costPerPerson) * float64(req.TargetHeadcount) * avgMultiplier
	if req.IncludeExternalCoaches {
		programCost += float64(req.TargetHeadcount) * 800
	}

	baseMonths, ok := programTimelineMonths[req.ProgramType]
	if !ok {
		baseMonths = 6
	}
	timelineMonths := baseMonths + int(float64(len(req.Regions))*1.5)

	hrHeadcount := req.TargetHeadcount / 200
	if hrHeadcount < 1 {
		hrHeadcount = 1
	}
	coaches := 0
	if req.IncludeExternalCoaches {
		coaches = req.TargetHeadcount / 20
	}

	return ResourceEstimate{
		ProgramType:     req.ProgramType,
		TargetHeadcount: req.TargetHeadcount,
		Regions:         req.Regions,
		Budget: Budget{
			EstimatedTotalEUR: int(programCost),
			PerParticipantEUR: int(programCost) / req.TargetHeadcount,
			Breakdown: map[string]int{
				"program_delivery":    int(programCost * 0.6),
				"technology_platform": int(programCost * 0.15),
				"change_management":   int(programCost * 0.15),
				"contingency":         int(programCost * 0.10),
			},
		},
		Timeline: Timeline{
			TotalMonths: timelineMonths,
			Phases: map[string]int{
				"design":  2,
				"pilot":   3,
				"rollout": timelineMonths - 5,
			},
		},
		Headcount: Staffing{
			HRTeamFTE:       hrHeadcount,
			ExternalCoaches: coaches,
		},
		Assumptions: []string{
			"Based on luxury industry benchmarks",
			"Assumes existing HR infrastructure",
			"Does not include opportunity cost of participant time",
		},
	}
}
