package tools

import "math"

// baselineMetrics are the simulated group-wide HR baselines the KPI
// calculator projects from.
var baselineMetrics = map[string]float64{
	"promotion_rate":             12.5,
	"internal_mobility_rate":     8.2,
	"leadership_satisfaction":    68.0,
	"talent_retention":           82.0,
	"time_to_proficiency_months": 18.0,
	"engagement_score":           72.0,
	"360_participation_rate":     45.0,
}

// kpiImpacts maps program type to per-metric impact multipliers. Negative
// values mean a reduction, which for time-to-proficiency is the goal.
var kpiImpacts = map[string]map[string]float64{
	"360_feedback": {
		"leadership_satisfaction": 0.15,
		"engagement_score":        0.12,
		"360_participation_rate":  0.40,
		"talent_retention":        0.08,
	},
	"competency_framework": {
		"promotion_rate":             0.20,
		"time_to_proficiency_months": -0.25,
		"internal_mobility_rate":     0.18,
	},
	"coaching": {
		"leadership_satisfaction": 0.20,
		"engagement_score":        0.10,
		"talent_retention":        0.12,
	},
	"leadership_academy": {
		"promotion_rate":             0.25,
		"internal_mobility_rate":     0.22,
		"time_to_proficiency_months": -0.30,
		"talent_retention":           0.15,
	},
}

// KPIRequest parameterizes a program KPI projection.
type KPIRequest struct {
	ProgramType           string  `json:"program_type"`
	TargetPopulation      int     `json:"target_population"`
	ImplementationQuality float64 `json:"implementation_quality"`
}

// KPIResult holds baseline, projected, and delta metrics for a program.
type KPIResult struct {
	ProgramType           string             `json:"program_type"`
	TargetPopulation      int                `json:"target_population"`
	ImplementationQuality float64            `json:"implementation_quality"`
	BaselineMetrics       map[string]float64 `json:"baseline_metrics"`
	ProjectedMetrics      map[string]float64 `json:"projected_metrics"`
	ExpectedDelta         map[string]float64 `json:"expected_delta"`
	ConfidenceInterval    string             `json:"confidence_interval"`
	Notes                 []string           `json:"notes"`
}

// CalculateProgramKPIs projects expected KPI improvements for a leadership
// development program. Unknown program types fall back to the competency
// framework impact profile.
func CalculateProgramKPIs(req KPIRequest) KPIResult {
	if req.TargetPopulation <= 0 {
		req.TargetPopulation = 1000
	}
	if req.ImplementationQuality <= 0 || req.ImplementationQuality > 1 {
		req.ImplementationQuality = 0.8
	}

	impacts, ok := kpiImpacts[req.ProgramType]
	if !ok {
		impacts = kpiImpacts["competency_framework"]
	}

	res := KPIResult{
		ProgramType:           req.ProgramType,
		TargetPopulation:      req.TargetPopulation,
		ImplementationQuality: req.ImplementationQuality,
		BaselineMetrics:       make(map[string]float64, len(baselineMetrics)),
		ProjectedMetrics:      make(map[string]float64, len(baselineMetrics)),
		ExpectedDelta:         make(map[string]float64, len(baselineMetrics)),
		ConfidenceInterval:    "±15%",
		Notes:                 []string{},
	}

	for metric, baseline := range baselineMetrics {
		res.BaselineMetrics[metric] = baseline
		if impact, hit := impacts[metric]; hit {
			delta := round1(baseline * impact * req.ImplementationQuality)
			res.ProjectedMetrics[metric] = round1(baseline + delta)
			res.ExpectedDelta[metric] = delta
		} else {
			res.ProjectedMetrics[metric] = baseline
			res.ExpectedDelta[metric] = 0
		}
	}

	if req.ImplementationQuality < 0.6 {
		res.Notes = append(res.Notes, "Low implementation quality may reduce impact by 40%")
	}
	if req.TargetPopulation > 5000 {
		res.Notes = append(res.Notes, "Large-scale rollout may require phased approach")
	}
	return res
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
