package tools

import (
	"fmt"
	"math"
	"strings"
)

// RolloutScenario describes one rollout strategy for comparison.
type RolloutScenario struct {
	Name            string   `json:"name"`
	Approach        string   `json:"approach"` // big_bang, phased, pilot_first
	TimelineMonths  int      `json:"timeline_months"`
	RegionsIncluded []string `json:"regions_included"`
	BudgetEUR       int      `json:"budget_eur"`
}

// ScenarioScores breaks a scenario down by evaluation dimension.
type ScenarioScores struct {
	Speed            float64 `json:"speed_score"`
	CostEfficiency   float64 `json:"cost_efficiency"`
	Risk             float64 `json:"risk_score"`
	Coverage         float64 `json:"coverage_score"`
	ChangeManagement float64 `json:"change_management_ease"`
	Overall          float64 `json:"overall"`
}

// ScenarioComparison is the outcome of an A/B rollout comparison.
type ScenarioComparison struct {
	ScenarioA RolloutScenario `json:"scenario_a"`
	ScoresA   ScenarioScores  `json:"scores_a"`
	ScenarioB RolloutScenario `json:"scenario_b"`
	ScoresB   ScenarioScores  `json:"scores_b"`
	Winner    string          `json:"winner"` // "A" or "B"
	Margin    float64         `json:"margin"`
	Analysis  string          `json:"analysis"`
}

var approachRisk = map[string]float64{"big_bang": 30, "phased": 70, "pilot_first": 90}
var approachChange = map[string]float64{"big_bang": 40, "phased": 75, "pilot_first": 85}

// CompareScenarios scores two rollout scenarios and recommends one.
func CompareScenarios(a, b RolloutScenario) ScenarioComparison {
	scoresA := scoreScenario(a)
	scoresB := scoreScenario(b)

	winner := "B"
	if scoresA.Overall > scoresB.Overall {
		winner = "A"
	}

	return ScenarioComparison{
		ScenarioA: a,
		ScoresA:   scoresA,
		ScenarioB: b,
		ScoresB:   scoresB,
		Winner:    winner,
		Margin:    math.Abs(scoresA.Overall - scoresB.Overall),
		Analysis:  comparisonAnalysis(scoresA, scoresB),
	}
}

func scoreScenario(s RolloutScenario) ScenarioScores {
	timeline := s.TimelineMonths
	if timeline <= 0 {
		timeline = 12
	}
	budget := s.BudgetEUR
	if budget <= 0 {
		budget = 500_000
	}

	risk, ok := approachRisk[s.Approach]
	if !ok {
		risk = 50
	}
	change, ok := approachChange[s.Approach]
	if !ok {
		change = 60
	}

	scores := ScenarioScores{
		Speed:            math.Max(0, 100-float64(timeline)*5),
		CostEfficiency:   math.Max(0, 100-float64(budget)/10000),
		Risk:             risk,
		Coverage:         math.Min(100, float64(len(s.RegionsIncluded))*15),
		ChangeManagement: change,
	}
	scores.Overall = (scores.Speed + scores.CostEfficiency + scores.Risk +
		scores.Coverage + scores.ChangeManagement) / 5
	return scores
}

func comparisonAnalysis(a, b ScenarioScores) string {
	dims := []struct {
		name string
		a, b float64
	}{
		{"Speed Score", a.Speed, b.Speed},
		{"Cost Efficiency", a.CostEfficiency, b.CostEfficiency},
		{"Risk Score", a.Risk, b.Risk},
		{"Change Management Ease", a.ChangeManagement, b.ChangeManagement},
	}

	var parts []string
	for _, d := range dims {
		diff := d.a - d.b
		if math.Abs(diff) > 10 {
			better := "B"
			if diff > 0 {
				better = "A"
			}
			parts = append(parts, fmt.Sprintf("Scenario %s significantly better on %s", better, d.name))
		}
	}
	if len(parts) == 0 {
		return "Both scenarios are comparable"
	}
	return strings.Join(parts, "; ")
}
