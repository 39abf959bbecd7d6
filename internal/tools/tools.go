// Package tools implements the simulated business tools the personas can
// consult: KPI projections, rollout comparisons, the VEPT competency
// framework, resource estimates, and regional HR data.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool names as exposed to callers.
const (
	NameKPICalculator    = "calculate_program_kpis"
	NameABSimulator      = "simulate_ab_scenarios"
	NameCompetencyLookup = "lookup_competency_framework"
	NameResourceEstimate = "estimate_resources"
	NameRegionalData     = "get_regional_hr_data"
)

// Definition is one invokable tool.
type Definition struct {
	Name        string
	Description string
	Invoke      func(ctx context.Context, args json.RawMessage) (any, error)
}

// Registry returns every available tool.
func Registry() []Definition {
	return []Definition{
		{
			Name:        NameKPICalculator,
			Description: "Calculate expected KPI improvements for leadership programs",
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var req KPIRequest
				if err := decodeArgs(args, &req); err != nil {
					return nil, err
				}
				return CalculateProgramKPIs(req), nil
			},
		},
		{
			Name:        NameABSimulator,
			Description: "Compare two rollout scenarios with recommendation",
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var req struct {
					ScenarioA RolloutScenario `json:"scenario_a"`
					ScenarioB RolloutScenario `json:"scenario_b"`
				}
				if err := decodeArgs(args, &req); err != nil {
					return nil, err
				}
				return CompareScenarios(req.ScenarioA, req.ScenarioB), nil
			},
		},
		{
			Name:        NameCompetencyLookup,
			Description: "Look up VEPT competency framework details",
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var req struct {
					Competency string `json:"competency"`
					Level      string `json:"level"`
				}
				if err := decodeArgs(args, &req); err != nil {
					return nil, err
				}
				return LookupCompetency(req.Competency, req.Level), nil
			},
		},
		{
			Name:        NameResourceEstimate,
			Description: "Estimate budget, timeline, and headcount for programs",
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var req ResourceRequest
				if err := decodeArgs(args, &req); err != nil {
					return nil, err
				}
				return EstimateResources(req), nil
			},
		},
		{
			Name:        NameRegionalData,
			Description: "Get HR metrics for specific regions",
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var req struct {
					Region string `json:"region"`
				}
				if err := decodeArgs(args, &req); err != nil {
					return nil, err
				}
				return RegionalHRData(req.Region), nil
			},
		},
	}
}

// Invoke runs a registered tool by name.
func Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	for _, d := range Registry() {
		if d.Name == name {
			return d.Invoke(ctx, args)
		}
	}
	return nil, fmt.Errorf("tools: unknown tool %q", name)
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("tools: decode arguments: %w", err)
	}
	return nil
}
