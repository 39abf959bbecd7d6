package tools

// RegionProfile is the simulated HR picture for one market.
type RegionProfile struct {
	Headcount                  int      `json:"headcount"`
	TurnoverRate               float64  `json:"turnover_rate"`
	AvgTenureYears             float64  `json:"avg_tenure_years"`
	LeadershipPipelineStrength string   `json:"leadership_pipeline_strength"`
	KeyChallenges              []string `json:"key_challenges"`
	CulturalNotes              string   `json:"cultural_notes"`
}

// RegionalDataResult wraps a regional HR data lookup.
type RegionalDataResult struct {
	Regions     map[string]RegionProfile `json:"regions"`
	LastUpdated string                   `json:"last_updated"`
	Source      string                   `json:"source"`
}

var regionalHRData = map[string]RegionProfile{
	"France": {
		Headcount:                  2800,
		TurnoverRate:               8.5,
		AvgTenureYears:             7.2,
		LeadershipPipelineStrength: "Strong",
		KeyChallenges:              []string{"Union consultation required", "Formal HR processes expected"},
		CulturalNotes:              "Hierarchical decision-making; expect documentation",
	},
	"Italy": {
		Headcount:                  3200,
		TurnoverRate:               6.2,
		AvgTenureYears:             9.5,
		LeadershipPipelineStrength: "Very Strong",
		KeyChallenges:              []string{"Family-style management culture", "Relationship-driven decisions"},
		CulturalNotes:              "Build personal relationships; regional directors are key",
	},
	"UK": {
		Headcount:                  1500,
		TurnoverRate:               12.1,
		AvgTenureYears:             4.8,
		LeadershipPipelineStrength: "Moderate",
		KeyChallenges:              []string{"Post-Brexit talent mobility", "Competitive London market"},
		CulturalNotes:              "Direct communication appreciated; merit-based culture",
	},
	"Germany": {
		Headcount:                  1800,
		TurnoverRate:               7.8,
		AvgTenureYears:             6.5,
		LeadershipPipelineStrength: "Strong",
		KeyChallenges:              []string{"Works council involvement", "Structured processes expected"},
		CulturalNotes:              "Data-driven; expect detailed ROI analysis",
	},
	"USA": {
		Headcount:                  2200,
		TurnoverRate:               15.3,
		AvgTenureYears:             3.9,
		LeadershipPipelineStrength: "Moderate",
		KeyChallenges:              []string{"High competition for talent", "Diverse state regulations"},
		CulturalNotes:              "Fast-paced; results-oriented; individual achievement valued",
	},
	"China": {
		Headcount:                  1900,
		TurnoverRate:               18.5,
		AvgTenureYears:             2.8,
		LeadershipPipelineStrength: "Developing",
		KeyChallenges:              []string{"Rapid growth outpacing talent", "Cultural adaptation of programs"},
		CulturalNotes:              "Face-saving important; group harmony; digital-first approach",
	},
}

// RegionalHRData returns HR metrics for one region, or every tracked
// region when region is empty. Unknown regions also fall back to all.
func RegionalHRData(region string) RegionalDataResult {
	data := make(map[string]RegionProfile, len(regionalHRData))
	if p, ok := regionalHRData[region]; ok {
		data[region] = p
	} else {
		for name, p := range regionalHRData {
			data[name] = p
		}
	}
	return RegionalDataResult{
		Regions:     data,
		LastUpdated: "Q4 2025",
		Source:      "Atelier Group HR Analytics",
	}
}
