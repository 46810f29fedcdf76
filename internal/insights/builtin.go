package insights

import "github.com/opensource-climate/petrel/internal/domain"

// BuiltinRules returns the default insight rule set, seeded into the
// repository on first start. The three defaults summarize downtime, the
// worst observed hazard peak and the active combination rule.
func BuiltinRules() []*domain.InsightRule {
	return []*domain.InsightRule{
		{
			ID:          "combined-downtime",
			Name:        "Combined downtime",
			Description: "Reports combined stop hours and their share of the analysis period.",
			When:        "total_hours > 0",
			Message:     "'Combined downtime: ' + string(stop_hours) + 'h (' + stop_pct_str + '% of period).'",
			Priority:    10,
			Enabled:     true,
		},
		{
			ID:          "worst-peak",
			Name:        "Worst observed peak",
			Description: "Names the hazard with the highest observed intensity.",
			When:        "worst_hazard != ''",
			Message:     "'Highest observed peak: ' + worst_hazard + ' at ' + worst_peak_str + '.'",
			Priority:    20,
			Enabled:     true,
		},
		{
			ID:          "combine-rule",
			Name:        "Combination rule",
			Description: "States which combination policy produced the combined series.",
			When:        "combine_mode != ''",
			Message:     "'Combination rule: ' + combine_mode + '.'",
			Priority:    30,
			Enabled:     true,
		},
	}
}
