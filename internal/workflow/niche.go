package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ventureforge/internal/llm"
	"ventureforge/internal/model"
)

// blockerSingleNiche narrows the analysis to one recommendation: a user who
// keeps switching ideas gets a single decisive answer, not another menu.
const blockerSingleNiche = "keep_switching"

// NicheAnalysis is the single generation step behind run_niche_analysis.
type NicheAnalysis struct {
	step *Step
}

func NewNicheAnalysis(provider llm.Provider, model string) *NicheAnalysis {
	return &NicheAnalysis{step: NewStep(provider, model)}
}

// RecommendationCount returns how many candidates the analysis requests for
// a given profile.
func RecommendationCount(profile *model.Profile) int {
	if profile != nil {
		for _, b := range profile.Blockers {
			if b == blockerSingleNiche {
				return 1
			}
		}
	}
	return 3
}

// Run generates the ranked niche recommendations. Score arithmetic is
// enforced here: a recommendation whose sub-scores fall outside 0-25 or do
// not sum to the total is rejected and regenerated.
func (a *NicheAnalysis) Run(ctx context.Context, profile *model.Profile, answers map[string]string) ([]model.AIRecommendation, error) {
	count := RecommendationCount(profile)

	var result struct {
		Recommendations []model.AIRecommendation `json:"recommendations"`
	}

	prompt := nichePrompt(count, profile, answers)
	validate := func() []string {
		var violations []string
		if len(result.Recommendations) != count {
			violations = append(violations, fmt.Sprintf("return exactly %d recommendations, got %d", count, len(result.Recommendations)))
		}
		for i, rec := range result.Recommendations {
			if strings.TrimSpace(rec.Niche) == "" {
				violations = append(violations, fmt.Sprintf("recommendation %d has an empty niche name", i+1))
			}
			if !rec.SegmentScores.Consistent() {
				violations = append(violations, fmt.Sprintf(
					"recommendation %d: segment scores must each be 0-25 and sum exactly to total (got total=%d, parts=%d+%d+%d+%d)",
					i+1, rec.SegmentScores.Total,
					rec.SegmentScores.ROIFromService, rec.SegmentScores.CanAffordIt,
					rec.SegmentScores.GuaranteeResults, rec.SegmentScores.EasyToFind,
				))
			}
		}
		return violations
	}

	if err := a.step.Generate(ctx, nicheSystem, prompt, &result, validate); err != nil {
		return nil, err
	}
	return result.Recommendations, nil
}

const nicheSystem = `You analyze local-business verticals and recommend the ones a specific person can realistically serve. You respond with a single JSON object and nothing else.`

func nichePrompt(count int, profile *model.Profile, answers map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recommend exactly %d local-business niche(s) for this person.\n\n", count)

	if profile != nil {
		b.WriteString("Profile:\n")
		if profile.TimePerWeek != "" {
			fmt.Fprintf(&b, "- time per week: %s\n", profile.TimePerWeek)
		}
		if profile.OutreachComfort != "" {
			fmt.Fprintf(&b, "- outreach comfort: %s\n", profile.OutreachComfort)
		}
		if profile.TechnicalComfort != "" {
			fmt.Fprintf(&b, "- technical comfort: %s\n", profile.TechnicalComfort)
		}
		if profile.RevenueGoal != "" {
			fmt.Fprintf(&b, "- revenue goal: %s\n", profile.RevenueGoal)
		}
		if profile.Situation != "" {
			fmt.Fprintf(&b, "- situation: %s\n", profile.Situation)
		}
		if len(profile.Blockers) > 0 {
			fmt.Fprintf(&b, "- blockers: %s\n", strings.Join(profile.Blockers, ", "))
		}
	}
	if len(answers) > 0 {
		b.WriteString("\nTheir answers:\n")
		for _, k := range sortedAnswerKeys(answers) {
			fmt.Fprintf(&b, "- %s: %s\n", k, answers[k])
		}
	}

	b.WriteString(`
Score each niche 0-100 as the sum of four 0-25 segments: roi_from_service (how much measurable revenue the service adds), can_afford_it (whether owners in the niche can pay monthly), guarantee_results (how safely an outcome can be guaranteed), easy_to_find (how easy owners are to reach).

Respond with this JSON object:
{
  "recommendations": [
    {
      "niche": "specific local-business vertical",
      "segment_scores": {"total": 0, "roi_from_service": 0, "can_afford_it": 0, "guarantee_results": 0, "easy_to_find": 0},
      "target_segment": "who exactly inside the niche",
      "bottleneck": "the one growth problem they all share",
      "proposed_solution": "the service that removes the bottleneck",
      "revenue_projection": "realistic monthly revenue for the user",
      "rationale": "why this fits this specific person"
    }
  ]
}
total must equal the sum of the four segment scores.`)

	return b.String()
}

func sortedAnswerKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
