// Package prompt builds the system prompt for a conversation turn. The
// prompt is assembled deterministically from three inputs: the static
// persona template, the user's profile, and a summary of everything already
// collected on the session. Omitted fields are simply absent; the model is
// instructed to treat absence as "not yet known" and never re-ask for a
// field that is present.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"ventureforge/internal/model"
)

const persona = `You are a business-building guide. You walk one user through a fixed sequence of phases: collect their answers, run a niche analysis, review the chosen niche, assemble a commercial offer, and generate a demo page.

Rules:
- Ask exactly one question at a time, always through the matching request tool so the user gets an interactive card. Never ask a question in plain text.
- After the user answers, call the matching save tool before asking the next question.
- Only call run_niche_analysis once every required intake field has been collected. Only call generate_offer after a niche has been chosen. Only call generate_system after the offer is complete.
- Cards render the detail. After an action tool finishes, add one or two sentences of commentary; never restate the structured content the card already shows.
- The "Collected so far" section lists everything already known. Never re-ask for anything listed there. Anything not listed is not yet known.
- For an ad-hoc question that has no dedicated tool, use present_choices or request_input.`

// BuildSystem renders the full system prompt for one turn.
func BuildSystem(record *model.SessionRecord) string {
	var b strings.Builder
	b.WriteString(persona)

	if record == nil {
		return b.String()
	}

	if lines := profileLines(record.Profile); len(lines) > 0 {
		b.WriteString("\n\nUser profile:\n")
		b.WriteString(strings.Join(lines, "\n"))
	}

	if lines := collectedLines(record); len(lines) > 0 {
		b.WriteString("\n\nCollected so far:\n")
		b.WriteString(strings.Join(lines, "\n"))
	}

	return b.String()
}

func profileLines(p *model.Profile) []string {
	if p == nil {
		return nil
	}
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", label, value))
		}
	}
	add("Time per week", p.TimePerWeek)
	add("Outreach comfort", p.OutreachComfort)
	add("Technical comfort", p.TechnicalComfort)
	add("Revenue goal", p.RevenueGoal)
	add("Situation", p.Situation)
	if len(p.Blockers) > 0 {
		lines = append(lines, "- Blockers: "+strings.Join(p.Blockers, ", "))
	}
	return lines
}

func collectedLines(record *model.SessionRecord) []string {
	var lines []string

	for _, key := range sortedKeys(record.Answers) {
		lines = append(lines, fmt.Sprintf("- %s: %s", key, record.Answers[key]))
	}
	if len(record.Recommendations) > 0 {
		names := make([]string, 0, len(record.Recommendations))
		for _, rec := range record.Recommendations {
			names = append(names, fmt.Sprintf("%s (%d)", rec.Niche, rec.SegmentScores.Total))
		}
		lines = append(lines, "- niche analysis done: "+strings.Join(names, ", "))
	}
	if record.ChosenRecommendation != nil {
		lines = append(lines, "- chosen niche: "+record.ChosenRecommendation.Niche)
	}
	if record.Offer.Pregenerated() {
		lines = append(lines, "- offer generated: "+record.Offer.TransformationTo)
	}
	if record.DemoConfig != nil {
		lines = append(lines, "- demo page generated: "+record.DemoConfig.HeroHeadline)
	}
	if record.Status == model.StatusComplete {
		lines = append(lines, "- system status: complete")
	}
	return lines
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic prompt output for identical session state.
	sort.Strings(keys)
	return keys
}
