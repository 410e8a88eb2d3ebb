package workflow

import (
	"context"
	"fmt"
	"strings"

	apperrors "ventureforge/internal/errors"
	"ventureforge/internal/llm"
	"ventureforge/internal/model"
)

// Demo workflow step ids.
const (
	StepGenerateDemoConfig = "generate-demo-config"
	StepValidateDemoConfig = "validate-demo-config"
)

// Form-field bounds: below 3 fields the page under-qualifies leads, above 5
// conversion drops. Both are hard rejections.
const (
	minFormFields = 3
	maxFormFields = 5
)

const maxHeadlineWords = 12

// DemoInput feeds the demo-page generation.
type DemoInput struct {
	Niche *model.AIRecommendation
	Offer *model.AssembledOffer
	// Reference is an optional pre-existing configuration for a similar
	// niche, offered to the model as a non-binding style example.
	Reference *model.DemoConfig
}

// DemoWorkflow generates the demo-page configuration (hero copy, lead form,
// scoring rubric) from the offer and chosen niche.
type DemoWorkflow struct {
	step *Step
}

func NewDemoWorkflow(provider llm.Provider, model string) *DemoWorkflow {
	return &DemoWorkflow{step: NewStep(provider, model)}
}

func (w *DemoWorkflow) Run(ctx context.Context, in DemoInput, notify Notify) (*model.DemoConfig, error) {
	if in.Niche == nil || in.Offer == nil {
		return nil, fmt.Errorf("%w: demo generation requires a chosen niche and an assembled offer", apperrors.ErrPrecondition)
	}
	emit := func(step string, done bool) {
		if notify != nil {
			notify(step, done)
		}
	}

	var config model.DemoConfig

	emit(StepGenerateDemoConfig, false)
	err := w.step.Generate(ctx, demoSystem, demoPrompt(in), &config, func() []string {
		return ValidateDemoConfig(&config, in.Offer)
	})
	if err != nil {
		return nil, fmt.Errorf("demo workflow failed: %w", err)
	}
	emit(StepGenerateDemoConfig, true)

	// validate-demo-config is a pass-through extension point, mirroring the
	// offer workflow's shape.
	emit(StepValidateDemoConfig, false)
	emit(StepValidateDemoConfig, true)

	return &config, nil
}

// contactFieldNames are form fields that identify the lead rather than
// qualify it.
var contactFieldNames = map[string]bool{
	"name": true, "full_name": true, "first_name": true, "last_name": true,
	"email": true, "phone": true, "phone_number": true, "contact": true,
	"company": true, "business_name": true,
}

var lowTierDisqualifiers = []string{
	"disqualif", "reject", "not a fit", "do not follow up", "no follow-up", "decline",
}

// ValidateDemoConfig enforces the demo quality gate:
// every form field referenced in the rubric, all three priority tiers with
// an explicit LOW disqualifier, at least one genuine qualifying field, 3-5
// fields total, and a hero headline of at most 12 words echoing the offer's
// transformation_to copy.
func ValidateDemoConfig(config *model.DemoConfig, offer *model.AssembledOffer) []string {
	var violations []string

	if n := len(config.FormFields); n < minFormFields || n > maxFormFields {
		violations = append(violations, fmt.Sprintf("form_fields must contain between %d and %d fields, got %d", minFormFields, maxFormFields, n))
	}

	rubric := strings.ToLower(config.ScoringPrompt)
	qualifying := 0
	for _, f := range config.FormFields {
		if f.Name == "" {
			violations = append(violations, "every form field needs a name")
			continue
		}
		if !strings.Contains(rubric, strings.ToLower(f.Name)) {
			violations = append(violations, fmt.Sprintf("scoring_prompt never references the form field %q; every field must be scored", f.Name))
		}
		if !contactFieldNames[strings.ToLower(f.Name)] {
			qualifying++
		}
	}
	if qualifying == 0 {
		violations = append(violations, "add at least one qualifying question beyond name and contact details")
	}

	for _, tier := range []string{"high", "medium", "low"} {
		if !strings.Contains(rubric, tier) {
			violations = append(violations, fmt.Sprintf("scoring_prompt must define the %s priority tier", strings.ToUpper(tier)))
		}
	}
	if strings.Contains(rubric, "low") {
		if lowSection := rubric[strings.Index(rubric, "low"):]; containsAnyPhrase(lowSection, lowTierDisqualifiers) == "" {
			violations = append(violations, "the LOW tier must state an explicit disqualifying condition, not merely a low score")
		}
	}

	if n := wordCount(config.HeroHeadline); n > maxHeadlineWords {
		violations = append(violations, fmt.Sprintf("hero_headline must be at most %d words, got %d", maxHeadlineWords, n))
	}
	if offer != nil {
		if keywords := extractKeywords(offer.TransformationTo); len(keywords) > 0 && !containsAnyKeyword(config.HeroHeadline, keywords) {
			violations = append(violations, fmt.Sprintf(
				"hero_headline must echo the offer's promised outcome; use at least one of: %s",
				strings.Join(keywords, ", ")))
		}
	}

	return violations
}

const demoSystem = `You design single-purpose demo landing pages that qualify leads for a local-business service. You respond with a single JSON object and nothing else.`

func demoPrompt(in DemoInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Design the demo page for this offer.

Niche: %s
Target segment: %s
Transformation: from %q to %q
Guarantee: %s
Pricing: %s setup, %s monthly
`,
		in.Niche.Niche, in.Offer.TargetSegment,
		in.Offer.TransformationFrom, in.Offer.TransformationTo,
		in.Offer.GuaranteeText,
		in.Offer.PricingSetup, in.Offer.PricingMonthly,
	)

	if in.Reference != nil {
		fmt.Fprintf(&b, "\nA page for a similar niche used this headline and CTA as a style reference (do not copy them): %q / %q\n",
			in.Reference.HeroHeadline, in.Reference.CTAText)
	}

	fmt.Fprintf(&b, `
Respond with this JSON object:
{
  "niche_slug": "kebab-case slug for the niche",
  "hero_headline": "at most %d words, echoing the promised outcome",
  "hero_subheadline": "one supporting sentence",
  "cta_text": "button label",
  "form_fields": [
    {"name": "snake_case_name", "label": "visible label", "type": "text|select|number", "required": true}
  ],
  "scoring_prompt": "rubric for scoring a submission. Reference every form field by name. Define HIGH, MEDIUM and LOW priority tiers. LOW must state an explicit disqualifying condition."
}
Use between %d and %d form fields, and include at least one genuine qualifying question beyond name and contact details.`,
		maxHeadlineWords, minFormFields, maxFormFields)

	return b.String()
}
