package workflow

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "ventureforge/internal/errors"
	"ventureforge/internal/llm"
	"ventureforge/internal/model"
)

// Offer workflow step ids, in execution order.
const (
	StepPreparePrompts         = "prepare-prompts"
	StepGenerateTransformation = "generate-transformation"
	StepGenerateGuarantee      = "generate-guarantee"
	StepGeneratePricing        = "generate-pricing"
	StepAssembleOffer          = "assemble-offer"
	StepValidateOffer          = "validate-offer"
)

// DeliveryModelBuildOnce is the only delivery model the assembled offer
// ships with.
const DeliveryModelBuildOnce = "build_once"

// Notify reports a workflow step settling. done=false announces the step
// starting, done=true its completion. Nil notify is allowed.
type Notify func(step string, done bool)

// OfferInput is the frozen snapshot the three parallel generations read
// from. The generations never communicate mid-flight; mutual consistency
// comes entirely from sharing this input.
type OfferInput struct {
	Niche    *model.AIRecommendation
	Profile  *model.Profile
	Answers  map[string]string
	Existing *model.AssembledOffer
}

// OfferWorkflow assembles a commercial offer: three generations in
// parallel (transformation copy, guarantee, pricing), a deterministic
// merge, then a validation pass.
type OfferWorkflow struct {
	step *Step
}

func NewOfferWorkflow(provider llm.Provider, model string) *OfferWorkflow {
	return &OfferWorkflow{step: NewStep(provider, model)}
}

type transformationSlice struct {
	TransformationFrom string `json:"transformation_from"`
	TransformationTo   string `json:"transformation_to"`
	SystemDescription  string `json:"system_description"`
}

type guaranteeSlice struct {
	GuaranteeText   string `json:"guarantee_text"`
	GuaranteeType   string `json:"guarantee_type"`
	ConfidenceNotes string `json:"confidence_notes"`
}

type pricingSlice struct {
	PricingSetup       string   `json:"pricing_setup"`
	PricingMonthly     string   `json:"pricing_monthly"`
	Rationale          string   `json:"rationale"`
	ComparableServices []string `json:"comparable_services"`
	RevenueProjection  string   `json:"revenue_projection"`
}

// offerContext is the normalized shared context derived by prepare-prompts.
type offerContext struct {
	niche         string
	bottleneck    string
	targetSegment string
	revenueAnchor string
	delivery      string
	pricingNotes  string
	location      string
}

// Run executes the offer state machine. If a pregenerated offer already
// exists it is returned untouched without any generation call; this
// supports the fire-and-forget pre-generation started right after niche
// selection.
func (w *OfferWorkflow) Run(ctx context.Context, in OfferInput, notify Notify) (*model.AssembledOffer, error) {
	if in.Existing.Pregenerated() {
		return in.Existing, nil
	}
	if in.Niche == nil {
		return nil, fmt.Errorf("%w: no niche selected", apperrors.ErrPrecondition)
	}
	emit := func(step string, done bool) {
		if notify != nil {
			notify(step, done)
		}
	}

	emit(StepPreparePrompts, false)
	oc := prepareOfferContext(in)
	emit(StepPreparePrompts, true)

	var (
		transformation transformationSlice
		guarantee      guaranteeSlice
		pricing        pricingSlice
	)

	// The three generations run concurrently against the same frozen
	// context. Any single failure fails the whole offer, with no partial merge.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emit(StepGenerateTransformation, false)
		err := w.step.Generate(gctx, offerSystem, transformationPrompt(oc), &transformation, func() []string {
			return validateTransformation(&transformation, in.Niche.Bottleneck)
		})
		if err == nil {
			emit(StepGenerateTransformation, true)
		}
		return err
	})
	g.Go(func() error {
		emit(StepGenerateGuarantee, false)
		err := w.step.Generate(gctx, offerSystem, guaranteePrompt(oc), &guarantee, func() []string {
			return validateGuarantee(&guarantee)
		})
		if err == nil {
			emit(StepGenerateGuarantee, true)
		}
		return err
	})
	g.Go(func() error {
		emit(StepGeneratePricing, false)
		err := w.step.Generate(gctx, offerSystem, pricingPrompt(oc), &pricing, func() []string {
			return validatePricing(&pricing)
		})
		if err == nil {
			emit(StepGeneratePricing, true)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("offer workflow failed: %w", err)
	}

	emit(StepAssembleOffer, false)
	offer := assembleOffer(in.Niche, &transformation, &guarantee, &pricing)
	emit(StepAssembleOffer, true)

	emit(StepValidateOffer, false)
	offer = validateAssembledOffer(offer)
	emit(StepValidateOffer, true)

	return offer, nil
}

// assembleOffer is a pure merge of the three slices plus the niche's target
// segment.
func assembleOffer(niche *model.AIRecommendation, t *transformationSlice, g *guaranteeSlice, p *pricingSlice) *model.AssembledOffer {
	return &model.AssembledOffer{
		TransformationFrom: t.TransformationFrom,
		TransformationTo:   t.TransformationTo,
		SystemDescription:  t.SystemDescription,
		GuaranteeText:      g.GuaranteeText,
		GuaranteeType:      g.GuaranteeType,
		ConfidenceNotes:    g.ConfidenceNotes,
		PricingSetup:       p.PricingSetup,
		PricingMonthly:     p.PricingMonthly,
		PricingRationale:   p.Rationale,
		ComparableServices: p.ComparableServices,
		RevenueProjection:  p.RevenueProjection,
		TargetSegment:      niche.TargetSegment,
		DeliveryModel:      DeliveryModelBuildOnce,
		ValidationStatus:   "passed",
	}
}

// validateAssembledOffer is the post-merge validation pass. Today it is a
// pass-through extension point; automated checks (web-search grounding,
// compliance review) can slot in here without changing the step wiring.
func validateAssembledOffer(offer *model.AssembledOffer) *model.AssembledOffer {
	return offer
}

func validateTransformation(t *transformationSlice, bottleneck string) []string {
	var violations []string
	violations = append(violations, checkCommonContent("transformation_from", t.TransformationFrom)...)
	violations = append(violations, checkCommonContent("transformation_to", t.TransformationTo)...)
	violations = append(violations, checkCommonContent("system_description", t.SystemDescription)...)

	if keywords := extractKeywords(bottleneck); len(keywords) > 0 && !containsAnyKeyword(t.TransformationFrom, keywords) {
		violations = append(violations, fmt.Sprintf(
			"transformation_from must reference the niche's bottleneck (%s); mention at least one of: %s",
			bottleneck, strings.Join(keywords, ", ")))
	}
	if !hasMeasurableSignal(t.TransformationTo) {
		violations = append(violations, "transformation_to must contain a measurable outcome: a number, a frequency word, or a concrete state change")
	}
	if p := containsAnyPhrase(t.SystemDescription, techPhrases); p != "" {
		violations = append(violations, fmt.Sprintf("system_description must describe the outcome, not the technology; remove %q", p))
	}
	return violations
}

func validateGuarantee(g *guaranteeSlice) []string {
	var violations []string
	violations = append(violations, checkCommonContent("guarantee_text", g.GuaranteeText)...)
	if strings.TrimSpace(g.GuaranteeType) == "" {
		violations = append(violations, "guarantee_type must be set (e.g. performance, refund, work-free)")
	}
	return violations
}

func validatePricing(p *pricingSlice) []string {
	var violations []string
	violations = append(violations, checkCommonContent("rationale", p.Rationale)...)
	if strings.TrimSpace(p.PricingSetup) == "" {
		violations = append(violations, "pricing_setup must be set")
	}
	if strings.TrimSpace(p.PricingMonthly) == "" {
		violations = append(violations, "pricing_monthly must be set")
	}
	return violations
}

func prepareOfferContext(in OfferInput) offerContext {
	oc := offerContext{
		niche:         in.Niche.Niche,
		bottleneck:    in.Niche.Bottleneck,
		targetSegment: in.Niche.TargetSegment,
		revenueAnchor: in.Niche.RevenueProjection,
	}
	if in.Answers != nil {
		oc.delivery = in.Answers["delivery_model"]
		oc.pricingNotes = in.Answers["pricing_direction"]
		oc.location = in.Answers["location"]
	}
	if oc.revenueAnchor == "" && in.Profile != nil {
		oc.revenueAnchor = in.Profile.RevenueGoal
	}
	return oc
}

const offerSystem = `You write commercial offers for services sold to local businesses. You respond with a single JSON object and nothing else. Never include personal contact details in any field.`

func transformationPrompt(oc offerContext) string {
	return fmt.Sprintf(`Write the before/after transformation copy for a service sold to %s.

Niche: %s
Their bottleneck: %s
Revenue anchor: %s
%s
Respond with this JSON object:
{
  "transformation_from": "the painful current state, anchored in the bottleneck above",
  "transformation_to": "the after state with a measurable outcome (a number, a frequency, or a concrete state change)",
  "system_description": "what the service does for them, described as an outcome; never mention the technology behind it"
}`, oc.targetSegment, oc.niche, oc.bottleneck, oc.revenueAnchor, locationLine(oc))
}

func guaranteePrompt(oc offerContext) string {
	return fmt.Sprintf(`Write the guarantee for a service sold to %s in the %s niche. Their bottleneck: %s.

Respond with this JSON object:
{
  "guarantee_text": "the concrete promise, stated so an owner can hold us to it",
  "guarantee_type": "performance | refund | work-free",
  "confidence_notes": "why this guarantee is safe to make for this niche"
}`, oc.targetSegment, oc.niche, oc.bottleneck)
}

func pricingPrompt(oc offerContext) string {
	direction := oc.pricingNotes
	if direction == "" {
		direction = "no stated preference"
	}
	return fmt.Sprintf(`Price a done-for-you service for %s in the %s niche. Revenue anchor: %s. User's pricing direction: %s.
%s
Respond with this JSON object:
{
  "pricing_setup": "one-time setup price",
  "pricing_monthly": "monthly retainer price",
  "rationale": "why these numbers work for this niche",
  "comparable_services": ["what they already pay for, with typical prices"],
  "revenue_projection": "what the service should return them monthly"
}`, oc.targetSegment, oc.niche, oc.revenueAnchor, direction, locationLine(oc))
}

func locationLine(oc offerContext) string {
	if oc.location == "" {
		return ""
	}
	return "Market location: " + oc.location + "\n"
}
