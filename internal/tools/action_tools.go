package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"ventureforge/internal/llm"
	"ventureforge/internal/model"
	"ventureforge/internal/workflow"
)

// Action tools run a workflow while streaming its progress: emit a
// progress-tracker card up front, advance its steps as the work advances,
// persist the structured result, emit a terminal display card, and return
// only a minimal summary to the model.
//
// Each action tool is guarded server-side: the ordering invariants
// (answers before analysis, niche before offer, offer before demo) are
// enforced here, not merely requested in the prompt. A guard failure is
// returned to the model as a precondition result without emitting any UI.

// requiredAnalysisAnswers are the intake fields that must be collected
// before the niche analysis may run.
var requiredAnalysisAnswers = []string{"industry_interests", "location"}

func (r *Registry) executeNicheAnalysis(ctx context.Context, rt *Runtime) string {
	if rt.Record.Profile == nil {
		return preconditionResult("the user profile is missing; analysis cannot run")
	}
	for _, field := range requiredAnalysisAnswers {
		if rt.Record.Answers[field] == "" {
			return preconditionResult("required answer not collected yet: " + field + "; ask for it first")
		}
	}

	cardID := rt.NextCardID("niche-analysis")
	steps := []model.ProgressStep{
		{ID: "scan-market", Label: "Scanning local-business verticals", Status: model.StepPending},
		{ID: "score-segments", Label: "Scoring niche segments", Status: model.StepPending},
		{ID: "match-profile", Label: "Matching against your profile", Status: model.StepPending},
		{ID: "rank-results", Label: "Ranking recommendations", Status: model.StepPending},
	}
	rt.Emit(model.ServerEvent{Type: model.EventCard, Card: &model.Card{
		ID:    cardID,
		Type:  model.CardProgressTracker,
		Steps: steps,
	}})

	// The analysis exposes no real progress signal, so the card is driven
	// by the cosmetic ticker until the result lands.
	ticker := NewTicker(rt.Emit, cardID, steps, DefaultProgressBudget)
	ticker.Start()

	recommendations, err := r.niche.Run(ctx, rt.Record.Profile, rt.Record.Answers)
	ticker.Finish()
	if err != nil {
		slog.Error("Niche analysis failed", "session_id", rt.SessionID, "error", err)
		return errorResult("the niche analysis failed; offer to retry")
	}

	rt.Record.Recommendations = recommendations
	if err := r.repo.Patch(ctx, rt.SessionID, map[string]any{"ai_recommendations": recommendations}); err != nil {
		// The result is still shown; only durability suffered.
		slog.Error("Failed to persist recommendations", "session_id", rt.SessionID, "error", err)
	}

	rt.Emit(model.ServerEvent{Type: model.EventCard, Card: &model.Card{
		ID:              rt.NextCardID("niche-results"),
		Type:            model.CardScoreCards,
		Recommendations: recommendations,
	}})

	return toolResult{"status": "complete", "recommendations": len(recommendations)}.encode()
}

func (r *Registry) executeGenerateOffer(ctx context.Context, rt *Runtime) string {
	if rt.Record.ChosenRecommendation == nil {
		return preconditionResult("no niche chosen yet; run the analysis and save a choice first")
	}

	// Pre-generation short-circuit: if the background generation already
	// persisted a complete offer, show it without a progress card.
	if stored, err := r.repo.Get(ctx, rt.SessionID); err == nil && stored.Offer.Pregenerated() {
		rt.Record.Offer = stored.Offer
		rt.Emit(offerSummaryEvent(rt, stored.Offer))
		return toolResult{"status": "complete", "reused_pregenerated": true}.encode()
	}

	cardID := rt.NextCardID("offer-progress")
	steps := offerProgressSteps()
	rt.Emit(model.ServerEvent{Type: model.EventCard, Card: &model.Card{
		ID:    cardID,
		Type:  model.CardProgressTracker,
		Steps: steps,
	}})

	offer, err := r.offers.Run(ctx, workflow.OfferInput{
		Niche:    rt.Record.ChosenRecommendation,
		Profile:  rt.Record.Profile,
		Answers:  rt.Record.Answers,
		Existing: rt.Record.Offer,
	}, progressNotify(rt, cardID))
	if err != nil {
		slog.Error("Offer generation failed", "session_id", rt.SessionID, "error", err)
		return errorResult("offer generation failed; offer to retry")
	}

	rt.Record.Offer = offer
	if err := r.repo.Patch(ctx, rt.SessionID, map[string]any{"offer": offer}); err != nil {
		slog.Error("Failed to persist offer", "session_id", rt.SessionID, "error", err)
	}

	rt.Emit(offerSummaryEvent(rt, offer))
	return toolResult{"status": "complete"}.encode()
}

func (r *Registry) executeGenerateSystem(ctx context.Context, rt *Runtime) string {
	if !rt.Record.Offer.Pregenerated() {
		return preconditionResult("the offer is not complete yet; generate and confirm it first")
	}

	cardID := rt.NextCardID("demo-progress")
	steps := []model.ProgressStep{
		{ID: workflow.StepGenerateDemoConfig, Label: "Generating your demo page", Status: model.StepPending},
		{ID: workflow.StepValidateDemoConfig, Label: "Validating the configuration", Status: model.StepPending},
	}
	rt.Emit(model.ServerEvent{Type: model.EventCard, Card: &model.Card{
		ID:    cardID,
		Type:  model.CardProgressTracker,
		Steps: steps,
	}})

	config, err := r.demos.Run(ctx, workflow.DemoInput{
		Niche: rt.Record.ChosenRecommendation,
		Offer: rt.Record.Offer,
	}, progressNotify(rt, cardID))
	if err != nil {
		slog.Error("Demo generation failed", "session_id", rt.SessionID, "error", err)
		return errorResult("demo page generation failed; offer to retry")
	}

	rt.Record.DemoConfig = config
	rt.Record.Status = model.StatusComplete
	if err := r.repo.Patch(ctx, rt.SessionID, map[string]any{
		"demo_config": config,
		"status":      model.StatusComplete,
	}); err != nil {
		slog.Error("Failed to persist demo config", "session_id", rt.SessionID, "error", err)
	}

	// The page copy is shown as an editable card first so the user can
	// tweak the wording before the system is announced as ready.
	rt.Emit(model.ServerEvent{Type: model.EventCard, Card: &model.Card{
		ID:   rt.NextCardID("demo-copy"),
		Type: model.CardEditableContent,
		Fields: []model.EditableField{
			{Name: "hero_headline", Label: "Headline", Value: config.HeroHeadline},
			{Name: "hero_subheadline", Label: "Subheadline", Value: config.HeroSubheadline},
			{Name: "cta_text", Label: "Call to action", Value: config.CTAText},
		},
	}})
	rt.Emit(model.ServerEvent{Type: model.EventCard, Card: &model.Card{
		ID:   rt.NextCardID("system-ready"),
		Type: model.CardSystemReady,
		Demo: config,
	}})
	return toolResult{"status": "complete", "demo_slug": config.NicheSlug}.encode()
}

// pregenerateOffer runs the offer workflow in the background after a niche
// is chosen. Detached from the originating request on purpose: it may
// complete and persist after that request's UI is gone.
func (r *Registry) pregenerateOffer(sessionID string, record *model.SessionRecord) {
	if record == nil || record.ChosenRecommendation == nil || record.Offer.Pregenerated() {
		return
	}
	go func() {
		ctx := context.Background()
		offer, err := r.offers.Run(ctx, workflow.OfferInput{
			Niche:    record.ChosenRecommendation,
			Profile:  record.Profile,
			Answers:  record.Answers,
			Existing: record.Offer,
		}, nil)
		if err != nil {
			slog.Warn("Offer pre-generation failed", "session_id", sessionID, "error", err)
			return
		}
		if err := r.repo.Patch(ctx, sessionID, map[string]any{"offer": offer}); err != nil {
			slog.Error("Failed to persist pre-generated offer", "session_id", sessionID, "error", err)
			return
		}
		slog.Info("Offer pre-generated", "session_id", sessionID)
	}()
}

func offerProgressSteps() []model.ProgressStep {
	return []model.ProgressStep{
		{ID: workflow.StepPreparePrompts, Label: "Preparing the shared context", Status: model.StepPending},
		{ID: workflow.StepGenerateTransformation, Label: "Writing the transformation", Status: model.StepPending},
		{ID: workflow.StepGenerateGuarantee, Label: "Crafting the guarantee", Status: model.StepPending},
		{ID: workflow.StepGeneratePricing, Label: "Working out pricing", Status: model.StepPending},
		{ID: workflow.StepAssembleOffer, Label: "Assembling the offer", Status: model.StepPending},
		{ID: workflow.StepValidateOffer, Label: "Validating", Status: model.StepPending},
	}
}

// progressNotify adapts a workflow Notify callback onto progress events for
// one card. Steps here reflect real workflow transitions, unlike the
// cosmetic ticker used where no signal exists.
func progressNotify(rt *Runtime, cardID string) workflow.Notify {
	return func(step string, done bool) {
		status := model.StepActive
		if done {
			status = model.StepDone
		}
		rt.Emit(model.ServerEvent{
			Type:   model.EventProgress,
			CardID: cardID,
			StepID: step,
			Status: status,
		})
	}
}

func offerSummaryEvent(rt *Runtime, offer *model.AssembledOffer) model.ServerEvent {
	return model.ServerEvent{Type: model.EventCard, Card: &model.Card{
		ID:    rt.NextCardID("offer-summary"),
		Type:  model.CardOfferSummary,
		Offer: offer,
		Fields: []model.EditableField{
			{Name: "transformation_from", Label: "From", Value: offer.TransformationFrom},
			{Name: "transformation_to", Label: "To", Value: offer.TransformationTo},
			{Name: "guarantee_text", Label: "Guarantee", Value: offer.GuaranteeText},
			{Name: "pricing_setup", Label: "Setup price", Value: offer.PricingSetup},
			{Name: "pricing_monthly", Label: "Monthly price", Value: offer.PricingMonthly},
		},
	}}
}

var actionToolDefs = []llm.Tool{
	{
		Name:        "run_niche_analysis",
		Description: "Run the niche-recommendation analysis over everything collected so far. Only call once the intake answers are complete. Renders its own progress and results cards.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
	},
	{
		Name:        "generate_offer",
		Description: "Assemble the commercial offer (transformation, guarantee, pricing) for the chosen niche. Only call after a niche is saved. Renders its own progress and summary cards.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
	},
	{
		Name:        "generate_system",
		Description: "Generate the demo page configuration from the finished offer. Only call after the offer is complete and confirmed. Renders its own progress and final cards.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
	},
}
