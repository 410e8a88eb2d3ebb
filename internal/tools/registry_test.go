package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ventureforge/internal/llm"
	llmmocks "ventureforge/internal/llm/mocks"
	"ventureforge/internal/model"
	repomocks "ventureforge/internal/repository/mocks"
	"ventureforge/internal/tools"
)

func toolCall(name, arguments string) llm.ToolCall {
	return llm.ToolCall{ID: "call-" + name, Name: name, Arguments: arguments}
}

func decodeResult(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func chosenNiche() *model.AIRecommendation {
	return &model.AIRecommendation{
		Niche:         "Roofing contractors",
		TargetSegment: "owner-operated roofing companies",
		Bottleneck:    "no steady flow of booked jobs",
	}
}

func completeOffer() *model.AssembledOffer {
	return &model.AssembledOffer{
		TransformationFrom: "relying on word of mouth with no steady stream of booked jobs",
		TransformationTo:   "a full calendar of booked jobs every week",
		SystemDescription:  "a referral engine that keeps homeowners requesting quotes",
		GuaranteeText:      "ten extra booked jobs in ninety days or you stop paying",
		GuaranteeType:      "performance",
		PricingSetup:       "$1,500",
		PricingMonthly:     "$400",
	}
}

func recommendationsJSON() json.RawMessage {
	rec := func(name string) string {
		return `{
			"niche": "` + name + `",
			"segment_scores": {"total": 80, "roi_from_service": 25, "can_afford_it": 20, "guarantee_results": 20, "easy_to_find": 15},
			"target_segment": "owner-operated shops",
			"bottleneck": "no steady flow of booked jobs",
			"proposed_solution": "a referral engine",
			"revenue_projection": "$2,500/month",
			"rationale": "fits the available hours"
		}`
	}
	return json.RawMessage(`{"recommendations": [` +
		rec("Roofing contractors") + `,` + rec("Landscapers") + `,` + rec("Auto detailers") + `]}`)
}

func demoConfigJSON() json.RawMessage {
	return json.RawMessage(`{
		"niche_slug": "roofing-contractors",
		"hero_headline": "A full calendar of booked roofing jobs",
		"hero_subheadline": "We fill your schedule for you.",
		"cta_text": "Get my free estimate",
		"form_fields": [
			{"name": "project_type", "label": "Project type", "type": "select", "required": true},
			{"name": "timeline", "label": "Timeline", "type": "select", "required": true},
			{"name": "budget", "label": "Budget", "type": "number", "required": true}
		],
		"scoring_prompt": "Score each submission. HIGH: budget above 5000 with timeline within a month, weigh project_type. MEDIUM: budget above 1000. LOW: disqualify budget under 500 or missing timeline."
	}`)
}

func newTestRuntime(record *model.SessionRecord) (*tools.Runtime, *eventSink) {
	sink := &eventSink{}
	return tools.NewRuntime("session-1", record, sink.emit), sink
}

func TestExecute_UnknownTool(t *testing.T) {
	reg := tools.NewRegistry(nil, nil, "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{})

	result := decodeResult(t, reg.Execute(context.Background(), rt, toolCall("launch_rockets", "{}")))
	assert.Contains(t, result["error"], "unknown tool")
	assert.Empty(t, sink.all())
}

func TestInputRequest_EmitsCardAndMarker(t *testing.T) {
	reg := tools.NewRegistry(nil, nil, "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{})

	result := decodeResult(t, reg.Execute(context.Background(), rt, toolCall("request_location", "{}")))
	assert.Equal(t, true, result["awaiting_user_input"])
	assert.Equal(t, "location", result["field"])

	events := sink.all()
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Card)
	assert.Equal(t, model.EventCard, events[0].Type)
	assert.Equal(t, model.CardLocation, events[0].Card.Type)
	assert.Equal(t, "card-1-location", events[0].Card.ID)
}

func TestPresentChoices_NamespacesModelSuppliedID(t *testing.T) {
	reg := tools.NewRegistry(nil, nil, "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{})
	args := `{"id": "budget_question", "question": "What budget range?", "options": ["under $500", "over $500"]}`

	reg.Execute(context.Background(), rt, toolCall("present_choices", args))
	reg.Execute(context.Background(), rt, toolCall("present_choices", args))

	events := sink.all()
	require.Len(t, events, 2)
	assert.Equal(t, "card-1-budget_question", events[0].Card.ID)
	assert.Equal(t, "card-2-budget_question", events[1].Card.ID)
	assert.Equal(t, "budget_question", events[0].Card.Field)
	assert.Len(t, events[0].Card.Options, 2)
}

func TestPresentChoices_RejectsEmptyOptions(t *testing.T) {
	reg := tools.NewRegistry(nil, nil, "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{})

	result := decodeResult(t, reg.Execute(context.Background(), rt,
		toolCall("present_choices", `{"id": "x", "question": "pick one", "options": []}`)))
	assert.Contains(t, result["error"], "at least one option")
	assert.Empty(t, sink.all())
}

func TestRequestInput_EmitsTextCard(t *testing.T) {
	reg := tools.NewRegistry(nil, nil, "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{})

	result := decodeResult(t, reg.Execute(context.Background(), rt,
		toolCall("request_input", `{"id": "ideal_week", "question": "Describe your ideal week", "placeholder": "Mondays I..."}`)))
	assert.Equal(t, true, result["awaiting_user_input"])

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, model.CardTextInput, events[0].Card.Type)
	assert.Equal(t, "card-1-ideal_week", events[0].Card.ID)
	assert.Equal(t, "Mondays I...", events[0].Card.Placeholder)
}

func TestSaveAnswers_MergesAndPatches(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	repo.On("Patch", mock.Anything, "session-1", mock.MatchedBy(func(fields map[string]any) bool {
		answers, ok := fields["answers"].(map[string]string)
		return ok && answers["location"] == "Austin, TX" && answers["industry_interests"] == "home_services"
	})).Return(nil).Once()

	reg := tools.NewRegistry(repo, nil, "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{Answers: map[string]string{"industry_interests": "home_services"}})

	result := decodeResult(t, reg.Execute(context.Background(), rt,
		toolCall("save_collected_answers", `{"answers": {"location": "Austin, TX"}}`)))
	assert.Equal(t, true, result["saved"])
	assert.Equal(t, "Austin, TX", rt.Record.Answers["location"])
	assert.Empty(t, sink.all(), "save tools must not emit UI events")
}

func TestSaveAnswers_IdempotentReplay(t *testing.T) {
	want := map[string]string{"industry_interests": "home_services", "location": "Austin, TX"}

	repo := repomocks.NewMockSessionRepository(t)
	repo.On("Patch", mock.Anything, "session-1", mock.MatchedBy(func(fields map[string]any) bool {
		answers, ok := fields["answers"].(map[string]string)
		return ok && assert.ObjectsAreEqual(want, answers)
	})).Return(nil).Times(2)

	reg := tools.NewRegistry(repo, nil, "test-model")
	rt, _ := newTestRuntime(&model.SessionRecord{Answers: map[string]string{"industry_interests": "home_services"}})

	payload := toolCall("save_collected_answers", `{"answers": {"location": "Austin, TX"}}`)
	first := decodeResult(t, reg.Execute(context.Background(), rt, payload))
	second := decodeResult(t, reg.Execute(context.Background(), rt, payload))

	// Replaying the identical payload persists the identical state and
	// reports the same result.
	assert.Equal(t, first, second)
	assert.Equal(t, true, second["saved"])
	assert.Equal(t, want, rt.Record.Answers)
}

func TestSaveAnswers_EmptyPayload(t *testing.T) {
	reg := tools.NewRegistry(repomocks.NewMockSessionRepository(t), nil, "test-model")
	rt, _ := newTestRuntime(&model.SessionRecord{})

	result := decodeResult(t, reg.Execute(context.Background(), rt,
		toolCall("save_collected_answers", `{"answers": {}}`)))
	assert.Equal(t, false, result["saved"])
}

func TestSaveAnswers_PatchFailure(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	repo.On("Patch", mock.Anything, "session-1", mock.Anything).Return(errors.New("disk full")).Once()

	reg := tools.NewRegistry(repo, nil, "test-model")
	rt, _ := newTestRuntime(&model.SessionRecord{})

	result := decodeResult(t, reg.Execute(context.Background(), rt,
		toolCall("save_collected_answers", `{"answers": {"location": "Austin"}}`)))
	assert.Equal(t, false, result["saved"])
	assert.Equal(t, "failed to save", result["error"])
}

func TestSaveNicheChoice_UnknownNiche(t *testing.T) {
	reg := tools.NewRegistry(repomocks.NewMockSessionRepository(t), nil, "test-model")
	rt, _ := newTestRuntime(&model.SessionRecord{
		Recommendations: []model.AIRecommendation{*chosenNiche()},
	})

	result := decodeResult(t, reg.Execute(context.Background(), rt,
		toolCall("save_niche_choice", `{"niche": "Dog walkers"}`)))
	assert.Equal(t, false, result["saved"])
	assert.Contains(t, result["error"], "Dog walkers")
}

func TestSaveNicheChoice_PersistsChoice(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	repo.On("Patch", mock.Anything, "session-1", mock.MatchedBy(func(fields map[string]any) bool {
		_, ok := fields["chosen_recommendation"]
		return ok
	})).Return(nil).Once()

	reg := tools.NewRegistry(repo, nil, "test-model")
	// The offer is already complete, so no background pre-generation runs.
	rt, _ := newTestRuntime(&model.SessionRecord{
		Recommendations: []model.AIRecommendation{*chosenNiche()},
		Offer:           completeOffer(),
	})

	result := decodeResult(t, reg.Execute(context.Background(), rt,
		toolCall("save_niche_choice", `{"niche": "Roofing contractors"}`)))
	assert.Equal(t, true, result["saved"])
	assert.Equal(t, "Roofing contractors", result["niche"])
	require.NotNil(t, rt.Record.ChosenRecommendation)
	assert.Equal(t, "Roofing contractors", rt.Record.ChosenRecommendation.Niche)
}

func TestSaveNicheChoice_StartsOfferPregeneration(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	provider := llmmocks.NewMockProvider(t)

	repo.On("Patch", mock.Anything, "session-1", mock.MatchedBy(func(fields map[string]any) bool {
		_, ok := fields["chosen_recommendation"]
		return ok
	})).Return(nil).Once()

	provider.On("GenerateStructured", mock.Anything, mock.MatchedBy(func(req *llm.StructuredRequest) bool {
		return strings.Contains(req.Prompt, "transformation_from")
	})).Return(json.RawMessage(`{
		"transformation_from": "relying on word of mouth with no steady flow of booked jobs",
		"transformation_to": "a full calendar of booked jobs every week",
		"system_description": "a referral engine that keeps homeowners requesting quotes month after month"
	}`), nil).Once()
	provider.On("GenerateStructured", mock.Anything, mock.MatchedBy(func(req *llm.StructuredRequest) bool {
		return strings.Contains(req.Prompt, "guarantee_text")
	})).Return(json.RawMessage(`{
		"guarantee_text": "ten extra booked jobs in ninety days or you stop paying until they land",
		"guarantee_type": "performance",
		"confidence_notes": "demand is predictable"
	}`), nil).Once()
	provider.On("GenerateStructured", mock.Anything, mock.MatchedBy(func(req *llm.StructuredRequest) bool {
		return strings.Contains(req.Prompt, "pricing_setup")
	})).Return(json.RawMessage(`{
		"pricing_setup": "$1,500",
		"pricing_monthly": "$400",
		"rationale": "priced under the margin of a single extra job, so it pays for itself",
		"comparable_services": [],
		"revenue_projection": "$6,000/month"
	}`), nil).Once()

	persisted := make(chan struct{})
	repo.On("Patch", mock.Anything, "session-1", mock.MatchedBy(func(fields map[string]any) bool {
		_, ok := fields["offer"]
		return ok
	})).Run(func(mock.Arguments) { close(persisted) }).Return(nil).Once()

	reg := tools.NewRegistry(repo, provider, "test-model")
	rt, _ := newTestRuntime(&model.SessionRecord{
		Recommendations: []model.AIRecommendation{*chosenNiche()},
	})

	result := decodeResult(t, reg.Execute(context.Background(), rt,
		toolCall("save_niche_choice", `{"niche": "Roofing contractors"}`)))
	assert.Equal(t, true, result["saved"])

	select {
	case <-persisted:
	case <-time.After(5 * time.Second):
		t.Fatal("pre-generated offer was never persisted")
	}
}

func TestSaveOfferSection_RequiresExistingOffer(t *testing.T) {
	reg := tools.NewRegistry(repomocks.NewMockSessionRepository(t), nil, "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{})

	result := decodeResult(t, reg.Execute(context.Background(), rt,
		toolCall("save_offer_section", `{"fields": {"guarantee_text": "new promise"}}`)))
	assert.Equal(t, true, result["precondition_failed"])
	assert.Empty(t, sink.all())
}

func TestSaveOfferSection_AppliesKnownFields(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	repo.On("Patch", mock.Anything, "session-1", mock.MatchedBy(func(fields map[string]any) bool {
		_, ok := fields["offer"]
		return ok
	})).Return(nil).Once()

	reg := tools.NewRegistry(repo, nil, "test-model")
	rt, _ := newTestRuntime(&model.SessionRecord{Offer: completeOffer()})

	result := decodeResult(t, reg.Execute(context.Background(), rt,
		toolCall("save_offer_section", `{"fields": {"pricing_monthly": "$500", "favourite_colour": "teal"}}`)))
	assert.Equal(t, true, result["saved"])
	assert.Equal(t, float64(1), result["fields_updated"])
	assert.Equal(t, "$500", rt.Record.Offer.PricingMonthly)
}

func TestNicheAnalysis_GuardsMissingProfile(t *testing.T) {
	reg := tools.NewRegistry(repomocks.NewMockSessionRepository(t), llmmocks.NewMockProvider(t), "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{
		Answers: map[string]string{"industry_interests": "home_services", "location": "Austin"},
	})

	result := decodeResult(t, reg.Execute(context.Background(), rt, toolCall("run_niche_analysis", "{}")))
	assert.Equal(t, true, result["precondition_failed"])
	assert.Empty(t, sink.all(), "guard failures must not emit UI events")
}

func TestNicheAnalysis_GuardsMissingAnswers(t *testing.T) {
	reg := tools.NewRegistry(repomocks.NewMockSessionRepository(t), llmmocks.NewMockProvider(t), "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{
		Profile: &model.Profile{TimePerWeek: "10h"},
		Answers: map[string]string{"industry_interests": "home_services"},
	})

	result := decodeResult(t, reg.Execute(context.Background(), rt, toolCall("run_niche_analysis", "{}")))
	assert.Equal(t, true, result["precondition_failed"])
	assert.Contains(t, result["error"], "location")
	assert.Empty(t, sink.all())
}

func TestNicheAnalysis_StreamsProgressAndResults(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	provider := llmmocks.NewMockProvider(t)
	provider.On("GenerateStructured", mock.Anything, mock.Anything).Return(recommendationsJSON(), nil).Once()
	repo.On("Patch", mock.Anything, "session-1", mock.MatchedBy(func(fields map[string]any) bool {
		_, ok := fields["ai_recommendations"]
		return ok
	})).Return(nil).Once()

	reg := tools.NewRegistry(repo, provider, "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{
		Profile: &model.Profile{TimePerWeek: "10h"},
		Answers: map[string]string{"industry_interests": "home_services", "location": "Austin"},
	})

	result := decodeResult(t, reg.Execute(context.Background(), rt, toolCall("run_niche_analysis", "{}")))
	assert.Equal(t, "complete", result["status"])
	assert.Equal(t, float64(3), result["recommendations"])
	assert.Len(t, rt.Record.Recommendations, 3)

	events := sink.all()
	require.NotEmpty(t, events)
	assert.Equal(t, model.CardProgressTracker, events[0].Card.Type)
	last := events[len(events)-1]
	require.NotNil(t, last.Card)
	assert.Equal(t, model.CardScoreCards, last.Card.Type)
	assert.Len(t, last.Card.Recommendations, 3)

	progressEvents := 0
	for _, ev := range events {
		if ev.Type == model.EventProgress {
			progressEvents++
			assert.Equal(t, events[0].Card.ID, ev.CardID)
		}
	}
	assert.Greater(t, progressEvents, 0)
}

func TestNicheAnalysis_PersistFailureStillShowsResults(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	provider := llmmocks.NewMockProvider(t)
	provider.On("GenerateStructured", mock.Anything, mock.Anything).Return(recommendationsJSON(), nil).Once()
	repo.On("Patch", mock.Anything, "session-1", mock.Anything).Return(errors.New("disk full")).Once()

	reg := tools.NewRegistry(repo, provider, "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{
		Profile: &model.Profile{TimePerWeek: "10h"},
		Answers: map[string]string{"industry_interests": "home_services", "location": "Austin"},
	})

	result := decodeResult(t, reg.Execute(context.Background(), rt, toolCall("run_niche_analysis", "{}")))
	assert.Equal(t, "complete", result["status"])

	events := sink.all()
	last := events[len(events)-1]
	require.NotNil(t, last.Card)
	assert.Equal(t, model.CardScoreCards, last.Card.Type)
}

func TestGenerateOffer_GuardsMissingNiche(t *testing.T) {
	reg := tools.NewRegistry(repomocks.NewMockSessionRepository(t), llmmocks.NewMockProvider(t), "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{})

	result := decodeResult(t, reg.Execute(context.Background(), rt, toolCall("generate_offer", "{}")))
	assert.Equal(t, true, result["precondition_failed"])
	assert.Empty(t, sink.all())
}

func TestGenerateOffer_ReusesPregeneratedOffer(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	// No provider expectations: reuse must not trigger any generation.
	provider := llmmocks.NewMockProvider(t)
	repo.On("Get", mock.Anything, "session-1").Return(&model.SessionRecord{
		ID:                   "session-1",
		ChosenRecommendation: chosenNiche(),
		Offer:                completeOffer(),
	}, nil).Once()

	reg := tools.NewRegistry(repo, provider, "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{ChosenRecommendation: chosenNiche()})

	result := decodeResult(t, reg.Execute(context.Background(), rt, toolCall("generate_offer", "{}")))
	assert.Equal(t, "complete", result["status"])
	assert.Equal(t, true, result["reused_pregenerated"])

	// A single summary card, no progress tracker.
	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, model.CardOfferSummary, events[0].Card.Type)
	require.Len(t, events[0].Card.Fields, 5)
	assert.Equal(t, "transformation_from", events[0].Card.Fields[0].Name)
}

func TestGenerateSystem_GuardsIncompleteOffer(t *testing.T) {
	reg := tools.NewRegistry(repomocks.NewMockSessionRepository(t), llmmocks.NewMockProvider(t), "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{
		ChosenRecommendation: chosenNiche(),
		Offer:                &model.AssembledOffer{TransformationFrom: "half an offer"},
	})

	result := decodeResult(t, reg.Execute(context.Background(), rt, toolCall("generate_system", "{}")))
	assert.Equal(t, true, result["precondition_failed"])
	assert.Empty(t, sink.all())
}

func TestGenerateSystem_CompletesSession(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	provider := llmmocks.NewMockProvider(t)
	provider.On("GenerateStructured", mock.Anything, mock.Anything).Return(demoConfigJSON(), nil).Once()
	repo.On("Patch", mock.Anything, "session-1", mock.MatchedBy(func(fields map[string]any) bool {
		_, hasConfig := fields["demo_config"]
		return hasConfig && fields["status"] == model.StatusComplete
	})).Return(nil).Once()

	reg := tools.NewRegistry(repo, provider, "test-model")
	rt, sink := newTestRuntime(&model.SessionRecord{
		ChosenRecommendation: chosenNiche(),
		Offer:                completeOffer(),
	})

	result := decodeResult(t, reg.Execute(context.Background(), rt, toolCall("generate_system", "{}")))
	assert.Equal(t, "complete", result["status"])
	assert.Equal(t, "roofing-contractors", result["demo_slug"])
	assert.Equal(t, model.StatusComplete, rt.Record.Status)

	events := sink.all()
	require.GreaterOrEqual(t, len(events), 2)

	// The editable page copy precedes the ready announcement.
	copyCard := events[len(events)-2]
	require.NotNil(t, copyCard.Card)
	assert.Equal(t, model.CardEditableContent, copyCard.Card.Type)
	require.Len(t, copyCard.Card.Fields, 3)
	assert.Equal(t, "hero_headline", copyCard.Card.Fields[0].Name)
	assert.Equal(t, "A full calendar of booked roofing jobs", copyCard.Card.Fields[0].Value)

	last := events[len(events)-1]
	require.NotNil(t, last.Card)
	assert.Equal(t, model.CardSystemReady, last.Card.Type)
	require.NotNil(t, last.Card.Demo)
	assert.Equal(t, "roofing-contractors", last.Card.Demo.NicheSlug)
}
