package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"ventureforge/internal/llm"
	"ventureforge/internal/model"
)

// Save tools perform a single persistence patch and return {saved: bool}.
// They never emit UI events and are idempotent: repeating the same payload
// leaves the same persisted state.

type saveAnswersArgs struct {
	Answers map[string]string `json:"answers"`
}

func (r *Registry) executeSaveAnswers(ctx context.Context, rt *Runtime, arguments string) string {
	var args saveAnswersArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorResult("invalid save_collected_answers arguments: " + err.Error())
	}
	if len(args.Answers) == 0 {
		return toolResult{"saved": false, "error": "no answers provided"}.encode()
	}

	if rt.Record.Answers == nil {
		rt.Record.Answers = map[string]string{}
	}
	for k, v := range args.Answers {
		rt.Record.Answers[k] = v
	}

	if err := r.repo.Patch(ctx, rt.SessionID, map[string]any{"answers": rt.Record.Answers}); err != nil {
		slog.Error("Failed to save collected answers", "session_id", rt.SessionID, "error", err)
		return toolResult{"saved": false, "error": "failed to save"}.encode()
	}
	return toolResult{"saved": true}.encode()
}

type saveNicheChoiceArgs struct {
	Niche string `json:"niche"`
}

func (r *Registry) executeSaveNicheChoice(ctx context.Context, rt *Runtime, arguments string) string {
	var args saveNicheChoiceArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorResult("invalid save_niche_choice arguments: " + err.Error())
	}

	var chosen *model.AIRecommendation
	for i := range rt.Record.Recommendations {
		if rt.Record.Recommendations[i].Niche == args.Niche {
			chosen = &rt.Record.Recommendations[i]
			break
		}
	}
	if chosen == nil {
		return toolResult{"saved": false, "error": "niche not found among recommendations: " + args.Niche}.encode()
	}

	rt.Record.ChosenRecommendation = chosen
	if err := r.repo.Patch(ctx, rt.SessionID, map[string]any{"chosen_recommendation": chosen}); err != nil {
		slog.Error("Failed to save niche choice", "session_id", rt.SessionID, "error", err)
		return toolResult{"saved": false, "error": "failed to save"}.encode()
	}

	// Fire-and-forget offer pre-generation: by the time the user reaches
	// offer review the offer is usually already persisted, and the
	// generate_offer tool short-circuits onto it. Deliberately detached
	// from the request context: client disconnects must not cancel it.
	r.pregenerateOffer(rt.SessionID, rt.Record.Snapshot())

	return toolResult{"saved": true, "niche": chosen.Niche}.encode()
}

type saveOfferSectionArgs struct {
	Fields map[string]string `json:"fields"`
}

// offerFieldSetters maps patchable offer field names to their setters.
var offerFieldSetters = map[string]func(*model.AssembledOffer, string){
	"transformation_from": func(o *model.AssembledOffer, v string) { o.TransformationFrom = v },
	"transformation_to":   func(o *model.AssembledOffer, v string) { o.TransformationTo = v },
	"system_description":  func(o *model.AssembledOffer, v string) { o.SystemDescription = v },
	"guarantee_text":      func(o *model.AssembledOffer, v string) { o.GuaranteeText = v },
	"guarantee_type":      func(o *model.AssembledOffer, v string) { o.GuaranteeType = v },
	"pricing_setup":       func(o *model.AssembledOffer, v string) { o.PricingSetup = v },
	"pricing_monthly":     func(o *model.AssembledOffer, v string) { o.PricingMonthly = v },
	"pricing_rationale":   func(o *model.AssembledOffer, v string) { o.PricingRationale = v },
}

func (r *Registry) executeSaveOfferSection(ctx context.Context, rt *Runtime, arguments string) string {
	var args saveOfferSectionArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorResult("invalid save_offer_section arguments: " + err.Error())
	}
	if rt.Record.Offer == nil {
		return preconditionResult("no offer exists yet; generate the offer first")
	}

	applied := 0
	for name, value := range args.Fields {
		if set, ok := offerFieldSetters[name]; ok {
			set(rt.Record.Offer, value)
			applied++
		}
	}
	if applied == 0 {
		return toolResult{"saved": false, "error": "no recognized offer fields in patch"}.encode()
	}

	if err := r.repo.Patch(ctx, rt.SessionID, map[string]any{"offer": rt.Record.Offer}); err != nil {
		slog.Error("Failed to save offer section", "session_id", rt.SessionID, "error", err)
		return toolResult{"saved": false, "error": "failed to save"}.encode()
	}
	return toolResult{"saved": true, "fields_updated": applied}.encode()
}

var saveToolDefs = []llm.Tool{
	{
		Name:        "save_collected_answers",
		Description: "Persist one or more collected answers as a key/value patch. Call this after every user answer, before asking the next question. Idempotent.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"answers": {
					"type": "object",
					"additionalProperties": {"type": "string"},
					"description": "field name to answer value"
				}
			},
			"required": ["answers"]
		}`),
	},
	{
		Name:        "save_niche_choice",
		Description: "Persist the user's chosen niche. The niche must be one of the names from the analysis results.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"niche": {"type": "string", "description": "exact niche name from the recommendations"}
			},
			"required": ["niche"]
		}`),
	},
	{
		Name:        "save_offer_section",
		Description: "Persist edits to named offer fields after the user changes them during offer review. Idempotent.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"fields": {
					"type": "object",
					"additionalProperties": {"type": "string"},
					"description": "offer field name (e.g. guarantee_text, pricing_monthly) to new value"
				}
			},
			"required": ["fields"]
		}`),
	},
}
