package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"ventureforge/internal/llm"
	"ventureforge/internal/repository"
	"ventureforge/internal/workflow"
)

// Registry holds every tool the model may invoke during a turn. Tool
// execution runs inline with the model round: each execute body emits its
// own card/progress events through the Runtime before the model resumes,
// so visual output lands in true execution order.
type Registry struct {
	repo   repository.SessionRepository
	niche  *workflow.NicheAnalysis
	offers *workflow.OfferWorkflow
	demos  *workflow.DemoWorkflow
}

func NewRegistry(repo repository.SessionRepository, provider llm.Provider, model string) *Registry {
	return &Registry{
		repo:   repo,
		niche:  workflow.NewNicheAnalysis(provider, model),
		offers: workflow.NewOfferWorkflow(provider, model),
		demos:  workflow.NewDemoWorkflow(provider, model),
	}
}

// toolResult is what a tool hands back to the model. Action tools return a
// minimal success summary only; the card is the source of truth for
// detail, and the model's narration is colour commentary.
type toolResult map[string]any

func (r toolResult) encode() string {
	encoded, err := json.Marshal(r)
	if err != nil {
		return `{"error":"could not encode tool result"}`
	}
	return string(encoded)
}

func errorResult(message string) string {
	return toolResult{"error": message}.encode()
}

func preconditionResult(message string) string {
	return toolResult{"error": message, "precondition_failed": true}.encode()
}

// Definitions returns the tool schemas bound to the model call.
func (r *Registry) Definitions() []llm.Tool {
	var defs []llm.Tool
	defs = append(defs, inputToolDefs...)
	defs = append(defs, dynamicToolDefs...)
	defs = append(defs, saveToolDefs...)
	defs = append(defs, actionToolDefs...)
	return defs
}

// Execute dispatches one tool call. Failures never propagate as Go errors
// across the model boundary: every outcome is encoded as a JSON result the
// model can read and react to.
func (r *Registry) Execute(ctx context.Context, rt *Runtime, call llm.ToolCall) string {
	rt.recordTool(call.Name)
	slog.Debug("Executing tool", "tool", call.Name, "session_id", rt.SessionID)

	switch call.Name {
	case "request_industry_interests", "request_location", "request_what_went_wrong",
		"request_delivery_model", "request_pricing_direction":
		return r.executeInputRequest(rt, call.Name)
	case "present_choices":
		return r.executePresentChoices(rt, call.Arguments)
	case "request_input":
		return r.executeRequestInput(rt, call.Arguments)
	case "save_collected_answers":
		return r.executeSaveAnswers(ctx, rt, call.Arguments)
	case "save_niche_choice":
		return r.executeSaveNicheChoice(ctx, rt, call.Arguments)
	case "save_offer_section":
		return r.executeSaveOfferSection(ctx, rt, call.Arguments)
	case "run_niche_analysis":
		return r.executeNicheAnalysis(ctx, rt)
	case "generate_offer":
		return r.executeGenerateOffer(ctx, rt)
	case "generate_system":
		return r.executeGenerateSystem(ctx, rt)
	default:
		return errorResult("unknown tool: " + call.Name)
	}
}
