package workflow

import (
	"context"
	"log/slog"

	"ventureforge/internal/llm"
	"ventureforge/internal/model"
	"ventureforge/internal/repository"
)

// Service exposes the offer and demo workflows on their standalone
// streaming endpoints, outside any conversation turn. The event vocabulary
// here is the reduced one: progress, step-complete, complete (result
// inline), error.
type Service struct {
	repo   repository.SessionRepository
	offers *OfferWorkflow
	demos  *DemoWorkflow
}

func NewService(repo repository.SessionRepository, provider llm.Provider, model string) *Service {
	return &Service{
		repo:   repo,
		offers: NewOfferWorkflow(provider, model),
		demos:  NewDemoWorkflow(provider, model),
	}
}

// StreamOffer runs the offer workflow for a session, streaming progress and
// the final assembled offer. The channel is closed when the run settles.
func (s *Service) StreamOffer(ctx context.Context, sessionID string, events chan<- model.WorkflowEvent) {
	defer close(events)

	record, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		slog.Error("Could not load session for offer workflow", "session_id", sessionID, "error", err)
		events <- model.WorkflowEvent{Type: model.WorkflowError, Error: "Could not load your session."}
		return
	}

	offer, err := s.offers.Run(ctx, OfferInput{
		Niche:    record.ChosenRecommendation,
		Profile:  record.Profile,
		Answers:  record.Answers,
		Existing: record.Offer,
	}, notifyToEvents(ctx, events))
	if err != nil {
		slog.Error("Offer workflow failed", "session_id", sessionID, "error", err)
		events <- model.WorkflowEvent{Type: model.WorkflowError, Error: "Offer generation failed. Please try again."}
		return
	}

	if err := s.repo.Patch(ctx, sessionID, map[string]any{"offer": offer}); err != nil {
		// Shown anyway; see the durability note in the engine.
		slog.Error("Failed to persist offer", "session_id", sessionID, "error", err)
	}
	events <- model.WorkflowEvent{Type: model.WorkflowComplete, Result: offer}
}

// StreamDemo runs the demo workflow for a session, streaming progress and
// the final demo configuration.
func (s *Service) StreamDemo(ctx context.Context, sessionID string, events chan<- model.WorkflowEvent) {
	defer close(events)

	record, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		slog.Error("Could not load session for demo workflow", "session_id", sessionID, "error", err)
		events <- model.WorkflowEvent{Type: model.WorkflowError, Error: "Could not load your session."}
		return
	}

	config, err := s.demos.Run(ctx, DemoInput{
		Niche: record.ChosenRecommendation,
		Offer: record.Offer,
	}, notifyToEvents(ctx, events))
	if err != nil {
		slog.Error("Demo workflow failed", "session_id", sessionID, "error", err)
		events <- model.WorkflowEvent{Type: model.WorkflowError, Error: "Demo generation failed. Please try again."}
		return
	}

	if err := s.repo.Patch(ctx, sessionID, map[string]any{
		"demo_config": config,
		"status":      model.StatusComplete,
	}); err != nil {
		slog.Error("Failed to persist demo config", "session_id", sessionID, "error", err)
	}
	events <- model.WorkflowEvent{Type: model.WorkflowComplete, Result: config}
}

func notifyToEvents(ctx context.Context, events chan<- model.WorkflowEvent) Notify {
	return func(step string, done bool) {
		eventType := model.WorkflowProgress
		if done {
			eventType = model.WorkflowStepComplete
		}
		select {
		case events <- model.WorkflowEvent{Type: eventType, Step: step}:
		case <-ctx.Done():
		}
	}
}
