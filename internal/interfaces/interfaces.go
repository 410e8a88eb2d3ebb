package interfaces

import (
	"context"

	"ventureforge/internal/engine"
	"ventureforge/internal/model"
)

// This file defines the contracts the API layer depends on. Depending on
// interfaces instead of the concrete engine/workflow types keeps the
// handlers testable with mocks.

// ConversationService drives conversation turns and session lifecycle.
type ConversationService interface {
	CreateSession(ctx context.Context, profile *model.Profile) (*model.SessionRecord, error)
	GetSession(ctx context.Context, sessionID string) (*model.SessionRecord, error)
	StreamTurn(ctx context.Context, sessionID string, req *engine.TurnRequest, events chan<- model.ServerEvent)
}

// WorkflowService runs the offer and demo workflows on their standalone
// progress endpoints.
type WorkflowService interface {
	StreamOffer(ctx context.Context, sessionID string, events chan<- model.WorkflowEvent)
	StreamDemo(ctx context.Context, sessionID string, events chan<- model.WorkflowEvent)
}
