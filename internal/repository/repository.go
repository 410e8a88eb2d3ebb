package repository

import (
	"context"

	"ventureforge/internal/model"
)

// SessionRepository is the document-store contract for session records.
// The core only assumes equality-filtered reads and atomic partial-field
// patch semantics, never a particular storage engine.
type SessionRepository interface {
	Create(ctx context.Context, record *model.SessionRecord) error
	Get(ctx context.Context, sessionID string) (*model.SessionRecord, error)

	// Patch writes only the named document fields (last-write-wins).
	// Allowed keys are the JSON document field names: status, profile,
	// answers, ai_recommendations, chosen_recommendation, offer,
	// demo_config, conversation_history.
	Patch(ctx context.Context, sessionID string, fields map[string]any) error

	// AppendHistory atomically appends messages to conversation_history.
	AppendHistory(ctx context.Context, sessionID string, messages []model.ConversationMessage) error
}
