package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ventureforge/internal/interfaces"
	"ventureforge/internal/model"
)

// WorkflowHandler exposes the standalone offer/demo progress endpoints, the
// simpler sibling of the progress cards embedded in a conversation turn.
// Vocabulary: progress, step-complete, complete (result inline), error.
type WorkflowHandler struct {
	service interfaces.WorkflowService
}

func NewWorkflowHandler(service interfaces.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{service: service}
}

func (h *WorkflowHandler) StreamOffer(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.service.StreamOffer)
}

func (h *WorkflowHandler) StreamDemo(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.service.StreamDemo)
}

func (h *WorkflowHandler) stream(
	w http.ResponseWriter,
	r *http.Request,
	run func(ctx context.Context, sessionID string, events chan<- model.WorkflowEvent),
) {
	sessionID := chi.URLParam(r, "sessionID")
	setStreamHeaders(w)

	events := make(chan model.WorkflowEvent)
	go run(r.Context(), sessionID, events)

	for ev := range events {
		if r.Context().Err() != nil {
			// The workflow keeps running fire-and-forget; only the
			// delivery of progress stops here.
			slog.Info("Client disconnected from workflow stream", "session_id", sessionID)
			break
		}
		if err := writeStreamEvent(w, ev); err != nil {
			slog.Warn("Workflow stream write failed", "session_id", sessionID, "error", err)
			break
		}
	}
	for range events {
	}
}
