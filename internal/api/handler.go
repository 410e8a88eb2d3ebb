package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ventureforge/internal/engine"
	"ventureforge/internal/interfaces"
	"ventureforge/internal/model"
)

// ConversationHandler exposes the session endpoints and the conversation
// stream.
type ConversationHandler struct {
	service interfaces.ConversationService
}

func NewConversationHandler(service interfaces.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// CreateSessionRequest carries the intake profile the client collects
// before the conversation starts. Everything downstream (the system prompt,
// the niche analysis, the recommendation count) reads the profile, so a
// session cannot be created without one.
type CreateSessionRequest struct {
	Profile *model.Profile `json:"profile" validate:"required"`
}

// CreateSession bootstraps a new session around the submitted profile and
// returns its record.
func (h *ConversationHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	record, err := h.service.CreateSession(r.Context(), req.Profile)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, record)
}

// GetSession returns the full session record, including its conversation
// history, the client's resumption source after a reload.
func (h *ConversationHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	record, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, record)
}

// StreamTurn handles one conversation turn. Input validation failures are
// rejected as plain JSON before any streaming begins; once streaming has
// started, the response is a ServerEvent sequence terminated by exactly one
// done or error frame.
func (h *ConversationHandler) StreamTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req engine.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	setStreamHeaders(w)

	events := make(chan model.ServerEvent)
	go h.service.StreamTurn(r.Context(), sessionID, &req, events)

	for ev := range events {
		if r.Context().Err() != nil {
			slog.Info("Client disconnected mid-stream", "session_id", sessionID)
			break
		}
		if err := writeStreamEvent(w, ev); err != nil {
			slog.Warn("Stream write failed, client likely gone", "session_id", sessionID, "error", err)
			break
		}
	}
	// Drain so the engine goroutine can finish and close the channel even
	// after a disconnect.
	for range events {
	}
}
