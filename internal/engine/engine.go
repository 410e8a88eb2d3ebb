// Package engine drives one conversation exchange: it binds the tool
// registry to the request, streams the model's narration and the tools'
// cards over a single event channel, and persists the updated history once
// the turn completes.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "ventureforge/internal/errors"
	"ventureforge/internal/llm"
	"ventureforge/internal/model"
	"ventureforge/internal/prompt"
	"ventureforge/internal/repository"
	"ventureforge/internal/tools"
)

// maxToolRounds caps the number of sequential model rounds in one turn,
// preventing a runaway tool-calling loop.
const maxToolRounds = 20

// Engine is the conversation core.
type Engine struct {
	repo     repository.SessionRepository
	provider llm.Provider
	registry *tools.Registry
	model    string
}

func New(repo repository.SessionRepository, provider llm.Provider, registry *tools.Registry, model string) *Engine {
	return &Engine{repo: repo, provider: provider, registry: registry, model: model}
}

// TurnRequest is one conversation turn from the client. The client replays
// the full prior history on every turn; that replay is its only
// resumption contract.
type TurnRequest struct {
	Messages    []model.ConversationMessage `json:"messages"`
	UserMessage string                      `json:"user_message" validate:"required,min=1"`
}

// CreateSession bootstraps a session record around the intake profile. The
// profile is the one document the conversation itself never collects, so it
// must arrive here; every downstream step reads it.
func (e *Engine) CreateSession(ctx context.Context, profile *model.Profile) (*model.SessionRecord, error) {
	now := time.Now().UTC()
	record := &model.SessionRecord{
		ID:        uuid.NewString(),
		Status:    model.StatusInProgress,
		Profile:   profile,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: could not create session: %v", apperrors.ErrInternal, err)
	}
	return record, nil
}

// GetSession loads a session record.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*model.SessionRecord, error) {
	record, err := e.repo.Get(ctx, sessionID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
		}
		return nil, err
	}
	return record, nil
}

// StreamTurn processes one exchange and emits the typed event sequence on
// events, closing it when the turn ends. Exactly one done or error event
// terminates the sequence. History is appended only on the success path, so
// a failed stream leaves the persisted conversation untouched and a retry
// replays cleanly.
func (e *Engine) StreamTurn(ctx context.Context, sessionID string, req *TurnRequest, events chan<- model.ServerEvent) {
	defer close(events)

	emit := func(ev model.ServerEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	record, err := e.repo.Get(ctx, sessionID)
	if err != nil {
		slog.Error("Could not load session for turn", "session_id", sessionID, "error", err)
		emit(model.ServerEvent{Type: model.EventError, Error: "Could not load your session. Please try again."})
		return
	}

	rt := tools.NewRuntime(sessionID, record, emit)

	messages := []llm.ChatMessage{{Role: llm.RoleSystem, Content: prompt.BuildSystem(record)}}
	for _, m := range req.Messages {
		messages = append(messages, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: req.UserMessage})

	var narration strings.Builder
	thinkingOpen := false
	closeThinking := func() {
		if thinkingOpen {
			emit(model.ServerEvent{Type: model.EventThinkingDone})
			thinkingOpen = false
		}
	}

	for round := 0; round < maxToolRounds; round++ {
		chunks := make(chan llm.Chunk)
		go func() {
			if err := e.provider.StreamChat(ctx, &llm.ChatRequest{
				Model:    e.model,
				Messages: messages,
				Tools:    e.registry.Definitions(),
			}, chunks); err != nil {
				slog.Error("Model stream failed", "session_id", sessionID, "round", round, "error", err)
			}
		}()

		var final llm.Chunk
		roundText := strings.Builder{}
		streamFailed := false
		for chunk := range chunks {
			switch {
			case chunk.Error != "":
				streamFailed = true
			case chunk.ReasoningDelta != "":
				thinkingOpen = true
				emit(model.ServerEvent{Type: model.EventThinking, Delta: chunk.ReasoningDelta})
			case chunk.TextDelta != "":
				closeThinking()
				narration.WriteString(chunk.TextDelta)
				roundText.WriteString(chunk.TextDelta)
				emit(model.ServerEvent{Type: model.EventTextDelta, Delta: chunk.TextDelta})
			}
			if chunk.Done {
				final = chunk
			}
		}
		closeThinking()

		if streamFailed {
			// Already-emitted events are not retracted; the stream just
			// terminates with a user-safe error and history stays as it was.
			emit(model.ServerEvent{Type: model.EventError, Error: "Something went wrong while generating the response. Please try again."})
			return
		}

		if len(final.ToolCalls) == 0 {
			break
		}

		// Tools execute synchronously inside the round, emitting their own
		// cards into the same channel, then their results feed the next
		// round.
		messages = append(messages, llm.ChatMessage{
			Role:      llm.RoleAssistant,
			Content:   roundText.String(),
			ToolCalls: final.ToolCalls,
		})
		for _, call := range final.ToolCalls {
			result := e.registry.Execute(ctx, rt, call)
			messages = append(messages, llm.ChatMessage{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	content := strings.TrimSpace(narration.String())
	if fired := rt.ToolsFired(); len(fired) > 0 {
		suffix := "[tools:" + strings.Join(fired, ",") + "]"
		if content == "" {
			content = suffix
		} else {
			content += " " + suffix
		}
	}

	now := time.Now().UTC()
	pair := []model.ConversationMessage{
		{Role: "user", Content: req.UserMessage, Timestamp: now},
		{Role: "assistant", Content: content, Timestamp: now},
	}
	if err := e.repo.AppendHistory(ctx, sessionID, pair); err != nil {
		// The generation itself succeeded and has been shown; losing the
		// history append is a durability gap, not a turn failure.
		slog.Error("Failed to append conversation history", "session_id", sessionID, "error", err)
	}

	emit(model.ServerEvent{Type: model.EventDone, Content: content})
}
