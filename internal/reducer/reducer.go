// Package reducer reconstructs the ordered message list from a server
// event stream. It is the Go counterpart of the browser client's stream
// hook and is exercised by the CLI client and the tests: same events in,
// same view model out.
package reducer

import (
	"encoding/json"
	"strings"

	"ventureforge/internal/model"
)

// Reducer folds ServerEvents into an append-only ChatMessage list plus the
// transient streaming/thinking indicators.
type Reducer struct {
	Messages []model.ChatMessage

	// Thinking is transient UI state, never part of the message list.
	Thinking  bool
	Streaming bool

	// LastError holds the user-safe message of a terminal error event.
	LastError string

	streamingIdx int            // index of the open streaming text message, -1 when none
	cardIdx      map[string]int // card id -> message index
}

func New() *Reducer {
	return &Reducer{streamingIdx: -1, cardIdx: map[string]int{}}
}

// AddUserMessage appends the user's outbound message (typed or a card
// response echo) before the stream for the turn begins.
func (r *Reducer) AddUserMessage(content string, isCardResponse bool) {
	r.Messages = append(r.Messages, model.ChatMessage{
		Role:           "user",
		Content:        content,
		IsCardResponse: isCardResponse,
	})
}

// Apply advances the view model by one event.
func (r *Reducer) Apply(ev model.ServerEvent) {
	switch ev.Type {
	case model.EventTextDelta:
		if r.streamingIdx < 0 {
			r.Messages = append(r.Messages, model.ChatMessage{
				Role:        "assistant",
				Type:        model.MessageText,
				Content:     ev.Delta,
				IsStreaming: true,
			})
			r.streamingIdx = len(r.Messages) - 1
		} else {
			r.Messages[r.streamingIdx].Content += ev.Delta
		}
		r.Streaming = true

	case model.EventThinking:
		r.Thinking = true

	case model.EventThinkingDone:
		r.Thinking = false

	case model.EventCard:
		if ev.Card == nil {
			return
		}
		// Close any open text message first so card output never gets
		// narration appended after it out of order.
		r.closeStreaming()
		r.Messages = append(r.Messages, model.ChatMessage{
			Role: "assistant",
			Type: model.MessageCard,
			Card: ev.Card,
		})
		r.cardIdx[ev.Card.ID] = len(r.Messages) - 1

	case model.EventProgress:
		r.applyProgress(ev)

	case model.EventDone:
		r.closeStreaming()
		r.Thinking = false
		r.Streaming = false

	case model.EventError:
		r.closeStreaming()
		r.Thinking = false
		r.Streaming = false
		r.LastError = ev.Error
		if ev.Error != "" {
			r.Messages = append(r.Messages, model.ChatMessage{
				Role:    "assistant",
				Type:    model.MessageText,
				Content: ev.Error,
			})
		}
	}
}

// applyProgress updates exactly the named step. Statuses never regress,
// and marking one step active forces any other active step on the same
// card to done, so at most one step is ever shown active even under timer
// drift.
func (r *Reducer) applyProgress(ev model.ServerEvent) {
	idx, ok := r.cardIdx[ev.CardID]
	if !ok {
		return
	}
	card := r.Messages[idx].Card
	if card == nil || card.Type != model.CardProgressTracker {
		return
	}

	for i := range card.Steps {
		step := &card.Steps[i]
		if step.ID != ev.StepID {
			if ev.Status == model.StepActive && step.Status == model.StepActive {
				step.Status = model.StepDone
			}
			continue
		}
		if step.Status == model.StepDone {
			continue // done is terminal
		}
		step.Status = ev.Status
	}
}

// CompleteCard records the user interacting with a card: the card flips to
// completed (exactly once), a user bubble echoes the human-readable
// selection, and the machine-readable string to send as the next turn's
// user message is returned.
func (r *Reducer) CompleteCard(cardID, humanEcho, machineValue string) string {
	idx, ok := r.cardIdx[cardID]
	if !ok {
		return ""
	}
	msg := &r.Messages[idx]
	if msg.Completed {
		return ""
	}
	msg.Completed = true
	r.AddUserMessage(humanEcho, true)

	field := ""
	if msg.Card != nil {
		field = msg.Card.Field
	}
	return "[" + field + " selected: " + machineValue + "]"
}

func (r *Reducer) closeStreaming() {
	if r.streamingIdx >= 0 {
		r.Messages[r.streamingIdx].IsStreaming = false
		r.streamingIdx = -1
	}
}

// ApplyLine consumes one raw SSE line. Lines that are not data frames, or
// whose payload is not valid JSON, are skipped silently; a malformed
// frame must never corrupt the message list.
func (r *Reducer) ApplyLine(line string) {
	line = strings.TrimRight(line, "\r\n")
	const prefix = "data: "
	if !strings.HasPrefix(line, prefix) {
		return
	}
	var ev model.ServerEvent
	if err := json.Unmarshal([]byte(line[len(prefix):]), &ev); err != nil {
		return
	}
	r.Apply(ev)
}
