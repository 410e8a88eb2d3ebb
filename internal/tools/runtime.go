// Package tools implements the agent-invocable operations: input-request
// tools that emit interactive cards, save tools that persist field patches,
// action tools that run a generation workflow while streaming its progress,
// and dynamic tools for ad-hoc questions.
package tools

import (
	"fmt"
	"sync"

	"ventureforge/internal/model"
)

// Runtime is the request-scoped context handed to every tool execution:
// the session, a snapshot of its record, and the event emitter wired into
// the turn's stream. It is always passed explicitly, never held as ambient
// state, so concurrent requests for different sessions cannot leak into one
// another.
type Runtime struct {
	SessionID string
	Record    *model.SessionRecord

	emit func(model.ServerEvent)

	mu      sync.Mutex
	cardSeq int
	fired   []string
}

func NewRuntime(sessionID string, record *model.SessionRecord, emit func(model.ServerEvent)) *Runtime {
	return &Runtime{SessionID: sessionID, Record: record, emit: emit}
}

// Emit pushes an event into the turn's stream, interleaved with the
// model's narration in true execution order.
func (rt *Runtime) Emit(ev model.ServerEvent) {
	if rt.emit != nil {
		rt.emit(ev)
	}
}

// NextCardID returns a server-namespaced card id. Dynamic ids supplied by
// the model are folded into the suffix rather than trusted as-is, so two
// ad-hoc questions can never collide.
func (rt *Runtime) NextCardID(suffix string) string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.cardSeq++
	if suffix == "" {
		return fmt.Sprintf("card-%d", rt.cardSeq)
	}
	return fmt.Sprintf("card-%d-%s", rt.cardSeq, suffix)
}

func (rt *Runtime) recordTool(name string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, f := range rt.fired {
		if f == name {
			return
		}
	}
	rt.fired = append(rt.fired, name)
}

// ToolsFired lists the tool names executed this turn, in first-call order.
// The engine appends them to the persisted assistant message as the lossy
// tool-usage suffix.
func (rt *Runtime) ToolsFired() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]string, len(rt.fired))
	copy(out, rt.fired)
	return out
}
