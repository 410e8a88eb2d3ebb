package llm

import (
	"context"
	"encoding/json"
)

// StructuredRequest asks the model for a single JSON object. The target
// shape is embedded in the prompt and enforced by JSON-object response mode;
// callers unmarshal the raw result into their own typed struct.
type StructuredRequest struct {
	Model  string
	System string
	Prompt string
}

// ChatRequest is one streaming round of a tool-bound conversation.
type ChatRequest struct {
	Model    string
	Messages []ChatMessage
	Tools    []Tool
}

// Chunk is one increment of a streamed chat round. TextDelta and
// ReasoningDelta arrive as they are produced; completed tool calls arrive
// only on the final chunk, together with Done and the finish reason.
type Chunk struct {
	TextDelta      string
	ReasoningDelta string
	ToolCalls      []ToolCall
	FinishReason   string
	Done           bool
	Error          string
}

// Provider is the text-generation capability consumed by the engine and the
// workflows. The concrete model vendor is fully substitutable behind it.
type Provider interface {
	// GenerateStructured returns one JSON object conforming to the shape
	// described in the request prompt.
	GenerateStructured(ctx context.Context, req *StructuredRequest) (json.RawMessage, error)

	// StreamChat runs one model round with tools bound, sending chunks on
	// ch until the terminal chunk. The channel is closed by the provider.
	StreamChat(ctx context.Context, req *ChatRequest, ch chan<- Chunk) error
}
