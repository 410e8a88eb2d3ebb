package model

// ServerEvent is the discriminated union streamed to the client during a
// conversation turn, one JSON object per SSE data frame. Exactly one
// EventDone or EventError terminates every stream.
type ServerEvent struct {
	Type    string     `json:"type"`
	Delta   string     `json:"delta,omitempty"`
	Card    *Card      `json:"card,omitempty"`
	CardID  string     `json:"card_id,omitempty"`
	StepID  string     `json:"step_id,omitempty"`
	Status  StepStatus `json:"status,omitempty"`
	Content string     `json:"content,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// ServerEvent types.
const (
	EventTextDelta    = "text-delta"
	EventThinking     = "thinking"
	EventThinkingDone = "thinking-done"
	EventCard         = "card"
	EventProgress     = "progress"
	EventDone         = "done"
	EventError        = "error"
)

// StepStatus is the lifecycle of one step on a progress-tracker card.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepActive  StepStatus = "active"
	StepDone    StepStatus = "done"
)

// Card types. Each type is a rendering contract for one interactive unit.
const (
	CardOptionSelector  = "option-selector"
	CardTextInput       = "text-input"
	CardLocation        = "location"
	CardProgressTracker = "progress-tracker"
	CardScoreCards      = "score-cards"
	CardEditableContent = "editable-content"
	CardOfferSummary    = "offer-summary"
	CardSystemReady     = "system-ready"
)

// CardOption is one selectable choice on an option-selector card.
type CardOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ProgressStep is one labelled step on a progress-tracker card.
type ProgressStep struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Status StepStatus `json:"status"`
}

// EditableField is one independently-editable named field on an
// editable-content card.
type EditableField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Card fully describes one interactive unit; card events never carry
// partial cards. IDs are unique within a conversation and never reused, so
// the client can target in-place updates (progress step transitions) by id.
type Card struct {
	ID              string             `json:"id"`
	Type            string             `json:"type"`
	Field           string             `json:"field,omitempty"`
	Question        string             `json:"question,omitempty"`
	Options         []CardOption       `json:"options,omitempty"`
	Multi           bool               `json:"multi,omitempty"`
	Placeholder     string             `json:"placeholder,omitempty"`
	Steps           []ProgressStep     `json:"steps,omitempty"`
	Recommendations []AIRecommendation `json:"recommendations,omitempty"`
	Fields          []EditableField    `json:"fields,omitempty"`
	Offer           *AssembledOffer    `json:"offer,omitempty"`
	Demo            *DemoConfig        `json:"demo,omitempty"`
}

// WorkflowEvent is the reduced vocabulary used by the standalone offer/demo
// progress endpoints: progress, step-complete, complete (with the result
// inline) or error.
type WorkflowEvent struct {
	Type   string      `json:"type"`
	Step   string      `json:"step,omitempty"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// WorkflowEvent types.
const (
	WorkflowProgress     = "progress"
	WorkflowStepComplete = "step-complete"
	WorkflowComplete     = "complete"
	WorkflowError        = "error"
)
