package model

// ChatMessage is the client-only view model maintained by the stream
// reducer. It is never persisted. Text messages mutate in place while
// IsStreaming is set (content grows by appended deltas) and freeze when the
// stream moves on; card messages flip Completed exactly once, when the user
// interacts with the card.
type ChatMessage struct {
	Role           string `json:"role"`
	Type           string `json:"type,omitempty"` // "text" or "card" for assistant messages
	Content        string `json:"content,omitempty"`
	IsStreaming    bool   `json:"is_streaming,omitempty"`
	IsCardResponse bool   `json:"is_card_response,omitempty"`
	Card           *Card  `json:"card,omitempty"`
	Completed      bool   `json:"completed,omitempty"`
}

// ChatMessage types.
const (
	MessageText = "text"
	MessageCard = "card"
)
