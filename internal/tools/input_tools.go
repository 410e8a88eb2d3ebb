package tools

import (
	"encoding/json"

	"ventureforge/internal/llm"
	"ventureforge/internal/model"
)

// Input-request tools emit exactly one card describing the question and
// return an awaiting-user-input marker immediately. They never block: the
// round ends and the user's answer arrives as the next inbound message.

type inputRequest struct {
	field string
	card  func(id string) *model.Card
}

var inputRequests = map[string]inputRequest{
	"request_industry_interests": {
		field: "industry_interests",
		card: func(id string) *model.Card {
			return &model.Card{
				ID:       id,
				Type:     model.CardOptionSelector,
				Field:    "industry_interests",
				Question: "Which kinds of local businesses interest you?",
				Multi:    true,
				Options: []model.CardOption{
					{Value: "home_services", Label: "Home services (roofing, plumbing, HVAC)"},
					{Value: "health", Label: "Health (dental, chiro, physio)"},
					{Value: "beauty", Label: "Beauty and wellness"},
					{Value: "fitness", Label: "Fitness and studios"},
					{Value: "auto", Label: "Auto services"},
					{Value: "no_preference", Label: "No preference, pick for me"},
				},
			}
		},
	},
	"request_location": {
		field: "location",
		card: func(id string) *model.Card {
			return &model.Card{
				ID:       id,
				Type:     model.CardLocation,
				Field:    "location",
				Question: "Where would you want your first clients to be?",
			}
		},
	},
	"request_what_went_wrong": {
		field: "what_went_wrong",
		card: func(id string) *model.Card {
			return &model.Card{
				ID:          id,
				Type:        model.CardTextInput,
				Field:       "what_went_wrong",
				Question:    "You mentioned trying before. What went wrong last time?",
				Placeholder: "In your own words…",
			}
		},
	},
	"request_delivery_model": {
		field: "delivery_model",
		card: func(id string) *model.Card {
			return &model.Card{
				ID:       id,
				Type:     model.CardOptionSelector,
				Field:    "delivery_model",
				Question: "How hands-on do you want the service delivery to be?",
				Options: []model.CardOption{
					{Value: "build_once", Label: "Build once, let it run"},
					{Value: "ongoing", Label: "Ongoing managed work"},
				},
			}
		},
	},
	"request_pricing_direction": {
		field: "pricing_direction",
		card: func(id string) *model.Card {
			return &model.Card{
				ID:       id,
				Type:     model.CardOptionSelector,
				Field:    "pricing_direction",
				Question: "Which pricing approach feels right to you?",
				Options: []model.CardOption{
					{Value: "premium", Label: "Fewer clients at a premium price"},
					{Value: "volume", Label: "More clients at an accessible price"},
					{Value: "unsure", Label: "Not sure, recommend one"},
				},
			}
		},
	},
}

func (r *Registry) executeInputRequest(rt *Runtime, name string) string {
	req, ok := inputRequests[name]
	if !ok {
		return errorResult("unknown input request: " + name)
	}
	card := req.card(rt.NextCardID(req.field))
	rt.Emit(model.ServerEvent{Type: model.EventCard, Card: card})
	return toolResult{"awaiting_user_input": true, "field": req.field}.encode()
}

// Dynamic tools cover ad-hoc questions with no dedicated field. The
// model supplies id, question and options at call time; ids are namespaced
// server-side so a reused id never collides with an earlier card.

type presentChoicesArgs struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Multi    bool     `json:"multi"`
}

func (r *Registry) executePresentChoices(rt *Runtime, arguments string) string {
	var args presentChoicesArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorResult("invalid present_choices arguments: " + err.Error())
	}
	if args.Question == "" || len(args.Options) == 0 {
		return errorResult("present_choices requires a question and at least one option")
	}

	options := make([]model.CardOption, 0, len(args.Options))
	for _, o := range args.Options {
		options = append(options, model.CardOption{Value: o, Label: o})
	}
	card := &model.Card{
		ID:       rt.NextCardID(args.ID),
		Type:     model.CardOptionSelector,
		Field:    args.ID,
		Question: args.Question,
		Options:  options,
		Multi:    args.Multi,
	}
	rt.Emit(model.ServerEvent{Type: model.EventCard, Card: card})
	return toolResult{"awaiting_user_input": true, "field": args.ID}.encode()
}

type requestInputArgs struct {
	ID          string `json:"id"`
	Question    string `json:"question"`
	Placeholder string `json:"placeholder"`
}

func (r *Registry) executeRequestInput(rt *Runtime, arguments string) string {
	var args requestInputArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorResult("invalid request_input arguments: " + err.Error())
	}
	if args.Question == "" {
		return errorResult("request_input requires a question")
	}

	card := &model.Card{
		ID:          rt.NextCardID(args.ID),
		Type:        model.CardTextInput,
		Field:       args.ID,
		Question:    args.Question,
		Placeholder: args.Placeholder,
	}
	rt.Emit(model.ServerEvent{Type: model.EventCard, Card: card})
	return toolResult{"awaiting_user_input": true, "field": args.ID}.encode()
}

var inputToolDefs = buildInputToolDefs()

func buildInputToolDefs() []llm.Tool {
	emptyParams := json.RawMessage(`{"type":"object","properties":{},"required":[]}`)
	questions := map[string]string{
		"request_industry_interests": "Ask which kinds of local businesses interest the user. Emits a multi-choice card.",
		"request_location":           "Ask where the user's first clients should be. Emits a location card.",
		"request_what_went_wrong":    "Ask what went wrong in the user's previous attempt. Emits a free-text card.",
		"request_delivery_model":     "Ask how hands-on the service delivery should be. Emits a choice card.",
		"request_pricing_direction":  "Ask which pricing approach the user prefers. Emits a choice card.",
	}
	var defs []llm.Tool
	for _, name := range []string{
		"request_industry_interests", "request_location", "request_what_went_wrong",
		"request_delivery_model", "request_pricing_direction",
	} {
		defs = append(defs, llm.Tool{Name: name, Description: questions[name], Parameters: emptyParams})
	}
	return defs
}

var dynamicToolDefs = []llm.Tool{
	{
		Name:        "present_choices",
		Description: "Ask an ad-hoc question with fixed options when no dedicated request tool exists. Emits a choice card and ends the round awaiting the user's answer.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "short identifier for the question, unique this conversation"},
				"question": {"type": "string"},
				"options": {"type": "array", "items": {"type": "string"}},
				"multi": {"type": "boolean"}
			},
			"required": ["id", "question", "options"]
		}`),
	},
	{
		Name:        "request_input",
		Description: "Ask an ad-hoc free-text question when no dedicated request tool exists. Emits a text-input card and ends the round awaiting the user's answer.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "short identifier for the question, unique this conversation"},
				"question": {"type": "string"},
				"placeholder": {"type": "string"}
			},
			"required": ["id", "question"]
		}`),
	},
}
