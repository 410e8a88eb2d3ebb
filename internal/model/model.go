package model

import (
	"time"
)

// Session status values.
const (
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
)

// ConversationMessage is one persisted turn of the conversation.
// The persisted list strictly alternates user/assistant, starting with user.
// Assistant entries are deliberately lossy: tool usage is recorded as a
// bracketed suffix (e.g. "[tools:run_niche_analysis]") instead of the full
// structured payloads, which keeps history small enough to replay as model
// context on every turn.
type ConversationMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Profile holds the user's intake answers that shape every prompt. It is
// collected by the client before the conversation starts and submitted with
// the session-creation request, where the four core fields are required.
type Profile struct {
	TimePerWeek      string   `json:"time_per_week,omitempty" validate:"required"`
	OutreachComfort  string   `json:"outreach_comfort,omitempty" validate:"required"`
	TechnicalComfort string   `json:"technical_comfort,omitempty" validate:"required"`
	RevenueGoal      string   `json:"revenue_goal,omitempty" validate:"required"`
	Situation        string   `json:"situation,omitempty"`
	Blockers         []string `json:"blockers,omitempty"`
}

// SegmentScores breaks a recommendation's 0-100 total into four 0-25 axes.
type SegmentScores struct {
	Total            int `json:"total"`
	ROIFromService   int `json:"roi_from_service"`
	CanAffordIt      int `json:"can_afford_it"`
	GuaranteeResults int `json:"guarantee_results"`
	EasyToFind       int `json:"easy_to_find"`
}

// Consistent reports whether the sub-scores sum to the total and each sits
// inside its 0-25 band.
func (s SegmentScores) Consistent() bool {
	for _, v := range []int{s.ROIFromService, s.CanAffordIt, s.GuaranteeResults, s.EasyToFind} {
		if v < 0 || v > 25 {
			return false
		}
	}
	return s.Total == s.ROIFromService+s.CanAffordIt+s.GuaranteeResults+s.EasyToFind
}

// AIRecommendation is one candidate niche produced by the analysis step.
type AIRecommendation struct {
	Niche             string        `json:"niche"`
	SegmentScores     SegmentScores `json:"segment_scores"`
	TargetSegment     string        `json:"target_segment"`
	Bottleneck        string        `json:"bottleneck"`
	ProposedSolution  string        `json:"proposed_solution"`
	RevenueProjection string        `json:"revenue_projection"`
	Rationale         string        `json:"rationale"`
}

// AssembledOffer is the merged output of the three parallel offer
// generations plus the post-merge validation verdict. Fields are patched
// independently while the user edits sections during offer review.
type AssembledOffer struct {
	TransformationFrom string   `json:"transformation_from"`
	TransformationTo   string   `json:"transformation_to"`
	SystemDescription  string   `json:"system_description"`
	GuaranteeText      string   `json:"guarantee_text"`
	GuaranteeType      string   `json:"guarantee_type"`
	ConfidenceNotes    string   `json:"confidence_notes"`
	PricingSetup       string   `json:"pricing_setup"`
	PricingMonthly     string   `json:"pricing_monthly"`
	PricingRationale   string   `json:"pricing_rationale"`
	ComparableServices []string `json:"comparable_services,omitempty"`
	RevenueProjection  string   `json:"revenue_projection"`
	TargetSegment      string   `json:"target_segment"`
	DeliveryModel      string   `json:"delivery_model"`
	ValidationStatus   string   `json:"validation_status"`
	ValidationNotes    []string `json:"validation_notes,omitempty"`
}

// Pregenerated reports whether the offer is complete enough to reuse
// instead of running the workflow again.
func (o *AssembledOffer) Pregenerated() bool {
	return o != nil && o.TransformationFrom != "" && o.GuaranteeText != ""
}

// FormField is one input on the generated demo page.
type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// DemoConfig is the generated landing-page definition: copy, lead form
// and the rubric prompt used to score submissions.
type DemoConfig struct {
	NicheSlug       string      `json:"niche_slug"`
	HeroHeadline    string      `json:"hero_headline"`
	HeroSubheadline string      `json:"hero_subheadline"`
	CTAText         string      `json:"cta_text"`
	FormFields      []FormField `json:"form_fields"`
	ScoringPrompt   string      `json:"scoring_prompt"`
}

// SessionRecord is the single document the whole conversation reads and
// writes. It is stored as one row of JSON columns and mutated exclusively
// through field patches (last-write-wins).
type SessionRecord struct {
	ID                   string                `json:"id"`
	Status               string                `json:"status"`
	Profile              *Profile              `json:"profile,omitempty"`
	Answers              map[string]string     `json:"answers,omitempty"`
	Recommendations      []AIRecommendation    `json:"ai_recommendations,omitempty"`
	ChosenRecommendation *AIRecommendation     `json:"chosen_recommendation,omitempty"`
	Offer                *AssembledOffer       `json:"offer,omitempty"`
	DemoConfig           *DemoConfig           `json:"demo_config,omitempty"`
	History              []ConversationMessage `json:"conversation_history,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// Snapshot returns a copy safe to hand to a detached goroutine: the maps
// and slices a concurrent turn might grow are cloned, nested structs are
// shared read-only.
func (r *SessionRecord) Snapshot() *SessionRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Answers != nil {
		cp.Answers = make(map[string]string, len(r.Answers))
		for k, v := range r.Answers {
			cp.Answers[k] = v
		}
	}
	cp.Recommendations = append([]AIRecommendation(nil), r.Recommendations...)
	cp.History = append([]ConversationMessage(nil), r.History...)
	return &cp
}
