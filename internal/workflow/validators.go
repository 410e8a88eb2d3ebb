package workflow

import (
	"fmt"
	"regexp"
	"strings"
)

// This file holds the quality gates shared by the offer and demo workflows:
// content-length floors, filler and PII rejection, and the cross-field
// consistency checks that keep three independent generations aligned.

const minFieldLength = 20

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	// Street addresses in the "123 Main Street" shape.
	addressPattern = regexp.MustCompile(`(?i)\b\d{1,5}\s+\w+(\s+\w+)?\s+(street|st\.|avenue|ave\.|road|rd\.|boulevard|blvd\.|drive|dr\.|lane|ln\.)\b`)

	numberPattern = regexp.MustCompile(`\d`)
)

var fillerPhrases = []string{
	"best in class",
	"world class",
	"cutting edge",
	"cutting-edge",
	"game changer",
	"game-changing",
	"next level",
	"unlock your potential",
	"revolutionize",
	"state of the art",
	"state-of-the-art",
}

// Technology language the transformation copy must not lean on: the system
// description sells an outcome, not an implementation.
var techPhrases = []string{
	"ai system",
	"artificial intelligence",
	"algorithm",
	"neural network",
	"machine learning",
	"large language model",
	"automation software",
	"chatbot",
}

var frequencyWords = []string{
	"every", "weekly", "daily", "monthly", "per week", "per month", "per day", "each week", "each month",
}

var stateChangeWords = []string{
	"booked", "signed", "closed", "filled", "scheduled", "confirmed", "paid", "showing up", "on the calendar",
}

// stopwords excluded from keyword extraction.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "get": true,
	"has": true, "have": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "more": true, "no": true, "not": true, "of": true, "on": true,
	"or": true, "so": true, "that": true, "the": true, "their": true, "them": true,
	"they": true, "this": true, "to": true, "with": true, "you": true, "your": true,
}

// extractKeywords lowercases, strips punctuation and drops stopwords and
// short tokens.
func extractKeywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var keywords []string
	seen := map[string]bool{}
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		keywords = append(keywords, f)
	}
	return keywords
}

func containsAnyKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func containsAnyPhrase(text string, phrases []string) string {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return p
		}
	}
	return ""
}

// hasMeasurableSignal reports whether text carries a number, a frequency
// word, or a concrete state-change word, the signals that make an outcome
// checkable rather than aspirational.
func hasMeasurableSignal(text string) bool {
	if numberPattern.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, w := range append(append([]string{}, frequencyWords...), stateChangeWords...) {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// checkCommonContent applies the gates every generated string field passes:
// minimum length, no filler, no PII.
func checkCommonContent(name, value string) []string {
	var violations []string
	if len(strings.TrimSpace(value)) < minFieldLength {
		violations = append(violations, fmt.Sprintf("%s is too short; write at least %d characters of substance", name, minFieldLength))
	}
	if p := containsAnyPhrase(value, fillerPhrases); p != "" {
		violations = append(violations, fmt.Sprintf("%s contains the generic filler phrase %q; replace it with something specific", name, p))
	}
	if emailPattern.MatchString(value) || phonePattern.MatchString(value) || addressPattern.MatchString(value) {
		violations = append(violations, fmt.Sprintf("%s contains personal contact details (email, phone or street address); remove them", name))
	}
	return violations
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
