// Package workflow contains the generation workflows: the niche analysis,
// the offer assembly (three parallel generations merged and validated) and
// the demo-page assembly. Each generation runs through a shared step that
// retries with structured feedback when a quality gate rejects the output.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "ventureforge/internal/errors"
	"ventureforge/internal/llm"
)

// maxRetries bounds the validate-retry loop: one initial attempt plus two
// corrective retries, then the step fails.
const maxRetries = 2

// Step is a single schema-constrained generation call with a bounded
// retry-with-feedback validation loop.
type Step struct {
	provider llm.Provider
	model    string
}

func NewStep(provider llm.Provider, model string) *Step {
	return &Step{provider: provider, model: model}
}

// Generate asks the provider for one JSON object, unmarshals it into out
// and runs validate over the populated value. A non-empty violation list
// aborts the attempt and is re-injected into the prompt as corrective
// instruction for the next one.
func (s *Step) Generate(ctx context.Context, system, prompt string, out any, validate func() []string) error {
	feedback := ""
	for attempt := 0; attempt <= maxRetries; attempt++ {
		fullPrompt := prompt
		if feedback != "" {
			fullPrompt = prompt + "\n\nYour previous response was rejected for these reasons:\n" + feedback +
				"\nFix every issue and respond with the corrected JSON object only."
		}

		raw, err := s.provider.GenerateStructured(ctx, &llm.StructuredRequest{
			Model:  s.model,
			System: system,
			Prompt: fullPrompt,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrGeneration, err)
		}

		if err := json.Unmarshal(raw, out); err != nil {
			feedback = "- the response did not match the required JSON shape: " + err.Error()
			continue
		}

		if validate != nil {
			if violations := validate(); len(violations) > 0 {
				feedback = "- " + strings.Join(violations, "\n- ")
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("%w: output rejected after %d attempts", apperrors.ErrGeneration, maxRetries+1)
}
