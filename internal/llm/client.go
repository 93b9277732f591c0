package llm

import (
	"context"
)

// LLMClient generates a completion for a prompt. Failures surface as
// errors; callers decide how to degrade.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
