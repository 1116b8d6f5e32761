package llm

import "context"

// Request is a single-turn generation request
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// LanguageModel generates a completion for a prompt.
// Implementations make exactly one provider call per Generate and never retry.
type LanguageModel interface {
	Generate(ctx context.Context, req Request) (string, error)
	ModelName() string
}
