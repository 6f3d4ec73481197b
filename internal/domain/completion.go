package domain

import "context"

// Completer is the natural-language generation contract. Output is untrusted
// text; callers must defensively parse any structured payload inside it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (CompletionResult, error)
}

// CompletionResult carries generated text and token usage.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
