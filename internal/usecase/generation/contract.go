package generation

import "context"

// Prompt is a single-turn chat request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Completion is the model reply with usage.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// LLM completes a prompt.
type LLM interface {
	Complete(ctx context.Context, p Prompt) (Completion, error)
}

// TokenCounter estimates prompt size for logging.
type TokenCounter interface {
	Count(text string) int
}
