package domain

import "context"

type usageKey struct{}

// RequestUsage collects provider token usage for a single ask request.
// The handler puts a mutable pointer into the context before calling the service;
// services write after each provider call; the handler reads it for response headers.
type RequestUsage struct {
	EmbeddingTokens  int
	PromptTokens     int
	CompletionTokens int
	Embedded         bool // true if embedding was called, even on a cache hit with 0 tokens
	Generated        bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *RequestUsage) {
	u := &RequestUsage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *RequestUsage {
	u, _ := ctx.Value(usageKey{}).(*RequestUsage)
	return u
}

// AddEmbeddingTokens records tokens consumed by an embedding call.
func (u *RequestUsage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.EmbeddingTokens += n
		u.Embedded = true
	}
}

// AddGenerationTokens records the prompt and completion tokens of a generation call.
func (u *RequestUsage) AddGenerationTokens(prompt, completion int) {
	if u != nil {
		u.PromptTokens += prompt
		u.CompletionTokens += completion
		u.Generated = true
	}
}
