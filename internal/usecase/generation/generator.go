// Package generation produces grounded answers from retrieved context.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// SystemPrompt constrains the model to the supplied document context.
const SystemPrompt = "You are a knowledgeable assistant for a preconstruction platform. " +
	"Answer questions based strictly on the provided document context. " +
	"Be concise, accurate, and helpful. If the context doesn't contain " +
	"sufficient information to fully answer the question, acknowledge this. " +
	"Focus on construction, zoning, permits, and project-related information."

// Defaults for a generation call.
const (
	DefaultMaxTokens   = 800
	DefaultTemperature = 0.3
	DefaultTimeout     = 60 * time.Second
)

// Generator turns (question, context) into an answer through an LLM.
type Generator struct {
	llm         LLM
	counter     TokenCounter
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// New creates a generator with default limits.
func New(llm LLM, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		llm:         llm,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		timeout:     DefaultTimeout,
		logger:      logger,
	}
}

// WithLimits overrides max tokens and temperature. Non-positive max tokens is ignored.
func (g *Generator) WithLimits(maxTokens int, temperature float32) *Generator {
	if maxTokens > 0 {
		g.maxTokens = maxTokens
	}
	if temperature >= 0 {
		g.temperature = temperature
	}
	return g
}

// WithTimeout bounds each LLM call.
func (g *Generator) WithTimeout(d time.Duration) *Generator {
	if d > 0 {
		g.timeout = d
	}
	return g
}

// WithTokenCounter enables prompt size logging.
func (g *Generator) WithTokenCounter(c TokenCounter) *Generator {
	g.counter = c
	return g
}

// UserMessage renders the user turn sent to the model.
func UserMessage(question, contextText string) string {
	return "Context:\n" + contextText + "\n\nQuestion: " + question
}

// Generate asks the model. Every failure is wrapped with domain.ErrLLMGeneration.
func (g *Generator) Generate(ctx context.Context, question, contextText string) (Completion, error) {
	p := Prompt{
		System:      SystemPrompt,
		User:        UserMessage(question, contextText),
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}
	if g.counter != nil {
		g.logger.Debug("prompt prepared",
			zap.Int("prompt_tokens_estimate", g.counter.Count(p.System)+g.counter.Count(p.User)),
			zap.Int("context_bytes", len(contextText)),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	c, err := g.llm.Complete(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrLLMGeneration) {
			return Completion{}, fmt.Errorf("generate answer: %w", err)
		}
		return Completion{}, fmt.Errorf("generate answer: %w: %w", domain.ErrLLMGeneration, err)
	}
	c.Text = strings.TrimSpace(c.Text)
	if c.Text == "" {
		return Completion{}, fmt.Errorf("empty completion: %w", domain.ErrLLMGeneration)
	}

	domain.UsageFromContext(ctx).AddGenerationTokens(c.PromptTokens, c.CompletionTokens)
	return c, nil
}
