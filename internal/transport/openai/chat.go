package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/metrics"
	"github.com/kailas-cloud/ragcore/internal/usecase/generation"
)

// ChatClient completes prompts with the chat completions API.
type ChatClient struct {
	client   *openai.Client
	model    string
	user     string
	provider string
	logger   *zap.Logger
}

// NewChatClient creates an OpenAI-compatible chat client.
// Timeouts are applied by the caller.
func NewChatClient(cfg *Config) *ChatClient {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatClient{
		client:   newClient(cfg),
		model:    cfg.Model,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   logger,
	}
}

// Complete implements generation.LLM.
func (c *ChatClient) Complete(ctx context.Context, p generation.Prompt) (generation.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		User:        c.user,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return generation.Completion{}, parseAPIError("chat", err, domain.ErrLLMGeneration)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return generation.Completion{}, fmt.Errorf("empty chat response: %w", domain.ErrLLMGeneration)
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(c.provider, c.model).Observe(duration.Seconds())
	metrics.LLMTokensTotal.WithLabelValues(c.provider, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(c.provider, c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	c.logger.Debug("chat completion",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Duration("duration", duration),
	)

	return generation.Completion{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (c *ChatClient) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
