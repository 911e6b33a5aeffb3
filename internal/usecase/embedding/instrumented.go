package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// DefaultMaxAPIBatchSize is the largest batch sent in a single provider request.
const DefaultMaxAPIBatchSize = 2048

// InstrumentedEmbedder wraps an Embedder with logging, request usage
// accounting and sub-batching. Transport metrics (requests, duration, tokens)
// are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner        domain.Embedder
	provider     string
	model        string
	maxBatchSize int
	logger       *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:        inner,
		provider:     provider,
		model:        model,
		maxBatchSize: DefaultMaxAPIBatchSize,
		logger:       logger,
	}
}

// WithMaxBatchSize overrides the sub-batch size. Non-positive values are ignored.
func (p *InstrumentedEmbedder) WithMaxBatchSize(n int) *InstrumentedEmbedder {
	if n > 0 {
		p.maxBatchSize = n
	}
	return p
}

// Embed delegates to the inner embedder and records usage.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	domain.UsageFromContext(ctx).AddEmbeddingTokens(result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// BatchEmbed splits texts into sub-batches and delegates each to the inner embedder.
// Any sub-batch failure fails the whole call.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	result, err := p.embedChunked(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	duration := time.Since(start)
	domain.UsageFromContext(ctx).AddEmbeddingTokens(result.TotalTokens)

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

func (p *InstrumentedEmbedder) embedChunked(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	allEmbeddings := make([][]float32, 0, len(texts))
	var totalPrompt, totalTokens int

	for offset := 0; offset < len(texts); offset += p.maxBatchSize {
		end := min(offset+p.maxBatchSize, len(texts))
		part := texts[offset:end]

		partResult, err := domain.EmbedAll(ctx, p.inner, part)
		if err == nil && len(partResult.Embeddings) != len(part) {
			err = fmt.Errorf("got %d embeddings for %d texts: %w",
				len(partResult.Embeddings), len(part), domain.ErrEmbeddingProviderError)
		}
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(part)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}

		allEmbeddings = append(allEmbeddings, partResult.Embeddings...)
		totalPrompt += partResult.PromptTokens
		totalTokens += partResult.TotalTokens
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   allEmbeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}
