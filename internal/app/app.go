// Package app assembles ragcore components from configuration.
// Both the server and the operator CLI build their object graph here.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/chunker"
	"github.com/kailas-cloud/ragcore/internal/config"
	"github.com/kailas-cloud/ragcore/internal/domain"
	domchunk "github.com/kailas-cloud/ragcore/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/extract"
	"github.com/kailas-cloud/ragcore/internal/metrics"
	"github.com/kailas-cloud/ragcore/internal/repository/embcache"
	"github.com/kailas-cloud/ragcore/internal/similarity"
	"github.com/kailas-cloud/ragcore/internal/storage"
	openaiTransport "github.com/kailas-cloud/ragcore/internal/transport/openai"
	askuc "github.com/kailas-cloud/ragcore/internal/usecase/ask"
	documentuc "github.com/kailas-cloud/ragcore/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/ragcore/internal/usecase/embedding"
	"github.com/kailas-cloud/ragcore/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
	"github.com/kailas-cloud/ragcore/internal/usecase/ingest"
)

// Health check names besides healthuc.DatabaseCheck.
const (
	EmbeddingCheck = "embedding"
	LLMCheck       = "llm"
)

// DocumentRepository is the document persistence shared by ingestion and registration.
type DocumentRepository interface {
	Save(ctx context.Context, doc *domdoc.Document) error
	Get(ctx context.Context, projectID, id string) (domdoc.Document, error)
	ListByProject(ctx context.Context, projectID string) ([]domdoc.Document, error)
}

// ChunkRepository is the chunk persistence shared by ingestion and retrieval.
type ChunkRepository interface {
	Upsert(ctx context.Context, chunks []domchunk.Chunk) error
	Prune(ctx context.Context, documentID string, keep int) error
	LoadCompleted(ctx context.Context, projectID string) ([]domchunk.Chunk, error)
}

// App holds the assembled services.
type App struct {
	Documents DocumentRepository
	Chunks    ChunkRepository
	Blobs     *storage.FS
	Pipeline  *ingest.Pipeline
	Queue     *ingest.Queue
	Ask       *askuc.Service
	Registry  *documentuc.Service
	Health    *healthuc.Service

	backend *backend
}

// New connects to storage and wires every service. The ingestion queue is
// created but not started.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	blobs, err := storage.NewFS(cfg.Storage.BlobRoot, "")
	if err != nil {
		be.close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	docEmbedder, queryEmbedder := buildEmbedders(base, be.kv, cfg, logger)

	chat := openaiTransport.NewChatClient(&openaiTransport.Config{
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Provider: cfg.LLM.Provider,
		Timeout:  time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Logger:   logger,
	})
	gen := generation.New(chat, logger).
		WithLimits(cfg.LLM.MaxTokens, cfg.LLM.Temperature).
		WithTimeout(time.Duration(cfg.LLM.TimeoutSec) * time.Second)
	counter, err := generation.NewTiktokenCounter(cfg.LLM.Model)
	if err != nil {
		logger.Warn("prompt token counting disabled", zap.Error(err))
	}
	if counter != nil && cfg.LLM.CountTokens {
		gen = gen.WithTokenCounter(counter)
	}

	pipeline := ingest.NewPipeline(
		be.docs, be.chunks, blobs,
		extract.NewRegistry(),
		chunker.New(chunker.WithTokenBudget(cfg.RAG.TokenBudget)),
		docEmbedder, logger,
	).WithDimensions(cfg.Embedding.Dimensions).WithModel(cfg.Embedding.Model)

	initial, maximum := cfg.Ingest.Backoff()
	queue := ingest.NewQueue(pipeline, ingest.QueueConfig{
		Workers: cfg.Ingest.Workers,
		Size:    cfg.Ingest.QueueSize,
		Retry: ingest.RetryPolicy{
			MaxAttempts:    cfg.Ingest.MaxAttempts,
			InitialBackoff: initial,
			MaxBackoff:     maximum,
			Multiplier:     cfg.Ingest.BackoffMultiplier,
		},
	}, logger)

	ask := askuc.New(be.chunks, queryEmbedder, similarity.NewRanker(cfg.RAG.Workers), gen, logger).
		WithRetrieval(cfg.RAG.Threshold(), cfg.RAG.TopK, cfg.RAG.MaxTopK).
		WithMaxQuestionLength(cfg.RAG.MaxQuestionLength)
	if counter != nil {
		ask = ask.WithContextBudget(counter, cfg.RAG.ContextMaxTokens)
	}

	registry := documentuc.New(be.docs, blobs, queue).
		WithMaxContentBytes(cfg.Ingest.MaxContentBytes).
		WithStaleProcessing(time.Duration(cfg.Ingest.StaleProcessingSec) * time.Second)

	health := healthuc.New(be.pinger).
		WithChecker(EmbeddingCheck, base).
		WithChecker(LLMCheck, chat)

	return &App{
		Documents: be.docs,
		Chunks:    be.chunks,
		Blobs:     blobs,
		Pipeline:  pipeline,
		Queue:     queue,
		Ask:       ask,
		Registry:  registry,
		Health:    health,
		backend:   be,
	}, nil
}

// Close releases storage connections.
func (a *App) Close() {
	if a.Blobs != nil {
		_ = a.Blobs.Close()
	}
	if a.backend != nil {
		a.backend.close()
	}
}

// buildEmbedders assembles the decorator chains over a shared rate limiter:
// documents: provider -> rate limit -> instrumented;
// queries:   provider -> rate limit -> cache -> instrumented.
// kv may be nil, which disables the query cache.
func buildEmbedders(
	base domain.Embedder, kv cacheStore, cfg config.Config, logger *zap.Logger,
) (docs, queries domain.Embedder) {
	limited := embeddinguc.NewRateLimitedEmbedder(base, cfg.Embedding.Provider, embeddinguc.RateLimitConfig{
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		Burst:             cfg.Embedding.Burst,
		Cooldown:          time.Duration(cfg.Embedding.CooldownSec) * time.Second,
	})

	docs = embeddinguc.NewInstrumentedEmbedder(limited, cfg.Embedding.Provider, cfg.Embedding.Model, logger).
		WithMaxBatchSize(cfg.Embedding.MaxBatchSize)

	var q domain.Embedder = limited
	if cfg.Embedding.Cache && kv != nil {
		q = embcache.New(limited, kv, embcache.Options{
			Prefix: cfg.Storage.KeyPrefix,
			Model:  cfg.Embedding.Model,
			TTL:    time.Duration(cfg.Embedding.CacheTTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}
	queries = embeddinguc.NewInstrumentedEmbedder(q, cfg.Embedding.Provider, cfg.Embedding.Model, logger)
	return docs, queries
}
