// Package ingest turns uploaded documents into embedded, persisted chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domchunk "github.com/kailas-cloud/ragcore/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/metrics"
)

// Job identifies a document to ingest. An empty Locator means the document's own.
type Job struct {
	ProjectID  string
	DocumentID string
	Locator    string
}

// Pipeline runs extract, chunk, embed and persist for one document and
// drives its status through processing to completed or failed.
type Pipeline struct {
	docs     DocumentStore
	chunks   ChunkStore
	blobs    BlobReader
	extract  Extractor
	splitter Splitter
	embed    domain.Embedder
	dim      int
	model    string
	now      func() time.Time
	logger   *zap.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	docs DocumentStore, chunks ChunkStore, blobs BlobReader,
	extract Extractor, splitter Splitter, embed domain.Embedder,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		docs: docs, chunks: chunks, blobs: blobs,
		extract: extract, splitter: splitter, embed: embed,
		dim:    domain.VectorDimensions,
		now:    time.Now,
		logger: logger,
	}
}

// WithDimensions sets the embedding width validated on every chunk.
func (p *Pipeline) WithDimensions(dim int) *Pipeline {
	if dim > 0 {
		p.dim = dim
	}
	return p
}

// WithModel records the embedding model name in chunk metadata.
func (p *Pipeline) WithModel(model string) *Pipeline {
	p.model = model
	return p
}

// Process runs one ingestion attempt. Chunks written before a failure are kept;
// a successful run leaves exactly its own chunks for the document.
// A document left in processing by an earlier attempt is taken over; callers
// must hold the document's single-writer slot (see Queue).
func (p *Pipeline) Process(ctx context.Context, job Job) (domdoc.Summary, error) {
	start := time.Now()
	logger := p.logger.With(
		zap.String("project_id", job.ProjectID),
		zap.String("document_id", job.DocumentID),
	)

	doc, err := p.docs.Get(ctx, job.ProjectID, job.DocumentID)
	if err != nil {
		return domdoc.Summary{}, fmt.Errorf("load document: %w", err)
	}
	if err := doc.StartProcessing(p.now()); err != nil {
		return domdoc.Summary{}, err
	}
	if err := p.docs.Save(ctx, &doc); err != nil {
		return domdoc.Summary{}, fmt.Errorf("mark processing: %w", err)
	}
	logger.Info("ingestion started")

	summary, err := p.run(ctx, &doc, job)
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.fail(ctx, &doc, err, logger)
		return domdoc.Summary{}, err
	}

	done := doc.Clone()
	if err := done.Complete(summary); err != nil {
		return domdoc.Summary{}, err
	}
	if err := p.docs.Save(ctx, &done); err != nil {
		err = fmt.Errorf("mark completed: %w", err)
		p.fail(ctx, &doc, err, logger)
		return domdoc.Summary{}, err
	}

	metrics.IngestDocumentsTotal.WithLabelValues(string(domdoc.StatusCompleted)).Inc()
	metrics.IngestChunksTotal.Add(float64(summary.ChunkCount))
	logger.Info("ingestion completed",
		zap.Int("chunk_count", summary.ChunkCount),
		zap.Int("total_tokens", summary.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, doc *domdoc.Document, job Job) (domdoc.Summary, error) {
	locator := job.Locator
	if locator == "" {
		locator = doc.Locator()
	}

	data, err := p.blobs.Read(ctx, locator)
	if err != nil {
		return domdoc.Summary{}, fmt.Errorf("read blob %s: %w: %w", locator, domain.ErrExtraction, err)
	}
	text, err := p.extract.Extract(ctx, doc.MimeType(), data)
	if err != nil {
		return domdoc.Summary{}, err
	}

	pieces := p.splitter.Split(text)
	processedAt := p.now()
	if len(pieces) == 0 {
		if err := p.prune(ctx, doc.ID(), 0); err != nil {
			return domdoc.Summary{}, err
		}
		return domdoc.Summary{ProcessedAt: processedAt}, nil
	}

	texts := make([]string, len(pieces))
	for i, pc := range pieces {
		texts[i] = pc.Content
	}
	res, err := domain.EmbedAll(ctx, p.embed, texts)
	if err != nil {
		return domdoc.Summary{}, wrapEmbedErr(err)
	}
	if len(res.Embeddings) != len(pieces) {
		return domdoc.Summary{}, fmt.Errorf("embedding count mismatch: got %d, want %d: %w",
			len(res.Embeddings), len(pieces), domain.ErrEmbeddingProviderError)
	}

	chunks := make([]domchunk.Chunk, len(pieces))
	total := 0
	for i, pc := range pieces {
		c, err := domchunk.New(domchunk.Params{
			DocumentID:   doc.ID(),
			ProjectID:    doc.ProjectID(),
			TenantID:     doc.TenantID(),
			DocumentName: doc.OriginalName(),
			Index:        i,
			Content:      pc.Content,
			Embedding:    res.Embeddings[i],
			TokenCount:   pc.TokenCount,
			Metadata: map[string]any{
				domchunk.MetaProcessedAt:    processedAt.UTC().Format(time.RFC3339),
				domchunk.MetaChunkSize:      len(pc.Content),
				domchunk.MetaEmbeddingModel: p.model,
			},
		}, p.dim)
		if err != nil {
			return domdoc.Summary{}, fmt.Errorf("build chunk: %w: %w", domain.ErrEmbeddingProviderError, err)
		}
		chunks[i] = c
		total += pc.TokenCount
	}

	if err := p.chunks.Upsert(ctx, chunks); err != nil {
		if !errors.Is(err, domain.ErrPersistence) {
			err = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		return domdoc.Summary{}, fmt.Errorf("store chunks: %w", err)
	}
	if err := p.prune(ctx, doc.ID(), len(chunks)); err != nil {
		return domdoc.Summary{}, err
	}

	return domdoc.Summary{
		ChunkCount:          len(chunks),
		TotalTokens:         total,
		EmbeddingDimensions: p.dim,
		ProcessedAt:         processedAt,
	}, nil
}

// prune drops chunks an earlier, longer run left at index keep and above.
func (p *Pipeline) prune(ctx context.Context, documentID string, keep int) error {
	if err := p.chunks.Prune(ctx, documentID, keep); err != nil {
		if !errors.Is(err, domain.ErrPersistence) {
			err = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		return fmt.Errorf("prune chunks: %w", err)
	}
	return nil
}

// fail records the cause on the document. A failing status write is only logged,
// the original cause is what the caller sees.
func (p *Pipeline) fail(ctx context.Context, doc *domdoc.Document, cause error, logger *zap.Logger) {
	metrics.IngestDocumentsTotal.WithLabelValues(string(domdoc.StatusFailed)).Inc()
	logger.Error("ingestion failed", zap.Error(cause))

	if err := doc.Fail(cause, p.now()); err != nil {
		logger.Error("mark failed", zap.Error(err))
		return
	}
	if err := p.docs.Save(context.WithoutCancel(ctx), doc); err != nil {
		logger.Error("save failed status", zap.Error(err))
	}
}

func wrapEmbedErr(err error) error {
	if errors.Is(err, domain.ErrEmbeddingProviderError) {
		return fmt.Errorf("embed chunks: %w", err)
	}
	return fmt.Errorf("embed chunks: %w: %w", domain.ErrEmbeddingProviderError, err)
}
