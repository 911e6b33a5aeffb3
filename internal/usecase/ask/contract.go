package ask

import (
	"context"

	domchunk "github.com/kailas-cloud/ragcore/internal/domain/chunk"
	"github.com/kailas-cloud/ragcore/internal/similarity"
	"github.com/kailas-cloud/ragcore/internal/usecase/generation"
)

// ChunkLoader loads the searchable chunks of a project.
type ChunkLoader interface {
	LoadCompleted(ctx context.Context, projectID string) ([]domchunk.Chunk, error)
}

// Ranker scores and filters candidates against a query vector.
type Ranker interface {
	Rank(ctx context.Context, query []float32, candidates []domchunk.Chunk, opts similarity.Options) ([]domchunk.Scored, error)
}

// Generator answers a question from assembled context.
type Generator interface {
	Generate(ctx context.Context, question, contextText string) (generation.Completion, error)
}

// TokenCounter counts prompt tokens.
type TokenCounter interface {
	Count(text string) int
}
