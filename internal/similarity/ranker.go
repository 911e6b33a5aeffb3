package similarity

import (
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/ragcore/internal/domain/chunk"
)

const (
	// DefaultThreshold is the minimum similarity a chunk must exceed.
	DefaultThreshold = 0.7
	// DefaultTopK is the maximum number of chunks returned.
	DefaultTopK = 12

	partitionSize = 512
)

// Options controls a single ranking pass.
type Options struct {
	Threshold float64
	TopK      int
}

// Ranker scores candidates by cosine similarity and keeps the best K above the threshold.
type Ranker struct {
	workers int
}

// NewRanker creates a ranker that scores with up to workers goroutines.
// Non-positive workers defaults to GOMAXPROCS.
func NewRanker(workers int) *Ranker {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ranker{workers: workers}
}

// Rank returns candidates scoring strictly above opts.Threshold, sorted by
// similarity descending and truncated to opts.TopK. Ties are ordered by
// (DocumentID, Index) ascending. A non-positive TopK yields no results.
func (r *Ranker) Rank(ctx context.Context, query []float32, candidates []chunk.Chunk, opts Options) ([]chunk.Scored, error) {
	if opts.TopK <= 0 || len(candidates) == 0 {
		return []chunk.Scored{}, nil
	}

	scores := make([]float64, len(candidates))
	if err := r.score(ctx, query, candidates, scores); err != nil {
		return nil, err
	}

	kept := make([]chunk.Scored, 0, min(len(candidates), opts.TopK))
	for i := range candidates {
		if scores[i] > opts.Threshold {
			kept = append(kept, chunk.Scored{Chunk: candidates[i], Similarity: scores[i]})
		}
	}

	slices.SortFunc(kept, compareScored)
	if len(kept) > opts.TopK {
		kept = kept[:opts.TopK]
	}
	return kept, nil
}

func (r *Ranker) score(ctx context.Context, query []float32, candidates []chunk.Chunk, out []float64) error {
	if len(candidates) <= partitionSize || r.workers == 1 {
		for i := range candidates {
			if i%partitionSize == 0 {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("rank: %w", err)
				}
			}
			out[i] = Cosine(query, candidates[i].Embedding())
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for start := 0; start < len(candidates); start += partitionSize {
		end := min(start+partitionSize, len(candidates))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("rank: %w", err)
			}
			for i := start; i < end; i++ {
				out[i] = Cosine(query, candidates[i].Embedding())
			}
			return nil
		})
	}
	return g.Wait()
}

func compareScored(a, b chunk.Scored) int {
	if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Chunk.DocumentID(), b.Chunk.DocumentID()); c != 0 {
		return c
	}
	return cmp.Compare(a.Chunk.Index(), b.Chunk.Index())
}
