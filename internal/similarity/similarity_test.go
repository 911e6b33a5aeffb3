package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/kailas-cloud/ragcore/internal/domain/chunk"
)

func mkChunk(docID string, index int, emb []float32) chunk.Chunk {
	return chunk.Reconstruct(chunk.ID(docID, index), chunk.Params{
		DocumentID:   docID,
		DocumentName: docID + ".txt",
		Index:        index,
		Content:      fmt.Sprintf("%s chunk %d", docID, index),
		Embedding:    emb,
	})
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"scaled", []float32{1, 2}, []float32{2, 4}, 1},
		{"zero query", []float32{0, 0}, []float32{1, 1}, 0},
		{"zero candidate", []float32{1, 1}, []float32{0, 0}, 0},
		{"empty", nil, nil, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Cosine(tc.a, tc.b)
			if math.IsNaN(got) {
				t.Fatal("got NaN")
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCosine_Symmetric(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5, 0.01}
	b := []float32{2.2, 0.4, -0.7, 1.9}
	if Cosine(a, b) != Cosine(b, a) {
		t.Errorf("Cosine not symmetric: %v vs %v", Cosine(a, b), Cosine(b, a))
	}
}

func TestCosine_Bounded(t *testing.T) {
	vecs := [][]float32{
		{1, 0, 0}, {0.5, 0.5, 0.5}, {-3, 2, 1}, {1e-20, 1e-20, 1e-20}, {1e20, -1e20, 5},
	}
	for _, a := range vecs {
		for _, b := range vecs {
			s := Cosine(a, b)
			if s < -1-1e-9 || s > 1+1e-9 {
				t.Errorf("Cosine(%v, %v) = %v out of [-1,1]", a, b, s)
			}
		}
	}
}

func TestRank_IdenticalQueryFirst(t *testing.T) {
	target := []float32{0.2, 0.9, 0.1}
	candidates := []chunk.Chunk{
		mkChunk("doc-a", 0, []float32{0.9, 0.1, 0.2}),
		mkChunk("doc-a", 1, target),
		mkChunk("doc-b", 0, []float32{0.3, 0.8, 0.2}),
	}

	got, err := NewRanker(1).Rank(context.Background(), target, candidates, Options{Threshold: 0, TopK: 3})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected results")
	}
	if got[0].Chunk.DocumentID() != "doc-a" || got[0].Chunk.Index() != 1 {
		t.Errorf("first = %s/%d", got[0].Chunk.DocumentID(), got[0].Chunk.Index())
	}
	if math.Abs(got[0].Similarity-1) > 1e-6 {
		t.Errorf("similarity = %v, want ~1", got[0].Similarity)
	}
}

func TestRank_OrderIndependentOfDocument(t *testing.T) {
	q := []float32{1, 0}
	// Upload order: doc-z first, doc-a second.
	candidates := []chunk.Chunk{
		mkChunk("doc-z", 0, []float32{1, 0.1}),
		mkChunk("doc-z", 1, []float32{1, 0.9}),
		mkChunk("doc-a", 0, []float32{1, 0.3}),
		mkChunk("doc-a", 1, []float32{1, 0.05}),
	}

	got, err := NewRanker(2).Rank(context.Background(), q, candidates, Options{Threshold: 0.5, TopK: 10})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	want := []struct {
		doc string
		idx int
	}{{"doc-a", 1}, {"doc-z", 0}, {"doc-a", 0}, {"doc-z", 1}}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Chunk.DocumentID() != w.doc || got[i].Chunk.Index() != w.idx {
			t.Errorf("[%d] = %s/%d, want %s/%d", i, got[i].Chunk.DocumentID(), got[i].Chunk.Index(), w.doc, w.idx)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Similarity > got[i-1].Similarity {
			t.Errorf("not descending at %d", i)
		}
	}
}

func TestRank_ThresholdIsStrict(t *testing.T) {
	q := []float32{1, 0}
	candidates := []chunk.Chunk{
		mkChunk("d", 0, []float32{1, 0}),
		mkChunk("d", 1, []float32{0, 1}),
	}
	got, err := NewRanker(1).Rank(context.Background(), q, candidates, Options{Threshold: 1, TopK: 5})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no chunk strictly above 1.0, got %d", len(got))
	}
}

func TestRank_AllBelowThreshold(t *testing.T) {
	q := []float32{1, 0}
	candidates := []chunk.Chunk{
		mkChunk("d", 0, []float32{0, 1}),
		mkChunk("d", 1, []float32{-1, 0.2}),
	}
	got, err := NewRanker(1).Rank(context.Background(), q, candidates, Options{Threshold: DefaultThreshold, TopK: DefaultTopK})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
}

func TestRank_TopK(t *testing.T) {
	q := []float32{1, 0}
	var candidates []chunk.Chunk
	for i := range 20 {
		candidates = append(candidates, mkChunk("d", i, []float32{1, float32(i) * 0.01}))
	}

	got, err := NewRanker(4).Rank(context.Background(), q, candidates, Options{Threshold: 0, TopK: 5})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d results, want 5", len(got))
	}
	for i, s := range got {
		if s.Chunk.Index() != i {
			t.Errorf("[%d] index = %d", i, s.Chunk.Index())
		}
	}

	none, _ := NewRanker(1).Rank(context.Background(), q, candidates, Options{TopK: 0})
	if len(none) != 0 {
		t.Errorf("TopK 0 should return nothing, got %d", len(none))
	}
}

func TestRank_TiesBrokenByDocumentAndIndex(t *testing.T) {
	emb := []float32{1, 1}
	candidates := []chunk.Chunk{
		mkChunk("doc-b", 1, emb),
		mkChunk("doc-a", 2, emb),
		mkChunk("doc-b", 0, emb),
		mkChunk("doc-a", 0, emb),
	}
	got, err := NewRanker(1).Rank(context.Background(), emb, candidates, Options{Threshold: 0, TopK: 4})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	want := []string{"doc-a/0", "doc-a/2", "doc-b/0", "doc-b/1"}
	for i, w := range want {
		if g := fmt.Sprintf("%s/%d", got[i].Chunk.DocumentID(), got[i].Chunk.Index()); g != w {
			t.Errorf("[%d] = %s, want %s", i, g, w)
		}
	}
}

func TestRank_ParallelMatchesSequential(t *testing.T) {
	q := []float32{0.6, 0.8, 0.1}
	var candidates []chunk.Chunk
	for i := range 3000 {
		f := float32(i%97) / 97
		candidates = append(candidates, mkChunk(fmt.Sprintf("doc-%d", i%7), i, []float32{f, 1 - f, 0.5}))
	}
	opts := Options{Threshold: 0.3, TopK: 50}

	seq, err := NewRanker(1).Rank(context.Background(), q, candidates, opts)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	par, err := NewRanker(8).Rank(context.Background(), q, candidates, opts)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	if len(seq) != len(par) {
		t.Fatalf("len mismatch: %d vs %d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i].Chunk.ID() != par[i].Chunk.ID() || seq[i].Similarity != par[i].Similarity {
			t.Fatalf("[%d] differs", i)
		}
	}
}

func TestRank_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	candidates := []chunk.Chunk{mkChunk("d", 0, []float32{1})}
	_, err := NewRanker(1).Rank(ctx, []float32{1}, candidates, Options{TopK: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
