package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	calls  []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.calls = append(s.calls, text)
	return s.result, s.err
}

type stubBatchEmbedder struct {
	stubEmbedder
	batchCalls int
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchCalls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.result.Embedding
	}
	return BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

func TestBatchFallback_EmbedsEachText(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{1, 2}, TotalTokens: 3}}

	res, err := BatchFallback(context.Background(), inner, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if res.TotalTokens != 9 {
		t.Errorf("expected TotalTokens=9, got %d", res.TotalTokens)
	}
	if len(inner.calls) != 3 || inner.calls[1] != "b" {
		t.Errorf("unexpected calls: %v", inner.calls)
	}
}

func TestBatchFallback_ErrorAbortsBatch(t *testing.T) {
	innerErr := errors.New("provider down")
	inner := &stubEmbedder{err: innerErr}

	res, err := BatchFallback(context.Background(), inner, []string{"a", "b"})
	if !errors.Is(err, innerErr) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
	if res.Embeddings != nil {
		t.Error("expected no partial result")
	}
	if len(inner.calls) != 1 {
		t.Errorf("expected abort after first failure, got %d calls", len(inner.calls))
	}
}

func TestEmbedAll_PrefersNativeBatch(t *testing.T) {
	inner := &stubBatchEmbedder{stubEmbedder: stubEmbedder{result: EmbeddingResult{Embedding: []float32{1}}}}

	res, err := EmbedAll(context.Background(), inner, []string{"x", "y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected one batch call, got %d", inner.batchCalls)
	}
	if len(inner.calls) != 0 {
		t.Errorf("expected no single Embed calls, got %d", len(inner.calls))
	}
	if len(res.Embeddings) != 2 {
		t.Errorf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
}

func TestValidateVector(t *testing.T) {
	if err := ValidateVector([]float32{1, 2, 3}, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ValidateVector([]float32{1, 2}, 3)
	if !errors.Is(err, ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestRequestUsage_NilSafe(t *testing.T) {
	var u *RequestUsage
	u.AddEmbeddingTokens(5)
	u.AddGenerationTokens(7, 3)

	ctx, usage := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddEmbeddingTokens(5)
	UsageFromContext(ctx).AddGenerationTokens(0, 0)
	if usage.EmbeddingTokens != 5 || !usage.Embedded || !usage.Generated {
		t.Errorf("unexpected usage: %+v", usage)
	}
	UsageFromContext(ctx).AddGenerationTokens(40, 6)
	if usage.PromptTokens != 40 || usage.CompletionTokens != 6 {
		t.Errorf("prompt and completion must be kept apart: %+v", usage)
	}
	if UsageFromContext(context.Background()) != nil {
		t.Error("expected nil usage for bare context")
	}
}

func TestTransitionError_Unwrap(t *testing.T) {
	err := NewTransitionError("pending", "completed")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatal("expected ErrInvalidTransition")
	}
	if err.Error() != "invalid status transition: pending -> completed" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
