package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, Multiplier: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{10, time.Second},
	}
	for _, tc := range tests {
		if got := p.Backoff(tc.attempt); got != tc.want {
			t.Errorf("Backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"provider", fmt.Errorf("x: %w", domain.ErrEmbeddingProviderError), true},
		{"persistence", fmt.Errorf("x: %w", domain.ErrPersistence), true},
		{"rate limited", domain.ErrRateLimited, true},
		{"extraction", fmt.Errorf("x: %w", domain.ErrExtraction), false},
		{"not found", domain.ErrDocumentNotFound, false},
		{"transition", domain.NewTransitionError("processing", "processing"), false},
		{"cancelled", context.Canceled, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Retryable(tc.err); got != tc.want {
				t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryPolicy_DoStopsOnSuccess(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(int) error {
		calls++
		if calls < 2 {
			return domain.ErrPersistence
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetryPolicy_DoExhaustsAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond}
	calls, retries := 0, 0
	err := p.Do(context.Background(), func(int) error {
		calls++
		return domain.ErrPersistence
	}, func(int, error) { retries++ })
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 || retries != 2 {
		t.Errorf("calls=%d retries=%d", calls, retries)
	}
}

func TestRetryPolicy_DoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = RetryPolicy{}.Do(context.Background(), func(int) error {
		calls++
		return domain.ErrPersistence
	}, nil)
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryPolicy_DoHonoursContext(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := p.Do(ctx, func(int) error { return domain.ErrPersistence }, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("expected the attempt error to be preserved, got %v", err)
	}
}
