package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// RetryPolicy bounds how often and how fast a failed ingestion is re-attempted.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryPolicy makes three attempts starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2,
	}
}

// Backoff returns the delay before attempt n+1 after attempt n (1-based) failed.
func (p RetryPolicy) Backoff(n int) time.Duration {
	if n < 1 || p.InitialBackoff <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.InitialBackoff)
	for i := 1; i < n; i++ {
		d *= mult
		if p.MaxBackoff > 0 && d >= float64(p.MaxBackoff) {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && time.Duration(d) > p.MaxBackoff {
		return p.MaxBackoff
	}
	return time.Duration(d)
}

// Retryable reports whether another attempt may succeed.
// Unreadable input and missing documents fail the same way every time.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrExtraction),
		errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrVectorDimMismatch):
		return false
	default:
		return true
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// run out or ctx is done. onRetry, when set, is called before each re-attempt.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error, onRetry func(attempt int, err error)) error {
	attempts := max(p.MaxAttempts, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil || !Retryable(err) || attempt == attempts {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		t := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Join(err, ctx.Err())
		case <-t.C:
		}
	}
	return err
}
