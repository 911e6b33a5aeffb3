package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/metrics"
)

// DefaultCooldown is how long the limiter holds all requests after the
// provider reports a rate limit.
const DefaultCooldown = 10 * time.Second

// RateLimitConfig holds the token bucket parameters.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	Cooldown          time.Duration
}

// RateLimitedEmbedder throttles provider requests with a token bucket.
// A batch counts as one request.
type RateLimitedEmbedder struct {
	inner    domain.Embedder
	provider string
	limiter  *rate.Limiter
	cooldown time.Duration

	mu      sync.Mutex
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimitedEmbedder wraps inner. A non-positive rate disables throttling.
func NewRateLimitedEmbedder(inner domain.Embedder, provider string, cfg RateLimitConfig) *RateLimitedEmbedder {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &RateLimitedEmbedder{
		inner:    inner,
		provider: provider,
		limiter:  rate.NewLimiter(limit, burst),
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Embed waits for a token, then delegates.
func (r *RateLimitedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := r.wait(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}
	res, err := r.inner.Embed(ctx, text)
	if err != nil {
		r.observe(err)
		return domain.EmbeddingResult{}, fmt.Errorf("rate limited embed: %w", err)
	}
	return res, nil
}

// BatchEmbed waits for a single token, then delegates the whole batch.
func (r *RateLimitedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if err := r.wait(ctx); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	res, err := domain.EmbedAll(ctx, r.inner, texts)
	if err != nil {
		r.observe(err)
		return domain.BatchEmbeddingResult{}, fmt.Errorf("rate limited batch embed: %w", err)
	}
	return res, nil
}

func (r *RateLimitedEmbedder) wait(ctx context.Context) error {
	start := r.now()
	defer func() {
		metrics.EmbeddingRateLimitWait.WithLabelValues(r.provider).Observe(time.Since(start).Seconds())
	}()

	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := retryAt.Sub(r.now()); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("cooldown: %w: %w", domain.ErrRateLimited, ctx.Err())
		case <-t.C:
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("limiter: %w: %w", domain.ErrRateLimited, err)
	}
	return nil
}

func (r *RateLimitedEmbedder) observe(err error) {
	if !errors.Is(err, domain.ErrRateLimited) {
		return
	}
	r.mu.Lock()
	r.retryAt = r.now().Add(r.cooldown)
	r.mu.Unlock()
}
