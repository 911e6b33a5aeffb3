package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/config"
	"github.com/kailas-cloud/ragcore/internal/db"
	"github.com/kailas-cloud/ragcore/internal/domain"
	embeddinguc "github.com/kailas-cloud/ragcore/internal/usecase/embedding"
)

type stubEmbedder struct{ calls int }

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	s.calls++
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 2}, nil
}

type memKV struct{ data map[string][]byte }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memKV) SetWithTTL(ctx context.Context, key string, value []byte, _ time.Duration) error {
	return m.Set(ctx, key, value)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("http:\n  port: 8080\ndatabase:\n  addrs: [localhost:6379]\nembedding:\n  cache: true\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cfg
}

func TestBuildEmbedders_QueryCacheOnly(t *testing.T) {
	base := &stubEmbedder{}
	docs, queries := buildEmbedders(base, &memKV{data: map[string][]byte{}}, testConfig(t), zap.NewNop())

	if _, ok := docs.(*embeddinguc.InstrumentedEmbedder); !ok {
		t.Fatalf("document embedder is %T", docs)
	}

	ctx := context.Background()
	for range 2 {
		if _, err := queries.Embed(ctx, "same question"); err != nil {
			t.Fatalf("Embed: %v", err)
		}
	}
	if base.calls != 1 {
		t.Errorf("query embedder should serve the repeat from cache, provider calls = %d", base.calls)
	}

	for range 2 {
		if _, err := docs.Embed(ctx, "same chunk"); err != nil {
			t.Fatalf("Embed: %v", err)
		}
	}
	if base.calls != 3 {
		t.Errorf("document embedder must not cache, provider calls = %d", base.calls)
	}
}

func TestBuildEmbedders_NoKV(t *testing.T) {
	base := &stubEmbedder{}
	_, queries := buildEmbedders(base, nil, testConfig(t), zap.NewNop())

	for range 2 {
		_, _ = queries.Embed(context.Background(), "q")
	}
	if base.calls != 2 {
		t.Errorf("provider calls = %d, want 2 without cache", base.calls)
	}
}

func TestOpenBackend_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "mongo"
	_, err := openBackend(context.Background(), cfg, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "mongo") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}

var _ cacheStore = (*memKV)(nil)
