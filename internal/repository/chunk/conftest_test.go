package chunk

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/ragcore/internal/db"
	domchunk "github.com/kailas-cloud/ragcore/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

// mockStore is an in-memory implementation of the consumer interface.
type mockStore struct {
	hashes map[string]map[string]string
	sets   map[string]map[string]struct{}

	hsetMultiErr error
	delErr       error
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes: map[string]map[string]string{},
		sets:   map[string]map[string]struct{}{},
	}
}

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	if m.hsetMultiErr != nil {
		return m.hsetMultiErr
	}
	for _, it := range items {
		h := m.hashes[it.Key]
		if h == nil {
			h = map[string]string{}
			m.hashes[it.Key] = h
		}
		for k, v := range it.Fields {
			h[k] = v
		}
	}
	return nil
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = m.hashes[k]
	}
	return out, nil
}

func (m *mockStore) SAdd(_ context.Context, key string, members ...string) error {
	s := m.sets[key]
	if s == nil {
		s = map[string]struct{}{}
		m.sets[key] = s
	}
	for _, mem := range members {
		s[mem] = struct{}{}
	}
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.hashes, key)
	return nil
}

func (m *mockStore) SRem(_ context.Context, key string, members ...string) error {
	for _, mem := range members {
		delete(m.sets[key], mem)
	}
	return nil
}

func (m *mockStore) SMembers(_ context.Context, key string) ([]string, error) {
	var out []string
	for mem := range m.sets[key] {
		out = append(out, mem)
	}
	return out, nil
}

type mockDocs struct {
	docs []domdoc.Document
	err  error
}

func (m *mockDocs) ListByProject(context.Context, string) ([]domdoc.Document, error) {
	return m.docs, m.err
}

var t0 = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

func docWithStatus(id string, status domdoc.Status) domdoc.Document {
	return domdoc.Reconstruct(id, "proj-1", "", id+".txt", "proj-1/"+id, "text/plain", 10, status, nil, t0, t0)
}

func testChunk(t *testing.T, docID string, index int, content string) domchunk.Chunk {
	t.Helper()
	c, err := domchunk.New(domchunk.Params{
		DocumentID:   docID,
		ProjectID:    "proj-1",
		DocumentName: docID + ".txt",
		Index:        index,
		Content:      content,
		Embedding:    []float32{0.25, -1.5, 3},
		TokenCount:   2,
		Metadata:     map[string]any{domchunk.MetaEmbeddingModel: "text-embedding-3-small"},
	}, 3)
	if err != nil {
		t.Fatalf("new chunk: %v", err)
	}
	return c
}
