package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domchunk "github.com/kailas-cloud/ragcore/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

const testDim = 3

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// --- Mocks ---

type memDocs struct {
	mu      sync.Mutex
	docs    map[string]domdoc.Document
	saves   []domdoc.Status
	saveErr error
	// failOnce fails the first Save that writes this status.
	failOnce domdoc.Status
}

func newMemDocs(docs ...domdoc.Document) *memDocs {
	m := &memDocs{docs: map[string]domdoc.Document{}}
	for _, d := range docs {
		m.docs[d.ID()] = d
	}
	return m
}

func (m *memDocs) Get(_ context.Context, projectID, id string) (domdoc.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.ProjectID() != projectID {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return d, nil
}

func (m *memDocs) Save(_ context.Context, doc *domdoc.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, doc.Status())
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.failOnce != "" && doc.Status() == m.failOnce {
		m.failOnce = ""
		return fmt.Errorf("%w: connection reset", domain.ErrPersistence)
	}
	m.docs[doc.ID()] = *doc
	return nil
}

func (m *memDocs) get(id string) *domdoc.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.docs[id]
	return &d
}

type memChunks struct {
	rows      map[string]domchunk.Chunk
	upserts   int
	upsertErr error
	prunes    int
}

func newMemChunks() *memChunks {
	return &memChunks{rows: map[string]domchunk.Chunk{}}
}

func (m *memChunks) Upsert(_ context.Context, chunks []domchunk.Chunk) error {
	m.upserts++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, c := range chunks {
		m.rows[fmt.Sprintf("%s/%d", c.DocumentID(), c.Index())] = c
	}
	return nil
}

func (m *memChunks) Prune(_ context.Context, documentID string, keep int) error {
	m.prunes++
	for k, c := range m.rows {
		if c.DocumentID() == documentID && c.Index() >= keep {
			delete(m.rows, k)
		}
	}
	return nil
}

type memBlobs map[string][]byte

func (m memBlobs) Read(_ context.Context, locator string) ([]byte, error) {
	b, ok := m[locator]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return b, nil
}

type countingEmbedder struct {
	calls int
	texts int
	dim   int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: make([]float32, e.dim), TotalTokens: 1}, nil
}

func (e *countingEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.calls++
	e.texts += len(texts)
	if e.err != nil {
		return domain.BatchEmbeddingResult{}, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, e.dim)
		v[0] = float32(i + 1)
		out[i] = v
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

func pendingDoc(t *testing.T, id, mime string) domdoc.Document {
	t.Helper()
	d, err := domdoc.New(id, "proj-1", "acct-1", id+".txt", "uploads/"+id, mime, 10, testNow)
	if err != nil {
		t.Fatalf("domdoc.New: %v", err)
	}
	return d
}
