package chunk

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/google/uuid"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// Well-known per-chunk metadata keys.
const (
	MetaProcessedAt    = "processed_at"
	MetaChunkSize      = "chunk_size"
	MetaEmbeddingModel = "embedding_model"
)

// chunkNamespace scopes deterministic chunk IDs.
var chunkNamespace = uuid.MustParse("6f1c2a8e-3d4b-5c6d-8e9f-0a1b2c3d4e5f")

// Chunk is a bounded, embedded slice of a document's extracted text.
// Its storage identity is (DocumentID, Index).
type Chunk struct {
	id           string
	documentID   string
	projectID    string
	tenantID     string
	documentName string
	index        int
	content      string
	embedding    []float32
	tokenCount   int
	metadata     map[string]any
}

// Params groups the fields needed to build a Chunk.
type Params struct {
	DocumentID   string
	ProjectID    string
	TenantID     string
	DocumentName string
	Index        int
	Content      string
	Embedding    []float32
	TokenCount   int
	Metadata     map[string]any
}

// New validates params and creates a Chunk whose embedding has exactly dim components.
func New(p Params, dim int) (Chunk, error) {
	if p.DocumentID == "" {
		return Chunk{}, fmt.Errorf("document ID is required")
	}
	if p.Index < 0 {
		return Chunk{}, fmt.Errorf("chunk index must be >= 0, got %d", p.Index)
	}
	if p.Content == "" {
		return Chunk{}, fmt.Errorf("content is required")
	}
	if err := domain.ValidateVector(p.Embedding, dim); err != nil {
		return Chunk{}, fmt.Errorf("chunk %d embedding: %w", p.Index, err)
	}
	return Reconstruct(ID(p.DocumentID, p.Index), p), nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(id string, p Params) Chunk {
	md := p.Metadata
	if md == nil {
		md = map[string]any{}
	}
	return Chunk{
		id:           id,
		documentID:   p.DocumentID,
		projectID:    p.ProjectID,
		tenantID:     p.TenantID,
		documentName: p.DocumentName,
		index:        p.Index,
		content:      p.Content,
		embedding:    p.Embedding,
		tokenCount:   p.TokenCount,
		metadata:     md,
	}
}

// ID derives the deterministic chunk identifier for (documentID, index).
func ID(documentID string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+":"+strconv.Itoa(index))).String()
}

// ID returns the chunk identifier.
func (c *Chunk) ID() string { return c.id }

// DocumentID returns the owning document.
func (c *Chunk) DocumentID() string { return c.documentID }

// ProjectID returns the owning project.
func (c *Chunk) ProjectID() string { return c.projectID }

// TenantID returns the owning tenant.
func (c *Chunk) TenantID() string { return c.tenantID }

// DocumentName returns the original filename of the owning document.
func (c *Chunk) DocumentName() string { return c.documentName }

// Index returns the 0-based position within the document.
func (c *Chunk) Index() int { return c.index }

// Content returns the chunk text.
func (c *Chunk) Content() string { return c.content }

// Embedding returns the embedding vector.
func (c *Chunk) Embedding() []float32 { return c.embedding }

// TokenCount returns the estimated token count.
func (c *Chunk) TokenCount() int { return c.tokenCount }

// Metadata returns a copy of the per-chunk metadata.
func (c *Chunk) Metadata() map[string]any { return maps.Clone(c.metadata) }

// Scored pairs a chunk with its similarity to a query.
type Scored struct {
	Chunk      Chunk
	Similarity float64
}
