package ingest

import (
	"context"

	"github.com/kailas-cloud/ragcore/internal/chunker"
	domchunk "github.com/kailas-cloud/ragcore/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

// DocumentStore reads and writes the document being ingested.
type DocumentStore interface {
	Get(ctx context.Context, projectID, id string) (domdoc.Document, error)
	Save(ctx context.Context, doc *domdoc.Document) error
}

// ChunkStore persists embedded chunks keyed by (document, index).
// Prune deletes a document's chunks with index >= keep.
type ChunkStore interface {
	Upsert(ctx context.Context, chunks []domchunk.Chunk) error
	Prune(ctx context.Context, documentID string, keep int) error
}

// BlobReader fetches raw document bytes by locator.
type BlobReader interface {
	Read(ctx context.Context, locator string) ([]byte, error)
}

// Extractor turns raw bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, mimeType string, data []byte) (string, error)
}

// Splitter cuts text into token-bounded pieces.
type Splitter interface {
	Split(text string) []chunker.Piece
}

// Processor runs one ingestion attempt. Implemented by Pipeline.
type Processor interface {
	Process(ctx context.Context, job Job) (domdoc.Summary, error)
}
