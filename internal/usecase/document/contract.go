package document

import (
	"context"

	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/usecase/ingest"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Save(ctx context.Context, doc *domdoc.Document) error
	Get(ctx context.Context, projectID, id string) (domdoc.Document, error)
	ListByProject(ctx context.Context, projectID string) ([]domdoc.Document, error)
}

// BlobWriter stores inline document bodies.
type BlobWriter interface {
	Write(ctx context.Context, locator string, data []byte) error
}

// Enqueuer schedules ingestion without waiting for it.
type Enqueuer interface {
	Enqueue(job ingest.Job) error
}
