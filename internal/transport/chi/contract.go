package chi

import (
	"context"

	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	askuc "github.com/kailas-cloud/ragcore/internal/usecase/ask"
	documentuc "github.com/kailas-cloud/ragcore/internal/usecase/document"
	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
)

// Asker answers questions over a project's documents.
type Asker interface {
	Ask(ctx context.Context, req askuc.Request) (answer.Answer, error)
}

// DocumentService registers documents and reports their ingestion state.
type DocumentService interface {
	Register(ctx context.Context, req documentuc.RegisterRequest) (domdoc.Document, error)
	Get(ctx context.Context, projectID, id string) (domdoc.Document, error)
	List(ctx context.Context, projectID string) ([]domdoc.Document, error)
	Ingest(ctx context.Context, projectID, id string) error
}

// HealthReporter aggregates dependency checks.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}
