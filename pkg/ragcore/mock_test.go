package ragcore

import (
	"context"

	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	askuc "github.com/kailas-cloud/ragcore/internal/usecase/ask"
	documentuc "github.com/kailas-cloud/ragcore/internal/usecase/document"
	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
)

type mockAskUC struct {
	askFn func(ctx context.Context, req askuc.Request) (answer.Answer, error)
}

func (m *mockAskUC) Ask(ctx context.Context, req askuc.Request) (answer.Answer, error) {
	return m.askFn(ctx, req)
}

type mockDocumentUC struct {
	registerFn func(ctx context.Context, req documentuc.RegisterRequest) (domdoc.Document, error)
	getFn      func(ctx context.Context, projectID, id string) (domdoc.Document, error)
	listFn     func(ctx context.Context, projectID string) ([]domdoc.Document, error)
	ingestFn   func(ctx context.Context, projectID, id string) error
}

func (m *mockDocumentUC) Register(ctx context.Context, req documentuc.RegisterRequest) (domdoc.Document, error) {
	return m.registerFn(ctx, req)
}

func (m *mockDocumentUC) Get(ctx context.Context, projectID, id string) (domdoc.Document, error) {
	return m.getFn(ctx, projectID, id)
}

func (m *mockDocumentUC) List(ctx context.Context, projectID string) ([]domdoc.Document, error) {
	return m.listFn(ctx, projectID)
}

func (m *mockDocumentUC) Ingest(ctx context.Context, projectID, id string) error {
	return m.ingestFn(ctx, projectID, id)
}

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }
