package ragcore

import (
	"context"
	"fmt"
	"time"

	askuc "github.com/kailas-cloud/ragcore/internal/usecase/ask"
	documentuc "github.com/kailas-cloud/ragcore/internal/usecase/document"
)

// ProjectService asks questions and manages documents within one project.
type ProjectService struct {
	projectID string
	askSvc    askUseCase
	docSvc    documentUseCase
	obs       *observer
}

// AskOption configures a single ask call.
type AskOption func(*askuc.Request)

// WithTopK caps the number of chunks sent to the model for this call.
func WithTopK(k int) AskOption {
	return func(r *askuc.Request) { r.TopK = k }
}

// Ask answers a question from the project's completed documents.
// An answer with Outcome InsufficientContext or GenerationFailed is returned
// without error.
func (p *ProjectService) Ask(ctx context.Context, question string, opts ...AskOption) (_ Answer, err error) {
	start := time.Now()
	defer func() { p.obs.observe("ask", start, err) }()

	req := askuc.Request{ProjectID: p.projectID, Question: question}
	for _, o := range opts {
		o(&req)
	}
	a, err := p.askSvc.Ask(ctx, req)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return fromAnswer(a), nil
}

// UploadOption configures document registration.
type UploadOption func(*documentuc.RegisterRequest)

// WithMimeType declares the content type. Default: text/plain.
func WithMimeType(mime string) UploadOption {
	return func(r *documentuc.RegisterRequest) { r.MimeType = mime }
}

// WithTenant records the owning tenant.
func WithTenant(id string) UploadOption {
	return func(r *documentuc.RegisterRequest) { r.TenantID = id }
}

// Upload stores content in blob storage, registers it and queues ingestion.
// When the queue is full the document is returned pending together with ErrQueueFull.
func (p *ProjectService) Upload(
	ctx context.Context, name string, content []byte, opts ...UploadOption,
) (Document, error) {
	req := documentuc.RegisterRequest{
		OriginalName: name,
		SizeBytes:    int64(len(content)),
		Content:      content,
	}
	return p.register(ctx, "upload", req, opts)
}

// Register records a file already present in blob storage and queues ingestion.
func (p *ProjectService) Register(
	ctx context.Context, name, locator string, sizeBytes int64, opts ...UploadOption,
) (Document, error) {
	req := documentuc.RegisterRequest{
		OriginalName: name,
		Locator:      locator,
		SizeBytes:    sizeBytes,
	}
	return p.register(ctx, "register", req, opts)
}

func (p *ProjectService) register(
	ctx context.Context, op string, req documentuc.RegisterRequest, opts []UploadOption,
) (_ Document, err error) {
	start := time.Now()
	defer func() { p.obs.observe(op, start, err) }()

	req.ProjectID = p.projectID
	req.MimeType = "text/plain"
	for _, o := range opts {
		o(&req)
	}
	d, err := p.docSvc.Register(ctx, req)
	if err != nil {
		if d.ID() == "" {
			return Document{}, fmt.Errorf("%s document: %w", op, err)
		}
		return fromDocument(d), fmt.Errorf("%s document: %w", op, err)
	}
	return fromDocument(d), nil
}

// Document returns a document by ID.
func (p *ProjectService) Document(ctx context.Context, id string) (_ Document, err error) {
	start := time.Now()
	defer func() { p.obs.observe("get_document", start, err) }()

	d, err := p.docSvc.Get(ctx, p.projectID, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return fromDocument(d), nil
}

// Documents lists the project's documents, newest first.
func (p *ProjectService) Documents(ctx context.Context) (_ []Document, err error) {
	start := time.Now()
	defer func() { p.obs.observe("list_documents", start, err) }()

	docs, err := p.docSvc.List(ctx, p.projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = fromDocument(d)
	}
	return out, nil
}

// Reingest queues another processing attempt for a completed or failed document.
func (p *ProjectService) Reingest(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { p.obs.observe("reingest", start, err) }()

	if err = p.docSvc.Ingest(ctx, p.projectID, id); err != nil {
		return fmt.Errorf("reingest document: %w", err)
	}
	return nil
}

// Wait polls a document until its ingestion completes or fails.
func (p *ProjectService) Wait(ctx context.Context, id string, interval time.Duration) (Document, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		doc, err := p.Document(ctx, id)
		if err != nil {
			return Document{}, err
		}
		if doc.Status.Terminal() {
			return doc, nil
		}
		select {
		case <-ctx.Done():
			return doc, fmt.Errorf("wait for document %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}
