// Package document registers uploaded documents and schedules their ingestion.
package document

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/usecase/ingest"
)

// DefaultMaxContentBytes caps inline document bodies.
const DefaultMaxContentBytes = 10 << 20

// DefaultStaleProcessing is how long a processing document may go without an
// update before a re-ingest request takes it over.
const DefaultStaleProcessing = 15 * time.Minute

// RegisterRequest describes a new document. Either Locator points at an
// existing blob or Content carries the body to store.
type RegisterRequest struct {
	ProjectID    string
	TenantID     string
	OriginalName string
	MimeType     string
	Locator      string
	SizeBytes    int64
	Content      []byte
}

// Service handles document registration and status reads.
type Service struct {
	repo       Repository
	blobs      BlobWriter
	queue      Enqueuer
	maxContent int
	stale      time.Duration
	now        func() time.Time
	newID      func() string
}

// New creates a document service. blobs may be nil when inline content is not accepted.
func New(repo Repository, blobs BlobWriter, queue Enqueuer) *Service {
	return &Service{
		repo:       repo,
		blobs:      blobs,
		queue:      queue,
		maxContent: DefaultMaxContentBytes,
		stale:      DefaultStaleProcessing,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// WithMaxContentBytes configures the inline body limit.
func (s *Service) WithMaxContentBytes(n int) *Service {
	if n > 0 {
		s.maxContent = n
	}
	return s
}

// WithStaleProcessing configures after how long a processing document counts
// as abandoned.
func (s *Service) WithStaleProcessing(d time.Duration) *Service {
	if d > 0 {
		s.stale = d
	}
	return s
}

// Register stores a pending document and enqueues its ingestion.
// A saturated queue leaves the document pending and returns domain.ErrQueueFull
// alongside it, so the caller can trigger ingestion later.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (domdoc.Document, error) {
	id := s.newID()
	locator := req.Locator
	size := req.SizeBytes

	if len(req.Content) > 0 {
		if s.blobs == nil {
			return domdoc.Document{}, fmt.Errorf("inline content not accepted: %w", domain.ErrInvalidRequest)
		}
		if len(req.Content) > s.maxContent {
			return domdoc.Document{}, fmt.Errorf("content exceeds %d bytes: %w", s.maxContent, domain.ErrInvalidRequest)
		}
		locator = path.Join("projects", req.ProjectID, id, blobName(req.OriginalName))
		if err := s.blobs.Write(ctx, locator, req.Content); err != nil {
			return domdoc.Document{}, fmt.Errorf("store content: %w", err)
		}
		size = int64(len(req.Content))
	}

	doc, err := domdoc.New(id, req.ProjectID, req.TenantID, req.OriginalName, locator, req.MimeType, size, s.now().UTC())
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if err := s.repo.Save(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("save document: %w", err)
	}

	if err := s.queue.Enqueue(ingest.Job{ProjectID: doc.ProjectID(), DocumentID: doc.ID()}); err != nil {
		return doc, fmt.Errorf("enqueue ingestion: %w", err)
	}
	return doc, nil
}

// Get returns a document of the project.
func (s *Service) Get(ctx context.Context, projectID, id string) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, projectID, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns the project's documents, newest first.
func (s *Service) List(ctx context.Context, projectID string) ([]domdoc.Document, error) {
	docs, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	slices.SortFunc(docs, func(a, b domdoc.Document) int {
		if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
			return c
		}
		return strings.Compare(a.ID(), b.ID())
	})
	return docs, nil
}

// Ingest re-schedules ingestion of an existing document.
// A document being processed is rejected unless it has not been updated for
// the stale period, which means its attempt died without recording an outcome.
func (s *Service) Ingest(ctx context.Context, projectID, id string) error {
	doc, err := s.repo.Get(ctx, projectID, id)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if doc.Status() == domdoc.StatusProcessing && s.now().Sub(doc.UpdatedAt()) < s.stale {
		return domain.NewTransitionError(string(doc.Status()), string(domdoc.StatusProcessing))
	}
	if err := s.queue.Enqueue(ingest.Job{ProjectID: projectID, DocumentID: id}); err != nil {
		return fmt.Errorf("enqueue ingestion: %w", err)
	}
	return nil
}

// blobName reduces an uploaded filename to a single safe path element.
func blobName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	switch base {
	case "", ".", "..", "/":
		return "content"
	}
	return base
}
