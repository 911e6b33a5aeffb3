package document

import (
	"fmt"
	"maps"
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// Status is the ingestion state of a document.
type Status string

// Document statuses. completed and failed are terminal for a single processing attempt.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Well-known metadata keys written by the ingestion pipeline.
const (
	MetaChunkCount          = "chunk_count"
	MetaTotalTokens         = "total_tokens"
	MetaProcessedAt         = "processed_at"
	MetaEmbeddingDimensions = "embedding_dimensions"
	MetaError               = "error"
	MetaFailedAt            = "failed_at"
)

// ParseStatus converts a stored string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown document status %q", s)
	}
}

// IsTerminal reports whether no further transition happens without a new attempt.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// processing -> processing resumes an attempt that never recorded its outcome
// (a lost status write or a crashed worker). Only the document's single
// writer may take it.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusProcessing, StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusProcessing},
	StatusFailed:     {StatusProcessing},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Summary is the outcome of a successful processing run.
type Summary struct {
	ChunkCount          int
	TotalTokens         int
	EmbeddingDimensions int
	ProcessedAt         time.Time
}

// Document is an uploaded source file tracked through ingestion.
type Document struct {
	id           string
	projectID    string
	tenantID     string
	originalName string
	locator      string
	mimeType     string
	sizeBytes    int64
	status       Status
	metadata     map[string]any
	createdAt    time.Time
	updatedAt    time.Time
}

// New validates and creates a pending Document.
func New(
	id, projectID, tenantID, originalName, locator, mimeType string,
	sizeBytes int64, now time.Time,
) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if projectID == "" {
		return Document{}, fmt.Errorf("project ID is required")
	}
	if originalName == "" {
		return Document{}, fmt.Errorf("original name is required")
	}
	if locator == "" {
		return Document{}, fmt.Errorf("storage locator is required")
	}
	if sizeBytes < 0 {
		return Document{}, fmt.Errorf("size must not be negative")
	}

	return Document{
		id:           id,
		projectID:    projectID,
		tenantID:     tenantID,
		originalName: originalName,
		locator:      locator,
		mimeType:     mimeType,
		sizeBytes:    sizeBytes,
		status:       StatusPending,
		metadata:     map[string]any{},
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id, projectID, tenantID, originalName, locator, mimeType string,
	sizeBytes int64, status Status, metadata map[string]any,
	createdAt, updatedAt time.Time,
) Document {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Document{
		id: id, projectID: projectID, tenantID: tenantID,
		originalName: originalName, locator: locator, mimeType: mimeType,
		sizeBytes: sizeBytes, status: status, metadata: metadata,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// ProjectID returns the owning project.
func (d *Document) ProjectID() string { return d.projectID }

// TenantID returns the owning tenant.
func (d *Document) TenantID() string { return d.tenantID }

// OriginalName returns the uploaded filename.
func (d *Document) OriginalName() string { return d.originalName }

// Locator returns the opaque blob storage locator.
func (d *Document) Locator() string { return d.locator }

// MimeType returns the declared content type.
func (d *Document) MimeType() string { return d.mimeType }

// SizeBytes returns the uploaded size.
func (d *Document) SizeBytes() int64 { return d.sizeBytes }

// Status returns the ingestion status.
func (d *Document) Status() Status { return d.status }

// Clone returns a copy that shares no metadata with d.
func (d *Document) Clone() Document {
	c := *d
	c.metadata = maps.Clone(d.metadata)
	return c
}

// Metadata returns a copy of the free-form metadata.
func (d *Document) Metadata() map[string]any { return maps.Clone(d.metadata) }

// CreatedAt returns the upload time.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the last mutation time.
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }

// StartProcessing moves the document into processing.
func (d *Document) StartProcessing(now time.Time) error {
	return d.transition(StatusProcessing, now)
}

// Complete marks the document completed and merges the run summary into metadata.
// A stale failure from an earlier attempt is cleared.
func (d *Document) Complete(s Summary) error {
	if err := d.transition(StatusCompleted, s.ProcessedAt); err != nil {
		return err
	}
	delete(d.metadata, MetaError)
	delete(d.metadata, MetaFailedAt)
	d.metadata[MetaChunkCount] = s.ChunkCount
	d.metadata[MetaTotalTokens] = s.TotalTokens
	d.metadata[MetaProcessedAt] = s.ProcessedAt.UTC().Format(time.RFC3339)
	if s.EmbeddingDimensions > 0 {
		d.metadata[MetaEmbeddingDimensions] = s.EmbeddingDimensions
	}
	return nil
}

// Fail marks the document failed and records the cause.
func (d *Document) Fail(cause error, at time.Time) error {
	if err := d.transition(StatusFailed, at); err != nil {
		return err
	}
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	d.metadata[MetaError] = msg
	d.metadata[MetaFailedAt] = at.UTC().Format(time.RFC3339)
	return nil
}

func (d *Document) transition(to Status, now time.Time) error {
	if !CanTransition(d.status, to) {
		return domain.NewTransitionError(string(d.status), string(to))
	}
	d.status = to
	d.updatedAt = now
	return nil
}
