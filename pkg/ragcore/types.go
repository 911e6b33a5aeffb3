package ragcore

import (
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

// Status is the ingestion state of a document.
type Status string

// Document statuses.
const (
	StatusPending    Status = Status(domdoc.StatusPending)
	StatusProcessing Status = Status(domdoc.StatusProcessing)
	StatusCompleted  Status = Status(domdoc.StatusCompleted)
	StatusFailed     Status = Status(domdoc.StatusFailed)
)

// Terminal reports whether ingestion finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Document is a registered source file.
type Document struct {
	ID        string
	ProjectID string
	TenantID  string
	Name      string
	Locator   string
	MimeType  string
	SizeBytes int64
	Status    Status
	Metadata  map[string]any // chunk_count, total_tokens, processed_at or error, failed_at
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Outcome classifies how an ask call terminated.
type Outcome string

// Ask outcomes.
const (
	Answered            Outcome = Outcome(answer.Answered)
	InsufficientContext Outcome = Outcome(answer.InsufficientContext)
	GenerationFailed    Outcome = Outcome(answer.GenerationFailed)
)

// Citation points back to a chunk used for an answer.
type Citation struct {
	DocumentID   string
	DocumentName string
	ChunkIndex   int
	Similarity   float64
	Snippet      string
}

// Answer is the result of an ask call.
type Answer struct {
	Text       string
	Citations  []Citation
	Confidence float64 // mean similarity of cited chunks, 0..100
	Outcome    Outcome
}

func fromDocument(d domdoc.Document) Document {
	return Document{
		ID:        d.ID(),
		ProjectID: d.ProjectID(),
		TenantID:  d.TenantID(),
		Name:      d.OriginalName(),
		Locator:   d.Locator(),
		MimeType:  d.MimeType(),
		SizeBytes: d.SizeBytes(),
		Status:    Status(d.Status()),
		Metadata:  d.Metadata(),
		CreatedAt: d.CreatedAt(),
		UpdatedAt: d.UpdatedAt(),
	}
}

func fromAnswer(a answer.Answer) Answer {
	cites := make([]Citation, len(a.Citations))
	for i, c := range a.Citations {
		cites[i] = Citation{
			DocumentID:   c.DocumentID,
			DocumentName: c.DocumentName,
			ChunkIndex:   c.ChunkIndex,
			Similarity:   c.Similarity,
			Snippet:      c.Snippet,
		}
	}
	return Answer{
		Text:       a.Text,
		Citations:  cites,
		Confidence: a.Confidence,
		Outcome:    Outcome(a.Outcome),
	}
}
