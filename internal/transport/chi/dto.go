package chi

import (
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

// AskRequest is the body of POST /v1/projects/{projectID}/ask.
type AskRequest struct {
	Question string `json:"question" validate:"required"`
	TopK     *int   `json:"top_k,omitempty" validate:"omitempty,min=1,max=100"`
}

// CitationResponse points back at a source chunk.
type CitationResponse struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	ChunkIndex   int     `json:"chunk_index"`
	Similarity   float64 `json:"similarity"`
	Snippet      string  `json:"snippet"`
}

// AskResponse is a successful ask result.
type AskResponse struct {
	OK         bool               `json:"ok"`
	Outcome    string             `json:"outcome"`
	Answer     string             `json:"answer"`
	Citations  []CitationResponse `json:"citations"`
	Confidence float64            `json:"confidence"`
}

// CreateDocumentRequest is the body of POST /v1/projects/{projectID}/documents.
// Locator references an already stored blob; Content carries the body inline.
type CreateDocumentRequest struct {
	OriginalName string `json:"original_name" validate:"required,max=255"`
	MimeType     string `json:"mime_type" validate:"omitempty,max=127"`
	TenantID     string `json:"tenant_id,omitempty" validate:"omitempty,max=128"`
	Locator      string `json:"locator,omitempty" validate:"required_without=Content,excluded_with=Content"`
	SizeBytes    int64  `json:"size_bytes,omitempty" validate:"gte=0"`
	Content      string `json:"content,omitempty" validate:"required_without=Locator"`
}

// DocumentResponse describes a document and its ingestion state.
type DocumentResponse struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"project_id"`
	TenantID     string         `json:"tenant_id,omitempty"`
	OriginalName string         `json:"original_name"`
	MimeType     string         `json:"mime_type"`
	SizeBytes    int64          `json:"size_bytes"`
	Status       string         `json:"status"`
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CreateDocumentResponse reports whether ingestion was scheduled.
type CreateDocumentResponse struct {
	DocumentResponse
	Queued bool `json:"queued"`
}

// DocumentListResponse wraps a project's documents.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Count int                `json:"count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func askToResponse(a answer.Answer) AskResponse {
	citations := make([]CitationResponse, len(a.Citations))
	for i, c := range a.Citations {
		citations[i] = CitationResponse{
			DocumentID:   c.DocumentID,
			DocumentName: c.DocumentName,
			ChunkIndex:   c.ChunkIndex,
			Similarity:   c.Similarity,
			Snippet:      c.Snippet,
		}
	}
	return AskResponse{
		OK:         true,
		Outcome:    string(a.Outcome),
		Answer:     a.Text,
		Citations:  citations,
		Confidence: a.Confidence,
	}
}

func documentToResponse(doc *domdoc.Document) DocumentResponse {
	return DocumentResponse{
		ID:           doc.ID(),
		ProjectID:    doc.ProjectID(),
		TenantID:     doc.TenantID(),
		OriginalName: doc.OriginalName(),
		MimeType:     doc.MimeType(),
		SizeBytes:    doc.SizeBytes(),
		Status:       string(doc.Status()),
		Metadata:     doc.Metadata(),
		CreatedAt:    doc.CreatedAt(),
		UpdatedAt:    doc.UpdatedAt(),
	}
}
