package chunk

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

func validParams() Params {
	return Params{
		DocumentID:   "doc-1",
		ProjectID:    "proj-1",
		DocumentName: "specs.txt",
		Index:        2,
		Content:      "Setbacks are 20 feet.",
		Embedding:    []float32{0.1, 0.2, 0.3},
		TokenCount:   7,
	}
}

func TestNew_Valid(t *testing.T) {
	c, err := New(validParams(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Index() != 2 || c.DocumentID() != "doc-1" || c.TokenCount() != 7 {
		t.Errorf("unexpected chunk: %+v", c)
	}
	if c.ID() != ID("doc-1", 2) {
		t.Errorf("ID() = %q, want deterministic id", c.ID())
	}
	if c.Metadata() == nil {
		t.Error("expected non-nil metadata")
	}
}

func TestNew_DimensionMismatch(t *testing.T) {
	_, err := New(validParams(), 1536)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	p := validParams()
	p.DocumentID = ""
	if _, err := New(p, 3); err == nil {
		t.Error("expected error for missing document ID")
	}

	p = validParams()
	p.Index = -1
	if _, err := New(p, 3); err == nil {
		t.Error("expected error for negative index")
	}

	p = validParams()
	p.Content = ""
	if _, err := New(p, 3); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestID_DeterministicPerPosition(t *testing.T) {
	if ID("doc-1", 0) != ID("doc-1", 0) {
		t.Error("ID must be stable")
	}
	if ID("doc-1", 0) == ID("doc-1", 1) {
		t.Error("different indices must differ")
	}
	if ID("doc-1", 10) == ID("doc-11", 0) {
		t.Error("separator must prevent collisions")
	}
}
