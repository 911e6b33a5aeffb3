package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidRequest signals a malformed caller request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidTransition signals a forbidden document status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrExtraction signals unreadable or corrupt source bytes.
	ErrExtraction = errors.New("extraction error")
	// ErrBlobNotFound signals a missing object in blob storage.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrLLMGeneration signals an upstream answer generation failure.
	ErrLLMGeneration = errors.New("llm generation error")
	// ErrPersistence signals a chunk or document write failure.
	ErrPersistence = errors.New("persistence error")

	// ErrInsufficientContext is a terminal ask outcome, not a failure:
	// no chunk cleared the relevance threshold.
	ErrInsufficientContext = errors.New("insufficient context")

	// ErrQueueFull signals a saturated ingestion queue.
	ErrQueueFull = errors.New("ingestion queue full")
	// ErrQueueClosed signals an ingestion queue that no longer accepts jobs.
	ErrQueueClosed = errors.New("ingestion queue closed")
)

// TransitionError carries the offending status pair of a rejected transition.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition.Error(), e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// NewTransitionError creates a status transition error.
func NewTransitionError(from, to string) error {
	return &TransitionError{From: from, To: to}
}
