package ragcore

import "github.com/kailas-cloud/ragcore/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrDocumentNotFound       = domain.ErrDocumentNotFound
	ErrBlobNotFound           = domain.ErrBlobNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrInvalidTransition      = domain.ErrInvalidTransition
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrLLMGeneration          = domain.ErrLLMGeneration
	ErrQueueFull              = domain.ErrQueueFull
	ErrQueueClosed            = domain.ErrQueueClosed
)
