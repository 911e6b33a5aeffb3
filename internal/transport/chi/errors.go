package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	logpkg "github.com/kailas-cloud/ragcore/internal/logger"
)

// ErrorCode is a machine-readable error classifier in API responses.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeNotFound               ErrorCode = "not_found"
	CodeDocumentNotFound       ErrorCode = "document_not_found"
	CodeBlobNotFound           ErrorCode = "blob_not_found"
	CodeInvalidTransition      ErrorCode = "invalid_transition"
	CodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	CodeInsufficientContext    ErrorCode = "insufficient_context"
	CodeRateLimited            ErrorCode = "rate_limited"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeLLMGenerationError     ErrorCode = "llm_generation_error"
	CodeQueueFull              ErrorCode = "queue_full"
	CodeQueueClosed            ErrorCode = "queue_closed"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	OK      bool      `json:"ok"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// mapped is the ordered sentinel table. Earlier entries win, so rate limiting
// shadows the provider error it is usually wrapped with.
var mapped = []struct {
	sentinel error
	status   int
	code     ErrorCode
}{
	{domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed},
	{domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound},
	{domain.ErrBlobNotFound, http.StatusNotFound, CodeBlobNotFound},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrInvalidTransition, http.StatusConflict, CodeInvalidTransition},
	{domain.ErrInsufficientContext, http.StatusUnprocessableEntity, CodeInsufficientContext},
	{domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError},
	{domain.ErrLLMGeneration, http.StatusBadGateway, CodeLLMGenerationError},
	{domain.ErrVectorDimMismatch, http.StatusBadGateway, CodeVectorDimMismatch},
	{domain.ErrQueueFull, http.StatusServiceUnavailable, CodeQueueFull},
	{domain.ErrQueueClosed, http.StatusServiceUnavailable, CodeQueueClosed},
}

func defaultErrorHandlers() []errorHandler {
	handlers := make([]errorHandler, 0, len(mapped))
	for _, m := range mapped {
		handlers = append(handlers, sentinelHandler(m.sentinel, m.status, m.code))
	}
	return handlers
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, m := range mapped {
		if errors.Is(err, m.sentinel) {
			return m.sentinel.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
