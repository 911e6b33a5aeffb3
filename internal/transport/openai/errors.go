package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// parseAPIError extracts a human-readable error from the API response and wraps
// it with kind. HTTP 429 is additionally wrapped with domain.ErrRateLimited.
func parseAPIError(op string, err error, kind error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return withStatus(fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, detail, kind), reqErr.HTTPStatusCode)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return withStatus(fmt.Errorf("%s API error %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, kind), apiErr.HTTPStatusCode)
	}

	return fmt.Errorf("%s request failed: %w: %w", op, kind, err)
}

func withStatus(err error, status int) error {
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", err, domain.ErrRateLimited)
	}
	return err
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
