// Package extract turns stored document bytes into plain text by MIME type.
package extract

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// PreviewBytes bounds the text taken from formats without a real parser.
const PreviewBytes = 1000

// Func extracts text from raw bytes of one MIME type.
type Func func(ctx context.Context, data []byte) (string, error)

// Registry dispatches extraction by MIME type. Unknown types use the fallback.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Func
	fallback Func
}

// NewRegistry creates a registry with the built-in handlers.
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[string]Func),
		fallback: Preview(""),
	}
	for _, mt := range []string{"text/plain", "text/markdown", "text/x-markdown", "application/json"} {
		r.handlers[mt] = PassThrough
	}
	r.handlers["application/pdf"] = Preview("Extracted PDF content: ")
	r.handlers["application/vnd.openxmlformats-officedocument.wordprocessingml.document"] = Preview("Extracted DOCX content: ")
	return r
}

// Register installs fn for mimeType, replacing any existing handler.
func (r *Registry) Register(mimeType string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[normalize(mimeType)] = fn
}

// Supports reports whether mimeType has a dedicated handler.
func (r *Registry) Supports(mimeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[normalize(mimeType)]
	return ok
}

// Extract returns the text of data interpreted as mimeType.
// Handler failures are wrapped with domain.ErrExtraction.
func (r *Registry) Extract(ctx context.Context, mimeType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.RLock()
	fn, ok := r.handlers[normalize(mimeType)]
	if !ok {
		fn = r.fallback
	}
	r.mu.RUnlock()

	text, err := fn(ctx, data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w: %w", mimeType, domain.ErrExtraction, err)
	}
	return text, nil
}

// PassThrough returns the bytes as text, replacing invalid UTF-8.
func PassThrough(_ context.Context, data []byte) (string, error) {
	return strings.ToValidUTF8(string(data), "�"), nil
}

// Preview returns a handler that yields prefix followed by the first
// PreviewBytes of the data, with "..." appended when a prefix is set.
func Preview(prefix string) Func {
	return func(_ context.Context, data []byte) (string, error) {
		head := strings.ToValidUTF8(string(Truncate(data, PreviewBytes)), "�")
		if prefix == "" {
			return head, nil
		}
		return prefix + head + "...", nil
	}
}

// Truncate returns at most n bytes of data without splitting a UTF-8 sequence.
func Truncate(data []byte, n int) []byte {
	if len(data) <= n {
		return data
	}
	cut := n
	for cut > 0 && cut > n-utf8.UTFMax && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut]
}

func normalize(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mt
}
