package chunk

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	domchunk "github.com/kailas-cloud/ragcore/internal/domain/chunk"
)

const (
	fieldID           = "id"
	fieldDocumentID   = "document_id"
	fieldProjectID    = "project_id"
	fieldTenantID     = "tenant_id"
	fieldDocumentName = "document_name"
	fieldIndex        = "chunk_index"
	fieldContent      = "content"
	fieldEmbedding    = "embedding"
	fieldTokenCount   = "token_count"
	fieldMetadata     = "metadata"
)

// buildHashFields converts a domain Chunk into a flat map[string]string for HSET.
func buildHashFields(c *domchunk.Chunk) (map[string]string, error) {
	md, err := json.Marshal(c.Metadata())
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return map[string]string{
		fieldID:           c.ID(),
		fieldDocumentID:   c.DocumentID(),
		fieldProjectID:    c.ProjectID(),
		fieldTenantID:     c.TenantID(),
		fieldDocumentName: c.DocumentName(),
		fieldIndex:        strconv.Itoa(c.Index()),
		fieldContent:      c.Content(),
		fieldEmbedding:    vectorToBytes(c.Embedding()),
		fieldTokenCount:   strconv.Itoa(c.TokenCount()),
		fieldMetadata:     string(md),
	}, nil
}

// parseHashFields converts a flat hash map back into a domain Chunk.
func parseHashFields(m map[string]string) (domchunk.Chunk, error) {
	idx, err := strconv.Atoi(m[fieldIndex])
	if err != nil {
		return domchunk.Chunk{}, fmt.Errorf("parse chunk_index: %w", err)
	}
	tokens, _ := strconv.Atoi(m[fieldTokenCount])

	vec := bytesToVector(m[fieldEmbedding])
	if vec == nil && m[fieldEmbedding] != "" {
		return domchunk.Chunk{}, fmt.Errorf("corrupt embedding: %d bytes", len(m[fieldEmbedding]))
	}

	md := map[string]any{}
	if v := m[fieldMetadata]; v != "" {
		if err := json.Unmarshal([]byte(v), &md); err != nil {
			return domchunk.Chunk{}, fmt.Errorf("parse metadata: %w", err)
		}
	}

	return domchunk.Reconstruct(m[fieldID], domchunk.Params{
		DocumentID:   m[fieldDocumentID],
		ProjectID:    m[fieldProjectID],
		TenantID:     m[fieldTenantID],
		DocumentName: m[fieldDocumentName],
		Index:        idx,
		Content:      m[fieldContent],
		Embedding:    vec,
		TokenCount:   tokens,
		Metadata:     md,
	}), nil
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
