package document

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

// Hash field names.
const (
	fieldID           = "id"
	fieldProjectID    = "project_id"
	fieldTenantID     = "tenant_id"
	fieldOriginalName = "original_name"
	fieldLocator      = "locator"
	fieldMimeType     = "mime_type"
	fieldSizeBytes    = "size_bytes"
	fieldStatus       = "status"
	fieldMetadata     = "metadata"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
)

// buildHashFields converts a domain Document into a flat map[string]string for HSET.
func buildHashFields(doc *domdoc.Document) (map[string]string, error) {
	md, err := json.Marshal(doc.Metadata())
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return map[string]string{
		fieldID:           doc.ID(),
		fieldProjectID:    doc.ProjectID(),
		fieldTenantID:     doc.TenantID(),
		fieldOriginalName: doc.OriginalName(),
		fieldLocator:      doc.Locator(),
		fieldMimeType:     doc.MimeType(),
		fieldSizeBytes:    strconv.FormatInt(doc.SizeBytes(), 10),
		fieldStatus:       string(doc.Status()),
		fieldMetadata:     string(md),
		fieldCreatedAt:    doc.CreatedAt().UTC().Format(time.RFC3339Nano),
		fieldUpdatedAt:    doc.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}, nil
}

// parseHashFields converts a flat hash map back into a domain Document.
func parseHashFields(m map[string]string) (domdoc.Document, error) {
	status, err := domdoc.ParseStatus(m[fieldStatus])
	if err != nil {
		return domdoc.Document{}, err
	}

	var size int64
	if v := m[fieldSizeBytes]; v != "" {
		size, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return domdoc.Document{}, fmt.Errorf("parse size_bytes: %w", err)
		}
	}

	md := map[string]any{}
	if v := m[fieldMetadata]; v != "" {
		if err := json.Unmarshal([]byte(v), &md); err != nil {
			return domdoc.Document{}, fmt.Errorf("parse metadata: %w", err)
		}
	}

	return domdoc.Reconstruct(
		m[fieldID], m[fieldProjectID], m[fieldTenantID],
		m[fieldOriginalName], m[fieldLocator], m[fieldMimeType],
		size, status, md,
		parseTime(m[fieldCreatedAt]), parseTime(m[fieldUpdatedAt]),
	), nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
