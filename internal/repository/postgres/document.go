package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

const documentColumns = `id, project_id, tenant_id, original_name, locator, mime_type,
	size_bytes, status, metadata, created_at, updated_at`

const upsertDocumentSQL = `INSERT INTO documents (` + documentColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		original_name = EXCLUDED.original_name,
		locator = EXCLUDED.locator,
		mime_type = EXCLUDED.mime_type,
		size_bytes = EXCLUDED.size_bytes,
		status = EXCLUDED.status,
		metadata = EXCLUDED.metadata,
		updated_at = EXCLUDED.updated_at`

// DocumentRepo implements the document storage contracts on PostgreSQL.
type DocumentRepo struct {
	q querier
}

// Save creates or overwrites a document.
func (r *DocumentRepo) Save(ctx context.Context, doc *domdoc.Document) error {
	md, err := encodeMetadata(doc.Metadata())
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, upsertDocumentSQL,
		doc.ID(), doc.ProjectID(), doc.TenantID(), doc.OriginalName(), doc.Locator(),
		doc.MimeType(), doc.SizeBytes(), string(doc.Status()), md,
		doc.CreatedAt(), doc.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save document %s: %w: %w", doc.ID(), domain.ErrPersistence, err)
	}
	return nil
}

// Get returns a document of the project by ID.
func (r *DocumentRepo) Get(ctx context.Context, projectID, id string) (domdoc.Document, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND project_id = $2`,
		id, projectID)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

// ListByProject returns every document of the project, oldest first.
func (r *DocumentRepo) ListByProject(ctx context.Context, projectID string) ([]domdoc.Document, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE project_id = $1 ORDER BY created_at, id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list project %s: %w", projectID, err)
	}
	defer rows.Close()

	var docs []domdoc.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list project %s: %w", projectID, err)
	}
	return docs, nil
}

func scanDocument(row pgx.Row) (domdoc.Document, error) {
	var (
		id, projectID, tenantID, name, locator, mimeType, status string
		size                                                     int64
		md                                                       []byte
		createdAt, updatedAt                                     time.Time
	)
	if err := row.Scan(&id, &projectID, &tenantID, &name, &locator, &mimeType,
		&size, &status, &md, &createdAt, &updatedAt); err != nil {
		return domdoc.Document{}, err
	}
	st, err := domdoc.ParseStatus(status)
	if err != nil {
		return domdoc.Document{}, err
	}
	meta, err := decodeMetadata(md)
	if err != nil {
		return domdoc.Document{}, err
	}
	return domdoc.Reconstruct(id, projectID, tenantID, name, locator, mimeType,
		size, st, meta, createdAt.UTC(), updatedAt.UTC()), nil
}
