package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domchunk "github.com/kailas-cloud/ragcore/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

const upsertChunkSQL = `INSERT INTO chunks (id, document_id, project_id, tenant_id,
		document_name, chunk_index, content, embedding, token_count, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (document_id, chunk_index) DO UPDATE SET
		document_name = EXCLUDED.document_name,
		content = EXCLUDED.content,
		embedding = EXCLUDED.embedding,
		token_count = EXCLUDED.token_count,
		metadata = EXCLUDED.metadata`

const loadCompletedSQL = `SELECT c.id, c.document_id, c.project_id, c.tenant_id,
		c.document_name, c.chunk_index, c.content, c.embedding, c.token_count, c.metadata
	FROM chunks c
	JOIN documents d ON d.id = c.document_id
	WHERE d.project_id = $1 AND d.status = $2`

const pruneChunksSQL = `DELETE FROM chunks WHERE document_id = $1 AND chunk_index >= $2`

// ChunkRepo implements the chunk storage contracts on PostgreSQL.
type ChunkRepo struct {
	q querier
}

// Upsert writes chunks keyed by (document_id, chunk_index) in one batch.
func (r *ChunkRepo) Upsert(ctx context.Context, chunks []domchunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for i := range chunks {
		c := &chunks[i]
		md, err := encodeMetadata(c.Metadata())
		if err != nil {
			return fmt.Errorf("encode chunk %s/%d: %w", c.DocumentID(), c.Index(), err)
		}
		b.Queue(upsertChunkSQL,
			c.ID(), c.DocumentID(), c.ProjectID(), c.TenantID(), c.DocumentName(),
			c.Index(), c.Content(), pgvector.NewVector(c.Embedding()), c.TokenCount(), md,
		)
	}

	br := r.q.SendBatch(ctx, b)
	for i := range chunks {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("upsert chunk %d: %w: %w", chunks[i].Index(), domain.ErrPersistence, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("upsert chunks: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// Prune deletes the document's chunks with chunk_index >= keep.
func (r *ChunkRepo) Prune(ctx context.Context, documentID string, keep int) error {
	if _, err := r.q.Exec(ctx, pruneChunksSQL, documentID, keep); err != nil {
		return fmt.Errorf("prune chunks of %s: %w: %w", documentID, domain.ErrPersistence, err)
	}
	return nil
}

// LoadCompleted returns every chunk of the project's completed documents.
func (r *ChunkRepo) LoadCompleted(ctx context.Context, projectID string) ([]domchunk.Chunk, error) {
	rows, err := r.q.Query(ctx, loadCompletedSQL, projectID, string(domdoc.StatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("load chunks of %s: %w", projectID, err)
	}
	defer rows.Close()

	var out []domchunk.Chunk
	for rows.Next() {
		var (
			id  string
			p   domchunk.Params
			vec pgvector.Vector
			md  []byte
		)
		if err := rows.Scan(&id, &p.DocumentID, &p.ProjectID, &p.TenantID, &p.DocumentName,
			&p.Index, &p.Content, &vec, &p.TokenCount, &md); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if p.Metadata, err = decodeMetadata(md); err != nil {
			return nil, err
		}
		p.Embedding = vec.Slice()
		out = append(out, domchunk.Reconstruct(id, p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load chunks of %s: %w", projectID, err)
	}
	return out, nil
}
