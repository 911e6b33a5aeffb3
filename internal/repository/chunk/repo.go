// Package chunk persists embedded chunks as Redis hashes keyed by (document, index).
package chunk

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/ragcore/internal/db"
	"github.com/kailas-cloud/ragcore/internal/domain"
	domchunk "github.com/kailas-cloud/ragcore/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

// store is the consumer interface for chunks (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// DocumentLister lists a project's documents so only completed ones are served.
type DocumentLister interface {
	ListByProject(ctx context.Context, projectID string) ([]domdoc.Document, error)
}

// Repo implements the chunk storage contracts of the ingest and ask use cases.
type Repo struct {
	store  store
	docs   DocumentLister
	prefix string
}

// New creates a chunk repository. prefix must match the document repository's.
func New(s store, docs DocumentLister, prefix string) *Repo {
	return &Repo{store: s, docs: docs, prefix: prefix}
}

// Upsert writes chunks keyed by (DocumentID, Index). Rewriting an existing
// pair replaces it in place.
func (r *Repo) Upsert(ctx context.Context, chunks []domchunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(chunks))
	byDoc := make(map[string][]string)
	var order []string
	for i := range chunks {
		c := &chunks[i]
		fields, err := buildHashFields(c)
		if err != nil {
			return fmt.Errorf("encode chunk %s/%d: %w", c.DocumentID(), c.Index(), err)
		}
		items[i] = db.HashSetItem{Key: r.chunkKey(c.DocumentID(), c.Index()), Fields: fields}
		if _, ok := byDoc[c.DocumentID()]; !ok {
			order = append(order, c.DocumentID())
		}
		byDoc[c.DocumentID()] = append(byDoc[c.DocumentID()], strconv.Itoa(c.Index()))
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("write chunks: %w: %w", domain.ErrPersistence, err)
	}
	for _, docID := range order {
		if err := r.store.SAdd(ctx, r.indexKey(docID), byDoc[docID]...); err != nil {
			return fmt.Errorf("index chunks of %s: %w: %w", docID, domain.ErrPersistence, err)
		}
	}
	return nil
}

// Prune deletes the document's chunks with index >= keep. Hashes go before
// their index entries; a dangling entry is skipped by LoadCompleted.
func (r *Repo) Prune(ctx context.Context, documentID string, keep int) error {
	indexKey := r.indexKey(documentID)
	members, err := r.store.SMembers(ctx, indexKey)
	if err != nil {
		return fmt.Errorf("chunk index of %s: %w: %w", documentID, domain.ErrPersistence, err)
	}

	var stale []string
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err == nil && n < keep {
			continue
		}
		if err == nil {
			if err := r.store.Del(ctx, r.chunkKey(documentID, n)); err != nil {
				return fmt.Errorf("delete chunk %s/%d: %w: %w", documentID, n, domain.ErrPersistence, err)
			}
		}
		stale = append(stale, m)
	}
	if err := r.store.SRem(ctx, indexKey, stale...); err != nil {
		return fmt.Errorf("unindex chunks of %s: %w: %w", documentID, domain.ErrPersistence, err)
	}
	return nil
}

// LoadCompleted returns every chunk of the project's completed documents.
// Order is unspecified.
func (r *Repo) LoadCompleted(ctx context.Context, projectID string) ([]domchunk.Chunk, error) {
	docs, err := r.docs.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var keys []string
	for i := range docs {
		if docs[i].Status() != domdoc.StatusCompleted {
			continue
		}
		docID := docs[i].ID()
		indices, err := r.store.SMembers(ctx, r.indexKey(docID))
		if err != nil {
			return nil, fmt.Errorf("chunk index of %s: %w", docID, err)
		}
		for _, idx := range indices {
			n, err := strconv.Atoi(idx)
			if err != nil {
				continue
			}
			keys = append(keys, r.chunkKey(docID, n))
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	out := make([]domchunk.Chunk, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		c, err := parseHashFields(m)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Repo) chunkKey(docID string, index int) string {
	return r.prefix + "chunk:" + docID + ":" + strconv.Itoa(index)
}

func (r *Repo) indexKey(docID string) string {
	return r.prefix + "doc:" + docID + ":chunks"
}
