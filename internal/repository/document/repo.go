// Package document persists documents as Redis hashes with a per-project index set.
package document

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo implements the document storage contracts of the ingest and ask use cases.
type Repo struct {
	store  store
	prefix string
}

// New creates a document repository. prefix namespaces every key.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Save creates or overwrites a document and indexes it under its project.
func (r *Repo) Save(ctx context.Context, doc *domdoc.Document) error {
	fields, err := buildHashFields(doc)
	if err != nil {
		return err
	}
	key := r.docKey(doc.ID())
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w: %w", key, domain.ErrPersistence, err)
	}
	if err := r.store.SAdd(ctx, r.projectKey(doc.ProjectID()), doc.ID()); err != nil {
		return fmt.Errorf("index document %s: %w: %w", doc.ID(), domain.ErrPersistence, err)
	}
	return nil
}

// Get returns a document of the project by ID.
func (r *Repo) Get(ctx context.Context, projectID, id string) (domdoc.Document, error) {
	key := r.docKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 || m[fieldProjectID] != projectID {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	doc, err := parseHashFields(m)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc, nil
}

// ListByProject returns every document indexed under the project.
// Index entries whose hash has disappeared are skipped.
func (r *Repo) ListByProject(ctx context.Context, projectID string) ([]domdoc.Document, error) {
	ids, err := r.store.SMembers(ctx, r.projectKey(projectID))
	if err != nil {
		return nil, fmt.Errorf("list project %s: %w", projectID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load project %s documents: %w", projectID, err)
	}

	docs := make([]domdoc.Document, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		doc, err := parseHashFields(m)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *Repo) docKey(id string) string {
	return r.prefix + "doc:" + id
}

func (r *Repo) projectKey(projectID string) string {
	return r.prefix + "project:" + projectID + ":docs"
}
