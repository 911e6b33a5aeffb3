package postgres

import "fmt"

func schemaSQL(dim int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	project_id    TEXT NOT NULL,
	tenant_id     TEXT NOT NULL DEFAULT '',
	original_name TEXT NOT NULL,
	locator       TEXT NOT NULL,
	mime_type     TEXT NOT NULL DEFAULT '',
	size_bytes    BIGINT NOT NULL DEFAULT 0,
	status        TEXT NOT NULL,
	metadata      JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_project_status ON documents (project_id, status);

CREATE TABLE IF NOT EXISTS chunks (
	id            TEXT PRIMARY KEY,
	document_id   TEXT NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
	project_id    TEXT NOT NULL,
	tenant_id     TEXT NOT NULL DEFAULT '',
	document_name TEXT NOT NULL DEFAULT '',
	chunk_index   INT NOT NULL,
	content       TEXT NOT NULL,
	embedding     vector(%d) NOT NULL,
	token_count   INT NOT NULL DEFAULT 0,
	metadata      JSONB NOT NULL DEFAULT '{}',
	UNIQUE (document_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_chunks_project ON chunks (project_id);
`, dim)
}
