package postgres

import (
	"strings"
	"testing"
)

func TestMetadataRoundTrip(t *testing.T) {
	b, err := encodeMetadata(map[string]any{"chunk_count": 3, "error": "boom"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	md, err := decodeMetadata(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if md["chunk_count"] != float64(3) || md["error"] != "boom" {
		t.Errorf("unexpected metadata: %v", md)
	}
}

func TestEncodeMetadata_Nil(t *testing.T) {
	b, err := encodeMetadata(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b) != "{}" {
		t.Errorf("expected {}, got %s", b)
	}
}

func TestDecodeMetadata_Empty(t *testing.T) {
	md, err := decodeMetadata(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if md == nil || len(md) != 0 {
		t.Errorf("expected empty non-nil map, got %v", md)
	}
}

func TestDecodeMetadata_Invalid(t *testing.T) {
	if _, err := decodeMetadata([]byte("{not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestSchemaSQL(t *testing.T) {
	sql := schemaSQL(1536)
	for _, want := range []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		"embedding     vector(1536)",
		"UNIQUE (document_id, chunk_index)",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}

func TestUpsertChunkSQL_ConflictTarget(t *testing.T) {
	if !strings.Contains(upsertChunkSQL, "ON CONFLICT (document_id, chunk_index)") {
		t.Error("chunk upsert must target (document_id, chunk_index)")
	}
	if !strings.Contains(loadCompletedSQL, "d.status = $2") {
		t.Error("load must filter by document status")
	}
}
