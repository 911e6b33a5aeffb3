package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

func newStore(t *testing.T, prefix string) (*FS, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFS(dir, prefix)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestFS_WriteRead(t *testing.T) {
	s, dir := newStore(t, "uploads")
	ctx := context.Background()

	if err := s.Write(ctx, "proj-1/zoning.txt", []byte("Lot 4 is R-2.")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "uploads", "proj-1", "zoning.txt")); err != nil {
		t.Fatalf("blob not on disk: %v", err)
	}

	got, err := s.Read(ctx, "proj-1/zoning.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "Lot 4 is R-2." {
		t.Errorf("Read = %q", got)
	}
}

func TestFS_ReadEmptyFile(t *testing.T) {
	s, _ := newStore(t, "")
	if err := s.Write(context.Background(), "empty.txt", nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read(context.Background(), "empty.txt")
	if err != nil || len(got) != 0 {
		t.Errorf("Read = %q, %v", got, err)
	}
}

func TestFS_ReadMissing(t *testing.T) {
	s, _ := newStore(t, "")
	_, err := s.Read(context.Background(), "nope.pdf")
	if !errors.Is(err, domain.ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestFS_RejectsTraversal(t *testing.T) {
	s, _ := newStore(t, "")
	for _, loc := range []string{"../secret", "a/../../b", "", "a//b"} {
		if _, err := s.Read(context.Background(), loc); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("Read(%q): expected ErrInvalidRequest, got %v", loc, err)
		}
		if err := s.Write(context.Background(), loc, []byte("x")); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("Write(%q): expected ErrInvalidRequest, got %v", loc, err)
		}
	}
}

func TestFS_LeadingSlashIsRelative(t *testing.T) {
	s, _ := newStore(t, "")
	ctx := context.Background()
	if err := s.Write(ctx, "/docs/a.md", []byte("# A")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, err := s.Read(ctx, "docs/a.md"); err != nil || string(got) != "# A" {
		t.Errorf("Read = %q, %v", got, err)
	}
}

func TestFS_CancelledContext(t *testing.T) {
	s, _ := newStore(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Read(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
