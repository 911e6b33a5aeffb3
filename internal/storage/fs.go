// Package storage reads and writes document blobs by opaque locator.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// FS is a blob store rooted at a local directory. Locators are slash-separated
// paths relative to the root; anything escaping it is rejected.
type FS struct {
	root   *os.Root
	prefix string
}

// NewFS opens dir (creating it if missing) as a blob store. Every locator is
// resolved under prefix when one is set.
func NewFS(dir, prefix string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open blob root: %w", err)
	}
	return &FS{root: root, prefix: strings.Trim(prefix, "/")}, nil
}

// Read returns the bytes stored at locator.
func (s *FS) Read(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", locator, domain.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("open blob %s: %w", locator, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat blob %s: %w", locator, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", locator, domain.ErrBlobNotFound)
	}

	data := make([]byte, info.Size())
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("read blob %s: %w", locator, err)
	}
	return data, nil
}

// Write stores data at locator, creating parent directories.
func (s *FS) Write(ctx context.Context, locator string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := s.resolve(locator)
	if err != nil {
		return err
	}
	if dir := path.Dir(name); dir != "." {
		if err := s.mkdirAll(dir); err != nil {
			return fmt.Errorf("create blob dir %s: %w", dir, err)
		}
	}

	f, err := s.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("create blob %s: %w", locator, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write blob %s: %w", locator, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close blob %s: %w", locator, err)
	}
	return nil
}

// Close releases the root directory handle.
func (s *FS) Close() error {
	return s.root.Close()
}

func (s *FS) resolve(locator string) (string, error) {
	clean := strings.TrimPrefix(locator, "/")
	if s.prefix != "" {
		clean = s.prefix + "/" + clean
	}
	if clean == "" || !fs.ValidPath(clean) {
		return "", fmt.Errorf("invalid blob locator %q: %w", locator, domain.ErrInvalidRequest)
	}
	return clean, nil
}

func (s *FS) mkdirAll(dir string) error {
	cur := ""
	for part := range strings.SplitSeq(dir, "/") {
		cur = path.Join(cur, part)
		if err := s.root.Mkdir(cur, 0o750); err != nil && !errors.Is(err, fs.ErrExist) {
			return err
		}
	}
	return nil
}
