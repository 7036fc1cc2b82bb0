// Package storage provides blob storage for uploaded SWMS documents.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore persists uploaded document content. The metadata row in
// swms_documents references blobs by key.
type BlobStore interface {
	// Put writes the reader's content under key and returns the number
	// of bytes stored. An existing blob with the same key is overwritten.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open returns the blob content for reading. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// DiskStore is a BlobStore backed by a local directory. Keys map to file
// paths below the base directory; key segments are validated so a crafted
// key cannot escape it.
type DiskStore struct {
	baseDir string
}

// NewDiskStore creates the base directory if needed and returns a store
// rooted there.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	path, err := s.resolve(key)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create blob directory: %w", err)
	}

	// write to a temp file first so a partial upload never shows up
	// under the final key
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write blob: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("failed to finalize blob: %w", err)
	}

	return n, nil
}

func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	return f, nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// resolve maps a key to an absolute path under baseDir, rejecting empty,
// absolute and traversal-carrying keys.
func (s *DiskStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty blob key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid blob key: %s", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("invalid blob key: %s", key)
		}
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(key)), nil
}

var _ BlobStore = (*DiskStore)(nil)
