package documents

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BlobStore persists document bytes outside the database.
type BlobStore interface {
	Save(ctx context.Context, path string, r io.Reader) (int64, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}

// DiskStore keeps files under a single root directory. Paths are always
// joined against the root so callers cannot escape it.
type DiskStore struct {
	root string
}

// NewDiskStore opens a store rooted at dir, creating it if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &DiskStore{root: dir}, nil
}

func (s *DiskStore) resolve(path string) (string, error) {
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("invalid storage path %q", path)
	}
	return filepath.Join(s.root, path), nil
}

// Save writes the reader to path and returns the byte count.
func (s *DiskStore) Save(ctx context.Context, path string, r io.Reader) (int64, error) {
	full, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(full)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(full)
		return 0, err
	}
	return n, nil
}

// Open returns a reader over the stored file.
func (s *DiskStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Remove deletes the stored file. A missing file is not an error; the
// metadata row is authoritative.
func (s *DiskStore) Remove(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

var _ BlobStore = (*DiskStore)(nil)
