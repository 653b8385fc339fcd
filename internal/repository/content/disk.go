package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"hrdocs/internal/domain"
)

// DiskStore keeps bytes on the local filesystem, content-addressed per
// employee: <dir>/<employee>/<sha256>. Identical uploads share one file.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the data directory if needed
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create content directory %s: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

// Scheme implements Backend
func (s *DiskStore) Scheme() string { return "disk" }

// Dir returns the data directory
func (s *DiskStore) Dir() string { return s.dir }

// Put streams src to a temp file while hashing it, fsyncs, then renames the
// file to its content address.
func (s *DiskStore) Put(ctx context.Context, employeeID, name, mimeType string, src io.Reader) (string, int64, error) {
	employeeDir := sanitizeSegment(employeeID)
	if err := os.MkdirAll(filepath.Join(s.dir, employeeDir), 0o750); err != nil {
		return "", 0, fmt.Errorf("create employee directory: %w", err)
	}

	tmpPath := filepath.Join(s.dir, employeeDir, ".upload-"+uuid.NewString()+".tmp")
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(f, io.TeeReader(src, hasher))
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("fsync: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("close temp file: %w", err)
	}

	rel := path.Join(employeeDir, hex.EncodeToString(hasher.Sum(nil)))
	if err := os.Rename(tmpPath, filepath.Join(s.dir, filepath.FromSlash(rel))); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("rename to content address: %w", err)
	}
	return s.Scheme() + ":" + rel, size, nil
}

// Open returns the file behind a "disk:" ref
func (s *DiskStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	rel, ok := strings.CutPrefix(ref, s.Scheme()+":")
	if !ok || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return nil, fmt.Errorf("invalid disk ref %q: %w", ref, domain.ErrContentUnavailable)
	}

	f, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("content %s: %w", rel, domain.ErrContentUnavailable)
		}
		return nil, fmt.Errorf("open content %s: %w", rel, err)
	}
	return f, nil
}

// sanitizeSegment keeps employee ids usable as a single directory name
func sanitizeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" {
		return "_"
	}
	return s
}
