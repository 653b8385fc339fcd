package docsystem

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"hrdocs/internal/domain"
	docsysSvc "hrdocs/internal/domain/services/docsystem"
)

// ArchiveCapability is the capability name reported when acquisition fails
const ArchiveCapability = "archive"

var errArchiveFinalized = errors.New("archive already finalized")

// zipEncoder writes deflate-compressed zip archives
type zipEncoder struct {
	now func() time.Time
}

// NewZipEncoder returns the zip archive encoder
func NewZipEncoder() docsysSvc.ArchiveEncoder {
	return &zipEncoder{now: time.Now}
}

func (e *zipEncoder) Create(w io.Writer) docsysSvc.ArchiveWriter {
	return &zipArchiveWriter{zw: zip.NewWriter(w), modified: e.now()}
}

type zipArchiveWriter struct {
	zw        *zip.Writer
	modified  time.Time
	finalized bool
}

func (a *zipArchiveWriter) AddEntry(name string, r io.Reader) error {
	if a.finalized {
		return errArchiveFinalized
	}
	entry, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: a.modified,
	})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := io.Copy(entry, r); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

func (a *zipArchiveWriter) Finalize() error {
	if a.finalized {
		return errArchiveFinalized
	}
	a.finalized = true
	return a.zw.Close()
}

// ArchiveLoader acquires an archive encoder
type ArchiveLoader func(ctx context.Context) (docsysSvc.ArchiveEncoder, error)

// NewArchiveLoader returns the loader for the built-in zip encoder.
// A disabled loader fails every acquisition.
func NewArchiveLoader(enabled bool) ArchiveLoader {
	return func(ctx context.Context) (docsysSvc.ArchiveEncoder, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !enabled {
			return nil, errors.New("archive export is disabled")
		}
		return NewZipEncoder(), nil
	}
}

// LazyArchiveProvider acquires the encoder on first use and caches it.
// A failed acquisition is not cached, so the next call retries.
type LazyArchiveProvider struct {
	mu      sync.Mutex
	load    ArchiveLoader
	encoder docsysSvc.ArchiveEncoder
	logger  *slog.Logger
}

// NewLazyArchiveProvider creates a provider around load
func NewLazyArchiveProvider(load ArchiveLoader, logger *slog.Logger) *LazyArchiveProvider {
	return &LazyArchiveProvider{load: load, logger: logger}
}

// Acquire returns the cached encoder or loads it.
// Returns domain.CapabilityUnavailableError when loading fails.
func (p *LazyArchiveProvider) Acquire(ctx context.Context) (docsysSvc.ArchiveEncoder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.encoder != nil {
		return p.encoder, nil
	}

	encoder, err := p.load(ctx)
	if err != nil {
		p.logger.Warn("archive encoder unavailable", "error", err)
		return nil, &domain.CapabilityUnavailableError{
			Capability: ArchiveCapability,
			Message:    fmt.Sprintf("folder download is unavailable: %v", err),
		}
	}
	p.encoder = encoder
	p.logger.Debug("archive encoder acquired")
	return encoder, nil
}

// entryName makes an item name safe as a single archive path segment
func entryName(name string) string {
	name = strings.TrimSpace(strings.NewReplacer("/", "_", "\\", "_").Replace(name))
	switch name {
	case "", ".", "..":
		return "_"
	}
	return name
}

// uniqueEntryName disambiguates duplicate names within one archive directory:
// "a.pdf", "a (2).pdf", "a (3).pdf"
func uniqueEntryName(used map[string]int, name string) string {
	used[name]++
	n := used[name]
	if n == 1 {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
	if _, taken := used[candidate]; taken {
		return uniqueEntryName(used, candidate)
	}
	used[candidate] = 1
	return candidate
}
