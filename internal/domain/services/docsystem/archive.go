package docsystem

import (
	"context"
	"io"
)

// ArchiveEncoder produces zip-format byte streams from named entries.
type ArchiveEncoder interface {
	Create(w io.Writer) ArchiveWriter
}

// ArchiveWriter is one archive being written.
type ArchiveWriter interface {
	// AddEntry writes the bytes of r at path (slash-separated)
	AddEntry(path string, r io.Reader) error

	// Finalize flushes the archive; no entries may be added afterwards
	Finalize() error
}

// ArchiveProvider lazily acquires the archive encoder capability.
// A failed acquisition is retried on the next call.
type ArchiveProvider interface {
	Acquire(ctx context.Context) (ArchiveEncoder, error)
}
