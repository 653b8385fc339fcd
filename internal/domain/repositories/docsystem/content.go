package docsystem

import (
	"context"
	"io"
)

// ContentStore holds file bytes behind opaque, write-once content refs.
// Refs are shared by pasted copies, so the explorer never deletes content.
type ContentStore interface {
	// Put stores the bytes read from r and returns the ref and byte count
	Put(ctx context.Context, employeeID, name, mimeType string, r io.Reader) (ref string, size int64, err error)

	// Open returns the bytes behind ref.
	// Returns domain.ErrContentUnavailable when the ref resolves to nothing.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}
