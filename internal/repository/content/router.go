// Package content implements ContentStore backends. Refs carry a scheme
// prefix ("data:", "disk:", "s3:") so a Router can open refs written by any
// configured backend while new uploads go to the primary one.
package content

import (
	"context"
	"fmt"
	"io"
	"strings"

	"hrdocs/internal/domain"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
)

// Backend is a ContentStore whose refs start with "<Scheme()>:".
type Backend interface {
	docsysRepo.ContentStore
	Scheme() string
}

// Router writes to the primary backend and opens refs by scheme.
type Router struct {
	primary  Backend
	byScheme map[string]Backend
}

// NewRouter creates a router; readers are extra backends consulted only by Open.
func NewRouter(primary Backend, readers ...Backend) *Router {
	r := &Router{
		primary:  primary,
		byScheme: map[string]Backend{primary.Scheme(): primary},
	}
	for _, b := range readers {
		if _, exists := r.byScheme[b.Scheme()]; !exists {
			r.byScheme[b.Scheme()] = b
		}
	}
	return r
}

var _ docsysRepo.ContentStore = (*Router)(nil)

// Put stores the bytes in the primary backend
func (r *Router) Put(ctx context.Context, employeeID, name, mimeType string, src io.Reader) (string, int64, error) {
	return r.primary.Put(ctx, employeeID, name, mimeType, src)
}

// Open dispatches on the ref scheme
func (r *Router) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	scheme, _, ok := strings.Cut(ref, ":")
	if !ok {
		return nil, fmt.Errorf("malformed content ref: %w", domain.ErrContentUnavailable)
	}
	backend, ok := r.byScheme[scheme]
	if !ok {
		return nil, fmt.Errorf("no backend for %q refs: %w", scheme, domain.ErrContentUnavailable)
	}
	return backend.Open(ctx, ref)
}
