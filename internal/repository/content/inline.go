package content

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"strings"

	"hrdocs/internal/domain"
)

// InlineStore keeps bytes inside the ref itself as a base64 data URL.
// Suited to small documents and the in-memory dev setup.
type InlineStore struct{}

// NewInlineStore creates a data URL content store
func NewInlineStore() *InlineStore {
	return &InlineStore{}
}

// Scheme implements Backend
func (s *InlineStore) Scheme() string { return "data" }

// Put encodes the bytes into "data:<mime>;base64,<payload>"
func (s *InlineStore) Put(ctx context.Context, employeeID, name, mimeType string, src io.Reader) (string, int64, error) {
	var buf bytes.Buffer
	size, err := io.Copy(&buf, src)
	if err != nil {
		return "", 0, fmt.Errorf("read %s: %w", name, err)
	}
	return "data:" + dataURLMediaType(mimeType) + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), size, nil
}

// dataURLMediaType keeps only the media type; parameters may contain the
// comma that separates the payload
func dataURLMediaType(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "application/octet-stream"
	}
	return mediaType
}

// Open decodes a data URL; plain (non-base64) payloads are returned verbatim
func (s *InlineStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data url: %w", domain.ErrContentUnavailable)
	}
	// base64 text never contains ';' or ',', so the last marker is the real one
	if i := strings.LastIndex(rest, ";base64,"); i >= 0 {
		data, err := base64.StdEncoding.DecodeString(rest[i+len(";base64,"):])
		if err != nil {
			return nil, fmt.Errorf("decode data url: %v: %w", err, domain.ErrContentUnavailable)
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	_, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("data url without payload: %w", domain.ErrContentUnavailable)
	}
	return io.NopCloser(strings.NewReader(payload)), nil
}
