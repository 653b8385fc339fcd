package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hrdocs/internal/domain"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func TestInlineStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInlineStore()

	ref, size, err := store.Put(ctx, "emp-1", "note.txt", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if size != 5 {
		t.Errorf("size = %d, want 5", size)
	}
	if !strings.HasPrefix(ref, "data:text/plain;base64,") {
		t.Errorf("unexpected ref %q", ref)
	}

	rc, err := store.Open(ctx, ref)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := readAll(t, rc); got != "hello" {
		t.Errorf("content = %q, want hello", got)
	}
}

func TestInlineStore_MimeParametersDoNotShiftPayload(t *testing.T) {
	ctx := context.Background()
	store := NewInlineStore()

	tests := []struct {
		mimeType string
		wantRef  string
	}{
		{`text/plain; x="a,b"`, "data:text/plain;base64,"},
		{"text/plain; charset=utf-8", "data:text/plain;base64,"},
		{"", "data:application/octet-stream;base64,"},
		{"not a mime type,", "data:application/octet-stream;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			ref, _, err := store.Put(ctx, "emp-1", "note.txt", tt.mimeType, strings.NewReader("hello"))
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if !strings.HasPrefix(ref, tt.wantRef) {
				t.Errorf("ref = %q, want prefix %q", ref, tt.wantRef)
			}
			rc, err := store.Open(ctx, ref)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if got := readAll(t, rc); got != "hello" {
				t.Errorf("content = %q, want hello", got)
			}
		})
	}

	// refs written with a comma in the media type still open
	rc, err := store.Open(ctx, `data:text/plain; x="a,b";base64,aGVsbG8=`)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := readAll(t, rc); got != "hello" {
		t.Errorf("content = %q, want hello", got)
	}
}

func TestInlineStore_OpenInvalid(t *testing.T) {
	store := NewInlineStore()
	for _, ref := range []string{"", "disk:abc", "data:text/plain;base64", "data:;base64,!!!"} {
		if _, err := store.Open(context.Background(), ref); !errors.Is(err, domain.ErrContentUnavailable) {
			t.Errorf("Open(%q) error = %v, want ErrContentUnavailable", ref, err)
		}
	}

	rc, err := store.Open(context.Background(), "data:text/plain,plain%20text")
	if err != nil {
		t.Fatalf("plain data url should open: %v", err)
	}
	if got := readAll(t, rc); got != "plain%20text" {
		t.Errorf("got %q", got)
	}
}

func TestDiskStore_PutOpen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "content")
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}

	body := "quarterly review"
	ref, size, err := store.Put(ctx, "emp/../1", "review.pdf", "application/pdf", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if size != int64(len(body)) {
		t.Errorf("size = %d, want %d", size, len(body))
	}

	sum := sha256.Sum256([]byte(body))
	wantRef := "disk:emp____1/" + hex.EncodeToString(sum[:])
	if ref != wantRef {
		t.Errorf("ref = %q, want %q", ref, wantRef)
	}

	rc, err := store.Open(ctx, ref)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := readAll(t, rc); got != body {
		t.Errorf("content = %q", got)
	}

	// no temp files left behind
	matches, _ := filepath.Glob(filepath.Join(dir, "*", "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left: %v", matches)
	}
}

func TestDiskStore_SameBytesShareAddress(t *testing.T) {
	ctx := context.Background()
	store, _ := NewDiskStore(t.TempDir())

	a, _, err := store.Put(ctx, "emp-1", "a.txt", "", strings.NewReader("same"))
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := store.Put(ctx, "emp-1", "b.txt", "", strings.NewReader("same"))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("identical content should share a ref: %q vs %q", a, b)
	}
}

func TestDiskStore_OpenMissingOrEscaping(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, _ := NewDiskStore(dir)

	// a file outside the store that an escaping ref would reach
	outside := filepath.Join(filepath.Dir(dir), "secret")
	os.WriteFile(outside, []byte("x"), 0o600)
	defer os.Remove(outside)

	for _, ref := range []string{"disk:emp-1/missing", "disk:../secret", "s3:emp-1/x"} {
		if _, err := store.Open(ctx, ref); !errors.Is(err, domain.ErrContentUnavailable) {
			t.Errorf("Open(%q) error = %v, want ErrContentUnavailable", ref, err)
		}
	}
}

func TestRouter_DispatchesByScheme(t *testing.T) {
	ctx := context.Background()
	disk, _ := NewDiskStore(t.TempDir())
	router := NewRouter(disk, NewInlineStore())

	ref, _, err := router.Put(ctx, "emp-1", "x.txt", "text/plain", strings.NewReader("on disk"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(ref, "disk:") {
		t.Errorf("primary backend should receive writes, got %q", ref)
	}

	rc, err := router.Open(ctx, "data:text/plain;base64,aW5saW5l")
	if err != nil {
		t.Fatalf("Open(data:) error = %v", err)
	}
	if got := readAll(t, rc); got != "inline" {
		t.Errorf("got %q", got)
	}

	for _, ref := range []string{"s3:emp-1/x", "no-scheme"} {
		if _, err := router.Open(ctx, ref); !errors.Is(err, domain.ErrContentUnavailable) {
			t.Errorf("Open(%q) error = %v, want ErrContentUnavailable", ref, err)
		}
	}
}

func TestNewS3Store_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
	}{
		{"missing endpoint", S3Config{AccessKey: "a", SecretKey: "s", Bucket: "b"}},
		{"missing keys", S3Config{Endpoint: "localhost:9000", Bucket: "b"}},
		{"missing bucket", S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewS3Store(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}

	store, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"})
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}
	if store.region != "us-east-1" {
		t.Errorf("default region = %q", store.region)
	}
	if _, err := store.Open(context.Background(), "disk:x"); !errors.Is(err, domain.ErrContentUnavailable) {
		t.Errorf("foreign ref should be unavailable, got %v", err)
	}
}

func TestS3Store_BucketCheckRetriesAfterFailure(t *testing.T) {
	store, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"})
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}

	calls := 0
	store.checkBucket = func(ctx context.Context) error {
		calls++
		if err := ctx.Err(); err != nil {
			return err
		}
		if calls == 1 {
			return errors.New("connection reset")
		}
		return nil
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.ensureBucket(cancelled); err == nil {
		t.Fatal("first check should fail")
	}
	if err := store.ensureBucket(cancelled); err != nil {
		t.Fatalf("second check should run despite the cancelled caller, got %v", err)
	}
	if err := store.ensureBucket(context.Background()); err != nil {
		t.Fatalf("ready bucket should not be rechecked, got %v", err)
	}
	if calls != 2 {
		t.Errorf("bucket checked %d times, want 2", calls)
	}
}
