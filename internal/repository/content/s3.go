package content

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"hrdocs/internal/domain"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// bucketCheckTimeout bounds a single bucket existence check
const bucketCheckTimeout = 10 * time.Second

// S3Store keeps bytes in an S3-compatible bucket under <employee>/<uuid>.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string

	// bucketMu guards bucketReady; only a successful check is remembered
	bucketMu    sync.Mutex
	bucketReady bool
	checkBucket func(ctx context.Context) error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	store := &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
	}
	store.checkBucket = store.createBucketIfMissing
	return store, nil
}

// Scheme implements Backend
func (s *S3Store) Scheme() string { return "s3" }

// ensureBucket creates the bucket on first use. A failed check is retried
// by the next call; the check does not inherit the caller's cancellation.
func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.bucketMu.Lock()
	defer s.bucketMu.Unlock()
	if s.bucketReady {
		return nil
	}

	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bucketCheckTimeout)
	defer cancel()
	if err := s.checkBucket(checkCtx); err != nil {
		return err
	}
	s.bucketReady = true
	return nil
}

func (s *S3Store) createBucketIfMissing(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
}

// Put streams src into a new object
func (s *S3Store) Put(ctx context.Context, employeeID, name, mimeType string, src io.Reader) (string, int64, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", 0, fmt.Errorf("ensure bucket: %w", err)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	key := objectKey(employeeID, uuid.NewString())
	info, err := s.client.PutObject(ctx, s.bucketName, key, src, -1, minio.PutObjectOptions{
		ContentType:  mimeType,
		UserMetadata: map[string]string{"original-name": name},
	})
	if err != nil {
		return "", 0, fmt.Errorf("put object %s: %w", key, err)
	}
	return s.Scheme() + ":" + key, info.Size, nil
}

// Open returns the object behind an "s3:" ref
func (s *S3Store) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	key, ok := strings.CutPrefix(ref, s.Scheme()+":")
	if !ok || key == "" {
		return nil, fmt.Errorf("invalid s3 ref %q: %w", ref, domain.ErrContentUnavailable)
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before streaming starts
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, fmt.Errorf("object %s: %w", key, domain.ErrContentUnavailable)
		}
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	return obj, nil
}

func objectKey(employeeID, id string) string {
	return sanitizeSegment(employeeID) + "/" + id
}
