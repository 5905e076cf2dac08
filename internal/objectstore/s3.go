// Package objectstore publishes conformed CSVs to S3-compatible storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// S3Config configures an S3Store.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store stores run outputs under <runID>/<name> in one bucket.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string

	mu          sync.Mutex
	bucketReady bool
}

// NewS3Store validates cfg and creates the client. No request is made
// until the first upload.
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

	return &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

// Bucket returns the target bucket name.
func (s *S3Store) Bucket() string {
	return s.bucketName
}

// ensureBucket creates the bucket on first use. Failures are not cached;
// the next upload checks again.
func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}
	s.bucketReady = true
	return nil
}

// PutFile uploads the local file at localPath as <runID>/<name> and
// returns the object key.
func (s *S3Store) PutFile(ctx context.Context, runID, name, localPath string) (string, error) {
	key, err := ObjectKey(runID, name)
	if err != nil {
		return "", err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	_, err = s.client.FPutObject(ctx, s.bucketName, key, localPath, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// Open streams the object stored under key. The caller closes the reader.
func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before any bytes are sent.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		code := minio.ToErrorResponse(err).Code
		if code == "NoSuchKey" || code == "NoSuchBucket" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	return obj, nil
}

// ObjectKey builds <runID>/<name>, rejecting empty parts and names that
// would climb out of the run prefix.
func ObjectKey(runID, name string) (string, error) {
	runID = strings.TrimSpace(runID)
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if runID == "" {
		return "", fmt.Errorf("run_id is required")
	}
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid object name %q", name)
		}
	}
	return runID + "/" + name, nil
}
