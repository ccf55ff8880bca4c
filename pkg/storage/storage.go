// Package storage issues signed URLs against an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	uploadURLTTL   = 15 * time.Minute
	downloadURLTTL = 7 * 24 * time.Hour
)

// Storage is the blob store used for post images and story media
type Storage interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	URL(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
	Region    string
}

// MinioStorage implements Storage with minio-go
type MinioStorage struct {
	cfg    Config
	client *minio.Client
}

// NewMinioStorage creates the client; it does not contact the server
func NewMinioStorage(cfg Config) (*MinioStorage, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorage{cfg: cfg, client: client}, nil
}

// EnsureBucket creates the bucket when it does not exist
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
		log.Printf("Created storage bucket %q", s.cfg.Bucket)
	}
	return nil
}

// PresignUpload signs a PUT for key with Content-Type among the signed
// headers; the upload must send exactly that header
func (s *MinioStorage) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	if contentType == "" {
		return "", fmt.Errorf("presign upload: content type required")
	}
	headers := http.Header{}
	headers.Set("Content-Type", contentType)
	u, err := s.client.PresignHeader(ctx, http.MethodPut, s.cfg.Bucket, key, uploadURLTTL, nil, headers)
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	return u.String(), nil
}

// URL returns the public address of key, or a week-long signed GET when the
// bucket is not publicly served
func (s *MinioStorage) URL(ctx context.Context, key string) (string, error) {
	if s.cfg.PublicURL != "" {
		return PublicURL(s.cfg.PublicURL, s.cfg.Bucket, key), nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, key, downloadURLTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return u.String(), nil
}

func (s *MinioStorage) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{})
}

// PublicURL joins the public base, bucket and key
func PublicURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.TrimLeft(key, "/")
}

// NewUploadKey returns a fresh object key under the user's upload prefix
func NewUploadKey(userID uint) string {
	return fmt.Sprintf("%s%s", userPrefix(userID), uuid.NewString())
}

// OwnedBy reports whether key was issued to userID by NewUploadKey
func OwnedBy(key string, userID uint) bool {
	prefix := userPrefix(userID)
	return strings.HasPrefix(key, prefix) && len(key) > len(prefix) && !strings.Contains(key[len(prefix):], "/")
}

func userPrefix(userID uint) string {
	return fmt.Sprintf("uploads/%d/", userID)
}
