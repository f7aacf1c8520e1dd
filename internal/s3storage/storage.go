// Package s3storage wraps MinIO/S3 interactions for generated artifacts.
// Objects are keyed under a per-principal prefix so an account purge is a
// single prefix walk.
package s3storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Adeniyi-Bella/admina-backend/internal/config"
)

// Storage wraps a MinIO client scoped to the result bucket.
type Storage struct {
	client *minio.Client
	bucket string
	region string
}

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{
		client: client,
		bucket: cfg.ResultBucket,
		region: cfg.S3Region,
	}, nil
}

// EnsureBucket makes sure the result bucket exists before use.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// ObjectKey returns the canonical key for a principal's generated artifact.
func ObjectKey(principal, documentID string) string {
	return fmt.Sprintf("users/%s/%s", principal, documentID)
}

// UploadResult stores a generated artifact under the principal's prefix.
func (s *Storage) UploadResult(ctx context.Context, objectKey string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, int64(len(data)), opts); err != nil {
		return fmt.Errorf("upload result object: %w", err)
	}
	return nil
}

// PurgePrefix removes every object under the principal's prefix. Purging a
// prefix with no objects left is a no-op, so repeated runs are safe.
func (s *Storage) PurgePrefix(ctx context.Context, principal string) error {
	prefix := fmt.Sprintf("users/%s/", principal)
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("list objects %s: %w", prefix, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove object %s: %w", obj.Key, err)
		}
	}
	return nil
}
