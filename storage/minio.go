package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"tunevault/config"
	"tunevault/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// CoverStore keeps song cover art in a MinIO bucket. Audio never goes
// through here: the range streamer needs seekable local files, so media
// stays on disk under the media root.
type CoverStore struct {
	client *minio.Client
	bucket string
}

// NewCoverStore connects to MinIO and ensures the cover bucket exists.
func NewCoverStore(cfg *config.Config) (*CoverStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check cover bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create cover bucket: %w", err)
		}
		logger.Info("created cover bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &CoverStore{client: client, bucket: cfg.MinioBucket}, nil
}

// Put stores a cover image under the given object key.
func (s *CoverStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store cover %s: %w", key, err)
	}
	return nil
}

// Get opens a stored cover image for reading. The caller must close it.
func (s *CoverStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open cover %s: %w", key, err)
	}
	// GetObject is lazy; Stat forces the existence check before any bytes
	// are written to the response.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to stat cover %s: %w", key, err)
	}
	return obj, nil
}

// Remove deletes a stored cover image.
func (s *CoverStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove cover %s: %w", key, err)
	}
	return nil
}
