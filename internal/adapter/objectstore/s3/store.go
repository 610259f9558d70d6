// Package s3 stores images in an S3-compatible bucket.
package s3

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/heartmarshall/objectdetect/internal/config"
	"github.com/heartmarshall/objectdetect/internal/domain"
)

// Store is an object store backed by minio-go.
type Store struct {
	client *minio.Client
	log    *slog.Logger
}

// NewStore creates a Store for the endpoint in cfg. Static credentials are
// used when both keys are set; otherwise they come from the environment or
// the instance role.
func NewStore(cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	creds := credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
		})
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	return &Store{
		client: client,
		log:    logger.With("adapter", "s3"),
	}, nil
}

// Upload puts the file at localPath into bucket under key.
func (s *Store) Upload(ctx context.Context, localPath, bucket, key string) error {
	info, err := s.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType(key),
	})
	if err != nil {
		return fmt.Errorf("s3: upload %s/%s: %w", bucket, key, mapError(err))
	}

	s.log.DebugContext(ctx, "object uploaded",
		slog.String("bucket", bucket),
		slog.String("key", key),
		slog.Int64("size", info.Size),
	)
	return nil
}

// Download writes the object bucket/key to localPath.
// A missing object or bucket returns domain.ErrNotFound.
func (s *Store) Download(ctx context.Context, bucket, key, localPath string) error {
	if err := s.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("s3: download %s/%s: %w", bucket, key, mapError(err))
	}
	return nil
}

// Exists reports whether bucket/key is present.
func (s *Store) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("s3: stat %s/%s: %w", bucket, key, err)
}

// Ping checks that bucket is reachable.
func (s *Store) Ping(ctx context.Context, bucket string) error {
	ok, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("s3: bucket %s: %w", bucket, err)
	}
	if !ok {
		return fmt.Errorf("s3: bucket %s: %w", bucket, domain.ErrNotFound)
	}
	return nil
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	default:
		return false
	}
}

func mapError(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}

func contentType(key string) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
