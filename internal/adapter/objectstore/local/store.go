// Package local stores images on the local filesystem, one directory per
// bucket. Used for development and tests.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/heartmarshall/objectdetect/internal/domain"
)

// Store keeps objects under root/bucket/key.
type Store struct {
	root string
	log  *slog.Logger
}

// NewStore creates a Store rooted at root. The directory is created if missing.
func NewStore(root string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local store: create root: %w", err)
	}
	return &Store{root: root, log: logger.With("adapter", "local_store")}, nil
}

// Upload copies the file at localPath to bucket/key.
func (s *Store) Upload(ctx context.Context, localPath, bucket, key string) error {
	dst, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("local store: create bucket dir: %w", err)
	}
	if err := copyFile(ctx, localPath, dst); err != nil {
		return fmt.Errorf("local store: upload %s/%s: %w", bucket, key, err)
	}

	s.log.DebugContext(ctx, "object uploaded", slog.String("bucket", bucket), slog.String("key", key))
	return nil
}

// Download copies bucket/key to localPath.
// A missing object returns domain.ErrNotFound.
func (s *Store) Download(ctx context.Context, bucket, key, localPath string) error {
	src, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("local store: create target dir: %w", err)
	}
	if err := copyFile(ctx, src, localPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("local store: download %s/%s: %w", bucket, key, domain.ErrNotFound)
		}
		return fmt.Errorf("local store: download %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Exists reports whether bucket/key is present.
func (s *Store) Exists(_ context.Context, bucket, key string) (bool, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("local store: stat %s/%s: %w", bucket, key, err)
	}
	return info.Mode().IsRegular(), nil
}

// Ping checks that the bucket directory exists.
func (s *Store) Ping(_ context.Context, bucket string) error {
	info, err := os.Stat(filepath.Join(s.root, bucket))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("local store: bucket %s: %w", bucket, domain.ErrNotFound)
		}
		return fmt.Errorf("local store: bucket %s: %w", bucket, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("local store: bucket %s is not a directory", bucket)
	}
	return nil
}

// objectPath resolves bucket/key below root and rejects keys that escape it.
func (s *Store) objectPath(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", domain.NewValidationError("key", "bucket and key are required")
	}
	if strings.ContainsAny(bucket, `/\`) || !filepath.IsLocal(key) {
		return "", domain.NewValidationError("key", fmt.Sprintf("invalid object key %q", bucket+"/"+key))
	}
	return filepath.Join(s.root, bucket, key), nil
}

func copyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
