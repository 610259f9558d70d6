package local

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/objectdetect/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "buckets"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestStore_UploadDownloadRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	src := writeFile(t, "jpeg bytes")

	require.NoError(t, s.Upload(ctx, src, "photos", "cat.jpg"))

	ok, err := s.Exists(ctx, "photos", "cat.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	dst := filepath.Join(t.TempDir(), "nested", "cat.jpg")
	require.NoError(t, s.Download(ctx, "photos", "cat.jpg", dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(got))
	assert.NoError(t, s.Ping(ctx, "photos"))
}

func TestStore_UploadOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Upload(ctx, writeFile(t, "v1"), "photos", "cat.jpg"))
	require.NoError(t, s.Upload(ctx, writeFile(t, "v2"), "photos", "cat.jpg"))

	dst := filepath.Join(t.TempDir(), "out.jpg")
	require.NoError(t, s.Download(ctx, "photos", "cat.jpg", dst))
	got, _ := os.ReadFile(dst)
	assert.Equal(t, "v2", string(got))
}

func TestStore_Missing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	ok, err := s.Exists(ctx, "photos", "nope.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.Download(ctx, "photos", "nope.jpg", filepath.Join(t.TempDir(), "out.jpg"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, s.Ping(ctx, "photos"), domain.ErrNotFound)
}

func TestStore_RejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	src := writeFile(t, "x")

	for _, key := range []string{"../evil.jpg", "/etc/passwd", ""} {
		err := s.Upload(ctx, src, "photos", key)
		assert.ErrorIs(t, err, domain.ErrValidation, "key %q", key)
	}
	assert.ErrorIs(t, s.Upload(ctx, src, "a/b", "x.jpg"), domain.ErrValidation)
}

func TestStore_UploadMissingSource(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	err := s.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"), "photos", "nope.jpg")
	assert.Error(t, err)

	ok, _ := s.Exists(context.Background(), "photos", "nope.jpg")
	assert.False(t, ok)
}
