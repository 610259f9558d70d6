package yolo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/objectdetect/internal/config"
	"github.com/heartmarshall/objectdetect/internal/domain"
)

// fakeDetect mimics detect.py: it copies the source into {project}/{name}
// and writes two label lines.
const fakeDetect = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    --source) src="$2"; shift 2 ;;
    --project) project="$2"; shift 2 ;;
    --name) name="$2"; shift 2 ;;
    --weights|--data) shift 2 ;;
    *) shift ;;
  esac
done
out="$project/$name"
mkdir -p "$out/labels"
cp "$src" "$out/"
base=$(basename "$src")
stem="${base%.*}"
printf '0 0.5 0.5 0.2 0.4\n\n2 0.1 0.2 0.1 0.1\n' > "$out/labels/$stem.txt"
`

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireShell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not found")
	}
	return sh
}

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "detect.sh")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o700))
	return p
}

func TestRunner_Args(t *testing.T) {
	t.Parallel()

	r := NewRunner(config.YOLOConfig{
		Script:     "detect.py",
		Weights:    "yolov5s.pt",
		Data:       "data/coco128.yaml",
		ProjectDir: "static/data",
	}, newTestLogger())

	assert.Equal(t, []string{
		"detect.py",
		"--weights", "yolov5s.pt",
		"--data", "data/coco128.yaml",
		"--source", "/tmp/cat.jpg",
		"--project", "static/data",
		"--name", "abc",
		"--save-txt",
		"--exist-ok",
	}, r.Args("/tmp/cat.jpg", "abc"))
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	work := t.TempDir()
	src := filepath.Join(t.TempDir(), "cat.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg"), 0o600))

	r := NewRunner(config.YOLOConfig{
		Python:     sh,
		Script:     writeScript(t, work, fakeDetect),
		Weights:    "yolov5s.pt",
		Data:       "data/coco128.yaml",
		ProjectDir: "static/data",
		WorkDir:    work,
		RunTimeout: 10 * time.Second,
	}, newTestLogger())

	out, err := r.Run(context.Background(), src, "pred-1")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(work, "static/data", "pred-1"), out.Dir)
	assert.Equal(t, filepath.Join(out.Dir, "cat.jpg"), out.PredictedImage)
	assert.Equal(t, filepath.Join(out.Dir, "labels", "cat.txt"), out.LabelFile)
	assert.FileExists(t, out.PredictedImage)

	lines, err := ReadLabels(out.LabelFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"0 0.5 0.5 0.2 0.4", "2 0.1 0.2 0.1 0.1"}, lines)
}

func TestRunner_Run_CommandFails(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	work := t.TempDir()
	r := NewRunner(config.YOLOConfig{
		Python:     sh,
		Script:     writeScript(t, work, "#!/bin/sh\necho 'CUDA out of memory' >&2\nexit 3\n"),
		ProjectDir: "out",
		WorkDir:    work,
		RunTimeout: 10 * time.Second,
	}, newTestLogger())

	_, err := r.Run(context.Background(), "x.jpg", "pred-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CUDA out of memory")
}

func TestRunner_Run_Timeout(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	work := t.TempDir()
	r := NewRunner(config.YOLOConfig{
		Python:     sh,
		Script:     writeScript(t, work, "#!/bin/sh\nexec sleep 5\n"),
		ProjectDir: "out",
		WorkDir:    work,
		RunTimeout: 100 * time.Millisecond,
	}, newTestLogger())

	_, err := r.Run(context.Background(), "x.jpg", "pred-3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "err = %v", err)
}

func TestReadLabels_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReadLabels(filepath.Join(t.TempDir(), "labels", "none.txt"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReadLabels_EmptyFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(p, nil, 0o600))

	lines, err := ReadLabels(p)
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}
