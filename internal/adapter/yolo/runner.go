// Package yolo runs the external YOLOv5 detect command and reads the
// label files it writes.
package yolo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/heartmarshall/objectdetect/internal/config"
	"github.com/heartmarshall/objectdetect/internal/domain"
)

// maxOutputTail bounds how much of the command's output ends up in errors.
const maxOutputTail = 2048

// Output locates the files written by one run.
type Output struct {
	// Dir is {project}/{name}.
	Dir string
	// PredictedImage is the annotated copy of the source image.
	PredictedImage string
	// LabelFile holds one "classIndex cx cy w h" line per object.
	LabelFile string
}

// Runner executes detect.py as a child process.
type Runner struct {
	cfg config.YOLOConfig
	log *slog.Logger
}

// NewRunner creates a Runner for cfg.
func NewRunner(cfg config.YOLOConfig, logger *slog.Logger) *Runner {
	return &Runner{
		cfg: cfg,
		log: logger.With("adapter", "yolo"),
	}
}

// Args returns the command line for one run, without the interpreter.
func (r *Runner) Args(source, name string) []string {
	return []string{
		r.cfg.Script,
		"--weights", r.cfg.Weights,
		"--data", r.cfg.Data,
		"--source", source,
		"--project", r.cfg.ProjectDir,
		"--name", name,
		"--save-txt",
		"--exist-ok",
	}
}

// Run detects objects in source and writes the results under
// {project}/{name}. The call is bounded by the configured run timeout.
func (r *Runner) Run(ctx context.Context, source, name string) (Output, error) {
	if r.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RunTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.cfg.Python, r.Args(source, name)...)
	cmd.Dir = r.cfg.WorkDir
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return Output{}, fmt.Errorf("yolo: run %s: %w: %s", name, err, tail(out))
	}

	r.log.DebugContext(ctx, "detect finished",
		slog.String("name", name),
		slog.Duration("took", time.Since(start)),
	)

	return r.output(source, name), nil
}

func (r *Runner) output(source, name string) Output {
	dir := filepath.Join(r.cfg.ProjectDir, name)
	if !filepath.IsAbs(dir) && r.cfg.WorkDir != "" {
		dir = filepath.Join(r.cfg.WorkDir, dir)
	}

	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return Output{
		Dir:            dir,
		PredictedImage: filepath.Join(dir, base),
		LabelFile:      filepath.Join(dir, "labels", stem+".txt"),
	}
}

// ReadLabels returns the non-blank lines of the label file. A missing file
// means the model found nothing it could write and yields domain.ErrNotFound.
func ReadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("label file %s: %w", filepath.Base(path), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("open label file: %w", err)
	}
	defer f.Close()

	lines := []string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read label file: %w", err)
	}
	return lines, nil
}

func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > maxOutputTail {
		s = "..." + s[len(s)-maxOutputTail:]
	}
	return s
}
