// Package inference implements the detector worker: it pulls a staged image
// from the object store, runs the model and returns the raw label lines.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/objectdetect/internal/adapter/yolo"
	"github.com/heartmarshall/objectdetect/internal/domain"
)

// Run results reported to metrics.
const (
	ResultOK       = "ok"
	ResultNoImage  = "no_image"
	ResultError    = "error"
	ResultNoResult = "no_result"
)

type objectStore interface {
	Download(ctx context.Context, bucket, key, localPath string) error
	Upload(ctx context.Context, localPath, bucket, key string) error
}

type modelRunner interface {
	Run(ctx context.Context, source, name string) (yolo.Output, error)
}

type inferenceMetrics interface {
	RecordRun(result string, d time.Duration, labels int)
	IncUploadErrors()
}

// Options configures the worker.
type Options struct {
	Bucket      string
	DownloadDir string
	// KeepOutputs leaves the model's output directory on disk.
	KeepOutputs bool
}

// Service is the detector worker.
type Service struct {
	log     *slog.Logger
	store   objectStore
	runner  modelRunner
	metrics inferenceMetrics
	opts    Options
	now     func() time.Time
}

// NewService creates the detector worker service. m may be nil.
func NewService(log *slog.Logger, store objectStore, runner modelRunner, m inferenceMetrics, opts Options) *Service {
	if m == nil {
		m = nopMetrics{}
	}
	return &Service{
		log:     log.With("service", "inference"),
		store:   store,
		runner:  runner,
		metrics: m,
		opts:    opts,
		now:     time.Now,
	}
}

// PredictedKey returns the object key of the annotated image for imgName:
// "cat.jpg" becomes "cat_predicted.jpg".
func PredictedKey(imgName string) string {
	ext := filepath.Ext(imgName)
	return strings.TrimSuffix(imgName, ext) + "_predicted" + ext
}

// Predict runs detection on the staged image imgName.
//
// A missing image or a run that produced no label file is reported as
// domain.ErrNotFound. A failed upload of the annotated image is logged and
// leaves PredictedImagePath empty.
func (s *Service) Predict(ctx context.Context, imgName string) (*domain.DetectionResult, error) {
	if imgName == "" {
		return nil, domain.NewValidationError("imgName", "required")
	}
	if filepath.Base(imgName) != imgName || !filepath.IsLocal(imgName) {
		return nil, domain.NewValidationError("imgName", "must be a plain file name")
	}

	start := s.now()
	id := uuid.New()
	log := s.log.With(slog.String("prediction_id", id.String()), slog.String("image", imgName))
	log.InfoContext(ctx, "start processing")

	workDir := filepath.Join(s.opts.DownloadDir, id.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("inference: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	source := filepath.Join(workDir, imgName)
	if err := s.store.Download(ctx, s.opts.Bucket, imgName, source); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.RecordRun(ResultNoImage, s.now().Sub(start), 0)
			return nil, fmt.Errorf("image %s did not exist in bucket: %w", imgName, domain.ErrNotFound)
		}
		s.metrics.RecordRun(ResultError, s.now().Sub(start), 0)
		return nil, fmt.Errorf("inference: download image: %w", err)
	}
	log.InfoContext(ctx, "download img completed")

	out, err := s.runner.Run(ctx, source, id.String())
	if err != nil {
		s.metrics.RecordRun(ResultError, s.now().Sub(start), 0)
		return nil, fmt.Errorf("inference: %w", err)
	}
	if !s.opts.KeepOutputs && out.Dir != "" {
		defer os.RemoveAll(out.Dir)
	}
	log.InfoContext(ctx, "detection done")

	predictedKey := PredictedKey(imgName)
	if err := s.store.Upload(ctx, out.PredictedImage, s.opts.Bucket, predictedKey); err != nil {
		s.metrics.IncUploadErrors()
		log.ErrorContext(ctx, "failed uploading predicted image",
			slog.String("key", predictedKey),
			slog.String("error", err.Error()),
		)
		predictedKey = ""
	}

	lines, err := yolo.ReadLabels(out.LabelFile)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.RecordRun(ResultNoResult, s.now().Sub(start), 0)
			return nil, fmt.Errorf("prediction %s: prediction result not found: %w", id, domain.ErrNotFound)
		}
		s.metrics.RecordRun(ResultError, s.now().Sub(start), 0)
		return nil, fmt.Errorf("inference: %w", err)
	}

	raw := make([]domain.RawLabel, 0, len(lines))
	for _, l := range lines {
		raw = append(raw, domain.RawLabel{Line: l})
	}

	s.metrics.RecordRun(ResultOK, s.now().Sub(start), len(raw))
	log.InfoContext(ctx, "prediction summary ready", slog.Int("labels", len(raw)))

	return &domain.DetectionResult{
		PredictionID:       id.String(),
		OriginalImagePath:  imgName,
		PredictedImagePath: predictedKey,
		Labels:             raw,
		Time:               domain.EpochSeconds(s.now()),
	}, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(string, time.Duration, int) {}
func (nopMetrics) IncUploadErrors()                     {}
