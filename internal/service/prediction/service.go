// Package prediction drives one photo through the detection pipeline:
// fetch, stage, detect, parse, persist, reply.
package prediction

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/objectdetect/internal/domain"
)

// User-visible replies. None of them carries error details.
const (
	MsgFetchFailed          = "Sorry, I could not process this photo. Please try again."
	MsgUploadFailed         = "failed to upload image"
	MsgDetectionUnavailable = "failed to connect to yolo service"
	MsgDetectionIncomplete  = "the detection service could not produce a result for this photo"
	MsgMalformedResult      = "the detection service returned an unreadable result"
)

type gateway interface {
	DownloadPhoto(ctx context.Context, fileID, dir string) (domain.ImageAsset, error)
	SendText(ctx context.Context, chatID int64, text string) error
	SendTextWithQuote(ctx context.Context, chatID int64, text string, replyTo int) error
	SendPhoto(ctx context.Context, chatID int64, localPath string) error
}

type objectStore interface {
	Upload(ctx context.Context, localPath, bucket, key string) error
	Download(ctx context.Context, bucket, key, localPath string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

type detector interface {
	Detect(ctx context.Context, imageKey string) (*domain.DetectionResult, error)
}

type labelParser interface {
	Normalize(raw []domain.RawLabel) ([]domain.DetectionLabel, error)
}

type resultStore interface {
	InsertOne(ctx context.Context, s domain.PredictionSummary) (uuid.UUID, error)
}

type pipelineMetrics interface {
	ObserveStage(stage string, d time.Duration)
	RecordOutcome(state, reason string, d time.Duration, objects int)
}

// Options configures the orchestrator.
type Options struct {
	Bucket             string
	DownloadDir        string
	SendPredictedImage bool
}

// Outcome is the terminal result of one Predict call.
type Outcome struct {
	PredictionID uuid.UUID
	State        domain.PipelineState
	// Err is set when State is Failed. It wraps exactly one pipeline sentinel.
	Err error
	// Summary is set once detection output has been parsed.
	Summary *domain.PredictionSummary
	// Persisted reports whether the summary reached the result store.
	Persisted bool
}

// Service is the prediction orchestrator. It is safe for concurrent use;
// every Predict call owns its own state.
type Service struct {
	log      *slog.Logger
	gateway  gateway
	store    objectStore
	detector detector
	parser   labelParser
	results  resultStore
	metrics  pipelineMetrics
	opts     Options
	now      func() time.Time
}

// NewService creates a new prediction orchestrator. metrics may be nil.
func NewService(
	log *slog.Logger,
	gw gateway,
	store objectStore,
	det detector,
	parser labelParser,
	results resultStore,
	metrics pipelineMetrics,
	opts Options,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		log:      log.With("service", "prediction"),
		gateway:  gw,
		store:    store,
		detector: det,
		parser:   parser,
		results:  results,
		metrics:  metrics,
		opts:     opts,
		now:      time.Now,
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveStage(string, time.Duration)               {}
func (nopMetrics) RecordOutcome(string, string, time.Duration, int) {}
