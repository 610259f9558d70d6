package domain

import (
	"time"

	"github.com/google/uuid"
)

// DetectionLabel is one detected object. Geometry is normalized to [0,1]
// relative to the image dimensions.
type DetectionLabel struct {
	Class   string  `json:"class"`
	CenterX float64 `json:"cx"`
	CenterY float64 `json:"cy"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// ClassCount is the number of occurrences of one class in a prediction.
type ClassCount struct {
	Class string
	Count int
}

// ImageAsset is a photo fetched from the messaging gateway.
// Key is the object store key the image is staged under.
type ImageAsset struct {
	Name      string
	LocalPath string
	Key       string
}

// PredictionSummary is the durable record of one completed detection request.
// It is never mutated after creation.
type PredictionSummary struct {
	PredictionID       uuid.UUID
	ChatID             int64
	OriginalImagePath  string
	PredictedImagePath string
	Labels             []DetectionLabel
	// Timestamp is seconds since the Unix epoch.
	Timestamp float64
}

// PredictedAt returns Timestamp as a time.Time in UTC.
func (s PredictionSummary) PredictedAt() time.Time {
	sec := int64(s.Timestamp)
	nsec := int64((s.Timestamp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

// EpochSeconds converts t into fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// PipelineState is a state of the per-request prediction state machine.
type PipelineState string

const (
	StateReceived         PipelineState = "received"
	StateImageFetched     PipelineState = "image_fetched"
	StateImageStaged      PipelineState = "image_staged"
	StateDetectionInvoked PipelineState = "detection_invoked"
	StateDetectionParsed  PipelineState = "detection_parsed"
	StateResultPersisted  PipelineState = "result_persisted"
	StateReplied          PipelineState = "replied"
	StateFailed           PipelineState = "failed"
)

// IsTerminal reports whether no further transition is possible from s.
func (s PipelineState) IsTerminal() bool {
	return s == StateReplied || s == StateFailed
}
