package prediction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/heartmarshall/objectdetect/internal/domain"
	"github.com/heartmarshall/objectdetect/internal/summary"
	"github.com/heartmarshall/objectdetect/pkg/ctxutil"
)

// Stage names reported to metrics.
const (
	stageFetch   = "fetch"
	stageStage   = "stage"
	stageDetect  = "detect"
	stageParse   = "parse"
	stagePersist = "persist"
	stageReply   = "reply"
)

// request carries the mutable state of one Predict call.
type request struct {
	ev  domain.InboundEvent
	log *slog.Logger
	out Outcome
}

// Predict runs ev through the pipeline until it reaches Replied or Failed.
// Every stage is attempted once. Failures that the user must know about
// are answered in the same chat; a result store failure is only logged.
func (s *Service) Predict(ctx context.Context, ev domain.InboundEvent) Outcome {
	started := s.now()

	id := uuid.New()
	ctx = ctxutil.WithPredictionID(ctx, id)
	ctx = ctxutil.WithChatID(ctx, ev.ChatID)

	r := &request{
		ev: ev,
		log: s.log.With(
			slog.String("prediction_id", id.String()),
			slog.Int64("chat_id", ev.ChatID),
		),
		out: Outcome{PredictionID: id, State: domain.StateReceived},
	}
	r.log.InfoContext(ctx, "prediction started",
		slog.String("state", string(domain.StateReceived)),
		slog.Int("message_id", ev.MessageID),
	)

	s.run(ctx, r)

	objects := 0
	if r.out.Summary != nil {
		objects = len(r.out.Summary.Labels)
	}
	s.metrics.RecordOutcome(string(r.out.State), reasonLabel(r.out.Err), s.now().Sub(started), objects)

	return r.out
}

func (s *Service) run(ctx context.Context, r *request) {
	chatID := r.ev.ChatID

	photo, ok := r.ev.LargestPhoto()
	if !ok {
		s.fail(ctx, r, domain.ErrFetch, domain.NewValidationError("photo", "required"), MsgFetchFailed)
		return
	}

	// Received -> ImageFetched
	t := s.now()
	asset, err := s.gateway.DownloadPhoto(ctx, photo.FileID, s.opts.DownloadDir)
	s.metrics.ObserveStage(stageFetch, s.now().Sub(t))
	if err != nil {
		s.fail(ctx, r, domain.ErrFetch, err, MsgFetchFailed)
		return
	}
	defer s.removeLocal(ctx, r.log, asset.LocalPath)
	asset.Key = asset.Name
	s.transition(ctx, r, domain.StateImageFetched, slog.String("image", asset.Name))

	// ImageFetched -> ImageStaged
	t = s.now()
	err = s.store.Upload(ctx, asset.LocalPath, s.opts.Bucket, asset.Key)
	s.metrics.ObserveStage(stageStage, s.now().Sub(t))
	if err != nil {
		r.log.WarnContext(ctx, "upload image failed",
			slog.String("key", asset.Key),
			slog.String("error", err.Error()),
		)
		s.reply(ctx, r, MsgUploadFailed)

		exists, exErr := s.store.Exists(ctx, s.opts.Bucket, asset.Key)
		if exErr != nil || !exists {
			if exErr != nil {
				err = errors.Join(err, exErr)
			}
			s.fail(ctx, r, domain.ErrStage, err, "")
			return
		}
		r.log.InfoContext(ctx, "using previously staged image", slog.String("key", asset.Key))
	}
	s.transition(ctx, r, domain.StateImageStaged, slog.String("key", asset.Key))

	// ImageStaged -> DetectionInvoked -> DetectionParsed
	s.transition(ctx, r, domain.StateDetectionInvoked)
	t = s.now()
	result, err := s.detector.Detect(ctx, asset.Key)
	s.metrics.ObserveStage(stageDetect, s.now().Sub(t))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDetectionIncomplete):
			s.fail(ctx, r, domain.ErrDetectionIncomplete, err, MsgDetectionIncomplete)
		case errors.Is(err, domain.ErrMalformedLabelLine):
			s.fail(ctx, r, domain.ErrMalformedLabelLine, err, MsgMalformedResult)
		default:
			s.fail(ctx, r, domain.ErrDetectionUnavailable, err, MsgDetectionUnavailable)
		}
		return
	}

	t = s.now()
	labels, err := s.parser.Normalize(result.Labels)
	s.metrics.ObserveStage(stageParse, s.now().Sub(t))
	if err != nil {
		s.fail(ctx, r, domain.ErrMalformedLabelLine, err, MsgMalformedResult)
		return
	}

	sum := s.buildSummary(r, asset, result, labels)
	r.out.Summary = &sum
	s.transition(ctx, r, domain.StateDetectionParsed, slog.Int("objects", len(labels)))

	// DetectionParsed -> ResultPersisted
	t = s.now()
	if _, err := s.results.InsertOne(ctx, sum); err != nil {
		r.log.ErrorContext(ctx, "persist prediction failed",
			slog.String("error", fmt.Errorf("%w: %w", domain.ErrPersist, err).Error()),
		)
	} else {
		r.out.Persisted = true
	}
	s.metrics.ObserveStage(stagePersist, s.now().Sub(t))
	s.transition(ctx, r, domain.StateResultPersisted, slog.Bool("persisted", r.out.Persisted))

	// ResultPersisted -> Replied
	t = s.now()
	err = s.gateway.SendTextWithQuote(ctx, chatID, summary.Summarize(labels), r.ev.MessageID)
	s.metrics.ObserveStage(stageReply, s.now().Sub(t))
	if err != nil {
		s.fail(ctx, r, domain.ErrReply, err, "")
		return
	}
	s.transition(ctx, r, domain.StateReplied)

	if s.opts.SendPredictedImage && result.PredictedImagePath != "" {
		s.sendPredictedImage(ctx, r, result.PredictedImagePath)
	}
}

func (s *Service) buildSummary(
	r *request,
	asset domain.ImageAsset,
	result *domain.DetectionResult,
	labels []domain.DetectionLabel,
) domain.PredictionSummary {
	original := result.OriginalImagePath
	if original == "" {
		original = asset.Key
	}
	ts := result.Time
	if ts <= 0 {
		ts = domain.EpochSeconds(s.now())
	}
	return domain.PredictionSummary{
		PredictionID:       r.out.PredictionID,
		ChatID:             r.ev.ChatID,
		OriginalImagePath:  original,
		PredictedImagePath: result.PredictedImagePath,
		Labels:             labels,
		Timestamp:          ts,
	}
}

// sendPredictedImage forwards the annotated image. Failures are logged only;
// the summary has already been delivered.
func (s *Service) sendPredictedImage(ctx context.Context, r *request, key string) {
	local := filepath.Join(s.opts.DownloadDir, r.out.PredictionID.String()+"_"+filepath.Base(key))
	if err := s.store.Download(ctx, s.opts.Bucket, key, local); err != nil {
		r.log.WarnContext(ctx, "download predicted image failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	defer s.removeLocal(ctx, r.log, local)

	if err := s.gateway.SendPhoto(ctx, r.ev.ChatID, local); err != nil {
		r.log.WarnContext(ctx, "send predicted image failed", slog.String("error", err.Error()))
	}
}

func (s *Service) transition(ctx context.Context, r *request, state domain.PipelineState, attrs ...any) {
	r.out.State = state
	args := append([]any{slog.String("state", string(state))}, attrs...)
	r.log.InfoContext(ctx, "prediction state changed", args...)
}

// fail moves r to Failed. reason is the pipeline sentinel; reply, when not
// empty, is sent to the chat.
func (s *Service) fail(ctx context.Context, r *request, reason, cause error, reply string) {
	r.out.State = domain.StateFailed
	r.out.Err = wrapReason(reason, cause)

	r.log.WarnContext(ctx, "prediction failed",
		slog.String("state", string(domain.StateFailed)),
		slog.String("reason", reasonLabel(reason)),
		slog.String("error", r.out.Err.Error()),
	)

	if reply != "" {
		s.reply(ctx, r, reply)
	}
}

func (s *Service) reply(ctx context.Context, r *request, text string) {
	if err := s.gateway.SendText(ctx, r.ev.ChatID, text); err != nil {
		r.log.ErrorContext(ctx, "send reply failed", slog.String("error", err.Error()))
	}
}

func (s *Service) removeLocal(ctx context.Context, log *slog.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WarnContext(ctx, "remove local image failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

func wrapReason(reason, cause error) error {
	if cause == nil {
		return reason
	}
	if errors.Is(cause, reason) {
		return cause
	}
	return fmt.Errorf("%w: %w", reason, cause)
}

// reasonLabel maps a pipeline error onto a low-cardinality metrics label.
func reasonLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrFetch):
		return "fetch"
	case errors.Is(err, domain.ErrStage):
		return "stage"
	case errors.Is(err, domain.ErrDetectionUnavailable):
		return "detection_unavailable"
	case errors.Is(err, domain.ErrDetectionIncomplete):
		return "detection_incomplete"
	case errors.Is(err, domain.ErrMalformedLabelLine):
		return "malformed_label_line"
	case errors.Is(err, domain.ErrReply):
		return "reply"
	default:
		return "unknown"
	}
}
