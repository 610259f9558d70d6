// Package dispatcher classifies inbound chat events and runs photo events
// through the prediction orchestrator on a bounded worker pool.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/semaphore"

	"github.com/heartmarshall/objectdetect/internal/domain"
	"github.com/heartmarshall/objectdetect/internal/metrics"
	"github.com/heartmarshall/objectdetect/internal/service/prediction"
)

// Replies for non-photo events.
const (
	MsgHelp        = "Hi!, give a photo to start object detection"
	MsgPhotoPrompt = "Please send a photo for object detection."

	CommandStart = "/start"

	DefaultWorkers = 8
)

const (
	previewRunes = 50
	dedupPruneAt = 1024
)

// ErrShuttingDown is returned by Dispatch after Shutdown has been called.
var ErrShuttingDown = errors.New("dispatcher is shutting down")

type gateway interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type predictor interface {
	Predict(ctx context.Context, ev domain.InboundEvent) prediction.Outcome
}

type eventMetrics interface {
	RecordEvent(kind string)
	IncInFlight()
	DecInFlight()
}

// Options configures the worker pool.
type Options struct {
	Workers int
	// DedupTTL is how long an update id is remembered. Zero disables
	// redelivery de-duplication.
	DedupTTL time.Duration
}

// Service is the dispatcher.
type Service struct {
	log       *slog.Logger
	gateway   gateway
	predictor predictor
	metrics   eventMetrics

	sem  *semaphore.Weighted
	seen *cache.Cache

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewService creates a new dispatcher. m may be nil.
func NewService(log *slog.Logger, gw gateway, p predictor, m eventMetrics, opts Options) *Service {
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	if m == nil {
		m = nopMetrics{}
	}

	s := &Service{
		log:       log.With("service", "dispatcher"),
		gateway:   gw,
		predictor: p,
		metrics:   m,
		sem:       semaphore.NewWeighted(int64(workers)),
	}
	if opts.DedupTTL > 0 {
		// No janitor goroutine: expired ids are pruned from isDuplicate.
		s.seen = cache.New(opts.DedupTTL, 0)
	}
	return s
}

// OnEvent handles one event synchronously: /start gets the help text,
// a photo goes through the orchestrator, anything else gets a prompt.
func (s *Service) OnEvent(ctx context.Context, ev domain.InboundEvent) {
	text := ev.TextValue()
	s.log.InfoContext(ctx, "event received",
		slog.Int("update_id", ev.UpdateID),
		slog.Int64("chat_id", ev.ChatID),
		slog.Int("message_id", ev.MessageID),
		slog.Bool("has_photo", ev.HasPhoto()),
		slog.String("text", preview(text)),
	)

	switch {
	case strings.TrimSpace(text) == CommandStart:
		s.metrics.RecordEvent(metrics.EventCommand)
		s.reply(ctx, ev.ChatID, MsgHelp)

	case ev.HasPhoto():
		s.metrics.RecordEvent(metrics.EventPhoto)
		s.metrics.IncInFlight()
		defer s.metrics.DecInFlight()

		out := s.predictor.Predict(ctx, ev)
		attrs := []any{
			slog.String("prediction_id", out.PredictionID.String()),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("state", string(out.State)),
		}
		if out.Err != nil {
			attrs = append(attrs, slog.String("error", out.Err.Error()))
		}
		s.log.InfoContext(ctx, "prediction finished", attrs...)

	default:
		s.metrics.RecordEvent(metrics.EventOther)
		s.reply(ctx, ev.ChatID, MsgPhotoPrompt)
	}
}

// Dispatch hands ev to a worker and returns once a worker slot is taken.
// It blocks while the pool is saturated. The event runs on a context that
// is not cancelled with ctx, so a finished webhook request does not abort
// the prediction. Updates redelivered within DedupTTL are dropped.
func (s *Service) Dispatch(ctx context.Context, ev domain.InboundEvent) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrShuttingDown
	}
	if s.isDuplicate(ev) {
		s.mu.RUnlock()
		s.metrics.RecordEvent(metrics.EventDuplicate)
		s.log.InfoContext(ctx, "duplicate update dropped",
			slog.Int("update_id", ev.UpdateID),
			slog.Int64("chat_id", ev.ChatID),
		)
		return nil
	}
	s.wg.Add(1)
	s.mu.RUnlock()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.forget(ev)
		s.wg.Done()
		return fmt.Errorf("dispatcher: acquire worker: %w", err)
	}

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				s.log.ErrorContext(runCtx, "panic while handling event",
					slog.Int("update_id", ev.UpdateID),
					slog.Any("panic", r),
				)
			}
		}()

		s.OnEvent(runCtx, ev)
	}()

	return nil
}

// Shutdown stops accepting events and waits for in-flight ones to finish
// or for ctx to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.InfoContext(ctx, "dispatcher drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher: shutdown: %w", ctx.Err())
	}
}

// isDuplicate records ev's update id and reports whether it was already seen.
func (s *Service) isDuplicate(ev domain.InboundEvent) bool {
	if s.seen == nil {
		return false
	}
	if s.seen.ItemCount() >= dedupPruneAt {
		s.seen.DeleteExpired()
	}
	return s.seen.Add(strconv.Itoa(ev.UpdateID), struct{}{}, cache.DefaultExpiration) != nil
}

func (s *Service) forget(ev domain.InboundEvent) {
	if s.seen != nil {
		s.seen.Delete(strconv.Itoa(ev.UpdateID))
	}
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) {
	if err := s.gateway.SendText(ctx, chatID, text); err != nil {
		s.log.ErrorContext(ctx, "send reply failed",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// preview cuts text to at most previewRunes runes for logging.
func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes])
}

type nopMetrics struct{}

func (nopMetrics) RecordEvent(string) {}
func (nopMetrics) IncInFlight()       {}
func (nopMetrics) DecInFlight()       {}
