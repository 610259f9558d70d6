package rest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/heartmarshall/objectdetect/internal/adapter/telegram"
	"github.com/heartmarshall/objectdetect/internal/domain"
	"github.com/heartmarshall/objectdetect/internal/service/dispatcher"
)

// WebhookPattern is the mux pattern of the Telegram webhook. The token
// segment is matched by the handler, so route labels never carry it.
const WebhookPattern = "POST /telegram/{token}/{$}"

// maxUpdateBytes bounds the size of one webhook body.
const maxUpdateBytes = 1 << 20

type eventDispatcher interface {
	Dispatch(ctx context.Context, ev domain.InboundEvent) error
}

// WebhookHandler receives Bot API updates and hands them to the dispatcher.
type WebhookHandler struct {
	token      []byte
	dispatcher eventDispatcher
	log        *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler that accepts updates posted
// under token.
func NewWebhookHandler(token string, d eventDispatcher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		token:      []byte(token),
		dispatcher: d,
		log:        logger.With("handler", "webhook"),
	}
}

// ServeHTTP handles POST /telegram/{token}/.
//
// A wrong token is answered with 404 and an undecodable body with 400.
// Every other update is acknowledged with 200 so Telegram does not redeliver
// it, except when the dispatcher is shutting down (503).
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if subtle.ConstantTimeCompare([]byte(r.PathValue("token")), h.token) != 1 {
		http.NotFound(w, r)
		return
	}

	var u tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&u); err != nil {
		h.log.WarnContext(r.Context(), "undecodable update", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid update")
		return
	}

	ev, ok, err := telegram.EventFromUpdate(u)
	if err != nil {
		h.log.WarnContext(r.Context(), "invalid update",
			slog.Int("update_id", u.UpdateID),
			slog.String("error", err.Error()),
		)
		w.WriteHeader(http.StatusOK)
		return
	}
	if !ok {
		h.log.DebugContext(r.Context(), "update ignored", slog.Int("update_id", u.UpdateID))
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), ev); err != nil {
		h.log.ErrorContext(r.Context(), "dispatch update",
			slog.Int("update_id", u.UpdateID),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, dispatcher.ErrShuttingDown) {
			writeError(w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "busy")
		return
	}

	w.WriteHeader(http.StatusOK)
}
