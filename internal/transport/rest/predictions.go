package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/objectdetect/internal/adapter/postgres/prediction"
	"github.com/heartmarshall/objectdetect/internal/domain"
)

type predictionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.PredictionSummary, error)
	List(ctx context.Context, f prediction.Filter) ([]domain.PredictionSummary, error)
}

// PredictionHandler serves the read-only prediction audit endpoints.
type PredictionHandler struct {
	repo predictionReader
	log  *slog.Logger
}

// NewPredictionHandler creates a PredictionHandler.
func NewPredictionHandler(repo predictionReader, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{
		repo: repo,
		log:  logger.With("handler", "predictions"),
	}
}

type predictionResponse struct {
	ID                 string                  `json:"id"`
	ChatID             int64                   `json:"chat_id"`
	OriginalImagePath  string                  `json:"original_img_path"`
	PredictedImagePath string                  `json:"predicted_img_path"`
	Labels             []domain.DetectionLabel `json:"labels"`
	Time               float64                 `json:"time"`
	PredictedAt        time.Time               `json:"predicted_at"`
}

func toPredictionResponse(s domain.PredictionSummary) predictionResponse {
	labels := s.Labels
	if labels == nil {
		labels = []domain.DetectionLabel{}
	}
	return predictionResponse{
		ID:                 s.PredictionID.String(),
		ChatID:             s.ChatID,
		OriginalImagePath:  s.OriginalImagePath,
		PredictedImagePath: s.PredictedImagePath,
		Labels:             labels,
		Time:               s.Timestamp,
		PredictedAt:        s.PredictedAt(),
	}
}

// Get handles GET /api/predictions/{id}.
func (h *PredictionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	s, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPredictionResponse(s))
}

// List handles GET /api/predictions?chat_id=&limit=.
func (h *PredictionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f prediction.Filter
	if v := q.Get("chat_id"); v != "" {
		chatID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "chat_id must be an integer")
			return
		}
		f.ChatID = &chatID
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = limit
	}

	items, err := h.repo.List(r.Context(), f)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	out := make([]predictionResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toPredictionResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PredictionHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "prediction not found")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
