package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/objectdetect/internal/domain"
)

type inferenceService interface {
	Predict(ctx context.Context, imgName string) (*domain.DetectionResult, error)
}

// DetectorHandler serves the detection endpoint of the detector worker.
type DetectorHandler struct {
	svc inferenceService
	log *slog.Logger
}

// NewDetectorHandler creates a DetectorHandler.
func NewDetectorHandler(svc inferenceService, logger *slog.Logger) *DetectorHandler {
	return &DetectorHandler{
		svc: svc,
		log: logger.With("handler", "detector"),
	}
}

// Predict handles POST /predict?imgName=.
//
// A missing image or an empty model result is answered with 404, which the
// bot reads as an incomplete detection.
func (h *DetectorHandler) Predict(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Predict(r.Context(), r.URL.Query().Get("imgName"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.log.ErrorContext(r.Context(), "prediction failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "prediction failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}
