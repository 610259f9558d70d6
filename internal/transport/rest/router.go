package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/objectdetect/internal/transport/middleware"
)

type requestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// BotRoutes are the handlers mounted by the bot binary.
type BotRoutes struct {
	Health      *HealthHandler
	Webhook     *WebhookHandler
	Predictions *PredictionHandler
	Metrics     http.Handler
}

// NewBotMux registers the bot endpoints.
func NewBotMux(rt BotRoutes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", rt.Health.Live)
	mux.HandleFunc("GET /ready", rt.Health.Ready)
	mux.HandleFunc("GET /health", rt.Health.Health)
	mux.Handle(WebhookPattern, rt.Webhook)
	mux.HandleFunc("GET /api/predictions", rt.Predictions.List)
	mux.HandleFunc("GET /api/predictions/{id}", rt.Predictions.Get)
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}

	return mux
}

// DetectorRoutes are the handlers mounted by the detector binary.
type DetectorRoutes struct {
	Health   *HealthHandler
	Detector *DetectorHandler
	Metrics  http.Handler
}

// NewDetectorMux registers the detector endpoints.
func NewDetectorMux(rt DetectorRoutes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", rt.Health.Live)
	mux.HandleFunc("GET /ready", rt.Health.Ready)
	mux.HandleFunc("GET /health", rt.Health.Health)
	mux.HandleFunc("POST /predict", rt.Detector.Predict)
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}

	return mux
}

// Wrap applies the standard middleware chain. Metrics sits next to mux
// because the route pattern is only known after the mux has matched.
func Wrap(mux http.Handler, logger *slog.Logger, obs requestObserver) http.Handler {
	var metrics middleware.Middleware
	if obs != nil {
		metrics = middleware.Metrics(obs)
	}
	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		metrics,
	)(mux)
}
