package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/heartmarshall/objectdetect/internal/adapter/yolo"
	"github.com/heartmarshall/objectdetect/internal/config"
	"github.com/heartmarshall/objectdetect/internal/metrics"
	"github.com/heartmarshall/objectdetect/internal/service/inference"
	"github.com/heartmarshall/objectdetect/internal/transport/rest"
)

// RunDetector starts the detector worker that serves POST /predict.
func RunDetector(ctx context.Context) error {
	cfg, err := config.Load(config.RoleDetector)
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting detector",
		slog.String("version", BuildVersion()),
		slog.String("weights", cfg.YOLO.Weights),
		slog.String("storage_driver", cfg.Storage.Driver),
	)

	reg, metricsHandler := newRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(reg)
	if err != nil {
		return err
	}
	inferenceMetrics, err := metrics.NewInferenceMetrics(reg)
	if err != nil {
		return err
	}

	store, err := newObjectStore(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("object store: %w", err)
	}

	if err := os.MkdirAll(cfg.YOLO.DownloadDir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	svc := inference.NewService(logger, store, yolo.NewRunner(cfg.YOLO, logger), inferenceMetrics, inference.Options{
		Bucket:      cfg.Storage.Bucket,
		DownloadDir: cfg.YOLO.DownloadDir,
	})

	mux := rest.NewDetectorMux(rest.DetectorRoutes{
		Health: rest.NewHealthHandler(BuildVersion(),
			rest.Check{Name: "storage", Ping: func(ctx context.Context) error {
				return store.Ping(ctx, cfg.Storage.Bucket)
			}},
		),
		Detector: rest.NewDetectorHandler(svc, logger),
		Metrics:  metricsHandler,
	})
	srv := newHTTPServer(cfg.Server, rest.Wrap(mux, logger, httpMetrics))

	serveErr, err := listen(ctx, srv, logger)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	logger.Info("detector stopped")
	return nil
}
