package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/heartmarshall/objectdetect/internal/adapter/detector"
	"github.com/heartmarshall/objectdetect/internal/adapter/postgres"
	predictionrepo "github.com/heartmarshall/objectdetect/internal/adapter/postgres/prediction"
	"github.com/heartmarshall/objectdetect/internal/adapter/telegram"
	"github.com/heartmarshall/objectdetect/internal/config"
	"github.com/heartmarshall/objectdetect/internal/labels"
	"github.com/heartmarshall/objectdetect/internal/metrics"
	"github.com/heartmarshall/objectdetect/internal/service/dispatcher"
	"github.com/heartmarshall/objectdetect/internal/service/prediction"
	"github.com/heartmarshall/objectdetect/internal/transport/rest"
)

// RunBot starts the chat-facing service: it serves the Telegram webhook,
// runs photos through the prediction pipeline and stops when ctx is done.
func RunBot(ctx context.Context) error {
	cfg, err := config.Load(config.RoleBot)
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting bot",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.Int("workers", cfg.Pipeline.Workers),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	reg, metricsHandler := newRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(reg)
	if err != nil {
		return err
	}
	pipelineMetrics, err := metrics.NewPipelineMetrics(reg)
	if err != nil {
		return err
	}

	store, err := newObjectStore(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("object store: %w", err)
	}

	table, err := labels.LoadClassTable(cfg.Pipeline.ClassTable)
	if err != nil {
		return err
	}
	logger.Info("class table loaded", slog.Int("classes", len(table)))

	if err := os.MkdirAll(cfg.Pipeline.DownloadDir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	gw, err := telegram.NewGateway(cfg.Telegram, logger)
	if err != nil {
		return err
	}

	det := detector.NewClient(cfg.Detector, logger)
	repo := predictionrepo.New(pool)

	predictor := prediction.NewService(logger, gw, store, det, labels.NewParser(table), repo, pipelineMetrics, prediction.Options{
		Bucket:             cfg.Storage.Bucket,
		DownloadDir:        cfg.Pipeline.DownloadDir,
		SendPredictedImage: cfg.Pipeline.SendPredictedImage,
	})
	disp := dispatcher.NewService(logger, gw, predictor, pipelineMetrics, dispatcher.Options{
		Workers:  cfg.Pipeline.Workers,
		DedupTTL: cfg.Pipeline.DedupTTL,
	})

	health := rest.NewHealthHandler(BuildVersion(),
		rest.Check{Name: "database", Ping: pool.Ping},
		rest.Check{Name: "detector", Ping: det.Ping},
		rest.Check{Name: "storage", Ping: func(ctx context.Context) error {
			return store.Ping(ctx, cfg.Storage.Bucket)
		}},
	)
	mux := rest.NewBotMux(rest.BotRoutes{
		Health:      health,
		Webhook:     rest.NewWebhookHandler(cfg.Telegram.Token, disp, logger),
		Predictions: rest.NewPredictionHandler(repo, logger),
		Metrics:     metricsHandler,
	})
	srv := newHTTPServer(cfg.Server, rest.Wrap(mux, logger, httpMetrics))

	serveErr, err := listen(ctx, srv, logger)
	if err != nil {
		return err
	}

	if err := gw.RegisterWebhook(ctx, cfg.Telegram.AppURL, cfg.Telegram.CertPath); err != nil {
		_ = shutdownBot(srv, disp, cfg.Server, logger)
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server failed", slog.String("error", err.Error()))
			_ = shutdownBot(srv, disp, cfg.Server, logger)
			return fmt.Errorf("http server: %w", err)
		}
	}

	return shutdownBot(srv, disp, cfg.Server, logger)
}

// shutdownBot stops accepting webhooks first, then waits for in-flight
// predictions. Both steps share one deadline.
func shutdownBot(srv *http.Server, disp *dispatcher.Service, cfg config.ServerConfig, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}
	if err := disp.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		logger.Error("shutdown incomplete", slog.String("error", err.Error()))
		return err
	}
	logger.Info("bot stopped")
	return nil
}
