package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/objectdetect/internal/adapter/objectstore/local"
	"github.com/heartmarshall/objectdetect/internal/adapter/objectstore/s3"
	"github.com/heartmarshall/objectdetect/internal/config"
)

// objectStore is what both binaries need from the storage driver.
type objectStore interface {
	Upload(ctx context.Context, localPath, bucket, key string) error
	Download(ctx context.Context, bucket, key, localPath string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Ping(ctx context.Context, bucket string) error
}

func newObjectStore(cfg config.StorageConfig, logger *slog.Logger) (objectStore, error) {
	switch cfg.Driver {
	case config.StorageDriverLocal:
		return local.NewStore(cfg.LocalRoot, logger)
	case config.StorageDriverS3:
		return s3.NewStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// newRegistry returns a registry with the Go runtime and process collectors
// and the handler that exposes it.
func newRegistry() (*prometheus.Registry, http.Handler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func newHTTPServer(cfg config.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// listen binds srv's address so that the server accepts connections before
// anything that depends on it (webhook registration) runs.
func listen(ctx context.Context, srv *http.Server, logger *slog.Logger) (<-chan error, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	logger.Info("http server listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh, nil
}
