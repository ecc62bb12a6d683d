package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/monprobe/internal/adapters/http/api"
	"github.com/okian/monprobe/internal/adapters/rancher"
	app "github.com/okian/monprobe/internal/app"
	"github.com/okian/monprobe/internal/config"
	"github.com/okian/monprobe/pkg/logger"
	"github.com/okian/monprobe/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	srv, err := newServer(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build server", logger.Error(err))
		os.Exit(1)
	}

	go startSystemMetricsUpdater(ctx)

	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("rancher_url", cfg.RancherURL),
			logger.String("store", cfg.Store),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// newServer wires the Rancher client, probe service and API routes from cfg.
func newServer(cfg *config.Config, log logger.Logger) (*http.Server, error) {
	client, err := rancher.New(cfg.RancherURL,
		rancher.WithToken(cfg.RancherToken),
		rancher.WithTimeout(cfg.RequestTimeout()),
		rancher.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		rancher.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		rancher.WithCountType(cfg.CountType),
		rancher.WithLogger(log.Named("rancher")),
		rancher.WithOnUnauthorized(func(ctx context.Context, serr *rancher.StatusError) {
			log.Warn(ctx, "rancher session rejected; check rancher_token",
				logger.String("url", serr.URL),
				logger.String("request_id", serr.RequestID),
			)
		}),
	)
	if err != nil {
		return nil, err
	}

	svc := app.New(client,
		app.WithStore(cfg.Store),
		app.WithLogger(log),
	)

	mux := http.NewServeMux()
	api.NewServer(svc, svc, log, api.WithAllowedClusters(cfg.Clusters)).Register(mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
