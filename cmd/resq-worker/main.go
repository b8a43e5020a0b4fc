package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-content/pkg/simplecontent/presets"

	"github.com/ResQ-NG/resq-ai/internal/config"
	"github.com/ResQ-NG/resq-ai/internal/handlers"
	"github.com/ResQ-NG/resq-ai/internal/metrics"
	"github.com/ResQ-NG/resq-ai/internal/orchestrator"
	"github.com/ResQ-NG/resq-ai/internal/store"
	"github.com/ResQ-NG/resq-ai/internal/summarize"
	"github.com/ResQ-NG/resq-ai/internal/vision"
	"github.com/ResQ-NG/resq-ai/pkg/runner"
)

// The worker executes enqueued workflows; it exposes only the async enqueue
// and status endpoints plus health and metrics.
func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if cfg.DBOSDatabaseURL == "" {
		logger.Error("DBOS_SYSTEM_DATABASE_URL is required")
		os.Exit(1)
	}

	httpAddr := os.Getenv("WORKER_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8081"
	}

	ctx := context.Background()

	objectStore, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize object store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	detector := vision.NewHTTPDetector(cfg.DetectorURL, cfg.DetectorModel,
		vision.WithDetectorLogger(logger))

	engine := summarize.NewEngine(
		summarize.WithDefaultSentences(cfg.SummarySentences),
		summarize.WithLogger(logger))

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	orc, err := orchestrator.New(objectStore, detector, engine,
		orchestrator.WithTimeout(cfg.RequestTimeout),
		orchestrator.WithConfidenceThreshold(cfg.ConfidenceThreshold),
		orchestrator.WithDefaultSentences(cfg.SummarySentences),
		orchestrator.WithMaxInFlight(cfg.MaxInFlight),
		orchestrator.WithMetrics(m),
		orchestrator.WithLogger(logger))
	if err != nil {
		logger.Error("failed to initialize orchestrator", "error", err)
		os.Exit(1)
	}
	defer orc.Release()

	wfRunner, err := runner.New(runner.Config{
		DatabaseURL:        cfg.DBOSDatabaseURL,
		AppName:            "resq-worker",
		QueueName:          cfg.DBOSQueueName,
		Concurrency:        cfg.DBOSConcurrency,
		ApplicationVersion: cfg.AppVersion,
		Logger:             logger,
	}, orc)
	if err != nil {
		logger.Error("failed to initialize workflow runner", "error", err)
		os.Exit(1)
	}
	defer wfRunner.Shutdown(10)

	logger.Info("worker initialized",
		"queue", cfg.DBOSQueueName,
		"concurrency", cfg.DBOSConcurrency)

	mux := http.NewServeMux()

	handler := handlers.NewHandler(orc, logger)
	asyncHandler := handlers.NewAsyncHandler(wfRunner.WorkflowRunner(), logger)

	mux.HandleFunc("/healthz", handler.HandleHealth)
	mux.HandleFunc("/v1/process", asyncHandler.HandleProcessAsync)
	mux.HandleFunc("/v1/runs/", asyncHandler.HandleStatus)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("worker starting", "addr", httpAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("worker stopped")
}

// buildStore selects the object store backend from configuration.
func buildStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (orchestrator.ObjectFetcher, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case config.StoreBackendFilesystem:
		fs, err := store.NewFilesystemStore(cfg.StorageDir, cfg.MaxObjectBytes)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using filesystem store", "dir", cfg.StorageDir)
		return fs, noop, nil

	case config.StoreBackendContentService:
		svc, cleanupFn, err := presets.NewDevelopment()
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using embedded content service")
		return store.NewContentServiceStore(svc, cfg.MaxObjectBytes), cleanupFn, nil

	default:
		s3Store, err := store.NewS3Store(ctx, cfg.AWSRegion, cfg.MaxObjectBytes)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using s3 store", "region", cfg.AWSRegion)
		return s3Store, noop, nil
	}
}
