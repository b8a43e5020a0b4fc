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
	"github.com/ResQ-NG/resq-ai/internal/report"
	"github.com/ResQ-NG/resq-ai/internal/store"
	"github.com/ResQ-NG/resq-ai/internal/summarize"
	"github.com/ResQ-NG/resq-ai/internal/vision"
	"github.com/ResQ-NG/resq-ai/pkg/runner"
)

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

	mux := http.NewServeMux()

	handler := handlers.NewHandler(orc, logger)
	mux.HandleFunc("/healthz", handler.HandleHealth)
	mux.HandleFunc("/v1/analyze", handler.HandleAnalyze)
	mux.HandleFunc("/v1/summarize", handler.HandleSummarize)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	gen, err := report.NewGenerator(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, engine,
		report.WithGeneratorLogger(logger))
	if err != nil {
		logger.Error("failed to initialize report generator", "error", err)
		os.Exit(1)
	}
	reportHandler := handlers.NewReportHandler(gen, logger)
	mux.HandleFunc("/v1/report", reportHandler.HandleGenerate)

	// Async endpoints are only served when a DBOS database is configured.
	if cfg.DBOSDatabaseURL != "" {
		wfRunner, err := runner.New(runner.Config{
			DatabaseURL:        cfg.DBOSDatabaseURL,
			AppName:            "resq-server",
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

		asyncHandler := handlers.NewAsyncHandler(wfRunner.WorkflowRunner(), logger)
		mux.HandleFunc("/v1/process", asyncHandler.HandleProcessAsync)
		mux.HandleFunc("/v1/runs/", asyncHandler.HandleStatus)
		logger.Info("async endpoints registered", "queue", cfg.DBOSQueueName)
	} else {
		logger.Info("DBOS_SYSTEM_DATABASE_URL not set, async endpoints disabled")
	}

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
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
