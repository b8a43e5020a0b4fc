// Package config resolves environment-sourced settings once at startup into
// an immutable struct passed into component constructors. Request-handling
// code never reads the environment.
package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backend identifiers.
const (
	StoreBackendS3             = "s3"
	StoreBackendFilesystem     = "filesystem"
	StoreBackendContentService = "contentapi"
)

// Config holds all process settings.
type Config struct {
	HTTPAddr string `env:"RESQ_HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL"      envDefault:"info"`

	// Object store
	StoreBackend   string `env:"STORE_BACKEND"    envDefault:"s3"`
	AWSRegion      string `env:"AWS_REGION"       envDefault:"us-east-1"`
	StorageDir     string `env:"STORAGE_DIR"      envDefault:"./dev-data"`
	ContentAPIURL  string `env:"CONTENT_API_URL"`
	MaxObjectBytes int64  `env:"MAX_OBJECT_BYTES" envDefault:"33554432"`

	// Detection engine
	DetectorURL         string  `env:"DETECTOR_URL"         envDefault:"http://localhost:9090"`
	DetectorModel       string  `env:"DETECTOR_MODEL"       envDefault:"yolov8n"`
	ConfidenceThreshold float64 `env:"CONFIDENCE_THRESHOLD" envDefault:"0.25"`

	// Summarization
	SummarySentences int `env:"SUMMARY_SENTENCES" envDefault:"2"`

	// Orchestrator
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"        envDefault:"30s"`
	MaxInFlight    int           `env:"MAX_INFLIGHT_INFERENCE" envDefault:"4"`

	// Report generation (OpenAI-compatible endpoint, e.g. Ollama)
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"http://localhost:11434/v1"`
	LLMAPIKey  string `env:"LLM_API_KEY"`
	LLMModel   string `env:"LLM_MODEL"    envDefault:"llama3.2"`

	// Async runner
	DBOSDatabaseURL string `env:"DBOS_SYSTEM_DATABASE_URL"`
	DBOSQueueName   string `env:"DBOS_QUEUE_NAME"  envDefault:"default"`
	DBOSConcurrency int    `env:"DBOS_CONCURRENCY" envDefault:"4"`
	AppVersion      string `env:"DBOS_APPLICATION_VERSION"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	return env.ParseAs[Config]()
}

// SlogLevel maps the configured log verbosity to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
