package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Model backends selectable through MODEL_BACKEND.
const (
	ModelBackendHeuristic = "heuristic"
	ModelBackendRemote    = "remote"
	ModelBackendONNX      = "onnx"
)

// Config holds process-level settings read from the environment.
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	PipelineConfigPath string

	ModelBackend  string
	ModelPath     string
	ModelEndpoint string
	ModelName     string

	AzureStorageAccount string
	AzureStorageKey     string
	LocalImageRoot      string

	BatchWorkers int
	MaxBatchSize int
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob credentials were supplied.
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// LoadDotEnv loads variables from the given files (default .env) without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 45*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 32*1024*1024), // 32MB, raw microscope frames are large
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),

		PipelineConfigPath: getEnvOrDefault("PIPELINE_CONFIG", "config/pipeline.yaml"),

		ModelBackend:  strings.ToLower(getEnvOrDefault("MODEL_BACKEND", ModelBackendHeuristic)),
		ModelPath:     os.Getenv("MODEL_PATH"),
		ModelEndpoint: os.Getenv("MODEL_ENDPOINT"),
		ModelName:     getEnvOrDefault("MODEL_NAME", "plankton-classifier"),

		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),
		LocalImageRoot:      os.Getenv("LOCAL_IMAGE_ROOT"),

		BatchWorkers: int(parseIntOrDefault("BATCH_WORKERS", 0)),
		MaxBatchSize: int(parseIntOrDefault("MAX_BATCH_SIZE", 32)),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.AnalysisTimeout)
	}
	if cfg.MaxBatchSize < 1 {
		return nil, fmt.Errorf("MAX_BATCH_SIZE must be >= 1 (got %d)", cfg.MaxBatchSize)
	}
	switch cfg.ModelBackend {
	case ModelBackendHeuristic:
	case ModelBackendRemote:
		if cfg.ModelEndpoint == "" {
			return nil, fmt.Errorf("MODEL_ENDPOINT is required for the remote model backend")
		}
	case ModelBackendONNX:
		if cfg.ModelPath == "" {
			return nil, fmt.Errorf("MODEL_PATH is required for the onnx model backend")
		}
	default:
		return nil, fmt.Errorf("unknown MODEL_BACKEND %q", cfg.ModelBackend)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
