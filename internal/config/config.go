package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the photo service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"photo-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"PHOTO_API_PORT" envDefault:"3000"`
	LogLevel        string        `env:"PHOTO_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Public URL base for stored images (e.g. "https://photos.example.com").
	// Empty falls back to http://localhost:<port>.
	PublicBaseURL string `env:"PHOTO_PUBLIC_BASE_URL"`

	// Storage Backend Selection
	StorageBackend string `env:"PHOTO_STORAGE_BACKEND" envDefault:"local"` // Options: "local" or "s3"

	// Local Storage Configuration
	UploadDir  string `env:"PHOTO_UPLOAD_DIR" envDefault:"uploads"`
	StagingDir string `env:"PHOTO_STAGING_DIR"`

	// S3 Storage Configuration
	S3Endpoint     string `env:"PHOTO_S3_ENDPOINT"`
	S3Region       string `env:"PHOTO_S3_REGION" envDefault:"us-west-2"`
	S3Bucket       string `env:"PHOTO_S3_BUCKET"`
	S3Prefix       string `env:"PHOTO_S3_PREFIX" envDefault:"photos/"`
	S3AccessKeyID  string `env:"PHOTO_S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"PHOTO_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"PHOTO_S3_USE_PATH_STYLE" envDefault:"true"`

	// Upload limits
	MaxUploadBytes   int64    `env:"PHOTO_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	MaxJSONBytes     int64    `env:"PHOTO_MAX_JSON_BYTES" envDefault:"20971520"`
	AllowedMIMETypes []string `env:"PHOTO_ALLOWED_MIME_TYPES" envSeparator:"," envDefault:"image/*"`

	// Normalization
	MaxDimension          int   `env:"PHOTO_MAX_DIMENSION" envDefault:"400"`
	JPEGQuality           int   `env:"PHOTO_JPEG_QUALITY" envDefault:"80"`
	MaxInputPixels        int64 `env:"PHOTO_MAX_INPUT_PIXELS" envDefault:"100000000"`
	NormalizeConcurrency  int   `env:"PHOTO_NORMALIZE_CONCURRENCY" envDefault:"0"`
	FilenameRetryAttempts int   `env:"PHOTO_FILENAME_RETRY_ATTEMPTS" envDefault:"5"`

	// Metadata store (optional; empty DSN keeps records in memory)
	DatabaseURL    string        `env:"PHOTO_DATABASE_URL"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.PublicBaseURL = strings.TrimSpace(cfg.PublicBaseURL)
	cfg.UploadDir = strings.TrimSpace(cfg.UploadDir)
	cfg.StagingDir = strings.TrimSpace(cfg.StagingDir)
	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)

	if cfg.StagingDir == "" {
		cfg.StagingDir = filepath.Join(os.TempDir(), "photo-api-staging")
	}
	if cfg.NormalizeConcurrency <= 0 {
		cfg.NormalizeConcurrency = runtime.NumCPU()
	}
	if cfg.FilenameRetryAttempts <= 0 {
		cfg.FilenameRetryAttempts = 1
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("PHOTO_API_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("PHOTO_MAX_UPLOAD_BYTES must be positive")
	}
	if c.MaxJSONBytes <= 0 {
		return fmt.Errorf("PHOTO_MAX_JSON_BYTES must be positive")
	}
	if c.MaxDimension <= 0 {
		return fmt.Errorf("PHOTO_MAX_DIMENSION must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("PHOTO_JPEG_QUALITY must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if c.MaxInputPixels <= 0 {
		return fmt.Errorf("PHOTO_MAX_INPUT_PIXELS must be positive")
	}
	switch {
	case c.IsLocalStorage():
		if c.UploadDir == "" {
			return fmt.Errorf("PHOTO_UPLOAD_DIR is required for the local storage backend")
		}
	case c.IsS3Storage():
	default:
		return fmt.Errorf("unknown PHOTO_STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// PublicBase returns the externally visible base URL for stored images.
func (c *Config) PublicBase() string {
	if c.PublicBaseURL != "" {
		return c.PublicBaseURL
	}
	return fmt.Sprintf("http://localhost:%d", c.HTTPPort)
}

// IsLocalStorage returns true if local storage backend is configured.
func (c *Config) IsLocalStorage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "local"
}

// IsS3Storage returns true if S3 storage backend is configured.
func (c *Config) IsS3Storage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "s3"
}

// HasDatabase reports whether a PostgreSQL metadata store is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
