package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/photo-api/internal/config"
)

// New creates the service logger. Development environments get the
// human-readable console writer; everything else logs JSON lines.
func New(cfg *config.Config) zerolog.Logger {
	return NewWithWriter(cfg, output(cfg.Environment))
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(cfg *config.Config, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger().
		Level(parseLevel(cfg.LogLevel))
}

func output(environment string) io.Writer {
	switch strings.ToLower(environment) {
	case "", "development", "dev", "local":
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	default:
		return os.Stdout
	}
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
