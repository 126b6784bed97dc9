// Package logger builds the process logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/internal/config"
)

// New writes human readable output in development and testing and JSON
// everywhere else.
func New(cfg config.ObservabilityConfig, environment string) zerolog.Logger {
	return newLogger(os.Stdout, cfg, environment)
}

func newLogger(out io.Writer, cfg config.ObservabilityConfig, environment string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	w := out
	if env := (config.Primary{Env: environment}).Environment(); env.IsDevelopmentLike() {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("env", environment).
		Logger()
}
