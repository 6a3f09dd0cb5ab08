package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/config"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

// New creates a new structured logger with default configuration
func New() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Caller().Logger()
}

// NewWithWriter creates a new structured logger with a custom writer
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// NewFromConfig creates a logger that writes to the console and to a daily
// file log_YYYYMMDD.log under cfg.LogDir. The returned closer closes the
// file; it is a no-op when cfg.LogDir is empty.
func NewFromConfig(cfg config.Config, now time.Time) (zerolog.Logger, io.Closer, error) {
	level := Level(cfg)
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	if cfg.LogDir == "" {
		return zerolog.New(console).Level(level).With().Timestamp().Caller().Logger(), nopCloser{}, nil
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return zerolog.Nop(), nil, errors.Wrapf(err, "NewFromConfig: create log dir %s", cfg.LogDir)
	}
	path := filepath.Join(cfg.LogDir, FileName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, errors.Wrapf(err, "NewFromConfig: open %s", path)
	}

	out := zerolog.MultiLevelWriter(console, f)
	return zerolog.New(out).Level(level).With().Timestamp().Caller().Logger(), f, nil
}

// FileName returns the daily log file name for t.
func FileName(t time.Time) string {
	return "log_" + t.Format("20060102") + ".log"
}

// Level picks the log level: DEBUG wins, then LOG_LEVEL, then info.
func Level(cfg config.Config) zerolog.Level {
	if cfg.Debug {
		return zerolog.DebugLevel
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		return lvl
	}
	return zerolog.InfoLevel
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the request-scoped logger stored by WithContext, or
// fallback when the context carries none.
func FromContext(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return fallback
}

// WithFields adds structured fields to a logger
func WithFields(logger zerolog.Logger, fields map[string]interface{}) zerolog.Logger {
	ctx := logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return ctx.Logger()
}
