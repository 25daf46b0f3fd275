package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type loggerKey struct{}

// FromContext returns the request logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return zerolog.Nop()
	}
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// IntoContext injects a logger into context for downstream use.
func IntoContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// New builds the console logger written to stdout. Color is off in production.
// When file is set, JSON lines are also appended to a size-rotated log file.
func New(appName, env, level, file string) zerolog.Logger {
	console := consoleWriter(os.Stdout, env)
	if file == "" {
		return build(console, appName, env, level)
	}

	rotated := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	return build(zerolog.MultiLevelWriter(console, rotated), appName, env, level)
}

// NewWithWriter builds the console logger on top of w.
func NewWithWriter(w io.Writer, appName, env, level string) zerolog.Logger {
	return build(consoleWriter(w, env), appName, env, level)
}

func consoleWriter(w io.Writer, env string) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339Nano,
		NoColor:    env == "production",
	}
}

func build(w io.Writer, appName, env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("app", appName).
		Str("env", env).
		Logger()
}
