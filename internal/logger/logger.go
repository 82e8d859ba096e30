package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// L is the global logger instance, initialized once at startup
var L *slog.Logger

type contextKey string

const loggerKey contextKey = "logger"

func init() {
	// Default handler until Init runs; tests and early startup paths
	// use this one.
	L = slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// Init initializes the global logger with the configured level.
// Call this once at application startup, after loading config.
func Init(logLevel string) {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		slog.Warn("Invalid LOG_LEVEL specified, defaulting to INFO", "configuredLevel", logLevel)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	L = slog.New(handler)
	slog.SetDefault(L)

	L.Info("Logger initialized", "level", level.String())
}

// FromContext retrieves a logger from context, or returns the global logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return L
}

// ToContext embeds a slog.Logger into a context.Context.
func ToContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}
