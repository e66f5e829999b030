package logger

import (
	"log/slog"
	"os"
	"strings"
)

var base *slog.Logger

// Init sets up the process-wide logger. Production emits JSON at info
// level for log shipping; anything else gets readable text at debug.
func Init(env string) {
	production := strings.EqualFold(env, "production")

	level := slog.LevelDebug
	if production {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	base = slog.New(handler).With("service", "mightyshare-api")
	slog.SetDefault(base)
}

// LoggerWrapper returns the shared logger, initializing a development
// one if Init was never called.
func LoggerWrapper() *slog.Logger {
	if base == nil {
		Init("development")
	}
	return base
}
