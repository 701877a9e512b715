package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. Production gets JSON at
// INFO for log shipping; everything else gets human-readable text at
// DEBUG with source locations.
func NewLogger(env string) *slog.Logger {
	var h slog.Handler
	switch env {
	case "prod", "staging":
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		})
	}
	return slog.New(h).With("service", "designforge")
}
