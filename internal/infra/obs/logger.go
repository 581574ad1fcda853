// Package obs carries the observability plumbing: the process logger, the
// per-request gin middleware, and the health probes.
package obs

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds the process logger. Development environments get tinted,
// debug-level output with source locations; everything else logs JSON at
// info level.
func NewLogger(env string) *slog.Logger {
	writer := os.Stdout
	switch env {
	case "dev", "local", "debug":
		return slog.New(tint.NewHandler(writer, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	default:
		return slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		}))
	}
}
