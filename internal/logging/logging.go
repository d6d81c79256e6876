package logging

import (
	"log/slog"
	"os"
)

// NewLogger returns a structured logger writing to stderr so tables on
// stdout stay clean. verbose lowers the level to Debug.
func NewLogger(verbose bool) *slog.Logger {
	level := new(slog.LevelVar)
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}
