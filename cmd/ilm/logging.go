package main

import (
	"io"
	"log/slog"
)

// initLogger installs the default structured logger. Diagnostics go to w
// (stderr in practice) so they never mix with command output.
// format: "json" or "text" (defaults to "text")
func initLogger(w io.Writer, format string, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
