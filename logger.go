package main

import (
	"io"
	"log/slog"
)

// initLogger installs a text logger on w as the slog default. level accepts
// the slog names (debug, info, warn, error, with optional offsets such as
// "warn+2"); anything else logs at info.
func initLogger(w io.Writer, level string) *slog.Logger {
	var loglevel slog.Level
	err := loglevel.UnmarshalText([]byte(level))
	if err != nil {
		loglevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: loglevel}))
	slog.SetDefault(logger)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", level)
	}
	return logger
}
