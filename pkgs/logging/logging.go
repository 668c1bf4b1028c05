// Package logging builds the structured logging sink shared by the engine
// and the CLI.
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger writing to w. With debug set, per-iteration
// saturation records are included; otherwise only early stops and errors
// are reported.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
