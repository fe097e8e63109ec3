// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates the structured logger passed to every
// command. When stderr is a terminal it uses slog.TextHandler; when
// stderr is piped (CI, scripts) it uses slog.JSONHandler so log lines
// stay machine-parseable. verbose lowers the level to debug.
//
// Commands scope the logger with With():
//
//	logger = logger.With("command", "pipeline/upload", "factory", target.FactoryName)
func NewCommandLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
