// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/kagi-cli/kagi/render"
)

// NewCommandLogger returns the logger handed to a command's Run. Output
// is slog text when w is a terminal and JSON otherwise; verbose lowers
// the level from warn to debug.
//
// The handler is a [render.LiveLogHandler], so a command that draws a
// live view attaches it and records stop printing over the view:
//
//	if handler, ok := logger.Handler().(*render.LiveLogHandler); ok {
//	    handler.Attach(live)
//	    defer handler.Detach()
//	}
func NewCommandLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if IsTerminal(w) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(render.NewLiveLogHandler(handler, level))
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w any) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
