// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
)

// LiveLogHandler is a slog.Handler that writes through to a fallback
// handler, except while a Live view is attached: then records at or
// above its level become the view's status line and quieter records
// are dropped, so nothing is printed over the view.
//
// Handlers derived via WithAttrs and WithGroup share the attachment,
// so one Attach call covers every logger built from the root.
type LiveLogHandler struct {
	fallback slog.Handler
	level    slog.Leveler
	live     *atomic.Pointer[Live]
	attrs    []string
}

// NewLiveLogHandler wraps fallback. level is the threshold for records
// shown in an attached view.
func NewLiveLogHandler(fallback slog.Handler, level slog.Leveler) *LiveLogHandler {
	return &LiveLogHandler{
		fallback: fallback,
		level:    level,
		live:     &atomic.Pointer[Live]{},
	}
}

// Attach routes records into live until Detach.
func (h *LiveLogHandler) Attach(live *Live) { h.live.Store(live) }

// Detach restores the fallback handler.
func (h *LiveLogHandler) Detach() { h.live.Store(nil) }

func (h *LiveLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.live.Load() != nil {
		return level >= h.level.Level()
	}
	return h.fallback.Enabled(ctx, level)
}

func (h *LiveLogHandler) Handle(ctx context.Context, record slog.Record) error {
	live := h.live.Load()
	if live == nil {
		return h.fallback.Handle(ctx, record)
	}
	if record.Level < h.level.Level() {
		return nil
	}
	live.Status(h.summary(record), record.Level)
	return nil
}

// summary is "message (key=value, ...)".
func (h *LiveLogHandler) summary(record slog.Record) string {
	parts := append([]string(nil), h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, attr.Key+"="+attr.Value.String())
		return true
	})
	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (h *LiveLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *h
	derived.fallback = h.fallback.WithAttrs(attrs)
	derived.attrs = append([]string(nil), h.attrs...)
	for _, attr := range attrs {
		derived.attrs = append(derived.attrs, attr.Key+"="+attr.Value.String())
	}
	return &derived
}

func (h *LiveLogHandler) WithGroup(name string) slog.Handler {
	derived := *h
	derived.fallback = h.fallback.WithGroup(name)
	return &derived
}
