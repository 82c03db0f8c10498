// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogHandler is an slog.Handler that writes through zerolog. sutureslog
// and watermill log through it so supervisor and broker events land in the
// same JSON stream as everything else.
//
// Attributes added with WithAttrs are folded into the zerolog context once;
// groups become dotted key prefixes ("group.key").
type SlogHandler struct {
	logger zerolog.Logger
	prefix string
}

// NewSlogHandler wraps the global logger.
func NewSlogHandler() *SlogHandler {
	return NewSlogHandlerWithLogger(Logger())
}

// NewSlogHandlerWithLogger wraps the given logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSlogHandlerWithLogger(logger zerolog.Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// Enabled reports whether the wrapped logger accepts records at level.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.GetLevel() <= slogToZerologLevel(level)
}

// Handle writes one record.
//
//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	event := h.logger.WithLevel(slogToZerologLevel(record.Level))
	if record.NumAttrs() > 0 {
		fields := make(map[string]interface{}, record.NumAttrs())
		record.Attrs(func(a slog.Attr) bool {
			flattenAttrs(fields, h.prefix, a)
			return true
		})
		event = event.Fields(fields)
	}
	event.Msg(record.Message)
	return nil
}

// WithAttrs returns a handler whose logger already carries attrs.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	fields := make(map[string]interface{}, len(attrs))
	flattenAttrs(fields, h.prefix, attrs...)
	return &SlogHandler{
		logger: h.logger.With().Fields(fields).Logger(),
		prefix: h.prefix,
	}
}

// WithGroup returns a handler that prefixes later keys with name.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{logger: h.logger, prefix: h.prefix + name + "."}
}

// flattenAttrs resolves attrs into dst under prefix, expanding groups into
// dotted keys. Attributes with an empty key are dropped, as slog requires.
func flattenAttrs(dst map[string]interface{}, prefix string, attrs ...slog.Attr) {
	for _, a := range attrs {
		v := a.Value.Resolve()
		if v.Kind() == slog.KindGroup {
			groupPrefix := prefix
			if a.Key != "" {
				groupPrefix += a.Key + "."
			}
			flattenAttrs(dst, groupPrefix, v.Group()...)
			continue
		}
		if a.Key == "" {
			continue
		}
		dst[prefix+a.Key] = v.Any()
	}
}

// slogToZerologLevel maps slog's open-ended levels onto zerolog's.
func slogToZerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelDebug:
		return zerolog.TraceLevel
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// NewSlogLogger returns an *slog.Logger backed by the global zerolog logger.
//
//	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg)
func NewSlogLogger() *slog.Logger {
	return slog.New(NewSlogHandler())
}
