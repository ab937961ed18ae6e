// Package logging builds the slog loggers used by the kernel and the event registry.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bassbeaver/gevents/config"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 50
	defaultMaxBackups = 10
	defaultMaxAgeDays = 14
)

// traceHandler adds the service name and the span context of the record's context.
type traceHandler struct {
	handler slog.Handler
	service string
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(slog.String("service", h.service))

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}

	return h.handler.Handle(ctx, r)
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{handler: h.handler.WithAttrs(attrs), service: h.service}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{handler: h.handler.WithGroup(name), service: h.service}
}

// New creates a logger writing to w. format is "json" or "text" (default).
func New(service string, level slog.Level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var baseHandler slog.Handler
	if "json" == strings.ToLower(format) {
		baseHandler = slog.NewJSONHandler(w, opts)
	} else {
		baseHandler = slog.NewTextHandler(w, opts)
	}

	return slog.New(&traceHandler{handler: baseHandler, service: service})
}

// Setup creates a logger from cfg. Output goes to a rotating file when cfg.File is set, to stderr
// otherwise. The returned function closes the file.
func Setup(service string, cfg config.LoggingConfig) (*slog.Logger, func() error, error) {
	level, levelError := ParseLevel(cfg.Level)
	if nil != levelError {
		return nil, nil, levelError
	}

	if "" == cfg.File {
		return New(service, level, cfg.Format, os.Stderr), func() error { return nil }, nil
	}

	rotatingFile := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    valueOrDefault(cfg.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: valueOrDefault(cfg.MaxBackups, defaultMaxBackups),
		MaxAge:     valueOrDefault(cfg.MaxAgeDays, defaultMaxAgeDays),
		Compress:   cfg.Compress,
		LocalTime:  true,
	}

	return New(service, level, cfg.Format, rotatingFile), rotatingFile.Close, nil
}

func ParseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if "" == value {
		return slog.LevelInfo, nil
	}

	if unmarshalError := level.UnmarshalText([]byte(value)); nil != unmarshalError {
		return slog.LevelInfo, unmarshalError
	}

	return level, nil
}

func valueOrDefault(value, defaultValue int) int {
	if value <= 0 {
		return defaultValue
	}

	return value
}
