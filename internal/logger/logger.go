// Package logger provides a context-aware structured logger built on log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Level is the minimum severity a Logger emits.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// TraceIDFn extracts extra attributes from a context, typically correlation ids.
type TraceIDFn func(ctx context.Context) []any

// LoggerInterface is what every component depends on.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

// Logger writes JSON records through slog and tags them with the active span.
type Logger struct {
	handler   slog.Handler
	traceIDFn TraceIDFn
}

var _ LoggerInterface = (*Logger)(nil)

// New constructs a Logger writing to w at the given minimum level.
func New(w io.Writer, minLevel Level, serviceName string, traceIDFn TraceIDFn) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     minLevel,
	})
	return &Logger{
		handler:   h.WithAttrs([]slog.Attr{slog.String("service", serviceName)}),
		traceIDFn: traceIDFn,
	}
}

// Discard returns a Logger that drops every record.
func Discard() *Logger {
	return New(io.Discard, LevelError+1, "", nil)
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelDebug, 3, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelInfo, 3, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelWarn, 3, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelError, 3, msg, args...)
}

// Debugc logs with the source location caller frames above the call site.
func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelDebug, caller+3, msg, args...)
}

func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelInfo, caller+3, msg, args...)
}

func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelWarn, caller+3, msg, args...)
}

func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelError, caller+3, msg, args...)
}

func (l *Logger) write(ctx context.Context, level Level, skip int, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(skip, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.Add("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	if l.traceIDFn != nil {
		r.Add(l.traceIDFn(ctx)...)
	}
	r.Add(args...)

	_ = l.handler.Handle(ctx, r)
}
