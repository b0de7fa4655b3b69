// Package zapadapters implements the scheduler logger interfaces on go.uber.org/zap.
package zapadapters

import (
	"context"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
	fieldContext = "context"
)

// Logger implements scheduler.Logger and scheduler.ContextualLogger on a zap.SugaredLogger.
// Key/value arguments follow the slog convention and may also contain zap.Field values.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger wraps logger.
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{sugar: logger.Sugar()}
}

// NewCore builds a JSON core writing to out at the given level. If provider is not nil
// the core is teed into an otelzap core, so every entry also becomes an OpenTelemetry log record.
func NewCore(name string, level zapcore.LevelEnabler, out zapcore.WriteSyncer, provider log.LoggerProvider) zapcore.Core {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(out), level)

	if provider == nil {
		return consoleCore
	}

	return zapcore.NewTee(consoleCore, otelzap.NewCore(name, otelzap.WithLoggerProvider(provider)))
}

// Zap exposes the underlying logger.
func (l *Logger) Zap() *zap.Logger {
	return l.sugar.Desugar()
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.sugar.Debugw(msg, withContext(ctx, args)...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.sugar.Infow(msg, withContext(ctx, args)...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.sugar.Warnw(msg, withContext(ctx, args)...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.sugar.Errorw(msg, withContext(ctx, args)...)
}

// withContext prepends the trace and span ids of the active span and a skip field carrying ctx.
// The JSON encoder ignores the skip field, the otelzap core reads the context from it.
func withContext(ctx context.Context, args []any) []any {
	fields := make([]any, 0, len(args)+3)
	fields = append(fields, zapcore.Field{Key: fieldContext, Type: zapcore.SkipType, Interface: ctx})

	if spanContext := trace.SpanContextFromContext(ctx); spanContext.IsValid() {
		fields = append(fields,
			zap.String(fieldTraceID, spanContext.TraceID().String()),
			zap.String(fieldSpanID, spanContext.SpanID().String()),
		)
	}

	return append(fields, args...)
}

var (
	_ scheduler.Logger           = (*Logger)(nil)
	_ scheduler.ContextualLogger = (*Logger)(nil)
)
