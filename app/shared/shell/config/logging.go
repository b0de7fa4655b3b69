package config

import (
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/oteladapters"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/zapadapters"
)

// Loggers bundles the logger of the configured backend. Both fields refer to the same logger.
type Loggers struct {
	Logger           scheduler.Logger
	ContextualLogger scheduler.ContextualLogger
	sync             func() error
}

// Sync flushes buffered entries.
func (l Loggers) Sync() error {
	if l.sync == nil {
		return nil
	}

	return l.sync()
}

// NewLoggers creates the logger of the configured backend writing JSON to out.
// With a non-nil provider, slog writes through the OpenTelemetry bridge instead and zap tees into it.
func NewLoggers(cfg Config, out io.Writer, provider log.LoggerProvider) (Loggers, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return Loggers{}, err
	}

	switch cfg.LogBackend {
	case LogBackendZap:
		logger := zapadapters.NewLogger(zap.New(zapadapters.NewCore(ServiceName, zapLevel(level), zapcore.AddSync(out), provider)))
		return Loggers{Logger: logger, ContextualLogger: logger, sync: logger.Sync}, nil

	case LogBackendSlog:
		var logger *oteladapters.SlogBridgeLogger
		if provider != nil {
			logger = oteladapters.NewSlogBridgeLogger(ServiceName, otelslog.WithLoggerProvider(provider))
		} else {
			logger = oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
		}

		return Loggers{Logger: logger, ContextualLogger: logger}, nil

	default:
		return Loggers{}, invalid(EnvLogBackend, fmt.Sprintf("unknown backend %q", cfg.LogBackend))
	}
}

func parseLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, invalid(EnvLogLevel, fmt.Sprintf("unknown level %q", raw))
	}
}

func zapLevel(level slog.Level) zapcore.Level {
	switch level {
	case slog.LevelDebug:
		return zapcore.DebugLevel
	case slog.LevelWarn:
		return zapcore.WarnLevel
	case slog.LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
