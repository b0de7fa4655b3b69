package main

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/cli"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell/config"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/memengine"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/oteladapters"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/postgresengine"
)

// runtime owns everything that lives as long as the process: configuration, loggers and telemetry.
type runtime struct {
	cfg           config.Config
	loggers       config.Loggers
	providers     *config.ObservabilityProviders
	observability cli.ObservabilityConfig
}

func newRuntime(ctx context.Context, cfg config.Config, logOut io.Writer) (*runtime, error) {
	providers, err := config.NewObservabilityProviders(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var logProvider log.LoggerProvider
	if providers != nil {
		logProvider = providers.LoggerProvider
	}

	loggers, err := config.NewLoggers(cfg, logOut, logProvider)
	if err != nil {
		_ = providers.Shutdown()
		return nil, err
	}

	rt := &runtime{
		cfg:       cfg,
		loggers:   loggers,
		providers: providers,
		observability: cli.ObservabilityConfig{
			Logger:           loggers.Logger,
			ContextualLogger: loggers.ContextualLogger,
		},
	}

	if providers != nil {
		rt.observability.MetricsCollector = oteladapters.NewMetricsCollector(otel.Meter(config.ServiceName))
		rt.observability.TracingCollector = oteladapters.NewTracingCollector(otel.Tracer(config.ServiceName))
	}

	return rt, nil
}

func (rt *runtime) close() {
	if err := rt.providers.Shutdown(); err != nil {
		rt.loggers.Logger.Warn(logMsgShutdownFailed, logAttrError, err.Error())
	}

	_ = rt.loggers.Sync()
}

func (rt *runtime) closeQuietly(closeFn func() error) {
	if err := closeFn(); err != nil {
		rt.loggers.Logger.Warn(logMsgCloseFailed, logAttrError, err.Error())
	}
}

func (rt *runtime) handlersConfig(publisher notify.Publisher) cli.HandlersConfig {
	handlersConfig := cli.HandlersConfig{
		Observability: rt.observability,
		Publisher:     publisher,
	}

	if rt.cfg.ReserveRetryAttempts > 1 {
		handlersConfig.ReserveRetry = []shell.RetryOption{shell.WithMaxAttempts(rt.cfg.ReserveRetryAttempts)}
	}

	return handlersConfig
}

// openEngine returns the configured storage engine. A Postgres schema is migrated before use.
func (rt *runtime) openEngine(ctx context.Context) (scheduler.Engine, func() error, error) {
	if rt.cfg.Storage == config.StorageMemory {
		return memengine.NewEngine(memengine.WithLogger(rt.loggers.Logger)), func() error { return nil }, nil
	}

	engine, closeDB, err := rt.openPostgresEngine(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := engine.Migrate(ctx); err != nil {
		_ = closeDB()
		return nil, nil, err
	}

	return engine, closeDB, nil
}

func (rt *runtime) openPostgresEngine(ctx context.Context) (postgresengine.Engine, func() error, error) {
	options := []postgresengine.Option{
		postgresengine.WithLogger(rt.loggers.Logger),
		postgresengine.WithContextualLogger(rt.loggers.ContextualLogger),
	}
	if rt.observability.MetricsCollector != nil {
		options = append(options, postgresengine.WithMetrics(rt.observability.MetricsCollector))
	}
	if rt.observability.TracingCollector != nil {
		options = append(options, postgresengine.WithTracing(rt.observability.TracingCollector))
	}

	dsn := rt.cfg.PostgresDSN

	switch rt.cfg.PostgresAdapter {
	case config.AdapterSQLDB:
		db, err := config.PostgresSQLDB(ctx, dsn)
		if err != nil {
			return postgresengine.Engine{}, nil, err
		}

		engine, err := postgresengine.NewEngineFromSQLDB(db, options...)
		return engine, db.Close, closeOnError(err, db.Close)

	case config.AdapterSQLX:
		db, err := config.PostgresSQLX(ctx, dsn)
		if err != nil {
			return postgresengine.Engine{}, nil, err
		}

		engine, err := postgresengine.NewEngineFromSQLX(db, options...)
		return engine, db.Close, closeOnError(err, db.Close)

	case config.AdapterPGXPool:
		pool, err := config.PostgresPGXPool(ctx, dsn)
		if err != nil {
			return postgresengine.Engine{}, nil, err
		}

		closePool := func() error {
			pool.Close()
			return nil
		}

		engine, err := postgresengine.NewEngineFromPGXPool(pool, options...)
		return engine, closePool, closeOnError(err, closePool)

	default:
		return postgresengine.Engine{}, nil, fmt.Errorf("%w: %s %q", config.ErrInvalidConfig, config.EnvPostgresAdapter, rt.cfg.PostgresAdapter)
	}
}

func closeOnError(err error, closeFn func() error) error {
	if err != nil {
		_ = closeFn()
	}

	return err
}
