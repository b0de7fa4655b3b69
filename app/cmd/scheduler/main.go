// Package main is the scheduler binary.
//
//	scheduler [-env .env] [repl|serve|migrate]
//
// repl runs the line protocol on stdin/stdout, serve exposes it over HTTP with WebSocket
// notifications, migrate creates the Postgres schema.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/cli"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/server"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/session"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify/kafkapublisher"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify/wshub"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell/config"
)

const (
	commandREPL    = "repl"
	commandServe   = "serve"
	commandMigrate = "migrate"
)

const (
	logMsgStarting       = "scheduler starting"
	logMsgStopped        = "scheduler stopped"
	logMsgMigrated       = "schema is up to date"
	logMsgKafkaEnabled   = "publishing notifications to kafka"
	logMsgCloseFailed    = "closing resource failed"
	logMsgShutdownFailed = "observability shutdown failed"
	logAttrCommand       = "command"
	logAttrStorage       = "storage"
	logAttrTopic         = "topic"
	logAttrError         = "error"
)

var errUnknownCommand = errors.New("unknown command")

// pinger is implemented by storage engines that depend on a database.
type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	envFile := flag.String("env", ".env", "dotenv file to pre-load, a missing file is ignored")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, *envFile, flag.Args(), os.Stdin, os.Stdout, os.Stderr)
	if err != nil && !errors.Is(err, context.Canceled) {
		stop()
		log.Fatalf("scheduler: %v", err)
	}
}

func run(ctx context.Context, envFile string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	command := commandREPL
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case commandREPL, commandServe, commandMigrate:
	default:
		return fmt.Errorf("%w: %q (want %s, %s or %s)", errUnknownCommand, command, commandREPL, commandServe, commandMigrate)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.loggers.Logger.Info(logMsgStarting, logAttrCommand, command, logAttrStorage, cfg.Storage)
	defer rt.loggers.Logger.Info(logMsgStopped, logAttrCommand, command)

	switch command {
	case commandMigrate:
		return rt.migrate(ctx)
	case commandServe:
		return rt.serve(ctx)
	default:
		return rt.repl(ctx, stdin, stdout)
	}
}

func (rt *runtime) repl(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	engine, closeEngine, err := rt.openEngine(ctx)
	if err != nil {
		return err
	}
	defer rt.closeQuietly(closeEngine)

	handlers, err := cli.NewHandlers(engine, rt.handlersConfig(notify.Noop{}))
	if err != nil {
		return err
	}

	return cli.RunREPL(ctx, cli.NewDispatcher(handlers), stdin, stdout)
}

func (rt *runtime) serve(ctx context.Context) error {
	engine, closeEngine, err := rt.openEngine(ctx)
	if err != nil {
		return err
	}
	defer rt.closeQuietly(closeEngine)

	hub := wshub.New(wshub.WithLogger(rt.loggers.Logger))
	publishers := notify.Multi{hub}

	if len(rt.cfg.KafkaBrokers) > 0 {
		kafka, kafkaErr := kafkapublisher.New(rt.cfg.KafkaBrokers, rt.cfg.KafkaTopic)
		if kafkaErr != nil {
			return kafkaErr
		}
		defer rt.closeQuietly(kafka.Close)

		rt.loggers.Logger.Info(logMsgKafkaEnabled, logAttrTopic, rt.cfg.KafkaTopic)
		publishers = append(publishers, kafka)
	}

	handlers, err := cli.NewHandlers(engine, rt.handlersConfig(publishers))
	if err != nil {
		return err
	}

	serverOptions := []server.Option{
		server.WithNotifications(hub),
		server.WithCORSOrigins(rt.cfg.CORSOrigins...),
		server.WithContextualLogger(rt.loggers.ContextualLogger),
	}
	if p, ok := engine.(pinger); ok {
		serverOptions = append(serverOptions, server.WithReadinessCheck(p.Ping))
	}

	srv := server.New(cli.NewDispatcher(handlers), session.NewManager(), serverOptions...)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		hub.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		return srv.Run(groupCtx, rt.cfg.HTTPAddr)
	})

	return group.Wait()
}

func (rt *runtime) migrate(ctx context.Context) error {
	if rt.cfg.Storage != config.StoragePostgres {
		return fmt.Errorf("%w: %s must be %s to migrate", config.ErrInvalidConfig, config.EnvStorage, config.StoragePostgres)
	}

	_, closeEngine, err := rt.openEngine(ctx)
	if err != nil {
		return err
	}
	defer rt.closeQuietly(closeEngine)

	rt.loggers.Logger.Info(logMsgMigrated)

	return nil
}
