package cli

import (
	"errors"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/adddoses"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/cancelappointment"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/login"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/registeruser"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/reserve"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/command/uploadavailability"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/query/appointmentsbyuser"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/features/query/caregiverschedule"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/credentials"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell/observable"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// ErrNilEngine is returned by NewHandlers without a storage engine.
var ErrNilEngine = errors.New("engine must not be nil")

// Handlers holds one handler per operation of the line protocol.
type Handlers struct {
	RegisterUser       shell.CoreCommandHandler[registeruser.Command, shell.HandlerResult]
	Login              shell.CoreCommandHandler[login.Command, login.Result]
	Reserve            shell.CoreCommandHandler[reserve.Command, reserve.Result]
	UploadAvailability shell.CoreCommandHandler[uploadavailability.Command, shell.HandlerResult]
	CancelAppointment  shell.CoreCommandHandler[cancelappointment.Command, cancelappointment.Result]
	AddDoses           shell.CoreCommandHandler[adddoses.Command, shell.HandlerResult]
	CaregiverSchedule  shell.CoreQueryHandler[caregiverschedule.Query, caregiverschedule.Schedule]
	AppointmentsByUser shell.CoreQueryHandler[appointmentsbyuser.Query, appointmentsbyuser.Appointments]
}

// ObservabilityConfig holds the observability adapters for the command and query handlers.
// Nil members are skipped.
type ObservabilityConfig struct {
	Logger           scheduler.Logger
	ContextualLogger scheduler.ContextualLogger
	MetricsCollector scheduler.MetricsCollector
	TracingCollector scheduler.TracingCollector
}

// HandlersConfig configures NewHandlers.
type HandlersConfig struct {
	Observability ObservabilityConfig
	Publisher     notify.Publisher
	Hasher        *credentials.Hasher

	// ReserveRetry enables the retry of reservations that lost the race for a slot.
	ReserveRetry []shell.RetryOption
}

// NewHandlers builds every handler on top of engine and wraps it with the observable decorators.
func NewHandlers(engine scheduler.Engine, cfg HandlersConfig) (Handlers, error) {
	if engine == nil {
		return Handlers{}, ErrNilEngine
	}

	publisher := cfg.Publisher
	if publisher == nil {
		publisher = notify.Noop{}
	}

	hasher := credentials.NewHasher()
	if cfg.Hasher != nil {
		hasher = *cfg.Hasher
	}

	obs := cfg.Observability

	reserveOptions := []reserve.Option{
		reserve.WithPublisher(publisher),
		reserve.WithContextualLogger(obs.ContextualLogger),
	}
	if len(cfg.ReserveRetry) > 0 {
		reserveOptions = append(reserveOptions, reserve.WithRetryOptions(cfg.ReserveRetry...))
	}

	var errs []error
	var handlers Handlers

	handlers.RegisterUser = wrapCommand[registeruser.Command, shell.HandlerResult](
		&errs, registeruser.NewCommandHandler(engine, registeruser.WithHasher(hasher)), obs,
	)
	handlers.Login = wrapCommand[login.Command, login.Result](
		&errs, login.NewCommandHandler(engine, login.WithHasher(hasher)), obs,
	)
	handlers.Reserve = wrapCommand[reserve.Command, reserve.Result](
		&errs, reserve.NewCommandHandler(engine, reserveOptions...), obs,
	)
	handlers.UploadAvailability = wrapCommand[uploadavailability.Command, shell.HandlerResult](&errs, uploadavailability.NewCommandHandler(
		engine,
		uploadavailability.WithPublisher(publisher),
		uploadavailability.WithContextualLogger(obs.ContextualLogger),
	), obs)
	handlers.CancelAppointment = wrapCommand[cancelappointment.Command, cancelappointment.Result](&errs, cancelappointment.NewCommandHandler(
		engine,
		cancelappointment.WithPublisher(publisher),
		cancelappointment.WithContextualLogger(obs.ContextualLogger),
	), obs)
	handlers.AddDoses = wrapCommand[adddoses.Command, shell.HandlerResult](&errs, adddoses.NewCommandHandler(
		engine,
		adddoses.WithPublisher(publisher),
		adddoses.WithContextualLogger(obs.ContextualLogger),
	), obs)
	handlers.CaregiverSchedule = wrapQuery[caregiverschedule.Query, caregiverschedule.Schedule](&errs, caregiverschedule.NewQueryHandler(engine), obs)
	handlers.AppointmentsByUser = wrapQuery[appointmentsbyuser.Query, appointmentsbyuser.Appointments](&errs, appointmentsbyuser.NewQueryHandler(engine), obs)

	if err := errors.Join(errs...); err != nil {
		return Handlers{}, err
	}

	return handlers, nil
}

func wrapCommand[C shell.Command, R shell.CommandResult](
	errs *[]error,
	core shell.CoreCommandHandler[C, R],
	obs ObservabilityConfig,
) shell.CoreCommandHandler[C, R] {
	var options []observable.CommandOption[C, R]
	if obs.MetricsCollector != nil {
		options = append(options, observable.WithCommandMetrics[C, R](obs.MetricsCollector))
	}
	if obs.TracingCollector != nil {
		options = append(options, observable.WithCommandTracing[C, R](obs.TracingCollector))
	}
	if obs.ContextualLogger != nil {
		options = append(options, observable.WithCommandContextualLogging[C, R](obs.ContextualLogger))
	}
	if obs.Logger != nil {
		options = append(options, observable.WithCommandLogging[C, R](obs.Logger))
	}

	wrapper, err := observable.NewCommandWrapper(core, options...)
	if err != nil {
		*errs = append(*errs, err)
		return core
	}

	return wrapper
}

func wrapQuery[Q shell.Query, R any](
	errs *[]error,
	core shell.CoreQueryHandler[Q, R],
	obs ObservabilityConfig,
) shell.CoreQueryHandler[Q, R] {
	var options []observable.QueryOption[Q, R]
	if obs.MetricsCollector != nil {
		options = append(options, observable.WithQueryMetrics[Q, R](obs.MetricsCollector))
	}
	if obs.TracingCollector != nil {
		options = append(options, observable.WithQueryTracing[Q, R](obs.TracingCollector))
	}
	if obs.ContextualLogger != nil {
		options = append(options, observable.WithQueryContextualLogging[Q, R](obs.ContextualLogger))
	}
	if obs.Logger != nil {
		options = append(options, observable.WithQueryLogging[Q, R](obs.Logger))
	}

	wrapper, err := observable.NewQueryWrapper(core, options...)
	if err != nil {
		*errs = append(*errs, err)
		return core
	}

	return wrapper
}
