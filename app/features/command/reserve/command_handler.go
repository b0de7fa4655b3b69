package reserve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	logMsgCompensationFailed = "reservation compensation failed"
	logMsgRolledBack         = "reservation rolled back"
	logAttrStep              = "step"
	logAttrCaregiver         = "caregiver"
	logAttrVaccine           = "vaccine"
	logAttrDate              = "date"
	logAttrError             = "error"
)

// Stores defines the ports needed by the CommandHandler.
type Stores interface {
	scheduler.InventoryLedger
	scheduler.AvailabilityIndex
	scheduler.AppointmentStore
}

// CommandHandler runs the reservation saga.
// External wrappers handle metrics, tracing and the start/finish logs.
type CommandHandler struct {
	stores           Stores
	publisher        notify.Publisher
	contextualLogger scheduler.ContextualLogger
	retryOptions     []shell.RetryOption
	retry            bool
	now              func() time.Time
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions makes the handler rerun the whole saga when it lost the race for a slot.
// Without this option a lost race is reported as ErrSlotUnavailable right away.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retry = true
		h.retryOptions = opts
	}
}

// WithPublisher sets the publisher for the AppointmentReserved notification.
func WithPublisher(publisher notify.Publisher) Option {
	return func(h *CommandHandler) {
		h.publisher = publisher
	}
}

// WithContextualLogger sets the logger for rollbacks and failed compensations.
func WithContextualLogger(logger scheduler.ContextualLogger) Option {
	return func(h *CommandHandler) {
		h.contextualLogger = logger
	}
}

// WithClock overrides the time source of the notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *CommandHandler) {
		h.now = now
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(stores Stores, opts ...Option) CommandHandler {
	handler := CommandHandler{
		stores:    stores,
		publisher: notify.Noop{},
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle runs the saga once, or with retry on ErrSlotUnavailable if configured.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, error) {
	if !h.retry {
		result, err := h.reserve(ctx, command)
		result.HandlerResult = shell.SingleAttempt(err)

		return result, err
	}

	var result Result
	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var attemptErr error
		result, attemptErr = h.reserve(retryCtx, command)

		if errors.Is(attemptErr, scheduler.ErrStorage) {
			// a failed compensation must not be followed by another attempt
			return shell.Permanent(attemptErr)
		}

		return attemptErr
	}, h.retryOptions...)

	result.HandlerResult = shell.NewHandlerResult(retryMetrics)

	return result, err
}

// reserve runs one attempt of the saga.
func (h CommandHandler) reserve(ctx context.Context, command Command) (Result, error) {
	result := Result{Trace: []State{Idle}, Final: Idle}

	result.enter(Validating)
	date, err := validate(command)
	if err != nil {
		return h.rollback(ctx, result, err)
	}

	result.enter(SelectingCaregiver)
	caregiver, found, err := scheduler.FirstOpenCaregiver(ctx, h.stores, date)
	if err != nil {
		return h.rollback(ctx, result, err)
	}

	if !found {
		return h.rollback(ctx, result, fmt.Errorf("%w: %s", scheduler.ErrNoAvailability, date))
	}

	result.enter(ReservingDose)
	if err := h.stores.TryDecrement(ctx, command.Vaccine); err != nil {
		return h.rollback(ctx, result, err)
	}

	result.enter(ClaimingSlot)
	if err := h.stores.Claim(ctx, caregiver, date); err != nil {
		return h.rollback(ctx, result, errors.Join(err, h.restoreDose(ctx, command.Vaccine)))
	}

	result.enter(RecordingAppointment)
	appointment, err := h.record(ctx, command, caregiver, date)
	if err != nil {
		compensationErr := errors.Join(
			h.releaseSlot(ctx, caregiver, date),
			h.restoreDose(ctx, command.Vaccine),
		)

		return h.rollback(ctx, result, errors.Join(err, compensationErr))
	}

	result.enter(Committed)
	result.AppointmentID = appointment.ID
	result.Caregiver = appointment.Caregiver
	result.Vaccine = appointment.Vaccine
	result.Date = appointment.Date

	notify.PublishBestEffort(ctx, h.publisher, h.contextualLogger, notify.BuildAppointmentReserved(appointment, h.now()))

	return result, nil
}

func validate(command Command) (scheduler.Date, error) {
	if command.Requester.IsZero() {
		return scheduler.Date{}, scheduler.ErrNotAuthenticated
	}

	if !command.Requester.IsPatient() {
		return scheduler.Date{}, fmt.Errorf("%w: only patients can reserve", scheduler.ErrNotAuthorized)
	}

	date, err := scheduler.ParseDate(command.Date)
	if err != nil {
		return scheduler.Date{}, err
	}

	if command.Vaccine == "" {
		return scheduler.Date{}, fmt.Errorf("%w: vaccine name must not be empty", scheduler.ErrInvalidInput)
	}

	return date, nil
}

func (h CommandHandler) record(
	ctx context.Context,
	command Command,
	caregiver string,
	date scheduler.Date,
) (scheduler.Appointment, error) {
	id, err := h.stores.NextID(ctx)
	if err != nil {
		return scheduler.Appointment{}, asStorageError(err)
	}

	appointment := scheduler.Appointment{
		ID:        id,
		Patient:   command.Requester.Username,
		Caregiver: caregiver,
		Vaccine:   command.Vaccine,
		Date:      date,
	}

	if err := h.stores.Create(ctx, appointment); err != nil {
		return scheduler.Appointment{}, asStorageError(err)
	}

	return appointment, nil
}

// Compensations run on a context without cancellation: a caller that gave up must not leave a
// taken dose or a claimed slot behind.

func (h CommandHandler) restoreDose(ctx context.Context, vaccine string) error {
	err := h.stores.RestoreDose(context.WithoutCancel(ctx), vaccine)
	if err != nil {
		h.logError(ctx, logMsgCompensationFailed, logAttrStep, "restore_dose", logAttrVaccine, vaccine, logAttrError, err.Error())
	}

	return err
}

func (h CommandHandler) releaseSlot(ctx context.Context, caregiver string, date scheduler.Date) error {
	err := h.stores.Release(context.WithoutCancel(ctx), caregiver, date)
	if err != nil {
		h.logError(
			ctx, logMsgCompensationFailed,
			logAttrStep, "release_slot", logAttrCaregiver, caregiver, logAttrDate, date.String(), logAttrError, err.Error(),
		)
	}

	return err
}

func (h CommandHandler) rollback(ctx context.Context, result Result, err error) (Result, error) {
	failedStep := result.Final
	result.enter(RolledBack)

	if h.contextualLogger != nil && failedStep > SelectingCaregiver {
		h.contextualLogger.InfoContext(ctx, logMsgRolledBack, logAttrStep, failedStep.String(), logAttrError, err.Error())
	}

	return result, err
}

func (h CommandHandler) logError(ctx context.Context, msg string, args ...any) {
	if h.contextualLogger != nil {
		h.contextualLogger.ErrorContext(ctx, msg, args...)
	}
}

func asStorageError(err error) error {
	if errors.Is(err, scheduler.ErrStorage) {
		return err
	}

	return errors.Join(scheduler.ErrStorage, err)
}
