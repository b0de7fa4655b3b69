package cancelappointment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// Result carries the id of the canceled appointment.
type Result struct {
	shell.HandlerResult

	AppointmentID scheduler.AppointmentID
}

// CommandHandler deletes appointments from the AppointmentStore.
type CommandHandler struct {
	appointments     scheduler.AppointmentStore
	publisher        notify.Publisher
	contextualLogger scheduler.ContextualLogger
	now              func() time.Time
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithPublisher sets the publisher for the AppointmentCanceled notification.
func WithPublisher(publisher notify.Publisher) Option {
	return func(h *CommandHandler) {
		h.publisher = publisher
	}
}

// WithContextualLogger sets the logger for failed notifications.
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
func NewCommandHandler(appointments scheduler.AppointmentStore, opts ...Option) CommandHandler {
	handler := CommandHandler{
		appointments: appointments,
		publisher:    notify.Noop{},
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle cancels the appointment. A missing appointment, or one the requester does not own,
// fails with ErrNotFound.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, error) {
	id, err := h.handle(ctx, command)

	return Result{HandlerResult: shell.SingleAttempt(err), AppointmentID: id}, err
}

func (h CommandHandler) handle(ctx context.Context, command Command) (scheduler.AppointmentID, error) {
	if command.Requester.IsZero() {
		return 0, scheduler.ErrNotAuthenticated
	}

	id, err := strconv.ParseUint(command.AppointmentID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: appointment id %q", scheduler.ErrInvalidInput, command.AppointmentID)
	}

	if err := h.appointments.Cancel(ctx, id, command.Requester.Username); err != nil {
		return 0, err
	}

	notify.PublishBestEffort(ctx, h.publisher, h.contextualLogger, notify.AppointmentCanceled{
		AppointmentID: id,
		CanceledBy:    command.Requester.Username,
		OccurredAt:    h.now(),
	})

	return id, nil
}
