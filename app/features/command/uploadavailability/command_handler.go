package uploadavailability

import (
	"context"
	"fmt"
	"time"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// CommandHandler publishes slots to the AvailabilityIndex.
type CommandHandler struct {
	index            scheduler.AvailabilityIndex
	publisher        notify.Publisher
	contextualLogger scheduler.ContextualLogger
	now              func() time.Time
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithPublisher sets the publisher for the AvailabilityPublished notification.
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
func NewCommandHandler(index scheduler.AvailabilityIndex, opts ...Option) CommandHandler {
	handler := CommandHandler{
		index:     index,
		publisher: notify.Noop{},
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle opens the requesting caregiver's slot. Uploading the same date twice is not an error.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	err := h.handle(ctx, command)

	return shell.SingleAttempt(err), err
}

func (h CommandHandler) handle(ctx context.Context, command Command) error {
	if command.Requester.IsZero() {
		return scheduler.ErrNotAuthenticated
	}

	if !command.Requester.IsCaregiver() {
		return fmt.Errorf("%w: only caregivers can upload availability", scheduler.ErrNotAuthorized)
	}

	date, err := scheduler.ParseDate(command.Date)
	if err != nil {
		return err
	}

	if err := h.index.Publish(ctx, command.Requester.Username, date); err != nil {
		return err
	}

	notify.PublishBestEffort(ctx, h.publisher, h.contextualLogger, notify.AvailabilityPublished{
		Caregiver:  command.Requester.Username,
		Date:       date.String(),
		OccurredAt: h.now(),
	})

	return nil
}
