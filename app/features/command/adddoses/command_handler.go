package adddoses

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// CommandHandler adds doses to the InventoryLedger.
type CommandHandler struct {
	ledger           scheduler.InventoryLedger
	publisher        notify.Publisher
	contextualLogger scheduler.ContextualLogger
	now              func() time.Time
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithPublisher sets the publisher for the DosesAdded notification.
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
func NewCommandHandler(ledger scheduler.InventoryLedger, opts ...Option) CommandHandler {
	handler := CommandHandler{
		ledger:    ledger,
		publisher: notify.Noop{},
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle validates the command and adds the doses.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	err := h.handle(ctx, command)

	return shell.SingleAttempt(err), err
}

func (h CommandHandler) handle(ctx context.Context, command Command) error {
	if command.Requester.IsZero() {
		return scheduler.ErrNotAuthenticated
	}

	if !command.Requester.IsCaregiver() {
		return fmt.Errorf("%w: only caregivers can add doses", scheduler.ErrNotAuthorized)
	}

	count, err := ParseCount(command.Count)
	if err != nil {
		return err
	}

	if err := h.ledger.AddDoses(ctx, command.Vaccine, count); err != nil {
		return err
	}

	notify.PublishBestEffort(ctx, h.publisher, h.contextualLogger, notify.DosesAdded{
		Vaccine:    command.Vaccine,
		Count:      count,
		AddedBy:    command.Requester.Username,
		OccurredAt: h.now(),
	})

	return nil
}

// ParseCount parses a non-negative decimal dose count.
func ParseCount(s string) (int, error) {
	count, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: dose count %q is not a number", scheduler.ErrInvalidInput, s)
	}

	if count < 0 {
		return 0, fmt.Errorf("%w: dose count must not be negative, got %d", scheduler.ErrInvalidInput, count)
	}

	return count, nil
}
