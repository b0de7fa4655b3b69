package notify

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	logMsgPublishFailed = "publishing notification failed"
	logAttrEventType    = "event_type"
	logAttrError        = "error"
)

// Publisher delivers notifications to the outside world.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Multi fans out each event to all publishers and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error

	for _, publisher := range m {
		if err := publisher.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// PublishBestEffort publishes the event and logs a failure instead of returning it.
// A nil publisher is treated like Noop.
func PublishBestEffort(ctx context.Context, publisher Publisher, logger scheduler.ContextualLogger, event Event) {
	if publisher == nil {
		return
	}

	if err := publisher.Publish(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, logMsgPublishFailed, logAttrEventType, event.EventType(), logAttrError, err.Error())
	}
}
