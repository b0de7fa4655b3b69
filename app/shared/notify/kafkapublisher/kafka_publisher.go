// Package kafkapublisher publishes scheduler notifications to a Kafka topic.
package kafkapublisher

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/notify"
)

const (
	defaultBatchTimeout = 10 * time.Millisecond
	headerEventType     = "event_type"
	headerEventID       = "event_id"
)

var (
	// ErrNoBrokers is returned when the publisher is created without broker addresses.
	ErrNoBrokers = errors.New("at least one kafka broker is required")

	// ErrEmptyTopic is returned when the publisher is created without a topic.
	ErrEmptyTopic = errors.New("kafka topic must not be empty")

	// ErrPublishFailed is returned when the message could not be written.
	ErrPublishFailed = errors.New("publishing to kafka failed")
)

// MessageWriter is the subset of *kafka.Writer used by the Publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes every event as one message with the JSON envelope as value.
type Publisher struct {
	writer MessageWriter
}

// Option configures the underlying kafka.Writer.
type Option func(*kafka.Writer)

// WithBatchTimeout sets how long the writer waits to fill a batch.
func WithBatchTimeout(timeout time.Duration) Option {
	return func(w *kafka.Writer) {
		w.BatchTimeout = timeout
	}
}

// WithSyncWrites makes WriteMessages wait for the broker acknowledgement of all replicas.
func WithSyncWrites() Option {
	return func(w *kafka.Writer) {
		w.RequiredAcks = kafka.RequireAll
	}
}

// New creates a Publisher writing to topic on brokers.
func New(brokers []string, topic string, options ...Option) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	if topic == "" {
		return nil, ErrEmptyTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: defaultBatchTimeout,
	}

	for _, option := range options {
		option(writer)
	}

	return NewWithWriter(writer), nil
}

// NewWithWriter creates a Publisher on top of an existing writer.
func NewWithWriter(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// Publish encodes the event and writes it, keyed by event type.
func (p *Publisher) Publish(ctx context.Context, event notify.Event) error {
	envelope, data, err := notify.Encode(event)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Key:   []byte(envelope.Type),
		Value: data,
		Time:  envelope.OccurredAt,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(envelope.Type)},
			{Key: headerEventID, Value: []byte(envelope.ID.String())},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}

	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
