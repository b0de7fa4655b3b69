package notify

import (
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrEncodingFailed is returned when an event cannot be encoded into an envelope.
	ErrEncodingFailed = errors.New("encoding notification failed")

	// ErrDecodingFailed is returned when bytes are not a valid envelope.
	ErrDecodingFailed = errors.New("decoding notification failed")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope is the wire format of a notification.
type Envelope struct {
	ID         uuid.UUID           `json:"id"`
	Type       string              `json:"type"`
	OccurredAt time.Time           `json:"occurred_at"`
	Payload    jsoniter.RawMessage `json:"payload"`
}

// BuildEnvelope wraps the event with a fresh id.
func BuildEnvelope(event Event) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, errors.Join(ErrEncodingFailed, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Envelope{}, errors.Join(ErrEncodingFailed, err)
	}

	return Envelope{
		ID:         id,
		Type:       event.EventType(),
		OccurredAt: event.HasOccurredAt().UTC(),
		Payload:    payload,
	}, nil
}

// Encode builds the envelope for event and marshals it.
func Encode(event Event) (Envelope, []byte, error) {
	envelope, err := BuildEnvelope(event)
	if err != nil {
		return Envelope{}, nil, err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return Envelope{}, nil, errors.Join(ErrEncodingFailed, err)
	}

	return envelope, data, nil
}

// Decode unmarshals an envelope. The payload stays raw.
func Decode(data []byte) (Envelope, error) {
	var envelope Envelope

	if err := json.Unmarshal(data, &envelope); err != nil {
		return Envelope{}, errors.Join(ErrDecodingFailed, err)
	}

	if envelope.Type == "" {
		return Envelope{}, errors.Join(ErrDecodingFailed, errors.New("missing type"))
	}

	return envelope, nil
}
