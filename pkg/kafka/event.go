package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is the schema version stamped on every Event.
const EnvelopeVersion = 1

// Event is the JSON envelope written as the value of every message.
type Event struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// EventOption customizes an Event built by NewEvent.
type EventOption func(*Event)

// WithCorrelationID ties the event to the request that caused it. Empty ids
// are ignored.
func WithCorrelationID(id string) EventOption {
	return func(e *Event) {
		if id != "" {
			e.CorrelationID = id
		}
	}
}

// WithMetadata adds a metadata entry.
func WithMetadata(key, value string) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]string)
		}
		e.Metadata[key] = value
	}
}

// WithTimestamp overrides the event time.
func WithTimestamp(t time.Time) EventOption {
	return func(e *Event) { e.Timestamp = t.UTC() }
}

// NewEvent encodes data and wraps it in an envelope with a fresh id.
func NewEvent(eventType, aggregateID, aggregateType, source string, data any, opts ...EventOption) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	e := &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       EnvelopeVersion,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          raw,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Marshal encodes the envelope.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses an envelope read back from a message value.
func DecodeEvent(b []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &e, nil
}

// DecodeData unmarshals the payload into target.
func (e *Event) DecodeData(target any) error {
	if err := json.Unmarshal(e.Data, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}

// Topic joins a domain and an entity into a topic name, e.g. "storefront.cart".
func Topic(domain, entity string) string {
	return domain + "." + entity
}
