package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is an immutable record of something that happened to an
// aggregate. Implementations must not expose mutable state.
type DomainEvent interface {
	EventID() string       // Unique, generated at construction
	EventName() string     // Stable identifier of the event type
	AggregateID() string   // Originating aggregate instance
	OccurredOn() time.Time // When the event was created
	Payload() Payload      // Copy of the event data
}

// ErrUnnamedEvent is returned when an event is constructed without a name.
var ErrUnnamedEvent = errors.New("event name is required")

// Base provides the standard DomainEvent implementation. Concrete events
// embed it and add narrow accessors over the payload.
type Base struct {
	id          string
	name        string
	aggregateID string
	occurredOn  time.Time
	payload     Payload
}

// New creates an event with a generated id and the current time.
// The payload is copied; later changes to the caller's map are not seen.
func New(name, aggregateID string, payload Payload) (Base, error) {
	if name == "" {
		return Base{}, ErrUnnamedEvent
	}
	return Base{
		id:          uuid.New().String(),
		name:        name,
		aggregateID: aggregateID,
		occurredOn:  time.Now().UTC(),
		payload:     payload.Clone(),
	}, nil
}

// MustNew is like New but panics on an empty name. Aggregates use it with
// their event name constants.
func MustNew(name, aggregateID string, payload Payload) Base {
	b, err := New(name, aggregateID, payload)
	if err != nil {
		panic(fmt.Sprintf("event: %v (aggregate %s)", err, aggregateID))
	}
	return b
}

// EventID returns the unique event identifier.
func (e Base) EventID() string {
	return e.id
}

// EventName returns the event name.
func (e Base) EventName() string {
	return e.name
}

// AggregateID returns the id of the aggregate that produced the event.
func (e Base) AggregateID() string {
	return e.aggregateID
}

// OccurredOn returns when the event was created.
func (e Base) OccurredOn() time.Time {
	return e.occurredOn
}

// Payload returns a copy of the event data.
func (e Base) Payload() Payload {
	return e.payload.Clone()
}

// record is the JSON projection of an event.
type record struct {
	EventID     string    `json:"eventId"`
	EventName   string    `json:"eventName"`
	AggregateID string    `json:"aggregateId"`
	OccurredOn  time.Time `json:"occurredOn"`
	Payload     Payload   `json:"payload"`
}

// MarshalJSON implements json.Marshaler.
func (e Base) MarshalJSON() ([]byte, error) {
	return json.Marshal(Project(e))
}

// Project returns the plain JSON-ready projection of any DomainEvent.
func Project(evt DomainEvent) map[string]any {
	payload := evt.Payload()
	if payload == nil {
		payload = Payload{}
	}
	return map[string]any{
		"eventId":     evt.EventID(),
		"eventName":   evt.EventName(),
		"aggregateId": evt.AggregateID(),
		"occurredOn":  evt.OccurredOn(),
		"payload":     map[string]any(payload),
	}
}

// Encode serializes any DomainEvent to its JSON projection.
func Encode(evt DomainEvent) ([]byte, error) {
	if evt == nil {
		return nil, ErrNilEvent
	}
	return json.Marshal(Project(evt))
}

// Decode reconstitutes an event from its JSON projection, keeping the stored
// id and timestamp. It is meant for readers of persisted events.
func Decode(data []byte) (Base, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return Base{}, fmt.Errorf("decode event: %w", err)
	}
	if r.EventName == "" {
		return Base{}, ErrUnnamedEvent
	}
	if r.EventID == "" {
		return Base{}, errors.New("decode event: missing eventId")
	}
	return Base{
		id:          r.EventID,
		name:        r.EventName,
		aggregateID: r.AggregateID,
		occurredOn:  r.OccurredOn,
		payload:     r.Payload,
	}, nil
}
