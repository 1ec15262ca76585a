package event

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by Publish.
var (
	// ErrNilEvent indicates a nil event was published.
	ErrNilEvent = errors.New("event is nil")

	// ErrUnknownEvent indicates the event name is not in the catalog
	// while the bus runs in strict mode.
	ErrUnknownEvent = errors.New("event name not registered")
)

// HandlerError describes a handler failure caught at the bus boundary.
// It is logged and reported to OnError, never returned to the publisher.
type HandlerError struct {
	Event     DomainEvent
	Handler   string
	Async     bool
	Message   string
	Err       error
	Attempt   int
	Timestamp time.Time
}

// Error implements error interface.
func (e *HandlerError) Error() string {
	id := ""
	if e.Event != nil {
		id = e.Event.EventName() + "/" + e.Event.EventID()
	}
	if e.Err != nil {
		return fmt.Sprintf("event %s: handler %s: %s: %v", id, e.Handler, e.Message, e.Err)
	}
	return fmt.Sprintf("event %s: handler %s: %s", id, e.Handler, e.Message)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// FailedDelivery records one handler that failed for one event.
type FailedDelivery struct {
	Event   DomainEvent `json:"-"`
	EventID string      `json:"event_id"`
	Name    string      `json:"event_name"`
	Handler string      `json:"handler"`

	ErrorMessage string `json:"error_message"`

	AttemptCount  int       `json:"attempt_count"`
	FirstFailedAt time.Time `json:"first_failed_at"`
	LastFailedAt  time.Time `json:"last_failed_at"`
	NextRetryAt   time.Time `json:"next_retry_at,omitempty"`
}

// Key identifies a delivery: the same event can fail in several handlers.
func (f *FailedDelivery) Key() string {
	return f.EventID + "|" + f.Handler
}

// NewFailedDelivery creates a FailedDelivery from a handler error.
func NewFailedDelivery(evt DomainEvent, handler string, err error) *FailedDelivery {
	now := time.Now()
	return &FailedDelivery{
		Event:         evt,
		EventID:       evt.EventID(),
		Name:          evt.EventName(),
		Handler:       handler,
		ErrorMessage:  err.Error(),
		FirstFailedAt: now,
		LastFailedAt:  now,
	}
}

// ParkedDelivery is a delivery that exhausted its retries.
type ParkedDelivery struct {
	FailedDelivery

	ParkReason string    `json:"park_reason"`
	ParkedAt   time.Time `json:"parked_at"`
}

// DeadLetterQueue stores failed deliveries for later redelivery.
type DeadLetterQueue interface {
	// Enqueue adds a failed delivery.
	Enqueue(ctx context.Context, failed *FailedDelivery) error

	// Dequeue removes and returns deliveries that are due for retry.
	Dequeue(ctx context.Context, limit int) ([]*FailedDelivery, error)

	// Count returns the number of queued deliveries.
	Count(ctx context.Context) (int, error)
}
