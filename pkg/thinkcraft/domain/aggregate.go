package domain

import (
	"slices"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

// Aggregate is what repositories need from an aggregate root.
type Aggregate interface {
	ID() string
	Version() int
	PendingEvents() []event.DomainEvent
	PullDomainEvents() []event.DomainEvent
}

// AggregateRoot is embedded by every aggregate. It holds the identity, a
// version counter and the buffer of events recorded by mutating operations
// that have not been dispatched yet.
//
// Aggregates never publish: the orchestrating service drains the buffer with
// PullDomainEvents after the operation and hands the events to the bus.
type AggregateRoot struct {
	id      string
	version int
	pending []event.DomainEvent
}

// NewAggregateRoot returns a root for a freshly created aggregate.
func NewAggregateRoot(id string) AggregateRoot {
	return AggregateRoot{id: id}
}

// RestoreAggregateRoot returns a root for a reconstituted aggregate. The
// buffer starts empty: reconstitution never re-emits events.
func RestoreAggregateRoot(id string, version int) AggregateRoot {
	return AggregateRoot{id: id, version: version}
}

// ID returns the aggregate identity.
func (a *AggregateRoot) ID() string {
	return a.id
}

// Version returns the number of events recorded over the aggregate's life.
func (a *AggregateRoot) Version() int {
	return a.version
}

// Record appends evt to the pending buffer. It must be the last step of an
// operation, after every check has passed and state has changed.
func (a *AggregateRoot) Record(evt event.DomainEvent) {
	a.pending = append(a.pending, evt)
	a.version++
}

// PendingEvents returns a copy of the buffer without clearing it.
func (a *AggregateRoot) PendingEvents() []event.DomainEvent {
	return slices.Clone(a.pending)
}

// HasPendingEvents reports whether the buffer is non-empty.
func (a *AggregateRoot) HasPendingEvents() bool {
	return len(a.pending) > 0
}

// PullDomainEvents returns the buffered events in record order and clears
// the buffer.
func (a *AggregateRoot) PullDomainEvents() []event.DomainEvent {
	out := a.pending
	a.pending = nil
	return out
}
