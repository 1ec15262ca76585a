// Package audit keeps an append-only trail of every domain event.
//
// The Recorder is a synchronous bus handler: it runs inside Publish, so an
// event that reached its subscribers has been written to the trail (or the
// failure has been logged and dead-lettered by the bus). Entries are keyed
// by event id; appending the same event twice keeps the first entry, which
// makes redelivery from the dead-letter queue safe.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/observability"
)

// Log stores audit entries.
// Implementations must be safe for concurrent use.
type Log interface {
	// Append writes evt. Returns nil without writing when an entry with
	// the same event id already exists.
	Append(ctx context.Context, evt event.DomainEvent) error

	// ByAggregate returns the entries of one aggregate, oldest first.
	ByAggregate(ctx context.Context, aggregateID string) ([]Entry, error)

	// Recent returns at most limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Close releases any resources.
	Close() error
}

// Entry is one audited event.
type Entry struct {
	Seq        int64
	Event      event.Base
	RecordedAt time.Time
}

// ErrLogClosed indicates the log has been closed.
var ErrLogClosed = errors.New("audit log closed")

// Recorder appends published events to a Log.
type Recorder struct {
	log    Log
	logger *slog.Logger
}

// NewRecorder creates a recorder. A nil logger disables logging.
func NewRecorder(log Log, logger *slog.Logger) *Recorder {
	return &Recorder{
		log:    log,
		logger: observability.EnrichLogger(logger, "audit"),
	}
}

// Handle implements event.Handler.
func (r *Recorder) Handle(ctx context.Context, evt event.DomainEvent) error {
	if err := r.log.Append(ctx, evt); err != nil {
		return err
	}
	if r.logger != nil {
		r.logger.DebugContext(ctx, "event audited",
			slog.String("event_name", evt.EventName()),
			slog.String("event_id", evt.EventID()),
			slog.String("aggregate_id", evt.AggregateID()),
		)
	}
	return nil
}

// Subscribe registers the recorder as a synchronous handler for every event
// in catalog. The returned subscriptions can be used to detach it.
func (r *Recorder) Subscribe(bus event.Subscriber, catalog *event.Catalog) []*event.Subscription {
	names := catalog.Names()
	subs := make([]*event.Subscription, 0, len(names))
	for _, name := range names {
		subs = append(subs, bus.Subscribe(name, r, event.WithName("audit")))
	}
	return subs
}

// Compile-time check that Recorder implements event.Handler.
var _ event.Handler = (*Recorder)(nil)
