// Package cache drops cached read models when the aggregates behind them
// change.
//
// The Handler is an asynchronous bus subscriber. For each event it derives
// the cache keys the change makes stale and hands them to an Invalidator:
//
//	<aggregate>:<aggregateId>   the aggregate itself (kind from the catalog)
//	project:<projectId>         project views that embed the aggregate
//	<resource>:<resourceId>     the resource a share points at
//
// Invalidation is best effort: a failure is returned to the bus, which logs
// it and dead-letters it when a DLQ is configured.
package cache

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/observability"
)

// Invalidator removes cache entries.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Keys returns the cache keys made stale by evt, sorted and without
// duplicates. catalog may be nil, in which case the aggregate key is
// omitted.
func Keys(evt event.DomainEvent, catalog *event.Catalog) []string {
	var keys []string
	if catalog != nil {
		if schema, ok := catalog.Get(evt.EventName()); ok && schema.Aggregate != "" && evt.AggregateID() != "" {
			keys = append(keys, schema.Aggregate+":"+evt.AggregateID())
		}
	}

	payload := evt.Payload()
	if id := payload.String("projectId", ""); id != "" {
		keys = append(keys, "project:"+id)
	}
	resourceType := payload.String("resourceType", "")
	resourceID := payload.String("resourceId", "")
	if resourceType != "" && resourceID != "" {
		keys = append(keys, strings.ToLower(resourceType)+":"+resourceID)
	}

	slices.Sort(keys)
	return slices.Compact(keys)
}

// Handler invalidates the keys of every event it receives.
type Handler struct {
	inv     Invalidator
	catalog *event.Catalog
	logger  *slog.Logger
}

// NewHandler creates a handler. A nil logger disables logging.
func NewHandler(inv Invalidator, catalog *event.Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		inv:     inv,
		catalog: catalog,
		logger:  observability.EnrichLogger(logger, "cache"),
	}
}

// Handle implements event.Handler.
func (h *Handler) Handle(ctx context.Context, evt event.DomainEvent) error {
	keys := Keys(evt, h.catalog)
	if len(keys) == 0 {
		return nil
	}
	if err := h.inv.Invalidate(ctx, keys...); err != nil {
		return err
	}
	if h.logger != nil {
		h.logger.DebugContext(ctx, "cache invalidated",
			slog.String("event_name", evt.EventName()),
			slog.Any("keys", keys),
		)
	}
	return nil
}

// Subscribe registers the handler asynchronously for every event in the
// catalog. opts are applied after the default name.
func (h *Handler) Subscribe(bus event.Subscriber, opts ...event.SubscribeOption) []*event.Subscription {
	opts = append([]event.SubscribeOption{event.WithName("cache")}, opts...)
	names := h.catalog.Names()
	subs := make([]*event.Subscription, 0, len(names))
	for _, name := range names {
		subs = append(subs, bus.SubscribeAsync(name, h, opts...))
	}
	return subs
}

// Compile-time check that Handler implements event.Handler.
var _ event.Handler = (*Handler)(nil)
