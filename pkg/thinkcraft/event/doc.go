// Package event provides domain events and the in-process event bus that
// delivers them.
//
// # Overview
//
//   - DomainEvent: immutable record with a generated id and timestamp
//   - Payload: read-only event data with typed accessors
//   - Catalog: the set of known event names and their required payload keys
//   - Bus: pub/sub with synchronous and asynchronous subscription tables
//   - InMemoryDLQ and Redeliverer: retry for failed handler deliveries
//
// # Domain Events
//
// Events are created inside aggregate operations. The id and timestamp are
// generated, never supplied, and a name is mandatory:
//
//	base, err := event.New("ReportGenerated", reportID, event.Payload{
//	    "oldStatus": "DRAFT",
//	    "newStatus": "GENERATED",
//	})
//
// Concrete events embed Base and add accessors over the payload:
//
//	type Generated struct{ event.Base }
//
//	func (e Generated) OldStatus() string { return e.Payload().String("oldStatus", "") }
//
// # Bus
//
// The bus is created once at the composition root and injected as a
// Publisher (services) or Subscriber (handlers):
//
//	bus := event.NewBus(event.BusConfig{
//	    Logger:  logger,
//	    Metrics: observability.NewMetricsRecorder(),
//	    Catalog: catalog,
//	    Strict:  true,
//	})
//
//	bus.Subscribe("ReportGenerated", auditHandler)            // awaited, in order
//	bus.SubscribeAsync("ReportGenerated", cacheHandler,       // fire-and-forget
//	    event.WithName("cache"), event.WithTimeout(2*time.Second))
//
//	err := bus.PublishAll(ctx, report.PullDomainEvents()...)
//
// Handler failures and panics are caught at the bus boundary, logged with
// the event name and id, and never reach the publisher. A failing
// synchronous handler does not stop the ones after it. Publish returns once
// every synchronous handler has finished; use Drain to wait for
// asynchronous ones.
//
// # Error Handling
//
// With a DLQ configured, each failed delivery (event plus handler name) is
// queued. A Redeliverer re-invokes only the failed handler, with
// exponential backoff, and parks the delivery after MaxRetries.
package event
