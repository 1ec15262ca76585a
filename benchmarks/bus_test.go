package benchmarks

import (
	"context"
	"testing"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/report"
)

type noopHandler struct{}

func (noopHandler) Handle(context.Context, event.DomainEvent) error { return nil }

// BenchmarkPublish_NoSubscribers measures validation and lookup alone.
func BenchmarkPublish_NoSubscribers(b *testing.B) {
	bus := event.NewBus(event.BusConfig{})
	ctx := context.Background()
	evt := event.MustNew("ReportGenerated", "rpt_1", event.Payload{"totalPages": 3})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(ctx, evt)
	}
}

// BenchmarkPublish_Sync_1 delivers to one synchronous handler.
func BenchmarkPublish_Sync_1(b *testing.B) {
	benchmarkSyncFanOut(b, 1)
}

// BenchmarkPublish_Sync_10 delivers to ten synchronous handlers.
func BenchmarkPublish_Sync_10(b *testing.B) {
	benchmarkSyncFanOut(b, 10)
}

// BenchmarkPublish_Async_10 dispatches to ten asynchronous handlers and
// waits for them.
func BenchmarkPublish_Async_10(b *testing.B) {
	bus := event.NewBus(event.BusConfig{})
	for range 10 {
		bus.SubscribeAsync("ReportGenerated", noopHandler{})
	}
	ctx := context.Background()
	evt := event.MustNew("ReportGenerated", "rpt_1", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(ctx, evt)
	}
	_ = bus.Drain(ctx)
}

// BenchmarkPublish_StrictCatalog validates every event against the catalog.
func BenchmarkPublish_StrictCatalog(b *testing.B) {
	catalog := event.NewCatalog()
	if err := report.RegisterEvents(catalog); err != nil {
		b.Fatal(err)
	}
	bus := event.NewBus(event.BusConfig{Catalog: catalog, Strict: true})
	bus.Subscribe(report.EventGenerated, noopHandler{})
	ctx := context.Background()
	evt := event.MustNew(report.EventGenerated, "rpt_1", event.Payload{
		"reportId":    "rpt_1",
		"projectId":   "p1",
		"oldStatus":   "DRAFT",
		"newStatus":   "GENERATED",
		"totalPages":  2,
		"wordCount":   800,
		"generatedBy": "bench",
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(ctx, evt)
	}
}

// BenchmarkEncode measures the JSON projection of an event.
func BenchmarkEncode(b *testing.B) {
	evt := event.MustNew("SectionUpdated", "rpt_1", event.Payload{
		"sectionId":  "sec_1",
		"orderIndex": 4,
		"wordCount":  250,
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = event.Encode(evt)
	}
}

// BenchmarkDecode measures rebuilding an event from its projection.
func BenchmarkDecode(b *testing.B) {
	data, err := event.Encode(event.MustNew("SectionUpdated", "rpt_1", event.Payload{"wordCount": 250}))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = event.Decode(data)
	}
}

func benchmarkSyncFanOut(b *testing.B, n int) {
	bus := event.NewBus(event.BusConfig{})
	for range n {
		bus.Subscribe("ReportGenerated", noopHandler{})
	}
	ctx := context.Background()
	evt := event.MustNew("ReportGenerated", "rpt_1", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(ctx, evt)
	}
}
