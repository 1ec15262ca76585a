package audit_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/audit"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/report"
)

type logFactory func(t *testing.T) audit.Log

func memoryFactory(t *testing.T) audit.Log {
	return audit.NewMemoryLog()
}

func sqliteFactory(t *testing.T) audit.Log {
	l, err := audit.NewSQLiteLog(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	return l
}

func evt(name, aggregateID string, payload event.Payload) event.DomainEvent {
	return event.MustNew(name, aggregateID, payload)
}

func TestMemoryLog_Contract(t *testing.T) {
	logContractTest(t, "memory", memoryFactory)
}

func TestSQLiteLog_Contract(t *testing.T) {
	logContractTest(t, "sqlite", sqliteFactory)
}

func logContractTest(t *testing.T, name string, factory logFactory) {
	ctx := context.Background()

	t.Run(name+"/Append_and_ByAggregate", func(t *testing.T) {
		l := factory(t)
		defer l.Close()

		first := evt("ReportCreated", "rpt_1", event.Payload{"title": "Q3", "wordCount": 12})
		require.NoError(t, l.Append(ctx, first))
		require.NoError(t, l.Append(ctx, evt("ShareCreated", "shr_1", event.Payload{})))
		require.NoError(t, l.Append(ctx, evt("ReportGenerated", "rpt_1", event.Payload{})))

		entries, err := l.ByAggregate(ctx, "rpt_1")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "ReportCreated", entries[0].Event.EventName())
		assert.Equal(t, "ReportGenerated", entries[1].Event.EventName())
		assert.Less(t, entries[0].Seq, entries[1].Seq)

		stored := entries[0].Event
		assert.Equal(t, first.EventID(), stored.EventID())
		assert.True(t, first.OccurredOn().Equal(stored.OccurredOn()))
		assert.Equal(t, "Q3", stored.Payload().String("title", ""))
		assert.Equal(t, 12, stored.Payload().Int("wordCount", 0))
		assert.False(t, entries[0].RecordedAt.IsZero())
	})

	t.Run(name+"/ByAggregate_Empty", func(t *testing.T) {
		l := factory(t)
		defer l.Close()

		entries, err := l.ByAggregate(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run(name+"/Duplicate_ignored", func(t *testing.T) {
		l := factory(t)
		defer l.Close()

		e := evt("ReportCreated", "rpt_1", event.Payload{})
		require.NoError(t, l.Append(ctx, e))
		require.NoError(t, l.Append(ctx, e))

		entries, err := l.ByAggregate(ctx, "rpt_1")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run(name+"/Recent_newest_first", func(t *testing.T) {
		l := factory(t)
		defer l.Close()

		for _, n := range []string{"A", "B", "C", "D"} {
			require.NoError(t, l.Append(ctx, evt(n, "agg", event.Payload{})))
		}

		entries, err := l.Recent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "D", entries[0].Event.EventName())
		assert.Equal(t, "C", entries[1].Event.EventName())
		assert.Equal(t, "B", entries[2].Event.EventName())

		none, err := l.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run(name+"/Nil_event", func(t *testing.T) {
		l := factory(t)
		defer l.Close()

		assert.ErrorIs(t, l.Append(ctx, nil), event.ErrNilEvent)
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		l := factory(t)
		require.NoError(t, l.Close())

		assert.ErrorIs(t, l.Append(ctx, evt("A", "agg", nil)), audit.ErrLogClosed)
		_, err := l.ByAggregate(ctx, "agg")
		assert.ErrorIs(t, err, audit.ErrLogClosed)
		_, err = l.Recent(ctx, 1)
		assert.ErrorIs(t, err, audit.ErrLogClosed)
	})
}

func TestSQLiteLog_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.db")

	l1, err := audit.NewSQLiteLog(path)
	require.NoError(t, err)
	require.NoError(t, l1.Append(ctx, evt("ReportCreated", "rpt_1", event.Payload{})))
	require.NoError(t, l1.Close())

	l2, err := audit.NewSQLiteLog(path)
	require.NoError(t, err)
	defer l2.Close()

	entries, err := l2.ByAggregate(ctx, "rpt_1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSQLiteLog_CloseIdempotent(t *testing.T) {
	l, err := audit.NewSQLiteLog(":memory:")
	require.NoError(t, err)

	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}

func TestRecorder_AuditsEveryCatalogEvent(t *testing.T) {
	ctx := context.Background()
	catalog := event.NewCatalog()
	require.NoError(t, report.RegisterEvents(catalog))

	bus := event.NewBus(event.BusConfig{Catalog: catalog, Strict: true})
	log := audit.NewMemoryLog()
	subs := audit.NewRecorder(log, nil).Subscribe(bus, catalog)
	assert.Len(t, subs, len(catalog.Names()))

	r, err := report.New(report.Params{ProjectID: "proj-1", Type: "CUSTOM_REPORT", Title: "Weekly"})
	require.NoError(t, err)
	_, err = r.AddSection(report.SectionInput{Title: "Intro", Content: "hello world"})
	require.NoError(t, err)
	require.NoError(t, r.Generate("alice"))

	require.NoError(t, bus.PublishAll(ctx, r.PullDomainEvents()...))

	entries, err := log.ByAggregate(ctx, r.ID())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Event.EventName())
	}
	assert.Equal(t, []string{report.EventCreated, report.EventSectionAdded, report.EventGenerated}, names)

	for _, s := range subs {
		assert.True(t, s.Unsubscribe())
	}
	_ = r.Archive()
	require.NoError(t, bus.PublishAll(ctx, r.PullDomainEvents()...))
	assert.Equal(t, 3, log.Len())
}
