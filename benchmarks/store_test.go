package benchmarks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/report"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/store"
)

// BenchmarkMemoryStore_Save measures versioned writes to the memory store.
func BenchmarkMemoryStore_Save(b *testing.B) {
	s := store.NewMemoryStore()
	benchmarkSave(b, s)
}

// BenchmarkMemoryStore_Load measures reads from the memory store.
func BenchmarkMemoryStore_Load(b *testing.B) {
	s := store.NewMemoryStore()
	benchmarkLoad(b, s)
}

// BenchmarkSQLiteStore_Save measures versioned writes to SQLite.
func BenchmarkSQLiteStore_Save(b *testing.B) {
	s := createSQLiteStore(b)
	benchmarkSave(b, s)
}

// BenchmarkSQLiteStore_Load measures reads from SQLite.
func BenchmarkSQLiteStore_Load(b *testing.B) {
	s := createSQLiteStore(b)
	benchmarkLoad(b, s)
}

func benchmarkSave(b *testing.B, s store.Store) {
	data := reportData(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := store.Record{Kind: "report", ID: "rpt_1", Version: i + 1, Data: data}
		if err := s.Save(ctx, rec, i); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkLoad(b *testing.B, s store.Store) {
	ctx := context.Background()
	rec := store.Record{Kind: "report", ID: "rpt_1", Version: 1, Data: reportData(b)}
	if err := s.Save(ctx, rec, 0); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Load(ctx, "report", "rpt_1")
	}
}

func createSQLiteStore(b *testing.B) *store.SQLiteStore {
	b.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = s.Close() })
	return s
}

func reportData(b *testing.B) []byte {
	b.Helper()
	data, err := report.Encode(newReport(b, 10))
	if err != nil {
		b.Fatal(err)
	}
	return data
}
