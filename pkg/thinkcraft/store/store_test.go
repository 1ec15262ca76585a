package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/store"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) store.Store

func memoryFactory(t *testing.T) store.Store {
	return store.NewMemoryStore()
}

func sqliteFactory(t *testing.T) store.Store {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return s
}

func rec(id string, version int, data string) store.Record {
	return store.Record{Kind: "report", ID: id, Version: version, Data: []byte(data)}
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContractTest(t, "memory", memoryFactory)
}

func TestSQLiteStore_Contract(t *testing.T) {
	storeContractTest(t, "sqlite", sqliteFactory)
}

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	ctx := context.Background()

	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save(ctx, rec("r1", 1, `{"k":"v"}`), 0))

		got, err := s.Load(ctx, "report", "r1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"k":"v"}`), got.Data)
		assert.Equal(t, 1, got.Version)
		assert.Equal(t, "report", got.Kind)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		_, err := s.Load(ctx, "report", "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run(name+"/Kinds_are_separate", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save(ctx, rec("x", 1, "report"), 0))
		_, err := s.Load(ctx, "share", "x")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run(name+"/Save_with_expected_version", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save(ctx, rec("r1", 2, "first"), 0))
		require.NoError(t, s.Save(ctx, rec("r1", 5, "second"), 2))

		got, err := s.Load(ctx, "report", "r1")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got.Data)
		assert.Equal(t, 5, got.Version)
	})

	t.Run(name+"/Save_conflict", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save(ctx, rec("r1", 1, "first"), 0))
		assert.ErrorIs(t, s.Save(ctx, rec("r1", 2, "stale"), 0), store.ErrVersionConflict)
		assert.ErrorIs(t, s.Save(ctx, rec("r2", 1, "ghost"), 3), store.ErrVersionConflict)

		got, err := s.Load(ctx, "report", "r1")
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), got.Data)
	})

	t.Run(name+"/List_Empty", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		infos, err := s.List(ctx, "report")
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run(name+"/List_Ordered", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save(ctx, rec("c", 1, "ccc"), 0))
		require.NoError(t, s.Save(ctx, rec("a", 1, "a"), 0))
		require.NoError(t, s.Save(ctx, rec("b", 3, "bb"), 0))
		require.NoError(t, s.Save(ctx, store.Record{Kind: "share", ID: "z", Version: 1, Data: []byte("z")}, 0))

		infos, err := s.List(ctx, "report")
		require.NoError(t, err)
		require.Len(t, infos, 3)
		assert.Equal(t, "a", infos[0].ID)
		assert.Equal(t, "b", infos[1].ID)
		assert.Equal(t, "c", infos[2].ID)
		assert.Equal(t, int64(2), infos[1].Size)
		assert.Equal(t, 3, infos[1].Version)
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save(ctx, rec("r1", 1, "x"), 0))
		require.NoError(t, s.Delete(ctx, "report", "r1"))
		_, err := s.Load(ctx, "report", "r1")
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.NoError(t, s.Delete(ctx, "report", "r1"))
		assert.NoError(t, s.Save(ctx, rec("r1", 1, "again"), 0))
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Close())

		assert.ErrorIs(t, s.Save(ctx, rec("r1", 1, "x"), 0), store.ErrStoreClosed)
		_, err := s.Load(ctx, "report", "r1")
		assert.ErrorIs(t, err, store.ErrStoreClosed)
		_, err = s.List(ctx, "report")
		assert.ErrorIs(t, err, store.ErrStoreClosed)
		assert.ErrorIs(t, s.Delete(ctx, "report", "r1"), store.ErrStoreClosed)
	})

	t.Run(name+"/Data_is_copied", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		data := []byte("original")
		require.NoError(t, s.Save(ctx, store.Record{Kind: "report", ID: "r1", Version: 1, Data: data}, 0))
		data[0] = 'X'

		got, err := s.Load(ctx, "report", "r1")
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), got.Data)
		got.Data[0] = 'Y'

		again, err := s.Load(ctx, "report", "r1")
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), again.Data)
	})

	t.Run(name+"/Concurrent_writers_conflict", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save(ctx, rec("r1", 1, "base"), 0))

		const writers = 10
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Save(ctx, rec("r1", 2, fmt.Sprintf("w%d", i)), 1)
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, store.ErrVersionConflict)
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, succeeded)
	})
}

func TestSQLiteStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s1, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, rec("r1", 1, "persistent"), 0))
	require.NoError(t, s1.Close())

	s2, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Load(ctx, "report", "r1")
	require.NoError(t, err)
	assert.Equal(t, []byte("persistent"), got.Data)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, rec("r1", 1, "x"), 0))
	_, err = s.Load(ctx, "report", "r1")
	assert.NoError(t, err)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := store.NewSQLiteStore("/nonexistent/path/db.sqlite")
	assert.Error(t, err)
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	s := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Save(ctx, rec("r1", 1, "x"), 0), context.Canceled)
	assert.Zero(t, s.Len())
}
