// Package store persists aggregate snapshots.
//
// A Record is the encoded snapshot of one aggregate, keyed by kind
// ("report", "share", ...) and id. Writes are guarded by the aggregate
// version: Save succeeds only when the stored version equals the version
// the caller last loaded, so two writers racing on the same aggregate
// cannot silently overwrite each other.
package store

import (
	"context"
	"errors"
	"time"
)

// Store persists aggregate records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save writes rec if the stored version of (rec.Kind, rec.ID) equals
	// expectedVersion. A missing record has version 0.
	// Returns ErrVersionConflict otherwise.
	Save(ctx context.Context, rec Record, expectedVersion int) error

	// Load retrieves a record.
	// Returns ErrNotFound if it doesn't exist.
	Load(ctx context.Context, kind, id string) (Record, error)

	// List returns metadata for every record of kind, ordered by id.
	// Returns an empty slice (not error) when there are none.
	List(ctx context.Context, kind string) ([]Info, error)

	// Delete removes a record.
	// Returns nil if it doesn't exist.
	Delete(ctx context.Context, kind, id string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Record is one stored aggregate snapshot.
type Record struct {
	Kind      string
	ID        string
	Version   int
	Data      []byte
	UpdatedAt time.Time
}

// Info provides metadata without loading the snapshot.
type Info struct {
	Kind      string
	ID        string
	Version   int
	UpdatedAt time.Time
	Size      int64
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("store closed")

	// ErrVersionConflict indicates the record changed since it was loaded.
	ErrVersionConflict = errors.New("version conflict")
)
