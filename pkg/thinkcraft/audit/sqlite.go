package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/store"
)

// SQLiteLog persists audit entries to SQLite.
type SQLiteLog struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteLog opens (and creates if needed) an audit log at path.
func NewSQLiteLog(path string) (*SQLiteLog, error) {
	db, err := store.OpenSQLite(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL UNIQUE,
			event_name TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			data BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_aggregate ON audit_events(aggregate_id, seq);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteLog{db: db}, nil
}

// Append implements Log.
func (l *SQLiteLog) Append(ctx context.Context, evt event.DomainEvent) error {
	if evt == nil {
		return event.ErrNilEvent
	}
	data, err := event.Encode(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLogClosed
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO audit_events (event_id, event_name, aggregate_id, recorded_at, data)
		VALUES (?, ?, ?, ?, ?)
	`, evt.EventID(), evt.EventName(), evt.AggregateID(), time.Now().UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ByAggregate implements Log.
func (l *SQLiteLog) ByAggregate(ctx context.Context, aggregateID string) ([]Entry, error) {
	return l.query(ctx, `
		SELECT seq, recorded_at, data FROM audit_events
		WHERE aggregate_id = ?
		ORDER BY seq
	`, aggregateID)
}

// Recent implements Log.
func (l *SQLiteLog) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	return l.query(ctx, `
		SELECT seq, recorded_at, data FROM audit_events
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
}

func (l *SQLiteLog) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrLogClosed
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			recordedAt string
			data       []byte
		)
		if err := rows.Scan(&e.Seq, &recordedAt, &data); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if e.Event, err = event.Decode(data); err != nil {
			return nil, fmt.Errorf("audit entry %d: %w", e.Seq, err)
		}
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// Close implements Log.
func (l *SQLiteLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	return l.db.Close()
}

// Compile-time check that SQLiteLog implements Log.
var _ Log = (*SQLiteLog)(nil)
