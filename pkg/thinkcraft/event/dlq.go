package event

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/observability"
)

// ErrQueueFull is returned by Enqueue when the DLQ is at capacity.
var ErrQueueFull = errors.New("dead-letter queue is full")

// InMemoryDLQ is an in-memory DeadLetterQueue with a parked area for
// deliveries that exhausted their retries.
type InMemoryDLQ struct {
	mu     sync.RWMutex
	queue  map[string]*FailedDelivery // keyed by FailedDelivery.Key
	parked map[string]*ParkedDelivery
	cfg    DLQConfig

	enqueued  int64
	retried   int64
	parkedN   int64
	recovered int64
}

// DLQConfig configures the dead letter queue.
type DLQConfig struct {
	// MaxSize limits the number of queued deliveries.
	// Default: 10000
	MaxSize int

	// MaxRetries before a delivery is parked.
	// Default: 5
	MaxRetries int

	// RetryDelay before the first redelivery; doubles per attempt.
	// Default: 30 seconds
	RetryDelay time.Duration

	// OnPark is called when a delivery is parked.
	OnPark func(*ParkedDelivery)
}

// DefaultDLQConfig provides reasonable defaults.
var DefaultDLQConfig = DLQConfig{
	MaxSize:    10000,
	MaxRetries: 5,
	RetryDelay: 30 * time.Second,
}

// NewInMemoryDLQ creates a new in-memory dead letter queue.
func NewInMemoryDLQ(cfg DLQConfig) *InMemoryDLQ {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultDLQConfig.MaxSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultDLQConfig.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultDLQConfig.RetryDelay
	}

	return &InMemoryDLQ{
		queue:  make(map[string]*FailedDelivery),
		parked: make(map[string]*ParkedDelivery),
		cfg:    cfg,
	}
}

// Enqueue adds a failed delivery.
func (d *InMemoryDLQ) Enqueue(_ context.Context, failed *FailedDelivery) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) >= d.cfg.MaxSize {
		return ErrQueueFull
	}

	if failed.AttemptCount >= d.cfg.MaxRetries {
		d.parkLocked(failed, "max retries exceeded")
		return nil
	}

	if failed.NextRetryAt.IsZero() {
		failed.NextRetryAt = time.Now().Add(d.cfg.RetryDelay)
	}

	d.queue[failed.Key()] = failed
	d.enqueued++
	return nil
}

// Dequeue removes and returns up to limit deliveries that are due, oldest
// failure first.
func (d *InMemoryDLQ) Dequeue(_ context.Context, limit int) ([]*FailedDelivery, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	due := make([]*FailedDelivery, 0)
	for _, f := range d.queue {
		if !f.NextRetryAt.After(now) {
			due = append(due, f)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].FirstFailedAt.Before(due[j].FirstFailedAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for _, f := range due {
		delete(d.queue, f.Key())
	}
	return due, nil
}

// Count returns the number of queued deliveries.
func (d *InMemoryDLQ) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.queue), nil
}

// RecordSuccess counts a successful redelivery.
func (d *InMemoryDLQ) RecordSuccess(_ context.Context, _ *FailedDelivery) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recovered++
}

// RecordFailure reschedules a delivery with exponential backoff, or parks it
// once it reaches MaxRetries.
func (d *InMemoryDLQ) RecordFailure(_ context.Context, failed *FailedDelivery, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	failed.AttemptCount++
	failed.LastFailedAt = time.Now()
	if err != nil {
		failed.ErrorMessage = err.Error()
	}

	if failed.AttemptCount >= d.cfg.MaxRetries {
		d.parkLocked(failed, "max retries exceeded")
		return
	}

	backoff := d.cfg.RetryDelay * time.Duration(1<<uint(failed.AttemptCount))
	failed.NextRetryAt = time.Now().Add(backoff)
	d.queue[failed.Key()] = failed
	d.retried++
}

func (d *InMemoryDLQ) parkLocked(failed *FailedDelivery, reason string) {
	parked := &ParkedDelivery{
		FailedDelivery: *failed,
		ParkReason:     reason,
		ParkedAt:       time.Now(),
	}
	d.parked[failed.Key()] = parked
	d.parkedN++

	if d.cfg.OnPark != nil {
		d.cfg.OnPark(parked)
	}
}

// Parked returns parked deliveries, oldest first.
func (d *InMemoryDLQ) Parked() []*ParkedDelivery {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*ParkedDelivery, 0, len(d.parked))
	for _, p := range d.parked {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ParkedAt.Before(out[j].ParkedAt)
	})
	return out
}

// Unpark moves a parked delivery back to the queue with a fresh retry budget.
func (d *InMemoryDLQ) Unpark(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	parked, ok := d.parked[key]
	if !ok {
		return errors.New("delivery not found in parked queue")
	}

	failed := parked.FailedDelivery
	failed.AttemptCount = 0
	failed.NextRetryAt = time.Now()

	d.queue[key] = &failed
	delete(d.parked, key)
	return nil
}

// Stats returns DLQ statistics.
func (d *InMemoryDLQ) Stats() DLQStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return DLQStats{
		QueueSize:  len(d.queue),
		ParkedSize: len(d.parked),
		Enqueued:   d.enqueued,
		Retried:    d.retried,
		Parked:     d.parkedN,
		Recovered:  d.recovered,
	}
}

// DLQStats provides statistics about the DLQ.
type DLQStats struct {
	QueueSize  int   // Current queue size
	ParkedSize int   // Current parked size
	Enqueued   int64 // Total deliveries enqueued
	Retried    int64 // Total failed redeliveries
	Parked     int64 // Total deliveries parked
	Recovered  int64 // Total successful redeliveries
}

// Redeliverer periodically drains due deliveries from an InMemoryDLQ and
// hands each one back to its handler through the bus.
type Redeliverer struct {
	dlq    *InMemoryDLQ
	bus    *Bus
	cfg    RedelivererConfig
	logger *slog.Logger
}

// RedelivererConfig configures the redelivery loop.
type RedelivererConfig struct {
	// BatchSize is the number of deliveries handled per tick.
	// Default: 10
	BatchSize int

	// PollInterval is how often to check the queue.
	// Default: 10 seconds
	PollInterval time.Duration

	// Logger receives redelivery outcomes.
	Logger *slog.Logger
}

// DefaultRedelivererConfig provides reasonable defaults.
var DefaultRedelivererConfig = RedelivererConfig{
	BatchSize:    10,
	PollInterval: 10 * time.Second,
}

// NewRedeliverer creates a redelivery loop for dlq.
func NewRedeliverer(dlq *InMemoryDLQ, bus *Bus, cfg RedelivererConfig) *Redeliverer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultRedelivererConfig.BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultRedelivererConfig.PollInterval
	}
	return &Redeliverer{
		dlq:    dlq,
		bus:    bus,
		cfg:    cfg,
		logger: observability.EnrichLogger(cfg.Logger, "redeliverer"),
	}
}

// Run processes the queue every PollInterval until ctx is done. It returns
// ctx.Err().
func (r *Redeliverer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch redelivers one batch of due deliveries and returns how many
// succeeded.
func (r *Redeliverer) ProcessBatch(ctx context.Context) int {
	due, err := r.dlq.Dequeue(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0
	}

	ok := 0
	for _, failed := range due {
		err := r.bus.Redeliver(ctx, failed)
		observability.LogRedelivery(ctx, r.logger, failed.Name, failed.Handler, failed.AttemptCount+1, err)
		if err != nil {
			r.dlq.RecordFailure(ctx, failed, err)
			continue
		}
		r.dlq.RecordSuccess(ctx, failed)
		ok++
	}
	return ok
}
