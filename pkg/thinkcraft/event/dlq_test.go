package event_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

func failedDelivery(name, handler string) *event.FailedDelivery {
	f := event.NewFailedDelivery(newEvent(name), handler, errors.New("boom"))
	f.NextRetryAt = time.Now().Add(-time.Second)
	return f
}

func TestInMemoryDLQ_EnqueueDequeue(t *testing.T) {
	ctx := context.Background()
	dlq := event.NewInMemoryDLQ(event.DLQConfig{})

	first := failedDelivery("A", "h")
	time.Sleep(time.Millisecond)
	second := failedDelivery("B", "h")
	notDue := event.NewFailedDelivery(newEvent("C"), "h", errors.New("boom"))

	require.NoError(t, dlq.Enqueue(ctx, second))
	require.NoError(t, dlq.Enqueue(ctx, first))
	require.NoError(t, dlq.Enqueue(ctx, notDue))

	count, err := dlq.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	due, err := dlq.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "A", due[0].Name, "oldest failure first")
	assert.Equal(t, "B", due[1].Name)

	count, _ = dlq.Count(ctx)
	assert.Equal(t, 1, count)
}

func TestInMemoryDLQ_SameEventDifferentHandlers(t *testing.T) {
	ctx := context.Background()
	dlq := event.NewInMemoryDLQ(event.DLQConfig{})
	evt := newEvent("X")

	require.NoError(t, dlq.Enqueue(ctx, event.NewFailedDelivery(evt, "audit", errors.New("a"))))
	require.NoError(t, dlq.Enqueue(ctx, event.NewFailedDelivery(evt, "cache", errors.New("b"))))

	count, _ := dlq.Count(ctx)
	assert.Equal(t, 2, count)
}

func TestInMemoryDLQ_MaxSize(t *testing.T) {
	ctx := context.Background()
	dlq := event.NewInMemoryDLQ(event.DLQConfig{MaxSize: 1})

	require.NoError(t, dlq.Enqueue(ctx, failedDelivery("A", "h")))
	assert.ErrorIs(t, dlq.Enqueue(ctx, failedDelivery("B", "h")), event.ErrQueueFull)
}

func TestInMemoryDLQ_ParkAndUnpark(t *testing.T) {
	ctx := context.Background()
	var parkedCalls atomic.Int32
	dlq := event.NewInMemoryDLQ(event.DLQConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnPark:     func(*event.ParkedDelivery) { parkedCalls.Add(1) },
	})

	f := failedDelivery("X", "h")
	require.NoError(t, dlq.Enqueue(ctx, f))

	due, _ := dlq.Dequeue(ctx, 1)
	require.Len(t, due, 1)
	dlq.RecordFailure(ctx, due[0], errors.New("again"))
	assert.Equal(t, 1, dlq.Stats().QueueSize)
	assert.Equal(t, "again", due[0].ErrorMessage)

	time.Sleep(5 * time.Millisecond)
	due, _ = dlq.Dequeue(ctx, 1)
	require.Len(t, due, 1)
	dlq.RecordFailure(ctx, due[0], errors.New("still"))

	stats := dlq.Stats()
	assert.Equal(t, 0, stats.QueueSize)
	assert.Equal(t, 1, stats.ParkedSize)
	assert.Equal(t, int32(1), parkedCalls.Load())

	parked := dlq.Parked()
	require.Len(t, parked, 1)
	assert.Equal(t, "max retries exceeded", parked[0].ParkReason)

	require.NoError(t, dlq.Unpark(ctx, f.Key()))
	assert.Equal(t, 1, dlq.Stats().QueueSize)
	assert.Error(t, dlq.Unpark(ctx, f.Key()))
}

func TestInMemoryDLQ_EnqueueExhaustedParksImmediately(t *testing.T) {
	ctx := context.Background()
	dlq := event.NewInMemoryDLQ(event.DLQConfig{MaxRetries: 1})

	f := failedDelivery("X", "h")
	f.AttemptCount = 1
	require.NoError(t, dlq.Enqueue(ctx, f))

	assert.Equal(t, 0, dlq.Stats().QueueSize)
	assert.Equal(t, 1, dlq.Stats().ParkedSize)
}

func TestRedeliverer_Run(t *testing.T) {
	dlq := event.NewInMemoryDLQ(event.DLQConfig{RetryDelay: time.Millisecond})
	bus := event.NewBus(event.BusConfig{DLQ: dlq})

	var calls atomic.Int32
	bus.Subscribe("X", event.HandlerFunc(func(context.Context, event.DomainEvent) error {
		if calls.Add(1) == 1 {
			return errors.New("first call fails")
		}
		return nil
	}), event.WithName("projector"))

	require.NoError(t, bus.Publish(context.Background(), newEvent("X")))

	ctx, cancel := context.WithCancel(context.Background())
	r := event.NewRedeliverer(dlq, bus, event.RedelivererConfig{PollInterval: 5 * time.Millisecond})
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		return dlq.Stats().Recovered == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRedeliverer_FailureReschedules(t *testing.T) {
	dlq := event.NewInMemoryDLQ(event.DLQConfig{RetryDelay: time.Millisecond, MaxRetries: 5})
	bus := event.NewBus(event.BusConfig{DLQ: dlq})
	bus.Subscribe("X", event.HandlerFunc(func(context.Context, event.DomainEvent) error {
		return errors.New("never works")
	}), event.WithName("broken"))

	require.NoError(t, bus.Publish(context.Background(), newEvent("X")))
	time.Sleep(5 * time.Millisecond)

	r := event.NewRedeliverer(dlq, bus, event.RedelivererConfig{})
	assert.Equal(t, 0, r.ProcessBatch(context.Background()))

	stats := dlq.Stats()
	assert.Equal(t, 1, stats.QueueSize)
	assert.Equal(t, int64(1), stats.Retried)
}
