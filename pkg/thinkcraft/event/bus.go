package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/observability"
)

// Publisher is the side of the bus used by application services.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent) error
	PublishAll(ctx context.Context, events ...DomainEvent) error
}

// Subscriber is the side of the bus used by handlers at startup.
type Subscriber interface {
	Subscribe(name string, h Handler, opts ...SubscribeOption) *Subscription
	SubscribeAsync(name string, h Handler, opts ...SubscribeOption) *Subscription
	Unsubscribe(name string, h Handler) bool
}

// BusConfig configures bus behavior.
type BusConfig struct {
	// Logger receives publish and failure logs. Nil disables logging.
	Logger *slog.Logger

	// Metrics records publish and handler metrics.
	// Default: observability.NoopMetrics{}
	Metrics observability.MetricsRecorder

	// Spans creates publish and handler spans.
	// Default: observability.NoopSpanManager{}
	Spans observability.SpanManager

	// Catalog lists known events. Used for validation when Strict is set.
	Catalog *Catalog

	// Strict rejects events that are not registered in Catalog or that miss
	// required payload keys.
	Strict bool

	// AsyncLimit bounds concurrently running async handlers. Publish never
	// waits for a slot; queued handlers wait in their own goroutine.
	// Default: 0 (unlimited)
	AsyncLimit int64

	// DefaultTimeout applies to handlers subscribed without WithTimeout.
	// Default: 0 (no timeout)
	DefaultTimeout time.Duration

	// DefaultRetry applies to handlers subscribed without WithRetry.
	// Default: tcerrors.NoRetry
	DefaultRetry tcerrors.RetryConfig

	// DLQ receives failed deliveries (optional).
	DLQ DeadLetterQueue

	// OnError is called for every handler failure after logging.
	OnError func(*HandlerError)
}

// DefaultBusConfig provides reasonable defaults.
var DefaultBusConfig = BusConfig{
	AsyncLimit:   256,
	DefaultRetry: tcerrors.NoRetry,
}

// Bus is an in-process publish/subscribe dispatcher with two subscription
// tables keyed by event name: synchronous handlers run in registration order
// inside Publish, asynchronous handlers run in their own goroutines.
//
// Handler lists are copy-on-write: Publish works on the lists as they were
// when it started, so subscribing or unsubscribing (including from inside a
// handler) takes effect on the next Publish.
type Bus struct {
	config  BusConfig
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	sem     *semaphore.Weighted

	mu         sync.RWMutex
	syncSubs   map[string][]*Subscription
	asyncSubs  map[string][]*Subscription
	middleware []MiddlewareFunc

	nextID atomic.Uint64

	asyncMu   sync.Mutex
	asyncRun  int
	asyncIdle chan struct{}
}

// NewBus creates a bus. A zero BusConfig is valid.
func NewBus(config BusConfig) *Bus {
	if config.Metrics == nil {
		config.Metrics = observability.NoopMetrics{}
	}
	if config.Spans == nil {
		config.Spans = observability.NoopSpanManager{}
	}
	if config.DefaultRetry.MaxAttempts <= 0 {
		config.DefaultRetry = tcerrors.NoRetry
	}

	b := &Bus{
		config:    config,
		logger:    observability.EnrichLogger(config.Logger, "event_bus"),
		metrics:   config.Metrics,
		spans:     config.Spans,
		syncSubs:  make(map[string][]*Subscription),
		asyncSubs: make(map[string][]*Subscription),
	}
	if config.AsyncLimit > 0 {
		b.sem = semaphore.NewWeighted(config.AsyncLimit)
	}
	return b
}

// Subscription is one handler registration.
type Subscription struct {
	bus     *Bus
	id      uint64
	name    string
	label   string
	async   bool
	handler Handler // as registered, used for identity
	wrapped Handler // with middleware applied
	timeout time.Duration
	retry   tcerrors.RetryConfig
}

// EventName returns the event name the subscription listens to.
func (s *Subscription) EventName() string { return s.name }

// HandlerName returns the handler label used in logs and dead letters.
func (s *Subscription) HandlerName() string { return s.label }

// Async reports whether the handler is fire-and-forget.
func (s *Subscription) Async() bool { return s.async }

// Unsubscribe removes exactly this registration. It reports whether the
// registration was still present.
func (s *Subscription) Unsubscribe() bool {
	if s == nil || s.bus == nil {
		return false
	}
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	table := b.syncSubs
	if s.async {
		table = b.asyncSubs
	}
	idx := slices.Index(table[s.name], s)
	if idx < 0 {
		return false
	}
	setList(table, s.name, slices.Delete(slices.Clone(table[s.name]), idx, idx+1))
	observability.LogUnsubscribe(b.logger, s.name, 1)
	return true
}

// SubscribeOption configures a single registration.
type SubscribeOption func(*Subscription)

// WithName labels the handler for logs, metrics and redelivery. Without
// it the label is the handler's type or function plus the registration id.
func WithName(name string) SubscribeOption {
	return func(s *Subscription) {
		s.label = name
	}
}

// WithTimeout bounds each invocation. A handler still running at the
// deadline is abandoned and reported as a timeout.
func WithTimeout(d time.Duration) SubscribeOption {
	return func(s *Subscription) {
		s.timeout = d
	}
}

// WithRetry retries failed invocations inline.
func WithRetry(cfg tcerrors.RetryConfig) SubscribeOption {
	return func(s *Subscription) {
		s.retry = cfg
	}
}

// Use adds middleware that applies to subsequently subscribed handlers.
func (b *Bus) Use(middleware MiddlewareFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middleware = append(b.middleware, middleware)
}

// Subscribe registers a synchronous handler. Registering the same handler
// twice makes it run twice.
func (b *Bus) Subscribe(name string, h Handler, opts ...SubscribeOption) *Subscription {
	return b.subscribe(name, h, false, opts)
}

// SubscribeAsync registers a fire-and-forget handler.
func (b *Bus) SubscribeAsync(name string, h Handler, opts ...SubscribeOption) *Subscription {
	return b.subscribe(name, h, true, opts)
}

func (b *Bus) subscribe(name string, h Handler, async bool, opts []SubscribeOption) *Subscription {
	if name == "" || h == nil {
		return nil
	}

	id := b.nextID.Add(1)
	sub := &Subscription{
		bus:     b,
		id:      id,
		name:    name,
		label:   fmt.Sprintf("%s#%d", handlerName(h), id),
		async:   async,
		handler: h,
		timeout: b.config.DefaultTimeout,
		retry:   b.config.DefaultRetry,
	}
	for _, opt := range opts {
		opt(sub)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub.wrapped = ChainMiddleware(h, b.middleware...)

	table := b.syncSubs
	if async {
		table = b.asyncSubs
	}
	// Clip forces a fresh backing array so in-flight snapshots never alias.
	table[name] = append(slices.Clip(table[name]), sub)

	observability.LogSubscribe(b.logger, name, sub.label, async)
	return sub
}

// Unsubscribe removes the first registration of h for name from each table.
// It is a no-op when h is not registered. Closures built from the same
// function literal share a code pointer and are indistinguishable here; use
// Subscription.Unsubscribe to remove one of those.
func (b *Bus) Unsubscribe(name string, h Handler) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for _, table := range []map[string][]*Subscription{b.syncSubs, b.asyncSubs} {
		list := table[name]
		idx := slices.IndexFunc(list, func(s *Subscription) bool {
			return sameHandler(s.handler, h)
		})
		if idx < 0 {
			continue
		}
		setList(table, name, slices.Delete(slices.Clone(list), idx, idx+1))
		removed++
	}

	if removed > 0 {
		observability.LogUnsubscribe(b.logger, name, removed)
	}
	return removed > 0
}

// setList stores list, dropping the key when it becomes empty.
func setList(table map[string][]*Subscription, name string, list []*Subscription) {
	if len(list) == 0 {
		delete(table, name)
		return
	}
	table[name] = list
}

// Clear removes every subscription from both tables. Publishes already in
// progress finish with the handlers they started with.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for _, list := range b.syncSubs {
		removed += len(list)
	}
	for _, list := range b.asyncSubs {
		removed += len(list)
	}
	b.syncSubs = make(map[string][]*Subscription)
	b.asyncSubs = make(map[string][]*Subscription)

	observability.LogClear(b.logger, removed)
}

// SubscriberCount returns the number of sync plus async registrations for
// name.
func (b *Bus) SubscriberCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.syncSubs[name]) + len(b.asyncSubs[name])
}

// SubscribedEvents returns the sorted union of event names with at least
// one registration in either table.
func (b *Bus) SubscribedEvents() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[string]struct{}, len(b.syncSubs)+len(b.asyncSubs))
	for name := range b.syncSubs {
		seen[name] = struct{}{}
	}
	for name := range b.asyncSubs {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Publish delivers evt to every handler registered for its name.
//
// Synchronous handlers run in registration order and each one finishes
// before the next starts. A failing or panicking handler is logged and
// skipped; it never stops the remaining handlers. Asynchronous handlers are
// then started without waiting. The returned error only reports an event
// that could not be dispatched at all (nil, unnamed, or unknown in strict
// mode); handler failures are never returned.
func (b *Bus) Publish(ctx context.Context, evt DomainEvent) error {
	if err := b.validate(ctx, evt); err != nil {
		return err
	}
	name := evt.EventName()

	b.mu.RLock()
	syncSubs := b.syncSubs[name]
	asyncSubs := b.asyncSubs[name]
	b.mu.RUnlock()

	ctx, span := b.spans.StartPublishSpan(ctx, name, evt.EventID())
	defer b.spans.EndSpanWithError(span, nil)

	observability.LogPublish(ctx, b.logger, name, evt.EventID(), evt.AggregateID(), evt.OccurredOn(),
		len(syncSubs), len(asyncSubs))
	b.metrics.RecordPublish(ctx, name, len(syncSubs), len(asyncSubs))

	// Sync handlers all run even if the caller gives up midway; each one
	// is bounded by its own timeout instead.
	sctx := context.WithoutCancel(ctx)
	for _, sub := range syncSubs {
		_ = b.deliver(sctx, sub, evt)
	}
	for _, sub := range asyncSubs {
		b.dispatchAsync(ctx, sub, evt)
	}
	return nil
}

// PublishAll publishes events one at a time, in order: every sync handler of
// one event finishes before any handler of the next event starts. Events
// that cannot be dispatched are skipped and their errors joined.
func (b *Bus) PublishAll(ctx context.Context, events ...DomainEvent) error {
	var errs []error
	for i, evt := range events {
		if err := b.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("event %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Drain blocks until every async handler started so far has returned, or
// ctx is done. Tests use it to observe async side effects deterministically.
func (b *Bus) Drain(ctx context.Context) error {
	b.asyncMu.Lock()
	if b.asyncRun == 0 {
		b.asyncMu.Unlock()
		return nil
	}
	idle := b.asyncIdle
	b.asyncMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Redeliver re-invokes the handler named in failed for its event. Only
// that handler runs; failures are returned instead of being dead-lettered
// again.
func (b *Bus) Redeliver(ctx context.Context, failed *FailedDelivery) error {
	if failed == nil || failed.Event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	var target *Subscription
	for _, list := range [][]*Subscription{b.syncSubs[failed.Name], b.asyncSubs[failed.Name]} {
		for _, sub := range list {
			if sub.label == failed.Handler {
				target = sub
				break
			}
		}
		if target != nil {
			break
		}
	}
	b.mu.RUnlock()

	if target == nil {
		return &tcerrors.NotFoundError{Kind: "handler", ID: failed.Handler}
	}

	start := time.Now()
	err := b.invoke(ctx, target, failed.Event)
	b.metrics.RecordHandler(ctx, failed.Name, target.label, target.async, time.Since(start), err)
	return err
}

func (b *Bus) validate(ctx context.Context, evt DomainEvent) error {
	var err error
	switch {
	case evt == nil:
		err = ErrNilEvent
	case evt.EventName() == "":
		err = ErrUnnamedEvent
	case b.config.Strict && b.config.Catalog != nil:
		err = b.config.Catalog.Validate(evt)
	}
	if err == nil {
		return nil
	}

	name := ""
	if evt != nil {
		name = evt.EventName()
	}
	observability.LogPublishRejected(ctx, b.logger, name, err)
	b.metrics.RecordRejected(ctx, rejectReason(err))
	return err
}

func rejectReason(err error) string {
	switch err {
	case ErrNilEvent:
		return "nil"
	case ErrUnnamedEvent:
		return "unnamed"
	default:
		return "catalog"
	}
}

// deliver runs one handler with instrumentation and failure isolation.
func (b *Bus) deliver(ctx context.Context, sub *Subscription, evt DomainEvent) error {
	start := time.Now()
	hctx, span := b.spans.StartHandlerSpan(ctx, sub.name, sub.label, sub.async)
	err := b.invoke(hctx, sub, evt)
	b.spans.EndSpanWithError(span, err)
	b.metrics.RecordHandler(ctx, sub.name, sub.label, sub.async, time.Since(start), err)

	if err != nil {
		b.handleFailure(ctx, sub, evt, err)
	}
	return err
}

// invoke applies timeout and retry around a recovered handler call.
func (b *Bus) invoke(ctx context.Context, sub *Subscription, evt DomainEvent) error {
	result := tcerrors.WithRetryContext(ctx, sub.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.callWithTimeout(ctx, sub, evt)
	})
	return result.Err
}

func (b *Bus) callWithTimeout(ctx context.Context, sub *Subscription, evt DomainEvent) error {
	if sub.timeout <= 0 {
		return safeCall(ctx, sub, evt)
	}

	ctx, cancel := context.WithTimeout(ctx, sub.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- safeCall(ctx, sub, evt)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return &tcerrors.TimeoutError{
			Operation: "handler " + sub.label + " for " + evt.EventName(),
			Duration:  sub.timeout.String(),
		}
	}
}

// safeCall turns a handler panic into an error.
func safeCall(ctx context.Context, sub *Subscription, evt DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{
				Event:   evt,
				Handler: sub.label,
				Async:   sub.async,
				Message: fmt.Sprintf("handler panic: %v", r),
			}
		}
	}()
	return sub.wrapped.Handle(ctx, evt)
}

func (b *Bus) handleFailure(ctx context.Context, sub *Subscription, evt DomainEvent, err error) {
	observability.LogHandlerError(ctx, b.logger, evt.EventName(), evt.EventID(), sub.label, sub.async, err)

	if b.config.DLQ != nil {
		enqueueErr := b.config.DLQ.Enqueue(ctx, NewFailedDelivery(evt, sub.label, err))
		observability.LogDeadLetter(ctx, b.logger, evt.EventName(), sub.label, enqueueErr)
	}

	if b.config.OnError != nil {
		herr, ok := err.(*HandlerError)
		if !ok {
			herr = &HandlerError{
				Event:   evt,
				Handler: sub.label,
				Async:   sub.async,
				Message: "handler failed",
				Err:     err,
			}
		}
		herr.Timestamp = time.Now()
		b.config.OnError(herr)
	}
}

// dispatchAsync starts sub in its own goroutine. The handler context keeps
// the publisher's values (trace span) but not its cancellation.
func (b *Bus) dispatchAsync(ctx context.Context, sub *Subscription, evt DomainEvent) {
	b.asyncStarted()
	actx := context.WithoutCancel(ctx)

	go func() {
		defer b.asyncFinished()

		if b.sem != nil {
			if err := b.sem.Acquire(actx, 1); err != nil {
				b.handleFailure(actx, sub, evt, err)
				return
			}
			defer b.sem.Release(1)
		}

		b.metrics.AsyncInFlight(actx, 1)
		defer b.metrics.AsyncInFlight(actx, -1)

		_ = b.deliver(actx, sub, evt)
	}()
}

func (b *Bus) asyncStarted() {
	b.asyncMu.Lock()
	defer b.asyncMu.Unlock()
	if b.asyncRun == 0 {
		b.asyncIdle = make(chan struct{})
	}
	b.asyncRun++
}

func (b *Bus) asyncFinished() {
	b.asyncMu.Lock()
	defer b.asyncMu.Unlock()
	b.asyncRun--
	if b.asyncRun == 0 {
		close(b.asyncIdle)
	}
}
