package event

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

// Handler reacts to a published event. The returned error is observed by
// the bus (logged, counted, dead-lettered) but never reaches the publisher.
type Handler interface {
	Handle(ctx context.Context, evt DomainEvent) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt DomainEvent) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, evt DomainEvent) error {
	return f(ctx, evt)
}

// MiddlewareFunc wraps handlers to add cross-cutting concerns.
type MiddlewareFunc func(next Handler) Handler

// ChainMiddleware applies middleware in order, with first middleware outermost.
func ChainMiddleware(handler Handler, middleware ...MiddlewareFunc) Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

// LoggingMiddleware logs every handler invocation at debug level.
func LoggingMiddleware(logger *slog.Logger) MiddlewareFunc {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, evt DomainEvent) error {
			start := time.Now()
			err := next.Handle(ctx, evt)
			if logger != nil {
				attrs := []any{
					slog.String("event_name", evt.EventName()),
					slog.String("event_id", evt.EventID()),
					slog.String("handler", handlerName(next)),
					slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				}
				if err != nil {
					attrs = append(attrs, slog.String("error", err.Error()))
				}
				logger.DebugContext(ctx, "handler invoked", attrs...)
			}
			return err
		})
	}
}

// handlerName extracts a name for a handler (for logging/metrics).
func handlerName(h Handler) string {
	if f, ok := h.(HandlerFunc); ok {
		return fmt.Sprintf("func@%x", reflect.ValueOf(f).Pointer())
	}
	return fmt.Sprintf("%T", h)
}

// sameHandler reports whether a and b refer to the same handler. Function
// handlers compare by code pointer; other handlers compare with == when
// their dynamic type allows it.
func sameHandler(a, b Handler) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, aIsFunc := a.(HandlerFunc)
	fb, bIsFunc := b.(HandlerFunc)
	if aIsFunc || bIsFunc {
		if !aIsFunc || !bIsFunc || fa == nil || fb == nil {
			return false
		}
		return reflect.ValueOf(fa).Pointer() == reflect.ValueOf(fb).Pointer()
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
