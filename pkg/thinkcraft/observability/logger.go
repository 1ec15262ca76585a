// Package observability provides structured logging, metrics and tracing
// helpers for the event bus and its subscribers.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// ParseLevel converts a level name from configuration to a slog.Level.
// Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EnrichLogger tags a logger with the component that owns it.
//
// Example:
//
//	busLogger := EnrichLogger(logger, "event_bus")
//	busLogger.Info("ready") // includes component=event_bus
func EnrichLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("component", component))
}

// LogSubscribe logs a handler registration.
func LogSubscribe(logger *slog.Logger, eventName, handler string, async bool) {
	if logger == nil {
		return
	}
	logger.Debug("handler subscribed",
		slog.String("event_name", eventName),
		slog.String("handler", handler),
		slog.Bool("async", async),
	)
}

// LogUnsubscribe logs a handler removal.
func LogUnsubscribe(logger *slog.Logger, eventName string, removed int) {
	if logger == nil {
		return
	}
	logger.Debug("handler unsubscribed",
		slog.String("event_name", eventName),
		slog.Int("removed", removed),
	)
}

// LogClear logs a full subscription reset.
func LogClear(logger *slog.Logger, removed int) {
	if logger == nil {
		return
	}
	logger.Info("subscriptions cleared",
		slog.Int("removed", removed),
	)
}

// LogPublish logs an event being dispatched.
func LogPublish(ctx context.Context, logger *slog.Logger, eventName, eventID, aggregateID string, occurredOn time.Time, syncHandlers, asyncHandlers int) {
	if logger == nil {
		return
	}
	logger.InfoContext(ctx, "event published",
		slog.String("event_name", eventName),
		slog.String("event_id", eventID),
		slog.String("aggregate_id", aggregateID),
		slog.Time("occurred_on", occurredOn),
		slog.Int("sync_handlers", syncHandlers),
		slog.Int("async_handlers", asyncHandlers),
	)
}

// LogPublishRejected logs an event that failed validation before dispatch.
func LogPublishRejected(ctx context.Context, logger *slog.Logger, eventName string, err error) {
	if logger == nil {
		return
	}
	logger.WarnContext(ctx, "event rejected",
		slog.String("event_name", eventName),
		slog.String("error", err.Error()),
	)
}

// LogHandlerError logs a handler failure caught at the bus boundary.
func LogHandlerError(ctx context.Context, logger *slog.Logger, eventName, eventID, handler string, async bool, err error) {
	if logger == nil {
		return
	}
	logger.ErrorContext(ctx, "event handler failed",
		slog.String("event_name", eventName),
		slog.String("event_id", eventID),
		slog.String("handler", handler),
		slog.Bool("async", async),
		slog.String("error", err.Error()),
	)
}

// LogDeadLetter logs a delivery handed to the dead-letter queue, or the
// failure to do so.
func LogDeadLetter(ctx context.Context, logger *slog.Logger, eventName, handler string, enqueueErr error) {
	if logger == nil {
		return
	}
	if enqueueErr != nil {
		logger.ErrorContext(ctx, "dead-letter enqueue failed",
			slog.String("event_name", eventName),
			slog.String("handler", handler),
			slog.String("error", enqueueErr.Error()),
		)
		return
	}
	logger.WarnContext(ctx, "delivery dead-lettered",
		slog.String("event_name", eventName),
		slog.String("handler", handler),
	)
}

// LogRedelivery logs the outcome of a dead-letter redelivery attempt.
func LogRedelivery(ctx context.Context, logger *slog.Logger, eventName, handler string, attempt int, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.WarnContext(ctx, "redelivery failed",
			slog.String("event_name", eventName),
			slog.String("handler", handler),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.InfoContext(ctx, "redelivery succeeded",
		slog.String("event_name", eventName),
		slog.String("handler", handler),
		slog.Int("attempt", attempt),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
