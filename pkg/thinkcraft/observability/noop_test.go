package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordPublish(ctx, "X", 1, 1)
		m.RecordRejected(ctx, "nil")
		m.RecordHandler(ctx, "X", "h", true, time.Second, errors.New("x"))
		m.AsyncInFlight(ctx, 1)
	})
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	newCtx, span := sm.StartPublishSpan(ctx, "X", "id")
	assert.Equal(t, ctx, newCtx)
	assert.False(t, span.IsRecording())

	newCtx, span = sm.StartHandlerSpan(ctx, "X", "h", false)
	assert.Equal(t, ctx, newCtx)

	assert.NotPanics(t, func() {
		sm.EndSpanWithError(span, errors.New("x"))
		sm.AddSpanEvent(ctx, "e", attribute.Int("n", 1))
	})
}
