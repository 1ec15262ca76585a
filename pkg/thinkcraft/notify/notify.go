// Package notify relays domain events to other processes over Redis
// pub/sub.
//
// The Relay is an asynchronous bus subscriber that publishes the JSON
// projection of each event on a channel. Listeners (web sockets, other
// service instances) subscribe to the channel and decode messages with
// event.Decode.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/observability"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "thinkcraft:events"

// Publisher is the subset of a Redis client used by the relay.
// *redis.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Relay publishes events on a Redis channel.
type Relay struct {
	client  Publisher
	channel string
	logger  *slog.Logger
}

// NewRelay creates a relay. An empty channel means DefaultChannel.
func NewRelay(client Publisher, channel string, logger *slog.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{
		client:  client,
		channel: channel,
		logger:  observability.EnrichLogger(logger, "notify"),
	}
}

// Channel returns the channel events are published on.
func (r *Relay) Channel() string { return r.channel }

// Handle implements event.Handler.
func (r *Relay) Handle(ctx context.Context, evt event.DomainEvent) error {
	msg, err := event.Encode(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	receivers, err := r.client.Publish(ctx, r.channel, msg).Result()
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	if r.logger != nil {
		r.logger.DebugContext(ctx, "event relayed",
			slog.String("event_name", evt.EventName()),
			slog.String("channel", r.channel),
			slog.Int64("receivers", receivers),
		)
	}
	return nil
}

// Subscribe registers the relay asynchronously for each name. opts are
// applied after the default name.
func (r *Relay) Subscribe(bus event.Subscriber, names []string, opts ...event.SubscribeOption) []*event.Subscription {
	opts = append([]event.SubscribeOption{event.WithName("notify")}, opts...)
	subs := make([]*event.Subscription, 0, len(names))
	for _, name := range names {
		subs = append(subs, bus.SubscribeAsync(name, r, opts...))
	}
	return subs
}

// Listen subscribes to channel and calls fn for every decodable message
// until ctx is done. Messages that fail to decode are logged and skipped.
func Listen(ctx context.Context, client *redis.Client, channel string, logger *slog.Logger, fn func(event.Base)) error {
	if channel == "" {
		channel = DefaultChannel
	}
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			evt, err := event.Decode([]byte(m.Payload))
			if err != nil {
				if logger != nil {
					logger.WarnContext(ctx, "bad relay payload", slog.String("error", err.Error()))
				}
				continue
			}
			fn(evt)
		}
	}
}

// Compile-time check that Relay implements event.Handler.
var _ event.Handler = (*Relay)(nil)
