package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

// RedisBus publishes session events over Redis Pub/Sub so that every server
// instance sharing the Redis store sees them.
type RedisBus struct {
	rdb *redis.Client
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func (b *RedisBus) Publish(ctx context.Context, sessionID string, ev Event) error {
	ctx, span := tracer.Start(ctx, "events.Publish", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("event.type", ev.Type),
	))
	defer span.End()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, channelName(sessionID), data).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish event")
		return fmt.Errorf("failed to publish %s event: %w", ev.Type, err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so events
// published after it returns are not missed.
func (b *RedisBus) Subscribe(ctx context.Context, sessionID string) (*Subscription, error) {
	channel := channelName(sessionID)
	pubsub := b.rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Error("could not unmarshal session event", "channel", channel, "error", err)
				continue
			}
			select {
			case out <- ev:
			case <-done:
				return
			default:
				slog.Warn("dropping event for slow subscriber", "session.id", sessionID, "event.type", ev.Type)
			}
		}
	}()

	var once sync.Once
	return &Subscription{
		C: out,
		close: func() {
			once.Do(func() {
				close(done)
				_ = pubsub.Close()
			})
		},
	}, nil
}
