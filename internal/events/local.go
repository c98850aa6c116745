package events

import (
	"context"
	"log/slog"
	"sync"
)

type localSubscriber struct {
	ch chan Event
}

// LocalBus is an in-process Bus used when game state lives in this process.
type LocalBus struct {
	mu   sync.Mutex
	subs map[string]map[*localSubscriber]struct{}
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]map[*localSubscriber]struct{})}
}

// Publish never blocks; subscribers whose buffer is full miss the event.
func (b *LocalBus) Publish(ctx context.Context, sessionID string, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[sessionID] {
		select {
		case sub.ch <- ev:
		default:
			slog.WarnContext(ctx, "dropping event for slow subscriber", "session.id", sessionID, "event.type", ev.Type)
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(_ context.Context, sessionID string) (*Subscription, error) {
	sub := &localSubscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[*localSubscriber]struct{})
	}
	b.subs[sessionID][sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return &Subscription{
		C: sub.ch,
		close: func() {
			once.Do(func() {
				b.mu.Lock()
				defer b.mu.Unlock()
				delete(b.subs[sessionID], sub)
				if len(b.subs[sessionID]) == 0 {
					delete(b.subs, sessionID)
				}
				close(sub.ch)
			})
		},
	}, nil
}
