package events

import (
	"context"
	"ctchen222/tictactoe/internal/view"
	"encoding/json"
	"fmt"
)

// Pub/Sub channel prefix; one channel per game session.
const channelPrefix = "channel:game:"

// Event types
const (
	TypeGameUpdated = "game_updated"
	TypeGameEnded   = "game_ended"
)

// subscriberBuffer is how many events a slow subscriber may fall behind
// before further events are dropped for it.
const subscriberBuffer = 16

// Event represents a message published for one game session.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// GameUpdatedPayload is the payload for the "game_updated" event.
type GameUpdatedPayload struct {
	SessionID string     `json:"session_id"`
	State     view.State `json:"state"`
}

// GameEndedPayload is the payload for the "game_ended" event, published when
// a session is deleted.
type GameEndedPayload struct {
	SessionID string `json:"session_id"`
}

// NewEvent marshals payload into an Event of the given type.
func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: data}, nil
}

// Subscription delivers events for one session until Close is called.
type Subscription struct {
	C     <-chan Event
	close func()
}

// Close stops delivery and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.close()
}

// Bus fans session events out to every subscriber of that session.
type Bus interface {
	Publish(ctx context.Context, sessionID string, ev Event) error
	Subscribe(ctx context.Context, sessionID string) (*Subscription, error)
}

func channelName(sessionID string) string {
	return channelPrefix + sessionID
}
