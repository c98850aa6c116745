package proto

import "ctchen222/tictactoe/internal/view"

// Client message types
const (
	TypeMove  = "move"
	TypeReset = "reset"
	TypeState = "state"
)

// Server message types
const (
	TypeUpdate   = "update"
	TypeRejected = "rejected"
	TypeEnded    = "ended"
	TypeError    = "error"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type  string `json:"type" validate:"required,oneof=move reset state"`
	Index *int   `json:"index,omitempty" validate:"required_if=Type move"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type   string             `json:"type" validate:"required"`
	Reason string             `json:"reason,omitempty"`
	State  *view.State        `json:"state,omitempty"`
	Move   *view.MoveResponse `json:"move,omitempty"`
}

func UpdateMessage(state view.State) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeUpdate, State: &state}
}

func RejectedMessage(resp view.MoveResponse) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeRejected, Reason: resp.Reason, Move: &resp, State: &resp.State}
}

func ErrorMessage(reason string) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeError, Reason: reason}
}
