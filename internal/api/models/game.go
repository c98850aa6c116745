package models

import "ctchen222/tictactoe/internal/view"

// MoveRequest defines the body of a move request. Index is a pointer so that
// cell 0 still satisfies "required".
type MoveRequest struct {
	Index *int `json:"index" binding:"required"`
}

// StartResponse is returned when a new game session is created.
type StartResponse struct {
	Token string     `json:"token"`
	State view.State `json:"state"`
}
