// Package view turns engine state into the payloads the front-ends render.
package view

import (
	"ctchen222/tictactoe/internal/game"
	"errors"
)

// Announcement is the banner shown once a game ends.
type Announcement struct {
	Visible bool            `json:"visible"`
	Text    string          `json:"text,omitempty"`
	Winner  game.PlayerMark `json:"winner,omitempty"`
}

// State is everything a front-end needs to draw the board.
type State struct {
	Board         [game.CellCount]string `json:"board"`
	CurrentPlayer game.PlayerMark        `json:"current_player"`
	Status        game.Status            `json:"status"`
	Announcement  Announcement           `json:"announcement"`
}

// MoveResponse reports the outcome of a single move together with the new state.
type MoveResponse struct {
	Accepted bool            `json:"accepted"`
	Reason   string          `json:"reason,omitempty"`
	Index    int             `json:"index"`
	Cell     game.PlayerMark `json:"cell"`
	State    State           `json:"state"`
}

// Announce maps a status to its banner. In-progress games have none.
func Announce(status game.Status) Announcement {
	switch status {
	case game.XWon, game.OWon:
		winner := status.Winner()
		return Announcement{
			Visible: true,
			Text:    "Player " + string(winner) + " Won",
			Winner:  winner,
		}
	case game.Tie:
		return Announcement{Visible: true, Text: "Tie"}
	default:
		return Announcement{}
	}
}

// NewState snapshots g for rendering.
func NewState(g *game.Game) State {
	var board [game.CellCount]string
	for i, cell := range g.Board() {
		board[i] = string(cell)
	}
	return State{
		Board:         board,
		CurrentPlayer: g.CurrentPlayer(),
		Status:        g.Status(),
		Announcement:  Announce(g.Status()),
	}
}

// NewMoveResponse combines a move result with the state it left behind.
func NewMoveResponse(res game.MoveResult, g *game.Game) MoveResponse {
	resp := MoveResponse{
		Accepted: res.Accepted,
		Index:    res.Index,
		Cell:     res.Cell,
		State:    NewState(g),
	}
	if res.Reason != nil {
		resp.Reason = ReasonCode(res.Reason)
	}
	return resp
}

// ReasonCode gives rejected moves a stable, client-facing identifier.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidIndex):
		return "invalid_index"
	case errors.Is(err, game.ErrCellOccupied):
		return "cell_occupied"
	case errors.Is(err, game.ErrGameAlreadyOver):
		return "game_over"
	default:
		return "rejected"
	}
}
