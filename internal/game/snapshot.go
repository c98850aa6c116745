package game

import (
	"errors"
	"fmt"
)

var ErrInvalidSnapshot = errors.New("invalid game snapshot")

// Snapshot is the serialisable form of a Game used by the session stores.
type Snapshot struct {
	Board         Board      `json:"board"`
	CurrentPlayer PlayerMark `json:"current_player"`
	Status        Status     `json:"status"`
}

// Snapshot copies the game state.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Board:         g.board,
		CurrentPlayer: g.current,
		Status:        g.status,
	}
}

// Restore rebuilds a Game from a snapshot, refusing states that legal play
// could not have produced.
func Restore(s Snapshot) (*Game, error) {
	var xCount, oCount int
	for i, cell := range s.Board {
		switch cell {
		case PlayerX:
			xCount++
		case PlayerO:
			oCount++
		case None:
		default:
			return nil, fmt.Errorf("%w: cell %d holds %q", ErrInvalidSnapshot, i, cell)
		}
	}
	if xCount != oCount && xCount != oCount+1 {
		return nil, fmt.Errorf("%w: %d X marks against %d O marks", ErrInvalidSnapshot, xCount, oCount)
	}
	if !s.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidSnapshot, s.Status)
	}
	if got := Outcome(s.Board); got != s.Status {
		return nil, fmt.Errorf("%w: status %q but board says %q", ErrInvalidSnapshot, s.Status, got)
	}

	// X moved last when it holds the extra mark.
	lastMover := PlayerO
	if xCount == oCount+1 {
		lastMover = PlayerX
	}
	expected := lastMover.Opponent()
	if s.Status.IsTerminal() {
		expected = lastMover
	}
	if s.CurrentPlayer != expected {
		return nil, fmt.Errorf("%w: current player %q, expected %q", ErrInvalidSnapshot, s.CurrentPlayer, expected)
	}
	if w := s.Status.Winner(); w != None && w != lastMover {
		return nil, fmt.Errorf("%w: %q won but %q moved last", ErrInvalidSnapshot, w, lastMover)
	}

	return &Game{
		board:   s.Board,
		current: s.CurrentPlayer,
		status:  s.Status,
	}, nil
}
