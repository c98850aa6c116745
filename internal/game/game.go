package game

import (
	"errors"
	"fmt"
)

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

// Status is the outcome of a game at a point in time.
type Status string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Game statuses
	InProgress Status = "in_progress"
	XWon       Status = "x_won"
	OWon       Status = "o_won"
	Tie        Status = "tie"

	// Board boundaries
	CellMin   = 0
	CellMax   = 8
	CellCount = 9
)

var (
	ErrInvalidIndex    = errors.New("cell index out of range")
	ErrCellOccupied    = errors.New("cell already occupied")
	ErrGameAlreadyOver = errors.New("game already finished")
)

// Board holds the nine cells in row-major order.
type Board [CellCount]PlayerMark

// Game is a single tic-tac-toe game. It is not safe for concurrent use.
type Game struct {
	board   Board
	current PlayerMark
	status  Status
}

// MoveResult describes what happened to a Move call.
// Reason is nil when the move was accepted.
type MoveResult struct {
	Accepted      bool
	Reason        error
	Index         int
	Cell          PlayerMark
	CurrentPlayer PlayerMark
	Status        Status
}

// NewGame returns an empty board with X to move.
func NewGame() *Game {
	g := &Game{}
	g.Reset()
	return g
}

// Move places the current player's mark on index. A rejected move leaves the
// game untouched and reports why in the result.
func (g *Game) Move(index int) MoveResult {
	if err := g.validateMove(index); err != nil {
		res := MoveResult{
			Reason:        err,
			Index:         index,
			CurrentPlayer: g.current,
			Status:        g.status,
		}
		if !errors.Is(err, ErrInvalidIndex) {
			res.Cell = g.board[index]
		}
		return res
	}

	mover := g.current
	g.board[index] = mover
	g.status = g.evaluate(mover)
	if g.status == InProgress {
		g.current = mover.Opponent()
	}

	return MoveResult{
		Accepted:      true,
		Index:         index,
		Cell:          mover,
		CurrentPlayer: g.current,
		Status:        g.status,
	}
}

// Reset clears the board and hands the first move back to X.
func (g *Game) Reset() {
	g.board = Board{}
	g.current = PlayerX
	g.status = InProgress
}

// Cell returns the mark stored at index.
func (g *Game) Cell(index int) (PlayerMark, error) {
	if !ValidIndex(index) {
		return None, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return g.board[index], nil
}

func (g *Game) CurrentPlayer() PlayerMark {
	return g.current
}

func (g *Game) Status() Status {
	return g.status
}

// Board returns a copy of the cells.
func (g *Game) Board() Board {
	return g.board
}

// IsOver reports whether the game has reached a terminal status.
func (g *Game) IsOver() bool {
	return g.status != InProgress
}

func (g *Game) validateMove(index int) error {
	if !ValidIndex(index) {
		return ErrInvalidIndex
	}
	if g.IsOver() {
		return ErrGameAlreadyOver
	}
	if g.board[index] != None {
		return ErrCellOccupied
	}
	return nil
}

// evaluate runs right after mover's mark has been placed.
func (g *Game) evaluate(mover PlayerMark) Status {
	if _, ok := WinningLine(g.board); ok {
		return WinStatus(mover)
	}
	if IsBoardFull(g.board) {
		return Tie
	}
	return InProgress
}
