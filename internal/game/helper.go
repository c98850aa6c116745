package game

// WinningLines lists every row, column and diagonal in the order they are scanned.
var WinningLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// ValidIndex reports whether index addresses a cell on the board.
func ValidIndex(index int) bool {
	return index >= CellMin && index <= CellMax
}

// Opponent returns the other player. None has no opponent.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return None
	}
}

// IsPlayer reports whether m is X or O.
func (m PlayerMark) IsPlayer() bool {
	return m == PlayerX || m == PlayerO
}

// Winner returns the player a terminal status belongs to, or None.
func (s Status) Winner() PlayerMark {
	switch s {
	case XWon:
		return PlayerX
	case OWon:
		return PlayerO
	default:
		return None
	}
}

// IsTerminal reports whether s ends the game.
func (s Status) IsTerminal() bool {
	return s == XWon || s == OWon || s == Tie
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == InProgress || s.IsTerminal()
}

// WinStatus maps a player to the status announcing their win.
func WinStatus(p PlayerMark) Status {
	if p == PlayerO {
		return OWon
	}
	return XWon
}

// WinningLine returns the first completed line on the board.
func WinningLine(b Board) ([3]int, bool) {
	for _, line := range WinningLines {
		a := b[line[0]]
		if a != None && a == b[line[1]] && a == b[line[2]] {
			return line, true
		}
	}
	return [3]int{}, false
}

// IsBoardFull reports whether no empty cell remains.
func IsBoardFull(b Board) bool {
	for _, cell := range b {
		if cell == None {
			return false
		}
	}
	return true
}

// Outcome derives the status of a board without knowing who moved last. Under
// legal play the owner of the completed line is the mover.
func Outcome(b Board) Status {
	if line, ok := WinningLine(b); ok {
		return WinStatus(b[line[0]])
	}
	if IsBoardFull(b) {
		return Tie
	}
	return InProgress
}
