package cli

import "ctchen222/tictactoe/internal/tui"

// runTUI is swapped out in tests, which have no terminal.
var runTUI = tui.Run
