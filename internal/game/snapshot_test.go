package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestore_RoundTrip(t *testing.T) {
	for _, moves := range [][]int{
		nil,
		{4},
		{4, 0},
		{0, 1, 4, 2, 8},
		{0, 2, 1, 4, 8, 6},
		{0, 2, 1, 3, 5, 4, 6, 8, 7},
	} {
		g := NewGame()
		for _, idx := range moves {
			require.True(t, g.Move(idx).Accepted)
		}

		data, err := json.Marshal(g.Snapshot())
		require.NoError(t, err)

		var snap Snapshot
		require.NoError(t, json.Unmarshal(data, &snap))
		restored, err := Restore(snap)

		require.NoError(t, err, "moves %v", moves)
		assert.Equal(t, g.Board(), restored.Board())
		assert.Equal(t, g.CurrentPlayer(), restored.CurrentPlayer())
		assert.Equal(t, g.Status(), restored.Status())
	}
}

func TestRestore_RejectsImpossibleStates(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{
			name: "unknown mark",
			snap: Snapshot{Board: Board{"Z"}, CurrentPlayer: PlayerO, Status: InProgress},
		},
		{
			name: "O ahead of X",
			snap: Snapshot{Board: Board{PlayerO}, CurrentPlayer: PlayerX, Status: InProgress},
		},
		{
			name: "unknown status",
			snap: Snapshot{CurrentPlayer: PlayerX, Status: "paused"},
		},
		{
			name: "status disagrees with board",
			snap: Snapshot{CurrentPlayer: PlayerX, Status: XWon},
		},
		{
			name: "wrong player to move",
			snap: Snapshot{Board: Board{PlayerX}, CurrentPlayer: PlayerX, Status: InProgress},
		},
		{
			name: "empty current player",
			snap: Snapshot{Status: InProgress},
		},
		{
			name: "winner did not move last",
			snap: Snapshot{
				Board: Board{
					PlayerX, PlayerX, PlayerX,
					PlayerO, PlayerO, None,
					PlayerO, None, None,
				},
				CurrentPlayer: PlayerX,
				Status:        XWon,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Restore(tt.snap)

			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}
