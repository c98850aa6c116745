package tui

import (
	"ctchen222/tictactoe/internal/game"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, m model, keys ...tea.KeyMsg) (model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		var ok bool
		m, ok = next.(model)
		require.True(t, ok)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_CursorMovement(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want int
	}{
		{name: "Starts in the centre", want: 4},
		{name: "Up", keys: []tea.KeyMsg{{Type: tea.KeyUp}}, want: 1},
		{name: "Clamped at the top", keys: []tea.KeyMsg{runes("k"), runes("k")}, want: 1},
		{name: "Down and right", keys: []tea.KeyMsg{runes("j"), runes("l")}, want: 8},
		{name: "Clamped at the left", keys: []tea.KeyMsg{{Type: tea.KeyLeft}, runes("h")}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := press(t, newModel(), tt.keys...)
			assert.Equal(t, tt.want, m.cursor)
		})
	}
}

func TestModel_PlacingMarks(t *testing.T) {
	t.Run("Enter places at the cursor", func(t *testing.T) {
		m, _ := press(t, newModel(), tea.KeyMsg{Type: tea.KeyEnter})

		cell, err := m.game.Cell(4)
		require.NoError(t, err)
		assert.Equal(t, game.PlayerX, cell)
		assert.Equal(t, game.PlayerO, m.game.CurrentPlayer())
	})

	t.Run("Digits place directly", func(t *testing.T) {
		m, _ := press(t, newModel(), runes("1"), runes("9"))

		assert.Equal(t, game.Board{
			game.PlayerX, game.None, game.None,
			game.None, game.None, game.None,
			game.None, game.None, game.PlayerO,
		}, m.game.Board())
		assert.Equal(t, 8, m.cursor)
	})

	t.Run("Rejected move shows a transient message", func(t *testing.T) {
		m, cmd := press(t, newModel(), runes("5"), runes("5"))

		assert.Equal(t, "That cell is already taken.", m.message)
		require.NotNil(t, cmd)

		next, _ := m.Update(clearMessageMsg{seq: m.messageSeq})
		assert.Empty(t, next.(model).message)
	})

	t.Run("Stale clear does not hide a newer message", func(t *testing.T) {
		m, _ := press(t, newModel(), runes("5"), runes("5"), runes("5"))

		next, _ := m.Update(clearMessageMsg{seq: m.messageSeq - 1})
		assert.NotEmpty(t, next.(model).message)
	})
}

func TestModel_WinResetAndQuit(t *testing.T) {
	m, _ := press(t, newModel(), runes("1"), runes("2"), runes("5"), runes("3"), runes("9"))

	require.Equal(t, game.XWon, m.game.Status())
	assert.Contains(t, m.View(), "Player X Won")

	m, _ = press(t, m, runes("4"))
	assert.Equal(t, "The game is over. Press r to play again.", m.message)

	m, _ = press(t, m, runes("r"))
	assert.Equal(t, game.InProgress, m.game.Status())
	assert.Equal(t, game.Board{}, m.game.Board())
	assert.Contains(t, m.View(), "Player X to move")

	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := press(t, newModel(), runes("?"))
	assert.True(t, m.help.ShowAll)

	m, _ = press(t, m, runes("?"))
	assert.False(t, m.help.ShowAll)
}
