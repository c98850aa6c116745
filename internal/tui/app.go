// Package tui is a hot-seat terminal front-end: both players share one
// keyboard and one engine.
package tui

import (
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/view"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// messageTTL is how long a rejection stays on screen.
const messageTTL = 2 * time.Second

var rejectionText = map[string]string{
	"invalid_index": "That cell does not exist.",
	"cell_occupied": "That cell is already taken.",
	"game_over":     "The game is over. Press r to play again.",
}

type clearMessageMsg struct {
	seq int
}

type model struct {
	theme Theme
	keys  keyMap
	help  help.Model

	game   *game.Game
	cursor int

	message    string
	messageSeq int
}

func Run() error {
	p := tea.NewProgram(newModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel() model {
	return model{
		theme:  DefaultTheme(),
		keys:   defaultKeyMap(),
		help:   help.New(),
		game:   game.NewGame(),
		cursor: 4,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case clearMessageMsg:
		if msg.seq == m.messageSeq {
			m.message = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			if m.cursor >= 3 {
				m.cursor -= 3
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < 6 {
				m.cursor += 3
			}
		case key.Matches(msg, m.keys.Left):
			if m.cursor%3 > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Right):
			if m.cursor%3 < 2 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Place):
			return m.place(m.cursor)
		case key.Matches(msg, m.keys.Cell):
			index := int(msg.Runes[0] - '1')
			m.cursor = index
			return m.place(index)
		case key.Matches(msg, m.keys.Reset):
			m.game.Reset()
			m.message = ""
			slog.Debug("Game reset")
		}
	}
	return m, nil
}

func (m model) place(index int) (tea.Model, tea.Cmd) {
	res := m.game.Move(index)
	if res.Accepted {
		m.message = ""
		if res.Status.IsTerminal() {
			slog.Debug("Game finished", "status", res.Status)
		}
		return m, nil
	}

	m.messageSeq++
	m.message = rejectionText[view.ReasonCode(res.Reason)]
	seq := m.messageSeq
	return m, tea.Tick(messageTTL, func(time.Time) tea.Msg {
		return clearMessageMsg{seq: seq}
	})
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Tic-Tac-Toe") + "\n\n")
	b.WriteString(m.renderBoard() + "\n\n")

	status := m.game.Status()
	if a := view.Announce(status); a.Visible {
		b.WriteString(m.theme.Banner.Render(a.Text) + "\n")
	} else {
		b.WriteString(m.theme.Status.Render(fmt.Sprintf("Player %s to move", m.game.CurrentPlayer())) + "\n")
	}
	b.WriteString(m.theme.Message.Render(m.message) + "\n\n")
	b.WriteString(m.help.View(m.keys))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m model) renderBoard() string {
	board := m.game.Board()
	rows := make([]string, 0, 5)
	for r := 0; r < 3; r++ {
		cells := make([]string, 0, 3)
		for c := 0; c < 3; c++ {
			i := r*3 + c
			cells = append(cells, m.renderCell(i, board[i]))
		}
		rows = append(rows, strings.Join(cells, "│"))
		if r < 2 {
			rows = append(rows, strings.Repeat("─", 5)+"┼"+strings.Repeat("─", 5)+"┼"+strings.Repeat("─", 5))
		}
	}
	return strings.Join(rows, "\n")
}

func (m model) renderCell(i int, mark game.PlayerMark) string {
	var text string
	switch mark {
	case game.PlayerX:
		text = m.theme.X.Render("X")
	case game.PlayerO:
		text = m.theme.O.Render("O")
	default:
		text = m.theme.Empty.Render(fmt.Sprint(i + 1))
	}
	if i == m.cursor {
		return m.theme.Cursor.Render(text)
	}
	return m.theme.Cell.Render(text)
}
