// Package simui is the terminal front end of the simulator.
package simui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chase3718/pi-ano/internal/instrument"
	"github.com/chase3718/pi-ano/internal/keymatrix"
	"github.com/chase3718/pi-ano/internal/pitch"
)

// keyLayout maps terminal keys onto the matrix, one keyboard row per matrix row.
var keyLayout = [keymatrix.Rows][keymatrix.Cols]string{
	{"1", "2", "3", "4"},
	{"q", "w", "e", "r"},
	{"a", "s", "d", "f"},
	{"z", "x", "c", "v"},
}

const maxLogLines = 8

// Sink forwards events to a running program.
type Sink struct {
	P *tea.Program
}

func (s Sink) HandleEvent(e instrument.Event) { s.P.Send(EventMsg(e)) }

// EventMsg carries an instrument event into the program.
type EventMsg instrument.Event

type voiceView struct {
	pin  int
	note string
}

// Model shows the matrix, the voices and recent events, and turns key presses
// into held cells on the virtual board.
type Model struct {
	board  *keymatrix.Virtual
	octave int
	voices [instrument.Capacity]voiceView
	log    []string
}

func NewModel(board *keymatrix.Virtual, octave int) Model {
	m := Model{board: board, octave: octave}
	for i, pin := range instrument.DefaultVoicePins {
		m.voices[i] = voiceView{pin: pin}
	}
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch k := msg.String(); k {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space":
			m.board.ReleaseAll()
		default:
			if c, ok := cellFor(k); ok {
				m.board.Toggle(c)
			}
		}
	case EventMsg:
		m.apply(instrument.Event(msg))
	}
	return m, nil
}

func (m *Model) apply(e instrument.Event) {
	switch e.Kind {
	case instrument.OctaveChange:
		m.octave = e.Octave
	case instrument.NoteOn:
		m.setVoice(e.Pin, pitch.Name(e.Note()))
	case instrument.NoteOff:
		m.setVoice(e.Pin, "")
	}
	m.log = append(m.log, e.Message())
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func (m *Model) setVoice(pin int, note string) {
	for i := range m.voices {
		if m.voices[i].pin == pin {
			m.voices[i].note = note
		}
	}
}

func cellFor(k string) (keymatrix.Cell, bool) {
	for r, row := range keyLayout {
		for c, key := range row {
			if key == k {
				return keymatrix.Cell{Row: r, Col: c}, true
			}
		}
	}
	return keymatrix.Cell{}, false
}

// -------------------- View --------------------

var (
	cellStyle = lipgloss.NewStyle().
			Width(7).
			Align(lipgloss.Center).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	heldStyle = cellStyle.
			BorderForeground(lipgloss.Color("205")).
			Foreground(lipgloss.Color("205")).
			Bold(true)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func cellLabel(key, octave int) string {
	switch {
	case key == keymatrix.KeyOctaveDown:
		return "Oct-"
	case key == keymatrix.KeyOctaveUp:
		return "Oct+"
	case pitch.IsChromatic(key):
		return pitch.Name(pitch.MIDINote(key, octave))
	}
	return "·"
}

func (m Model) View() string {
	held := m.board.Pressed()
	var rows []string
	for r := 0; r < keymatrix.Rows; r++ {
		var cells []string
		for c := 0; c < keymatrix.Cols; c++ {
			cell := keymatrix.Cell{Row: r, Col: c}
			label := fmt.Sprintf("%s\n%s", cellLabel(keymatrix.DefaultKeyMap.Key(cell), m.octave), dimStyle.Render("["+keyLayout[r][c]+"]"))
			style := cellStyle
			if held.At(cell) {
				style = heldStyle
			}
			cells = append(cells, style.Render(label))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	grid := lipgloss.JoinVertical(lipgloss.Left, rows...)

	var side strings.Builder
	side.WriteString(titleStyle.Render(fmt.Sprintf("octave %d", m.octave)))
	side.WriteString("\n\n")
	for _, v := range m.voices {
		note := v.note
		if note == "" {
			note = dimStyle.Render("free")
		}
		fmt.Fprintf(&side, "pin %2d  %s\n", v.pin, note)
	}
	side.WriteString("\n")
	for _, line := range m.log {
		side.WriteString(dimStyle.Render(line))
		side.WriteString("\n")
	}

	help := dimStyle.Render("keys toggle held notes · space releases all · esc quits")
	body := lipgloss.JoinHorizontal(lipgloss.Top, grid, "  ", side.String())
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("pi-ano"), body, help)
}
