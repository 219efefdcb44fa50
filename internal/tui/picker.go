// Package tui provides the interactive terminal components.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pickerKeys are the picker keybindings.
type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Select key.Binding
	Quit   key.Binding
}

var pickerKeys = pickerKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Top:    key.NewBinding(key.WithKeys("g")),
	Bottom: key.NewBinding(key.WithKeys("G")),
	Select: key.NewBinding(key.WithKeys("enter")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
}

// ErrCanceled is returned when the user quits a picker without choosing.
var ErrCanceled = errors.New("selection canceled")

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Bold(true)

	pickerCursorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("86"))

	pickerItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	pickerDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	pickerHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)

// PickerModel is the Bubble Tea model for a single-choice list.
type PickerModel struct {
	title   string
	options []string

	cursor       int
	offset       int
	selected     int
	canceled     bool
	quitting     bool
	windowHeight int
}

// NewPickerModel creates a picker over the given options.
func NewPickerModel(title string, options []string) PickerModel {
	return PickerModel{
		title:        title,
		options:      options,
		selected:     -1,
		windowHeight: 24,
	}
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowHeight = msg.Height
		m.scrollToCursor()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, pickerKeys.Quit):
			m.canceled = true
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, pickerKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, pickerKeys.Down):
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}

		case key.Matches(msg, pickerKeys.Top):
			m.cursor = 0

		case key.Matches(msg, pickerKeys.Bottom):
			m.cursor = len(m.options) - 1

		case key.Matches(msg, pickerKeys.Select):
			if len(m.options) > 0 {
				m.selected = m.cursor
				m.quitting = true
				return m, tea.Quit
			}
		}
		m.scrollToCursor()
	}
	return m, nil
}

func (m PickerModel) visibleRows() int {
	return max(m.windowHeight-5, 1)
}

// scrollToCursor keeps the cursor inside the visible window.
func (m *PickerModel) scrollToCursor() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// View implements tea.Model.
func (m PickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(m.title))
	b.WriteString("\n\n")

	if len(m.options) == 0 {
		b.WriteString(pickerDimStyle.Render("  (nothing to choose from)"))
		b.WriteString("\n")
		b.WriteString(pickerHelpStyle.Render("q: quit"))
		return b.String()
	}

	visible := m.visibleRows()
	end := min(m.offset+visible, len(m.options))
	for i := m.offset; i < end; i++ {
		if i == m.cursor {
			b.WriteString(pickerCursorStyle.Render("> "))
			b.WriteString(pickerItemStyle.Bold(true).Render(m.options[i]))
		} else {
			b.WriteString("  ")
			b.WriteString(pickerItemStyle.Render(m.options[i]))
		}
		b.WriteString("\n")
	}

	if end < len(m.options) {
		b.WriteString(pickerDimStyle.Render(fmt.Sprintf("  … %d more", len(m.options)-end)))
		b.WriteString("\n")
	}

	b.WriteString(pickerHelpStyle.Render("j/k: move   g/G: top/bottom   enter: select   q: quit"))
	return b.String()
}

// Selected returns the chosen index, or false if nothing was chosen.
func (m PickerModel) Selected() (int, bool) {
	if m.canceled || m.selected < 0 {
		return -1, false
	}
	return m.selected, true
}

// Pick runs an interactive picker and returns the index of the chosen option.
func Pick(title string, options []string) (int, error) {
	p := tea.NewProgram(NewPickerModel(title, options))
	final, err := p.Run()
	if err != nil {
		return -1, fmt.Errorf("failed to run picker: %w", err)
	}

	m, ok := final.(PickerModel)
	if !ok {
		return -1, errors.New("unexpected picker model type")
	}
	idx, chosen := m.Selected()
	if !chosen {
		return -1, ErrCanceled
	}
	return idx, nil
}
