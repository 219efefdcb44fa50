package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m PickerModel, keys ...string) PickerModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		var ok bool
		m, ok = next.(PickerModel)
		if !ok {
			t.Fatalf("unexpected model type %T", next)
		}
	}
	return m
}

func TestPickerNavigationAndSelect(t *testing.T) {
	m := NewPickerModel("Pick one", []string{"alice", "bob", "carol"})

	m = update(t, m, "j", "j", "enter")

	idx, ok := m.Selected()
	if !ok {
		t.Fatal("expected a selection")
	}
	if idx != 2 {
		t.Errorf("selected index = %d, want 2", idx)
	}
}

func TestPickerCursorBounds(t *testing.T) {
	m := NewPickerModel("Pick one", []string{"a", "b"})

	m = update(t, m, "k", "k")
	if m.cursor != 0 {
		t.Errorf("cursor underflowed to %d", m.cursor)
	}

	m = update(t, m, "j", "j", "j", "j")
	if m.cursor != 1 {
		t.Errorf("cursor overflowed to %d", m.cursor)
	}
}

func TestPickerJumpKeys(t *testing.T) {
	m := NewPickerModel("Pick one", []string{"a", "b", "c", "d"})

	m = update(t, m, "G")
	if m.cursor != 3 {
		t.Errorf("G moved cursor to %d, want 3", m.cursor)
	}
	m = update(t, m, "g")
	if m.cursor != 0 {
		t.Errorf("g moved cursor to %d, want 0", m.cursor)
	}
}

func TestPickerCancel(t *testing.T) {
	m := NewPickerModel("Pick one", []string{"a", "b"})

	m = update(t, m, "q")

	if _, ok := m.Selected(); ok {
		t.Error("expected no selection after cancel")
	}
}

func TestPickerEnterOnEmptyList(t *testing.T) {
	m := NewPickerModel("Pick one", nil)

	m = update(t, m, "enter")

	if _, ok := m.Selected(); ok {
		t.Error("expected no selection from an empty list")
	}
}

func TestPickerView(t *testing.T) {
	m := NewPickerModel("Authors", []string{"alice", "bob"})

	view := m.View()
	if !strings.Contains(view, "Authors") {
		t.Errorf("expected title in view, got %q", view)
	}
	if !strings.Contains(view, "alice") || !strings.Contains(view, "bob") {
		t.Errorf("expected options in view, got %q", view)
	}
}

func TestPickerViewScrollsToCursor(t *testing.T) {
	options := make([]string, 50)
	for i := range options {
		options[i] = strings.Repeat("x", 3)
	}
	options[49] = "last-option"

	m := NewPickerModel("Long", options)
	m.windowHeight = 10
	m = update(t, m, "G")

	if m.offset == 0 {
		t.Error("expected the window offset to follow the cursor")
	}
	if !strings.Contains(m.View(), "last-option") {
		t.Error("expected view to scroll to the cursor")
	}

	m = update(t, m, "g")
	if m.offset != 0 {
		t.Errorf("offset = %d after jumping to top, want 0", m.offset)
	}
	if !strings.Contains(m.View(), options[0]) {
		t.Error("expected view to scroll back to the top")
	}
}
