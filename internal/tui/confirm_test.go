package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		name string
		def  bool
		keys []tea.KeyMsg
		want bool
	}{
		{"enter keeps false default", false, []tea.KeyMsg{{Type: tea.KeyEnter}}, false},
		{"enter keeps true default", true, []tea.KeyMsg{{Type: tea.KeyEnter}}, true},
		{"y answers yes", false, []tea.KeyMsg{key('y')}, true},
		{"n answers no", true, []tea.KeyMsg{key('n')}, false},
		{"esc answers no", true, []tea.KeyMsg{{Type: tea.KeyEsc}}, false},
		{"toggle then enter", false, []tea.KeyMsg{{Type: tea.KeyLeft}, {Type: tea.KeyEnter}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m tea.Model = newConfirmModel("Remove instance alice?", tt.def)
			var cmd tea.Cmd
			for _, k := range tt.keys {
				m, cmd = m.Update(k)
			}
			c := m.(confirmModel)
			if !c.answered {
				t.Fatal("prompt should be answered")
			}
			if cmd == nil {
				t.Error("answering should quit")
			}
			if c.value != tt.want {
				t.Errorf("value = %v, want %v", c.value, tt.want)
			}
		})
	}
}

func TestConfirmView(t *testing.T) {
	c := newConfirmModel("Remove instance alice?", false)
	view := c.View()
	if !strings.Contains(view, "Remove instance alice?") {
		t.Error("view should contain the question")
	}
	if !strings.Contains(view, "[No]") {
		t.Error("default should be highlighted")
	}

	c.answered = true
	if c.View() != "" {
		t.Error("answered view should be empty")
	}
}
