package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

func TestInstanceItemMethods(t *testing.T) {
	e := entry("alice", 18789, runtime.StatusRunning)
	e.Record.Mounts = []registry.Mount{{Host: "/srv/docs", Container: "/docs", Mode: registry.MountReadOnly}}
	item := instanceItem{entry: e}

	if item.Title() != "alice" {
		t.Errorf("Title() = %q, want alice", item.Title())
	}
	if item.FilterValue() != "alice" {
		t.Errorf("FilterValue() = %q, want alice", item.FilterValue())
	}

	desc := item.Description()
	for _, want := range []string{"port 18789", "running", "1 mount(s)"} {
		if !strings.Contains(desc, want) {
			t.Errorf("Description() = %q, should contain %q", desc, want)
		}
	}
}

func TestInstanceItemStatusIcons(t *testing.T) {
	tests := []struct {
		status runtime.ContainerStatus
		icon   string
	}{
		{runtime.StatusRunning, "✓"},
		{runtime.StatusStopped, "○"},
		{runtime.StatusNotFound, "✗"},
		{runtime.StatusUnknown, "?"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			item := instanceItem{entry: entry("x", 18789, tt.status)}
			if !strings.HasPrefix(item.Description(), tt.icon) {
				t.Errorf("Description for status %v should start with %q", tt.status, tt.icon)
			}
		})
	}
}

func TestModelKeyHandling(t *testing.T) {
	entries := []Entry{entry("alice", 18789, runtime.StatusRunning)}

	t.Run("quit with q", func(t *testing.T) {
		m := NewPicker(entries, PickerOptions{})
		newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		model := newModel.(Model)

		if model.result.Action != ActionQuit {
			t.Errorf("Action = %v, want ActionQuit", model.result.Action)
		}
		if !model.quitting {
			t.Error("Model should be quitting")
		}
		if cmd == nil {
			t.Error("Should return tea.Quit command")
		}
	})

	t.Run("quit with esc", func(t *testing.T) {
		m := NewPicker(entries, PickerOptions{})
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if newModel.(Model).result.Action != ActionQuit {
			t.Errorf("Action = %v, want ActionQuit", newModel.(Model).result.Action)
		}
	})

	t.Run("enter selects instance", func(t *testing.T) {
		m := NewPicker(entries, PickerOptions{})
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		result := newModel.(Model).Result()

		if result.Action != ActionSelect {
			t.Fatalf("Action = %v, want ActionSelect", result.Action)
		}
		if result.Instance == nil || result.Instance.Name != "alice" {
			t.Errorf("Instance = %+v, want alice", result.Instance)
		}
	})

	t.Run("s stops instance", func(t *testing.T) {
		m := NewPicker(entries, PickerOptions{})
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
		if newModel.(Model).result.Action != ActionStop {
			t.Errorf("Action = %v, want ActionStop", newModel.(Model).result.Action)
		}
	})

	t.Run("n opens wizard when creation allowed", func(t *testing.T) {
		m := NewPicker(entries, PickerOptions{AllowCreate: true})
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
		model := newModel.(Model)

		if model.mode != modeWizard {
			t.Fatal("n should open the wizard")
		}
		if !model.wizard.existing["alice"] {
			t.Error("wizard should know existing names")
		}
		if !strings.Contains(model.View(), "Create New Instance") {
			t.Error("View should render the wizard")
		}
	})

	t.Run("n ignored without creation", func(t *testing.T) {
		m := NewPicker(entries, PickerOptions{})
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
		if newModel.(Model).mode != modeList {
			t.Error("wizard should not open")
		}
	})

	t.Run("window size update", func(t *testing.T) {
		m := NewPicker(entries, PickerOptions{})
		newModel, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
		model := newModel.(Model)

		if model.width != 100 || model.height != 50 {
			t.Errorf("size = %dx%d, want 100x50", model.width, model.height)
		}
		if cmd != nil {
			t.Error("Window size update should not return a command")
		}
	})
}

func TestModelWizardFlow(t *testing.T) {
	m := NewPicker([]Entry{entry("alice", 18789, runtime.StatusRunning)}, PickerOptions{AllowCreate: true})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m = next.(Model)

	m.wizard.nameInput.SetValue("bob")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // name
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // no mounts
	m = next.(Model)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // confirm
	m = next.(Model)

	result := m.Result()
	if result.Action != ActionNew {
		t.Fatalf("Action = %v, want ActionNew", result.Action)
	}
	if result.Create == nil || result.Create.Name != "bob" {
		t.Errorf("Create = %+v, want bob", result.Create)
	}
	if cmd == nil {
		t.Error("completing the wizard should quit")
	}
}

func TestModelWizardCancelReturnsToList(t *testing.T) {
	m := NewPicker([]Entry{entry("alice", 18789, runtime.StatusRunning)}, PickerOptions{AllowCreate: true})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyEsc})
	model := next.(Model)

	if model.mode != modeList {
		t.Error("esc on the first wizard step should return to the list")
	}
	if model.quitting {
		t.Error("picker should still be running")
	}
}

func TestModelInit(t *testing.T) {
	m := Model{}
	if cmd := m.Init(); cmd != nil {
		t.Error("Init() should return nil")
	}
}

func TestModelView(t *testing.T) {
	entries := []Entry{entry("alice", 18789, runtime.StatusRunning)}

	t.Run("normal view contains help", func(t *testing.T) {
		m := NewPicker(entries, PickerOptions{AllowCreate: true})
		view := m.View()

		for _, want := range []string{"[enter] Select", "[n] New", "[q] Quit"} {
			if !strings.Contains(view, want) {
				t.Errorf("View should contain %q", want)
			}
		}
	})

	t.Run("no new help without creation", func(t *testing.T) {
		m := NewPicker(entries, PickerOptions{})
		if strings.Contains(m.View(), "[n] New") {
			t.Error("View should not offer creation")
		}
	})

	t.Run("quitting view is empty", func(t *testing.T) {
		m := NewPicker(entries, PickerOptions{})
		m.quitting = true
		if view := m.View(); view != "" {
			t.Errorf("Quitting view should be empty, got %q", view)
		}
	})
}

func TestRunPickerEmpty(t *testing.T) {
	result, err := RunPicker(nil, PickerOptions{AllowCreate: true})
	if err != nil {
		t.Fatalf("RunPicker with no instances failed: %v", err)
	}
	if result.Action != ActionNew {
		t.Errorf("no instances should return ActionNew, got %v", result.Action)
	}
	if result.Create != nil {
		t.Error("no wizard should have run")
	}

	result, err = RunPicker(nil, PickerOptions{})
	if err != nil {
		t.Fatalf("RunPicker failed: %v", err)
	}
	if result.Action != ActionQuit {
		t.Errorf("no instances without creation should quit, got %v", result.Action)
	}
}

func TestSimplePicker(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out := SimplePicker(nil)
		if !strings.Contains(out, "No instances found") {
			t.Error("should report no instances")
		}
		if !strings.Contains(out, "spawn-ctl create") {
			t.Error("should suggest create command")
		}
	})

	t.Run("with instances", func(t *testing.T) {
		alice := entry("alice", 18789, runtime.StatusRunning)
		alice.Record.Mounts = []registry.Mount{{Host: "/srv/docs", Container: "/docs", Mode: registry.MountReadOnly}}
		out := SimplePicker([]Entry{alice, entry("bob", 19009, runtime.StatusStopped)})

		for _, want := range []string{"1. ✓ alice (port 18789, running)", "2. ○ bob (port 19009, stopped)", "/srv/docs:/docs:ro"} {
			if !strings.Contains(out, want) {
				t.Errorf("output should contain %q:\n%s", want, out)
			}
		}
	})
}

func TestActionConstants(t *testing.T) {
	actions := []Action{ActionNone, ActionSelect, ActionNew, ActionStop, ActionQuit}
	seen := make(map[Action]bool)
	for _, a := range actions {
		if seen[a] {
			t.Errorf("duplicate action value %d", a)
		}
		seen[a] = true
	}
}
