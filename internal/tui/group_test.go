package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

func entry(name string, port int, status runtime.ContainerStatus) Entry {
	return Entry{
		Record: &registry.Record{Name: name, Container: "openclaw-" + name, Port: port},
		Status: status,
	}
}

func TestGroupStatus(t *testing.T) {
	tests := []struct {
		in   runtime.ContainerStatus
		want runtime.ContainerStatus
	}{
		{runtime.StatusRunning, runtime.StatusRunning},
		{runtime.StatusStopped, runtime.StatusStopped},
		{runtime.StatusNotFound, runtime.StatusNotFound},
		{runtime.StatusUnknown, runtime.StatusUnknown},
		{runtime.ContainerStatus("paused"), runtime.StatusUnknown},
		{"", runtime.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := groupStatus(tt.in); got != tt.want {
				t.Errorf("groupStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildGroupedItems(t *testing.T) {
	t.Run("empty entries", func(t *testing.T) {
		items := buildGroupedItems(nil)
		if items != nil {
			t.Errorf("expected nil, got %d items", len(items))
		}
	})

	t.Run("single group", func(t *testing.T) {
		items := buildGroupedItems([]Entry{
			entry("alice", 18789, runtime.StatusRunning),
			entry("bob", 19009, runtime.StatusRunning),
		})

		// Expect 1 header + 2 instance items
		if len(items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(items))
		}
		h, ok := items[0].(headerItem)
		if !ok {
			t.Fatal("first item should be a headerItem")
		}
		if h.label != "Running" {
			t.Errorf("header label = %q, want Running", h.label)
		}
		if items[1].(instanceItem).entry.Record.Name != "alice" {
			t.Error("order inside a group should be preserved")
		}
	})

	t.Run("groups follow status order", func(t *testing.T) {
		items := buildGroupedItems([]Entry{
			entry("carol", 19229, runtime.StatusNotFound),
			entry("bob", 19009, runtime.StatusStopped),
			entry("alice", 18789, runtime.StatusRunning),
			entry("dave", 19449, runtime.ContainerStatus("paused")),
		})

		var labels []string
		for _, item := range items {
			if h, ok := item.(headerItem); ok {
				labels = append(labels, h.label)
			}
		}
		want := []string{"Running", "Stopped", "Missing container", "Unknown"}
		if len(labels) != len(want) {
			t.Fatalf("headers = %v, want %v", labels, want)
		}
		for i := range want {
			if labels[i] != want[i] {
				t.Errorf("header[%d] = %q, want %q", i, labels[i], want[i])
			}
		}
		if headerCount(items) != 4 || len(items) != 8 {
			t.Errorf("got %d items with %d headers", len(items), headerCount(items))
		}
	})
}

func TestHeaderItem(t *testing.T) {
	h := headerItem{label: "Running"}
	if h.Title() != "Running" {
		t.Errorf("Title() = %q", h.Title())
	}
	if h.Description() != "" {
		t.Errorf("Description() = %q, want empty", h.Description())
	}
	if h.FilterValue() != "" {
		t.Errorf("FilterValue() = %q, want empty", h.FilterValue())
	}
}

func TestHeaderCount(t *testing.T) {
	items := []list.Item{
		headerItem{label: "a"},
		instanceItem{entry: entry("x", 18789, runtime.StatusRunning)},
		headerItem{label: "b"},
		newItem{},
	}
	if got := headerCount(items); got != 2 {
		t.Errorf("headerCount() = %d, want 2", got)
	}
}

func TestSkipHeaders(t *testing.T) {
	items := buildGroupedItems([]Entry{
		entry("alice", 18789, runtime.StatusRunning),
		entry("bob", 19009, runtime.StatusStopped),
	})
	l := list.New(items, newGroupedDelegate(), 80, 40)

	t.Run("moves off the leading header", func(t *testing.T) {
		l.Select(0)
		skipHeaders(&l, 1)
		if l.Index() != 1 {
			t.Errorf("Index() = %d, want 1", l.Index())
		}
		if isHeaderSelected(&l) {
			t.Error("header should not be selected")
		}
	})

	t.Run("moving up from a middle header", func(t *testing.T) {
		l.Select(2)
		skipHeaders(&l, -1)
		if l.Index() != 1 {
			t.Errorf("Index() = %d, want 1", l.Index())
		}
	})

	t.Run("moving down from a middle header", func(t *testing.T) {
		l.Select(2)
		skipHeaders(&l, 1)
		if l.Index() != 3 {
			t.Errorf("Index() = %d, want 3", l.Index())
		}
	})

	t.Run("non-header left alone", func(t *testing.T) {
		l.Select(3)
		skipHeaders(&l, 1)
		if l.Index() != 3 {
			t.Errorf("Index() = %d, want 3", l.Index())
		}
	})
}

func TestNavigationDirection(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want int
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, -1},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}, -1},
		{tea.KeyMsg{Type: tea.KeyDown}, 1},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, 1},
	}
	for _, tt := range tests {
		if got := navigationDirection(tt.key); got != tt.want {
			t.Errorf("navigationDirection(%q) = %d, want %d", tt.key.String(), got, tt.want)
		}
	}
}
