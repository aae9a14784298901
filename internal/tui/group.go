package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

// headerItem is a non-selectable group separator in the picker list.
type headerItem struct {
	label string
}

func (h headerItem) FilterValue() string { return "" }
func (h headerItem) Title() string       { return h.label }
func (h headerItem) Description() string { return "" }

// statusGroups is the display order of picker groups.
var statusGroups = []struct {
	status runtime.ContainerStatus
	label  string
}{
	{runtime.StatusRunning, "Running"},
	{runtime.StatusStopped, "Stopped"},
	{runtime.StatusNotFound, "Missing container"},
	{runtime.StatusUnknown, "Unknown"},
}

// groupStatus folds any unexpected status into unknown.
func groupStatus(s runtime.ContainerStatus) runtime.ContainerStatus {
	switch s {
	case runtime.StatusRunning, runtime.StatusStopped, runtime.StatusNotFound:
		return s
	default:
		return runtime.StatusUnknown
	}
}

// buildGroupedItems groups entries by live container status and returns
// list items with headerItem separators. Entries keep their order inside a
// group.
func buildGroupedItems(entries []Entry) []list.Item {
	if len(entries) == 0 {
		return nil
	}

	byStatus := make(map[runtime.ContainerStatus][]Entry)
	for _, e := range entries {
		s := groupStatus(e.Status)
		byStatus[s] = append(byStatus[s], e)
	}

	var items []list.Item
	for _, g := range statusGroups {
		group := byStatus[g.status]
		if len(group) == 0 {
			continue
		}
		items = append(items, headerItem{label: g.label})
		for _, e := range group {
			items = append(items, instanceItem{entry: e})
		}
	}

	return items
}

// headerStyle is the style for group header items.
var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("241")).
	PaddingLeft(2)

// groupedDelegate renders both headerItem and instanceItem in the picker list.
type groupedDelegate struct {
	inner list.DefaultDelegate
}

// newGroupedDelegate creates a groupedDelegate wrapping a configured DefaultDelegate.
func newGroupedDelegate() groupedDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	return groupedDelegate{inner: delegate}
}

func (d groupedDelegate) Height() int                             { return d.inner.Height() }
func (d groupedDelegate) Spacing() int                            { return d.inner.Spacing() }
func (d groupedDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d groupedDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	if h, ok := item.(headerItem); ok {
		fmt.Fprint(w, headerStyle.Render(h.label))
		return
	}

	d.inner.Render(w, m, index, item)
}

// skipHeaders adjusts the cursor position to skip headerItem entries.
// direction should be 1 (down) or -1 (up).
func skipHeaders(l *list.Model, direction int) {
	items := l.Items()
	if len(items) == 0 {
		return
	}

	idx := l.Index()
	if _, ok := items[idx].(headerItem); !ok {
		return
	}

	// Try to move in the given direction first
	next := idx + direction
	if next >= 0 && next < len(items) {
		if _, ok := items[next].(headerItem); !ok {
			l.Select(next)
			return
		}
	}

	// Fall back to the opposite direction
	opposite := idx - direction
	if opposite >= 0 && opposite < len(items) {
		if _, ok := items[opposite].(headerItem); !ok {
			l.Select(opposite)
			return
		}
	}

	for i := 0; i < len(items); i++ {
		candidate := (idx + i*direction + len(items)) % len(items)
		if _, ok := items[candidate].(headerItem); !ok {
			l.Select(candidate)
			return
		}
	}
}

// isHeaderSelected returns true if the currently selected item is a headerItem.
func isHeaderSelected(l *list.Model) bool {
	if item := l.SelectedItem(); item != nil {
		_, ok := item.(headerItem)
		return ok
	}
	return false
}

// navigationDirection returns 1 for down/j keys, -1 for up/k keys.
func navigationDirection(msg tea.KeyMsg) int {
	switch msg.String() {
	case "up", "k":
		return -1
	default:
		return 1
	}
}

// headerCount returns the number of headerItems in items.
func headerCount(items []list.Item) int {
	count := 0
	for _, item := range items {
		if _, ok := item.(headerItem); ok {
			count++
		}
	}
	return count
}
