// Package tui provides terminal user interface components for spawn-ctl
package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionSelect
	ActionNew
	ActionStop
	ActionQuit
)

// Entry is one instance shown in the picker together with its live status.
type Entry struct {
	Record *registry.Record
	Status runtime.ContainerStatus
}

// PickerOptions configures the picker.
type PickerOptions struct {
	// AllowCreate adds the "new instance" entry and the creation wizard.
	AllowCreate bool

	// Title overrides the list title.
	Title string
}

// PickerResult holds the result of the picker
type PickerResult struct {
	Action   Action
	Instance *registry.Record

	// Create is set when Action is ActionNew and the wizard completed.
	Create *CreateRequest
}

// instanceItem implements list.Item for instance display
type instanceItem struct {
	entry Entry
}

func (i instanceItem) Title() string {
	return i.entry.Record.Name
}

func (i instanceItem) Description() string {
	rec := i.entry.Record
	desc := fmt.Sprintf("%s port %d | %s", statusIcon(i.entry.Status), rec.Port, i.entry.Status)
	if n := len(rec.Mounts); n > 0 {
		desc += fmt.Sprintf(" | %d mount(s)", n)
	}
	return desc
}

func (i instanceItem) FilterValue() string {
	return i.entry.Record.Name
}

// newItem is the trailing "add new instance" choice.
type newItem struct{}

func (newItem) Title() string       { return "+ Add new instance" }
func (newItem) Description() string { return "Allocate ports and create a new container" }
func (newItem) FilterValue() string { return "new" }

func statusIcon(s runtime.ContainerStatus) string {
	switch s {
	case runtime.StatusRunning:
		return "✓"
	case runtime.StatusStopped:
		return "○"
	case runtime.StatusNotFound:
		return "✗"
	default:
		return "?"
	}
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// pickerMode tracks whether the list or the wizard is active.
type pickerMode int

const (
	modeList pickerMode = iota
	modeWizard
)

// Model is the bubbletea model for the instance picker
type Model struct {
	list     list.Model
	wizard   wizardModel
	mode     pickerMode
	opts     PickerOptions
	existing map[string]bool
	result   PickerResult
	quitting bool
	width    int
	height   int
}

// NewPicker creates a new instance picker
func NewPicker(entries []Entry, opts PickerOptions) Model {
	items := buildGroupedItems(entries)
	if opts.AllowCreate {
		items = append(items, newItem{})
	}

	existing := make(map[string]bool, len(entries))
	for _, e := range entries {
		existing[e.Record.Name] = true
	}

	l := list.New(items, newGroupedDelegate(), 80, 20)
	l.Title = "OpenClaw Spawn - Select Instance"
	if opts.Title != "" {
		l.Title = opts.Title
	}
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	skipHeaders(&l, 1)

	return Model{
		list:     l,
		opts:     opts,
		existing: existing,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.list.SetSize(size.Width, size.Height-4)
		m.wizard.width = size.Width
		m.wizard.height = size.Height
		if m.mode == modeList {
			return m, nil
		}
	}

	if m.mode == modeWizard {
		done, req, cmd := m.wizard.Update(msg)
		if !done {
			return m, cmd
		}
		if req == nil {
			// cancelled: back to the list
			m.mode = modeList
			return m, nil
		}
		m.result = PickerResult{Action: ActionNew, Create: req}
		m.quitting = true
		return m, tea.Quit
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "enter":
			switch item := m.list.SelectedItem().(type) {
			case instanceItem:
				m.result = PickerResult{Action: ActionSelect, Instance: item.entry.Record}
				m.quitting = true
				return m, tea.Quit
			case newItem:
				return m.startWizard()
			}
			return m, nil

		case "n":
			if m.opts.AllowCreate {
				return m.startWizard()
			}

		case "s":
			if item, ok := m.list.SelectedItem().(instanceItem); ok {
				m.result = PickerResult{Action: ActionStop, Instance: item.entry.Record}
				m.quitting = true
				return m, tea.Quit
			}

		case "q", "esc", "ctrl+c":
			m.result = PickerResult{Action: ActionQuit}
			m.quitting = true
			return m, tea.Quit

		case "up", "k", "down", "j":
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			skipHeaders(&m.list, navigationDirection(keyMsg))
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) startWizard() (tea.Model, tea.Cmd) {
	m.wizard = newWizardModel(m.existing)
	m.wizard.width = m.width
	m.wizard.height = m.height
	m.mode = modeWizard
	return m, m.wizard.Init()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.mode == modeWizard {
		return m.wizard.View()
	}

	help := "[enter] Select  [s] Stop  [/] Filter  [q] Quit"
	if m.opts.AllowCreate {
		help = "[enter] Select  [n] New  [s] Stop  [/] Filter  [q] Quit"
	}

	return m.list.View() + "\n" + helpStyle.Render(help)
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive instance picker. With no instances and
// creation allowed it goes straight to ActionNew without a wizard, leaving
// the caller to prompt.
func RunPicker(entries []Entry, opts PickerOptions) (PickerResult, error) {
	if len(entries) == 0 {
		if opts.AllowCreate {
			return PickerResult{Action: ActionNew}, nil
		}
		return PickerResult{Action: ActionQuit}, nil
	}

	m := NewPicker(entries, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// SimplePicker is a non-interactive picker that just lists instances
func SimplePicker(entries []Entry) string {
	var sb strings.Builder

	sb.WriteString("OpenClaw Spawn - Instances\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(entries) == 0 {
		sb.WriteString("No instances found.\n")
		sb.WriteString("Create one with: spawn-ctl create <name>\n")
		return sb.String()
	}

	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("%d. %s %s (port %d, %s)\n",
			i+1, statusIcon(e.Status), e.Record.Name, e.Record.Port, e.Status))
		for _, mnt := range e.Record.Mounts {
			sb.WriteString(fmt.Sprintf("   %s\n", mnt))
		}
	}

	return sb.String()
}
