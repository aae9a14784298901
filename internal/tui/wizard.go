package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
)

// CreateRequest is what the creation wizard collects.
type CreateRequest struct {
	Name   string
	Mounts []registry.Mount
}

// wizardStep identifies the current step.
type wizardStep int

const (
	stepName wizardStep = iota
	stepMounts
	stepMode
	stepConfirm
)

// wizardModel drives the multi-step creation wizard.
type wizardModel struct {
	step     wizardStep
	existing map[string]bool

	nameInput  textinput.Model
	mountInput textinput.Model

	selectedName string
	pendingHost  string
	readOnly     bool
	mounts       []registry.Mount
	err          string

	width  int
	height int
}

// wizardStyles
var (
	wizardTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginBottom(1)

	wizardStepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	wizardActiveStepStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	wizardLabelStyle = lipgloss.NewStyle().
				Bold(true).
				MarginBottom(1)

	wizardValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39"))

	wizardDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	wizardErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))
)

func newWizardModel(existing map[string]bool) wizardModel {
	ni := textinput.New()
	ni.Placeholder = "instance-name"
	ni.Focus()
	ni.CharLimit = 63
	ni.Width = 40

	mi := textinput.New()
	mi.Placeholder = "/path/to/folder (empty to continue)"
	mi.CharLimit = 256
	mi.Width = 60
	mi.ShowSuggestions = true

	if existing == nil {
		existing = map[string]bool{}
	}

	return wizardModel{
		step:       stepName,
		existing:   existing,
		nameInput:  ni,
		mountInput: mi,
	}
}

func (w *wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update processes a message and returns (done, request, cmd).
// done=true with a non-nil request means the wizard completed.
// done=true with a nil request means it was cancelled.
func (w *wizardModel) Update(msg tea.Msg) (bool, *CreateRequest, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyCtrlC:
			return true, nil, nil
		case tea.KeyEsc:
			return w.handleBack()
		}
	}

	switch w.step {
	case stepName:
		return w.updateName(msg)
	case stepMounts:
		return w.updateMounts(msg)
	case stepMode:
		return w.updateMode(msg)
	case stepConfirm:
		return w.updateConfirm(msg)
	}

	return false, nil, nil
}

func (w *wizardModel) handleBack() (bool, *CreateRequest, tea.Cmd) {
	w.err = ""
	switch w.step {
	case stepName:
		return true, nil, nil
	case stepMounts:
		w.step = stepName
		w.mountInput.Blur()
		w.nameInput.Focus()
		return false, nil, textinput.Blink
	case stepMode:
		w.step = stepMounts
		w.mountInput.Focus()
		return false, nil, textinput.Blink
	case stepConfirm:
		w.step = stepMounts
		w.mountInput.Focus()
		return false, nil, textinput.Blink
	}
	return false, nil, nil
}

// validateName checks the name format and that no instance already uses it.
func (w *wizardModel) validateName(name string) error {
	if err := config.ValidateInstanceName(name); err != nil {
		return err
	}
	if w.existing[name] {
		return fmt.Errorf("instance %q already exists", name)
	}
	return nil
}

func (w *wizardModel) updateName(msg tea.Msg) (bool, *CreateRequest, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		name := strings.TrimSpace(w.nameInput.Value())
		if err := w.validateName(name); err != nil {
			w.err = err.Error()
			return false, nil, nil
		}
		w.err = ""
		w.selectedName = name
		w.step = stepMounts
		w.nameInput.Blur()
		w.mountInput.Focus()
		return false, nil, textinput.Blink
	}

	var cmd tea.Cmd
	w.nameInput, cmd = w.nameInput.Update(msg)
	return false, nil, cmd
}

func (w *wizardModel) updateMounts(msg tea.Msg) (bool, *CreateRequest, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		raw := strings.TrimSpace(w.mountInput.Value())
		if raw == "" {
			w.err = ""
			w.step = stepConfirm
			w.mountInput.Blur()
			return false, nil, nil
		}

		host := expandHome(raw)
		info, err := os.Stat(host)
		if err != nil {
			w.err = fmt.Sprintf("path does not exist: %s", raw)
			return false, nil, nil
		}
		if !info.IsDir() {
			w.err = fmt.Sprintf("not a directory: %s", raw)
			return false, nil, nil
		}

		w.err = ""
		w.pendingHost = host
		w.readOnly = false
		w.step = stepMode
		w.mountInput.Blur()
		return false, nil, nil
	}

	var cmd tea.Cmd
	w.mountInput, cmd = w.mountInput.Update(msg)
	w.updatePathSuggestions()
	return false, nil, cmd
}

func (w *wizardModel) updateMode(msg tea.Msg) (bool, *CreateRequest, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil, nil
	}

	switch keyMsg.String() {
	case "left", "right", "tab", " ", "h", "l":
		w.readOnly = !w.readOnly
	case "r":
		w.readOnly = true
	case "w":
		w.readOnly = false
	case "enter":
		mode := registry.MountReadWrite
		if w.readOnly {
			mode = registry.MountReadOnly
		}
		m, err := registry.ParseMount(w.pendingHost + ":" + string(mode))
		if err != nil {
			w.err = err.Error()
			return false, nil, nil
		}
		w.mounts = append(w.mounts, m)
		w.pendingHost = ""
		w.mountInput.SetValue("")
		w.step = stepMounts
		w.mountInput.Focus()
		return false, nil, textinput.Blink
	}
	return false, nil, nil
}

func (w *wizardModel) updateConfirm(msg tea.Msg) (bool, *CreateRequest, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", "y":
			return true, &CreateRequest{
				Name:   w.selectedName,
				Mounts: w.mounts,
			}, nil
		case "n":
			// Restart wizard
			w.step = stepName
			w.nameInput.SetValue("")
			w.nameInput.Focus()
			w.mountInput.SetValue("")
			w.selectedName = ""
			w.mounts = nil
			w.err = ""
			return false, nil, textinput.Blink
		}
	}
	return false, nil, nil
}

func (w *wizardModel) View() string {
	var b strings.Builder

	b.WriteString(wizardTitleStyle.Render("Create New Instance"))
	b.WriteString("\n")
	b.WriteString(w.progressBar())
	b.WriteString("\n\n")

	switch w.step {
	case stepName:
		b.WriteString(wizardLabelStyle.Render("Instance name:"))
		b.WriteString("\n")
		b.WriteString(w.nameInput.View())
		b.WriteString("\n\n")
		b.WriteString(wizardDimStyle.Render("Lowercase letters, digits and hyphens."))
	case stepMounts:
		b.WriteString(wizardLabelStyle.Render("Share a host folder:"))
		b.WriteString("\n")
		b.WriteString(w.renderMounts())
		b.WriteString(w.mountInput.View())
		b.WriteString("\n\n")
		b.WriteString(wizardDimStyle.Render("Tab to complete, Enter on an empty line to continue."))
	case stepMode:
		b.WriteString(wizardLabelStyle.Render("Access mode for " + w.pendingHost + ":"))
		b.WriteString("\n\n")
		rw, ro := "  read-write", "  read-only"
		if w.readOnly {
			ro = selectedStyle.Render("> read-only")
		} else {
			rw = selectedStyle.Render("> read-write")
		}
		b.WriteString(rw + "\n" + ro + "\n\n")
		b.WriteString(wizardDimStyle.Render("Arrows to toggle, Enter to add."))
	case stepConfirm:
		b.WriteString(wizardLabelStyle.Render("Confirm:"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  Name:   %s\n", wizardValueStyle.Render(w.selectedName)))
		if len(w.mounts) == 0 {
			b.WriteString(fmt.Sprintf("  Mounts: %s\n", wizardDimStyle.Render("none")))
		}
		for _, m := range w.mounts {
			b.WriteString(fmt.Sprintf("  Mount:  %s\n", wizardValueStyle.Render(m.String())))
		}
		b.WriteString("\n")
		b.WriteString(wizardDimStyle.Render("Enter to create, n to restart, Esc to go back."))
	}

	if w.err != "" {
		b.WriteString("\n\n")
		b.WriteString(wizardErrorStyle.Render(w.err))
	}

	return b.String()
}

func (w *wizardModel) renderMounts() string {
	if len(w.mounts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, m := range w.mounts {
		b.WriteString(wizardDimStyle.Render("  + "+m.String()) + "\n")
	}
	return b.String()
}

func (w *wizardModel) progressBar() string {
	steps := []string{"Name", "Mounts", "Confirm"}

	current := int(w.step)
	// the mode prompt belongs to the mounts step
	if w.step >= stepMode {
		current--
	}

	var parts []string
	for i, name := range steps {
		label := fmt.Sprintf("%d. %s", i+1, name)
		if i == current {
			parts = append(parts, wizardActiveStepStyle.Render(label))
		} else {
			parts = append(parts, wizardStepStyle.Render(label))
		}
	}

	return strings.Join(parts, wizardDimStyle.Render(" > "))
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}

func (w *wizardModel) updatePathSuggestions() {
	val := w.mountInput.Value()
	if val == "" {
		w.mountInput.SetSuggestions(nil)
		return
	}

	expanded := expandHome(val)
	dir := expanded
	prefix := ""

	info, err := os.Stat(expanded)
	if err != nil || !info.IsDir() {
		dir = filepath.Dir(expanded)
		prefix = filepath.Base(expanded)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.mountInput.SetSuggestions(nil)
		return
	}

	home, _ := os.UserHomeDir()
	var suggestions []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()
		if prefix != "" && !strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			continue
		}
		full := filepath.Join(dir, name)
		if strings.HasPrefix(val, "~") && home != "" {
			full = "~" + strings.TrimPrefix(full, home)
		}
		suggestions = append(suggestions, full)
	}

	w.mountInput.SetSuggestions(suggestions)
}

// wizardProgram runs the wizard on its own, outside the picker.
type wizardProgram struct {
	wizard wizardModel
	result *CreateRequest
	done   bool
}

func (p wizardProgram) Init() tea.Cmd { return p.wizard.Init() }

func (p wizardProgram) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		p.wizard.width = size.Width
		p.wizard.height = size.Height
	}
	done, req, cmd := p.wizard.Update(msg)
	if done {
		p.done = true
		p.result = req
		return p, tea.Quit
	}
	return p, cmd
}

func (p wizardProgram) View() string {
	if p.done {
		return ""
	}
	return p.wizard.View()
}

// RunWizard runs the creation wizard. existing holds names already taken.
// A nil request with a nil error means the user cancelled.
func RunWizard(existing []string) (*CreateRequest, error) {
	taken := make(map[string]bool, len(existing))
	for _, name := range existing {
		taken[name] = true
	}

	p := tea.NewProgram(wizardProgram{wizard: newWizardModel(taken)})
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(wizardProgram).result, nil
}
