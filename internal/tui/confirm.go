package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// confirmModel is a yes/no prompt.
type confirmModel struct {
	message  string
	value    bool
	answered bool
}

func newConfirmModel(message string, def bool) confirmModel {
	return confirmModel{message: message, value: def}
}

func (c confirmModel) Init() tea.Cmd {
	return nil
}

func (c confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		c.value = true
		c.answered = true
		return c, tea.Quit
	case "n", "N", "q", "esc", "ctrl+c":
		c.value = false
		c.answered = true
		return c, tea.Quit
	case "left", "right", "tab", "h", "l":
		c.value = !c.value
	case "enter":
		c.answered = true
		return c, tea.Quit
	}
	return c, nil
}

func (c confirmModel) View() string {
	if c.answered {
		return ""
	}

	yes, no := "Yes", "No"
	if c.value {
		yes = selectedStyle.Render("[Yes]")
	} else {
		no = selectedStyle.Render("[No]")
	}

	var b strings.Builder
	b.WriteString(wizardLabelStyle.Render(c.message))
	b.WriteString("\n")
	b.WriteString("  " + yes + "  " + no + "\n")
	b.WriteString(helpStyle.Render("[y] Yes  [n] No  [enter] Accept"))
	return b.String()
}

// Confirm asks a yes/no question. Enter accepts def.
func Confirm(message string, def bool) (bool, error) {
	p := tea.NewProgram(newConfirmModel(message, def))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(confirmModel).value, nil
}
