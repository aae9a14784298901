// Package tui provides terminal user interface components for spawn-ctl.
//
// This package uses the Bubble Tea framework for the interactive instance
// picker, the creation wizard and yes/no prompts.
//
// # Instance Picker
//
// The picker displays instances grouped by live container status:
//
//	result, err := tui.RunPicker(entries, tui.PickerOptions{AllowCreate: true})
//	switch result.Action {
//	case tui.ActionSelect:
//	    // Dispatch to result.Instance
//	case tui.ActionNew:
//	    if result.Create == nil {
//	        // No instances yet: run tui.RunWizard
//	    }
//	case tui.ActionStop:
//	    // Stop result.Instance
//	case tui.ActionQuit:
//	    // Exit
//	}
//
// # Picker Features
//
//   - Groups: Running, Stopped, Missing container, Unknown
//   - Keyboard navigation (j/k or arrows), headers auto-skipped
//   - Quick actions: Enter (select), n (new/wizard), s (stop), q (quit)
//   - Creation wizard (name, shared folders with rw/ro, confirm)
//
// Callers should check IsInteractive before running any program and fall
// back to SimplePicker or flags otherwise.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
