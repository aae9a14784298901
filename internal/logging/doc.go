// Package logging provides logging utilities for spawn-ctl.
//
// Two kinds of output are kept separate:
//   - Debug logging: structured records via slog, for operators
//   - User output: short status lines for the person at the terminal
//
// # Debug Logging
//
//	logging.Debug("allocating port block", "hint", hint)
//	logging.Warn("registry lock slow", "path", lockPath)
//
// Setup is called once from the root command. --verbose lowers the level to
// DEBUG and --json switches to the JSON handler.
//
// # User Output
//
//	logging.UserInfo("Creating instance %s on port %d...", name, port)
//	logging.UserSuccess("Instance %s ready", name)
//	logging.UserWarning("Instance %s is stopped. Starting...", name)
//	logging.UserError("Command failed: %v", err)
//
// Prefixes (ℹ ✓ ⚠ ✗) are colored with fatih/color; color is dropped when the
// stream is not a terminal, with --no-color, or with --json.
package logging
