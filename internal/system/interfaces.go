// Package system provides abstractions for OS process execution to enable testing.
package system

import (
	"context"
	"errors"
	"os/exec"
)

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Execute runs a command and returns its combined output.
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)

	// ExecuteInteractive runs a command with stdin/stdout/stderr connected to the terminal.
	ExecuteInteractive(ctx context.Context, name string, args ...string) error

	// LookPath reports where name would be found on PATH.
	LookPath(name string) (string, error)
}

var defaultExecutor CommandExecutor = &osExecutor{}

// DefaultExecutor returns the default CommandExecutor implementation.
func DefaultExecutor() CommandExecutor {
	return defaultExecutor
}

// SetDefaultExecutor sets the default CommandExecutor (useful for testing).
func SetDefaultExecutor(exec CommandExecutor) {
	defaultExecutor = exec
}

// ResetDefaults restores the default OS implementation.
func ResetDefaults() {
	defaultExecutor = &osExecutor{}
}

// ExitCode extracts the process exit status from an Execute or
// ExecuteInteractive error. It returns 0 for nil and 1 when the error
// carries no status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return 1
}
