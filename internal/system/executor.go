package system

import (
	"context"
	"os"
	"os/exec"
)

// osExecutor implements CommandExecutor using real OS operations.
type osExecutor struct{}

func (e *osExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

func (e *osExecutor) ExecuteInteractive(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (e *osExecutor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
