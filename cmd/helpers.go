package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/instance"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/tui"
)

// statusConcurrency bounds parallel engine status queries.
const statusConcurrency = 8

// paths returns the default paths configuration.
// This is a helper to reduce repetition in commands.
func paths() *config.Paths {
	return app.Default.Paths
}

// getRuntime returns the engine after checking that it is installed and
// answering.
func getRuntime(ctx context.Context) (runtime.Runtime, error) {
	rt, err := app.Default.Engine(ctx)
	if err != nil {
		return nil, err
	}
	if err := runtime.Ready(ctx, rt); err != nil {
		var spawnErr *errors.SpawnError
		if errors.As(err, &spawnErr) {
			return nil, err
		}
		return nil, errors.EngineUnavailable(err)
	}
	return rt, nil
}

// getController returns the lifecycle controller over a ready engine.
func getController(ctx context.Context) (*instance.Controller, error) {
	if _, err := getRuntime(ctx); err != nil {
		return nil, err
	}
	return app.Default.Controller(ctx)
}

// loadInstance loads a registry record or returns a NotFound error.
func loadInstance(name string) (*registry.Record, error) {
	if err := config.ValidateInstanceName(name); err != nil {
		return nil, errors.ValidationError(err.Error())
	}
	return app.Default.Registry().Get(name)
}

// listEntries returns every record with its live container status.
// Status queries run concurrently; a failed query shows as unknown.
func listEntries(ctx context.Context, rt runtime.Runtime) ([]tui.Entry, error) {
	records, err := app.Default.Registry().Sorted()
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	entries := make([]tui.Entry, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusConcurrency)
	for i, rec := range records {
		g.Go(func() error {
			entries[i] = tui.Entry{Record: rec, Status: runtime.StatusUnknown}
			info, err := rt.Status(gctx, rec.Container)
			if err != nil {
				return nil
			}
			entries[i].Status = info.Status
			return nil
		})
	}
	_ = g.Wait()

	return entries, nil
}

// resolveInstance returns args[0], or asks the user to pick a registered
// instance when no name was given.
func resolveInstance(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	if !tui.IsInteractive() {
		return "", errors.ValidationError("no instance given and no terminal to pick one")
	}

	rt, err := getRuntime(ctx)
	if err != nil {
		return "", err
	}
	entries, err := listEntries(ctx, rt)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New(errors.ExitNotFound, "no instances registered; create one with: spawn-ctl create <name>")
	}

	result, err := tui.RunPicker(entries, tui.PickerOptions{})
	if err != nil {
		return "", err
	}
	if result.Action != tui.ActionSelect || result.Instance == nil {
		return "", errors.ValidationError("no instance selected")
	}
	return result.Instance.Name, nil
}

// confirmAction asks message unless force is set. Without a terminal the
// action is refused.
func confirmAction(message string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	if !tui.IsInteractive() {
		return false, errors.ValidationError("refusing to continue without a terminal; pass --force")
	}
	return tui.Confirm(message, false)
}

// execStreams attaches the command's streams, with a TTY when interactive.
func execStreams(cmd *cobra.Command) runtime.ExecOptions {
	return runtime.ExecOptions{
		TTY:    tui.IsInteractive(),
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
}

// expandHome expands a leading ~/ to the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
