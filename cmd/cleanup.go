package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove all instances and reset state",
	Long: `Stops and removes every registered container, empties every instance
directory and resets the registry, including the port hint.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

var cleanupForce bool

func init() {
	cleanupCmd.Flags().BoolVarP(&cleanupForce, "force", "f", false, "Do not ask for confirmation")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ok, err := confirmAction("Remove ALL instances and their data? This cannot be undone.", cleanupForce)
	if err != nil {
		return err
	}
	if !ok {
		logInfo("Cancelled")
		return nil
	}

	ctrl, err := getController(ctx)
	if err != nil {
		return err
	}

	result, err := ctrl.CleanupAll(ctx, paths().InstancesDir)
	if result != nil {
		for _, name := range result.Stopped {
			fmt.Printf("  stopped  %s\n", name)
		}
		for _, name := range result.Removed {
			fmt.Printf("  removed  %s\n", name)
		}
		for _, name := range result.Wiped {
			fmt.Printf("  wiped    %s\n", name)
		}
		for _, e := range result.Errors {
			logWarning("%v", e)
		}
	}
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return errors.OperationFailed("cleanup", fmt.Errorf("%d container operation(s) failed", len(result.Errors)))
	}

	logSuccess("Cleanup complete")
	logHint("Re-add instances with: spawn-ctl agent")
	return nil
}
