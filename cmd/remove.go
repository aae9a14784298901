package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
)

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove an instance",
	Long: `Force-removes the instance's container and its registry entry.
The instance directory is kept unless --purge is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var (
	removeForce bool
	removePurge bool
)

func init() {
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Do not ask for confirmation")
	removeCmd.Flags().BoolVar(&removePurge, "purge", false, "Also delete the instance directory and event log")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := cmd.Context()

	if _, err := loadInstance(name); err != nil {
		return err
	}

	msg := fmt.Sprintf("Remove instance %s?", name)
	if removePurge {
		msg = fmt.Sprintf("Remove instance %s? This will delete all data.", name)
	}
	ok, err := confirmAction(msg, removeForce)
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

	// resolve before the record is gone
	dir, err := app.Default.Registry().InstanceDir(name)
	if err != nil {
		return err
	}

	if err := ctrl.Remove(ctx, name); err != nil {
		return err
	}

	if removePurge {
		if err := os.RemoveAll(dir); err != nil {
			return errors.OperationFailed("purge", err)
		}
		if err := app.Default.Audit().Remove(name); err != nil {
			logWarning("Could not delete event log: %v", err)
		}
	}

	logSuccess("Removed instance %s", name)
	return nil
}
