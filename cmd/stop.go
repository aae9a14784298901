package cmd

import (
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop a running instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := cmd.Context()

	if _, err := loadInstance(name); err != nil {
		return err
	}

	ctrl, err := getController(ctx)
	if err != nil {
		return err
	}

	logInfo("Stopping instance %s...", name)
	if err := ctrl.Stop(ctx, name); err != nil {
		return err
	}

	logSuccess("Stopped instance %s", name)
	return nil
}
