package cmd

import (
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start a stopped instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := cmd.Context()

	if _, err := loadInstance(name); err != nil {
		return err
	}

	ctrl, err := getController(ctx)
	if err != nil {
		return err
	}

	logInfo("Starting instance %s...", name)
	if err := ctrl.Start(ctx, name); err != nil {
		return err
	}

	logSuccess("Started instance %s", name)
	return nil
}
