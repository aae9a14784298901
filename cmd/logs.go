package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

var logsCmd = &cobra.Command{
	Use:   "logs <name>",
	Short: "View container logs",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogs,
}

var logsFollow bool
var logsLines int

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "Number of lines to show (0 for all)")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rec, err := loadInstance(args[0])
	if err != nil {
		return err
	}

	rt, err := getRuntime(ctx)
	if err != nil {
		return err
	}

	tail := "all"
	if logsLines > 0 {
		tail = strconv.Itoa(logsLines)
	}

	err = rt.Logs(ctx, rec.Container, runtime.LogsOptions{
		Follow: logsFollow,
		Tail:   tail,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil && ctx.Err() == nil {
		return errors.OperationFailed("logs", err)
	}
	return nil
}
