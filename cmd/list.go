package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ps", "ls"},
	Short:   "List all instances",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := getRuntime(ctx)
	if err != nil {
		return err
	}

	entries, err := listEntries(ctx, rt)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		logInfo("No instances found. Create one with: spawn-ctl create <name>")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCONTAINER\tGATEWAY\tVNC\tMOUNTS\tSTATUS\tCREATED")
	fmt.Fprintln(w, "----\t---------\t-------\t---\t------\t------\t-------")

	for _, e := range entries {
		rec := e.Record
		created := "-"
		if !rec.Created.IsZero() {
			created = rec.Created.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			rec.Name, rec.Container, protocol.GatewayPort(rec.Port), protocol.VNCRelayPort(rec.Port),
			len(rec.Mounts), formatStatus(e.Status), created)
	}

	return w.Flush()
}

func formatStatus(status runtime.ContainerStatus) string {
	switch status {
	case runtime.StatusRunning:
		return color.GreenString("● running")
	case runtime.StatusStopped:
		return color.RedString("● stopped")
	case runtime.StatusNotFound:
		return color.YellowString("○ missing")
	default:
		return "? " + string(status)
	}
}
