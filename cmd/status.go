package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
)

var statusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show instance status and health",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := cmd.Context()

	rec, err := loadInstance(name)
	if err != nil {
		return err
	}

	if _, err := getRuntime(ctx); err != nil {
		return err
	}
	checker, err := app.Default.Checker(ctx)
	if err != nil {
		return err
	}

	result := checker.Check(ctx, rec)
	printStatus(cmd.OutOrStdout(), rec, result)
	return nil
}

func printStatus(w io.Writer, rec *registry.Record, r *health.CheckResult) {
	fmt.Fprintf(w, "Instance:   %s\n", rec.Name)
	fmt.Fprintf(w, "Container:  %s (%s)\n", rec.Container, formatStatus(r.Engine))
	if !rec.Created.IsZero() {
		fmt.Fprintf(w, "Created:    %s\n", rec.Created.Local().Format("2006-01-02 15:04:05"))
	}
	if r.Uptime != "" {
		fmt.Fprintf(w, "Uptime:     %s\n", r.Uptime)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ports:")
	fmt.Fprintf(w, "  Gateway:         %d  %s\n", protocol.GatewayPort(rec.Port), check(r.GatewayListening))
	fmt.Fprintf(w, "  Browser control: %d\n", protocol.BrowserControlPort(rec.Port))
	fmt.Fprintf(w, "  Remote debug:    %d  %s\n", protocol.RemoteDebugPort(rec.Port), check(r.CDPReachable))
	fmt.Fprintf(w, "  VNC relay:       %d  %s\n", protocol.VNCRelayPort(rec.Port), check(r.VNCListening))

	if len(rec.Mounts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Mounts:")
		for _, m := range rec.Mounts {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}

	if snap, err := app.Default.Mutator().Settings(rec.Name); err == nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Agent config:")
		fmt.Fprintf(w, "  Gateway port:    %d\n", snap.GatewayPort)
		fmt.Fprintf(w, "  Browser tool:    %s\n", onOff(snap.BrowserEnabled))
		fmt.Fprintf(w, "  Attach only:     %s\n", onOff(snap.AttachOnly))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Health:     %s\n", r.Summary())
	if r.Err != nil {
		fmt.Fprintf(w, "Error:      %v\n", r.Err)
	}
}

func check(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
