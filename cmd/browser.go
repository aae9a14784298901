package cmd

import (
	"context"
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/browser"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/system"
)

var browserCmd = &cobra.Command{
	Use:   "browser [name]",
	Short: "Share the agent's browser through a VNC view",
	Long: `Launches a visible browser inside the instance, switches the agent to
attach to it, and starts the noVNC relay. You and the agent share one
browser session: log in or solve a captcha and the agent picks it up.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowser,
}

var browserStopCmd = &cobra.Command{
	Use:   "stop [name]",
	Short: "Stop the VNC view; the browser keeps running",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBrowserStop,
}

var browserReleaseCmd = &cobra.Command{
	Use:   "release [name]",
	Short: "Stop the shared browser and return the agent to headless mode",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBrowserRelease,
}

var browserStatusCmd = &cobra.Command{
	Use:   "status [name]",
	Short: "Show the shared browser and VNC relay state",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBrowserStatus,
}

var browserNoOpen bool

func init() {
	browserCmd.Flags().BoolVar(&browserNoOpen, "no-open", false, "Do not open the VNC view in a local browser")
	browserCmd.AddCommand(browserStopCmd)
	browserCmd.AddCommand(browserReleaseCmd)
	browserCmd.AddCommand(browserStatusCmd)
	rootCmd.AddCommand(browserCmd)
}

// browserTarget resolves the instance and returns its record and the
// orchestrator.
func browserTarget(cmd *cobra.Command, args []string) (*registry.Record, *browser.Orchestrator, error) {
	ctx := cmd.Context()

	name, err := resolveInstance(ctx, args)
	if err != nil {
		return nil, nil, err
	}
	rec, err := loadInstance(name)
	if err != nil {
		return nil, nil, err
	}
	if _, err := getRuntime(ctx); err != nil {
		return nil, nil, err
	}
	orch, err := app.Default.Orchestrator(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rec, orch, nil
}

func runBrowser(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rec, orch, err := browserTarget(cmd, args)
	if err != nil {
		return err
	}

	ctrl, err := app.Default.Controller(ctx)
	if err != nil {
		return err
	}
	if _, _, err := ctrl.EnsureRunning(ctx, rec.Name); err != nil {
		return err
	}

	ok, err := orch.VNCSupported(ctx, rec.Container)
	if err != nil {
		return errors.OperationFailed("display check", err)
	}
	if !ok {
		logHint("Rebuild the image and recreate the container:\n  spawn-ctl build\n  spawn-ctl cleanup\n  spawn-ctl agent")
		return errors.OperationFailed("browser view", fmt.Errorf("container %s was built without VNC support", rec.Container))
	}

	logInfo("Starting browser view for %s...", rec.Name)
	if err := orch.Takeover(ctx, browser.Target{Instance: rec.Name, Container: rec.Container}); err != nil {
		return err
	}
	recordEvent(audit.EventTakeover, rec.Name, "vnc view")

	url := protocol.VNCURL(rec.Port)
	logSuccess("Browser view ready")
	logInfo("Instance %s -> open on your machine:", rec.Name)
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", url)
	logHint("When done: spawn-ctl browser stop %s", rec.Name)

	if !browserNoOpen {
		openURL(ctx, url)
	}
	return nil
}

func runBrowserStop(cmd *cobra.Command, args []string) error {
	rec, orch, err := browserTarget(cmd, args)
	if err != nil {
		return err
	}

	logInfo("Stopping VNC view for %s...", rec.Name)
	orch.StopView(cmd.Context(), rec.Container)

	logSuccess("VNC stopped. Agent browser tool is still active.")
	return nil
}

func runBrowserRelease(cmd *cobra.Command, args []string) error {
	rec, orch, err := browserTarget(cmd, args)
	if err != nil {
		return err
	}

	logInfo("Releasing shared browser for %s...", rec.Name)
	if err := orch.Release(cmd.Context(), browser.Target{Instance: rec.Name, Container: rec.Container}); err != nil {
		return err
	}
	recordEvent(audit.EventRelease, rec.Name, "")

	logSuccess("Agent switched back to its own headless browser")
	logHint("Restart the gateway to apply: spawn-ctl agent -i %s -d gateway", rec.Name)
	return nil
}

func runBrowserStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rec, orch, err := browserTarget(cmd, args)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Instance:   %s\n", rec.Name)

	viewing, err := orch.ViewRunning(ctx, rec.Container)
	if err != nil {
		logging.Debug("relay check failed", "instance", rec.Name, "error", err)
	}
	fmt.Fprintf(out, "VNC relay:  %s\n", onOff(viewing))
	if viewing {
		fmt.Fprintf(out, "            %s\n", protocol.VNCURL(rec.Port))
	}

	cdp, err := browser.CheckCDP(ctx, protocol.RemoteDebugPort(rec.Port))
	switch {
	case err != nil:
		fmt.Fprintf(out, "Browser:    unreachable (%v)\n", err)
	case !cdp.Reachable:
		fmt.Fprintln(out, "Browser:    not running")
	default:
		fmt.Fprintf(out, "Browser:    %s, %d page(s)\n", cdp.Browser, len(cdp.Pages))
		for _, p := range cdp.Pages {
			fmt.Fprintf(out, "            %s\n", p)
		}
	}

	if snap, err := app.Default.Mutator().Settings(rec.Name); err == nil {
		fmt.Fprintf(out, "Attach:     %s\n", onOff(snap.AttachOnly))
	}
	return nil
}

// recordEvent writes an audit event; failures are only logged.
func recordEvent(t audit.EventType, name, details string) {
	if err := app.Default.Audit().LogEvent(t, name, details); err != nil {
		logging.Warn("failed to write audit event", "name", name, "type", t, "error", err)
	}
}

// openURL opens url in the local desktop browser, best effort.
func openURL(ctx context.Context, url string) {
	var name string
	var args []string
	switch goruntime.GOOS {
	case "darwin":
		name, args = "open", []string{url}
	case "windows":
		name, args = "cmd", []string{"/c", "start", "", url}
	default:
		name, args = "xdg-open", []string{url}
	}

	exec := system.DefaultExecutor()
	if _, err := exec.LookPath(name); err != nil {
		logging.Debug("no URL opener", "command", name)
		return
	}
	if _, err := exec.Execute(ctx, name, args...); err != nil {
		logging.Debug("failed to open URL", "url", url, "error", err)
	}
}
