package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/agentconfig"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/instance"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/tui"
)

var agentCmd = &cobra.Command{
	Use:   "agent [-i name] [-d] [args...]",
	Short: "Run an OpenClaw command inside an instance",
	Long: `Forwards "openclaw <args>" into an instance, starting or recreating its
container first. Without args the onboarding wizard runs.

  gateway      sets the gateway port and binds to the container network
  gateway -d   also launches the shared visible browser first
  dashboard    prints the dashboard URL with the auth token

Without -i an interactive picker selects an instance or creates a new one.`,
	Args: cobra.ArbitraryArgs,
	RunE: runAgent,
}

var (
	agentInstance string
	agentDetach   bool
)

// defaultAgentCommand runs when no agent args are given.
const defaultAgentCommand = "onboard"

func addAgentFlags(c *cobra.Command) {
	c.Flags().StringVarP(&agentInstance, "instance", "i", "", "Instance to run in (default: pick interactively)")
	c.Flags().BoolVarP(&agentDetach, "detach", "d", false, "Run in the background")
	// everything after the first agent arg belongs to the agent
	c.Flags().SetInterspersed(false)
}

func init() {
	addAgentFlags(agentCmd)
	rootCmd.AddCommand(agentCmd)
}

// splitDetach removes -d/--detach from anywhere in the forwarded args. The
// flag parser stops at the first agent arg, so a trailing -d lands here.
func splitDetach(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	detach := false
	for _, a := range args {
		if a == "-d" || a == "--detach" {
			detach = true
			continue
		}
		out = append(out, a)
	}
	return out, detach
}

// agentArgs applies the defaults: onboard when empty, and --bind lan for a
// gateway without an explicit bind.
func agentArgs(args []string) []string {
	if len(args) == 0 {
		return []string{defaultAgentCommand}
	}

	out := append([]string(nil), args...)
	if out[0] == "gateway" && !hasBind(out[1:]) {
		out = append([]string{"gateway", "--bind", "lan"}, out[1:]...)
	}
	return out
}

func hasBind(args []string) bool {
	for _, a := range args {
		if a == "--bind" || strings.HasPrefix(a, "--bind=") {
			return true
		}
	}
	return false
}

// agentCommand is the in-container command line for args.
func agentCommand(args []string) []string {
	return []string{"sh", "-c", protocol.AgentBinary + " " + shellquote.Join(args...)}
}

func runAgent(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctrl, err := getController(ctx)
	if err != nil {
		return err
	}

	name, err := selectOrCreate(ctx, ctrl)
	if err != nil {
		return err
	}
	if name == "" {
		return nil
	}

	rec, _, err := ctrl.EnsureRunning(ctx, name)
	if err != nil {
		return err
	}

	args, detach := splitDetach(args)
	if detach {
		agentDetach = true
	}
	args = agentArgs(args)
	mutator := app.Default.Mutator()
	gateway := args[0] == "gateway"

	if gateway {
		if err := agentconfig.IgnoreUnavailable(mutator.SetGatewayPort(name, rec.Port)); err != nil {
			return err
		}
	}

	if gateway && agentDetach {
		if err := bootstrapBrowser(ctx, rec); err != nil {
			return err
		}
	}

	command := agentCommand(args)
	mode := instance.Attached
	if agentDetach {
		mode = instance.Detached
		logInfo("Starting in background: %s %s", protocol.AgentBinary, shellquote.Join(args...))
	} else {
		logInfo("Running: %s %s", protocol.AgentBinary, shellquote.Join(args...))
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Container: %s\n", rec.Container)

	if err := ctrl.Dispatch(ctx, name, command, mode, execStreams(cmd)); err != nil {
		return err
	}

	if agentDetach {
		logSuccess("Command started in background")
		logHint("View logs: spawn-ctl logs %s -f", name)
		return nil
	}

	switch args[0] {
	case "onboard":
		afterOnboard(name, rec.Port)
	case "dashboard":
		printDashboard(cmd, name, rec.Port)
	}
	return nil
}

// selectOrCreate resolves the target instance from -i, the picker, or the
// creation flow. An empty name means the user backed out.
func selectOrCreate(ctx context.Context, ctrl *instance.Controller) (string, error) {
	if agentInstance != "" {
		if _, err := loadInstance(agentInstance); err != nil {
			return "", err
		}
		return agentInstance, nil
	}

	if !tui.IsInteractive() {
		return "", errors.ValidationError("no instance given; pass -i <name>")
	}

	entries, err := listEntries(ctx, ctrl.Runtime())
	if err != nil {
		return "", err
	}

	result, err := tui.RunPicker(entries, tui.PickerOptions{AllowCreate: true})
	if err != nil {
		return "", err
	}

	switch result.Action {
	case tui.ActionSelect:
		return result.Instance.Name, nil
	case tui.ActionStop:
		if err := ctrl.Stop(ctx, result.Instance.Name); err != nil {
			return "", err
		}
		logSuccess("Stopped instance %s", result.Instance.Name)
		return "", nil
	case tui.ActionNew:
		req := result.Create
		if req == nil {
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Record.Name)
			}
			if req, err = tui.RunWizard(names); err != nil {
				return "", err
			}
		}
		if req == nil {
			return "", nil
		}
		rec, err := createInstance(ctx, ctrl, req.Name, req.Mounts)
		if err != nil {
			return "", err
		}
		return rec.Name, nil
	default:
		return "", nil
	}
}

// createInstance creates name and reports the outcome.
func createInstance(ctx context.Context, ctrl *instance.Controller, name string, mounts []registry.Mount) (*registry.Record, error) {
	logInfo("Creating instance %s...", name)
	rec, err := ctrl.Create(ctx, name, mounts)
	if err != nil {
		return nil, err
	}
	logSuccess("Created instance %s on port %d", rec.Name, rec.Port)
	for _, m := range rec.Mounts {
		mode := "read/write"
		if m.Mode == registry.MountReadOnly {
			mode = "read-only"
		}
		fmt.Printf("  %s -> %s (%s)\n", m.Host, m.Container, mode)
	}
	return rec, nil
}

// bootstrapBrowser starts the shared visible browser and switches the agent
// to attach mode, so the gateway finds a browser as soon as it is up.
func bootstrapBrowser(ctx context.Context, rec *registry.Record) error {
	orch, err := app.Default.Orchestrator(ctx)
	if err != nil {
		return err
	}

	logInfo("Launching visible browser...")
	if err := orch.LaunchBrowser(ctx, rec.Container); err != nil {
		return err
	}
	if err := agentconfig.IgnoreUnavailable(app.Default.Mutator().EnableBrowserTakeover(rec.Name)); err != nil {
		return err
	}
	recordEvent(audit.EventTakeover, rec.Name, "gateway bootstrap")
	return nil
}

// afterOnboard points the freshly written agent config at the host port
// and turns on the managed browser.
func afterOnboard(name string, port int) {
	mutator := app.Default.Mutator()
	if err := mutator.SetGatewayPort(name, port); err != nil {
		logging.Debug("skipping gateway port update", "name", name, "error", err)
		return
	}
	if err := mutator.EnableBrowserTool(name); err != nil {
		logging.Debug("skipping browser tool update", "name", name, "error", err)
	}
}

func printDashboard(cmd *cobra.Command, name string, port int) {
	token, err := app.Default.Mutator().GatewayToken(name)
	if err != nil {
		logging.Debug("no gateway token", "name", name, "error", err)
	}
	logInfo("Instance %s -> open on your machine:", name)
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", protocol.DashboardURL(port, token))
}
