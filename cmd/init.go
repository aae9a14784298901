package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/instance"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/tui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Guided first-time setup",
	Long: `Walks through first-time setup:

  1. check that the container engine answers
  2. build the base image
  3. create and onboard the first instance
  4. start its gateway in the background`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !tui.IsInteractive() {
		return errors.ValidationError("init needs a terminal; use build, create and agent instead")
	}

	fmt.Fprintln(cmd.OutOrStdout(), logging.Highlight("OpenClaw Spawn setup"))

	logInfo("Step 1: checking container engine...")
	rt, err := getRuntime(ctx)
	if err != nil {
		return err
	}
	logSuccess("%s is available", rt.Name())

	image := app.Default.Settings.Engine.Image
	exists, err := rt.ImageExists(ctx, image)
	if err != nil {
		return errors.EngineUnavailable(err)
	}
	build := !exists
	if exists {
		if build, err = tui.Confirm(fmt.Sprintf("Image %s exists. Rebuild it?", image), false); err != nil {
			return err
		}
	} else if build, err = tui.Confirm(fmt.Sprintf("Step 2: build image %s now?", image), true); err != nil {
		return err
	}
	if build {
		if err := buildImage(cmd, rt, app.Default.Settings.Engine.BuildContext); err != nil {
			return err
		}
	} else if !exists {
		logWarning("Skipped build; instances cannot start until %s exists", image)
		logHint("Build later with: spawn-ctl build")
		return nil
	}

	create, err := tui.Confirm("Step 3: create your first instance and run onboarding?", true)
	if err != nil {
		return err
	}
	if !create {
		logHint("Create one later with: spawn-ctl agent")
		return nil
	}

	ctrl, err := app.Default.Controller(ctx)
	if err != nil {
		return err
	}
	records, err := app.Default.Registry().List()
	if err != nil {
		return err
	}
	existing := make([]string, 0, len(records))
	for _, rec := range records {
		existing = append(existing, rec.Name)
	}
	req, err := tui.RunWizard(existing)
	if err != nil {
		return err
	}
	if req == nil {
		return nil
	}
	rec, err := createInstance(ctx, ctrl, req.Name, req.Mounts)
	if err != nil {
		return err
	}
	if _, _, err := ctrl.EnsureRunning(ctx, rec.Name); err != nil {
		return err
	}

	onboard := agentArgs(nil)
	if err := ctrl.Dispatch(ctx, rec.Name, agentCommand(onboard), instance.Attached, execStreams(cmd)); err != nil {
		return err
	}
	afterOnboard(rec.Name, rec.Port)

	gateway, err := tui.Confirm("Step 4: start the gateway in the background?", true)
	if err != nil {
		return err
	}
	if !gateway {
		logHint("Start it later with: spawn-ctl agent -i %s -d gateway", rec.Name)
		return nil
	}

	agentInstance = rec.Name
	agentDetach = true
	if err := runAgent(cmd, []string{"gateway"}); err != nil {
		return err
	}

	printDashboard(cmd, rec.Name, rec.Port)
	logSuccess("Setup complete")
	return nil
}
