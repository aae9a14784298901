package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check registry consistency",
	Long: `Verifies that registered port blocks are disjoint and in range, that
container names follow the instance names, and that no engine container
carries the instance prefix without a registry entry.

Exits non-zero when a problem is found. Missing containers are reported but
are not problems; they are recreated on next use.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	reg := app.Default.Registry()

	problems, err := reg.Check()
	if err != nil {
		return err
	}
	count := len(problems)
	for _, p := range problems {
		fmt.Fprintf(out, "✗ %s\n", p)
	}

	rt, err := getRuntime(ctx)
	if err != nil {
		return err
	}
	records, err := reg.List()
	if err != nil {
		return err
	}

	containers, err := rt.List(ctx, protocol.ContainerPrefix)
	if err != nil {
		return errors.OperationFailed("container list", err)
	}

	known := make(map[string]bool, len(records))
	for _, rec := range records {
		known[rec.Container] = true
	}
	present := make(map[string]bool, len(containers))
	for _, c := range containers {
		present[c.Name] = true
		if !known[c.Name] {
			fmt.Fprintf(out, "✗ orphan container %s (%s) has no registry entry\n", c.Name, c.Status)
			count++
		}
	}

	for _, rec := range records {
		if !present[rec.Container] {
			fmt.Fprintf(out, "○ %s: container %s is %s\n", rec.Name, rec.Container, runtime.StatusNotFound)
		}
	}

	if count > 0 {
		return errors.New(errors.ExitGeneralError, fmt.Sprintf("%d problem(s) found", count))
	}

	logSuccess("Registry is consistent (%d instance(s))", len(records))
	return nil
}
