package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the base image",
	Long: `Builds the instance base image from a directory containing a Dockerfile.
The directory defaults to engine.build_context in config.toml.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var buildContext string

func init() {
	buildCmd.Flags().StringVar(&buildContext, "context", "", "Build context directory (default from settings)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := getRuntime(ctx)
	if err != nil {
		return err
	}

	dir := buildContext
	if dir == "" {
		dir = app.Default.Settings.Engine.BuildContext
	}
	return buildImage(cmd, rt, dir)
}

// buildImage builds the configured image from dir.
func buildImage(cmd *cobra.Command, rt runtime.Runtime, dir string) error {
	abs, err := filepath.Abs(expandHome(dir))
	if err != nil {
		return errors.ValidationError(fmt.Sprintf("invalid build context %s: %v", dir, err))
	}
	if _, err := os.Stat(filepath.Join(abs, "Dockerfile")); err != nil {
		return errors.ValidationError(fmt.Sprintf("no Dockerfile in %s", abs))
	}

	image := app.Default.Settings.Engine.Image
	logInfo("Building %s from %s...", image, abs)
	if err := rt.BuildImage(cmd.Context(), image, abs, cmd.OutOrStdout()); err != nil {
		var spawnErr *errors.SpawnError
		if errors.As(err, &spawnErr) {
			return err
		}
		return errors.OperationFailed("image build", err)
	}

	logSuccess("Built %s", image)
	return nil
}
