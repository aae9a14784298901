package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new instance",
	Long: `Allocates a free port block, registers the instance and starts its
container.

Mounts share host folders with the agent:
  --mount ~/docs                  read/write at user_shared/docs
  --mount ~/docs:ro               read-only
  --mount ~/docs:/data/docs:ro    explicit container path`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var createMounts []string

func init() {
	createCmd.Flags().StringArrayVarP(&createMounts, "mount", "m", nil, "Share a host folder (host[:container][:ro|rw])")
	rootCmd.AddCommand(createCmd)
}

// parseMounts parses --mount values and checks that each host folder exists.
func parseMounts(specs []string) ([]registry.Mount, error) {
	mounts := make([]registry.Mount, 0, len(specs))
	for _, spec := range specs {
		m, err := registry.ParseMount(expandHome(spec))
		if err != nil {
			return nil, errors.ValidationError(err.Error())
		}
		info, err := os.Stat(m.Host)
		if err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("mount path does not exist: %s", m.Host))
		}
		if !info.IsDir() {
			return nil, errors.ValidationError(fmt.Sprintf("mount path is not a directory: %s", m.Host))
		}
		mounts = append(mounts, m)
	}
	return mounts, nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mounts, err := parseMounts(createMounts)
	if err != nil {
		return err
	}

	ctrl, err := getController(ctx)
	if err != nil {
		return err
	}

	rec, err := createInstance(ctx, ctrl, args[0], mounts)
	if err != nil {
		return err
	}

	logHint("Onboard it with: spawn-ctl agent -i %s", rec.Name)
	return nil
}
