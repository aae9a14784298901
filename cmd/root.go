package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "spawn-ctl [flags] [-- agent args...]",
	Short: "OpenClaw per-user sandbox fleet manager",
	Long: `spawn-ctl runs one OpenClaw agent sandbox per user on a single host.

Each instance is a container with:
  - A 4-port host block (gateway, browser control, debug, VNC relay)
  - Persistent agent state and workspace under ~/.openclaw-spawn
  - Optional shared host folders

Anything that is not a spawn-ctl command is forwarded to the agent inside
the selected instance, e.g. "spawn-ctl -i alice -- gateway -d".`,
	Args: cobra.ArbitraryArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(logging.Options{Verbose: verbose, JSON: jsonOutput, NoColor: noColor}, os.Stderr)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && agentInstance == "" {
			return cmd.Help()
		}
		return runAgent(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	addAgentFlags(rootCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
	logHint    = logging.UserHint
)
