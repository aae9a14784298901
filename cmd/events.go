package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
)

var eventsCmd = &cobra.Command{
	Use:   "events [name]",
	Short: "Show the lifecycle event log",
	Long: `Shows recorded lifecycle events (create, start, stop, remove, takeover...)
for one instance, or for all instances when no name is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvents,
}

var eventsRaw bool

func init() {
	eventsCmd.Flags().BoolVar(&eventsRaw, "jsonl", false, "Print raw JSON lines")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	logger := app.Default.Audit()

	var (
		events []audit.Event
		err    error
	)
	if len(args) == 1 {
		if verr := config.ValidateInstanceName(args[0]); verr != nil {
			return errors.ValidationError(verr.Error())
		}
		events, err = logger.Events(args[0])
	} else {
		events, err = logger.All()
	}
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(out, "No events recorded.")
		return nil
	}

	if eventsRaw {
		enc := json.NewEncoder(out)
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}

	for _, e := range events {
		line := fmt.Sprintf("[%s] %-9s %s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Type, e.Instance)
		if e.Details != "" {
			line += " (" + e.Details + ")"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
