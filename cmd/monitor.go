package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor instance health in the foreground",
	Long: `Periodically checks the health of all instances and optionally
brings stopped or missing containers back. Runs until interrupted.

Can be wrapped in a systemd service for persistent monitoring.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var (
	monitorInterval    int
	monitorAutoRestart bool
	monitorConcurrency int
)

func init() {
	monitorCmd.Flags().IntVar(&monitorInterval, "interval", 60, "Health check interval in seconds")
	monitorCmd.Flags().BoolVar(&monitorAutoRestart, "auto-restart", false, "Start stopped and recreate missing containers")
	monitorCmd.Flags().IntVar(&monitorConcurrency, "concurrency", monitor.DefaultConcurrency, "Parallel health checks")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if monitorInterval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl, err := getController(ctx)
	if err != nil {
		return err
	}
	checker, err := app.Default.Checker(ctx)
	if err != nil {
		return err
	}

	opts := []monitor.Option{
		monitor.WithAuditLogger(app.Default.Audit()),
		monitor.WithConcurrency(monitorConcurrency),
	}
	if monitorAutoRestart {
		opts = append(opts, monitor.WithAutoRestart(ctrl))
	}

	interval := time.Duration(monitorInterval) * time.Second
	mon := monitor.New(interval, ctrl.Registry(), checker, opts...)

	logInfo("Starting health monitor (interval: %ds, auto-restart: %v)", monitorInterval, monitorAutoRestart)

	out := cmd.OutOrStdout()
	err = mon.Run(ctx, func(results []monitor.CheckResult) {
		ts := time.Now().Format("15:04:05")
		for _, r := range results {
			line := fmt.Sprintf("[%s] %-20s %s", ts, r.Instance, r.Status)
			if r.Restarted {
				line += " (restarted)"
			}
			fmt.Fprintln(out, line)
		}
	})
	if err == context.Canceled {
		logInfo("Monitor stopped")
		return nil
	}
	return err
}
