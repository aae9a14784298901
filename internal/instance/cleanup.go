package instance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

// CleanupResult summarizes a CleanupAll run.
type CleanupResult struct {
	Stopped []string
	Removed []string
	Wiped   []string
	// Errors collects per-instance failures; cleanup carries on past them.
	Errors []error
}

// CleanupAll stops and removes every registered container, wipes each
// instance directory back to empty, and resets the registry including the
// port hint.
func (c *Controller) CleanupAll(ctx context.Context, instancesDir string) (*CleanupResult, error) {
	records, err := c.reg.Sorted()
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{}
	for _, rec := range records {
		info, err := c.rt.Status(ctx, rec.Container)
		if err != nil {
			logging.Debug("status failed during cleanup", "container", rec.Container, "error", err)
		}
		status := runtime.StatusUnknown
		if info != nil {
			status = info.Status
		}

		if status == runtime.StatusRunning {
			if err := c.rt.Stop(ctx, rec.Container); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("stopping %s: %w", rec.Container, err))
			} else {
				result.Stopped = append(result.Stopped, rec.Name)
			}
		}
		if status != runtime.StatusNotFound {
			if err := c.rt.Remove(ctx, rec.Container); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("removing %s: %w", rec.Container, err))
			} else {
				result.Removed = append(result.Removed, rec.Name)
			}
		}
	}

	result.Wiped = wipeInstanceDirs(instancesDir)

	if err := c.reg.Remove(protocol.AllInstances); err != nil {
		return result, err
	}

	c.record(audit.EventCleanup, protocol.AllInstances,
		fmt.Sprintf("removed=%d wiped=%d", len(result.Removed), len(result.Wiped)))
	return result, nil
}

// wipeInstanceDirs empties every directory under dir and recreates it so the
// layout survives. A missing dir is not an error.
func wipeInstanceDirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("failed to read instances directory", "path", dir, "error", err)
		}
		return nil
	}

	var wiped []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			logging.Warn("failed to clear instance directory", "path", path, "error", err)
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			logging.Warn("failed to recreate instance directory", "path", path, "error", err)
			continue
		}
		wiped = append(wiped, e.Name())
	}
	return wiped
}
