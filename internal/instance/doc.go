// Package instance provides instance lifecycle management for spawn-ctl.
//
// A Controller ties the registry, the port allocator and a container engine
// backend together:
//
//	ctrl := instance.NewController(rt, reg,
//	    instance.WithAudit(audit.NewLogger(paths.EventsDir)),
//	)
//	rec, err := ctrl.Create(ctx, "alice", mounts)
//
// # Creation Flow
//
// Controller.Create:
//  1. Validates the name and rejects a taken one
//  2. Ensures the engine network exists
//  3. Allocates a port block by live probing, skipping registered blocks
//  4. Writes the registry record and instance directories
//  5. Creates and starts the container
//
// If step 5 fails the registry record is removed again.
//
// # Reconciliation
//
// EnsureRunning compares the live engine state with the record: a stopped
// container is started, a missing one is recreated from the stored port and
// mounts, a running one is left alone. Dispatch reconciles first and then
// runs a command attached or detached.
//
// CleanupAll is the destructive reset: every container goes, every instance
// directory is emptied, and the registry returns to its initial document.
package instance
