// Package health checks whether an instance is fully operational.
//
// A check asks the engine for the container state and, when the container
// runs, probes the instance's published ports on loopback.
//
// # Health Status
//
// Instance health is represented by Status:
//
//	StatusHealthy  - Container running, gateway port accepting connections
//	StatusDegraded - Container running but nothing listens on the gateway port
//	StatusStopped  - Container exists but is not running
//	StatusMissing  - Registered instance without a container
//	StatusUnknown  - Engine state could not be determined
//
// The remote-debug and VNC relay results are reported but do not affect the
// summary; both are only expected while a browser takeover is active.
//
//	checker := health.NewChecker(rt)
//	result := checker.Check(ctx, rec)
//	status := result.Summary()
package health
