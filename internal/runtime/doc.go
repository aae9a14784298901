// Package runtime provides a unified interface for the container engine
// that hosts agent instances.
//
// Two backends implement Runtime:
//   - DockerRuntime shells out to the docker (or podman) CLI through a
//     system.CommandExecutor
//   - APIRuntime talks to the Docker Engine API with the official SDK
//
// New selects one from Config. The "auto" backend pings the API and falls
// back to the CLI.
//
// # Runtime Interface
//
// The Runtime interface covers what the instance controller needs:
//   - Installed, Ping: engine presence and readiness
//   - ImageExists, BuildImage, EnsureNetwork: shared engine objects
//   - Create, Start, Stop, Remove: container lifecycle
//   - Status, List: container state queries
//   - Exec, ExecAttached, ExecDetached: command execution inside containers
//   - Logs: container output
//
// Status never fails for a missing container; it reports StatusNotFound.
// Engine states other than running, exited, created and dead map to
// StatusUnknown.
//
// # Mock Runtime
//
// For testing, use NewMockRuntime() to create a mock implementation that can
// be configured with expected responses and used to verify command execution.
package runtime
