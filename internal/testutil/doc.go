// Package testutil provides test fixtures and utilities.
//
// # Fixtures
//
// Fixtures are embedded using go:embed:
//
//	fixtures/valid_settings.toml
//	fixtures/invalid_settings.toml
//	fixtures/registry.json
//	fixtures/agent_config.json
//
// Settings fixtures are written to a directory and loaded through
// config.LoadSettings, so validation runs as it does in production:
//
//	s, err := testutil.ValidSettings(t.TempDir())
//	_, err = testutil.InvalidSettings(t.TempDir()) // err != nil
//
// # Test Environment
//
// NewTestEnv builds an App over a temp state root with a MockRuntime and
// an allocator that considers every port free, and installs it as
// app.Default:
//
//	env := testutil.NewTestEnv(t)
//	defer env.Cleanup()
//
//	env.AddInstance("alice", 18789, runtime.StatusRunning)
//	env.WriteDefaultAgentConfig("alice")
package testutil
