// Package integration holds tests that run spawn-ctl components together.
//
// Workflow tests run everywhere: they drive the controller, registry, agent
// config mutator, browser orchestrator and audit log over a MockRuntime and
// check the state they leave on disk.
//
// Engine tests need a real container engine and are skipped unless
// SPAWN_INTEGRATION_TESTS is set. They also need:
//   - docker (or the command in SPAWN_TEST_ENGINE) on PATH
//   - an image that keeps running without a command, SPAWN_TEST_IMAGE,
//     nginx:alpine by default, already pulled
//   - free ports above 28789
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    h := integration.NewHarness(t) // skips when disabled
//	    rec := h.Create("it-alpha")
//	    h.WaitForStatus("it-alpha", runtime.StatusRunning, 10*time.Second)
//	}
package integration
