// Package testutil provides test utilities for command and integration tests
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/port"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

// TestEnv holds the test environment
type TestEnv struct {
	T        *testing.T
	TmpDir   string
	Paths    *config.Paths
	Settings *config.Settings
	Runtime  *runtime.MockRuntime
	Registry *registry.Registry
	App      *app.App
	cleanup  func()
}

// NewTestEnv creates a new test environment with a mock runtime, an
// allocator that treats every port as free, and no settle waits. The env's
// App becomes app.Default until Cleanup.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()
	paths := config.NewPaths(filepath.Join(tmpDir, "state"))

	for _, dir := range []string{paths.StateDir, paths.InstancesDir, paths.EventsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	settings := config.DefaultSettings()
	mockRuntime := runtime.NewMockRuntime()

	testApp := app.New(
		app.WithPaths(paths),
		app.WithSettings(settings),
		app.WithRuntime(mockRuntime),
		app.WithSleep(func(context.Context, time.Duration) error { return nil }),
		app.WithAllocator(&port.Allocator{
			Prober: port.ProberFunc(func(context.Context, int) bool { return true }),
			Limit:  100,
		}),
	)

	// Save original default and set test app
	originalDefault := app.Default
	app.SetDefault(testApp)

	env := &TestEnv{
		T:        t,
		TmpDir:   tmpDir,
		Paths:    paths,
		Settings: settings,
		Runtime:  mockRuntime,
		Registry: testApp.Registry(),
		App:      testApp,
		cleanup: func() {
			app.SetDefault(originalDefault)
		},
	}

	return env
}

// Cleanup restores the original app default
func (e *TestEnv) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
	}
}

// AddInstance registers an instance at port and, unless status is
// not-found, adds its container to the mock runtime.
func (e *TestEnv) AddInstance(name string, port int, status runtime.ContainerStatus) *registry.Record {
	e.T.Helper()

	rec, err := e.Registry.Create(name, port, nil)
	if err != nil {
		e.T.Fatalf("Failed to register instance %s: %v", name, err)
	}
	if status != runtime.StatusNotFound {
		e.Runtime.AddContainer(rec.Container, status)
	}
	return rec
}

// WriteAgentConfig writes data as the instance's agent config.
func (e *TestEnv) WriteAgentConfig(name string, data []byte) string {
	e.T.Helper()

	path, err := e.Paths.AgentConfigPath(name)
	if err != nil {
		e.T.Fatalf("Invalid instance name %s: %v", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		e.T.Fatalf("Failed to create config directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		e.T.Fatalf("Failed to write agent config: %v", err)
	}
	return path
}

// WriteDefaultAgentConfig writes the onboarded agent config fixture.
func (e *TestEnv) WriteDefaultAgentConfig(name string) string {
	e.T.Helper()

	data, err := AgentConfig()
	if err != nil {
		e.T.Fatalf("Failed to load agent config fixture: %v", err)
	}
	return e.WriteAgentConfig(name, data)
}

// ReadAgentConfig returns the instance's agent config bytes.
func (e *TestEnv) ReadAgentConfig(name string) []byte {
	e.T.Helper()

	path, err := e.Paths.AgentConfigPath(name)
	if err != nil {
		e.T.Fatalf("Invalid instance name %s: %v", name, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		e.T.Fatalf("Failed to read agent config: %v", err)
	}
	return data
}

// InstanceExists checks if an instance is registered
func (e *TestEnv) InstanceExists(name string) bool {
	ok, err := e.Registry.Exists(name)
	if err != nil {
		e.T.Fatalf("Failed to read registry: %v", err)
	}
	return ok
}

// GetInstance returns the registered record or nil
func (e *TestEnv) GetInstance(name string) *registry.Record {
	rec, err := e.Registry.Get(name)
	if err != nil {
		return nil
	}
	return rec
}
