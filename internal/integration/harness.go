package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/instance"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/port"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

const (
	// EnvEnable turns engine tests on.
	EnvEnable = "SPAWN_INTEGRATION_TESTS"

	// EnvImage overrides the image instances are created from.
	EnvImage = "SPAWN_TEST_IMAGE"

	// EnvEngine overrides the engine command.
	EnvEngine = "SPAWN_TEST_ENGINE"

	defaultImage   = "nginx:alpine"
	testNetwork    = "openclaw-spawn-test"
	testPortHint   = 28789
	testPortWindow = 200
)

// TestHarness runs spawn-ctl's controller against a real engine in a temp
// state root.
type TestHarness struct {
	t         *testing.T
	tempDir   string
	paths     *config.Paths
	rt        runtime.Runtime
	ctrl      *instance.Controller
	instances []string // Track created instances for cleanup
}

// NewHarness creates a new test harness.
// It will skip the test if SPAWN_INTEGRATION_TESTS is not set or the engine
// or image is not available.
func NewHarness(t *testing.T) *TestHarness {
	t.Helper()

	if os.Getenv(EnvEnable) == "" {
		t.Skipf("integration tests disabled (set %s=1 to enable)", EnvEnable)
	}

	ctx := context.Background()
	tempDir := t.TempDir()
	paths := config.NewPaths(filepath.Join(tempDir, "state"))

	cfg := runtime.DefaultConfig()
	if cmd := os.Getenv(EnvEngine); cmd != "" {
		cfg.Command = cmd
	}
	rt, err := runtime.New(ctx, cfg)
	if err != nil {
		t.Skipf("no container engine: %v", err)
	}
	if err := runtime.Ready(ctx, rt); err != nil {
		t.Skipf("container engine not ready: %v", err)
	}

	image := Image()
	ok, err := rt.ImageExists(ctx, image)
	if err != nil || !ok {
		t.Skipf("image %s not available (pull it first)", image)
	}

	reg := registry.New(paths, registry.WithDefaultHint(testPortHint))
	ctrl := instance.NewController(rt, reg,
		instance.WithAllocator(port.NewAllocator(testPortWindow)),
		instance.WithAudit(audit.NewLogger(paths.EventsDir)),
		instance.WithImage(image),
		instance.WithNetwork(testNetwork),
	)

	h := &TestHarness{
		t:         t,
		tempDir:   tempDir,
		paths:     paths,
		rt:        rt,
		ctrl:      ctrl,
		instances: make([]string, 0),
	}

	t.Cleanup(h.Cleanup)

	return h
}

// Image returns the image engine tests create instances from.
func Image() string {
	if image := os.Getenv(EnvImage); image != "" {
		return image
	}
	return defaultImage
}

// Paths returns the test paths.
func (h *TestHarness) Paths() *config.Paths {
	return h.paths
}

// Runtime returns the container runtime.
func (h *TestHarness) Runtime() runtime.Runtime {
	return h.rt
}

// Controller returns the lifecycle controller.
func (h *TestHarness) Controller() *instance.Controller {
	return h.ctrl
}

// Create creates an instance and tracks it for cleanup.
func (h *TestHarness) Create(name string, mounts ...registry.Mount) *registry.Record {
	h.t.Helper()

	h.TrackInstance(name)
	rec, err := h.ctrl.Create(context.Background(), name, mounts)
	if err != nil {
		h.t.Fatalf("Create(%s) failed: %v", name, err)
	}
	return rec
}

// CreateSharedDir creates a host folder to mount into instances.
func (h *TestHarness) CreateSharedDir(name string) string {
	h.t.Helper()

	path := filepath.Join(h.tempDir, "shared", name)
	if err := os.MkdirAll(path, 0755); err != nil {
		h.t.Fatalf("Failed to create shared dir: %v", err)
	}

	testFile := filepath.Join(path, "README.md")
	if err := os.WriteFile(testFile, []byte("# Shared\n"), 0644); err != nil {
		h.t.Fatalf("Failed to create test file: %v", err)
	}

	return path
}

// WaitForStatus waits until the instance's container reaches status.
func (h *TestHarness) WaitForStatus(name string, status runtime.ContainerStatus, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		_, info, err := h.ctrl.Status(ctx, name)
		if err == nil && info.Status == status {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s not %s after %v", name, status, timeout)
		case <-ticker.C:
		}
	}
}

// TrackInstance tracks an instance for cleanup.
func (h *TestHarness) TrackInstance(name string) {
	h.instances = append(h.instances, name)
}

// Cleanup removes all tracked containers. The state root is a temp dir.
func (h *TestHarness) Cleanup() {
	ctx := context.Background()

	for _, name := range h.instances {
		container := protocol.ContainerName(name)
		if err := h.rt.Remove(ctx, container); err != nil {
			h.t.Logf("Warning: failed to remove container %s: %v", container, err)
		}
	}
}

// RequireRunning skips the test if the instance's container is not running.
func (h *TestHarness) RequireRunning(name string) {
	h.t.Helper()

	_, info, err := h.ctrl.Status(context.Background(), name)
	if err != nil {
		h.t.Skipf("failed to check %s: %v", name, err)
	}
	if info.Status != runtime.StatusRunning {
		h.t.Skipf("instance %s is not running (%s)", name, info.Status)
	}
}
