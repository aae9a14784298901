package runtime

import (
	"context"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/system"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != BackendCLI {
		t.Errorf("expected cli backend, got %s", cfg.Backend)
	}
	if cfg.Command != "docker" {
		t.Errorf("expected docker command, got %s", cfg.Command)
	}
}

func TestNew_CLI(t *testing.T) {
	exec := system.NewMockExecutor()
	rt, err := New(context.Background(), &Config{Backend: BackendCLI, Command: "podman", Executor: exec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rt.Name() != "podman" {
		t.Errorf("Name() = %q, want podman", rt.Name())
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), &Config{Backend: "lxc"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(m *MockRuntime)
		wantErr bool
	}{
		{"ready", func(m *MockRuntime) {}, false},
		{"not installed", func(m *MockRuntime) { m.NotInstalled = true }, true},
		{"daemon down", func(m *MockRuntime) { m.SetError("Ping", errors.EngineUnavailable(nil)) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockRuntime()
			tt.setup(m)
			err := Ready(context.Background(), m)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Ready() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrEngineUnavailable) {
				t.Errorf("Ready() error = %v, want EngineUnavailable", err)
			}
		})
	}
}

func TestStatusFromState(t *testing.T) {
	tests := []struct {
		state string
		want  ContainerStatus
	}{
		{"running", StatusRunning},
		{"exited", StatusStopped},
		{"created", StatusStopped},
		{"dead", StatusStopped},
		{"paused", StatusUnknown},
		{"restarting", StatusUnknown},
		{"", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			if got := StatusFromState(tt.state); got != tt.want {
				t.Errorf("StatusFromState(%q) = %s, want %s", tt.state, got, tt.want)
			}
		})
	}
}
