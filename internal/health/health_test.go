package health

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/browser"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

func TestStatusConstants(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusStopped, "stopped"},
		{StatusMissing, "missing"},
		{StatusUnknown, "unknown"},
	}

	for _, tt := range tests {
		if string(tt.status) != tt.want {
			t.Errorf("Status %v = %q, want %q", tt.status, tt.status, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"negative", -time.Second, "0s"},
		{"seconds", 30 * time.Second, "30s"},
		{"one minute", 1 * time.Minute, "1m"},
		{"minutes", 45 * time.Minute, "45m"},
		{"one hour", 1 * time.Hour, "1h 0m"},
		{"hours and minutes", 2*time.Hour + 30*time.Minute, "2h 30m"},
		{"one day", 24 * time.Hour, "1d 0h"},
		{"days and hours", 3*24*time.Hour + 5*time.Hour, "3d 5h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.want {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestUptime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		startedAt string
		want      string
	}{
		{"2026-03-01T11:30:00Z", "30m"},
		{"2026-03-01T09:59:59.123456789Z", "2h 0m"},
		{"", "unknown"},
		{"yesterday", "yesterday"},
	}
	for _, tt := range tests {
		if got := Uptime(tt.startedAt, now); got != tt.want {
			t.Errorf("Uptime(%q) = %q, want %q", tt.startedAt, got, tt.want)
		}
	}
}

func record() *registry.Record {
	return &registry.Record{Name: "alice", Container: "openclaw-alice", Port: 18789}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		engine  runtime.ContainerStatus
		open    map[int]bool
		want    Status
		wantCDP bool
	}{
		{"missing", runtime.StatusNotFound, nil, StatusMissing, false},
		{"stopped", runtime.StatusStopped, nil, StatusStopped, false},
		{"running, gateway down", runtime.StatusRunning, nil, StatusDegraded, true},
		{"running, gateway up", runtime.StatusRunning, map[int]bool{18789: true}, StatusHealthy, true},
		{"paused", runtime.StatusUnknown, nil, StatusUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := runtime.NewMockRuntime()
			if tt.engine != runtime.StatusNotFound {
				rt.AddContainer("openclaw-alice", tt.engine)
			}

			var cdpPort int
			c := &Checker{
				Runtime:  rt,
				PortOpen: func(_ context.Context, p int) bool { return tt.open[p] },
				CDP: func(_ context.Context, p int) (*browser.CDPStatus, error) {
					cdpPort = p
					return &browser.CDPStatus{Reachable: true}, nil
				},
			}

			result := c.Check(context.Background(), record())
			if got := result.Summary(); got != tt.want {
				t.Errorf("Summary() = %s, want %s", got, tt.want)
			}
			if result.CDPReachable != tt.wantCDP {
				t.Errorf("CDPReachable = %v, want %v", result.CDPReachable, tt.wantCDP)
			}
			if tt.wantCDP && cdpPort != 18800 {
				t.Errorf("CDP probed on %d, want 18800", cdpPort)
			}
		})
	}
}

func TestCheck_EngineError(t *testing.T) {
	rt := runtime.NewMockRuntime()
	rt.SetError("Status", errors.New("daemon gone"))

	result := NewChecker(rt).Check(context.Background(), record())
	if result.Err == nil {
		t.Error("expected engine error in result")
	}
	if result.Summary() != StatusUnknown {
		t.Errorf("Summary() = %s, want unknown", result.Summary())
	}
}

func TestDialPort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port

	if !DialPort(context.Background(), port) {
		t.Error("DialPort = false for listening port")
	}
	l.Close()
	if DialPort(context.Background(), port) {
		t.Error("DialPort = true after close")
	}
}
