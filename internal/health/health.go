package health

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/browser"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

// Status represents the health status of an instance
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusStopped  Status = "stopped"
	StatusMissing  Status = "missing"
	StatusUnknown  Status = "unknown"

	// dialTimeout bounds each port check.
	dialTimeout = 500 * time.Millisecond
)

// CheckResult contains the results of health checks
type CheckResult struct {
	Instance         string
	Container        string
	Engine           runtime.ContainerStatus
	GatewayListening bool
	CDPReachable     bool
	VNCListening     bool
	Uptime           string
	Err              error
}

// Summary rolls the individual checks up into one Status.
func (r *CheckResult) Summary() Status {
	switch r.Engine {
	case runtime.StatusNotFound:
		return StatusMissing
	case runtime.StatusStopped:
		return StatusStopped
	case runtime.StatusRunning:
		if r.GatewayListening {
			return StatusHealthy
		}
		return StatusDegraded
	default:
		return StatusUnknown
	}
}

// Checker runs health checks against one engine.
type Checker struct {
	Runtime runtime.Runtime

	// PortOpen reports whether something accepts connections on the host
	// port; nil dials 127.0.0.1.
	PortOpen func(ctx context.Context, port int) bool

	// CDP checks the debug endpoint; nil skips the check.
	CDP func(ctx context.Context, port int) (*browser.CDPStatus, error)
}

// NewChecker returns a checker with loopback dialing and CDP checks.
func NewChecker(rt runtime.Runtime) *Checker {
	return &Checker{Runtime: rt, PortOpen: DialPort, CDP: browser.CheckCDP}
}

// DialPort reports whether a TCP connection to 127.0.0.1:port succeeds.
func DialPort(ctx context.Context, port int) bool {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Check inspects the container and, when it runs, the published ports.
func (c *Checker) Check(ctx context.Context, rec *registry.Record) *CheckResult {
	result := &CheckResult{
		Instance:  rec.Name,
		Container: rec.Container,
		Engine:    runtime.StatusUnknown,
	}

	info, err := c.Runtime.Status(ctx, rec.Container)
	if err != nil {
		result.Err = err
		return result
	}
	result.Engine = info.Status
	if info.Status != runtime.StatusRunning {
		return result
	}
	result.Uptime = Uptime(info.StartedAt, time.Now())

	portOpen := c.PortOpen
	if portOpen == nil {
		portOpen = DialPort
	}
	result.GatewayListening = portOpen(ctx, protocol.GatewayPort(rec.Port))
	result.VNCListening = portOpen(ctx, protocol.VNCRelayPort(rec.Port))

	if c.CDP != nil {
		status, err := c.CDP(ctx, protocol.RemoteDebugPort(rec.Port))
		if err != nil {
			logging.Debug("cdp check failed", "instance", rec.Name, "error", err)
		} else {
			result.CDPReachable = status.Reachable
		}
	}

	return result
}

// Uptime formats the time since startedAt, an engine timestamp.
func Uptime(startedAt string, now time.Time) string {
	if startedAt == "" || startedAt == "n/a" {
		return "unknown"
	}

	var t time.Time
	for _, format := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(format, startedAt); err == nil {
			t = parsed
			break
		}
	}

	if t.IsZero() {
		return startedAt // Return raw value if can't parse
	}

	return formatDuration(now.Sub(t))
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}
