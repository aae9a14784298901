package instance

import (
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/port"
)

// Option configures a Controller.
type Option func(*Controller)

// WithAllocator overrides the port allocator.
func WithAllocator(a *port.Allocator) Option {
	return func(c *Controller) {
		c.alloc = a
	}
}

// WithAudit records lifecycle events to l.
func WithAudit(l *audit.Logger) Option {
	return func(c *Controller) {
		c.audit = l
	}
}

// WithImage sets the image new containers are created from.
func WithImage(image string) Option {
	return func(c *Controller) {
		if image != "" {
			c.image = image
		}
	}
}

// WithNetwork sets the engine network containers join.
func WithNetwork(network string) Option {
	return func(c *Controller) {
		if network != "" {
			c.network = network
		}
	}
}

// Mode selects how Dispatch runs a command.
type Mode int

const (
	// Attached runs the command in the foreground with the caller's terminal.
	Attached Mode = iota
	// Detached starts the command in the background and returns.
	Detached
)

func (m Mode) String() string {
	if m == Detached {
		return "detached"
	}
	return "attached"
}

// Action reports what EnsureRunning had to do.
type Action string

const (
	ActionNone      Action = "none"
	ActionStarted   Action = "started"
	ActionRecreated Action = "recreated"
)
