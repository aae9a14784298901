package instance

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/port"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

// Controller drives instance containers through the engine and keeps the
// registry in step.
type Controller struct {
	rt      runtime.Runtime
	reg     *registry.Registry
	alloc   *port.Allocator
	audit   *audit.Logger
	image   string
	network string
}

// NewController returns a controller over rt and reg.
func NewController(rt runtime.Runtime, reg *registry.Registry, opts ...Option) *Controller {
	c := &Controller{
		rt:      rt,
		reg:     reg,
		alloc:   port.NewAllocator(port.DefaultSearchLimit),
		image:   protocol.Image,
		network: protocol.Network,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Runtime returns the engine backend.
func (c *Controller) Runtime() runtime.Runtime {
	return c.rt
}

// Registry returns the instance registry.
func (c *Controller) Registry() *registry.Registry {
	return c.reg
}

// Create registers name on a freshly probed port block and starts its
// container. If the container cannot be created the registry entry is
// rolled back.
func (c *Controller) Create(ctx context.Context, name string, mounts []registry.Mount) (*registry.Record, error) {
	logging.Debug("creating instance", "name", name, "mounts", len(mounts))

	if err := config.ValidateInstanceName(name); err != nil {
		return nil, errors.ValidationError(err.Error())
	}
	exists, err := c.reg.Exists(name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.AlreadyExists(name)
	}

	if err := c.rt.EnsureNetwork(ctx, c.network); err != nil {
		return nil, engineErr("network create", err)
	}

	reserved, hint, err := c.reservations()
	if err != nil {
		return nil, err
	}
	base, err := c.alloc.Allocate(ctx, hint, reserved)
	if err != nil {
		return nil, err
	}

	rec, err := c.reg.Create(name, base, mounts)
	if err != nil {
		return nil, err
	}

	if err := c.createContainer(ctx, rec); err != nil {
		// a run can fail after the engine created the container
		if rmErr := c.rt.Remove(ctx, rec.Container); rmErr != nil {
			logging.Warn("failed to remove container after failed create", "container", rec.Container, "error", rmErr)
		}
		if rbErr := c.reg.Remove(name); rbErr != nil {
			logging.Warn("failed to roll back registry entry", "name", name, "error", rbErr)
		}
		c.record(audit.EventError, name, "create: "+err.Error())
		return nil, err
	}

	c.setStatus(name, registry.StatusRunning)
	rec.Status = registry.StatusRunning
	c.record(audit.EventCreate, name, fmt.Sprintf("port=%d mounts=%d", base, len(mounts)))
	return rec, nil
}

// reservations returns the blocks held by registered instances and the
// search hint.
func (c *Controller) reservations() ([]port.Block, int, error) {
	records, err := c.reg.List()
	if err != nil {
		return nil, 0, err
	}
	reserved := make([]port.Block, 0, len(records))
	for _, rec := range records {
		reserved = append(reserved, port.Block{Base: rec.Port})
	}
	hint, err := c.reg.NextPortHint()
	if err != nil {
		return nil, 0, err
	}
	return reserved, port.Hint(hint), nil
}

func (c *Controller) createContainer(ctx context.Context, rec *registry.Record) error {
	opts, err := c.createOptions(rec)
	if err != nil {
		return err
	}
	logging.Debug("creating container", "container", opts.Name, "image", opts.Image, "port", rec.Port)
	if err := c.rt.Create(ctx, opts); err != nil {
		return engineErr("container create", err)
	}
	return nil
}

// createOptions maps a record to the engine's create request.
func (c *Controller) createOptions(rec *registry.Record) (runtime.CreateOptions, error) {
	dir, err := c.reg.InstanceDir(rec.Name)
	if err != nil {
		return runtime.CreateOptions{}, err
	}

	opts := runtime.CreateOptions{
		Name:    rec.Container,
		Image:   c.image,
		Network: c.network,
		ShmSize: protocol.ShmSize,
		Env: []string{
			"HOME=" + protocol.ContainerHome,
			"PLAYWRIGHT_BROWSERS_PATH=" + protocol.PlaywrightBrowsers,
		},
		Mounts: []runtime.Mount{
			{Source: filepath.Join(dir, protocol.HostAgentStateDir), Target: protocol.AgentStateMount},
			{Source: filepath.Join(dir, protocol.HostWorkspaceDir), Target: protocol.WorkspaceMount},
			{Source: protocol.DockerSocket, Target: protocol.DockerSocket},
		},
	}
	for _, m := range protocol.PortMappings(rec.Port) {
		opts.Ports = append(opts.Ports, runtime.PortMapping{Host: m[0], Container: m[1]})
	}
	for _, m := range rec.Mounts {
		opts.Mounts = append(opts.Mounts, runtime.Mount{
			Source:   m.Host,
			Target:   m.Container,
			ReadOnly: m.Mode == registry.MountReadOnly,
		})
	}
	return opts, nil
}

// Start starts an existing stopped container. A running container is left
// alone.
func (c *Controller) Start(ctx context.Context, name string) error {
	rec, err := c.reg.Get(name)
	if err != nil {
		return err
	}

	info, err := c.rt.Status(ctx, rec.Container)
	if err != nil {
		return engineErr("container inspect", err)
	}

	switch info.Status {
	case runtime.StatusRunning:
		logging.Debug("container already running", "container", rec.Container)
	case runtime.StatusNotFound:
		return errors.OperationFailed("container start",
			fmt.Errorf("container %s does not exist; run `spawn-ctl agent -i %s` to recreate it", rec.Container, name))
	default:
		if err := c.rt.Start(ctx, rec.Container); err != nil {
			return engineErr("container start", err)
		}
		c.record(audit.EventStart, name, "")
	}

	c.setStatus(name, registry.StatusRunning)
	return nil
}

// Stop stops the container of name. Stopping a container that is not
// running succeeds.
func (c *Controller) Stop(ctx context.Context, name string) error {
	rec, err := c.reg.Get(name)
	if err != nil {
		return err
	}

	info, err := c.rt.Status(ctx, rec.Container)
	if err != nil {
		return engineErr("container inspect", err)
	}

	if info.Status == runtime.StatusRunning {
		if err := c.rt.Stop(ctx, rec.Container); err != nil {
			return engineErr("container stop", err)
		}
		c.record(audit.EventStop, name, "")
	} else {
		logging.Debug("container not running", "container", rec.Container, "status", info.Status)
	}

	c.setStatus(name, registry.StatusStopped)
	return nil
}

// Remove force-removes the container and deletes the registry entry. The
// instance directory is kept.
func (c *Controller) Remove(ctx context.Context, name string) error {
	rec, err := c.reg.Get(name)
	if err != nil {
		return err
	}

	if err := c.rt.Remove(ctx, rec.Container); err != nil {
		return engineErr("container remove", err)
	}
	if err := c.reg.Remove(name); err != nil {
		return err
	}

	c.record(audit.EventRemove, name, "")
	return nil
}

// Status returns the record and the live container state of name.
func (c *Controller) Status(ctx context.Context, name string) (*registry.Record, *runtime.ContainerInfo, error) {
	rec, err := c.reg.Get(name)
	if err != nil {
		return nil, nil, err
	}
	info, err := c.rt.Status(ctx, rec.Container)
	if err != nil {
		return rec, info, engineErr("container inspect", err)
	}
	return rec, info, nil
}

// EnsureRunning reconciles name's container towards running: a stopped
// container is started, a missing one is recreated from the registered port
// and mounts. An unknown state is an error.
func (c *Controller) EnsureRunning(ctx context.Context, name string) (*registry.Record, Action, error) {
	rec, info, err := c.Status(ctx, name)
	if err != nil {
		return nil, ActionNone, err
	}

	var action Action
	switch info.Status {
	case runtime.StatusRunning:
		return rec, ActionNone, nil

	case runtime.StatusStopped:
		logging.UserWarning("Instance %s is stopped. Starting...", name)
		if err := c.rt.Start(ctx, rec.Container); err != nil {
			return nil, ActionNone, engineErr("container start", err)
		}
		action = ActionStarted

	case runtime.StatusNotFound:
		logging.UserWarning("Container for %s not found. Recreating...", name)
		if err := c.rt.EnsureNetwork(ctx, c.network); err != nil {
			return nil, ActionNone, engineErr("network create", err)
		}
		if err := c.reg.EnsureDirs(name, len(rec.Mounts) > 0); err != nil {
			return nil, ActionNone, err
		}
		if err := c.createContainer(ctx, rec); err != nil {
			return nil, ActionNone, err
		}
		action = ActionRecreated

	default:
		state := info.State
		if state == "" {
			state = string(info.Status)
		}
		return nil, ActionNone, errors.OperationFailed("reconcile",
			fmt.Errorf("container %s is in state %q", rec.Container, state))
	}

	c.setStatus(name, registry.StatusRunning)
	rec.Status = registry.StatusRunning
	c.record(audit.EventReconcile, name, string(action))
	return rec, action, nil
}

// Dispatch reconciles name and runs command in its container. Attached
// commands take over streams and fail on a non-zero exit; detached
// commands return once launched.
func (c *Controller) Dispatch(ctx context.Context, name string, command []string, mode Mode, streams runtime.ExecOptions) error {
	if len(command) == 0 {
		return errors.ValidationError("no command given")
	}

	rec, _, err := c.EnsureRunning(ctx, name)
	if err != nil {
		return err
	}

	c.record(audit.EventDispatch, name, mode.String()+": "+strings.Join(command, " "))

	if mode == Detached {
		if err := c.rt.ExecDetached(ctx, rec.Container, command); err != nil {
			return engineErr("exec", err)
		}
		return nil
	}

	code, err := c.rt.ExecAttached(ctx, rec.Container, command, streams)
	if err != nil {
		return engineErr("exec", err)
	}
	if code != 0 {
		return errors.OperationFailed("exec", fmt.Errorf("%s exited with status %d", command[0], code))
	}
	return nil
}

// setStatus writes the advisory status hint; failures are only logged.
func (c *Controller) setStatus(name, status string) {
	if err := c.reg.SetStatus(name, status); err != nil {
		logging.Warn("failed to update status hint", "name", name, "status", status, "error", err)
	}
}

func (c *Controller) record(t audit.EventType, name, details string) {
	if c.audit == nil {
		return
	}
	if err := c.audit.LogEvent(t, name, details); err != nil {
		logging.Warn("failed to write audit event", "name", name, "type", t, "error", err)
	}
}

// engineErr keeps typed engine errors and wraps anything else.
func engineErr(op string, err error) error {
	var spawnErr *errors.SpawnError
	if errors.As(err, &spawnErr) {
		return err
	}
	return errors.OperationFailed(op, err)
}
