package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/system"
)

// DockerRuntime implements the Runtime interface by shelling out to the
// docker (or podman) command line client. Attached execs, logs and builds
// stream through the process terminal.
type DockerRuntime struct {
	// Command is the container command to use (docker or podman)
	Command string

	exec system.CommandExecutor
}

// NewDockerRuntime creates a CLI runtime using command. A nil executor
// uses the system default.
func NewDockerRuntime(command string, exec system.CommandExecutor) *DockerRuntime {
	if command == "" {
		command = "docker"
	}
	if exec == nil {
		exec = system.DefaultExecutor()
	}
	return &DockerRuntime{Command: command, exec: exec}
}

// Name returns the runtime identifier
func (r *DockerRuntime) Name() string {
	return r.Command
}

// runCmd executes a docker/podman command
func (r *DockerRuntime) runCmd(ctx context.Context, args ...string) (string, error) {
	out, err := r.exec.Execute(ctx, r.Command, args...)
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %s: %w", r.Command, args[0], strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}

// Installed reports whether the client binary is on PATH.
func (r *DockerRuntime) Installed(ctx context.Context) bool {
	_, err := r.exec.LookPath(r.Command)
	return err == nil
}

// Ping runs "docker info", which fails when the daemon is down.
func (r *DockerRuntime) Ping(ctx context.Context) error {
	if _, err := r.runCmd(ctx, "info", "--format", "{{.ServerVersion}}"); err != nil {
		return errors.EngineUnavailable(err)
	}
	return nil
}

// ImageExists reports whether image is present locally
func (r *DockerRuntime) ImageExists(ctx context.Context, image string) (bool, error) {
	out, err := r.runCmd(ctx, "images", "-q", image)
	if err != nil {
		return false, errors.OperationFailed("image lookup", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// BuildImage runs "docker build" with output on the terminal.
func (r *DockerRuntime) BuildImage(ctx context.Context, image, contextDir string, _ io.Writer) error {
	logging.Debug("building image", "image", image, "context", contextDir)
	if err := r.exec.ExecuteInteractive(ctx, r.Command, "build", "-t", image, contextDir); err != nil {
		return errors.OperationFailed("image build", err)
	}
	return nil
}

// EnsureNetwork creates network unless "network inspect" finds it.
func (r *DockerRuntime) EnsureNetwork(ctx context.Context, network string) error {
	if _, err := r.runCmd(ctx, "network", "inspect", network); err == nil {
		return nil
	}
	logging.Debug("creating network", "network", network)
	if _, err := r.runCmd(ctx, "network", "create", network); err != nil {
		return errors.OperationFailed("network create", err)
	}
	return nil
}

// runArgs builds the "docker run" argument list for opts.
func runArgs(opts CreateOptions) []string {
	args := []string{"run", "-d", "--name", opts.Name}
	for _, env := range opts.Env {
		args = append(args, "-e", env)
	}
	if opts.Network != "" {
		args = append(args, "--network", opts.Network)
	}
	if opts.ShmSize != "" {
		args = append(args, "--shm-size", opts.ShmSize)
	}
	for _, p := range opts.Ports {
		args = append(args, "-p", fmt.Sprintf("%d:%d", p.Host, p.Container))
	}
	for _, m := range opts.Mounts {
		v := m.Source + ":" + m.Target
		if m.ReadOnly {
			v += ":ro"
		}
		args = append(args, "-v", v)
	}
	return append(args, opts.Image)
}

// Create runs a detached container
func (r *DockerRuntime) Create(ctx context.Context, opts CreateOptions) error {
	logging.Debug("creating container", "name", opts.Name, "runtime", r.Command)
	if _, err := r.runCmd(ctx, runArgs(opts)...); err != nil {
		return errors.OperationFailed("container create", err)
	}
	return nil
}

// Start starts an existing container
func (r *DockerRuntime) Start(ctx context.Context, name string) error {
	logging.Debug("starting container", "container", name)
	if _, err := r.runCmd(ctx, "start", name); err != nil {
		return errors.OperationFailed("container start", err)
	}
	return nil
}

// Stop stops a running container
func (r *DockerRuntime) Stop(ctx context.Context, name string) error {
	logging.Debug("stopping container", "container", name)
	if _, err := r.runCmd(ctx, "stop", name); err != nil {
		return errors.OperationFailed("container stop", err)
	}
	return nil
}

// Remove force-removes a container
func (r *DockerRuntime) Remove(ctx context.Context, name string) error {
	logging.Debug("removing container", "container", name)
	out, err := r.runCmd(ctx, "rm", "-f", name)
	if err != nil {
		if isNoSuch(out) {
			return nil
		}
		return errors.OperationFailed("container remove", err)
	}
	return nil
}

func isNoSuch(out string) bool {
	return strings.Contains(strings.ToLower(out), "no such")
}

// dockerInspect holds the relevant fields from docker inspect
type dockerInspect struct {
	Name  string `json:"Name"`
	State struct {
		Status    string `json:"Status"`
		Running   bool   `json:"Running"`
		StartedAt string `json:"StartedAt"`
	} `json:"State"`
	Config struct {
		Image string `json:"Image"`
	} `json:"Config"`
}

// Status returns detailed status of a container
func (r *DockerRuntime) Status(ctx context.Context, name string) (*ContainerInfo, error) {
	info := &ContainerInfo{
		Name:   name,
		Status: StatusNotFound,
	}

	output, err := r.runCmd(ctx, "inspect", "--type", "container", name)
	if err != nil {
		if isNoSuch(output) {
			return info, nil
		}
		info.Status = StatusUnknown
		if strings.Contains(strings.ToLower(output), "cannot connect") {
			return info, errors.EngineUnavailable(err)
		}
		return info, errors.OperationFailed("container inspect", err)
	}

	var inspects []dockerInspect
	if err := json.Unmarshal([]byte(output), &inspects); err != nil || len(inspects) == 0 {
		info.Status = StatusUnknown
		return info, nil
	}

	inspect := inspects[0]
	info.State = inspect.State.Status
	info.Status = StatusFromState(inspect.State.Status)
	info.StartedAt = inspect.State.StartedAt
	info.Image = inspect.Config.Image

	return info, nil
}

// Exec executes a command inside a container and captures its output.
// The CLI merges both streams into Stdout.
func (r *DockerRuntime) Exec(ctx context.Context, name string, command []string) (*ExecResult, error) {
	args := append([]string{"exec", name}, command...)
	out, err := r.exec.Execute(ctx, r.Command, args...)

	result := &ExecResult{Stdout: string(out)}
	if err != nil {
		code, ok := exitStatus(err)
		if !ok || isNoSuch(string(out)) {
			return result, errors.OperationFailed("exec", err)
		}
		result.ExitCode = code
	}
	return result, nil
}

// ExecAttached runs "docker exec -it" (or "-i" without a TTY) on the
// process terminal.
func (r *DockerRuntime) ExecAttached(ctx context.Context, name string, command []string, opts ExecOptions) (int, error) {
	flag := "-i"
	if opts.TTY {
		flag = "-it"
	}
	args := append([]string{"exec", flag, name}, command...)

	err := r.exec.ExecuteInteractive(ctx, r.Command, args...)
	if err == nil {
		return 0, nil
	}
	if code, ok := exitStatus(err); ok {
		return code, nil
	}
	return 1, errors.OperationFailed("exec", err)
}

// ExecDetached runs "docker exec -d".
func (r *DockerRuntime) ExecDetached(ctx context.Context, name string, command []string) error {
	args := append([]string{"exec", "-d", name}, command...)
	if _, err := r.runCmd(ctx, args...); err != nil {
		return errors.OperationFailed("exec", err)
	}
	return nil
}

// Logs runs "docker logs" on the process terminal.
func (r *DockerRuntime) Logs(ctx context.Context, name string, opts LogsOptions) error {
	args := []string{"logs"}
	if opts.Follow {
		args = append(args, "-f")
	}
	if opts.Tail != "" {
		args = append(args, "--tail", opts.Tail)
	}
	args = append(args, name)

	if err := r.exec.ExecuteInteractive(ctx, r.Command, args...); err != nil && ctx.Err() == nil {
		return errors.OperationFailed("logs", err)
	}
	return nil
}

// List returns containers whose name starts with prefix
func (r *DockerRuntime) List(ctx context.Context, prefix string) ([]*ContainerInfo, error) {
	output, err := r.runCmd(ctx, "ps", "-a", "--filter", "name=^"+prefix, "--format", "{{.Names}}\t{{.State}}\t{{.Image}}")
	if err != nil {
		return nil, errors.OperationFailed("container list", err)
	}

	var containers []*ContainerInfo
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 || !strings.HasPrefix(fields[0], prefix) {
			continue
		}
		info := &ContainerInfo{
			Name:   fields[0],
			State:  fields[1],
			Status: StatusFromState(fields[1]),
		}
		if len(fields) > 2 {
			info.Image = fields[2]
		}
		containers = append(containers, info)
	}

	return containers, nil
}

// exitStatus reports the exit code carried by err, if any.
func exitStatus(err error) (int, bool) {
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode(), true
	}
	return 0, false
}

// TailLines converts a line count into a LogsOptions.Tail value.
func TailLines(n int) string {
	if n <= 0 {
		return "all"
	}
	return strconv.Itoa(n)
}

var _ Runtime = (*DockerRuntime)(nil)
