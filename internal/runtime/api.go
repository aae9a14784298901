package runtime

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"
	"golang.org/x/term"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
)

// APIRuntime implements the Runtime interface against the Docker Engine API.
type APIRuntime struct {
	cli *client.Client
}

// NewAPIRuntime connects using DOCKER_HOST and friends, negotiating the API
// version with the daemon.
func NewAPIRuntime() (*APIRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.EngineUnavailable(err)
	}
	return &APIRuntime{cli: cli}, nil
}

// Name returns the runtime identifier
func (r *APIRuntime) Name() string {
	return "docker-api"
}

// Close releases the client's transport.
func (r *APIRuntime) Close() error {
	return r.cli.Close()
}

// Installed is always true once a client is constructed.
func (r *APIRuntime) Installed(ctx context.Context) bool {
	return true
}

// Ping returns nil when the daemon answers.
func (r *APIRuntime) Ping(ctx context.Context) error {
	if _, err := r.cli.Ping(ctx); err != nil {
		return errors.EngineUnavailable(err)
	}
	return nil
}

// ImageExists reports whether image is present locally
func (r *APIRuntime) ImageExists(ctx context.Context, image string) (bool, error) {
	if _, err := r.cli.ImageInspect(ctx, image); err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, errors.OperationFailed("image inspect", err)
	}
	return true, nil
}

// BuildImage sends contextDir as a tar stream and renders the build
// progress to out.
func (r *APIRuntime) BuildImage(ctx context.Context, image, contextDir string, out io.Writer) error {
	buildCtx, err := tarDirectory(contextDir)
	if err != nil {
		return errors.OperationFailed("image build", err)
	}

	logging.Debug("building image", "image", image, "context", contextDir)
	resp, err := r.cli.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:       []string{image},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return errors.OperationFailed("image build", err)
	}
	defer resp.Body.Close()

	if out == nil {
		out = io.Discard
	}
	fd, isTerm := terminalFd(out)
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, out, fd, isTerm, nil); err != nil {
		return errors.OperationFailed("image build", err)
	}
	return nil
}

// EnsureNetwork creates network if the daemon does not know it.
func (r *APIRuntime) EnsureNetwork(ctx context.Context, name string) error {
	_, err := r.cli.NetworkInspect(ctx, name, network.InspectOptions{})
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return errors.OperationFailed("network inspect", err)
	}
	logging.Debug("creating network", "network", name)
	if _, err := r.cli.NetworkCreate(ctx, name, network.CreateOptions{}); err != nil {
		return errors.OperationFailed("network create", err)
	}
	return nil
}

// hostConfig translates opts into the engine's create payload.
func hostConfig(opts CreateOptions) (*container.Config, *container.HostConfig, error) {
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, p := range opts.Ports {
		port := nat.Port(fmt.Sprintf("%d/tcp", p.Container))
		exposed[port] = struct{}{}
		bindings[port] = append(bindings[port], nat.PortBinding{HostPort: strconv.Itoa(p.Host)})
	}

	mounts := make([]mount.Mount, 0, len(opts.Mounts))
	for _, m := range opts.Mounts {
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}

	hostCfg := &container.HostConfig{
		PortBindings: bindings,
		Mounts:       mounts,
		NetworkMode:  container.NetworkMode(opts.Network),
	}
	if opts.ShmSize != "" {
		size, err := units.RAMInBytes(strings.TrimSpace(opts.ShmSize))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid shm size %q: %w", opts.ShmSize, err)
		}
		hostCfg.ShmSize = size
	}

	cfg := &container.Config{
		Image:        opts.Image,
		Env:          opts.Env,
		ExposedPorts: exposed,
	}
	return cfg, hostCfg, nil
}

// Create creates and starts a container
func (r *APIRuntime) Create(ctx context.Context, opts CreateOptions) error {
	cfg, hostCfg, err := hostConfig(opts)
	if err != nil {
		return errors.OperationFailed("container create", err)
	}

	logging.Debug("creating container", "name", opts.Name, "runtime", r.Name())
	resp, err := r.cli.ContainerCreate(ctx, cfg, hostCfg, &network.NetworkingConfig{}, nil, opts.Name)
	if err != nil {
		return errors.OperationFailed("container create", err)
	}
	for _, w := range resp.Warnings {
		logging.Warn("engine warning", "container", opts.Name, "warning", w)
	}

	if err := r.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return errors.OperationFailed("container start", err)
	}
	return nil
}

// Start starts an existing container
func (r *APIRuntime) Start(ctx context.Context, name string) error {
	if err := r.cli.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return errors.OperationFailed("container start", err)
	}
	return nil
}

// Stop stops a running container
func (r *APIRuntime) Stop(ctx context.Context, name string) error {
	if err := r.cli.ContainerStop(ctx, name, container.StopOptions{}); err != nil {
		return errors.OperationFailed("container stop", err)
	}
	return nil
}

// Remove force-removes a container
func (r *APIRuntime) Remove(ctx context.Context, name string) error {
	err := r.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
	if err != nil && !client.IsErrNotFound(err) {
		return errors.OperationFailed("container remove", err)
	}
	return nil
}

// Status returns detailed status of a container
func (r *APIRuntime) Status(ctx context.Context, name string) (*ContainerInfo, error) {
	info := &ContainerInfo{Name: name, Status: StatusNotFound}

	inspect, err := r.cli.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return info, nil
		}
		info.Status = StatusUnknown
		if client.IsErrConnectionFailed(err) {
			return info, errors.EngineUnavailable(err)
		}
		return info, errors.OperationFailed("container inspect", err)
	}

	if inspect.State == nil {
		info.Status = StatusUnknown
		return info, nil
	}
	info.State = string(inspect.State.Status)
	info.Status = StatusFromState(info.State)
	info.StartedAt = inspect.State.StartedAt
	if inspect.Config != nil {
		info.Image = inspect.Config.Image
	}
	return info, nil
}

// Exec runs command to completion and demultiplexes its output.
func (r *APIRuntime) Exec(ctx context.Context, name string, command []string) (*ExecResult, error) {
	created, err := r.cli.ContainerExecCreate(ctx, name, container.ExecOptions{
		Cmd:          command,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, errors.OperationFailed("exec", err)
	}

	attach, err := r.cli.ContainerExecAttach(ctx, created.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, errors.OperationFailed("exec", err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil {
		return nil, errors.OperationFailed("exec", err)
	}

	inspect, err := r.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return nil, errors.OperationFailed("exec inspect", err)
	}

	return &ExecResult{
		ExitCode: inspect.ExitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// ExecAttached streams opts' readers and writers through an exec session.
// With TTY set and a terminal on stdin, the local terminal is switched to
// raw mode for the session.
func (r *APIRuntime) ExecAttached(ctx context.Context, name string, command []string, opts ExecOptions) (int, error) {
	stdin, stdout, stderr := opts.Stdin, opts.Stdout, opts.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	created, err := r.cli.ContainerExecCreate(ctx, name, container.ExecOptions{
		Cmd:          command,
		Tty:          opts.TTY,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return 1, errors.OperationFailed("exec", err)
	}

	attach, err := r.cli.ContainerExecAttach(ctx, created.ID, container.ExecStartOptions{Tty: opts.TTY})
	if err != nil {
		return 1, errors.OperationFailed("exec", err)
	}
	defer attach.Close()

	if f, ok := stdin.(*os.File); ok && opts.TTY && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		if oldState, err := term.MakeRaw(fd); err == nil {
			defer term.Restore(fd, oldState)
		}
		if w, h, err := term.GetSize(fd); err == nil {
			_ = r.cli.ContainerExecResize(ctx, created.ID, container.ResizeOptions{Height: uint(h), Width: uint(w)})
		}
	}

	go func() {
		_, _ = io.Copy(attach.Conn, stdin)
		_ = attach.CloseWrite()
	}()

	if opts.TTY {
		_, err = io.Copy(stdout, attach.Reader)
	} else {
		_, err = stdcopy.StdCopy(stdout, stderr, attach.Reader)
	}
	if err != nil && ctx.Err() == nil {
		return 1, errors.OperationFailed("exec", err)
	}

	inspect, err := r.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return 1, errors.OperationFailed("exec inspect", err)
	}
	return inspect.ExitCode, nil
}

// ExecDetached starts command without attaching to it.
func (r *APIRuntime) ExecDetached(ctx context.Context, name string, command []string) error {
	created, err := r.cli.ContainerExecCreate(ctx, name, container.ExecOptions{
		Cmd:    command,
		Detach: true,
	})
	if err != nil {
		return errors.OperationFailed("exec", err)
	}
	if err := r.cli.ContainerExecStart(ctx, created.ID, container.ExecStartOptions{Detach: true}); err != nil {
		return errors.OperationFailed("exec", err)
	}
	return nil
}

// Logs copies demultiplexed container logs to opts' writers.
func (r *APIRuntime) Logs(ctx context.Context, name string, opts LogsOptions) error {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	rc, err := r.cli.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     opts.Follow,
		Tail:       opts.Tail,
	})
	if err != nil {
		return errors.OperationFailed("logs", err)
	}
	defer rc.Close()

	if _, err := stdcopy.StdCopy(stdout, stderr, rc); err != nil && ctx.Err() == nil {
		return errors.OperationFailed("logs", err)
	}
	return nil
}

// List returns containers whose name starts with prefix
func (r *APIRuntime) List(ctx context.Context, prefix string) ([]*ContainerInfo, error) {
	summaries, err := r.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", "^"+prefix)),
	})
	if err != nil {
		return nil, errors.OperationFailed("container list", err)
	}

	var containers []*ContainerInfo
	for _, s := range summaries {
		for _, n := range s.Names {
			n = strings.TrimPrefix(n, "/")
			if !strings.HasPrefix(n, prefix) {
				continue
			}
			containers = append(containers, &ContainerInfo{
				Name:   n,
				State:  string(s.State),
				Status: StatusFromState(string(s.State)),
				Image:  s.Image,
			})
			break
		}
	}
	return containers, nil
}

// tarDirectory packs dir into an in-memory build context.
func tarDirectory(dir string) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// terminalFd reports whether w is a terminal and returns its descriptor.
func terminalFd(w io.Writer) (uintptr, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	return f.Fd(), term.IsTerminal(int(f.Fd()))
}

var _ Runtime = (*APIRuntime)(nil)
