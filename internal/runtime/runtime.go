package runtime

import (
	"context"
	"io"
)

// ContainerStatus represents the state of a container
type ContainerStatus string

const (
	StatusRunning  ContainerStatus = "running"
	StatusStopped  ContainerStatus = "stopped"
	StatusNotFound ContainerStatus = "not-found"
	StatusUnknown  ContainerStatus = "unknown"
)

// ContainerInfo holds information about a container
type ContainerInfo struct {
	Name      string
	Status    ContainerStatus
	State     string // raw engine state, e.g. "paused"
	StartedAt string
	Image     string
}

// ExecResult holds the result of executing a command in a container
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// PortMapping publishes a container port on the same or another host port.
type PortMapping struct {
	Host      int
	Container int
}

// Mount is a bind mount from the host into the container.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// CreateOptions describes a detached container to create and start.
type CreateOptions struct {
	Name    string
	Image   string
	Network string
	ShmSize string // engine notation, e.g. "1g"
	Env     []string
	Ports   []PortMapping
	Mounts  []Mount
}

// ExecOptions controls an attached exec.
type ExecOptions struct {
	// TTY allocates a pseudo terminal and puts the local terminal in raw mode.
	TTY    bool
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// LogsOptions controls log retrieval.
type LogsOptions struct {
	Follow bool
	Tail   string // "all" or a line count
	Stdout io.Writer
	Stderr io.Writer
}

// Runtime is the interface that container engine backends must implement.
// Names are full container names. All methods should be safe for
// concurrent use.
type Runtime interface {
	// Name returns the backend identifier (e.g. "docker", "docker-api")
	Name() string

	// Installed reports whether the engine client is present.
	Installed(ctx context.Context) bool

	// Ping returns nil when the engine daemon answers.
	Ping(ctx context.Context) error

	// ImageExists reports whether the image is present locally.
	ImageExists(ctx context.Context, image string) (bool, error)

	// BuildImage builds contextDir's Dockerfile and tags it as image.
	BuildImage(ctx context.Context, image, contextDir string, out io.Writer) error

	// EnsureNetwork creates the named network if it is absent.
	EnsureNetwork(ctx context.Context, network string) error

	// Create creates and starts a detached container.
	Create(ctx context.Context, opts CreateOptions) error

	// Start starts an existing container
	Start(ctx context.Context, name string) error

	// Stop stops a running container
	Stop(ctx context.Context, name string) error

	// Remove force-removes a container. Removing a missing container is not an error.
	Remove(ctx context.Context, name string) error

	// Status returns the state of a container; a missing container is
	// StatusNotFound with a nil error.
	Status(ctx context.Context, name string) (*ContainerInfo, error)

	// Exec runs a command to completion and captures its output.
	Exec(ctx context.Context, name string, command []string) (*ExecResult, error)

	// ExecAttached runs a command with the caller's streams attached and
	// returns its exit code.
	ExecAttached(ctx context.Context, name string, command []string, opts ExecOptions) (int, error)

	// ExecDetached starts a command in the background and returns at once.
	ExecDetached(ctx context.Context, name string, command []string) error

	// Logs copies container logs to the writers in opts.
	Logs(ctx context.Context, name string, opts LogsOptions) error

	// List returns containers whose name starts with prefix.
	List(ctx context.Context, prefix string) ([]*ContainerInfo, error)
}

// StatusFromState maps an engine state string to a ContainerStatus.
func StatusFromState(state string) ContainerStatus {
	switch state {
	case "running":
		return StatusRunning
	case "exited", "created", "dead":
		return StatusStopped
	default:
		return StatusUnknown
	}
}
