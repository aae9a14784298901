package runtime

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MockRuntime is a mock implementation of Runtime for testing
type MockRuntime struct {
	mu sync.RWMutex

	// Containers tracks the state of mock containers
	Containers map[string]*ContainerInfo

	// Images lists images reported as present
	Images map[string]bool

	// Networks lists networks reported as present
	Networks map[string]bool

	// ExecResults maps joined commands ("sh -c ...") to predefined results
	ExecResults map[string]*ExecResult

	// AttachedExitCode is returned by ExecAttached
	AttachedExitCode int

	// Errors allows injecting errors for specific operations
	Errors map[string]error

	// NotInstalled makes Installed report false
	NotInstalled bool

	// CreateLeavesContainer makes a failing Create still register the
	// container as created but not started, like a run whose start failed.
	CreateLeavesContainer bool

	// CallLog records all method calls for verification
	CallLog []MockCall
}

// MockCall represents a recorded method call
type MockCall struct {
	Method string
	Args   []interface{}
}

// NewMockRuntime creates a new mock runtime
func NewMockRuntime() *MockRuntime {
	return &MockRuntime{
		Containers:  make(map[string]*ContainerInfo),
		Images:      make(map[string]bool),
		Networks:    make(map[string]bool),
		ExecResults: make(map[string]*ExecResult),
		Errors:      make(map[string]error),
		CallLog:     make([]MockCall, 0),
	}
}

func (m *MockRuntime) record(method string, args ...interface{}) {
	m.CallLog = append(m.CallLog, MockCall{Method: method, Args: args})
}

// SetError sets an error to be returned for a specific operation
func (m *MockRuntime) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[operation] = err
}

// SetExecResult sets the result for Exec calls whose joined command is cmd
func (m *MockRuntime) SetExecResult(cmd string, result *ExecResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExecResults[cmd] = result
}

// AddContainer adds a container to the mock
func (m *MockRuntime) AddContainer(name string, status ContainerStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Containers[name] = &ContainerInfo{
		Name:   name,
		Status: status,
	}
}

// ContainerStatus returns the current status of a mock container
func (m *MockRuntime) ContainerStatus(name string) ContainerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.Containers[name]; ok {
		return c.Status
	}
	return StatusNotFound
}

// GetCalls returns all recorded calls
func (m *MockRuntime) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]MockCall, len(m.CallLog))
	copy(calls, m.CallLog)
	return calls
}

// GetCallsFor returns all calls for a specific method
func (m *MockRuntime) GetCallsFor(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var calls []MockCall
	for _, call := range m.CallLog {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// Methods returns the recorded method names in call order
func (m *MockRuntime) Methods() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.CallLog))
	for i, call := range m.CallLog {
		names[i] = call.Method
	}
	return names
}

// ExecCommands returns the joined commands of all Exec, ExecDetached and
// ExecAttached calls in order
func (m *MockRuntime) ExecCommands() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var cmds []string
	for _, call := range m.CallLog {
		switch call.Method {
		case "Exec", "ExecDetached", "ExecAttached":
			cmds = append(cmds, strings.Join(call.Args[1].([]string), " "))
		}
	}
	return cmds
}

// Reset clears all state
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Containers = make(map[string]*ContainerInfo)
	m.Images = make(map[string]bool)
	m.Networks = make(map[string]bool)
	m.ExecResults = make(map[string]*ExecResult)
	m.Errors = make(map[string]error)
	m.CallLog = make([]MockCall, 0)
}

// Name returns the runtime identifier
func (m *MockRuntime) Name() string {
	return "mock"
}

// Installed reports !NotInstalled
func (m *MockRuntime) Installed(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Installed")
	return !m.NotInstalled
}

// Ping returns the injected "Ping" error, if any
func (m *MockRuntime) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Ping")
	return m.Errors["Ping"]
}

// ImageExists reports whether the image was registered
func (m *MockRuntime) ImageExists(ctx context.Context, image string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ImageExists", image)
	if err, ok := m.Errors["ImageExists"]; ok {
		return false, err
	}
	return m.Images[image], nil
}

// BuildImage marks the image present
func (m *MockRuntime) BuildImage(ctx context.Context, image, contextDir string, out io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("BuildImage", image, contextDir)
	if err, ok := m.Errors["BuildImage"]; ok {
		return err
	}
	m.Images[image] = true
	return nil
}

// EnsureNetwork marks the network present
func (m *MockRuntime) EnsureNetwork(ctx context.Context, network string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("EnsureNetwork", network)
	if err, ok := m.Errors["EnsureNetwork"]; ok {
		return err
	}
	m.Networks[network] = true
	return nil
}

// Create creates a running container
func (m *MockRuntime) Create(ctx context.Context, opts CreateOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Create", opts)

	if err, ok := m.Errors["Create"]; ok {
		if m.CreateLeavesContainer {
			m.Containers[opts.Name] = &ContainerInfo{
				Name:   opts.Name,
				Status: StatusStopped,
				State:  "created",
				Image:  opts.Image,
			}
		}
		return err
	}
	if _, ok := m.Containers[opts.Name]; ok {
		return fmt.Errorf("container name %s already in use", opts.Name)
	}

	m.Containers[opts.Name] = &ContainerInfo{
		Name:   opts.Name,
		Status: StatusRunning,
		State:  "running",
		Image:  opts.Image,
	}

	return nil
}

// Start starts an existing container
func (m *MockRuntime) Start(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Start", name)

	if err, ok := m.Errors["Start"]; ok {
		return err
	}

	if container, ok := m.Containers[name]; ok {
		container.Status = StatusRunning
		return nil
	}

	return fmt.Errorf("container not found: %s", name)
}

// Stop stops a running container
func (m *MockRuntime) Stop(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Stop", name)

	if err, ok := m.Errors["Stop"]; ok {
		return err
	}

	if container, ok := m.Containers[name]; ok {
		container.Status = StatusStopped
		return nil
	}

	return fmt.Errorf("container not found: %s", name)
}

// Remove deletes a container
func (m *MockRuntime) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Remove", name)

	if err, ok := m.Errors["Remove"]; ok {
		return err
	}

	delete(m.Containers, name)
	return nil
}

// Status returns detailed status of a container
func (m *MockRuntime) Status(ctx context.Context, name string) (*ContainerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Status", name)

	if err, ok := m.Errors["Status"]; ok {
		return &ContainerInfo{Name: name, Status: StatusUnknown}, err
	}

	if container, ok := m.Containers[name]; ok {
		c := *container
		return &c, nil
	}

	return &ContainerInfo{Name: name, Status: StatusNotFound}, nil
}

// Exec returns the result registered for the joined command
func (m *MockRuntime) Exec(ctx context.Context, name string, command []string) (*ExecResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Exec", name, command)

	if err, ok := m.Errors["Exec"]; ok {
		return nil, err
	}

	if result, ok := m.ExecResults[strings.Join(command, " ")]; ok {
		return result, nil
	}

	return &ExecResult{ExitCode: 0, Stdout: "", Stderr: ""}, nil
}

// ExecAttached returns AttachedExitCode
func (m *MockRuntime) ExecAttached(ctx context.Context, name string, command []string, opts ExecOptions) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ExecAttached", name, command, opts)

	if err, ok := m.Errors["ExecAttached"]; ok {
		return 1, err
	}

	return m.AttachedExitCode, nil
}

// ExecDetached records the command
func (m *MockRuntime) ExecDetached(ctx context.Context, name string, command []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ExecDetached", name, command)

	if err, ok := m.Errors["ExecDetached"]; ok {
		return err
	}

	return nil
}

// Logs writes a fixed line to opts.Stdout
func (m *MockRuntime) Logs(ctx context.Context, name string, opts LogsOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Logs", name, opts.Follow, opts.Tail)

	if err, ok := m.Errors["Logs"]; ok {
		return err
	}
	if opts.Stdout != nil {
		fmt.Fprintf(opts.Stdout, "logs for %s\n", name)
	}
	return nil
}

// List returns containers whose name starts with prefix, sorted by name
func (m *MockRuntime) List(ctx context.Context, prefix string) ([]*ContainerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("List", prefix)

	if err, ok := m.Errors["List"]; ok {
		return nil, err
	}

	var containers []*ContainerInfo
	for name, container := range m.Containers {
		if strings.HasPrefix(name, prefix) {
			c := *container
			containers = append(containers, &c)
		}
	}
	sort.Slice(containers, func(i, j int) bool { return containers[i].Name < containers[j].Name })

	return containers, nil
}

var _ Runtime = (*MockRuntime)(nil)
