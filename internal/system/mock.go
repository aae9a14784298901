package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// MockExecutor implements CommandExecutor for testing.
type MockExecutor struct {
	mu sync.Mutex

	// Commands records all executed commands for verification.
	Commands []MockCommand

	// Responses maps command prefixes to responses. The longest key that
	// prefixes "name arg1 arg2..." wins, so "docker exec -d" can be told
	// apart from "docker exec".
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching response is found.
	DefaultResponse MockResponse

	// InteractiveErr is returned by ExecuteInteractive if set.
	InteractiveErr error

	// Missing lists binaries LookPath should not find.
	Missing map[string]bool
}

// MockCommand records an executed command.
type MockCommand struct {
	Name        string
	Args        []string
	Interactive bool
}

// Line joins the command back into a single shell-like string.
func (c MockCommand) Line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// MockResponse defines the response for a command.
type MockResponse struct {
	Output []byte
	Err    error
}

// MockExitError is an error carrying a process exit status.
type MockExitError struct {
	Code int
}

func (e *MockExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// ExitCode returns the status.
func (e *MockExitError) ExitCode() int { return e.Code }

// NewMockExecutor creates a new MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Commands:  make([]MockCommand, 0),
		Responses: make(map[string]MockResponse),
		Missing:   make(map[string]bool),
	}
}

// AddResponse adds a response for a specific command prefix.
func (m *MockExecutor) AddResponse(pattern string, output []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[pattern] = MockResponse{Output: output, Err: err}
}

func (m *MockExecutor) lookup(line string) MockResponse {
	best := ""
	found := false
	for key := range m.Responses {
		if line != key && !strings.HasPrefix(line, key+" ") {
			continue
		}
		if !found || len(key) > len(best) {
			best, found = key, true
		}
	}
	if found {
		return m.Responses[best]
	}
	return m.DefaultResponse
}

func (m *MockExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := MockCommand{Name: name, Args: args}
	m.Commands = append(m.Commands, cmd)

	resp := m.lookup(cmd.Line())
	return resp.Output, resp.Err
}

func (m *MockExecutor) ExecuteInteractive(ctx context.Context, name string, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := MockCommand{Name: name, Args: args, Interactive: true}
	m.Commands = append(m.Commands, cmd)

	if m.InteractiveErr != nil {
		return m.InteractiveErr
	}
	return m.lookup(cmd.Line()).Err
}

func (m *MockExecutor) LookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Missing[name] {
		return "", exec.ErrNotFound
	}
	return "/usr/bin/" + name, nil
}

// LastCommand returns the most recently executed command.
func (m *MockExecutor) LastCommand() (MockCommand, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Commands) == 0 {
		return MockCommand{}, false
	}
	return m.Commands[len(m.Commands)-1], true
}

// Lines returns every recorded command as a joined string.
func (m *MockExecutor) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.Commands))
	for i, c := range m.Commands {
		lines[i] = c.Line()
	}
	return lines
}

// Reset clears recorded commands and responses.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = make([]MockCommand, 0)
	m.Responses = make(map[string]MockResponse)
	m.DefaultResponse = MockResponse{}
	m.InteractiveErr = nil
}
