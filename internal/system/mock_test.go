package system

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMockExecutor_Execute(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse("echo", []byte("hello\n"), nil)

	output, err := exec.Execute(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if string(output) != "hello\n" {
		t.Errorf("Output = %q, want %q", string(output), "hello\n")
	}

	cmd, ok := exec.LastCommand()
	if !ok {
		t.Fatal("No command recorded")
	}
	if cmd.Name != "echo" {
		t.Errorf("Command name = %q, want %q", cmd.Name, "echo")
	}
}

func TestMockExecutor_LongestPrefixWins(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse("docker", []byte("any"), nil)
	exec.AddResponse("docker exec", []byte("attached"), nil)
	exec.AddResponse("docker exec -d", []byte("detached"), nil)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"exec", "-d", "c", "true"}, "detached"},
		{[]string{"exec", "c", "true"}, "attached"},
		{[]string{"ps"}, "any"},
		// "docker exec-foo" must not match the "docker exec" key
		{[]string{"exec-foo"}, "any"},
	}

	for _, tt := range tests {
		out, _ := exec.Execute(context.Background(), "docker", tt.args...)
		if string(out) != tt.want {
			t.Errorf("Execute(docker %v) = %q, want %q", tt.args, out, tt.want)
		}
	}
}

func TestMockExecutor_DefaultResponse(t *testing.T) {
	exec := NewMockExecutor()
	exec.DefaultResponse = MockResponse{Output: []byte("default"), Err: nil}

	output, err := exec.Execute(context.Background(), "unknown", "command")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if string(output) != "default" {
		t.Errorf("Output = %q, want %q", string(output), "default")
	}
}

func TestMockExecutor_Interactive(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse("docker exec", nil, &MockExitError{Code: 3})

	err := exec.ExecuteInteractive(context.Background(), "docker", "exec", "-it", "c", "sh")
	if ExitCode(err) != 3 {
		t.Errorf("ExitCode = %d, want 3", ExitCode(err))
	}
	cmd, _ := exec.LastCommand()
	if !cmd.Interactive {
		t.Error("command not marked interactive")
	}
}

func TestMockExecutor_LookPath(t *testing.T) {
	exec := NewMockExecutor()
	exec.Missing["docker"] = true

	if _, err := exec.LookPath("docker"); err == nil {
		t.Error("expected docker to be missing")
	}
	if _, err := exec.LookPath("podman"); err != nil {
		t.Errorf("LookPath(podman) = %v", err)
	}
}

func TestMockExecutor_Reset(t *testing.T) {
	exec := NewMockExecutor()
	exec.Execute(context.Background(), "cmd1")
	exec.Execute(context.Background(), "cmd2")

	if len(exec.Commands) != 2 {
		t.Errorf("Commands length = %d, want 2", len(exec.Commands))
	}

	exec.Reset()

	if len(exec.Commands) != 0 {
		t.Errorf("Commands length after reset = %d, want 0", len(exec.Commands))
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"coded", &MockExitError{Code: 42}, 42},
		{"wrapped", fmt.Errorf("run: %w", &MockExitError{Code: 7}), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}
