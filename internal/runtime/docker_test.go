package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"

	spawnerrors "github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/system"
)

func newTestDocker() (*DockerRuntime, *system.MockExecutor) {
	exec := system.NewMockExecutor()
	return NewDockerRuntime("docker", exec), exec
}

func TestDockerRuntime_Name(t *testing.T) {
	rt := NewDockerRuntime("docker", system.NewMockExecutor())
	if rt.Name() != "docker" {
		t.Errorf("Name() = %q, want %q", rt.Name(), "docker")
	}

	rt = NewDockerRuntime("podman", system.NewMockExecutor())
	if rt.Name() != "podman" {
		t.Errorf("Name() = %q, want %q", rt.Name(), "podman")
	}
}

func TestDockerRuntime_Installed(t *testing.T) {
	rt, exec := newTestDocker()
	if !rt.Installed(context.Background()) {
		t.Error("Installed() = false with docker on PATH")
	}
	exec.Missing["docker"] = true
	if rt.Installed(context.Background()) {
		t.Error("Installed() = true with docker missing")
	}
}

func TestDockerRuntime_Ping(t *testing.T) {
	rt, exec := newTestDocker()
	exec.AddResponse("docker info", []byte("Cannot connect to the Docker daemon"), errors.New("exit status 1"))

	err := rt.Ping(context.Background())
	if !spawnerrors.Is(err, spawnerrors.ErrEngineUnavailable) {
		t.Errorf("Ping() = %v, want EngineUnavailable", err)
	}
}

func TestRunArgs(t *testing.T) {
	opts := CreateOptions{
		Name:    "openclaw-alice",
		Image:   "openclaw-spawn-base:latest",
		Network: "openclaw-network",
		ShmSize: "1g",
		Env:     []string{"HOME=/home/node"},
		Ports: []PortMapping{
			{Host: 18789, Container: 18789},
			{Host: 18800, Container: 18800},
		},
		Mounts: []Mount{
			{Source: "/data/alice/.openclaw", Target: "/home/node/.openclaw"},
			{Source: "/srv/notes", Target: "/notes", ReadOnly: true},
		},
	}

	got := strings.Join(runArgs(opts), " ")
	want := "run -d --name openclaw-alice -e HOME=/home/node --network openclaw-network --shm-size 1g " +
		"-p 18789:18789 -p 18800:18800 " +
		"-v /data/alice/.openclaw:/home/node/.openclaw -v /srv/notes:/notes:ro " +
		"openclaw-spawn-base:latest"
	if got != want {
		t.Errorf("runArgs =\n  %s\nwant\n  %s", got, want)
	}
}

func TestDockerRuntime_Status(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		err        error
		wantStatus ContainerStatus
		wantErr    error
	}{
		{
			name:       "running",
			output:     `[{"State": {"Status": "running", "Running": true, "StartedAt": "2026-01-01T00:00:00Z"}, "Config": {"Image": "img"}}]`,
			wantStatus: StatusRunning,
		},
		{
			name:       "exited",
			output:     `[{"State": {"Status": "exited"}}]`,
			wantStatus: StatusStopped,
		},
		{
			name:       "paused",
			output:     `[{"State": {"Status": "paused"}}]`,
			wantStatus: StatusUnknown,
		},
		{
			name:       "missing",
			output:     "Error: No such container: openclaw-x",
			err:        errors.New("exit status 1"),
			wantStatus: StatusNotFound,
		},
		{
			name:       "daemon down",
			output:     "Cannot connect to the Docker daemon at unix:///var/run/docker.sock",
			err:        errors.New("exit status 1"),
			wantStatus: StatusUnknown,
			wantErr:    spawnerrors.ErrEngineUnavailable,
		},
		{
			name:       "garbage",
			output:     "not json",
			wantStatus: StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, exec := newTestDocker()
			exec.AddResponse("docker inspect", []byte(tt.output), tt.err)

			info, err := rt.Status(context.Background(), "openclaw-x")
			if tt.wantErr != nil {
				if !spawnerrors.Is(err, tt.wantErr) {
					t.Fatalf("Status() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Status() error = %v", err)
			}
			if info.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", info.Status, tt.wantStatus)
			}
		})
	}
}

func TestDockerRuntime_Remove_Missing(t *testing.T) {
	rt, exec := newTestDocker()
	exec.AddResponse("docker rm", []byte("Error: No such container: openclaw-x"), errors.New("exit status 1"))

	if err := rt.Remove(context.Background(), "openclaw-x"); err != nil {
		t.Errorf("Remove() of missing container = %v, want nil", err)
	}
}

func TestDockerRuntime_Exec(t *testing.T) {
	rt, exec := newTestDocker()
	exec.AddResponse("docker exec openclaw-x pgrep", nil, &system.MockExitError{Code: 1})
	exec.AddResponse("docker exec openclaw-x echo", []byte("hi\n"), nil)

	res, err := rt.Exec(context.Background(), "openclaw-x", []string{"pgrep", "-x", "x11vnc"})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", res.ExitCode)
	}

	res, err = rt.Exec(context.Background(), "openclaw-x", []string{"echo", "hi"})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res.ExitCode != 0 || res.Stdout != "hi\n" {
		t.Errorf("Exec = %+v", res)
	}
}

func TestDockerRuntime_ExecModes(t *testing.T) {
	rt, exec := newTestDocker()
	ctx := context.Background()

	if err := rt.ExecDetached(ctx, "openclaw-x", []string{"openclaw", "gateway"}); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.ExecAttached(ctx, "openclaw-x", []string{"openclaw", "onboard"}, ExecOptions{TTY: true}); err != nil {
		t.Fatal(err)
	}

	lines := exec.Lines()
	want := []string{
		"docker exec -d openclaw-x openclaw gateway",
		"docker exec -it openclaw-x openclaw onboard",
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("command %d = %q, want %q", i, lines[i], w)
		}
	}
	if !exec.Commands[1].Interactive {
		t.Error("attached exec should run interactively")
	}
}

func TestDockerRuntime_ExecAttached_ExitCode(t *testing.T) {
	rt, exec := newTestDocker()
	exec.InteractiveErr = &system.MockExitError{Code: 130}

	code, err := rt.ExecAttached(context.Background(), "openclaw-x", []string{"sh"}, ExecOptions{})
	if err != nil {
		t.Fatalf("ExecAttached: %v", err)
	}
	if code != 130 {
		t.Errorf("code = %d, want 130", code)
	}
}

func TestDockerRuntime_EnsureNetwork(t *testing.T) {
	rt, exec := newTestDocker()
	exec.AddResponse("docker network inspect", []byte("Error: No such network"), errors.New("exit status 1"))

	if err := rt.EnsureNetwork(context.Background(), "openclaw-network"); err != nil {
		t.Fatal(err)
	}
	last, _ := exec.LastCommand()
	if last.Line() != "docker network create openclaw-network" {
		t.Errorf("last command = %q", last.Line())
	}

	exec.Reset()
	if err := rt.EnsureNetwork(context.Background(), "openclaw-network"); err != nil {
		t.Fatal(err)
	}
	if len(exec.Commands) != 1 {
		t.Errorf("existing network should not be recreated: %v", exec.Lines())
	}
}

func TestDockerRuntime_ImageExists(t *testing.T) {
	rt, exec := newTestDocker()
	exec.AddResponse("docker images", []byte("\n"), nil)

	ok, err := rt.ImageExists(context.Background(), "img")
	if err != nil || ok {
		t.Errorf("ImageExists = %v, %v; want false", ok, err)
	}

	exec.AddResponse("docker images", []byte("sha256:abc\n"), nil)
	ok, err = rt.ImageExists(context.Background(), "img")
	if err != nil || !ok {
		t.Errorf("ImageExists = %v, %v; want true", ok, err)
	}
}

func TestDockerRuntime_List(t *testing.T) {
	rt, exec := newTestDocker()
	exec.AddResponse("docker ps", []byte("openclaw-a\trunning\timg\nopenclaw-b\texited\timg\nother\trunning\timg\n"), nil)

	got, err := rt.List(context.Background(), "openclaw-")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d containers, want 2", len(got))
	}
	if got[0].Status != StatusRunning || got[1].Status != StatusStopped {
		t.Errorf("statuses = %s, %s", got[0].Status, got[1].Status)
	}
}

func TestDockerRuntime_Logs(t *testing.T) {
	rt, exec := newTestDocker()
	if err := rt.Logs(context.Background(), "openclaw-a", LogsOptions{Follow: true, Tail: TailLines(50)}); err != nil {
		t.Fatal(err)
	}
	last, _ := exec.LastCommand()
	if last.Line() != "docker logs -f --tail 50 openclaw-a" {
		t.Errorf("command = %q", last.Line())
	}
}

func TestTailLines(t *testing.T) {
	if TailLines(0) != "all" || TailLines(-1) != "all" || TailLines(20) != "20" {
		t.Error("TailLines mismatch")
	}
}
