package browser

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

type fakeToggler struct {
	calls []string
	err   error
}

func (f *fakeToggler) EnableBrowserTakeover(name string) error {
	f.calls = append(f.calls, "enable:"+name)
	return f.err
}

func (f *fakeToggler) DisableBrowserTakeover(name string) error {
	f.calls = append(f.calls, "disable:"+name)
	return f.err
}

type sleepLog struct {
	slept []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	return ctx.Err()
}

func newTestOrchestrator() (*Orchestrator, *runtime.MockRuntime, *fakeToggler, *sleepLog) {
	rt := runtime.NewMockRuntime()
	cfg := &fakeToggler{}
	sl := &sleepLog{}
	o := New(rt, cfg)
	o.Sleep = sl.sleep
	return o, rt, cfg, sl
}

func TestTakeover_Sequence(t *testing.T) {
	o, rt, cfg, sl := newTestOrchestrator()

	if err := o.Takeover(context.Background(), Target{Instance: "alice", Container: "openclaw-alice"}); err != nil {
		t.Fatalf("Takeover: %v", err)
	}

	cmds := rt.ExecCommands()
	want := []string{
		"pkill -f openclaw-chromium",
		strings.Join(BrowserCommand(), " "),
		strings.Join(X11VNCCommand(), " "),
		"pkill -f websockify",
		"websockify --web /usr/share/novnc 6080 localhost:5900",
	}
	if len(cmds) != len(want) {
		t.Fatalf("commands = %q, want %q", cmds, want)
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, cmds[i], want[i])
		}
	}

	if len(cfg.calls) != 1 || cfg.calls[0] != "enable:alice" {
		t.Errorf("config calls = %v", cfg.calls)
	}

	wantSleeps := []time.Duration{3 * time.Second, time.Second, 500 * time.Millisecond, time.Second}
	if len(sl.slept) != len(wantSleeps) {
		t.Fatalf("sleeps = %v, want %v", sl.slept, wantSleeps)
	}
	for i := range wantSleeps {
		if sl.slept[i] != wantSleeps[i] {
			t.Errorf("sleep %d = %v, want %v", i, sl.slept[i], wantSleeps[i])
		}
	}
}

func TestTakeover_DetachedCalls(t *testing.T) {
	o, rt, _, _ := newTestOrchestrator()

	if err := o.Takeover(context.Background(), Target{Instance: "alice", Container: "openclaw-alice"}); err != nil {
		t.Fatal(err)
	}

	// The browser, x11vnc and websockify must not block the caller.
	if n := len(rt.GetCallsFor("ExecDetached")); n != 3 {
		t.Errorf("detached execs = %d, want 3", n)
	}
}

func TestTakeover_ToleratesNothingToKill(t *testing.T) {
	o, rt, _, _ := newTestOrchestrator()
	rt.SetExecResult("pkill -f openclaw-chromium", &runtime.ExecResult{ExitCode: 1})
	rt.SetExecResult("pkill -f websockify", &runtime.ExecResult{ExitCode: 1})

	if err := o.Takeover(context.Background(), Target{Instance: "a", Container: "openclaw-a"}); err != nil {
		t.Errorf("Takeover with no running processes: %v", err)
	}
}

func TestTakeover_MissingConfigIsNotFatal(t *testing.T) {
	o, _, cfg, _ := newTestOrchestrator()
	cfg.err = errors.ConfigUnavailable("/x/openclaw.json", nil)

	if err := o.Takeover(context.Background(), Target{Instance: "a", Container: "openclaw-a"}); err != nil {
		t.Errorf("Takeover: %v", err)
	}
}

func TestTakeover_LaunchFailure(t *testing.T) {
	o, rt, cfg, _ := newTestOrchestrator()
	rt.SetError("ExecDetached", errors.OperationFailed("exec", nil))

	err := o.Takeover(context.Background(), Target{Instance: "a", Container: "openclaw-a"})
	if !errors.Is(err, errors.ErrOperationFailed) {
		t.Fatalf("err = %v, want OperationFailed", err)
	}
	if len(cfg.calls) != 0 {
		t.Error("config must not change when the browser fails to launch")
	}
}

func TestTakeover_Cancelled(t *testing.T) {
	o, _, _, _ := newTestOrchestrator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := o.Takeover(ctx, Target{Instance: "a", Container: "openclaw-a"}); err == nil {
		t.Error("expected context error")
	}
}

func TestStopView(t *testing.T) {
	o, rt, cfg, _ := newTestOrchestrator()

	o.StopView(context.Background(), "openclaw-a")

	cmds := rt.ExecCommands()
	want := []string{"pkill -f websockify", "pkill -x x11vnc"}
	if len(cmds) != 2 || cmds[0] != want[0] || cmds[1] != want[1] {
		t.Errorf("commands = %q, want %q", cmds, want)
	}
	if len(cfg.calls) != 0 {
		t.Error("StopView must leave the agent config alone")
	}
}

func TestRelease(t *testing.T) {
	o, rt, cfg, _ := newTestOrchestrator()

	if err := o.Release(context.Background(), Target{Instance: "a", Container: "openclaw-a"}); err != nil {
		t.Fatal(err)
	}

	cmds := rt.ExecCommands()
	if len(cmds) != 3 || cmds[2] != "pkill -f openclaw-chromium" {
		t.Errorf("commands = %q", cmds)
	}
	if len(cfg.calls) != 1 || cfg.calls[0] != "disable:a" {
		t.Errorf("config calls = %v", cfg.calls)
	}
}

func TestVNCSupported(t *testing.T) {
	o, rt, _, _ := newTestOrchestrator()
	probe := "sh -c command -v Xvfb > /dev/null 2>&1 && echo yes || echo no"

	rt.SetExecResult(probe, &runtime.ExecResult{Stdout: "no\n"})
	ok, err := o.VNCSupported(context.Background(), "openclaw-a")
	if err != nil || ok {
		t.Errorf("VNCSupported = %v, %v; want false", ok, err)
	}

	rt.SetExecResult(probe, &runtime.ExecResult{Stdout: "yes\n"})
	ok, err = o.VNCSupported(context.Background(), "openclaw-a")
	if err != nil || !ok {
		t.Errorf("VNCSupported = %v, %v; want true", ok, err)
	}
}

func TestViewRunning(t *testing.T) {
	o, rt, _, _ := newTestOrchestrator()

	ok, _ := o.ViewRunning(context.Background(), "openclaw-a")
	if !ok {
		t.Error("ViewRunning = false with both processes found")
	}

	rt.SetExecResult("pgrep -f websockify", &runtime.ExecResult{ExitCode: 1})
	ok, _ = o.ViewRunning(context.Background(), "openclaw-a")
	if ok {
		t.Error("ViewRunning = true without websockify")
	}
}

func TestBrowserCommand(t *testing.T) {
	cmd := BrowserCommand()
	if cmd[0] != "sh" || cmd[1] != "-c" {
		t.Fatalf("BrowserCommand = %q", cmd)
	}
	for _, flag := range []string{"--remote-debugging-port=18800", "--user-data-dir=/tmp/openclaw-vnc-profile", "--no-sandbox", "--disable-extensions"} {
		if !strings.Contains(cmd[2], flag) {
			t.Errorf("browser command missing %s", flag)
		}
	}
	if !strings.HasPrefix(cmd[2], "/home/node/openclaw-chromium ") {
		t.Errorf("browser command = %q", cmd[2])
	}
	if !strings.HasSuffix(cmd[2], " --safebrowsing-disable-auto-update 2>/dev/null") {
		t.Errorf("browser command = %q, want stderr discarded after the flags", cmd[2])
	}
}

func TestCheckCDP_Unreachable(t *testing.T) {
	// Port 1 is privileged and never serves CDP.
	status, err := CheckCDP(context.Background(), 1)
	if err != nil {
		t.Fatalf("CheckCDP: %v", err)
	}
	if status.Reachable {
		t.Error("port 1 reported reachable")
	}
}
