package browser

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

// Toggler flips the agent's attach-only browser mode.
type Toggler interface {
	EnableBrowserTakeover(name string) error
	DisableBrowserTakeover(name string) error
}

// Target identifies the instance a sequence runs against.
type Target struct {
	Instance  string
	Container string
}

// Orchestrator sequences browser and VNC processes inside an instance.
type Orchestrator struct {
	Runtime runtime.Runtime
	Config  Toggler

	// BrowserSettle is how long to wait after launching the browser.
	BrowserSettle time.Duration

	// Sleep waits for d unless ctx ends first; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New returns an orchestrator with the default settle delays.
func New(rt runtime.Runtime, cfg Toggler) *Orchestrator {
	return &Orchestrator{
		Runtime:       rt,
		Config:        cfg,
		BrowserSettle: protocol.BrowserSettle,
		Sleep:         sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if o.Sleep == nil {
		return sleepContext(ctx, d)
	}
	return o.Sleep(ctx, d)
}

// BrowserCommand is the shell line that starts the visible browser.
func BrowserCommand() []string {
	argv := append([]string{protocol.BrowserBinary}, protocol.BrowserFlags...)
	line := shellquote.Join(argv...) + " 2>/dev/null"
	return []string{"sh", "-c", line}
}

// X11VNCCommand starts the VNC server unless one is already running.
func X11VNCCommand() []string {
	line := "pgrep -x x11vnc > /dev/null || x11vnc -display " + protocol.Display +
		" -forever -nopw -rfbport " + strconv.Itoa(protocol.X11VNCPort) + " -quiet"
	return []string{"sh", "-c", line}
}

// WebsockifyCommand bridges the VNC server to the noVNC port.
func WebsockifyCommand() []string {
	return []string{
		"websockify", "--web", protocol.NoVNCWebRoot,
		strconv.Itoa(protocol.ContainerNoVNCPort),
		"localhost:" + strconv.Itoa(protocol.X11VNCPort),
	}
}

var (
	killBrowser    = []string{"pkill", "-f", "openclaw-chromium"}
	killWebsockify = []string{"pkill", "-f", "websockify"}
	killX11VNC     = []string{"pkill", "-x", "x11vnc"}
)

// kill runs a pkill and tolerates "no process matched".
func (o *Orchestrator) kill(ctx context.Context, container string, cmd []string) {
	res, err := o.Runtime.Exec(ctx, container, cmd)
	if err != nil {
		logging.Debug("kill failed", "container", container, "cmd", strings.Join(cmd, " "), "error", err)
		return
	}
	if res.ExitCode > 1 {
		logging.Debug("kill exited non-zero", "container", container, "cmd", strings.Join(cmd, " "), "code", res.ExitCode)
	}
}

// StopBrowser terminates any visible browser in container.
func (o *Orchestrator) StopBrowser(ctx context.Context, container string) {
	o.kill(ctx, container, killBrowser)
}

// LaunchBrowser replaces any visible browser with a fresh one on the fixed
// debug port and waits for it to settle.
func (o *Orchestrator) LaunchBrowser(ctx context.Context, container string) error {
	o.StopBrowser(ctx, container)

	logging.Debug("launching visible browser", "container", container)
	if err := o.Runtime.ExecDetached(ctx, container, BrowserCommand()); err != nil {
		return errors.OperationFailed("browser launch", err)
	}
	return o.sleep(ctx, o.BrowserSettle)
}

// StartView ensures x11vnc runs and restarts websockify so exactly one
// relay serves the container.
func (o *Orchestrator) StartView(ctx context.Context, container string) error {
	if err := o.Runtime.ExecDetached(ctx, container, X11VNCCommand()); err != nil {
		return errors.OperationFailed("x11vnc start", err)
	}
	if err := o.sleep(ctx, protocol.X11VNCSettle); err != nil {
		return err
	}

	o.kill(ctx, container, killWebsockify)
	if err := o.sleep(ctx, protocol.WebsockifyStopSettle); err != nil {
		return err
	}

	if err := o.Runtime.ExecDetached(ctx, container, WebsockifyCommand()); err != nil {
		return errors.OperationFailed("websockify start", err)
	}
	return o.sleep(ctx, protocol.WebsockifySettle)
}

// Takeover moves the instance into shared visible-browser mode: fresh
// browser, attach-only agent config, VNC relay.
func (o *Orchestrator) Takeover(ctx context.Context, t Target) error {
	logging.Debug("browser takeover", "instance", t.Instance, "container", t.Container)

	if err := o.LaunchBrowser(ctx, t.Container); err != nil {
		return err
	}
	if err := o.enable(t.Instance); err != nil {
		return err
	}
	return o.StartView(ctx, t.Container)
}

func (o *Orchestrator) enable(instance string) error {
	err := o.Config.EnableBrowserTakeover(instance)
	if errors.Is(err, errors.ErrConfigUnavailable) {
		logging.Warn("agent config not found; the agent will not attach until onboarding has run", "instance", instance)
		return nil
	}
	return err
}

// StopView tears down the VNC relay only. The browser and the agent's
// attach mode keep running.
func (o *Orchestrator) StopView(ctx context.Context, container string) {
	o.kill(ctx, container, killWebsockify)
	o.kill(ctx, container, killX11VNC)
}

// Release undoes Takeover: relay and browser stop and the agent goes back
// to launching its own headless browser. The gateway has to be restarted
// to pick up the change.
func (o *Orchestrator) Release(ctx context.Context, t Target) error {
	o.StopView(ctx, t.Container)
	o.StopBrowser(ctx, t.Container)

	err := o.Config.DisableBrowserTakeover(t.Instance)
	if errors.Is(err, errors.ErrConfigUnavailable) {
		return nil
	}
	return err
}

// VNCSupported reports whether the image ships a virtual display.
func (o *Orchestrator) VNCSupported(ctx context.Context, container string) (bool, error) {
	res, err := o.Runtime.Exec(ctx, container, []string{"sh", "-c", "command -v Xvfb > /dev/null 2>&1 && echo yes || echo no"})
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) == "yes", nil
}

// ViewRunning reports whether the relay processes are up.
func (o *Orchestrator) ViewRunning(ctx context.Context, container string) (bool, error) {
	for _, proc := range [][]string{{"pgrep", "-x", "x11vnc"}, {"pgrep", "-f", "websockify"}} {
		res, err := o.Runtime.Exec(ctx, container, proc)
		if err != nil {
			return false, err
		}
		if res.ExitCode != 0 {
			return false, nil
		}
	}
	return true, nil
}
