// Package app provides the application context for spawn-ctl.
// It allows dependency injection for testing.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/agentconfig"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/browser"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/instance"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/port"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/runtime"
)

// App holds the application dependencies
type App struct {
	// Paths holds the configured paths
	Paths *config.Paths

	// Settings is the loaded config.toml, or the defaults
	Settings *config.Settings

	// Runtime is the container engine backend. When nil it is created on
	// first use from Settings.
	Runtime runtime.Runtime

	// Allocator overrides the live-probing port allocator
	Allocator *port.Allocator

	// Sleep replaces the browser orchestrator's settle waits
	Sleep func(ctx context.Context, d time.Duration) error

	mu sync.Mutex
}

// Option is a function that configures the App
type Option func(*App)

// WithPaths sets custom paths
func WithPaths(paths *config.Paths) Option {
	return func(a *App) {
		a.Paths = paths
	}
}

// WithSettings sets custom settings
func WithSettings(s *config.Settings) Option {
	return func(a *App) {
		a.Settings = s
	}
}

// WithRuntime sets a custom runtime
func WithRuntime(r runtime.Runtime) Option {
	return func(a *App) {
		a.Runtime = r
	}
}

// WithAllocator sets a custom port allocator
func WithAllocator(alloc *port.Allocator) Option {
	return func(a *App) {
		a.Allocator = alloc
	}
}

// WithSleep sets the settle-wait function used by the browser orchestrator
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(a *App) {
		a.Sleep = sleep
	}
}

// New creates a new App with the given options.
// Settings are read from the state root unless given; an unreadable file
// falls back to the defaults and is reported by LoadSettings.
func New(opts ...Option) *App {
	app := &App{
		Paths: config.DefaultPaths(),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.Settings == nil {
		s, err := config.LoadSettings(app.Paths.SettingsFile)
		if err != nil {
			logging.Debug("using default settings", "error", err)
			s = config.DefaultSettings()
		}
		app.Settings = s
	}

	return app
}

// LoadSettings re-reads the settings file and returns any error, so commands
// can surface a broken config.toml.
func (a *App) LoadSettings() error {
	s, err := config.LoadSettings(a.Paths.SettingsFile)
	if err != nil {
		return err
	}
	a.Settings = s
	return nil
}

// Engine returns the container runtime, creating it on first use.
func (a *App) Engine(ctx context.Context) (runtime.Runtime, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Runtime != nil {
		return a.Runtime, nil
	}

	rt, err := runtime.New(ctx, &runtime.Config{
		Backend: runtime.BackendType(a.Settings.Engine.Backend),
		Command: a.Settings.Engine.Command,
	})
	if err != nil {
		return nil, err
	}
	logging.Debug("initialized runtime", "backend", rt.Name())
	a.Runtime = rt
	return rt, nil
}

// Registry returns the instance registry under Paths.
func (a *App) Registry() *registry.Registry {
	return registry.New(a.Paths, registry.WithDefaultHint(a.Settings.Ports.Start))
}

// Audit returns the audit logger under Paths.
func (a *App) Audit() *audit.Logger {
	return audit.NewLogger(a.Paths.EventsDir)
}

// Mutator returns the agent config mutator.
func (a *App) Mutator() *agentconfig.Mutator {
	return agentconfig.NewMutator(a.Paths)
}

// Controller returns the lifecycle controller wired to the engine.
func (a *App) Controller(ctx context.Context) (*instance.Controller, error) {
	rt, err := a.Engine(ctx)
	if err != nil {
		return nil, err
	}

	alloc := a.Allocator
	if alloc == nil {
		alloc = port.NewAllocator(a.Settings.Ports.SearchLimit)
	}

	return instance.NewController(rt, a.Registry(),
		instance.WithAllocator(alloc),
		instance.WithAudit(a.Audit()),
		instance.WithImage(a.Settings.Engine.Image),
		instance.WithNetwork(a.Settings.Engine.Network),
	), nil
}

// Orchestrator returns the browser takeover orchestrator.
func (a *App) Orchestrator(ctx context.Context) (*browser.Orchestrator, error) {
	rt, err := a.Engine(ctx)
	if err != nil {
		return nil, err
	}
	o := browser.New(rt, a.Mutator())
	o.BrowserSettle = a.Settings.Browser.Settle
	if a.Sleep != nil {
		o.Sleep = a.Sleep
	}
	return o, nil
}

// Checker returns the health checker.
func (a *App) Checker(ctx context.Context) (*health.Checker, error) {
	rt, err := a.Engine(ctx)
	if err != nil {
		return nil, err
	}
	return health.NewChecker(rt), nil
}

// Default is the default application instance
var Default = New()

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault resets to the default application instance
func ResetDefault() {
	Default = New()
}
