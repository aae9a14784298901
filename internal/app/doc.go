// Package app provides the application context for spawn-ctl.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Paths     *config.Paths     // State root layout
//	    Settings  *config.Settings  // config.toml or defaults
//	    Runtime   runtime.Runtime   // Container engine, created lazily
//	    Allocator *port.Allocator   // Port allocator override
//	}
//
// Services built from them (Registry, Controller, Mutator, Orchestrator,
// Checker, Audit) are constructed on demand. Only the engine is cached,
// since creating it may probe the daemon.
//
// # Creating an App
//
//	// Production usage
//	a := app.New()
//
//	// Testing with custom dependencies
//	a := app.New(
//	    app.WithPaths(config.NewPaths(t.TempDir())),
//	    app.WithRuntime(runtime.NewMockRuntime()),
//	)
package app
