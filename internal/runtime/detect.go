package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/system"
)

// BackendType identifies which engine client to use
type BackendType string

const (
	BackendCLI  BackendType = "cli"
	BackendAPI  BackendType = "api"
	BackendAuto BackendType = "auto"
)

// autoPingTimeout bounds the API probe during auto-detection.
const autoPingTimeout = 2 * time.Second

// Config holds runtime configuration
type Config struct {
	// Backend specifies which client to use (or "auto" for detection)
	Backend BackendType

	// Command is the CLI binary for the cli backend
	Command string

	// Executor runs CLI commands; nil uses the system default
	Executor system.CommandExecutor
}

// DefaultConfig returns the default runtime configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendCLI,
		Command: "docker",
	}
}

// New creates a new Runtime based on the configuration.
// With BackendAuto it prefers the API when the daemon answers a ping and
// falls back to the CLI otherwise.
func New(ctx context.Context, cfg *Config) (Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logging.Debug("creating runtime", "backend", cfg.Backend, "command", cfg.Command)

	switch cfg.Backend {
	case BackendCLI, "":
		return NewDockerRuntime(cfg.Command, cfg.Executor), nil

	case BackendAPI:
		return NewAPIRuntime()

	case BackendAuto:
		if api, err := NewAPIRuntime(); err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, autoPingTimeout)
			defer cancel()
			if err := api.Ping(pingCtx); err == nil {
				logging.Debug("detected engine API")
				return api, nil
			}
			_ = api.Close()
		}
		logging.Debug("engine API unreachable, using CLI", "command", cfg.Command)
		return NewDockerRuntime(cfg.Command, cfg.Executor), nil

	default:
		return nil, errors.ConfigError(fmt.Sprintf("unknown engine backend: %s", cfg.Backend), nil)
	}
}

// Ready checks that the engine is installed and running, the first two
// steps of any engine-backed command.
func Ready(ctx context.Context, rt Runtime) error {
	if !rt.Installed(ctx) {
		return errors.EngineUnavailable(fmt.Errorf("%s is not installed", rt.Name()))
	}
	return rt.Ping(ctx)
}
