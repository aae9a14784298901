package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
)

// Backend names accepted in engine.backend.
const (
	BackendCLI  = "cli"
	BackendAPI  = "api"
	BackendAuto = "auto"
)

// Settings is the optional config.toml under the state root.
type Settings struct {
	Engine  EngineSettings  `toml:"engine"`
	Ports   PortSettings    `toml:"ports"`
	Browser BrowserSettings `toml:"browser"`
}

// EngineSettings selects and configures the container engine backend.
type EngineSettings struct {
	Backend      string `toml:"backend"`
	Command      string `toml:"command"`
	Image        string `toml:"image"`
	Network      string `toml:"network"`
	BuildContext string `toml:"build_context"`
}

// PortSettings tunes the allocator.
type PortSettings struct {
	Start       int `toml:"start"`
	SearchLimit int `toml:"search_limit"`
}

// BrowserSettings tunes the takeover sequence.
type BrowserSettings struct {
	Settle time.Duration `toml:"settle"`
}

// DefaultSettings returns settings matching the built-in protocol values.
func DefaultSettings() *Settings {
	return &Settings{
		Engine: EngineSettings{
			Backend:      BackendCLI,
			Command:      "docker",
			Image:        protocol.Image,
			Network:      protocol.Network,
			BuildContext: ".",
		},
		Ports: PortSettings{
			Start:       protocol.DefaultPortHint,
			SearchLimit: 1000,
		},
		Browser: BrowserSettings{
			Settle: protocol.BrowserSettle,
		},
	}
}

// LoadSettings reads path over the defaults. A missing file is not an error.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	if _, err := toml.Decode(string(data), s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}

	return s, nil
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	switch s.Engine.Backend {
	case BackendCLI, BackendAPI, BackendAuto:
	default:
		return fmt.Errorf("engine.backend must be one of cli, api, auto (got %q)", s.Engine.Backend)
	}
	if s.Engine.Command == "" {
		return fmt.Errorf("engine.command is required")
	}
	if s.Ports.Start < 1 || s.Ports.Start+protocol.OffsetVNCRelay > 65535 {
		return fmt.Errorf("ports.start %d out of range", s.Ports.Start)
	}
	if s.Ports.SearchLimit < 1 {
		return fmt.Errorf("ports.search_limit must be positive")
	}
	if s.Browser.Settle < 0 {
		return fmt.Errorf("browser.settle must not be negative")
	}
	return nil
}
