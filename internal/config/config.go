package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
)

// instanceNameRegex validates instance names: lowercase letters, digits and
// hyphens, at most 63 characters (container name limit minus prefix headroom).
var instanceNameRegex = regexp.MustCompile(`^[a-z0-9-]{1,63}$`)

// ValidateInstanceName checks if an instance name is valid.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}

	if name == protocol.AllInstances {
		return fmt.Errorf("instance name %q is reserved", name)
	}

	if !instanceNameRegex.MatchString(name) {
		return fmt.Errorf("invalid instance name %q: use only lowercase letters, numbers, and hyphens (max 63)", name)
	}

	return nil
}

const (
	// HomeEnv overrides the state root.
	HomeEnv = "OPENCLAW_SPAWN_HOME"

	DefaultStateDirName = ".openclaw-spawn"
	RegistryFileName    = "instances.json"
	SettingsFileName    = "config.toml"
)

// Paths holds the configured paths
type Paths struct {
	StateDir     string
	RegistryFile string
	InstancesDir string
	EventsDir    string
	SettingsFile string
}

// NewPaths returns the path layout rooted at stateDir.
func NewPaths(stateDir string) *Paths {
	return &Paths{
		StateDir:     stateDir,
		RegistryFile: filepath.Join(stateDir, RegistryFileName),
		InstancesDir: filepath.Join(stateDir, "instances"),
		EventsDir:    filepath.Join(stateDir, "events"),
		SettingsFile: filepath.Join(stateDir, SettingsFileName),
	}
}

// DefaultPaths returns the default path configuration
func DefaultPaths() *Paths {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return NewPaths(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return NewPaths(filepath.Join(home, DefaultStateDirName))
}

// InstanceDir returns the private directory for an instance. The join is
// scoped to InstancesDir so a crafted name cannot escape it.
func (p *Paths) InstanceDir(name string) (string, error) {
	if err := ValidateInstanceName(name); err != nil {
		return "", err
	}
	dir, err := securejoin.SecureJoin(p.InstancesDir, name)
	if err != nil {
		return "", fmt.Errorf("invalid instance path: %w", err)
	}
	return dir, nil
}

// AgentConfigPath returns the host path of an instance's agent config file.
func (p *Paths) AgentConfigPath(name string) (string, error) {
	dir, err := p.InstanceDir(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, protocol.HostAgentStateDir, protocol.AgentConfigFile), nil
}
