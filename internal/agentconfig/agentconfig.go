package agentconfig

import (
	"fmt"
	"os"

	"github.com/moby/sys/atomicwriter"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
)

// Config paths owned by spawn-ctl.
const (
	pathGatewayPort    = "gateway.port"
	pathGatewayToken   = "gateway.auth.token"
	pathBrowser        = "browser"
	pathEnabled        = "browser.enabled"
	pathDefaultProfile = "browser.defaultProfile"
	pathHeadless       = "browser.headless"
	pathNoSandbox      = "browser.noSandbox"
	pathExecutable     = "browser.executablePath"
	pathAttachOnly     = "browser.attachOnly"
	pathProfile        = "browser.profiles." + protocol.BrowserProfileName
)

// browserProfile is the managed profile entry.
type browserProfile struct {
	CDPPort int    `json:"cdpPort"`
	Color   string `json:"color"`
}

// Mutator patches instance agent configs in place.
type Mutator struct {
	paths *config.Paths
}

// NewMutator returns a mutator resolving configs under paths.
func NewMutator(paths *config.Paths) *Mutator {
	return &Mutator{paths: paths}
}

// Path returns the config file of instance name.
func (m *Mutator) Path(name string) (string, error) {
	return m.paths.AgentConfigPath(name)
}

// SetGatewayPort sets gateway.port. The bind address is left alone; it is
// passed on the gateway command line instead.
func (m *Mutator) SetGatewayPort(name string, port int) error {
	return m.patch(name, "set gateway port", func(doc []byte) ([]byte, error) {
		return sjson.SetBytes(doc, pathGatewayPort, port)
	})
}

// EnableBrowserTool turns on the managed headless browser, creating the
// browser section when needed.
func (m *Mutator) EnableBrowserTool(name string) error {
	return m.patch(name, "enable browser tool", func(doc []byte) ([]byte, error) {
		sets := []struct {
			path  string
			value interface{}
		}{
			{pathEnabled, true},
			{pathDefaultProfile, protocol.BrowserProfileName},
			{pathHeadless, true},
			{pathNoSandbox, true},
			{pathExecutable, protocol.BrowserBinary},
			{pathProfile, browserProfile{CDPPort: protocol.ContainerCDPPort, Color: protocol.BrowserProfileColor}},
		}
		var err error
		for _, s := range sets {
			if doc, err = sjson.SetBytes(doc, s.path, s.value); err != nil {
				return nil, fmt.Errorf("setting %s: %w", s.path, err)
			}
		}
		return doc, nil
	})
}

// EnableBrowserTakeover sets browser.attachOnly so the agent attaches to an
// externally launched browser. Configs without a browser section are left
// untouched.
func (m *Mutator) EnableBrowserTakeover(name string) error {
	return m.patch(name, "enable browser takeover", func(doc []byte) ([]byte, error) {
		if !gjson.GetBytes(doc, pathBrowser).IsObject() {
			return doc, nil
		}
		return sjson.SetBytes(doc, pathAttachOnly, true)
	})
}

// DisableBrowserTakeover clears attachOnly and forces headless back on.
func (m *Mutator) DisableBrowserTakeover(name string) error {
	return m.patch(name, "disable browser takeover", func(doc []byte) ([]byte, error) {
		if !gjson.GetBytes(doc, pathBrowser).IsObject() {
			return doc, nil
		}
		doc, err := sjson.SetBytes(doc, pathAttachOnly, false)
		if err != nil {
			return nil, err
		}
		return sjson.SetBytes(doc, pathHeadless, true)
	})
}

// GatewayToken returns gateway.auth.token, or "" when unset.
func (m *Mutator) GatewayToken(name string) (string, error) {
	path, doc, err := m.read(name)
	if err != nil {
		return "", err
	}
	logging.Debug("read gateway token", "path", path)
	return gjson.GetBytes(doc, pathGatewayToken).String(), nil
}

// Settings returns the current browser flags for display.
func (m *Mutator) Settings(name string) (Snapshot, error) {
	_, doc, err := m.read(name)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		GatewayPort:    int(gjson.GetBytes(doc, pathGatewayPort).Int()),
		BrowserEnabled: gjson.GetBytes(doc, pathEnabled).Bool(),
		Headless:       gjson.GetBytes(doc, pathHeadless).Bool(),
		AttachOnly:     gjson.GetBytes(doc, pathAttachOnly).Bool(),
	}, nil
}

// Snapshot is a read-only view of the fields spawn-ctl manages.
type Snapshot struct {
	GatewayPort    int
	BrowserEnabled bool
	Headless       bool
	AttachOnly     bool
}

// read loads and validates the config of name.
func (m *Mutator) read(name string) (string, []byte, error) {
	path, err := m.Path(name)
	if err != nil {
		return "", nil, err
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return path, nil, errors.ConfigUnavailable(path, err)
	}
	if !gjson.ValidBytes(doc) || !gjson.ParseBytes(doc).IsObject() {
		return path, nil, errors.ConfigUnavailable(path, fmt.Errorf("not a JSON object"))
	}
	return path, doc, nil
}

// patch applies fn to the config of name and writes the result back
// atomically. A missing or invalid file is never created or repaired.
func (m *Mutator) patch(name, op string, fn func(doc []byte) ([]byte, error)) error {
	path, doc, err := m.read(name)
	if err != nil {
		logging.Debug("agent config unavailable, skipping", "op", op, "instance", name, "error", err)
		return err
	}

	out, err := fn(doc)
	if err != nil {
		return errors.OperationFailed(op, err)
	}
	if string(out) == string(doc) {
		return nil
	}

	if err := writeAtomic(path, out); err != nil {
		return errors.OperationFailed(op, err)
	}
	logging.Debug("patched agent config", "op", op, "instance", name)
	return nil
}

// writeAtomic replaces path through a sibling temp file, keeping its mode.
func writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return atomicwriter.WriteFile(path, data, mode)
}

// IgnoreUnavailable drops ConfigUnavailable errors, which are expected
// before the agent's onboarding has written its config.
func IgnoreUnavailable(err error) error {
	if errors.Is(err, errors.ErrConfigUnavailable) {
		return nil
	}
	return err
}
