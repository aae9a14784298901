package testutil

import (
	"embed"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// writeFixture copies a fixture to path.
func writeFixture(name, path string) error {
	data, err := LoadFixture(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadSettingsFixture writes a settings fixture into dir and loads it the
// way spawn-ctl does.
func LoadSettingsFixture(dir, name string) (*config.Settings, error) {
	path := filepath.Join(dir, config.SettingsFileName)
	if err := writeFixture(name, path); err != nil {
		return nil, err
	}
	return config.LoadSettings(path)
}

// ValidSettings returns the valid settings fixture.
func ValidSettings(dir string) (*config.Settings, error) {
	return LoadSettingsFixture(dir, "valid_settings.toml")
}

// InvalidSettings loads the invalid settings fixture; the error is expected.
func InvalidSettings(dir string) (*config.Settings, error) {
	return LoadSettingsFixture(dir, "invalid_settings.toml")
}

// RegistryDocument returns the registry fixture, two instances plus
// unknown fields.
func RegistryDocument() (*registry.Document, error) {
	data, err := LoadFixture("registry.json")
	if err != nil {
		return nil, err
	}
	var doc registry.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// AgentConfig returns the raw onboarded agent config fixture.
func AgentConfig() ([]byte, error) {
	return LoadFixture("agent_config.json")
}
