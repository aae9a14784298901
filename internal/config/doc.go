// Package config provides paths, settings and name validation for spawn-ctl.
//
// # State Layout
//
// Everything lives under ~/.openclaw-spawn (or $OPENCLAW_SPAWN_HOME):
//
//	instances.json              registry document
//	instances/<name>/           per-instance directory tree
//	events/<name>.events.jsonl  audit log
//	config.toml                 optional settings
//
// # Settings
//
// config.toml is optional; absent keys keep their defaults:
//
//	[engine]
//	backend = "cli"          # cli, api or auto
//	command = "docker"
//	image = "openclaw-spawn-base:latest"
//	network = "openclaw-network"
//	build_context = "."
//
//	[ports]
//	start = 18789
//	search_limit = 1000
//
//	[browser]
//	settle = "3s"
package config
