// Package protocol holds the fixed contract between spawn-ctl and the agent
// image: port offsets, in-container ports, paths, and process command lines.
// Changing any value here breaks existing instances.
package protocol

import (
	"fmt"
	"time"
)

// Registry defaults.
const (
	DefaultPortHint = 18789
	// HintAdvance is how far nextPort moves past a newly created block.
	HintAdvance = 220
	// AllInstances is the wildcard accepted by registry Remove.
	AllInstances = "__all__"
)

// Host port offsets from an instance's base port.
const (
	OffsetGateway     = 0
	OffsetBrowserCtl  = 2
	OffsetRemoteDebug = 11
	OffsetVNCRelay    = 20
	BlockSpan         = OffsetVNCRelay + 1
)

// Offsets lists the reserved offsets in ascending order.
var Offsets = [4]int{OffsetGateway, OffsetBrowserCtl, OffsetRemoteDebug, OffsetVNCRelay}

// In-container ports.
const (
	ContainerCDPPort   = 18800
	ContainerNoVNCPort = 6080
	X11VNCPort         = 5900
	Display            = ":99"
)

// Engine objects.
const (
	ContainerPrefix = "openclaw-"
	Network         = "openclaw-network"
	Image           = "openclaw-spawn-base:latest"
	ShmSize         = "1g"
	DockerSocket    = "/var/run/docker.sock"
)

// Container filesystem layout.
const (
	ContainerHome       = "/home/node"
	AgentStateMount     = ContainerHome + "/.openclaw"
	WorkspaceMount      = "/workspace"
	SharedMountRoot     = AgentStateMount + "/workspace/user_shared"
	PlaywrightBrowsers  = ContainerHome + "/.cache/ms-playwright"
	AgentBinary         = "openclaw"
	AgentConfigFile     = "openclaw.json"
	BrowserBinary       = ContainerHome + "/openclaw-chromium"
	BrowserProfileDir   = "/tmp/openclaw-vnc-profile"
	BrowserProfileName  = "openclaw"
	BrowserProfileColor = "#FF4500"
	NoVNCWebRoot        = "/usr/share/novnc"
)

// Host-side instance layout, relative to the instance directory.
const (
	HostAgentStateDir = ".openclaw"
	HostWorkspaceDir  = "workspace"
	HostAgentWorkDir  = ".openclaw/workspace"
	HostSharedDir     = ".openclaw/workspace/user_shared"
)

// Settle delays used instead of readiness polling.
const (
	BrowserSettle        = 3 * time.Second
	X11VNCSettle         = 1 * time.Second
	WebsockifyStopSettle = 500 * time.Millisecond
	WebsockifySettle     = 1 * time.Second
)

// BrowserFlags is the minimal chromium flag set for the visible browser.
var BrowserFlags = []string{
	"--no-sandbox",
	"--disable-gpu",
	"--disable-dev-shm-usage",
	fmt.Sprintf("--remote-debugging-port=%d", ContainerCDPPort),
	"--user-data-dir=" + BrowserProfileDir,
	"--no-first-run",
	"--no-default-browser-check",
	"--disable-background-networking",
	"--disable-extensions",
	"--metrics-recording-only",
	"--safebrowsing-disable-auto-update",
}

// ContainerName derives the container name for an instance.
func ContainerName(instance string) string {
	return ContainerPrefix + instance
}

// Block returns the four host ports reserved by base, in offset order.
func Block(base int) [4]int {
	var ports [4]int
	for i, off := range Offsets {
		ports[i] = base + off
	}
	return ports
}

// GatewayPort returns the host gateway port for base.
func GatewayPort(base int) int { return base + OffsetGateway }

// BrowserControlPort returns the host browser-control port for base.
func BrowserControlPort(base int) int { return base + OffsetBrowserCtl }

// RemoteDebugPort returns the host CDP port for base.
func RemoteDebugPort(base int) int { return base + OffsetRemoteDebug }

// VNCRelayPort returns the host noVNC port for base.
func VNCRelayPort(base int) int { return base + OffsetVNCRelay }

// VNCURL is the browser URL for the noVNC view of an instance.
func VNCURL(base int) string {
	return fmt.Sprintf("http://localhost:%d/vnc.html?autoconnect=true&reconnect=true", VNCRelayPort(base))
}

// DashboardURL is the gateway dashboard URL, with the auth token when known.
func DashboardURL(base int, token string) string {
	if token == "" {
		return fmt.Sprintf("http://localhost:%d/", GatewayPort(base))
	}
	return fmt.Sprintf("http://localhost:%d/#token=%s", GatewayPort(base), token)
}

// PortMappings returns host->container port pairs for an instance.
// Gateway and browser-control map to themselves; CDP and noVNC map to fixed
// in-container ports.
func PortMappings(base int) [][2]int {
	return [][2]int{
		{GatewayPort(base), GatewayPort(base)},
		{BrowserControlPort(base), BrowserControlPort(base)},
		{RemoteDebugPort(base), ContainerCDPPort},
		{VNCRelayPort(base), ContainerNoVNCPort},
	}
}
