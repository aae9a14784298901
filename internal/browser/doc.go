// Package browser runs the visible-browser takeover inside an instance.
//
// Inside the agent's image, the agent's own browser launch is unreliable,
// and the host user has to watch the same browser the agent drives. So
// spawn-ctl launches chromium itself on the virtual display, tells the
// agent to attach over CDP, and exposes the display through x11vnc and a
// websockify bridge that noVNC connects to.
//
// Takeover runs the four steps in order:
//
//  1. kill any visible browser (a missing process is fine)
//  2. launch chromium with a throwaway profile and settle
//  3. set browser.attachOnly in the agent config
//  4. start x11vnc if absent, then stop and restart websockify
//
// StopView removes only the relay. Release also stops the browser and puts
// the agent back into headless mode.
//
// Fixed delays stand in for readiness polling. CheckCDP can verify the
// debug endpoint afterwards.
package browser
