// Package port allocates host port blocks for instances.
//
// Each instance reserves four host ports from one base port:
//
//	base+0   gateway
//	base+2   browser control
//	base+11  remote debugging (CDP)
//	base+20  noVNC relay
//
// # Allocation Strategy
//
// Allocate starts at the registry's nextPort hint and walks upward one base
// at a time. A candidate wins when its block overlaps no registered block and
// all four ports bind on 127.0.0.1. The probes for one candidate run in
// parallel. A busy port moves the search to the next base rather than
// failing; after Limit candidates the search stops with PortExhausted.
//
//	alloc := port.NewAllocator(settings.Ports.SearchLimit)
//	base, err := alloc.Allocate(ctx, hint, reserved)
//
// Hint is the non-probing variant for display only.
package port
