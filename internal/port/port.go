package port

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
)

const (
	// DefaultSearchLimit caps how many base ports Allocate tries.
	DefaultSearchLimit = 1000

	maxPort = 65535
)

// Prober reports whether a host port can be bound right now.
type Prober interface {
	Free(ctx context.Context, port int) bool
}

// TCPProber binds a throwaway listener on loopback and releases it.
type TCPProber struct {
	Host string
}

// Free reports whether port is bindable on the prober's host.
func (p TCPProber) Free(ctx context.Context, port int) bool {
	host := p.Host
	if host == "" {
		host = "127.0.0.1"
	}
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	l.Close()
	return true
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, port int) bool

// Free calls f.
func (f ProberFunc) Free(ctx context.Context, port int) bool { return f(ctx, port) }

// Block is the four-port reservation anchored at Base.
type Block struct {
	Base int
}

// Ports returns gateway, browser-control, remote-debug and VNC relay ports.
func (b Block) Ports() [4]int {
	return protocol.Block(b.Base)
}

// Contains reports whether port is one of the block's ports.
func (b Block) Contains(port int) bool {
	for _, p := range b.Ports() {
		if p == port {
			return true
		}
	}
	return false
}

// Overlaps reports whether the two blocks share any port.
func (b Block) Overlaps(other Block) bool {
	for _, p := range other.Ports() {
		if b.Contains(p) {
			return true
		}
	}
	return false
}

func (b Block) String() string {
	p := b.Ports()
	return fmt.Sprintf("%d/%d/%d/%d", p[0], p[1], p[2], p[3])
}

// Allocator finds base ports whose whole block is bindable.
type Allocator struct {
	Prober Prober
	Limit  int
}

// NewAllocator returns an allocator probing loopback with the given limit.
func NewAllocator(limit int) *Allocator {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &Allocator{Prober: TCPProber{}, Limit: limit}
}

// Allocate scans upward from hint and returns the first base port whose
// four ports all probe free and whose block does not overlap a reserved one.
// The four probes of a candidate run concurrently.
func (a *Allocator) Allocate(ctx context.Context, hint int, reserved []Block) (int, error) {
	limit := a.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	prober := a.Prober
	if prober == nil {
		prober = TCPProber{}
	}

	tried := 0
	for base := hint; tried < limit; base++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if base < 1 || base+protocol.OffsetVNCRelay > maxPort {
			break
		}
		tried++

		candidate := Block{Base: base}
		if overlapsAny(candidate, reserved) {
			continue
		}
		if blockFree(ctx, prober, candidate) {
			logging.Debug("allocated port block", "base", base, "tried", tried)
			return base, nil
		}
		logging.Debug("port block busy", "block", candidate.String())
	}

	return 0, errors.PortExhausted(hint, tried)
}

func overlapsAny(b Block, reserved []Block) bool {
	for _, r := range reserved {
		if b.Overlaps(r) {
			return true
		}
	}
	return false
}

// blockFree probes the block's ports concurrently and joins the results.
func blockFree(ctx context.Context, prober Prober, b Block) bool {
	var free [4]bool
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range b.Ports() {
		g.Go(func() error {
			free[i] = prober.Free(gctx, p)
			return nil
		})
	}
	_ = g.Wait()

	for _, ok := range free {
		if !ok {
			return false
		}
	}
	return true
}

// Hint returns the registry hint without probing. It must not be used to
// pick a port for a new container.
func Hint(nextPort int) int {
	if nextPort <= 0 {
		return protocol.DefaultPortHint
	}
	return nextPort
}
