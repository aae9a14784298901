package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
)

// cdpTimeout bounds a single endpoint check.
const cdpTimeout = 3 * time.Second

// CDPStatus describes a remote debugging endpoint.
type CDPStatus struct {
	Reachable bool
	Browser   string
	Pages     []string
}

// CheckCDP connects to the debugging endpoint published on hostPort and
// lists the open pages. The connection is dropped with ctx; Close would
// terminate the shared browser.
func CheckCDP(ctx context.Context, hostPort int) (*CDPStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, cdpTimeout)
	defer cancel()

	status := &CDPStatus{}

	u, err := launcher.ResolveURL(fmt.Sprintf("127.0.0.1:%d", hostPort))
	if err != nil {
		return status, nil
	}

	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		return status, errors.OperationFailed("cdp connect", err)
	}
	status.Reachable = true

	if v, err := b.Version(); err == nil {
		status.Browser = v.Product
	}

	pages, err := b.Pages()
	if err != nil {
		return status, errors.OperationFailed("cdp pages", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		status.Pages = append(status.Pages, info.URL)
	}
	return status, nil
}
