// Package monitor provides background health monitoring for instances.
package monitor

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/instance"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/registry"
)

// DefaultConcurrency bounds how many instances are checked at once.
const DefaultConcurrency = 4

// CheckResult holds the result of a single instance health check.
type CheckResult struct {
	Instance  string
	Status    health.Status
	Health    *health.CheckResult
	Restarted bool
}

// HealthChecker checks one registered instance.
type HealthChecker interface {
	Check(ctx context.Context, rec *registry.Record) *health.CheckResult
}

// Restarter brings an instance back to running.
type Restarter interface {
	EnsureRunning(ctx context.Context, name string) (*registry.Record, instance.Action, error)
}

// Monitor periodically checks the health of all instances.
type Monitor struct {
	interval    time.Duration
	reg         *registry.Registry
	checker     HealthChecker
	restarter   Restarter
	autoRestart bool
	auditLog    *audit.Logger
	concurrency int

	mu   sync.Mutex
	last map[string]health.Status
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithAutoRestart enables reconciling stopped or missing containers through r.
func WithAutoRestart(r Restarter) Option {
	return func(m *Monitor) {
		m.restarter = r
		m.autoRestart = r != nil
	}
}

// WithAuditLogger sets the audit logger for recording health changes.
func WithAuditLogger(logger *audit.Logger) Option {
	return func(m *Monitor) {
		m.auditLog = logger
	}
}

// WithConcurrency sets how many checks run in parallel.
func WithConcurrency(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// New creates a new Monitor.
func New(interval time.Duration, reg *registry.Registry, checker HealthChecker, opts ...Option) *Monitor {
	m := &Monitor{
		interval:    interval,
		reg:         reg,
		checker:     checker,
		concurrency: DefaultConcurrency,
		last:        make(map[string]health.Status),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the monitoring loop. It blocks until the context is cancelled.
// report, if non-nil, receives every round's results.
func (m *Monitor) Run(ctx context.Context, report func([]CheckResult)) error {
	logging.Debug("starting health monitor", "interval", m.interval, "autoRestart", m.autoRestart)

	// Run an immediate check, then loop on interval.
	m.round(ctx, report)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("health monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.round(ctx, report)
		}
	}
}

func (m *Monitor) round(ctx context.Context, report func([]CheckResult)) {
	results := m.CheckAll(ctx)
	if report != nil && ctx.Err() == nil {
		report(results)
	}
}

// CheckAll checks every registered instance once. Checks run concurrently;
// restarts and audit writes happen afterwards, one instance at a time.
func (m *Monitor) CheckAll(ctx context.Context) []CheckResult {
	records, err := m.reg.Sorted()
	if err != nil {
		logging.Warn("monitor failed to list instances", "error", err)
		return nil
	}

	results := make([]CheckResult, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, rec := range records {
		g.Go(func() error {
			h := m.checker.Check(gctx, rec)
			results[i] = CheckResult{Instance: rec.Name, Status: h.Summary(), Health: h}
			return nil
		})
	}
	_ = g.Wait()

	for i := range results {
		if ctx.Err() != nil {
			break
		}
		m.observe(results[i])
		if m.autoRestart && needsRestart(results[i].Status) {
			results[i].Restarted = m.restart(ctx, results[i])
		}
	}
	return results
}

func needsRestart(s health.Status) bool {
	return s == health.StatusStopped || s == health.StatusMissing
}

// observe records a health event when an instance's status changed since
// the previous round.
func (m *Monitor) observe(r CheckResult) {
	m.mu.Lock()
	prev, seen := m.last[r.Instance]
	m.last[r.Instance] = r.Status
	m.mu.Unlock()

	if seen && prev == r.Status {
		return
	}
	logging.Debug("instance health changed", "instance", r.Instance, "from", prev, "to", r.Status)
	if m.auditLog != nil {
		_ = m.auditLog.LogEvent(audit.EventHealth, r.Instance, string(r.Status))
	}
}

func (m *Monitor) restart(ctx context.Context, r CheckResult) bool {
	logging.UserInfo("Auto-restarting instance %s (status: %s)", r.Instance, r.Status)
	_, action, err := m.restarter.EnsureRunning(ctx, r.Instance)
	if err != nil {
		logging.Warn("auto-restart failed", "instance", r.Instance, "error", err)
		if m.auditLog != nil {
			_ = m.auditLog.LogEvent(audit.EventError, r.Instance, "auto-restart failed: "+err.Error())
		}
		return false
	}
	logging.Debug("auto-restart done", "instance", r.Instance, "action", action)
	return action != instance.ActionNone
}
