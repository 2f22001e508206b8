// Package engine ties the service together: it owns the connection registry,
// the schema explorer tree and the health checker, registers the configured
// connection profiles at startup and runs the periodic health watcher.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ctacke/DataNav/internal/config"
	"github.com/ctacke/DataNav/internal/explorer"
	"github.com/ctacke/DataNav/internal/registry"
	"github.com/ctacke/DataNav/pkg/health"
	"github.com/ctacke/DataNav/pkg/logger"
	"github.com/ctacke/DataNav/pkg/model"
)

// healthCheckTimeout bounds one watcher sweep so a hung backend cannot stall
// the loop.
const healthCheckTimeout = 10 * time.Second

const connectionCheckPrefix = "connection:"

type Engine struct {
	config   *config.Config
	logger   *logger.Logger
	registry *registry.Manager
	tree     *explorer.Tree
	health   *health.Checker

	state struct {
		sync.Mutex
		isRunning bool
	}
	metrics struct {
		queriesExecuted int64
		refreshesRun    int64
		errors          int64
	}

	unsubTree     func()
	watcherCtx    context.Context
	watcherCancel context.CancelFunc
	watcherDone   chan struct{}
}

func New(cfg *config.Config, log *logger.Logger) *Engine {
	return NewWithManager(cfg, log, registry.NewManager(log))
}

// NewWithManager builds an engine around an existing registry manager, for
// callers that assembled the manager themselves.
func NewWithManager(cfg *config.Config, log *logger.Logger, reg *registry.Manager) *Engine {
	e := &Engine{
		config:   cfg,
		logger:   log,
		registry: reg,
		health:   health.NewChecker(),
	}
	e.tree = explorer.NewTree(e.registry, log)
	e.unsubTree = e.tree.Subscribe(func(evt explorer.Event) {
		if evt.Kind == explorer.EventRefreshStateChanged && !evt.IsRefreshing {
			atomic.AddInt64(&e.metrics.refreshesRun, 1)
		}
	})
	return e
}

// Start registers the configured connection profiles, dials the ones marked
// for startup connection and launches the health watcher. A second Start on
// a running engine is an error and has no side effects.
func (e *Engine) Start(ctx context.Context) error {
	e.state.Lock()
	defer e.state.Unlock()

	if e.state.isRunning {
		return fmt.Errorf("engine is already running")
	}

	for _, profile := range e.config.Connections {
		info, err := profile.ConnectionInfo()
		if err != nil {
			return fmt.Errorf("resolve connection profile: %w", err)
		}
		if _, err := e.registry.AddConnection(info); err != nil {
			return fmt.Errorf("register connection %s: %w", profile.Name, err)
		}
		if profile.Connect {
			if !e.registry.Connect(ctx, profile.Name) {
				// The session stays registered; the failure was already
				// logged by the provider.
				atomic.AddInt64(&e.metrics.errors, 1)
			}
		}
	}

	e.health.RunCheck("registry", e.CheckRegistry)

	e.watcherCtx, e.watcherCancel = context.WithCancel(ctx)
	e.watcherDone = make(chan struct{})
	go e.healthWatcher(e.watcherCtx)

	e.state.isRunning = true
	return nil
}

// Stop cancels the health watcher, waits for it to drain, disconnects every
// live session and releases the tree's registry subscription. Stopping a
// stopped engine is a no-op.
func (e *Engine) Stop(ctx context.Context) error {
	e.state.Lock()
	defer e.state.Unlock()

	if !e.state.isRunning {
		return nil
	}
	e.state.isRunning = false

	if e.watcherCancel != nil {
		e.watcherCancel()
		select {
		case <-e.watcherDone:
		case <-ctx.Done():
			if e.logger != nil {
				e.logger.Warn("Health watcher did not stop before shutdown deadline")
			}
		}
	}

	e.registry.DisconnectAll(ctx)

	if e.unsubTree != nil {
		e.unsubTree()
		e.unsubTree = nil
	}
	e.tree.Close()
	return nil
}

func (e *Engine) healthWatcher(ctx context.Context) {
	defer close(e.watcherDone)

	interval := e.config.Service.WatchInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if e.logger != nil {
		e.logger.Info("Health watcher starting with interval %s", interval)
		defer e.logger.Info("Health watcher shutdown complete")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
			e.RunHealthChecks(checkCtx)
			cancel()
		}
	}
}

// RunHealthChecks performs one health sweep: the registry check plus a ping
// check per connected session. Checks for sessions that disconnected or were
// removed since the last sweep are dropped.
func (e *Engine) RunHealthChecks(ctx context.Context) {
	e.health.RunCheck("registry", e.CheckRegistry)

	current := make(map[string]bool)
	for _, conn := range e.registry.Connections() {
		if !conn.IsConnected() {
			continue
		}
		name := conn.Name()
		checkName := connectionCheckPrefix + name
		current[checkName] = true
		e.health.RunCheck(checkName, func() error {
			err := e.registry.CheckHealth(ctx, name)
			if err != nil {
				atomic.AddInt64(&e.metrics.errors, 1)
			}
			return err
		})
	}

	for _, check := range e.health.GetAllChecks() {
		if strings.HasPrefix(check.Name, connectionCheckPrefix) && !current[check.Name] {
			e.health.Remove(check.Name)
		}
	}
}

// CheckRegistry reports whether the connection registry is usable. It takes
// no locks so the watcher can run it while Stop waits for the watcher.
func (e *Engine) CheckRegistry() error {
	if e.registry == nil {
		return fmt.Errorf("registry not initialized")
	}
	return nil
}

func (e *Engine) CheckHealth() error {
	e.state.Lock()
	defer e.state.Unlock()

	if !e.state.isRunning {
		return fmt.Errorf("service not initialized")
	}
	return nil
}

// ExecuteQuery runs a query through a named session and tracks it in the
// operation metrics.
func (e *Engine) ExecuteQuery(ctx context.Context, name string, query string) (*model.QueryResult, error) {
	result, err := e.registry.ExecuteQuery(ctx, name, query)
	atomic.AddInt64(&e.metrics.queriesExecuted, 1)
	if err != nil {
		atomic.AddInt64(&e.metrics.errors, 1)
	}
	return result, err
}

// Refresh re-fetches the children of the addressed tree node.
func (e *Engine) Refresh(ctx context.Context, path string) bool {
	return e.tree.Refresh(ctx, path)
}

func (e *Engine) Registry() *registry.Manager {
	return e.registry
}

func (e *Engine) Tree() *explorer.Tree {
	return e.tree
}

func (e *Engine) HealthStatus() health.Status {
	return e.health.GetOverallStatus()
}

func (e *Engine) HealthChecks() []*health.Check {
	return e.health.GetAllChecks()
}

func (e *Engine) GetMetrics() map[string]int64 {
	return map[string]int64{
		"queries_executed": atomic.LoadInt64(&e.metrics.queriesExecuted),
		"refreshes_run":    atomic.LoadInt64(&e.metrics.refreshesRun),
		"errors":           atomic.LoadInt64(&e.metrics.errors),
		"connections":      int64(len(e.registry.List())),
	}
}
