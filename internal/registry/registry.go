// Package registry maintains the named connection sessions of the service.
//
// Connections are registered under unique case-sensitive names. Registration
// instantiates a provider for the connection's database type but never dials;
// connecting, disconnecting and removal are explicit operations with
// synchronous observer notifications.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/logger"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

// Manager owns the connection map. All methods are safe for concurrent use;
// provider calls happen outside the map lock so one slow backend cannot stall
// operations on other connections.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*Connection

	factories *provider.Registry
	logger    *logger.Logger

	obsMu        sync.RWMutex
	observers    map[int]Observer
	nextObserver int
}

// NewManager creates a manager backed by the process-wide provider registry.
func NewManager(log *logger.Logger) *Manager {
	return NewManagerWithRegistry(provider.GlobalRegistry(), log)
}

// NewManagerWithRegistry creates a manager backed by an explicit provider
// registry.
func NewManagerWithRegistry(reg *provider.Registry, log *logger.Logger) *Manager {
	return &Manager{
		connections: make(map[string]*Connection),
		factories:   reg,
		logger:      log,
		observers:   make(map[int]Observer),
	}
}

// SetLogger replaces the manager's logger.
func (m *Manager) SetLogger(log *logger.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = log
}

// safeLog logs through the configured logger, or falls back to stdout when no
// logger is set.
func (m *Manager) safeLog(level string, format string, args ...interface{}) {
	if m.logger != nil {
		switch level {
		case "info":
			m.logger.Infof(format, args...)
		case "error":
			m.logger.Errorf(format, args...)
		case "warn":
			m.logger.Warnf(format, args...)
		case "debug":
			m.logger.Debugf(format, args...)
		default:
			m.logger.Infof(format, args...)
		}
	} else {
		fmt.Printf(format+"\n", args...)
	}
}

// RegisterProvider makes a database type available for AddConnection.
func (m *Manager) RegisterProvider(dbType string, factory provider.Factory) error {
	return m.factories.Register(dbType, factory)
}

// AddConnection registers settings under info.Name and instantiates a
// provider for them. The name must be unused; registration does not dial.
// Exactly one of two concurrent registrations under the same name wins.
func (m *Manager) AddConnection(info model.ConnectionInfo) (*Connection, error) {
	if strings.TrimSpace(info.Name) == "" {
		return nil, fmt.Errorf("connection name is required: %w", provider.ErrInvalidArgument)
	}

	p, err := m.factories.New(info, m.logger)
	if err != nil {
		return nil, err
	}

	conn := &Connection{info: info, provider: p}

	m.mu.Lock()
	if _, taken := m.connections[info.Name]; taken {
		m.mu.Unlock()
		return nil, fmt.Errorf("connection %s: %w", info.Name, provider.ErrAlreadyExists)
	}
	m.connections[info.Name] = conn
	m.mu.Unlock()

	m.safeLog("info", "Registered connection %s (%s at %s:%d)", info.Name, p.Type(), info.Host, info.Port)
	m.emit(Event{Kind: EventConnectionAdded, Connection: info.Name})
	return conn, nil
}

// RemoveConnection disconnects and unregisters a connection. It reports
// whether the name was registered; removing an absent name is a no-op.
func (m *Manager) RemoveConnection(ctx context.Context, name string) bool {
	m.mu.Lock()
	conn, ok := m.connections[name]
	if ok {
		delete(m.connections, name)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}

	conn.provider.Disconnect(ctx)
	m.safeLog("info", "Removed connection %s", name)
	m.emit(Event{Kind: EventConnectionRemoved, Connection: name})
	return true
}

// Connect opens the provider session for a registered connection. Connection
// failures are logged by the provider and reported as false, never as an
// error. A state-change event is emitted whether or not the attempt
// succeeded. Connecting an unregistered name returns false without an event.
func (m *Manager) Connect(ctx context.Context, name string) bool {
	conn, ok := m.Get(name)
	if !ok {
		m.safeLog("warn", "Connect requested for unknown connection %s", name)
		return false
	}

	info := conn.Info()
	if !info.UseTLS && !dbcapabilities.IsPrivateAddress(info.Host) {
		m.safeLog("warn", "Connection %s dials public address %s without TLS", name, info.Host)
	}

	ok = conn.provider.Connect(ctx)
	m.emit(Event{Kind: EventConnectionStateChanged, Connection: name, IsConnected: conn.provider.IsConnected()})
	return ok
}

// Disconnect closes the provider session for a registered connection and
// emits a state-change event. It reports whether the name was registered;
// disconnecting an already-disconnected connection is harmless.
func (m *Manager) Disconnect(ctx context.Context, name string) bool {
	conn, ok := m.Get(name)
	if !ok {
		return false
	}

	conn.provider.Disconnect(ctx)
	m.emit(Event{Kind: EventConnectionStateChanged, Connection: name, IsConnected: false})
	return true
}

// Get returns the handle registered under name.
func (m *Manager) Get(name string) (*Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.connections[name]
	return conn, ok
}

// List returns the registered connection names in no particular order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.connections))
	for name := range m.connections {
		names = append(names, name)
	}
	return names
}

// Connections returns the registered handles in no particular order.
func (m *Manager) Connections() []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := make([]*Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		conns = append(conns, conn)
	}
	return conns
}

// ExecuteQuery runs a statement on a registered connection.
func (m *Manager) ExecuteQuery(ctx context.Context, name string, query string) (*model.QueryResult, error) {
	conn, ok := m.Get(name)
	if !ok {
		return nil, fmt.Errorf("connection not found: %s", name)
	}
	return conn.ExecuteQuery(ctx, query)
}

// CheckHealth verifies that a connection is live by pinging its backend.
func (m *Manager) CheckHealth(ctx context.Context, name string) error {
	conn, ok := m.Get(name)
	if !ok {
		return fmt.Errorf("connection not found: %s", name)
	}
	if !conn.IsConnected() {
		return fmt.Errorf("connection %s: %w", name, provider.ErrNotConnected)
	}
	if err := conn.provider.Ping(ctx); err != nil {
		return fmt.Errorf("health check failed for connection %s: %w", name, err)
	}
	return nil
}

// DisconnectAll closes every live session. Connections stay registered and
// observers receive a state-change event per previously connected session.
func (m *Manager) DisconnectAll(ctx context.Context) {
	for _, conn := range m.Connections() {
		if !conn.IsConnected() {
			continue
		}
		conn.provider.Disconnect(ctx)
		m.emit(Event{Kind: EventConnectionStateChanged, Connection: conn.Name(), IsConnected: false})
	}
	m.safeLog("info", "Disconnected all connections")
}
