// Package explorer maintains the navigable schema hierarchy over registered
// connections. Each connection owns a four-level subtree (server, database,
// table, column) whose levels refresh independently through the connection's
// provider.
//
// Refreshes run synchronously on the calling goroutine so callers and tests
// observe completion deterministically; concurrency comes from callers
// invoking distinct nodes from distinct goroutines. A per-node guard drops a
// refresh request while one is already in flight for that node, and an
// in-flight refresh always runs to completion.
//
// Node paths are slash-joined coordinates (connection, connection/database,
// connection/database/table, connection/database/table/column), so
// connection names containing a slash are not addressable here.
package explorer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ctacke/DataNav/internal/registry"
	"github.com/ctacke/DataNav/pkg/logger"
)

// Tree mirrors the registry's connection set as server nodes and coordinates
// the per-node refresh state machine.
type Tree struct {
	mu    sync.RWMutex
	roots map[string]*node

	registry *registry.Manager
	logger   *logger.Logger

	obsMu        sync.RWMutex
	observers    map[int]Observer
	nextObserver int

	unsubscribe func()
}

// NewTree builds a tree over the manager's current connections and
// subscribes to its lifecycle events. Call Close to detach.
func NewTree(reg *registry.Manager, log *logger.Logger) *Tree {
	t := &Tree{
		roots:     make(map[string]*node),
		registry:  reg,
		logger:    log,
		observers: make(map[int]Observer),
	}
	for _, name := range reg.List() {
		t.roots[name] = &node{kind: KindServer, name: name, path: name}
	}
	t.unsubscribe = reg.Subscribe(t.handleRegistryEvent)
	return t
}

// Close detaches the tree from registry events.
func (t *Tree) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

func (t *Tree) safeLog(level string, format string, args ...interface{}) {
	if t.logger != nil {
		switch level {
		case "error":
			t.logger.Errorf(format, args...)
		case "warn":
			t.logger.Warnf(format, args...)
		case "debug":
			t.logger.Debugf(format, args...)
		default:
			t.logger.Infof(format, args...)
		}
	} else {
		fmt.Printf(format+"\n", args...)
	}
}

// handleRegistryEvent keeps server nodes aligned with the connection set. A
// connected transition refreshes the server node's databases; a disconnect
// clears its subtree, and repopulation waits for the next explicit or
// expansion-triggered refresh.
func (t *Tree) handleRegistryEvent(evt registry.Event) {
	switch evt.Kind {
	case registry.EventConnectionAdded:
		t.mu.Lock()
		if _, ok := t.roots[evt.Connection]; !ok {
			t.roots[evt.Connection] = &node{kind: KindServer, name: evt.Connection, path: evt.Connection}
		}
		t.mu.Unlock()
	case registry.EventConnectionRemoved:
		t.mu.Lock()
		delete(t.roots, evt.Connection)
		t.mu.Unlock()
	case registry.EventConnectionStateChanged:
		if evt.IsConnected {
			t.Refresh(context.Background(), evt.Connection)
		} else {
			t.clearServer(evt.Connection)
		}
	}
}

// clearServer discards a server node's subtree while keeping the node
// registered.
func (t *Tree) clearServer(name string) {
	t.mu.Lock()
	n, ok := t.roots[name]
	cleared := ok && len(n.children) > 0
	if ok {
		n.children = nil
	}
	t.mu.Unlock()

	if cleared {
		t.emit(Event{Kind: EventChildrenReplaced, Path: name})
	}
}

// Refresh fetches fresh children for the node at path and replaces the old
// ones wholesale. It reports whether a fetch was performed: requests are
// dropped (false) for unknown paths, column leaves, nodes already
// refreshing, and nodes whose connection is disconnected; the disconnected
// case clears the node's children instead of fetching.
//
// A fetch failure keeps the previous children (stale), logs the error and
// releases the guard; it is never fatal and never retried automatically.
func (t *Tree) Refresh(ctx context.Context, path string) bool {
	segments := splitPath(path)
	if len(segments) == 0 || len(segments) > 3 {
		return false
	}

	conn, registered := t.registry.Get(segments[0])

	t.mu.Lock()
	n := t.findNodeLocked(segments)
	if n == nil {
		t.mu.Unlock()
		return false
	}
	if n.refreshing {
		t.mu.Unlock()
		return false
	}
	if !registered || !conn.IsConnected() {
		cleared := len(n.children) > 0
		n.children = nil
		t.mu.Unlock()
		if cleared {
			t.emit(Event{Kind: EventChildrenReplaced, Path: path})
		}
		return false
	}
	n.refreshing = true
	t.mu.Unlock()

	t.emit(Event{Kind: EventRefreshStateChanged, Path: path, IsRefreshing: true})

	children, err := t.fetch(ctx, conn, segments)

	t.mu.Lock()
	n = t.findNodeLocked(segments)
	if n == nil {
		// Removed mid-flight; nothing left to update.
		t.mu.Unlock()
		t.emit(Event{Kind: EventRefreshStateChanged, Path: path, IsRefreshing: false})
		return true
	}
	n.refreshing = false
	replaced := false
	switch {
	case err != nil:
		// Stale children are better than none.
	case !conn.IsConnected():
		// Session died mid-flight; the disconnect sweep owns the cleared state.
	default:
		n.children = children
		replaced = true
	}
	t.mu.Unlock()

	if err != nil {
		t.safeLog("error", "Refresh failed for %s: %v", path, err)
	}
	if replaced {
		t.emit(Event{Kind: EventChildrenReplaced, Path: path})
	}
	t.emit(Event{Kind: EventRefreshStateChanged, Path: path, IsRefreshing: false})
	return true
}

// fetch runs the provider listing for the node's level.
func (t *Tree) fetch(ctx context.Context, conn *registry.Connection, segments []string) ([]*node, error) {
	p := conn.Provider()
	parentPath := strings.Join(segments, "/")

	switch len(segments) {
	case 1:
		databases, err := p.ListDatabases(ctx)
		if err != nil {
			return nil, err
		}
		children := make([]*node, 0, len(databases))
		for _, db := range databases {
			children = append(children, databaseNode(parentPath, db))
		}
		return children, nil
	case 2:
		tables, err := p.ListTables(ctx, segments[1])
		if err != nil {
			return nil, err
		}
		children := make([]*node, 0, len(tables))
		for _, table := range tables {
			children = append(children, tableNode(parentPath, table))
		}
		return children, nil
	default:
		columns, err := p.ListColumns(ctx, segments[1], segments[2])
		if err != nil {
			return nil, err
		}
		children := make([]*node, 0, len(columns))
		for _, column := range columns {
			children = append(children, columnNode(parentPath, column))
		}
		return children, nil
	}
}

// SetExpanded records a node's expansion flag and reports whether the node
// exists. A transition to expanded triggers a synchronous refresh, subject
// to the usual guard and connection checks; collapsing never does.
func (t *Tree) SetExpanded(ctx context.Context, path string, expanded bool) bool {
	segments := splitPath(path)
	if len(segments) == 0 {
		return false
	}

	t.mu.Lock()
	n := t.findNodeLocked(segments)
	if n == nil {
		t.mu.Unlock()
		return false
	}
	wasExpanded := n.expanded
	n.expanded = expanded
	refreshable := n.kind != KindColumn
	t.mu.Unlock()

	if expanded && !wasExpanded && refreshable {
		t.Refresh(ctx, path)
	}
	return true
}

// Node returns a snapshot of the node at path.
func (t *Tree) Node(path string) (NodeView, bool) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return NodeView{}, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	n := t.findNodeLocked(segments)
	if n == nil {
		return NodeView{}, false
	}
	return n.view(), true
}

// Children returns snapshots of the node's current children in fetch order.
func (t *Tree) Children(path string) []NodeView {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	n := t.findNodeLocked(segments)
	if n == nil {
		return nil
	}
	views := make([]NodeView, 0, len(n.children))
	for _, child := range n.children {
		views = append(views, child.view())
	}
	return views
}

// Servers returns snapshots of the server nodes in no particular order.
func (t *Tree) Servers() []NodeView {
	t.mu.RLock()
	defer t.mu.RUnlock()

	views := make([]NodeView, 0, len(t.roots))
	for _, n := range t.roots {
		views = append(views, n.view())
	}
	return views
}

// findNodeLocked walks the path segments under the tree lock.
func (t *Tree) findNodeLocked(segments []string) *node {
	n, ok := t.roots[segments[0]]
	if !ok {
		return nil
	}
	for _, name := range segments[1:] {
		if n = n.childByName(name); n == nil {
			return nil
		}
	}
	return n
}
