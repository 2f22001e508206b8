package explorer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctacke/DataNav/internal/registry"
	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/logger"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

type fakeSchemaProvider struct {
	info      model.ConnectionInfo
	connected atomic.Bool
	failing   atomic.Bool

	databases []model.Database
	tables    map[string][]model.Table
	columns   map[string][]model.Column

	dbCalls     atomic.Int32
	tableCalls  atomic.Int32
	columnCalls atomic.Int32

	// When set, the listing signals dbActive/columnActive on entry and then
	// waits for dbBlock/columnBlock before returning.
	dbActive     chan struct{}
	dbBlock      chan struct{}
	columnActive chan struct{}
	columnBlock  chan struct{}
}

func (f *fakeSchemaProvider) Type() dbcapabilities.DatabaseID { return dbcapabilities.Cassandra }
func (f *fakeSchemaProvider) Info() model.ConnectionInfo      { return f.info }

func (f *fakeSchemaProvider) Connect(ctx context.Context) bool {
	f.connected.Store(true)
	return true
}

func (f *fakeSchemaProvider) Disconnect(ctx context.Context) { f.connected.Store(false) }
func (f *fakeSchemaProvider) IsConnected() bool              { return f.connected.Load() }
func (f *fakeSchemaProvider) Ping(ctx context.Context) error { return nil }

func (f *fakeSchemaProvider) ListDatabases(ctx context.Context) ([]model.Database, error) {
	f.dbCalls.Add(1)
	if f.dbActive != nil {
		f.dbActive <- struct{}{}
	}
	if f.dbBlock != nil {
		<-f.dbBlock
	}
	if f.failing.Load() {
		return nil, fmt.Errorf("metadata query failed")
	}
	return f.databases, nil
}

func (f *fakeSchemaProvider) ListTables(ctx context.Context, database string) ([]model.Table, error) {
	f.tableCalls.Add(1)
	if f.failing.Load() {
		return nil, fmt.Errorf("metadata query failed")
	}
	return f.tables[database], nil
}

func (f *fakeSchemaProvider) ListColumns(ctx context.Context, database, table string) ([]model.Column, error) {
	f.columnCalls.Add(1)
	if f.columnActive != nil {
		f.columnActive <- struct{}{}
	}
	if f.columnBlock != nil {
		<-f.columnBlock
	}
	if f.failing.Load() {
		return nil, fmt.Errorf("metadata query failed")
	}
	return f.columns[database+"/"+table], nil
}

func (f *fakeSchemaProvider) ExecuteQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	return &model.QueryResult{RowsAffected: model.RowsAffectedUnknown}, nil
}

func newFixture(t *testing.T) (*registry.Manager, *Tree, *fakeSchemaProvider) {
	t.Helper()

	fake := &fakeSchemaProvider{
		databases: []model.Database{{Name: "ks1"}, {Name: "ks2"}},
		tables: map[string][]model.Table{
			"ks1": {{Name: "users", DatabaseName: "ks1"}, {Name: "events", DatabaseName: "ks1"}},
		},
		columns: map[string][]model.Column{
			"ks1/users": {
				{Name: "id", DataType: "uuid", IsPrimaryKey: true, IsNullable: false},
				{Name: "email", DataType: "text", IsNullable: true},
			},
		},
	}

	reg := provider.NewRegistry()
	err := reg.Register("x", func(info model.ConnectionInfo, log *logger.Logger) (provider.Provider, error) {
		fake.info = info
		return fake, nil
	})
	require.NoError(t, err)

	log := logger.New("explorer-test", "test")
	m := registry.NewManagerWithRegistry(reg, log)
	tree := NewTree(m, log)
	t.Cleanup(tree.Close)
	return m, tree, fake
}

func addAndConnect(t *testing.T, m *registry.Manager, name string) {
	t.Helper()
	_, err := m.AddConnection(model.ConnectionInfo{Name: name, ProviderType: "x", Host: "10.0.0.9", Port: 9042})
	require.NoError(t, err)
	require.True(t, m.Connect(context.Background(), name))
}

func childNames(views []NodeView) []string {
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Name)
	}
	return names
}

func TestServerNodesMirrorRegistry(t *testing.T) {
	m, tree, _ := newFixture(t)

	_, err := m.AddConnection(model.ConnectionInfo{Name: "c1", ProviderType: "x"})
	require.NoError(t, err)

	view, ok := tree.Node("c1")
	require.True(t, ok)
	assert.Equal(t, KindServer, view.Kind)
	assert.False(t, view.HasChildren)

	require.True(t, m.RemoveConnection(context.Background(), "c1"))
	_, ok = tree.Node("c1")
	assert.False(t, ok)
}

func TestNewTreeSeedsExistingConnections(t *testing.T) {
	fake := &fakeSchemaProvider{}
	reg := provider.NewRegistry()
	require.NoError(t, reg.Register("x", func(info model.ConnectionInfo, log *logger.Logger) (provider.Provider, error) {
		fake.info = info
		return fake, nil
	}))
	m := registry.NewManagerWithRegistry(reg, logger.New("explorer-test", "test"))
	_, err := m.AddConnection(model.ConnectionInfo{Name: "pre", ProviderType: "x"})
	require.NoError(t, err)

	tree := NewTree(m, logger.New("explorer-test", "test"))
	defer tree.Close()

	require.Len(t, tree.Servers(), 1)
	_, ok := tree.Node("pre")
	assert.True(t, ok)
}

func TestConnectRefreshesServerNode(t *testing.T) {
	m, tree, fake := newFixture(t)
	addAndConnect(t, m, "c1")

	assert.Equal(t, int32(1), fake.dbCalls.Load())
	assert.Equal(t, []string{"ks1", "ks2"}, childNames(tree.Children("c1")))
}

func TestRefreshDescendsLevels(t *testing.T) {
	m, tree, _ := newFixture(t)
	addAndConnect(t, m, "c1")

	require.True(t, tree.Refresh(context.Background(), "c1/ks1"))
	assert.Equal(t, []string{"users", "events"}, childNames(tree.Children("c1/ks1")))

	require.True(t, tree.Refresh(context.Background(), "c1/ks1/users"))
	columns := tree.Children("c1/ks1/users")
	require.Len(t, columns, 2)
	assert.Equal(t, KindColumn, columns[0].Kind)
	require.NotNil(t, columns[0].Column)
	assert.True(t, columns[0].Column.IsPrimaryKey)
	assert.False(t, columns[0].Column.IsNullable)
	assert.Equal(t, "uuid", columns[0].Column.DataType)

	// Column nodes are leaves.
	assert.False(t, tree.Refresh(context.Background(), "c1/ks1/users/id"))
}

func TestRefreshUnknownPath(t *testing.T) {
	_, tree, _ := newFixture(t)

	assert.False(t, tree.Refresh(context.Background(), ""))
	assert.False(t, tree.Refresh(context.Background(), "nope"))
	assert.False(t, tree.Refresh(context.Background(), "nope/db/table"))
}

func TestRefreshGuardDropsConcurrentRequest(t *testing.T) {
	m, tree, fake := newFixture(t)
	addAndConnect(t, m, "c1")
	require.True(t, tree.Refresh(context.Background(), "c1/ks1"))

	fake.columnActive = make(chan struct{})
	fake.columnBlock = make(chan struct{})

	done := make(chan bool, 1)
	go func() {
		done <- tree.Refresh(context.Background(), "c1/ks1/users")
	}()
	<-fake.columnActive

	view, ok := tree.Node("c1/ks1/users")
	require.True(t, ok)
	assert.True(t, view.IsRefreshing)

	// The second request must be dropped without touching the provider.
	assert.False(t, tree.Refresh(context.Background(), "c1/ks1/users"))
	assert.Equal(t, int32(1), fake.columnCalls.Load())
	assert.Empty(t, tree.Children("c1/ks1/users"))

	close(fake.columnBlock)
	assert.True(t, <-done)

	view, ok = tree.Node("c1/ks1/users")
	require.True(t, ok)
	assert.False(t, view.IsRefreshing)
	assert.Len(t, tree.Children("c1/ks1/users"), 2)
	assert.Equal(t, int32(1), fake.columnCalls.Load())
}

func TestRefreshFailureKeepsStaleChildren(t *testing.T) {
	m, tree, fake := newFixture(t)
	addAndConnect(t, m, "c1")
	require.True(t, tree.Refresh(context.Background(), "c1/ks1"))
	require.Len(t, tree.Children("c1/ks1"), 2)

	var mu sync.Mutex
	var events []Event
	defer tree.Subscribe(func(evt Event) {
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
	})()

	fake.failing.Store(true)
	assert.True(t, tree.Refresh(context.Background(), "c1/ks1"))

	assert.Equal(t, []string{"users", "events"}, childNames(tree.Children("c1/ks1")))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, EventRefreshStateChanged, events[0].Kind)
	assert.True(t, events[0].IsRefreshing)
	assert.Equal(t, EventRefreshStateChanged, events[1].Kind)
	assert.False(t, events[1].IsRefreshing)

	view, _ := tree.Node("c1/ks1")
	assert.False(t, view.IsRefreshing)
}

func TestRefreshEmitsChildrenReplaced(t *testing.T) {
	m, tree, _ := newFixture(t)
	addAndConnect(t, m, "c1")

	var events []Event
	defer tree.Subscribe(func(evt Event) { events = append(events, evt) })()

	require.True(t, tree.Refresh(context.Background(), "c1/ks1"))

	require.Len(t, events, 3)
	assert.Equal(t, EventRefreshStateChanged, events[0].Kind)
	assert.True(t, events[0].IsRefreshing)
	assert.Equal(t, EventChildrenReplaced, events[1].Kind)
	assert.Equal(t, "c1/ks1", events[1].Path)
	assert.Equal(t, EventRefreshStateChanged, events[2].Kind)
	assert.False(t, events[2].IsRefreshing)
}

func TestDisconnectClearsDescendantsTransitively(t *testing.T) {
	m, tree, _ := newFixture(t)
	addAndConnect(t, m, "c1")
	require.True(t, tree.Refresh(context.Background(), "c1/ks1"))
	require.True(t, tree.Refresh(context.Background(), "c1/ks1/users"))
	require.Len(t, tree.Children("c1/ks1/users"), 2)

	require.True(t, m.Disconnect(context.Background(), "c1"))

	assert.Empty(t, tree.Children("c1"))
	_, ok := tree.Node("c1/ks1")
	assert.False(t, ok)
	_, ok = tree.Node("c1/ks1/users")
	assert.False(t, ok)

	view, ok := tree.Node("c1")
	require.True(t, ok)
	assert.False(t, view.HasChildren)
}

func TestReconnectRepopulatesOnlyServerLevel(t *testing.T) {
	m, tree, fake := newFixture(t)
	addAndConnect(t, m, "c1")
	require.True(t, tree.Refresh(context.Background(), "c1/ks1"))
	require.True(t, m.Disconnect(context.Background(), "c1"))

	require.True(t, m.Connect(context.Background(), "c1"))

	// The server node refreshed its databases, but deeper levels wait for
	// explicit or expansion-triggered refreshes.
	assert.Equal(t, int32(2), fake.dbCalls.Load())
	assert.Len(t, tree.Children("c1"), 2)
	assert.Empty(t, tree.Children("c1/ks1"))
	assert.Equal(t, int32(1), fake.tableCalls.Load())
}

func TestRefreshWhileDisconnectedClearsChildren(t *testing.T) {
	m, tree, fake := newFixture(t)
	addAndConnect(t, m, "c1")
	require.True(t, tree.Refresh(context.Background(), "c1/ks1"))
	require.True(t, m.Disconnect(context.Background(), "c1"))

	calls := fake.tableCalls.Load()
	assert.False(t, tree.Refresh(context.Background(), "c1/ks1"))
	assert.Equal(t, calls, fake.tableCalls.Load())
	assert.Empty(t, tree.Children("c1/ks1"))
}

func TestDisconnectDuringServerRefreshDiscardsResult(t *testing.T) {
	m, tree, fake := newFixture(t)
	addAndConnect(t, m, "c1")

	fake.dbActive = make(chan struct{})
	fake.dbBlock = make(chan struct{})

	done := make(chan bool, 1)
	go func() {
		done <- tree.Refresh(context.Background(), "c1")
	}()
	<-fake.dbActive

	require.True(t, m.Disconnect(context.Background(), "c1"))
	close(fake.dbBlock)
	assert.True(t, <-done)

	// The fetch completed after the disconnect; its result must not revive
	// the cleared subtree.
	assert.Empty(t, tree.Children("c1"))
	view, ok := tree.Node("c1")
	require.True(t, ok)
	assert.False(t, view.IsRefreshing)
}

func TestSetExpandedTriggersRefreshOnce(t *testing.T) {
	m, tree, fake := newFixture(t)
	addAndConnect(t, m, "c1")
	require.True(t, tree.Refresh(context.Background(), "c1/ks1"))

	calls := fake.columnCalls.Load()
	require.True(t, tree.SetExpanded(context.Background(), "c1/ks1/users", true))
	assert.Equal(t, calls+1, fake.columnCalls.Load())
	assert.Len(t, tree.Children("c1/ks1/users"), 2)

	// Re-expanding an already expanded node does not fetch again.
	require.True(t, tree.SetExpanded(context.Background(), "c1/ks1/users", true))
	assert.Equal(t, calls+1, fake.columnCalls.Load())

	// Collapsing never fetches.
	require.True(t, tree.SetExpanded(context.Background(), "c1/ks1/users", false))
	assert.Equal(t, calls+1, fake.columnCalls.Load())

	assert.False(t, tree.SetExpanded(context.Background(), "c1/missing", true))
}

func TestSiblingRefreshesRunIndependently(t *testing.T) {
	m, tree, fake := newFixture(t)
	fake.tables["ks2"] = []model.Table{{Name: "logs", DatabaseName: "ks2"}}
	addAndConnect(t, m, "c1")

	var wg sync.WaitGroup
	results := make([]bool, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0] = tree.Refresh(context.Background(), "c1/ks1")
	}()
	go func() {
		defer wg.Done()
		results[1] = tree.Refresh(context.Background(), "c1/ks2")
	}()
	wg.Wait()

	assert.True(t, results[0])
	assert.True(t, results[1])
	assert.Len(t, tree.Children("c1/ks1"), 2)
	assert.Len(t, tree.Children("c1/ks2"), 1)
}
