package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctacke/DataNav/internal/config"
	"github.com/ctacke/DataNav/internal/registry"
	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/health"
	"github.com/ctacke/DataNav/pkg/logger"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

type fakeProvider struct {
	info        model.ConnectionInfo
	connected   atomic.Bool
	connectOK   bool
	pingErr     error
	disconnects atomic.Int32
}

func (f *fakeProvider) Type() dbcapabilities.DatabaseID { return dbcapabilities.DatabaseID("fake") }

func (f *fakeProvider) Info() model.ConnectionInfo { return f.info }

func (f *fakeProvider) Connect(ctx context.Context) bool {
	if !f.connectOK {
		return false
	}
	f.connected.Store(true)
	return true
}

func (f *fakeProvider) Disconnect(ctx context.Context) {
	f.disconnects.Add(1)
	f.connected.Store(false)
}

func (f *fakeProvider) IsConnected() bool { return f.connected.Load() }

func (f *fakeProvider) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeProvider) ListDatabases(ctx context.Context) ([]model.Database, error) {
	return []model.Database{{Name: "db1"}}, nil
}

func (f *fakeProvider) ListTables(ctx context.Context, databaseName string) ([]model.Table, error) {
	return nil, nil
}

func (f *fakeProvider) ListColumns(ctx context.Context, databaseName, tableName string) ([]model.Column, error) {
	return nil, nil
}

func (f *fakeProvider) ExecuteQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	return &model.QueryResult{
		Columns:      []model.Column{},
		Rows:         []map[string]any{},
		RowsAffected: model.RowsAffectedUnknown,
	}, nil
}

func newTestEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	factories := provider.NewRegistry()
	err := factories.Register("fake", func(info model.ConnectionInfo, log *logger.Logger) (provider.Provider, error) {
		return &fakeProvider{info: info, connectOK: true}, nil
	})
	require.NoError(t, err)
	return NewWithManager(cfg, nil, registry.NewManagerWithRegistry(factories, nil))
}

// testConfig uses an interval long enough that the watcher never ticks, so
// sweeps run only when a test invokes them.
func testConfig(profiles ...config.Profile) *config.Config {
	cfg := config.Default()
	cfg.Service.HealthInterval = "1h"
	cfg.Connections = profiles
	return cfg
}

func fakeProfile(name string, connect bool) config.Profile {
	return config.Profile{Name: name, Provider: "fake", Host: "10.0.0.5", Port: 1, Connect: connect}
}

func checkNames(checks []*health.Check) []string {
	names := make([]string, 0, len(checks))
	for _, check := range checks {
		names = append(names, check.Name)
	}
	return names
}

func TestStartRegistersProfiles(t *testing.T) {
	e := newTestEngine(t, testConfig(fakeProfile("a", true), fakeProfile("b", false)))
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))
	defer e.Stop(ctx)

	assert.ElementsMatch(t, []string{"a", "b"}, e.Registry().List())

	connA, ok := e.Registry().Get("a")
	require.True(t, ok)
	assert.True(t, connA.IsConnected())
	connB, ok := e.Registry().Get("b")
	require.True(t, ok)
	assert.False(t, connB.IsConnected())

	// Both sessions appear as tree roots; connecting refreshed only "a".
	assert.Len(t, e.Tree().Servers(), 2)
	children := e.Tree().Children("a")
	require.Len(t, children, 1)
	assert.Equal(t, "db1", children[0].Name)
	assert.Empty(t, e.Tree().Children("b"))
}

func TestStartTwiceFails(t *testing.T) {
	e := newTestEngine(t, testConfig())
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))
	defer e.Stop(ctx)

	assert.Error(t, e.Start(ctx))
	assert.NoError(t, e.CheckHealth())
}

func TestStartFailsOnUnknownProviderProfile(t *testing.T) {
	cfg := testConfig(config.Profile{Name: "x", Provider: "nope", Host: "10.0.0.5"})
	e := newTestEngine(t, cfg)

	err := e.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrUnsupportedProvider)
	assert.Error(t, e.CheckHealth())
}

func TestStopDisconnectsSessions(t *testing.T) {
	e := newTestEngine(t, testConfig(fakeProfile("a", true)))
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))

	conn, ok := e.Registry().Get("a")
	require.True(t, ok)
	fake := conn.Provider().(*fakeProvider)
	require.True(t, fake.IsConnected())

	require.NoError(t, e.Stop(ctx))
	assert.False(t, fake.IsConnected())
	assert.EqualValues(t, 1, fake.disconnects.Load())
	assert.Error(t, e.CheckHealth())

	// Stopping again is a no-op.
	require.NoError(t, e.Stop(ctx))
	assert.EqualValues(t, 1, fake.disconnects.Load())
}

func TestHealthSweepTracksConnectedSessions(t *testing.T) {
	e := newTestEngine(t, testConfig(fakeProfile("a", true), fakeProfile("b", false)))
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))
	defer e.Stop(ctx)

	e.RunHealthChecks(ctx)
	names := checkNames(e.HealthChecks())
	assert.Contains(t, names, "registry")
	assert.Contains(t, names, "connection:a")
	assert.NotContains(t, names, "connection:b")
	assert.Equal(t, health.StatusHealthy, e.HealthStatus())

	// A failing ping degrades the aggregate and counts as an error.
	conn, ok := e.Registry().Get("a")
	require.True(t, ok)
	conn.Provider().(*fakeProvider).pingErr = errors.New("socket closed")
	e.RunHealthChecks(ctx)
	assert.Equal(t, health.StatusDegraded, e.HealthStatus())
	assert.GreaterOrEqual(t, e.GetMetrics()["errors"], int64(1))

	// Disconnecting drops the session's check on the next sweep.
	e.Registry().Disconnect(ctx, "a")
	e.RunHealthChecks(ctx)
	names = checkNames(e.HealthChecks())
	assert.NotContains(t, names, "connection:a")
	assert.Equal(t, health.StatusHealthy, e.HealthStatus())
}

func TestWatcherRunsSweeps(t *testing.T) {
	cfg := testConfig(fakeProfile("a", true))
	cfg.Service.HealthInterval = "20ms"
	e := newTestEngine(t, cfg)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))
	defer e.Stop(ctx)

	require.Eventually(t, func() bool {
		for _, check := range e.HealthChecks() {
			if check.Name == "connection:a" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestExecuteQueryMetrics(t *testing.T) {
	e := newTestEngine(t, testConfig(fakeProfile("a", true)))
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))
	defer e.Stop(ctx)

	result, err := e.ExecuteQuery(ctx, "a", "SELECT * FROM t")
	require.NoError(t, err)
	assert.NotNil(t, result)

	_, err = e.ExecuteQuery(ctx, "ghost", "SELECT 1")
	assert.Error(t, err)

	metrics := e.GetMetrics()
	assert.EqualValues(t, 2, metrics["queries_executed"])
	assert.GreaterOrEqual(t, metrics["errors"], int64(1))
	assert.EqualValues(t, 1, metrics["connections"])
}

func TestRefreshThroughEngine(t *testing.T) {
	e := newTestEngine(t, testConfig(fakeProfile("a", true)))
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))
	defer e.Stop(ctx)

	// Connecting at startup already ran one server refresh.
	before := e.GetMetrics()["refreshes_run"]
	assert.EqualValues(t, 1, before)

	assert.True(t, e.Refresh(ctx, "a"))
	assert.EqualValues(t, before+1, e.GetMetrics()["refreshes_run"])

	assert.False(t, e.Refresh(ctx, "a/ghost/t"))
}
