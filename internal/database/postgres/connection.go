// Package postgres implements the relational provider over pgx connection
// pools. A pool is bound to one database, so cross-database listings open
// cached per-database pools alongside the control pool.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ctacke/DataNav/internal/database"
	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/logger"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultDatabase = "postgres"
)

func init() {
	provider.Register(string(dbcapabilities.PostgreSQL), New)
}

// Provider is a session against one PostgreSQL server. The control pool
// serves queries and pings; listing pools are opened per database on demand
// and closed together on Disconnect.
type Provider struct {
	info     model.ConnectionInfo
	events   *database.DatabaseLogger
	timeout  time.Duration
	database string

	mu        sync.Mutex
	pool      *pgxpool.Pool
	dbPools   map[string]*pgxpool.Pool
	connected int32
}

// New builds a disconnected provider. The Timeout option (milliseconds)
// overrides the dial timeout; the database option picks the database the
// control pool binds to (default postgres).
func New(info model.ConnectionInfo, log *logger.Logger) (provider.Provider, error) {
	timeout, err := provider.DialTimeout(info, dbcapabilities.PostgreSQL, defaultTimeout)
	if err != nil {
		return nil, err
	}
	if info.Port == 0 {
		info.Port = dbcapabilities.MustGet(dbcapabilities.PostgreSQL).DefaultPort
	}
	controlDatabase := defaultDatabase
	if db, ok := info.Option("database"); ok && db != "" {
		controlDatabase = db
	}
	return &Provider{info: info, events: database.NewDatabaseLogger(log), timeout: timeout, database: controlDatabase}, nil
}

func (p *Provider) Type() dbcapabilities.DatabaseID { return dbcapabilities.PostgreSQL }

func (p *Provider) Info() model.ConnectionInfo { return p.info }

// connString builds a pool URL for the given database.
func (p *Provider) connString(database string) string {
	var connString strings.Builder

	fmt.Fprintf(&connString, "postgres://%s:%s@%s:%d/%s",
		p.info.Username,
		p.info.Password,
		p.info.Host,
		p.info.Port,
		database)

	if p.info.UseTLS {
		connString.WriteString("?sslmode=require")
	} else {
		connString.WriteString("?sslmode=disable")
	}

	return connString.String()
}

func (p *Provider) openPool(ctx context.Context, database string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(p.connString(database))
	if err != nil {
		return nil, err
	}
	config.ConnConfig.ConnectTimeout = p.timeout

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Connect opens the control pool and probes it. Failures are logged and
// reported as false.
func (p *Provider) Connect(ctx context.Context) bool {
	p.events.ConnectionAttempt(dbcapabilities.PostgreSQL, p.info)

	pool, err := p.openPool(ctx, p.database)
	if err != nil {
		p.events.ConnectionFailed(dbcapabilities.PostgreSQL, p.info, err)
		return false
	}

	p.mu.Lock()
	if p.pool != nil {
		p.pool.Close()
	}
	p.pool = pool
	p.dbPools = make(map[string]*pgxpool.Pool)
	p.mu.Unlock()
	atomic.StoreInt32(&p.connected, 1)
	p.events.ConnectionEstablished(dbcapabilities.PostgreSQL, p.info)
	return true
}

// Disconnect closes the control pool and every per-database listing pool.
func (p *Provider) Disconnect(ctx context.Context) {
	wasConnected := atomic.SwapInt32(&p.connected, 0) == 1
	p.mu.Lock()
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	for _, pool := range p.dbPools {
		pool.Close()
	}
	p.dbPools = nil
	p.mu.Unlock()
	if wasConnected {
		p.events.Disconnected(dbcapabilities.PostgreSQL, p.info)
	}
}

func (p *Provider) IsConnected() bool {
	return atomic.LoadInt32(&p.connected) == 1
}

// Ping verifies the control pool is still serving.
func (p *Provider) Ping(ctx context.Context) error {
	pool, err := p.activePool()
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		return provider.NewExecutionError(dbcapabilities.PostgreSQL, "ping", err)
	}
	return nil
}

func (p *Provider) activePool() (*pgxpool.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool == nil || atomic.LoadInt32(&p.connected) == 0 {
		return nil, fmt.Errorf("postgres pool not established: %w", provider.ErrNotConnected)
	}
	return p.pool, nil
}

// poolFor returns a pool bound to the named database, opening and caching
// one when the control pool is bound elsewhere.
func (p *Provider) poolFor(ctx context.Context, database string) (*pgxpool.Pool, error) {
	if database == "" || database == p.database {
		return p.activePool()
	}

	p.mu.Lock()
	if p.pool == nil || atomic.LoadInt32(&p.connected) == 0 {
		p.mu.Unlock()
		return nil, fmt.Errorf("postgres pool not established: %w", provider.ErrNotConnected)
	}
	if pool, ok := p.dbPools[database]; ok {
		p.mu.Unlock()
		return pool, nil
	}
	p.mu.Unlock()

	pool, err := p.openPool(ctx, database)
	if err != nil {
		return nil, provider.WrapError(dbcapabilities.PostgreSQL, "open_database_pool", err)
	}

	p.mu.Lock()
	if atomic.LoadInt32(&p.connected) == 0 {
		p.mu.Unlock()
		pool.Close()
		return nil, fmt.Errorf("postgres pool not established: %w", provider.ErrNotConnected)
	}
	if cached, ok := p.dbPools[database]; ok {
		p.mu.Unlock()
		pool.Close()
		return cached, nil
	}
	p.dbPools[database] = pool
	p.mu.Unlock()
	return pool, nil
}
