// Package mysql implements the relational provider over database/sql with
// the go-sql-driver driver. One pooled handle serves the whole server; the
// information_schema catalog is global, so cross-database listings need no
// extra connections.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ctacke/DataNav/internal/database"
	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/logger"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

const (
	defaultTimeout = 10 * time.Second

	maxOpenConns = 25
	maxIdleConns = 5
)

func init() {
	provider.Register(string(dbcapabilities.MySQL), New)
}

// Provider is a session against one MySQL server.
type Provider struct {
	info    model.ConnectionInfo
	events  *database.DatabaseLogger
	timeout time.Duration

	mu        sync.Mutex
	db        *sql.DB
	connected int32
}

// New builds a disconnected provider. The Timeout option (milliseconds)
// overrides the dial timeout; the database option selects a default schema
// for queries.
func New(info model.ConnectionInfo, log *logger.Logger) (provider.Provider, error) {
	timeout, err := provider.DialTimeout(info, dbcapabilities.MySQL, defaultTimeout)
	if err != nil {
		return nil, err
	}
	if info.Port == 0 {
		info.Port = dbcapabilities.MustGet(dbcapabilities.MySQL).DefaultPort
	}
	return &Provider{info: info, events: database.NewDatabaseLogger(log), timeout: timeout}, nil
}

func (p *Provider) Type() dbcapabilities.DatabaseID { return dbcapabilities.MySQL }

func (p *Provider) Info() model.ConnectionInfo { return p.info }

// dsn builds the driver connection string. parseTime makes the driver hand
// temporal columns back as time.Time.
func (p *Provider) dsn() string {
	sslMode := "false"
	if p.info.UseTLS {
		sslMode = "true"
	}

	schema := ""
	if db, ok := p.info.Option("database"); ok {
		schema = db
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?tls=%s&parseTime=true&timeout=%s",
		p.info.Username, p.info.Password, p.info.Host, p.info.Port, schema, sslMode, p.timeout)
}

// Connect opens the pooled handle and probes it. Failures are logged and
// reported as false.
func (p *Provider) Connect(ctx context.Context) bool {
	p.events.ConnectionAttempt(dbcapabilities.MySQL, p.info)

	db, err := sql.Open("mysql", p.dsn())
	if err != nil {
		p.events.ConnectionFailed(dbcapabilities.MySQL, p.info, err)
		return false
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		p.events.ConnectionFailed(dbcapabilities.MySQL, p.info, err)
		return false
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	p.mu.Lock()
	if p.db != nil {
		p.db.Close()
	}
	p.db = db
	p.mu.Unlock()
	atomic.StoreInt32(&p.connected, 1)
	p.events.ConnectionEstablished(dbcapabilities.MySQL, p.info)
	return true
}

// Disconnect closes the pooled handle.
func (p *Provider) Disconnect(ctx context.Context) {
	wasConnected := atomic.SwapInt32(&p.connected, 0) == 1
	p.mu.Lock()
	if p.db != nil {
		p.db.Close()
		p.db = nil
	}
	p.mu.Unlock()
	if wasConnected {
		p.events.Disconnected(dbcapabilities.MySQL, p.info)
	}
}

func (p *Provider) IsConnected() bool {
	return atomic.LoadInt32(&p.connected) == 1
}

// Ping verifies the handle is still serving.
func (p *Provider) Ping(ctx context.Context) error {
	db, err := p.activeDB()
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return provider.NewExecutionError(dbcapabilities.MySQL, "ping", err)
	}
	return nil
}

func (p *Provider) activeDB() (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil || atomic.LoadInt32(&p.connected) == 0 {
		return nil, fmt.Errorf("mysql connection not established: %w", provider.ErrNotConnected)
	}
	return p.db, nil
}
