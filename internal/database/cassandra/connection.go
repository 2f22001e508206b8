// Package cassandra implements the wide-column provider over gocql.
package cassandra

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocql/gocql"

	"github.com/ctacke/DataNav/internal/database"
	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/logger"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

const defaultTimeout = 10 * time.Second

func init() {
	provider.Register(string(dbcapabilities.Cassandra), New)
}

// Provider is a session against one Cassandra cluster.
type Provider struct {
	info    model.ConnectionInfo
	events  *database.DatabaseLogger
	timeout time.Duration

	mu        sync.Mutex
	session   *gocql.Session
	connected int32
}

// New builds a disconnected provider. The Timeout option (milliseconds)
// overrides the dial and query timeout; the keyspace option pins the session
// to one keyspace.
func New(info model.ConnectionInfo, log *logger.Logger) (provider.Provider, error) {
	timeout, err := provider.DialTimeout(info, dbcapabilities.Cassandra, defaultTimeout)
	if err != nil {
		return nil, err
	}
	if info.Port == 0 {
		info.Port = dbcapabilities.MustGet(dbcapabilities.Cassandra).DefaultPort
	}
	return &Provider{info: info, events: database.NewDatabaseLogger(log), timeout: timeout}, nil
}

func (p *Provider) Type() dbcapabilities.DatabaseID { return dbcapabilities.Cassandra }

func (p *Provider) Info() model.ConnectionInfo { return p.info }

// Connect dials the cluster and probes it. Failures are logged and reported
// as false so a failed connect doubles as a non-destructive reachability
// probe.
func (p *Provider) Connect(ctx context.Context) bool {
	p.events.ConnectionAttempt(dbcapabilities.Cassandra, p.info)

	cluster := gocql.NewCluster(p.info.Host)
	cluster.Port = p.info.Port
	if p.info.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: p.info.Username,
			Password: p.info.Password,
		}
	}
	if keyspace, ok := p.info.Option("keyspace"); ok && keyspace != "" {
		cluster.Keyspace = keyspace
	}
	if p.info.UseTLS {
		cluster.SslOpts = &gocql.SslOptions{EnableHostVerification: true}
	}
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = p.timeout
	cluster.ConnectTimeout = p.timeout

	session, err := cluster.CreateSession()
	if err != nil {
		p.events.ConnectionFailed(dbcapabilities.Cassandra, p.info, err)
		return false
	}

	if err := session.Query("SELECT release_version FROM system.local").WithContext(ctx).Scan(new(string)); err != nil {
		session.Close()
		p.events.ConnectionFailed(dbcapabilities.Cassandra, p.info, err)
		return false
	}

	p.mu.Lock()
	if p.session != nil {
		p.session.Close()
	}
	p.session = session
	p.mu.Unlock()
	atomic.StoreInt32(&p.connected, 1)
	p.events.ConnectionEstablished(dbcapabilities.Cassandra, p.info)
	return true
}

// Disconnect closes the session. Disconnecting an idle provider is a no-op.
func (p *Provider) Disconnect(ctx context.Context) {
	wasConnected := atomic.SwapInt32(&p.connected, 0) == 1
	p.mu.Lock()
	if p.session != nil {
		p.session.Close()
		p.session = nil
	}
	p.mu.Unlock()
	if wasConnected {
		p.events.Disconnected(dbcapabilities.Cassandra, p.info)
	}
}

func (p *Provider) IsConnected() bool {
	return atomic.LoadInt32(&p.connected) == 1
}

// Ping verifies the session is still serving queries.
func (p *Provider) Ping(ctx context.Context) error {
	session, err := p.activeSession()
	if err != nil {
		return err
	}
	if err := session.Query("SELECT now() FROM system.local").WithContext(ctx).Scan(new(gocql.UUID)); err != nil {
		return provider.NewExecutionError(dbcapabilities.Cassandra, "ping", err)
	}
	return nil
}

func (p *Provider) activeSession() (*gocql.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil || atomic.LoadInt32(&p.connected) == 0 {
		return nil, fmt.Errorf("cassandra session not established: %w", provider.ErrNotConnected)
	}
	return p.session, nil
}
