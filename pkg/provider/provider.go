// Package provider defines the capability contract every database backend
// implements and the factory registry the connection registry dispatches
// through. Concrete implementations live under internal/database and register
// themselves from init().
package provider

import (
	"context"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/logger"
	"github.com/ctacke/DataNav/pkg/model"
)

// Provider is one backend session bound to a single ConnectionInfo.
// Implementations are created disconnected; Connect performs the handshake.
type Provider interface {
	// Type returns the canonical database type identifier
	Type() dbcapabilities.DatabaseID

	// Info returns the immutable connection parameters this provider was
	// created with
	Info() model.ConnectionInfo

	// Connect attempts the handshake. It reports success as a boolean and
	// never propagates the failure: connect doubles as a non-destructive
	// "test connection" probe, so network, auth and TLS errors are logged
	// and absorbed, leaving IsConnected false.
	Connect(ctx context.Context) bool

	// Disconnect releases the underlying session. It is idempotent and safe
	// to call on an unconnected provider; IsConnected is false once it
	// returns even if cleanup partially failed.
	Disconnect(ctx context.Context)

	// IsConnected is true only while the underlying session handle is live
	// and not disposed.
	IsConnected() bool

	// Ping verifies the live session still answers.
	Ping(ctx context.Context) error

	// ListDatabases returns the server's databases with the system-object
	// filter applied unless the connection options opt in to system objects.
	// Fails with ErrNotConnected when disconnected.
	ListDatabases(ctx context.Context) ([]model.Database, error)

	// ListTables returns the tables of one database. Unknown or empty
	// databases yield an empty slice, not an error. Fails with
	// ErrNotConnected when disconnected.
	ListTables(ctx context.Context, databaseName string) ([]model.Table, error)

	// ListColumns returns the columns of one table. Primary-key membership
	// is the union of the backend's partition-key and clustering-key (or
	// equivalent) column sets; key participants are reported non-nullable.
	// Unknown tables yield an empty slice. Fails with ErrNotConnected when
	// disconnected.
	ListColumns(ctx context.Context, databaseName, tableName string) ([]model.Column, error)

	// ExecuteQuery runs one opaque query string. Post-connect backend
	// failures surface as an ExecutionError; they are never absorbed the
	// way connect failures are. Cell values are coerced into the uniform
	// scalar domain, with a per-cell diagnostic placeholder on coercion
	// failure.
	ExecuteQuery(ctx context.Context, query string) (*model.QueryResult, error)
}

// Factory builds a disconnected provider for one connection. Factories
// validate option values and return a ConfigurationError for malformed ones;
// they never dial.
type Factory func(info model.ConnectionInfo, log *logger.Logger) (Provider, error)
