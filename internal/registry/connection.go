package registry

import (
	"context"

	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

// Connection binds a registered connection's settings to the provider session
// that serves it. Handles stay valid until RemoveConnection; a disconnected
// handle is still registered and can be reconnected.
type Connection struct {
	info     model.ConnectionInfo
	provider provider.Provider
}

// Name returns the unique registry name.
func (c *Connection) Name() string {
	return c.info.Name
}

// Info returns a copy of the connection settings.
func (c *Connection) Info() model.ConnectionInfo {
	return c.info.Clone()
}

// Provider returns the backing provider session.
func (c *Connection) Provider() provider.Provider {
	return c.provider
}

// IsConnected reports whether the provider currently holds a live session.
func (c *Connection) IsConnected() bool {
	return c.provider.IsConnected()
}

// ExecuteQuery runs a statement through the backing provider.
func (c *Connection) ExecuteQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	return c.provider.ExecuteQuery(ctx, query)
}
