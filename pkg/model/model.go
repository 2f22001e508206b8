// Package model defines the value types shared by the connection registry,
// the schema explorer and the concrete database providers. Everything here is
// plain data: providers produce these values, the explorer and any rendering
// layer consume them.
package model

import "fmt"

// ConnectionInfo identifies a connection and carries its dial parameters.
// It is immutable once handed to a provider instance; the registry entry
// that created the connection owns it.
type ConnectionInfo struct {
	Name         string            `json:"name"`
	ProviderType string            `json:"providerType"`
	Host         string            `json:"host"`
	Port         int               `json:"port"`
	Username     string            `json:"username"`
	Password     string            `json:"password"`
	UseTLS       bool              `json:"useTls"`
	Options      map[string]string `json:"options,omitempty"`
}

// Option returns the named option value and whether it was set.
func (c ConnectionInfo) Option(key string) (string, bool) {
	if c.Options == nil {
		return "", false
	}
	v, ok := c.Options[key]
	return v, ok
}

// Clone returns a deep copy whose Options map is independent of the original.
func (c ConnectionInfo) Clone() ConnectionInfo {
	out := c
	if c.Options != nil {
		out.Options = make(map[string]string, len(c.Options))
		for k, v := range c.Options {
			out.Options[k] = v
		}
	}
	return out
}

// Database represents one database (or keyspace, schema, bucket) on a
// connected server. Transient: rebuilt on every refresh, never persisted.
type Database struct {
	Name       string            `json:"name"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Table represents one table within a database. Transient.
type Table struct {
	Name         string            `json:"name"`
	DatabaseName string            `json:"databaseName"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// Column represents one column within a table. DataType is the backend's
// native type name and is treated as an opaque string. Transient.
type Column struct {
	Name         string            `json:"name"`
	DataType     string            `json:"dataType"`
	IsPrimaryKey bool              `json:"isPrimaryKey"`
	IsNullable   bool              `json:"isNullable"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// QueryResult holds the outcome of one query execution. For row-producing
// statements Columns describes the result schema and Rows holds one map per
// row keyed by column name, values already coerced to the uniform scalar
// domain (string, int64, float64, decimal.Decimal, bool, UTC time.Time,
// uuid.UUID, or nil for NULL). For statements without a result set Columns
// and Rows stay empty and RowsAffected carries the backend's count, or
// RowsAffectedUnknown when the backend does not report one.
type QueryResult struct {
	Columns             []Column         `json:"columns"`
	Rows                []map[string]any `json:"rows"`
	ExecutionTimeMillis int64            `json:"executionTimeMillis"`
	RowsAffected        int64            `json:"rowsAffected"`
}

// RowsAffectedUnknown signals that the backend did not report an
// affected-row count for a non-row-returning statement.
const RowsAffectedUnknown int64 = -1

// Placeholder builds the diagnostic string substituted for a single cell
// whose value could not be coerced. The row it belongs to is still emitted.
func Placeholder(column string, raw any) string {
	return fmt.Sprintf("<unconvertible %s: %v>", column, raw)
}
