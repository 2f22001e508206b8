package postgres

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

// ListDatabases returns the server's databases. Template databases never
// appear; the built-in postgres maintenance database is filtered out unless
// the IncludeSystemObjects option is set.
func (p *Provider) ListDatabases(ctx context.Context) ([]model.Database, error) {
	pool, err := p.activePool()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT datname, pg_encoding_to_char(encoding), datcollate
		FROM pg_database
		WHERE datistemplate = false
		ORDER BY datname
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, provider.WrapError(dbcapabilities.PostgreSQL, "list_databases", err)
	}
	defer rows.Close()

	includeSystem := provider.IncludeSystemObjects(p.info)
	databases := make([]model.Database, 0)

	for rows.Next() {
		var name, encoding, collation string
		if err := rows.Scan(&name, &encoding, &collation); err != nil {
			return nil, provider.WrapError(dbcapabilities.PostgreSQL, "list_databases", err)
		}
		if !includeSystem && dbcapabilities.IsSystemDatabase(dbcapabilities.PostgreSQL, name) {
			continue
		}
		databases = append(databases, model.Database{
			Name: name,
			Properties: map[string]string{
				"encoding":  encoding,
				"collation": collation,
			},
		})
	}

	if err := rows.Err(); err != nil {
		return nil, provider.WrapError(dbcapabilities.PostgreSQL, "list_databases", err)
	}
	return databases, nil
}

// ListTables returns the public-schema tables and views of one database.
func (p *Provider) ListTables(ctx context.Context, database string) ([]model.Table, error) {
	pool, err := p.poolFor(ctx, database)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, provider.WrapError(dbcapabilities.PostgreSQL, "list_tables", err)
	}
	defer rows.Close()

	tables := make([]model.Table, 0)
	for rows.Next() {
		var name, tableType string
		if err := rows.Scan(&name, &tableType); err != nil {
			return nil, provider.WrapError(dbcapabilities.PostgreSQL, "list_tables", err)
		}
		tables = append(tables, model.Table{
			Name:         name,
			DatabaseName: database,
			Properties:   map[string]string{"tableType": tableType},
		})
	}

	if err := rows.Err(); err != nil {
		return nil, provider.WrapError(dbcapabilities.PostgreSQL, "list_tables", err)
	}
	return tables, nil
}

// ListColumns returns the columns of one table. Primary key membership comes
// from the table's PRIMARY KEY constraint; key columns are reported
// non-nullable whatever the catalog says.
func (p *Provider) ListColumns(ctx context.Context, database, table string) ([]model.Column, error) {
	pool, err := p.poolFor(ctx, database)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES',
			pk.column_name IS NOT NULL,
			c.ordinal_position,
			c.column_default
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT kcu.column_name
			FROM information_schema.key_column_usage kcu
			JOIN information_schema.table_constraints tc
				ON kcu.constraint_name = tc.constraint_name
				AND kcu.table_schema = tc.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
				AND kcu.table_schema = 'public'
				AND kcu.table_name = $1
		) pk ON c.column_name = pk.column_name
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position
	`

	rows, err := pool.Query(ctx, query, table)
	if err != nil {
		return nil, provider.WrapError(dbcapabilities.PostgreSQL, "list_columns", err)
	}
	defer rows.Close()

	columns := make([]model.Column, 0)
	for rows.Next() {
		var name, dataType string
		var nullable, isPrimaryKey bool
		var ordinalPosition int
		var columnDefault sql.NullString

		if err := rows.Scan(&name, &dataType, &nullable, &isPrimaryKey, &ordinalPosition, &columnDefault); err != nil {
			return nil, provider.WrapError(dbcapabilities.PostgreSQL, "list_columns", err)
		}

		column := model.Column{
			Name:         name,
			DataType:     dataType,
			IsPrimaryKey: isPrimaryKey,
			IsNullable:   nullable && !isPrimaryKey,
			Properties:   map[string]string{"ordinalPosition": strconv.Itoa(ordinalPosition)},
		}
		if columnDefault.Valid {
			column.Properties["default"] = columnDefault.String
		}

		columns = append(columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, provider.WrapError(dbcapabilities.PostgreSQL, "list_columns", err)
	}
	return columns, nil
}
