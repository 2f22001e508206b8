package mysql

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

// ListDatabases returns the server's schemata. The built-in mysql,
// information_schema, performance_schema and sys schemas are filtered out
// unless the IncludeSystemObjects option is set.
func (p *Provider) ListDatabases(ctx context.Context) ([]model.Database, error) {
	db, err := p.activeDB()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT SCHEMA_NAME, DEFAULT_CHARACTER_SET_NAME, DEFAULT_COLLATION_NAME
		FROM information_schema.SCHEMATA
		ORDER BY SCHEMA_NAME
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, provider.WrapError(dbcapabilities.MySQL, "list_databases", err)
	}
	defer rows.Close()

	includeSystem := provider.IncludeSystemObjects(p.info)
	databases := make([]model.Database, 0)

	for rows.Next() {
		var name, charset, collation string
		if err := rows.Scan(&name, &charset, &collation); err != nil {
			return nil, provider.WrapError(dbcapabilities.MySQL, "list_databases", err)
		}
		if !includeSystem && dbcapabilities.IsSystemDatabase(dbcapabilities.MySQL, name) {
			continue
		}
		databases = append(databases, model.Database{
			Name: name,
			Properties: map[string]string{
				"characterSet": charset,
				"collation":    collation,
			},
		})
	}

	if err := rows.Err(); err != nil {
		return nil, provider.WrapError(dbcapabilities.MySQL, "list_databases", err)
	}
	return databases, nil
}

// ListTables returns the tables and views of one schema.
func (p *Provider) ListTables(ctx context.Context, database string) ([]model.Table, error) {
	db, err := p.activeDB()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT TABLE_NAME, TABLE_TYPE, ENGINE
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME
	`

	rows, err := db.QueryContext(ctx, query, database)
	if err != nil {
		return nil, provider.WrapError(dbcapabilities.MySQL, "list_tables", err)
	}
	defer rows.Close()

	tables := make([]model.Table, 0)
	for rows.Next() {
		var name, tableType string
		var engine sql.NullString
		if err := rows.Scan(&name, &tableType, &engine); err != nil {
			return nil, provider.WrapError(dbcapabilities.MySQL, "list_tables", err)
		}

		table := model.Table{
			Name:         name,
			DatabaseName: database,
			Properties:   map[string]string{"tableType": tableType},
		}
		if engine.Valid {
			table.Properties["engine"] = engine.String
		}
		tables = append(tables, table)
	}

	if err := rows.Err(); err != nil {
		return nil, provider.WrapError(dbcapabilities.MySQL, "list_tables", err)
	}
	return tables, nil
}

// ListColumns returns the columns of one table. COLUMN_KEY 'PRI' marks the
// primary key; key columns are reported non-nullable.
func (p *Provider) ListColumns(ctx context.Context, database, table string) ([]model.Column, error) {
	db, err := p.activeDB()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_KEY, ORDINAL_POSITION, COLUMN_DEFAULT, EXTRA
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	rows, err := db.QueryContext(ctx, query, database, table)
	if err != nil {
		return nil, provider.WrapError(dbcapabilities.MySQL, "list_columns", err)
	}
	defer rows.Close()

	columns := make([]model.Column, 0)
	for rows.Next() {
		var name, dataType, isNullable, columnKey, extra string
		var ordinalPosition int
		var columnDefault sql.NullString

		if err := rows.Scan(&name, &dataType, &isNullable, &columnKey, &ordinalPosition, &columnDefault, &extra); err != nil {
			return nil, provider.WrapError(dbcapabilities.MySQL, "list_columns", err)
		}

		isPrimaryKey := columnKey == "PRI"
		column := model.Column{
			Name:         name,
			DataType:     dataType,
			IsPrimaryKey: isPrimaryKey,
			IsNullable:   isNullable == "YES" && !isPrimaryKey,
			Properties:   map[string]string{"ordinalPosition": strconv.Itoa(ordinalPosition)},
		}
		if columnDefault.Valid {
			column.Properties["default"] = columnDefault.String
		}
		if extra != "" {
			column.Properties["extra"] = extra
		}

		columns = append(columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, provider.WrapError(dbcapabilities.MySQL, "list_columns", err)
	}
	return columns, nil
}
