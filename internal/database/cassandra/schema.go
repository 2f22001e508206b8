package cassandra

import (
	"context"
	"strconv"
	"strings"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

// ListDatabases returns the cluster's keyspaces. System keyspaces are
// filtered out unless the IncludeSystemObjects option is set. Replication
// settings are carried as properties.
func (p *Provider) ListDatabases(ctx context.Context) ([]model.Database, error) {
	session, err := p.activeSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query("SELECT keyspace_name, durable_writes, replication FROM system_schema.keyspaces").WithContext(ctx).Iter()

	includeSystem := provider.IncludeSystemObjects(p.info)
	databases := make([]model.Database, 0)

	var name string
	var durableWrites bool
	var replication map[string]string

	for iter.Scan(&name, &durableWrites, &replication) {
		if !includeSystem && dbcapabilities.IsSystemDatabase(dbcapabilities.Cassandra, name) {
			continue
		}

		strategy := replication["class"]
		strategy = strategy[strings.LastIndex(strategy, ".")+1:]

		properties := map[string]string{
			"replicationStrategy": strategy,
			"durableWrites":       strconv.FormatBool(durableWrites),
		}
		for key, value := range replication {
			if key != "class" {
				properties["replication."+key] = value
			}
		}

		databases = append(databases, model.Database{Name: name, Properties: properties})
	}

	if err := iter.Close(); err != nil {
		return nil, provider.WrapError(dbcapabilities.Cassandra, "list_databases", err)
	}
	return databases, nil
}

// ListTables returns the tables of one keyspace.
func (p *Provider) ListTables(ctx context.Context, database string) ([]model.Table, error) {
	session, err := p.activeSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(
		"SELECT table_name FROM system_schema.tables WHERE keyspace_name = ?", database,
	).WithContext(ctx).Iter()

	tables := make([]model.Table, 0)
	var name string
	for iter.Scan(&name) {
		tables = append(tables, model.Table{Name: name, DatabaseName: database})
	}

	if err := iter.Close(); err != nil {
		return nil, provider.WrapError(dbcapabilities.Cassandra, "list_tables", err)
	}
	return tables, nil
}

// ListColumns returns the columns of one table. Partition key and clustering
// columns are the primary key and can never hold null; everything else is
// nullable.
func (p *Provider) ListColumns(ctx context.Context, database, table string) ([]model.Column, error) {
	session, err := p.activeSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(
		"SELECT column_name, type, kind, position, clustering_order FROM system_schema.columns WHERE keyspace_name = ? AND table_name = ?",
		database, table,
	).WithContext(ctx).Iter()

	columns := make([]model.Column, 0)
	var name, dataType, kind, clusteringOrder string
	var position int

	for iter.Scan(&name, &dataType, &kind, &position, &clusteringOrder) {
		column := model.Column{
			Name:       name,
			DataType:   dataType,
			IsNullable: true,
			Properties: map[string]string{"kind": kind},
		}

		if kind == "partition_key" || kind == "clustering" {
			column.IsPrimaryKey = true
			column.IsNullable = false
			column.Properties["position"] = strconv.Itoa(position)
		}
		if kind == "clustering" && clusteringOrder != "" && clusteringOrder != "none" {
			column.Properties["clusteringOrder"] = clusteringOrder
		}

		columns = append(columns, column)
	}

	if err := iter.Close(); err != nil {
		return nil, provider.WrapError(dbcapabilities.Cassandra, "list_columns", err)
	}
	return columns, nil
}
