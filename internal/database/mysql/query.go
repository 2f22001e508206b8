package mysql

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

var rowReturningPrefixes = []string{"SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH", "TABLE"}

// isRowReturning reports whether a statement produces a result set. DML and
// DDL go through Exec so the server's affected-row count survives.
func isRowReturning(query string) bool {
	trimmed := strings.TrimSpace(query)
	for {
		if strings.HasPrefix(trimmed, "(") {
			trimmed = strings.TrimSpace(trimmed[1:])
			continue
		}
		if strings.HasPrefix(trimmed, "/*") {
			if end := strings.Index(trimmed, "*/"); end >= 0 {
				trimmed = strings.TrimSpace(trimmed[end+2:])
				continue
			}
		}
		break
	}

	head := strings.ToUpper(trimmed)
	for _, prefix := range rowReturningPrefixes {
		if !strings.HasPrefix(head, prefix) {
			continue
		}
		rest := head[len(prefix):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '\r' || rest[0] == '(' || rest[0] == '*' {
			return true
		}
	}
	return false
}

// ExecuteQuery runs one SQL statement. Row-producing statements get their
// result schema from the driver's column types and every cell coerced into
// the uniform scalar domain; other statements run through Exec and report
// the server's affected-row count.
func (p *Provider) ExecuteQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	db, err := p.activeDB()
	if err != nil {
		return nil, err
	}

	start := time.Now()

	if !isRowReturning(query) {
		result, err := db.ExecContext(ctx, query)
		if err != nil {
			p.events.OperationFailed(dbcapabilities.MySQL, p.info, "execute", err)
			return nil, provider.WrapError(dbcapabilities.MySQL, "execute", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			rowsAffected = model.RowsAffectedUnknown
		}
		return &model.QueryResult{
			Columns:             []model.Column{},
			Rows:                []map[string]any{},
			ExecutionTimeMillis: time.Since(start).Milliseconds(),
			RowsAffected:        rowsAffected,
		}, nil
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		p.events.OperationFailed(dbcapabilities.MySQL, p.info, "query", err)
		return nil, provider.WrapError(dbcapabilities.MySQL, "query", err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, provider.WrapError(dbcapabilities.MySQL, "query", err)
	}

	columns := make([]model.Column, len(columnTypes))
	for i, ct := range columnTypes {
		nullable := true
		if n, ok := ct.Nullable(); ok {
			nullable = n
		}
		columns[i] = model.Column{
			Name:       ct.Name(),
			DataType:   strings.ToLower(ct.DatabaseTypeName()),
			IsNullable: nullable,
		}
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]interface{}, len(columnTypes))
		valuePtrs := make([]interface{}, len(columnTypes))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, provider.WrapError(dbcapabilities.MySQL, "query", err)
		}

		row := make(map[string]any, len(columnTypes))
		for i, ct := range columnTypes {
			row[ct.Name()] = coerceCell(ct.Name(), ct.DatabaseTypeName(), values[i])
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, provider.WrapError(dbcapabilities.MySQL, "query", err)
	}

	return &model.QueryResult{
		Columns:             columns,
		Rows:                out,
		ExecutionTimeMillis: time.Since(start).Milliseconds(),
		RowsAffected:        model.RowsAffectedUnknown,
	}, nil
}

// normalizeTypeName strips the driver's UNSIGNED prefix so both variants
// coerce through the same arm.
func normalizeTypeName(name string) string {
	return strings.TrimPrefix(strings.ToUpper(name), "UNSIGNED ")
}

// coerceCell maps one raw driver value into the uniform scalar domain by the
// result column's reported type. The text protocol hands most values back as
// byte slices, so every arm parses that form too. A value that does not fit
// its declared type becomes a diagnostic placeholder for that cell only.
func coerceCell(column string, dbTypeName string, raw any) any {
	if raw == nil {
		return nil
	}

	switch normalizeTypeName(dbTypeName) {
	case "CHAR", "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM", "SET":
		switch v := raw.(type) {
		case []byte:
			return string(v)
		case string:
			return v
		}

	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR":
		switch v := raw.(type) {
		case int64:
			return v
		case int32:
			return int64(v)
		case uint64:
			if v <= math.MaxInt64 {
				return int64(v)
			}
			return decimal.NewFromUint64(v)
		case []byte:
			if n, err := strconv.ParseInt(string(v), 10, 64); err == nil {
				return n
			}
			if d, err := decimal.NewFromString(string(v)); err == nil {
				return d
			}
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}

	case "FLOAT", "DOUBLE":
		switch v := raw.(type) {
		case float64:
			return v
		case float32:
			return float64(v)
		case []byte:
			if f, err := strconv.ParseFloat(string(v), 64); err == nil {
				return f
			}
		}

	case "DECIMAL", "NUMERIC":
		switch v := raw.(type) {
		case []byte:
			if d, err := decimal.NewFromString(string(v)); err == nil {
				return d
			}
		case string:
			if d, err := decimal.NewFromString(v); err == nil {
				return d
			}
		case float64:
			return decimal.NewFromFloat(v)
		}

	case "DATETIME", "TIMESTAMP", "DATE":
		switch v := raw.(type) {
		case time.Time:
			return v.UTC()
		case []byte:
			if ts, ok := parseTemporal(string(v)); ok {
				return ts
			}
		case string:
			if ts, ok := parseTemporal(v); ok {
				return ts
			}
		}

	case "TIME":
		switch v := raw.(type) {
		case []byte:
			return string(v)
		case string:
			return v
		}

	case "JSON":
		switch v := raw.(type) {
		case []byte:
			return string(v)
		case string:
			return v
		}

	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "BIT", "GEOMETRY":
		if v, ok := raw.([]byte); ok {
			return fmt.Sprintf("0x%x", v)
		}

	default:
		return renderValue(raw)
	}

	return model.Placeholder(column, raw)
}

var temporalLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTemporal(value string) (time.Time, bool) {
	for _, layout := range temporalLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// renderValue normalizes values of types outside the explicit coercion set.
func renderValue(raw any) any {
	switch v := raw.(type) {
	case string:
		return v
	case int64:
		return v
	case int32:
		return int64(v)
	case float64:
		return v
	case bool:
		return v
	case time.Time:
		return v.UTC()
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
