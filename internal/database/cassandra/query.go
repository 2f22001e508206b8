package cassandra

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/inf.v0"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

// ExecuteQuery runs one CQL statement. Row-producing statements get their
// result schema from the iterator's column metadata and every cell coerced
// into the uniform scalar domain; statements without a result set come back
// with empty columns and rows. CQL reports no affected-row counts, so
// RowsAffected is always RowsAffectedUnknown.
func (p *Provider) ExecuteQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	session, err := p.activeSession()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	iter := session.Query(query).WithContext(ctx).Iter()

	cols := iter.Columns()
	columns := make([]model.Column, len(cols))
	for i, col := range cols {
		columns[i] = model.Column{
			Name:       col.Name,
			DataType:   col.TypeInfo.Type().String(),
			IsNullable: true,
		}
	}

	rows := make([]map[string]any, 0)
	values := make([]interface{}, len(cols))
	valuePtrs := make([]interface{}, len(cols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for iter.Scan(valuePtrs...) {
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col.Name] = coerceCell(col.Name, col.TypeInfo.Type(), values[i])
		}
		rows = append(rows, row)
	}

	if err := iter.Close(); err != nil {
		p.events.OperationFailed(dbcapabilities.Cassandra, p.info, "query", err)
		return nil, provider.WrapError(dbcapabilities.Cassandra, "query", err)
	}

	return &model.QueryResult{
		Columns:             columns,
		Rows:                rows,
		ExecutionTimeMillis: time.Since(start).Milliseconds(),
		RowsAffected:        model.RowsAffectedUnknown,
	}, nil
}

// coerceCell maps one raw driver value into the uniform scalar domain by the
// column's declared CQL type. A value that does not fit its declared type
// becomes a diagnostic placeholder for that cell only; the row survives.
func coerceCell(column string, typ gocql.Type, raw interface{}) interface{} {
	if raw == nil {
		return nil
	}

	switch typ {
	case gocql.TypeVarchar, gocql.TypeText, gocql.TypeAscii:
		switch v := raw.(type) {
		case string:
			return v
		case []byte:
			return string(v)
		}

	case gocql.TypeBigInt, gocql.TypeCounter:
		switch v := raw.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		}

	case gocql.TypeInt:
		switch v := raw.(type) {
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case int64:
			return v
		}

	case gocql.TypeSmallInt:
		switch v := raw.(type) {
		case int16:
			return int64(v)
		case int:
			return int64(v)
		}

	case gocql.TypeTinyInt:
		switch v := raw.(type) {
		case int8:
			return int64(v)
		case int:
			return int64(v)
		}

	case gocql.TypeFloat:
		if v, ok := raw.(float32); ok {
			return float64(v)
		}

	case gocql.TypeDouble:
		if v, ok := raw.(float64); ok {
			return v
		}

	case gocql.TypeDecimal:
		switch v := raw.(type) {
		case *inf.Dec:
			if v == nil {
				return nil
			}
			return decimal.NewFromBigInt(v.UnscaledBig(), -int32(v.Scale()))
		case string:
			if d, err := decimal.NewFromString(v); err == nil {
				return d
			}
		}

	case gocql.TypeVarint:
		switch v := raw.(type) {
		case *big.Int:
			if v == nil {
				return nil
			}
			return decimal.NewFromBigInt(v, 0)
		case int64:
			return decimal.NewFromInt(v)
		case int:
			return decimal.NewFromInt(int64(v))
		}

	case gocql.TypeBoolean:
		if v, ok := raw.(bool); ok {
			return v
		}

	case gocql.TypeTimestamp, gocql.TypeDate:
		if v, ok := raw.(time.Time); ok {
			return v.UTC()
		}

	case gocql.TypeUUID, gocql.TypeTimeUUID:
		switch v := raw.(type) {
		case gocql.UUID:
			return uuid.UUID(v)
		case [16]byte:
			return uuid.UUID(v)
		case string:
			if id, err := uuid.Parse(v); err == nil {
				return id
			}
		}

	case gocql.TypeInet:
		switch v := raw.(type) {
		case net.IP:
			return v.String()
		case string:
			return v
		}

	case gocql.TypeBlob:
		if v, ok := raw.([]byte); ok {
			return fmt.Sprintf("0x%x", v)
		}

	case gocql.TypeList, gocql.TypeSet, gocql.TypeMap, gocql.TypeTuple, gocql.TypeUDT:
		return fmt.Sprintf("%v", raw)

	default:
		return fmt.Sprintf("%v", raw)
	}

	return model.Placeholder(column, raw)
}
