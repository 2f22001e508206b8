package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/model"
	"github.com/ctacke/DataNav/pkg/provider"
)

var typeMap = pgtype.NewMap()

func typeNameForOID(oid uint32) string {
	if t, ok := typeMap.TypeForOID(oid); ok {
		return t.Name
	}
	return "oid:" + strconv.FormatUint(uint64(oid), 10)
}

// ExecuteQuery runs one SQL statement through the control pool. Row-producing
// statements get their result schema from the field descriptions and every
// cell coerced into the uniform scalar domain. Statements without a result
// set report the server's affected-row count from the command tag.
func (p *Provider) ExecuteQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	pool, err := p.activePool()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := pool.Query(ctx, query)
	if err != nil {
		p.events.OperationFailed(dbcapabilities.PostgreSQL, p.info, "query", err)
		return nil, provider.WrapError(dbcapabilities.PostgreSQL, "query", err)
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	columns := make([]model.Column, len(descs))
	for i, desc := range descs {
		columns[i] = model.Column{
			Name:       string(desc.Name),
			DataType:   typeNameForOID(desc.DataTypeOID),
			IsNullable: true,
		}
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]interface{}, len(descs))
		valuePtrs := make([]interface{}, len(descs))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, provider.WrapError(dbcapabilities.PostgreSQL, "query", err)
		}

		row := make(map[string]any, len(descs))
		for i, desc := range descs {
			row[string(desc.Name)] = coerceCell(string(desc.Name), desc.DataTypeOID, values[i])
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, provider.WrapError(dbcapabilities.PostgreSQL, "query", err)
	}

	rows.Close()
	rowsAffected := model.RowsAffectedUnknown
	if len(descs) == 0 {
		rowsAffected = rows.CommandTag().RowsAffected()
	}

	return &model.QueryResult{
		Columns:             columns,
		Rows:                out,
		ExecutionTimeMillis: time.Since(start).Milliseconds(),
		RowsAffected:        rowsAffected,
	}, nil
}

// coerceCell maps one raw driver value into the uniform scalar domain by the
// result column's type OID. A value that does not fit its declared type
// becomes a diagnostic placeholder for that cell only; the row survives.
func coerceCell(column string, oid uint32, raw any) any {
	if raw == nil {
		return nil
	}

	switch oid {
	case pgtype.TextOID, pgtype.VarcharOID, pgtype.BPCharOID, pgtype.NameOID:
		switch v := raw.(type) {
		case string:
			return v
		case []byte:
			return string(v)
		}

	case pgtype.Int2OID:
		switch v := raw.(type) {
		case int16:
			return int64(v)
		case int64:
			return v
		}

	case pgtype.Int4OID:
		switch v := raw.(type) {
		case int32:
			return int64(v)
		case int64:
			return v
		}

	case pgtype.Int8OID:
		switch v := raw.(type) {
		case int64:
			return v
		case int32:
			return int64(v)
		}

	case pgtype.Float4OID:
		switch v := raw.(type) {
		case float32:
			return float64(v)
		case float64:
			return v
		}

	case pgtype.Float8OID:
		if v, ok := raw.(float64); ok {
			return v
		}

	case pgtype.NumericOID:
		switch v := raw.(type) {
		case pgtype.Numeric:
			if !v.Valid {
				return nil
			}
			if v.NaN {
				return "NaN"
			}
			if v.InfinityModifier != pgtype.Finite {
				return v.InfinityModifier.String()
			}
			return decimal.NewFromBigInt(v.Int, v.Exp)
		case string:
			if d, err := decimal.NewFromString(v); err == nil {
				return d
			}
		case float64:
			return decimal.NewFromFloat(v)
		}

	case pgtype.BoolOID:
		if v, ok := raw.(bool); ok {
			return v
		}

	case pgtype.TimestampOID, pgtype.TimestamptzOID, pgtype.DateOID:
		if v, ok := raw.(time.Time); ok {
			return v.UTC()
		}

	case pgtype.UUIDOID:
		switch v := raw.(type) {
		case [16]byte:
			return uuid.UUID(v)
		case string:
			if id, err := uuid.Parse(v); err == nil {
				return id
			}
		}

	case pgtype.ByteaOID:
		if v, ok := raw.([]byte); ok {
			return fmt.Sprintf("0x%x", v)
		}

	case pgtype.JSONOID, pgtype.JSONBOID:
		switch v := raw.(type) {
		case string:
			return v
		case []byte:
			return string(v)
		default:
			return fmt.Sprintf("%v", v)
		}

	default:
		// Arrays, network, interval and other exotic types render through
		// their natural Go representation.
		return renderValue(raw)
	}

	return model.Placeholder(column, raw)
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
	case int16:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return v
	case float32:
		return float64(v)
	case bool:
		return v
	case time.Time:
		return v.UTC()
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
