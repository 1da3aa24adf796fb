// Package postgres provides the row-oriented relational adapter. Datasets
// are bulk-loaded into a PostgreSQL table with the COPY protocol, together
// with a hidden ordinal column so read-back preserves insertion order.
package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ballastio/ballast/pkg/adapter"
	"github.com/ballastio/ballast/pkg/dataset"
	"github.com/ballastio/ballast/pkg/errors"
)

// FormatName is the registered adapter name
const FormatName = "postgres"

// ordinalColumn preserves row order across the round trip. It is excluded
// from the schema presented on read-back.
const ordinalColumn = "_load_ord"

// Adapter writes and reads datasets as PostgreSQL tables. It is stateless:
// a connection pool is opened and closed per operation.
type Adapter struct {
	connString string
}

// New creates a PostgreSQL adapter. The "connection_string" option is required.
func New(options map[string]string) (*Adapter, error) {
	connString := options["connection_string"]
	if connString == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "connection_string is required")
	}
	return &Adapter{connString: connString}, nil
}

// Name returns the format name
func (a *Adapter) Name() string { return FormatName }

func (a *Adapter) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, a.connString)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create connection pool")
	}
	return pool, nil
}

// Write creates the destination table and bulk-loads the dataset via COPY.
// Any existing table with the same name is replaced.
func (a *Adapter) Write(ctx context.Context, ds *dataset.Dataset, dest adapter.DestinationSpec) (int64, error) {
	if err := ds.Validate(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "refusing to write invalid dataset")
	}
	if dest.Table == "" {
		return 0, errors.New(errors.ErrorTypeConfig, "table is required for postgres destinations")
	}

	pool, err := a.connect(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to connect")
	}
	defer pool.Close()

	schema := ds.Schema()
	table := pgx.Identifier{dest.Table}.Sanitize()

	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to drop existing table").
			WithDetail("table", dest.Table)
	}

	var ddl strings.Builder
	ddl.WriteString("CREATE TABLE ")
	ddl.WriteString(table)
	ddl.WriteString(" (")
	ddl.WriteString(pgx.Identifier{ordinalColumn}.Sanitize())
	ddl.WriteString(" bigint not null")
	for _, f := range schema.Fields {
		ddl.WriteString(", ")
		ddl.WriteString(pgx.Identifier{f.Name}.Sanitize())
		ddl.WriteString(" ")
		ddl.WriteString(columnDDL(f.Type))
	}
	ddl.WriteString(")")

	if _, err := pool.Exec(ctx, ddl.String()); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to create table").
			WithDetail("table", dest.Table)
	}

	columns := append([]string{ordinalColumn}, schema.Names()...)
	rows := make([][]interface{}, ds.NumRows())
	for i := 0; i < ds.NumRows(); i++ {
		row := make([]interface{}, 0, len(columns))
		row = append(row, int64(i))
		for c := 0; c < ds.NumCols(); c++ {
			col := ds.ColumnAt(c)
			row = append(row, toPostgresValue(col.Type, col.Values[i]))
		}
		rows[i] = row
	}

	copied, err := pool.CopyFrom(ctx, pgx.Identifier{dest.Table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "copy failed").
			WithDetail("table", dest.Table)
	}
	if copied != int64(ds.NumRows()) {
		return 0, errors.Newf(errors.ErrorTypeWrite, "copied %d of %d rows", copied, ds.NumRows()).
			WithDetail("table", dest.Table)
	}

	return a.relationSize(ctx, pool, dest.Table)
}

// Read loads the table back into a dataset, ordered by the ordinal column
func (a *Adapter) Read(ctx context.Context, dest adapter.DestinationSpec) (*dataset.Dataset, error) {
	pool, err := a.connect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to connect")
	}
	defer pool.Close()

	fields, err := a.discoverSchema(ctx, pool, dest.Table)
	if err != nil {
		return nil, err
	}

	ds, err := dataset.New(dest.Table, fields)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "invalid table schema")
	}

	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = pgx.Identifier{f.Name}.Sanitize()
	}
	query := "SELECT " + strings.Join(cols, ", ") +
		" FROM " + pgx.Identifier{dest.Table}.Sanitize() +
		" ORDER BY " + pgx.Identifier{ordinalColumn}.Sanitize()

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to query table").
			WithDetail("table", dest.Table)
	}
	defer rows.Close()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to read row values")
		}
		converted := make([]interface{}, len(values))
		for i, v := range values {
			converted[i] = fromPostgresValue(v)
		}
		if err := ds.AppendRow(converted...); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to append row")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "error iterating rows")
	}

	return ds, nil
}

// Size reports the total relation size of the destination table
func (a *Adapter) Size(ctx context.Context, dest adapter.DestinationSpec) (int64, error) {
	pool, err := a.connect(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeReadback, "failed to connect")
	}
	defer pool.Close()

	return a.relationSize(ctx, pool, dest.Table)
}

func (a *Adapter) relationSize(ctx context.Context, pool *pgxpool.Pool, table string) (int64, error) {
	var size int64
	err := pool.QueryRow(ctx,
		"SELECT pg_total_relation_size($1::regclass)",
		pgx.Identifier{table}.Sanitize()).Scan(&size)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeQuery, "failed to measure relation size").
			WithDetail("table", table)
	}
	return size, nil
}

// discoverSchema reads column metadata from information_schema, excluding
// the ordinal column.
func (a *Adapter) discoverSchema(ctx context.Context, pool *pgxpool.Pool, table string) ([]dataset.Field, error) {
	query := `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`

	rows, err := pool.Query(ctx, query, table)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to query table schema").
			WithDetail("table", table)
	}
	defer rows.Close()

	var fields []dataset.Field
	for rows.Next() {
		var name, dataType, isNullable string
		if err := rows.Scan(&name, &dataType, &isNullable); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to scan schema row")
		}
		if name == ordinalColumn {
			continue
		}
		fields = append(fields, dataset.Field{
			Name:     name,
			Type:     mapPostgresType(dataType),
			Nullable: isNullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "error iterating schema rows")
	}

	if len(fields) == 0 {
		return nil, errors.Newf(errors.ErrorTypeReadback, "table %q not found or has no columns", table)
	}

	return fields, nil
}

// columnDDL maps a dataset field type to a PostgreSQL column type
func columnDDL(t dataset.FieldType) string {
	switch t {
	case dataset.FieldTypeInt:
		return "bigint"
	case dataset.FieldTypeFloat:
		return "double precision"
	case dataset.FieldTypeBool:
		return "boolean"
	case dataset.FieldTypeTimestamp:
		return "timestamptz"
	case dataset.FieldTypeDate:
		return "date"
	default:
		return "text"
	}
}

// mapPostgresType maps a PostgreSQL data type to a dataset field type
func mapPostgresType(pgType string) dataset.FieldType {
	switch pgType {
	case "integer", "bigint", "smallint":
		return dataset.FieldTypeInt
	case "numeric", "decimal", "real", "double precision":
		return dataset.FieldTypeFloat
	case "boolean":
		return dataset.FieldTypeBool
	case "timestamp without time zone", "timestamp with time zone":
		return dataset.FieldTypeTimestamp
	case "date":
		return dataset.FieldTypeDate
	default:
		return dataset.FieldTypeString
	}
}

// toPostgresValue converts a dataset value for the COPY protocol
func toPostgresValue(t dataset.FieldType, v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch t {
	case dataset.FieldTypeTimestamp, dataset.FieldTypeDate:
		if ts, ok := dataset.AsTime(v); ok {
			return ts
		}
	case dataset.FieldTypeInt:
		if i, ok := dataset.AsInt64(v); ok {
			return i
		}
	case dataset.FieldTypeFloat:
		if f, ok := dataset.AsFloat64(v); ok {
			return f
		}
	}
	return v
}

// fromPostgresValue normalizes driver values to dataset conventions
func fromPostgresValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC()
	default:
		return v
	}
}
