// Package sqlite is the concrete internal/driver.Driver backed by
// modernc.org/sqlite, grounded on original_source's
// qry/src/stdlib/data/sqlite.rs: PRAGMA table_info for relation metadata,
// an affinity map from SQLite's declared column types to qry types, and a
// row-by-row Collect that builds a row-major internal/driver.DataFrame.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/nyrkio/qry/internal/driver"
	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/pipeline"
	"github.com/nyrkio/qry/internal/typesystem"
)

// Driver is a driver.Driver over a single SQLite database handle.
type Driver struct {
	db *sql.DB
}

// Open opens the SQLite database at path (use ":memory:" for a scratch
// in-process database, matching connect_sqlite's typical test usage).
func Open(path string) (*Driver, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Driver{db: db}, nil
}

func (d *Driver) Close() error { return d.db.Close() }

// affinityOf maps a SQLite declared column type to a qry type, following
// SQLite's own type-affinity rules (and original_source's AFFINITY_MAP):
// any declared type containing "INT" gets integer affinity, "CHAR"/"CLOB"/
// "TEXT" get text affinity, "REAL"/"FLOA"/"DOUB" get real affinity, and
// "BOOL" is treated as qry's Bool (SQLite itself stores it as an integer).
// Anything else defaults to String, matching SQLite's "BLOB" affinity
// falling back to however the column is actually read.
func affinityOf(declared string) typesystem.Type {
	u := strings.ToUpper(declared)
	switch {
	case strings.Contains(u, "BOOL"):
		return typesystem.Bool
	case strings.Contains(u, "INT"):
		return typesystem.Int
	case strings.Contains(u, "REAL"), strings.Contains(u, "FLOA"), strings.Contains(u, "DOUB"):
		return typesystem.Float
	case strings.Contains(u, "CHAR"), strings.Contains(u, "CLOB"), strings.Contains(u, "TEXT"):
		return typesystem.String
	default:
		return typesystem.String
	}
}

func (d *Driver) GetRelationMetadata(ctx context.Context, table string) (pipeline.QueryMetadata, error) {
	rows, err := d.db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return pipeline.QueryMetadata{}, err
	}
	defer rows.Close()

	var meta pipeline.QueryMetadata
	for rows.Next() {
		var cid int
		var name, declType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return pipeline.QueryMetadata{}, err
		}
		meta.Columns = append(meta.Columns, pipeline.Column{
			Name: name, Kind: pipeline.Named, Source: name, Type: affinityOf(declType),
		})
	}
	return meta, rows.Err()
}

func (d *Driver) Execute(ctx context.Context, sqlText string) error {
	_, err := d.db.ExecContext(ctx, sqlText)
	return err
}

func (d *Driver) Collect(ctx context.Context, sqlText string, meta pipeline.QueryMetadata) (driver.DataFrame, error) {
	rows, err := d.db.QueryContext(ctx, sqlText)
	if err != nil {
		return driver.DataFrame{}, err
	}
	defer rows.Close()

	names := make([]string, len(meta.Columns))
	types := make([]typesystem.Type, len(meta.Columns))
	for i, c := range meta.Columns {
		names[i] = c.Name
		types[i] = c.Type
	}

	var out driver.DataFrame
	out.ColumnNames = names
	out.ColumnTypes = types

	scanTargets := make([]any, len(types))
	for rows.Next() {
		for i := range scanTargets {
			scanTargets[i] = new(any)
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return driver.DataFrame{}, err
		}
		row := make([]evaluator.Object, len(types))
		for i, t := range types {
			row[i] = toObject(*(scanTargets[i].(*any)), t)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, rows.Err()
}

// toObject converts a raw driver value (modernc.org/sqlite returns int64,
// float64, string, []byte or nil) into the evaluator.Object its column's
// affinity declares.
func toObject(v any, t typesystem.Type) evaluator.Object {
	if v == nil {
		return evaluator.Null{}
	}
	switch t.Kind {
	case typesystem.KInt:
		switch x := v.(type) {
		case int64:
			return evaluator.Int{Value: x}
		case float64:
			return evaluator.Int{Value: int64(x)}
		}
	case typesystem.KFloat:
		switch x := v.(type) {
		case float64:
			return evaluator.Float{Value: x}
		case int64:
			return evaluator.Float{Value: float64(x)}
		}
	case typesystem.KBool:
		switch x := v.(type) {
		case int64:
			return evaluator.NativeBool(x != 0)
		case bool:
			return evaluator.NativeBool(x)
		}
	case typesystem.KString:
		switch x := v.(type) {
		case string:
			return evaluator.String{Value: x}
		case []byte:
			return evaluator.String{Value: string(x)}
		}
	}
	return evaluator.String{Value: ""}
}
