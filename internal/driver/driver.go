// Package driver defines the abstract storage contract the SQL pipeline
// compiler renders against (spec.md §4.10, C10), grounded on
// original_source's stdlib/data/connection.rs ConnectionImpl trait: three
// operations — relation metadata, statement execution, and result
// collection — with one concrete implementation (internal/driver/sqlite)
// per original_source's stdlib/data/sqlite.rs.
package driver

import (
	"context"

	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/pipeline"
	"github.com/nyrkio/qry/internal/typesystem"
)

// DataFrame is the result of collecting a rendered query:
// parallel column names, their SQL-level types, and row-major values
// (qry programs index and iterate it row-wise, so row-major is simpler
// here than the arrow-style column builders original_source uses purely
// for its own in-process performance).
type DataFrame struct {
	ColumnNames []string
	ColumnTypes []typesystem.Type
	Rows        [][]evaluator.Object
}

// NumRows and NumCols back spec.md §4 Supplemented Features item 1's
// num_rows/num_cols/dimensions accessors.
func (d DataFrame) NumRows() int { return len(d.Rows) }
func (d DataFrame) NumCols() int { return len(d.ColumnNames) }

// Driver is the abstract backend contract: look up a table's column
// metadata, run a statement with no result set, and collect a query's
// result set into a DataFrame.
type Driver interface {
	GetRelationMetadata(ctx context.Context, table string) (pipeline.QueryMetadata, error)
	Execute(ctx context.Context, sql string) error
	Collect(ctx context.Context, sql string, meta pipeline.QueryMetadata) (DataFrame, error)
}
