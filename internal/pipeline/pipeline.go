// Package pipeline implements the SQL pipeline compiler: the lowering of a
// `table |> filter(...) |> group_by(...) |> aggregate(...) |> collect()`
// chain into a single SQL statement against an internal/driver.Driver
// (spec.md §4.9). Unlike the teacher's own internal/pipeline (an unrelated
// compiler-pass Processor chain for its analysis phases — see DESIGN.md),
// this package is grounded directly on original_source's
// stdlib/data/sql_pipeline.rs and sql_codegen.rs, translated into Go.
package pipeline

import (
	"strconv"
	"sync/atomic"

	"github.com/nyrkio/qry/internal/typesystem"
)

// ColumnKind discriminates a column that names a source table column
// (Named) from one produced by a `mutate`/`aggregate` expression
// (Computed); wrap() reclassifies every column as Named once it has been
// subquery-wrapped, since from the outside a computed column is just
// another named column of the wrapping subquery.
type ColumnKind int

const (
	Named ColumnKind = iota
	Computed
)

// Column is one entry of a QueryMetadata: the output name the pipeline
// exposes this column under, its SQL type, and (for Computed columns) the
// SQL expression text that produced it.
type Column struct {
	Name   string
	Kind   ColumnKind
	Source string // SQL expression text; equals Name for Kind == Named
	Type   typesystem.Type
}

// QueryMetadata is the ordered column map threaded through rendering, plus
// the current GROUP BY column list (empty outside an aggregate).
type QueryMetadata struct {
	Columns []Column
	GroupBy []string
}

// Get returns the column named name, preserving the teacher's lookup-by-name
// idiom (environment.go's Get) applied to a column map instead of a scope.
func (m QueryMetadata) Get(name string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// With returns a copy of m with col appended or replacing an existing
// column of the same name (QueryMetadata is always handled as an immutable
// value, matching the pipeline's own immutability).
func (m QueryMetadata) With(col Column) QueryMetadata {
	out := QueryMetadata{GroupBy: m.GroupBy}
	replaced := false
	for _, c := range m.Columns {
		if c.Name == col.Name {
			out.Columns = append(out.Columns, col)
			replaced = true
		} else {
			out.Columns = append(out.Columns, c)
		}
	}
	if !replaced {
		out.Columns = append(out.Columns, col)
	}
	return out
}

// RenderState threads the monotonic subquery-alias counter across a chain
// of Step.Render calls; the metadata travels in each step's Rendered.
type RenderState struct {
	counter *atomic.Int64
}

// NewRenderState creates a fresh RenderState for rendering one pipeline.
func NewRenderState() *RenderState {
	return &RenderState{counter: new(atomic.Int64)}
}

// NextAlias returns the next subquery alias, e.g. "sub_0", "sub_1", ...
func (rs *RenderState) NextAlias() string {
	n := rs.counter.Add(1) - 1
	return "sub_" + strconv.FormatInt(n, 10)
}

// Rendered is the SQL text plus metadata produced by rendering a pipeline
// prefix; each Step.Render both reads and returns one of these.
type Rendered struct {
	SQL  string
	Meta QueryMetadata
}

// wrap subquery-wraps prev's SQL text as `SELECT * FROM (<prev>) AS <alias>`
// and reclassifies every column as Named against that alias, so a step that
// can't just append to prev's SQL (e.g. filtering after an aggregate) gets
// a clean base to build on (original_source's RenderState::wrap).
func wrap(rs *RenderState, prev Rendered) Rendered {
	alias := rs.NextAlias()
	sql := "SELECT * FROM (" + prev.SQL + ") AS " + alias
	meta := QueryMetadata{}
	for _, c := range prev.Meta.Columns {
		meta.Columns = append(meta.Columns, Column{Name: c.Name, Kind: Named, Source: c.Name, Type: c.Type})
	}
	return Rendered{SQL: sql, Meta: meta}
}

// Step is one stage of a QueryPipeline.
type Step interface {
	Render(rs *RenderState, prev Rendered) (Rendered, error)
}

// QueryPipeline is an ordered, immutable list of Steps. Appending a step
// (Then) never mutates the receiver — it always allocates a new backing
// slice — so a pipeline value captured by a closure or passed to another
// function is safe to keep extending independently (spec.md §3's
// QueryPipeline: "ordered, immutable, shared list of Step").
type QueryPipeline struct {
	steps []Step
}

// From starts a new pipeline reading table, with meta describing its
// columns as reported by the driver (internal/driver.Driver.GetRelationMetadata).
func From(table string, meta QueryMetadata) QueryPipeline {
	return QueryPipeline{steps: []Step{fromStep{table: table, meta: meta}}}
}

// Then returns a new pipeline with step appended.
func (p QueryPipeline) Then(step Step) QueryPipeline {
	steps := make([]Step, len(p.steps)+1)
	copy(steps, p.steps)
	steps[len(p.steps)] = step
	return QueryPipeline{steps: steps}
}

// Render lowers the whole pipeline to a single SQL statement plus the
// column metadata of its result set.
func (p QueryPipeline) Render(rs *RenderState) (Rendered, error) {
	var cur Rendered
	for i, step := range p.steps {
		next, err := step.Render(rs, cur)
		if err != nil {
			return Rendered{}, err
		}
		cur = next
		_ = i
	}
	return cur, nil
}
