package pipeline

import (
	"strings"

	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/evaluator"
)

// fromStep is the base of every pipeline: `SELECT * FROM <table>`.
type fromStep struct {
	table string
	meta  QueryMetadata
}

func (s fromStep) Render(rs *RenderState, prev Rendered) (Rendered, error) {
	return Rendered{SQL: "SELECT * FROM " + s.table, Meta: s.meta}, nil
}

// FilterStep lowers `filter(predicate)` to `SELECT * FROM (<prev>) AS sub_N
// WHERE <predicate>` (spec.md §4.9's step table; the alias comes from wrap). Wrapping unconditionally,
// the same way SelectStep/MutateStep do, keeps the generated SQL portable:
// appending WHERE directly onto the prior query's text would only work
// against a driver that (like SQLite) nonstandardly permits referencing a
// SELECT output alias in WHERE.
type FilterStep struct {
	Predicate ast.Node
	Ev        *evaluator.Evaluator
	Env       *evaluator.Environment
}

// NewFilterStep builds a FilterStep evaluated against ev/env for any
// Interpolate sub-expressions the predicate contains.
func NewFilterStep(predicate ast.Node, ev *evaluator.Evaluator, env *evaluator.Environment) FilterStep {
	return FilterStep{Predicate: predicate, Ev: ev, Env: env}
}

func (s FilterStep) Render(rs *RenderState, prev Rendered) (Rendered, error) {
	wrapped := wrap(rs, prev)
	cond, err := exprToSQL(s.Predicate, wrapped.Meta, s.Ev, s.Env)
	if err != nil {
		return Rendered{}, err
	}
	sql := wrapped.SQL + " WHERE " + cond.Text
	return Rendered{SQL: sql, Meta: wrapped.Meta}, nil
}

// SelectStep lowers `select(col1, col2, ...)` by wrapping the prior query
// and projecting only the named columns.
type SelectStep struct {
	Columns []string
}

func NewSelectStep(columns []string) SelectStep { return SelectStep{Columns: columns} }

func (s SelectStep) Render(rs *RenderState, prev Rendered) (Rendered, error) {
	wrapped := wrap(rs, prev)
	var meta QueryMetadata
	var names []string
	for _, name := range s.Columns {
		col, ok := wrapped.Meta.Get(name)
		if !ok {
			return Rendered{}, evaluator.NewException("no such column: "+name, ast.Unknown)
		}
		meta.Columns = append(meta.Columns, col)
		names = append(names, col.Name)
	}
	base := wrapped.SQL[strings.Index(wrapped.SQL, "FROM"):]
	sql := "SELECT " + strings.Join(names, ", ") + " " + base
	return Rendered{SQL: sql, Meta: meta}, nil
}

// MutateStep lowers `mutate(name = expr, ...)` by wrapping the prior query
// and adding one computed column per named expression.
type MutateStep struct {
	Names []string
	Exprs []ast.Node
	Ev    *evaluator.Evaluator
	Env   *evaluator.Environment
}

func NewMutateStep(names []string, exprs []ast.Node, ev *evaluator.Evaluator, env *evaluator.Environment) MutateStep {
	return MutateStep{Names: names, Exprs: exprs, Ev: ev, Env: env}
}

func (s MutateStep) Render(rs *RenderState, prev Rendered) (Rendered, error) {
	wrapped := wrap(rs, prev)
	meta := wrapped.Meta
	var projections []string
	for _, c := range wrapped.Meta.Columns {
		projections = append(projections, c.Name)
	}
	for i, name := range s.Names {
		e, err := exprToSQL(s.Exprs[i], wrapped.Meta, s.Ev, s.Env)
		if err != nil {
			return Rendered{}, err
		}
		meta = meta.With(Column{Name: name, Kind: Computed, Source: e.Text, Type: e.Type})
		projections = append(projections, e.Text+" AS "+name)
	}
	base := wrapped.SQL[strings.Index(wrapped.SQL, "FROM"):]
	sql := "SELECT " + strings.Join(projections, ", ") + " " + base
	return Rendered{SQL: sql, Meta: meta}, nil
}

// GroupStep lowers `group_by(col1, col2, ...)`, recording the grouping
// columns in QueryMetadata for the AggregateStep that must follow.
type GroupStep struct {
	Columns []string
}

func NewGroupStep(columns []string) GroupStep { return GroupStep{Columns: columns} }

func (s GroupStep) Render(rs *RenderState, prev Rendered) (Rendered, error) {
	wrapped := wrap(rs, prev)
	for _, name := range s.Columns {
		if _, ok := wrapped.Meta.Get(name); !ok {
			return Rendered{}, evaluator.NewException("no such column: "+name, ast.Unknown)
		}
	}
	meta := wrapped.Meta
	meta.GroupBy = s.Columns
	return Rendered{SQL: wrapped.SQL, Meta: meta}, nil
}

// AggregateStep lowers `aggregate(name = sum(col), ...)`, projecting the
// grouping columns plus one aggregate expression per named result and
// emitting GROUP BY. It must directly follow a GroupStep.
type AggregateStep struct {
	Names []string
	Exprs []ast.Node
	Ev    *evaluator.Evaluator
	Env   *evaluator.Environment
}

func NewAggregateStep(names []string, exprs []ast.Node, ev *evaluator.Evaluator, env *evaluator.Environment) AggregateStep {
	return AggregateStep{Names: names, Exprs: exprs, Ev: ev, Env: env}
}

func (s AggregateStep) Render(rs *RenderState, prev Rendered) (Rendered, error) {
	if len(prev.Meta.GroupBy) == 0 {
		return Rendered{}, evaluator.NewException("aggregate() must follow group_by()", ast.Unknown)
	}

	var meta QueryMetadata
	var projections []string
	for _, name := range prev.Meta.GroupBy {
		col, _ := prev.Meta.Get(name)
		meta.Columns = append(meta.Columns, Column{Name: col.Name, Kind: Named, Source: col.Name, Type: col.Type})
		projections = append(projections, col.Name)
	}
	for i, name := range s.Names {
		e, err := exprToSQL(s.Exprs[i], prev.Meta, s.Ev, s.Env)
		if err != nil {
			return Rendered{}, err
		}
		meta = meta.With(Column{Name: name, Kind: Computed, Source: e.Text, Type: e.Type})
		projections = append(projections, e.Text+" AS "+name)
	}

	base := prev.SQL[strings.Index(prev.SQL, "FROM"):]
	sql := "SELECT " + strings.Join(projections, ", ") + " " + base +
		" GROUP BY " + strings.Join(prev.Meta.GroupBy, ", ")
	return Rendered{SQL: sql, Meta: meta}, nil
}
