package stdlib

import (
	"context"
	"fmt"

	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/driver"
	"github.com/nyrkio/qry/internal/driver/sqlite"
	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/pipeline"
	"github.com/nyrkio/qry/internal/typesystem"
)

// Native type descriptors for the `data` library (spec.md §4.9/§4.10).
// IDs are allocated once at package init and never change identity, so two
// qry programs that both `use data::*` share the exact same Connection/
// QueryPipeline/DataFrame/Vector types.
var (
	connectionDesc = typesystem.NewNativeDescriptor("Connection")
	pipelineDesc   = typesystem.NewNativeDescriptor("QueryPipeline")
	dataFrameDesc  = typesystem.NewNativeDescriptor("DataFrame")
	intVectorDesc  = typesystem.NewNativeDescriptor("IntVector")
	vectorDesc     typesystem.NativeDescriptor
)

func init() {
	vectorDesc = typesystem.NewNativeDescriptor("Vector")
	vectorDesc.GenericResolver = func(typeArgs []typesystem.Type) (typesystem.Type, error) {
		// Only Vector<Int> resolves to a concrete native type (spec.md §4
		// Supplemented Features item 4) — the teacher's own generic-native
		// example (vectors.rs) only ever supported Int too.
		if len(typeArgs) == 1 && typeArgs[0].Equal(typesystem.Int) {
			return typesystem.Native(intVectorDesc), nil
		}
		names := "?"
		if len(typeArgs) == 1 {
			names = typeArgs[0].String()
		}
		return typesystem.Type{}, fmt.Errorf("Vector<%s> is not supported; only Vector<Int> is implemented", names)
	}
}

// pipelineState is what a data::QueryPipeline Native actually wraps: the
// connection it will eventually render and collect against, plus the
// immutable step chain built up so far.
type pipelineState struct {
	Conn     *driver.Connection
	Pipeline pipeline.QueryPipeline
}

func wrapPipeline(conn *driver.Connection, p pipeline.QueryPipeline) evaluator.Native {
	return evaluator.Native{Descriptor: pipelineDesc, Value: pipelineState{Conn: conn, Pipeline: p}}
}

func asPipeline(obj evaluator.Object, loc ast.SourceLocation) (pipelineState, error) {
	n, ok := obj.(evaluator.Native)
	if !ok || n.Descriptor.ID != pipelineDesc.ID {
		return pipelineState{}, evaluator.NewException("expected a QueryPipeline", loc)
	}
	return n.Value.(pipelineState), nil
}

func asConnection(obj evaluator.Object, loc ast.SourceLocation) (*driver.Connection, error) {
	n, ok := obj.(evaluator.Native)
	if !ok || n.Descriptor.ID != connectionDesc.ID {
		return nil, evaluator.NewException("expected a Connection", loc)
	}
	return n.Value.(*driver.Connection), nil
}

func identName(node ast.Node) (string, bool) {
	id, ok := node.(*ast.Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// NewData builds the `data` library: Connection/QueryPipeline/DataFrame/
// Vector native types and the connect_*/table/filter/select/mutate/
// group_by/aggregate/collect/render verbs that make up the SQL pipeline
// compiler's surface (spec.md §4.9/§4.10). data is library-only — it is
// never wildcard-copied into the global scope the way core is, so a
// program has to `use data::*` (or `use data::{table, collect}`) before
// these names resolve (spec.md §4.8).
//
// ops is threaded in so data can add a DataFrame row-indexing overload to
// the same `index` Method ops::index registers (internal/evaluator's
// Index node dispatches through ops::index regardless of which library
// defined a given overload).
func NewData(ops *evaluator.Library) *evaluator.Library {
	lib := &evaluator.Library{Name: "data", Bindings: make(map[string]evaluator.Object)}

	lib.Bindings["Connection"] = evaluator.TypeValue{Value: typesystem.Native(connectionDesc)}
	lib.Bindings["QueryPipeline"] = evaluator.TypeValue{Value: typesystem.Native(pipelineDesc)}
	lib.Bindings["DataFrame"] = evaluator.TypeValue{Value: typesystem.Native(dataFrameDesc)}
	lib.Bindings["Vector"] = evaluator.TypeValue{Value: typesystem.Native(vectorDesc)}
	lib.Bindings["IntVector"] = evaluator.TypeValue{Value: typesystem.Native(intVectorDesc)}

	lib.Bindings["connect_sqlite"] = evaluator.Builtin{Name: "connect_sqlite", Fn: connectSqlite}
	lib.Bindings["execute"] = evaluator.Builtin{Name: "execute", Fn: executeStatement}
	lib.Bindings["table"] = evaluator.Builtin{Name: "table", Fn: openTable}
	lib.Bindings["collect"] = evaluator.Builtin{Name: "collect", Fn: collectPipeline}
	lib.Bindings["render"] = evaluator.Builtin{Name: "render", Fn: renderPipeline}

	lib.Bindings["filter"] = evaluator.LazyBuiltin{Name: "filter", Fn: filterVerb}
	lib.Bindings["select"] = evaluator.LazyBuiltin{Name: "select", Fn: selectVerb}
	lib.Bindings["mutate"] = evaluator.LazyBuiltin{Name: "mutate", Fn: mutateVerb}
	lib.Bindings["group_by"] = evaluator.LazyBuiltin{Name: "group_by", Fn: groupByVerb}
	lib.Bindings["aggregate"] = evaluator.LazyBuiltin{Name: "aggregate", Fn: aggregateVerb}

	lib.Bindings["num_rows"] = evaluator.Builtin{Name: "num_rows", Fn: numRows}
	lib.Bindings["num_cols"] = evaluator.Builtin{Name: "num_cols", Fn: numCols}
	lib.Bindings["dimensions"] = evaluator.Builtin{Name: "dimensions", Fn: dimensions}
	lib.Bindings["rows"] = evaluator.Builtin{Name: "rows", Fn: dataFrameRows}

	lib.Bindings["intvec"] = evaluator.Builtin{Name: "intvec", Fn: makeIntVector}
	lib.Bindings["sum"] = evaluator.Builtin{Name: "sum", Fn: vectorSum}

	registerDataFrameIndex(ops)

	return lib
}

func connectSqlite(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
	if len(args) != 1 {
		return nil, evaluator.NewException("connect_sqlite takes 1 argument", ctx.Loc)
	}
	path, ok := args[0].(evaluator.String)
	if !ok {
		return nil, evaluator.NewException("connect_sqlite expects a String path", ctx.Loc)
	}
	drv, err := sqlite.Open(path.Value)
	if err != nil {
		return nil, evaluator.NewException(err.Error(), ctx.Loc)
	}
	conn := driver.New(drv)
	return evaluator.Native{Descriptor: connectionDesc, Value: conn}, nil
}

func executeStatement(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
	if len(args) != 2 {
		return nil, evaluator.NewException("execute takes 2 arguments", ctx.Loc)
	}
	conn, err := asConnection(args[0], ctx.Loc)
	if err != nil {
		return nil, err
	}
	sqlText, ok := args[1].(evaluator.String)
	if !ok {
		return nil, evaluator.NewException("execute expects a String statement", ctx.Loc)
	}
	if err := conn.Execute(context.Background(), sqlText.Value); err != nil {
		return nil, evaluator.NewException(err.Error(), ctx.Loc)
	}
	return evaluator.Null{}, nil
}

func openTable(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
	if len(args) != 2 {
		return nil, evaluator.NewException("table takes 2 arguments", ctx.Loc)
	}
	conn, err := asConnection(args[0], ctx.Loc)
	if err != nil {
		return nil, err
	}
	name, ok := args[1].(evaluator.String)
	if !ok {
		return nil, evaluator.NewException("table expects a String name", ctx.Loc)
	}
	meta, err := conn.GetRelationMetadata(context.Background(), name.Value)
	if err != nil {
		return nil, evaluator.NewException(err.Error(), ctx.Loc)
	}
	return wrapPipeline(conn, pipeline.From(name.Value, meta)), nil
}

func filterVerb(ctx *evaluator.CallContext, self evaluator.Object, rest []ast.Node, named []ast.NamedArg) (evaluator.Object, error) {
	ps, err := asPipeline(self, ctx.Loc)
	if err != nil {
		return nil, err
	}
	if len(rest) != 1 {
		return nil, evaluator.NewException("filter takes exactly one predicate expression", ctx.Loc)
	}
	step := pipeline.NewFilterStep(rest[0], ctx.Eval, ctx.Env)
	return wrapPipeline(ps.Conn, ps.Pipeline.Then(step)), nil
}

func selectVerb(ctx *evaluator.CallContext, self evaluator.Object, rest []ast.Node, named []ast.NamedArg) (evaluator.Object, error) {
	ps, err := asPipeline(self, ctx.Loc)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(rest))
	for i, n := range rest {
		name, ok := identName(n)
		if !ok {
			return nil, evaluator.NewException("select arguments must be column names", ctx.Loc)
		}
		names[i] = name
	}
	step := pipeline.NewSelectStep(names)
	return wrapPipeline(ps.Conn, ps.Pipeline.Then(step)), nil
}

func mutateVerb(ctx *evaluator.CallContext, self evaluator.Object, rest []ast.Node, named []ast.NamedArg) (evaluator.Object, error) {
	ps, err := asPipeline(self, ctx.Loc)
	if err != nil {
		return nil, err
	}
	if len(named) == 0 {
		return nil, evaluator.NewException("mutate requires at least one name = expression argument", ctx.Loc)
	}
	names := make([]string, len(named))
	exprs := make([]ast.Node, len(named))
	for i, na := range named {
		names[i] = na.Name
		exprs[i] = na.Value
	}
	step := pipeline.NewMutateStep(names, exprs, ctx.Eval, ctx.Env)
	return wrapPipeline(ps.Conn, ps.Pipeline.Then(step)), nil
}

func groupByVerb(ctx *evaluator.CallContext, self evaluator.Object, rest []ast.Node, named []ast.NamedArg) (evaluator.Object, error) {
	ps, err := asPipeline(self, ctx.Loc)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(rest))
	for i, n := range rest {
		name, ok := identName(n)
		if !ok {
			return nil, evaluator.NewException("group_by arguments must be column names", ctx.Loc)
		}
		names[i] = name
	}
	step := pipeline.NewGroupStep(names)
	return wrapPipeline(ps.Conn, ps.Pipeline.Then(step)), nil
}

func aggregateVerb(ctx *evaluator.CallContext, self evaluator.Object, rest []ast.Node, named []ast.NamedArg) (evaluator.Object, error) {
	ps, err := asPipeline(self, ctx.Loc)
	if err != nil {
		return nil, err
	}
	if len(named) == 0 {
		return nil, evaluator.NewException("aggregate requires at least one name = expression argument", ctx.Loc)
	}
	names := make([]string, len(named))
	exprs := make([]ast.Node, len(named))
	for i, na := range named {
		names[i] = na.Name
		exprs[i] = na.Value
	}
	step := pipeline.NewAggregateStep(names, exprs, ctx.Eval, ctx.Env)
	return wrapPipeline(ps.Conn, ps.Pipeline.Then(step)), nil
}

func renderPipeline(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
	if len(args) != 1 {
		return nil, evaluator.NewException("render takes 1 argument", ctx.Loc)
	}
	ps, err := asPipeline(args[0], ctx.Loc)
	if err != nil {
		return nil, err
	}
	rendered, err := ps.Pipeline.Render(pipeline.NewRenderState())
	if err != nil {
		return nil, err
	}
	return evaluator.String{Value: rendered.SQL}, nil
}

func collectPipeline(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
	if len(args) != 1 {
		return nil, evaluator.NewException("collect takes 1 argument", ctx.Loc)
	}
	ps, err := asPipeline(args[0], ctx.Loc)
	if err != nil {
		return nil, err
	}
	rendered, err := ps.Pipeline.Render(pipeline.NewRenderState())
	if err != nil {
		return nil, err
	}
	df, err := ps.Conn.Collect(context.Background(), rendered.SQL, rendered.Meta)
	if err != nil {
		return nil, evaluator.NewException(err.Error(), ctx.Loc)
	}
	return evaluator.Native{Descriptor: dataFrameDesc, Value: df}, nil
}

func asDataFrame(obj evaluator.Object, loc ast.SourceLocation) (driver.DataFrame, error) {
	n, ok := obj.(evaluator.Native)
	if !ok || n.Descriptor.ID != dataFrameDesc.ID {
		return driver.DataFrame{}, evaluator.NewException("expected a DataFrame", loc)
	}
	return n.Value.(driver.DataFrame), nil
}

func numRows(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
	if len(args) != 1 {
		return nil, evaluator.NewException("num_rows takes 1 argument", ctx.Loc)
	}
	df, err := asDataFrame(args[0], ctx.Loc)
	if err != nil {
		return nil, err
	}
	return evaluator.Int{Value: int64(df.NumRows())}, nil
}

func numCols(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
	if len(args) != 1 {
		return nil, evaluator.NewException("num_cols takes 1 argument", ctx.Loc)
	}
	df, err := asDataFrame(args[0], ctx.Loc)
	if err != nil {
		return nil, err
	}
	return evaluator.Int{Value: int64(df.NumCols())}, nil
}

func dimensions(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
	if len(args) != 1 {
		return nil, evaluator.NewException("dimensions takes 1 argument", ctx.Loc)
	}
	df, err := asDataFrame(args[0], ctx.Loc)
	if err != nil {
		return nil, err
	}
	return evaluator.List{Elements: []evaluator.Object{
		evaluator.Int{Value: int64(df.NumRows())},
		evaluator.Int{Value: int64(df.NumCols())},
	}}, nil
}

// dataFrameRows materializes every row as a List of Lists — the plain
// bridge between the row-major driver result and qry's own List value,
// needed since qry programs otherwise have no way to consume collect()'s
// result (spec.md §4 Supplemented Features item 1).
func dataFrameRows(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
	if len(args) != 1 {
		return nil, evaluator.NewException("rows takes 1 argument", ctx.Loc)
	}
	df, err := asDataFrame(args[0], ctx.Loc)
	if err != nil {
		return nil, err
	}
	rows := make([]evaluator.Object, len(df.Rows))
	for i, r := range df.Rows {
		elems := make([]evaluator.Object, len(r))
		copy(elems, r)
		rows[i] = evaluator.List{Elements: elems}
	}
	return evaluator.List{Elements: rows}, nil
}

// registerDataFrameIndex adds a DataFrame+Int overload to ops::index so
// `df[0]` returns the DataFrame's first row as a List, the same way
// `list[0]` already works.
func registerDataFrameIndex(ops *evaluator.Library) {
	v, ok := ops.Bindings["index"]
	if !ok {
		return
	}
	m, ok := v.(*evaluator.Method)
	if !ok {
		return
	}
	m.Register([]typesystem.Type{typesystem.Native(dataFrameDesc), typesystem.Int}, typesystem.List,
		func(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
			df := args[0].(evaluator.Native).Value.(driver.DataFrame)
			idx := args[1].(evaluator.Int).Value
			if idx < 0 || int(idx) >= len(df.Rows) {
				return nil, evaluator.NewException("index out of range", ctx.Loc)
			}
			elems := make([]evaluator.Object, len(df.Rows[idx]))
			copy(elems, df.Rows[idx])
			return evaluator.List{Elements: elems}, nil
		})
}

func asIntVector(obj evaluator.Object, loc ast.SourceLocation) ([]int64, error) {
	n, ok := obj.(evaluator.Native)
	if !ok || n.Descriptor.ID != intVectorDesc.ID {
		return nil, evaluator.NewException("expected an IntVector", loc)
	}
	return n.Value.([]int64), nil
}

func makeIntVector(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
	values := make([]int64, len(args))
	for i, a := range args {
		iv, ok := a.(evaluator.Int)
		if !ok {
			return nil, evaluator.NewException("intvec arguments must all be Int", ctx.Loc)
		}
		values[i] = iv.Value
	}
	return evaluator.Native{Descriptor: intVectorDesc, Value: values}, nil
}

func vectorSum(ctx *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
	if len(args) != 1 {
		return nil, evaluator.NewException("sum takes 1 argument", ctx.Loc)
	}
	values, err := asIntVector(args[0], ctx.Loc)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, v := range values {
		total += v
	}
	return evaluator.Int{Value: total}, nil
}
