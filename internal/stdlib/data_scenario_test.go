package stdlib_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/parser"
	"github.com/nyrkio/qry/internal/stdlib"
)

// newScenarioEvaluator wires ops/core/data exactly as cmd/qry's bootstrap
// does (internal/evaluator doesn't import internal/stdlib, so every entry
// point that wants the data library rebuilds this same three-library
// wiring).
func newScenarioEvaluator() *evaluator.Evaluator {
	eval := evaluator.New()
	ops := stdlib.NewOps()
	core := stdlib.NewCore()
	data := stdlib.NewData(ops)

	eval.Global.Set("ops", ops)
	eval.Global.Set("core", core)
	eval.Global.Set("data", data)
	for name, v := range core.Bindings {
		eval.Global.Set(name, v)
	}
	return eval
}

func runScenario(t *testing.T, src string) evaluator.Object {
	t.Helper()
	nodes, err := parser.Parse("<test>", src)
	require.NoError(t, err)
	eval := newScenarioEvaluator()
	env := eval.Global.Child()
	result, err := eval.EvalProgram(nodes, env)
	require.NoError(t, err)
	return result
}

// TestScenarioPipelineFilterCollectNumRows is the first leg of spec.md §8
// scenario 5: filter() then collect() against a real sqlite table.
func TestScenarioPipelineFilterCollectNumRows(t *testing.T) {
	result := runScenario(t, `
use data::*
conn <- connect_sqlite(":memory:")
execute(conn, "CREATE TABLE t(name varchar, age int)")
execute(conn, "INSERT INTO t VALUES ('ruan',26), ('ruanlater',27), ('thirdperson',27), ('ancient one', null)")
t <- table(conn, "t")
t |> filter(age == 27) |> collect() |> num_rows()
`)
	assert.Equal(t, int64(2), result.(evaluator.Int).Value)
}

// TestScenarioPipelineMutateFilterDimensions is the second leg of scenario
// 5: mutate() adds a computed column that a later filter() can reference.
func TestScenarioPipelineMutateFilterDimensions(t *testing.T) {
	result := runScenario(t, `
use data::*
conn <- connect_sqlite(":memory:")
execute(conn, "CREATE TABLE t(name varchar, age int)")
execute(conn, "INSERT INTO t VALUES ('ruan',26), ('ruanlater',27), ('thirdperson',27), ('ancient one', null)")
t <- table(conn, "t")
t |> mutate(new_col = age * 2) |> filter(new_col == 52) |> collect() |> dimensions()
`)
	dims := result.(evaluator.List).Elements
	require.Len(t, dims, 2)
	assert.Equal(t, int64(1), dims[0].(evaluator.Int).Value)
	assert.Equal(t, int64(3), dims[1].(evaluator.Int).Value)
}

// TestScenarioPipelineGroupByAggregateDimensions is the third leg of
// scenario 5: group_by() then aggregate() lowers to GROUP BY plus one
// aggregate expression per named result.
func TestScenarioPipelineGroupByAggregateDimensions(t *testing.T) {
	result := runScenario(t, `
use data::*
conn <- connect_sqlite(":memory:")
execute(conn, "CREATE TABLE t(name varchar, age int)")
execute(conn, "INSERT INTO t VALUES ('ruan',26), ('ruanlater',27), ('thirdperson',27), ('ancient one', null)")
t <- table(conn, "t")
t |> group_by(age) |> aggregate(total_age = sum(age)) |> collect() |> dimensions()
`)
	dims := result.(evaluator.List).Elements
	require.Len(t, dims, 2)
	assert.Equal(t, int64(3), dims[0].(evaluator.Int).Value)
	assert.Equal(t, int64(2), dims[1].(evaluator.Int).Value)
}

// TestScenarioInterpolatedFilterAgainstTable is the full form of spec.md §8
// scenario 6: an outer binding captured into a pipeline's filter() through
// {{ }} interpolation, run against a real table rather than a bare value.
func TestScenarioInterpolatedFilterAgainstTable(t *testing.T) {
	result := runScenario(t, `
use data::*
conn <- connect_sqlite(":memory:")
execute(conn, "CREATE TABLE t(name varchar, age int)")
execute(conn, "INSERT INTO t VALUES ('ruan',26), ('ruanlater',27), ('thirdperson',27), ('ancient one', null)")
t <- table(conn, "t")
name_to_find <- "ancient one"
t |> filter(name == {{name_to_find}}) |> collect() |> num_rows()
`)
	assert.Equal(t, int64(1), result.(evaluator.Int).Value)
}
