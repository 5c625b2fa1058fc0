package evaluator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/parser"
	"github.com/nyrkio/qry/internal/stdlib"
)

// newTestEvaluator wires ops/core/data exactly as cmd/qry's bootstrap
// does, so these tests exercise the same global environment a real
// script runs against.
func newTestEvaluator() *evaluator.Evaluator {
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

func run(t *testing.T, src string) evaluator.Object {
	t.Helper()
	nodes, err := parser.Parse("<test>", src)
	require.NoError(t, err)
	eval := newTestEvaluator()
	env := eval.Global.Child()
	result, err := eval.EvalProgram(nodes, env)
	require.NoError(t, err)
	return result
}

// TestScenarioArithmeticPrecedence is spec.md §8 scenario 1.
func TestScenarioArithmeticPrecedence(t *testing.T) {
	assert.Equal(t, int64(7), run(t, "1 + 2 * 3").(evaluator.Int).Value)
	assert.Equal(t, int64(9), run(t, "(1 + 2) * 3").(evaluator.Int).Value)
}

// TestScenarioStringConcat is spec.md §8 scenario 2.
func TestScenarioStringConcat(t *testing.T) {
	assert.Equal(t, "haiworld", run(t, `"hai" + "world"`).(evaluator.String).Value)
	result := run(t, `("hai" + "world") == "haiworld"`)
	assert.Equal(t, evaluator.NativeBool(true), result)
}

// TestScenarioIntFloatDivision is spec.md §8 scenario 3.
func TestScenarioIntFloatDivision(t *testing.T) {
	assert.Equal(t, int64(4), run(t, "9 / 2").(evaluator.Int).Value)
	assert.InDelta(t, 4.5, run(t, "9 / 2.").(evaluator.Float).Value, 0.0001)
}

// TestScenarioOperatorOverloadOnNull is spec.md §8 scenario 4: an `impl`
// registered against ops::add must be consulted by the `+` operator
// itself, not just by calling the method by name.
func TestScenarioOperatorOverloadOnNull(t *testing.T) {
	result := run(t, "impl ops::add(a: Null, b: Null) -> String { \"why though\" }\nnull + null")
	assert.Equal(t, "why though", result.(evaluator.String).Value)
}

// TestFunctionReturnTypeMismatchRaises covers spec.md §4.4 step 5: a
// function declared with an explicit return type must have its actual
// return value checked against it, not just its parameters.
func TestFunctionReturnTypeMismatchRaises(t *testing.T) {
	nodes, err := parser.Parse("<test>", "fn f() -> String { 1 }\nf()")
	require.NoError(t, err)
	eval := newTestEvaluator()
	env := eval.Global.Child()
	_, err = eval.EvalProgram(nodes, env)
	require.Error(t, err)
}

// TestMethodFixedReturnTypeMismatchRaises covers spec.md §8's testable
// property: re-`impl`-ing a Method whose fixed return type is already set
// (core::to_string always returns String) with a mismatched declared
// return type must raise at registration, before the overload ever runs.
func TestMethodFixedReturnTypeMismatchRaises(t *testing.T) {
	nodes, err := parser.Parse("<test>", `impl core::to_string(x: Bool) -> Int { 1 }`)
	require.NoError(t, err)
	eval := newTestEvaluator()
	env := eval.Global.Child()
	_, err = eval.EvalProgram(nodes, env)
	require.Error(t, err)
}

// TestInterpolationOutsideSQLRaises covers spec.md §4.6's Interpolate rule:
// "{{ }}" is only meaningful inside a pipeline expression lowered to SQL
// (internal/pipeline/codegen.go); evaluated as ordinary code it must raise
// rather than silently return the wrapped expression's value. The full
// capturing-an-outer-binding form of spec.md §8 scenario 6 is exercised
// against a real table in internal/stdlib/data_scenario_test.go.
func TestInterpolationOutsideSQLRaises(t *testing.T) {
	nodes, err := parser.Parse("<test>", `name_to_find <- "ancient one"
{{name_to_find}}`)
	require.NoError(t, err)
	eval := newTestEvaluator()
	env := eval.Global.Child()
	_, err = eval.EvalProgram(nodes, env)
	require.Error(t, err)
}

func TestSwitchNoMatchReturnsNull(t *testing.T) {
	result := run(t, "switch 5 { 1 => true }")
	assert.Equal(t, evaluator.Null{}, result)
}

func TestEnvironmentChildIsolation(t *testing.T) {
	eval := newTestEvaluator()
	parent := eval.Global.Child()
	_, err := eval.EvalProgram(mustParse(t, "x <- 1"), parent)
	require.NoError(t, err)

	child := parent.Child()
	_, err = eval.EvalProgram(mustParse(t, "x <- 2"), child)
	require.NoError(t, err)

	v, ok := parent.Get("x")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.(evaluator.Int).Value)
}

func mustParse(t *testing.T, src string) []ast.Node {
	t.Helper()
	nodes, err := parser.Parse("<test>", src)
	require.NoError(t, err)
	return nodes
}
