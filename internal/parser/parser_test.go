package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/parser"
)

func parseOne(t *testing.T, src string) ast.Node {
	t.Helper()
	nodes, err := parser.Parse("<test>", src)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	return nodes[0]
}

func TestParsePrecedenceAdditiveMultiplicative(t *testing.T) {
	// 1 + 2 * 3  ==  1 + (2 * 3)
	n := parseOne(t, "1 + 2 * 3")
	bin, ok := n.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Add, bin.Op)
	rhs, ok := bin.Rhs.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Mul, rhs.Op)
}

func TestParseLAssignRightAssociative(t *testing.T) {
	// a <- b <- c  ==  a <- (b <- c)
	n := parseOne(t, "a <- b <- c")
	bin, ok := n.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.LAssign, bin.Op)
	lhs, ok := bin.Lhs.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "a", lhs.Name)
	rhs, ok := bin.Rhs.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.LAssign, rhs.Op)
}

func TestParseAdditiveLeftAssociative(t *testing.T) {
	// 1 - 2 - 3 == (1 - 2) - 3
	n := parseOne(t, "1 - 2 - 3")
	bin, ok := n.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Sub, bin.Op)
	lhs, ok := bin.Lhs.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Sub, lhs.Op)
	_, ok = bin.Rhs.(*ast.IntLiteral)
	require.True(t, ok)
}

func TestParsePipeChain(t *testing.T) {
	n := parseOne(t, `t |> filter(x) |> collect()`)
	outer, ok := n.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Pipe, outer.Op)
	call, ok := outer.Rhs.(*ast.Call)
	require.True(t, ok)
	ident, ok := call.Target.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "collect", ident.Name)

	inner, ok := outer.Lhs.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Pipe, inner.Op)
}

func TestParseGenericInstantiationVsRelational(t *testing.T) {
	n := parseOne(t, "Vector<Int>")
	gi, ok := n.(*ast.GenericInstantiation)
	require.True(t, ok)
	require.Len(t, gi.TypeArgs, 1)
	target, ok := gi.TypeArgs[0].(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "Int", target.Name)
}

func TestParseRelationalLessThan(t *testing.T) {
	n := parseOne(t, "a < b")
	bin, ok := n.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Lt, bin.Op)
}

func TestParsePostfixChain(t *testing.T) {
	n := parseOne(t, "a(x)[0]")
	idx, ok := n.(*ast.Index)
	require.True(t, ok)
	require.Len(t, idx.Keys, 1)
	_, ok = idx.Target.(*ast.Call)
	require.True(t, ok)
}

func TestParseImplHeaderWithTypedParams(t *testing.T) {
	n := parseOne(t, "impl ops::add(a: Int, b: Int) -> Int { a + b }")
	fn, ok := n.(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, ast.HeaderMethodImpl, fn.Header.Kind)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, "b", fn.Params[1].Name)
}

func TestParseFnNamedLiteral(t *testing.T) {
	n := parseOne(t, "fn double(x: Int) -> Int { x * 2 }")
	fn, ok := n.(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, ast.HeaderFunction, fn.Header.Kind)
	assert.Equal(t, "double", fn.Header.Name)
}

func TestParseSwitch(t *testing.T) {
	n := parseOne(t, "switch x { 1 => true 2 => false }")
	sw, ok := n.(*ast.Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 2)
}

func TestParseUseWildcard(t *testing.T) {
	n := parseOne(t, "use data::*")
	u, ok := n.(*ast.Use)
	require.True(t, ok)
	assert.Equal(t, []string{"data"}, u.From)
	assert.True(t, u.Import.Wildcard)
}

func TestParseUseNamed(t *testing.T) {
	n := parseOne(t, "use data::{filter, collect}")
	u, ok := n.(*ast.Use)
	require.True(t, ok)
	assert.Equal(t, []string{"data"}, u.From)
	assert.ElementsMatch(t, []string{"filter", "collect"}, u.Import.Names)
}

func TestParseUseLib(t *testing.T) {
	n := parseOne(t, "use data")
	u, ok := n.(*ast.Use)
	require.True(t, ok)
	assert.Equal(t, []string{"data"}, u.Import.Names)
}

// TestParseUseBareMultiSegmentIsAnError documents the grammar's emergent
// quirk, inherited unchanged from the source grammar: a bare multi-segment
// path with no `::*`/`::{}` suffix satisfies neither of its two
// alternative productions and is a genuine parse error.
func TestParseUseBareMultiSegmentIsAnError(t *testing.T) {
	_, err := parser.Parse("<test>", "use a::b::c")
	assert.Error(t, err)
}

func TestParseInterpolation(t *testing.T) {
	n := parseOne(t, "{{ x + 1 }}")
	interp, ok := n.(*ast.Interpolate)
	require.True(t, ok)
	_, ok = interp.Expr.(*ast.BinaryOp)
	require.True(t, ok)
}

func TestParseProgramMultipleTopLevelExprs(t *testing.T) {
	nodes, err := parser.Parse("<test>", "a <- 1\nb <- 2")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestParseUnaryNegateAndMinus(t *testing.T) {
	n := parseOne(t, "!a")
	un, ok := n.(*ast.UnaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Negate, un.Op)

	n = parseOne(t, "-a")
	un, ok = n.(*ast.UnaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Minus, un.Op)
}
