package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/pipeline"
	"github.com/nyrkio/qry/internal/typesystem"
)

func baseMeta() pipeline.QueryMetadata {
	return pipeline.QueryMetadata{Columns: []pipeline.Column{
		{Name: "name", Kind: pipeline.Named, Source: "name", Type: typesystem.String},
		{Name: "age", Kind: pipeline.Named, Source: "age", Type: typesystem.Int},
	}}
}

func TestFilterStepWrapsAndAppliesWhere(t *testing.T) {
	meta := baseMeta()
	p := pipeline.From("t", meta)
	pred := &ast.BinaryOp{Op: ast.Equal,
		Lhs: &ast.Ident{Name: "age"},
		Rhs: &ast.IntLiteral{Value: 27},
	}
	p = p.Then(pipeline.NewFilterStep(pred, nil, nil))

	rendered, err := p.Render(pipeline.NewRenderState())
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM (SELECT * FROM t) AS sub_0 WHERE (age = 27)", rendered.SQL)
}

func TestFilterStepAfterAggregateWrapsSubquery(t *testing.T) {
	meta := baseMeta()
	p := pipeline.From("t", meta)
	p = p.Then(pipeline.NewGroupStep([]string{"age"}))
	p = p.Then(pipeline.NewAggregateStep(
		[]string{"total"},
		[]ast.Node{&ast.Call{Target: &ast.Ident{Name: "sum"}, Positional: []ast.Node{&ast.Ident{Name: "age"}}}},
		nil, nil,
	))
	p = p.Then(pipeline.NewFilterStep(
		&ast.BinaryOp{Op: ast.Gt, Lhs: &ast.Ident{Name: "total"}, Rhs: &ast.IntLiteral{Value: 10}},
		nil, nil,
	))

	rendered, err := p.Render(pipeline.NewRenderState())
	require.NoError(t, err)
	assert.Contains(t, rendered.SQL, "SELECT * FROM (")
	assert.Contains(t, rendered.SQL, "WHERE (total > 10)")
}

func TestMutateStepAddsComputedColumn(t *testing.T) {
	meta := baseMeta()
	p := pipeline.From("t", meta)
	p = p.Then(pipeline.NewMutateStep(
		[]string{"new_col"},
		[]ast.Node{&ast.BinaryOp{Op: ast.Mul, Lhs: &ast.Ident{Name: "age"}, Rhs: &ast.IntLiteral{Value: 2}}},
		nil, nil,
	))

	rendered, err := p.Render(pipeline.NewRenderState())
	require.NoError(t, err)
	assert.Contains(t, rendered.SQL, "(age * 2) AS new_col")
	col, ok := rendered.Meta.Get("new_col")
	require.True(t, ok)
	assert.True(t, col.Type.Equal(typesystem.Int))
}

func TestAggregateStepRequiresPrecedingGroupBy(t *testing.T) {
	meta := baseMeta()
	p := pipeline.From("t", meta)
	p = p.Then(pipeline.NewAggregateStep(
		[]string{"total"},
		[]ast.Node{&ast.Call{Target: &ast.Ident{Name: "sum"}, Positional: []ast.Node{&ast.Ident{Name: "age"}}}},
		nil, nil,
	))

	_, err := p.Render(pipeline.NewRenderState())
	require.Error(t, err)
}

func TestSelectStepProjectsOnlyNamedColumns(t *testing.T) {
	meta := baseMeta()
	p := pipeline.From("t", meta)
	p = p.Then(pipeline.NewSelectStep([]string{"name"}))

	rendered, err := p.Render(pipeline.NewRenderState())
	require.NoError(t, err)
	require.Len(t, rendered.Meta.Columns, 1)
	assert.Equal(t, "name", rendered.Meta.Columns[0].Name)
}

func TestFilterStepInterpolatesOuterBinding(t *testing.T) {
	meta := baseMeta()
	p := pipeline.From("t", meta)
	pred := &ast.BinaryOp{Op: ast.Equal,
		Lhs: &ast.Ident{Name: "name"},
		Rhs: &ast.Interpolate{Expr: &ast.Ident{Name: "needle"}},
	}

	eval := evaluator.New()
	env := eval.Global.Child()
	env.Set("needle", evaluator.String{Value: "ancient one"})
	p = p.Then(pipeline.NewFilterStep(pred, eval, env))

	rendered, err := p.Render(pipeline.NewRenderState())
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM (SELECT * FROM t) AS sub_0 WHERE (name = 'ancient one')", rendered.SQL)
}
