package pipeline

import (
	"strconv"
	"strings"

	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/typesystem"
)

// sqlExpr pairs the SQL text a node lowered to with the SQL-level type that
// text produces, matching original_source's SqlExpression{sql_type, text}.
type sqlExpr struct {
	Text string
	Type typesystem.Type
}

// aggFuncs maps a pipeline aggregation call's target name to its SQL
// function name (spec.md §4.9's aggregate() expressions, e.g. `sum(age)`).
var aggFuncs = map[string]string{
	"sum": "SUM", "count": "COUNT", "avg": "AVG", "min": "MIN", "max": "MAX",
}

// exprToSQL lowers a qry expression node into SQL text, resolving Ident
// references against meta's column map, evaluating Interpolate nodes
// eagerly against env and embedding the result as a literal, and rendering
// Switch as a SQL simple CASE expression (spec.md §4.9's expr_to_sql).
//
// Identifiers are emitted unquoted: the grammar restricts identifiers to
// `[A-Za-z_][A-Za-z0-9_]*`, so there is no quoting/injection surface to
// close (DESIGN.md Open Question 3), and string literals never interpolate
// user text without going through the single-quote literal writer below.
func exprToSQL(node ast.Node, meta QueryMetadata, ev *evaluator.Evaluator, env *evaluator.Environment) (sqlExpr, error) {
	switch n := node.(type) {
	case *ast.NullLiteral:
		return sqlExpr{Text: "NULL", Type: typesystem.Null}, nil
	case *ast.IntLiteral:
		return sqlExpr{Text: strconv.FormatInt(n.Value, 10), Type: typesystem.Int}, nil
	case *ast.FloatLiteral:
		return sqlExpr{Text: evaluator.FormatFloat(n.Value), Type: typesystem.Float}, nil
	case *ast.BoolLiteral:
		if n.Value {
			return sqlExpr{Text: "TRUE", Type: typesystem.Bool}, nil
		}
		return sqlExpr{Text: "FALSE", Type: typesystem.Bool}, nil
	case *ast.StringLiteral:
		return sqlExpr{Text: stringLiteral(n.Value), Type: typesystem.String}, nil
	case *ast.Ident:
		col, ok := meta.Get(n.Name)
		if !ok {
			return sqlExpr{}, evaluator.NewException("no such column: "+n.Name, n.Loc)
		}
		return sqlExpr{Text: col.Name, Type: col.Type}, nil
	case *ast.Interpolate:
		v, err := ev.Eval(n.Expr, env)
		if err != nil {
			return sqlExpr{}, err
		}
		return literalOf(v, n.Loc)
	case *ast.UnaryOp:
		inner, err := exprToSQL(n.Target, meta, ev, env)
		if err != nil {
			return sqlExpr{}, err
		}
		if n.Op == ast.Negate {
			return sqlExpr{Text: "NOT (" + inner.Text + ")", Type: typesystem.Bool}, nil
		}
		return sqlExpr{Text: "-(" + inner.Text + ")", Type: inner.Type}, nil
	case *ast.BinaryOp:
		return binaryToSQL(n, meta, ev, env)
	case *ast.Switch:
		return switchToSQL(n, meta, ev, env)
	case *ast.Call:
		return callToSQL(n, meta, ev, env)
	default:
		return sqlExpr{}, evaluator.NewException("expression is not valid in a SQL pipeline context", node.Location())
	}
}

// stringLiteral renders a String value as a SQL single-quoted literal.
// Single quotes are doubled; no other escaping is applied, following
// original_source's literal writer (DESIGN.md Open Question 1/3).
func stringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func literalOf(v evaluator.Object, loc ast.SourceLocation) (sqlExpr, error) {
	switch val := v.(type) {
	case evaluator.Int:
		return sqlExpr{Text: strconv.FormatInt(val.Value, 10), Type: typesystem.Int}, nil
	case evaluator.Float:
		return sqlExpr{Text: evaluator.FormatFloat(val.Value), Type: typesystem.Float}, nil
	case evaluator.Bool:
		if val.Value {
			return sqlExpr{Text: "TRUE", Type: typesystem.Bool}, nil
		}
		return sqlExpr{Text: "FALSE", Type: typesystem.Bool}, nil
	case evaluator.String:
		return sqlExpr{Text: stringLiteral(val.Value), Type: typesystem.String}, nil
	case evaluator.Null:
		return sqlExpr{Text: "NULL", Type: typesystem.Null}, nil
	default:
		return sqlExpr{}, evaluator.NewException("value cannot be interpolated into SQL", loc)
	}
}

func binopSymbol(op ast.BinaryOperator) (string, bool) {
	switch op {
	case ast.Add:
		return "+", true
	case ast.Sub:
		return "-", true
	case ast.Mul:
		return "*", true
	case ast.Div:
		return "/", true
	case ast.Equal:
		return "=", true
	case ast.NotEqual:
		return "!=", true
	case ast.Lt:
		return "<", true
	case ast.Lte:
		return "<=", true
	case ast.Gt:
		return ">", true
	case ast.Gte:
		return ">=", true
	case ast.And:
		return "AND", true
	case ast.Or:
		return "OR", true
	default:
		return "", false
	}
}

func binaryToSQL(n *ast.BinaryOp, meta QueryMetadata, ev *evaluator.Evaluator, env *evaluator.Environment) (sqlExpr, error) {
	lhs, err := exprToSQL(n.Lhs, meta, ev, env)
	if err != nil {
		return sqlExpr{}, err
	}
	rhs, err := exprToSQL(n.Rhs, meta, ev, env)
	if err != nil {
		return sqlExpr{}, err
	}

	if n.Op == ast.Add && lhs.Type.Equal(typesystem.String) && rhs.Type.Equal(typesystem.String) {
		return sqlExpr{Text: "(" + lhs.Text + " || " + rhs.Text + ")", Type: typesystem.String}, nil
	}

	symbol, ok := binopSymbol(n.Op)
	if !ok {
		return sqlExpr{}, evaluator.NewException("operator "+n.Op.String()+" is not valid in a SQL pipeline context", n.Loc)
	}
	text := "(" + lhs.Text + " " + symbol + " " + rhs.Text + ")"

	switch n.Op {
	case ast.Equal, ast.NotEqual, ast.Lt, ast.Lte, ast.Gt, ast.Gte, ast.And, ast.Or:
		return sqlExpr{Text: text, Type: typesystem.Bool}, nil
	default:
		if lhs.Type.Equal(typesystem.Float) || rhs.Type.Equal(typesystem.Float) {
			return sqlExpr{Text: text, Type: typesystem.Float}, nil
		}
		return sqlExpr{Text: text, Type: typesystem.Int}, nil
	}
}

// switchToSQL renders a Switch as a SQL simple CASE expression: qry's
// switch matches by equality against the target, which is exactly what a
// simple CASE already does.
func switchToSQL(n *ast.Switch, meta QueryMetadata, ev *evaluator.Evaluator, env *evaluator.Environment) (sqlExpr, error) {
	target, err := exprToSQL(n.Target, meta, ev, env)
	if err != nil {
		return sqlExpr{}, err
	}
	var sb strings.Builder
	sb.WriteString("CASE ")
	sb.WriteString(target.Text)
	var resultType typesystem.Type
	for i, c := range n.Cases {
		caseExpr, err := exprToSQL(c.Expr, meta, ev, env)
		if err != nil {
			return sqlExpr{}, err
		}
		retExpr, err := exprToSQL(c.Returns, meta, ev, env)
		if err != nil {
			return sqlExpr{}, err
		}
		if i == 0 {
			resultType = retExpr.Type
		}
		sb.WriteString(" WHEN ")
		sb.WriteString(caseExpr.Text)
		sb.WriteString(" THEN ")
		sb.WriteString(retExpr.Text)
	}
	sb.WriteString(" END")
	return sqlExpr{Text: sb.String(), Type: resultType}, nil
}

// callToSQL lowers an aggregation call (e.g. `sum(age)`). The argument must
// be a single Int column, the same restriction the Vector<T> generic
// resolver applies (spec.md §4 Supplemented Features item 4); anything else
// is a plain error rather than a silently wrong SQL type. The result type
// is Float for AVG and Int otherwise, and `count()` with no argument lowers
// to COUNT(*).
func callToSQL(n *ast.Call, meta QueryMetadata, ev *evaluator.Evaluator, env *evaluator.Environment) (sqlExpr, error) {
	ident, ok := n.Target.(*ast.Ident)
	if !ok {
		return sqlExpr{}, evaluator.NewException("aggregate target must be a name", n.Loc)
	}
	fn, ok := aggFuncs[ident.Name]
	if !ok {
		return sqlExpr{}, evaluator.NewException("unknown aggregate function: "+ident.Name, n.Loc)
	}
	if fn == "COUNT" && len(n.Positional) == 0 {
		return sqlExpr{Text: "COUNT(*)", Type: typesystem.Int}, nil
	}
	if len(n.Positional) != 1 {
		return sqlExpr{}, evaluator.NewException(ident.Name+" takes exactly one column argument", n.Loc)
	}
	arg, err := exprToSQL(n.Positional[0], meta, ev, env)
	if err != nil {
		return sqlExpr{}, err
	}
	if !arg.Type.Equal(typesystem.Int) {
		return sqlExpr{}, evaluator.NewException(ident.Name+" is only supported over Int columns", n.Loc)
	}
	resultType := typesystem.Int
	if fn == "AVG" {
		resultType = typesystem.Float
	}
	return sqlExpr{Text: fn + "(" + arg.Text + ")", Type: resultType}, nil
}
