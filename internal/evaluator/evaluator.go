// Package evaluator tree-walks an internal/ast.Node, holding the runtime
// Object/Environment/Method model and the exception/stack-frame machinery
// spec.md §4 describes. The dispatch shape — one big type switch in Eval,
// a bounded call stack guarding against runaway recursion — follows the
// teacher's evaluator.go/evalCore, adapted to qry's own Object variants and
// its snapshot-copy Environment (see environment.go's doc comment).
package evaluator

import (
	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/typesystem"
)

// maxCallDepth bounds recursive Function calls; exceeding it raises an
// Exception rather than letting the Go stack overflow the process (the
// teacher's evaluator.go guards the same way with its own maxEvalDepth).
const maxCallDepth = 10000

// CallFrame is one entry of the evaluator's call stack, used both to guard
// recursion depth and to build an Exception's reported trace.
type CallFrame struct {
	Name     string
	Location ast.SourceLocation
}

// Evaluator walks syntax trees against a global environment, threading a
// call stack for recursion-depth checking and exception traces.
type Evaluator struct {
	Global    *Environment
	callStack []CallFrame
}

// New creates an Evaluator with an empty global environment. Callers
// install standard libraries (internal/stdlib) into Global before running
// user source.
func New() *Evaluator {
	return &Evaluator{Global: NewEnvironment()}
}

// Eval evaluates node in env, returning the resulting Object or an error
// (always an *Exception, returned as the plain error interface type).
func (e *Evaluator) Eval(node ast.Node, env *Environment) (Object, error) {
	return e.evalCore(node, env)
}

// EvalProgram evaluates a top-level sequence of statements, returning the
// value of the last one (or Null for an empty program), matching spec.md
// §4.6's "a block's value is its last statement's value".
func (e *Evaluator) EvalProgram(nodes []ast.Node, env *Environment) (Object, error) {
	var result Object = Null{}
	for _, n := range nodes {
		v, err := e.Eval(n, env)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func (e *Evaluator) evalCore(node ast.Node, env *Environment) (Object, error) {
	switch n := node.(type) {
	case *ast.NullLiteral:
		return Null{}, nil
	case *ast.IntLiteral:
		return Int{Value: n.Value}, nil
	case *ast.FloatLiteral:
		return Float{Value: n.Value}, nil
	case *ast.BoolLiteral:
		return NativeBool(n.Value), nil
	case *ast.StringLiteral:
		return String{Value: n.Value}, nil
	case *ast.Ident:
		return e.evalIdent(n, env)
	case *ast.Interpolate:
		return nil, NewException("{{ }} interpolation is only valid inside a pipeline expression", n.Loc)
	case *ast.Use:
		return e.evalUse(n, env)
	case *ast.BinaryOp:
		return e.evalBinaryOp(n, env)
	case *ast.UnaryOp:
		return e.evalUnaryOp(n, env)
	case *ast.Function:
		return e.evalFunction(n, env)
	case *ast.Call:
		return e.evalCall(n, env)
	case *ast.Switch:
		return e.evalSwitch(n, env)
	case *ast.Index:
		return e.evalIndex(n, env)
	case *ast.GenericInstantiation:
		return e.evalGenericInstantiation(n, env)
	default:
		return nil, NewException("cannot evaluate node", ast.Unknown)
	}
}

func (e *Evaluator) evalIdent(n *ast.Ident, env *Environment) (Object, error) {
	if v, ok := env.Get(n.Name); ok {
		return v, nil
	}
	if t, ok := typeByName(n.Name); ok {
		return TypeValue{Value: t}, nil
	}
	return nil, NewException("undefined name: "+n.Name, n.Loc)
}

func typeByName(name string) (typesystem.Type, bool) {
	switch name {
	case "Any":
		return typesystem.Any, true
	case "Null":
		return typesystem.Null, true
	case "Int":
		return typesystem.Int, true
	case "Float":
		return typesystem.Float, true
	case "Bool":
		return typesystem.Bool, true
	case "String":
		return typesystem.String, true
	case "Type":
		return typesystem.TypeT, true
	case "Function":
		return typesystem.Function, true
	case "List":
		return typesystem.List, true
	case "Syntax":
		return typesystem.Syntax, true
	default:
		return typesystem.Type{}, false
	}
}

func (e *Evaluator) evalUse(n *ast.Use, env *Environment) (Object, error) {
	lib, err := e.resolveLibraryPath(n.From, n.Loc, env)
	if err != nil {
		return nil, err
	}
	if n.Import.Wildcard {
		for name, v := range lib.Bindings {
			env.Set(name, v)
		}
		return lib, nil
	}
	for _, name := range n.Import.Names {
		v, ok := lib.Bindings[name]
		if !ok {
			return nil, NewException("no binding named "+name+" in "+lib.Name, n.Loc)
		}
		env.Set(name, v)
	}
	return lib, nil
}

// resolveLibraryPath looks up a `::`-separated library path against the
// globally registered libraries (spec.md §4.8: ops/core/data), since qry
// has no file-system module loader (see DESIGN.md's Non-goal note on
// internal/modules).
func (e *Evaluator) resolveLibraryPath(path []string, loc ast.SourceLocation, env *Environment) (*Library, error) {
	if len(path) == 0 {
		return nil, NewException("empty use path", loc)
	}
	root, ok := e.Global.Get(path[0])
	if !ok {
		return nil, NewException("no library named "+path[0], loc)
	}
	lib, ok := root.(*Library)
	if !ok {
		return nil, NewException(path[0]+" is not a library", loc)
	}
	for _, seg := range path[1:] {
		v, ok := lib.Bindings[seg]
		if !ok {
			return nil, NewException("no library named "+seg+" in "+lib.Name, loc)
		}
		lib, ok = v.(*Library)
		if !ok {
			return nil, NewException(seg+" is not a library", loc)
		}
	}
	return lib, nil
}
