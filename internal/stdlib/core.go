package stdlib

import (
	"fmt"

	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/typesystem"
)

// NewCore builds the `core` library. Unlike ops and data, core is copied
// into the global scope wholesale at boot (spec.md §4.8: core is the only
// wildcard-imported-by-default library), so every program can call
// to_string/typeof/print/list without an explicit `use`.
func NewCore() *evaluator.Library {
	lib := &evaluator.Library{Name: "core", Bindings: make(map[string]evaluator.Object)}

	for name, t := range map[string]typesystem.Type{
		"Any": typesystem.Any, "Null": typesystem.Null, "Int": typesystem.Int,
		"Float": typesystem.Float, "Bool": typesystem.Bool, "String": typesystem.String,
		"Type": typesystem.TypeT, "Function": typesystem.Function, "List": typesystem.List,
		"Syntax": typesystem.Syntax,
	} {
		lib.Bindings[name] = evaluator.TypeValue{Value: t}
	}

	lib.Bindings["to_string"] = newToStringMethod()

	lib.Bindings["typeof"] = evaluator.Builtin{Name: "typeof", Fn: func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		if len(args) != 1 {
			return nil, evaluator.NewException("typeof takes 1 argument", nilLoc())
		}
		return evaluator.TypeValue{Value: args[0].Type()}, nil
	}}

	lib.Bindings["print"] = evaluator.Builtin{Name: "print", Fn: func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		if len(args) != 1 {
			return nil, evaluator.NewException("print takes 1 argument", nilLoc())
		}
		fmt.Println(args[0].Inspect())
		return evaluator.Null{}, nil
	}}

	lib.Bindings["list"] = evaluator.Builtin{Name: "list", Fn: func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		elems := make([]evaluator.Object, len(args))
		copy(elems, args)
		return evaluator.List{Elements: elems}, nil
	}}

	// parse(SyntaxPlaceholder) -> Syntax (spec.md §4.8): parse is a
	// RawBuiltin, not a Method, because its one parameter is the general
	// SyntaxPlaceholder case (§4.4) — the call's argument node must reach
	// it unevaluated, which only Function/LazyBuiltin/RawBuiltin targets
	// get from internal/evaluator's Call/Pipe handling. Wrapping it as a
	// Method (dispatching on the already-evaluated argument's runtime type)
	// would mean `parse(1 + 2)` evaluates `1 + 2` to `Int(3)` before parse
	// ever sees it, instead of handing back the `1 + 2` Syntax node.
	lib.Bindings["parse"] = evaluator.RawBuiltin{Name: "parse", Fn: func(_ *evaluator.CallContext, args []ast.Node, _ []ast.NamedArg) (evaluator.Object, error) {
		if len(args) != 1 {
			return nil, evaluator.NewException("parse takes 1 argument", nilLoc())
		}
		return evaluator.Syntax{Node: args[0]}, nil
	}}

	return lib
}

// newToStringMethod registers a to_string overload per primitive type plus
// a catch-all default so user `impl to_string` additions layer on top
// without having to also handle the primitives (spec.md §4.5's
// DefaultImpl).
func newToStringMethod() *evaluator.Method {
	m := evaluator.NewMethodWithReturnType("to_string", 1, typesystem.String)
	str := func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.String{Value: args[0].Inspect()}, nil
	}
	m.Register([]typesystem.Type{typesystem.Int}, typesystem.String, str)
	m.Register([]typesystem.Type{typesystem.Float}, typesystem.String, str)
	m.Register([]typesystem.Type{typesystem.Bool}, typesystem.String, str)
	m.Register([]typesystem.Type{typesystem.String}, typesystem.String, str)
	m.Register([]typesystem.Type{typesystem.Null}, typesystem.String, str)
	m.RegisterDefault(typesystem.String, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.String{Value: args[0].Inspect()}, nil
	})
	return m
}
