package evaluator

import (
	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/typesystem"
)

// evalBinaryOp special-cases the four structural operators — assignment,
// reverse assignment, namespace access and pipe — and otherwise dispatches
// through the Method registered for the operator's name in the `ops`
// library (spec.md §4.6).
func (e *Evaluator) evalBinaryOp(n *ast.BinaryOp, env *Environment) (Object, error) {
	switch n.Op {
	case ast.LAssign:
		return e.evalAssign(n.Lhs, n.Rhs, n.Loc, env)
	case ast.RAssign:
		return e.evalAssign(n.Rhs, n.Lhs, n.Loc, env)
	case ast.Access:
		return e.evalAccess(n, env)
	case ast.Pipe:
		return e.evalPipe(n, env)
	}

	lhs, err := e.Eval(n.Lhs, env)
	if err != nil {
		return nil, err
	}
	rhs, err := e.Eval(n.Rhs, env)
	if err != nil {
		return nil, err
	}

	method, ok := e.lookupOpMethod(n.Op)
	if !ok {
		return nil, NewException("operator "+n.Op.String()+" is not defined", n.Loc)
	}
	return method.Dispatch(&CallContext{Eval: e, Env: env, Loc: n.Loc}, []Object{lhs, rhs})
}

// evalAssign binds name <- value into env, where name must be an Ident.
func (e *Evaluator) evalAssign(nameNode, valueNode ast.Node, loc ast.SourceLocation, env *Environment) (Object, error) {
	ident, ok := nameNode.(*ast.Ident)
	if !ok {
		return nil, NewException("left-hand side of assignment must be a name", loc)
	}
	val, err := e.Eval(valueNode, env)
	if err != nil {
		return nil, err
	}
	env.Set(ident.Name, val)
	return val, nil
}

// evalAccess resolves `lhs::rhs`: lhs must evaluate to a Library and rhs
// must be an Ident naming one of its bindings.
func (e *Evaluator) evalAccess(n *ast.BinaryOp, env *Environment) (Object, error) {
	ident, ok := n.Rhs.(*ast.Ident)
	if !ok {
		return nil, NewException("right-hand side of :: must be a name", n.Loc)
	}
	lhs, err := e.Eval(n.Lhs, env)
	if err != nil {
		return nil, err
	}
	lib, ok := lhs.(*Library)
	if !ok {
		return nil, NewException("left-hand side of :: must be a library", n.Loc)
	}
	v, ok := lib.Bindings[ident.Name]
	if !ok {
		return nil, NewException("no binding named "+ident.Name+" in "+lib.Name, n.Loc)
	}
	return v, nil
}

// evalPipe evaluates `value |> target(args...)` by evaluating value once
// and calling target with value prepended to its positional arguments —
// this is how a table expression threads through filter/group_by/aggregate
// into the SQL pipeline compiler (spec.md §4.9).
func (e *Evaluator) evalPipe(n *ast.BinaryOp, env *Environment) (Object, error) {
	lhs, err := e.Eval(n.Lhs, env)
	if err != nil {
		return nil, err
	}

	call, ok := n.Rhs.(*ast.Call)
	if !ok {
		// `x |> f` with no call syntax: treat f as a single-argument call.
		call = &ast.Call{Loc: n.Rhs.Location(), Target: n.Rhs}
	}

	target, err := e.Eval(call.Target, env)
	if err != nil {
		return nil, err
	}

	if lb, ok := target.(LazyBuiltin); ok {
		ctx := &CallContext{Eval: e, Env: env, Loc: n.Loc}
		v, err := lb.Fn(ctx, lhs, call.Positional, call.Named)
		if err != nil {
			if exc, ok := err.(*Exception); ok {
				exc.Push(lb.Name, n.Loc)
				return nil, exc
			}
			return nil, err
		}
		return v, nil
	}

	if rb, ok := target.(RawBuiltin); ok {
		ctx := &CallContext{Eval: e, Env: env, Loc: n.Loc}
		allArgs := append([]ast.Node{n.Lhs}, call.Positional...)
		v, err := rb.Fn(ctx, allArgs, call.Named)
		if err != nil {
			if exc, ok := err.(*Exception); ok {
				exc.Push(rb.Name, n.Loc)
				return nil, exc
			}
			return nil, err
		}
		return v, nil
	}

	args := make([]Object, 0, len(call.Positional)+1)
	args = append(args, lhs)
	for _, a := range call.Positional {
		v, err := e.Eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	named, err := e.evalNamedArgs(call.Named, env)
	if err != nil {
		return nil, err
	}
	return e.invokeEnv(target, args, named, n.Loc, env)
}

func (e *Evaluator) evalUnaryOp(n *ast.UnaryOp, env *Environment) (Object, error) {
	target, err := e.Eval(n.Target, env)
	if err != nil {
		return nil, err
	}
	method, ok := e.lookupOpMethod1(n.Op)
	if !ok {
		return nil, NewException("unary operator "+n.Op.String()+" is not defined", n.Loc)
	}
	return method.Dispatch(&CallContext{Eval: e, Env: env, Loc: n.Loc}, []Object{target})
}

// opsLibraryName is the well-known name the `ops` standard library is
// registered under in the global environment (internal/stdlib/ops.go).
const opsLibraryName = "ops"

func (e *Evaluator) opsLibrary() (*Library, bool) {
	v, ok := e.Global.Get(opsLibraryName)
	if !ok {
		return nil, false
	}
	lib, ok := v.(*Library)
	return lib, ok
}

func binaryOpMethodName(op ast.BinaryOperator) string {
	switch op {
	case ast.Add:
		return "add"
	case ast.Sub:
		return "sub"
	case ast.Mul:
		return "mul"
	case ast.Div:
		return "div"
	case ast.Equal:
		return "eq"
	case ast.NotEqual:
		return "neq"
	case ast.Lt:
		return "lt"
	case ast.Lte:
		return "lte"
	case ast.Gt:
		return "gt"
	case ast.Gte:
		return "gte"
	case ast.And:
		return "and"
	case ast.Or:
		return "or"
	default:
		return ""
	}
}

func unaryOpMethodName(op ast.UnaryOperator) string {
	if op == ast.Negate {
		return "not"
	}
	return "neg"
}

func (e *Evaluator) lookupOpMethod(op ast.BinaryOperator) (*Method, bool) {
	lib, ok := e.opsLibrary()
	if !ok {
		return nil, false
	}
	name := binaryOpMethodName(op)
	v, ok := lib.Bindings[name]
	if !ok {
		return nil, false
	}
	m, ok := v.(*Method)
	return m, ok
}

func (e *Evaluator) lookupOpMethod1(op ast.UnaryOperator) (*Method, bool) {
	lib, ok := e.opsLibrary()
	if !ok {
		return nil, false
	}
	v, ok := lib.Bindings[unaryOpMethodName(op)]
	if !ok {
		return nil, false
	}
	m, ok := v.(*Method)
	return m, ok
}

func (e *Evaluator) evalFunction(n *ast.Function, env *Environment) (Object, error) {
	if n.Header.Kind == ast.HeaderMethodImpl {
		return e.evalMethodImpl(n, env)
	}

	fnEnv := env.Child()
	paramTypes := make([]typesystem.Type, len(n.Params))
	for i, p := range n.Params {
		t, err := e.resolveTypeExpr(p.Type, env)
		if err != nil {
			return nil, err
		}
		paramTypes[i] = t
	}
	var retType typesystem.Type
	if n.ReturnType != nil {
		t, err := e.resolveTypeExpr(n.ReturnType, env)
		if err != nil {
			return nil, err
		}
		retType = t
	} else {
		retType = typesystem.Any
	}

	fn := Function{
		Name:       n.Header.Name,
		Params:     n.Params,
		ParamTypes: paramTypes,
		ReturnType: retType,
		Body:       n.Body,
		Env:        fnEnv,
	}
	if fn.Name != "" {
		fnEnv.Set(fn.Name, fn) // self-reference for recursion
		env.Set(fn.Name, fn)
	}
	return fn, nil
}

// evalMethodImpl registers n as an overload of the Method named by its
// ImplFor node, creating the Method if this is its first implementation
// (spec.md §4.5's `impl` statement).
//
// ImplFor is commonly a `lib::name` access chain (`impl ops::add(...)`,
// spec.md §8 scenario 4) rather than a bare Ident: operator dispatch
// (evalBinaryOp's lookupOpMethod) always resolves "+" by looking up the
// exact *Method object living at the `ops` library's "add" binding, so an
// `impl ops::add` has to mutate that same object in place — registering a
// new standalone "add" binding in env, as a plain `impl add(...)` would,
// would silently never be consulted by `+`.
func (e *Evaluator) evalMethodImpl(n *ast.Function, env *Environment) (Object, error) {
	name, lib, err := e.resolveImplTarget(n.Header.ImplFor, env)
	if err != nil {
		return nil, err
	}

	paramTypes := make([]typesystem.Type, len(n.Params))
	for i, p := range n.Params {
		t, err := e.resolveTypeExpr(p.Type, env)
		if err != nil {
			return nil, err
		}
		paramTypes[i] = t
	}
	returnType := typesystem.Any
	if n.ReturnType != nil {
		t, err := e.resolveTypeExpr(n.ReturnType, env)
		if err != nil {
			return nil, err
		}
		returnType = t
	}

	var method *Method
	if lib != nil {
		if existing, ok := lib.Bindings[name]; ok {
			m, ok := existing.(*Method)
			if !ok {
				return nil, NewException(name+" is not a method", n.Loc)
			}
			method = m
		} else {
			method = NewMethod(name, len(n.Params))
			lib.Bindings[name] = method
		}
	} else if existing, ok := env.Get(name); ok {
		m, ok := existing.(*Method)
		if !ok {
			return nil, NewException(name+" is not a method", n.Loc)
		}
		method = m
	} else {
		method = NewMethod(name, len(n.Params))
		env.Set(name, method)
	}

	body, capturedEnv := n.Body, env
	fn := func(_ *CallContext, args []Object) (Object, error) {
		callEnv := capturedEnv.Child()
		for i, p := range n.Params {
			callEnv.Set(p.Name, args[i])
		}
		return e.callBody(name, body, callEnv, n.Loc)
	}
	if err := method.Register(paramTypes, returnType, fn); err != nil {
		return nil, err
	}
	return method, nil
}

// resolveImplTarget extracts the method name an `impl` header names, and,
// if the header qualifies it with a library (`lib::name`), that Library —
// so the caller can register the overload directly into the library's
// existing binding instead of a same-named local shadow.
func (e *Evaluator) resolveImplTarget(node ast.Node, env *Environment) (string, *Library, error) {
	switch t := node.(type) {
	case *ast.Ident:
		return t.Name, nil, nil
	case *ast.BinaryOp:
		if t.Op != ast.Access {
			return "", nil, NewException("impl target must be a name", node.Location())
		}
		ident, ok := t.Rhs.(*ast.Ident)
		if !ok {
			return "", nil, NewException("impl target must be a name", node.Location())
		}
		lhs, err := e.Eval(t.Lhs, env)
		if err != nil {
			return "", nil, err
		}
		lib, ok := lhs.(*Library)
		if !ok {
			return "", nil, NewException("left-hand side of :: must be a library", node.Location())
		}
		return ident.Name, lib, nil
	default:
		return "", nil, NewException("impl target must be a name", node.Location())
	}
}

// resolveTypeExpr evaluates a type annotation node (an Ident naming a type,
// or a GenericInstantiation) to a typesystem.Type.
func (e *Evaluator) resolveTypeExpr(node ast.Node, env *Environment) (typesystem.Type, error) {
	if node == nil {
		return typesystem.Any, nil
	}
	if ident, ok := node.(*ast.Ident); ok && ident.Name == "Syntax" {
		return typesystem.SyntaxPlaceholder, nil
	}
	v, err := e.Eval(node, env)
	if err != nil {
		return typesystem.Type{}, err
	}
	tv, ok := v.(TypeValue)
	if !ok {
		return typesystem.Type{}, NewException("expected a type expression", node.Location())
	}
	return tv.Value, nil
}

// evalSwitch returns Null when no case matches (spec.md §4.6, §8), not an
// Exception — a switch is an expression, and falling through to nothing
// is a value, not a failure.
func (e *Evaluator) evalSwitch(n *ast.Switch, env *Environment) (Object, error) {
	target, err := e.Eval(n.Target, env)
	if err != nil {
		return nil, err
	}
	for _, c := range n.Cases {
		caseVal, err := e.Eval(c.Expr, env)
		if err != nil {
			return nil, err
		}
		if objectsEqual(target, caseVal) {
			return e.Eval(c.Returns, env)
		}
	}
	return Null{}, nil
}

func objectsEqual(a, b Object) bool {
	if !a.Type().Equal(b.Type()) {
		return false
	}
	switch av := a.(type) {
	case Int:
		return av.Value == b.(Int).Value
	case Float:
		return av.Value == b.(Float).Value
	case Bool:
		return av.Value == b.(Bool).Value
	case String:
		return av.Value == b.(String).Value
	case Null:
		return true
	default:
		return a.Hash() == b.Hash()
	}
}

func (e *Evaluator) evalIndex(n *ast.Index, env *Environment) (Object, error) {
	target, err := e.Eval(n.Target, env)
	if err != nil {
		return nil, err
	}
	keys := make([]Object, len(n.Keys))
	for i, k := range n.Keys {
		v, err := e.Eval(k, env)
		if err != nil {
			return nil, err
		}
		keys[i] = v
	}
	lib, ok := e.opsLibrary()
	if !ok {
		return nil, NewException("ops library is not registered", n.Loc)
	}
	v, ok := lib.Bindings["index"]
	if !ok {
		return nil, NewException("index is not defined", n.Loc)
	}
	method, ok := v.(*Method)
	if !ok {
		return nil, NewException("index is not a method", n.Loc)
	}
	return method.Dispatch(&CallContext{Eval: e, Env: env, Loc: n.Loc}, append([]Object{target}, keys...))
}

func (e *Evaluator) evalGenericInstantiation(n *ast.GenericInstantiation, env *Environment) (Object, error) {
	targetVal, err := e.Eval(n.Target, env)
	if err != nil {
		return nil, err
	}
	tv, ok := targetVal.(TypeValue)
	if !ok {
		return nil, NewException("generic instantiation target must be a type", n.Loc)
	}
	if tv.Value.Kind != typesystem.KNative {
		return nil, NewException(tv.Value.String()+" is not generic", n.Loc)
	}
	if tv.Value.Native.GenericResolver == nil {
		return nil, NewException(tv.Value.String()+" is not generic", n.Loc)
	}
	typeArgs := make([]typesystem.Type, len(n.TypeArgs))
	for i, a := range n.TypeArgs {
		t, err := e.resolveTypeExpr(a, env)
		if err != nil {
			return nil, err
		}
		typeArgs[i] = t
	}
	resolved, err := tv.Value.Native.GenericResolver(typeArgs)
	if err != nil {
		return nil, NewException(err.Error(), n.Loc)
	}
	return TypeValue{Value: resolved}, nil
}
