package evaluator

import (
	"strconv"

	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/typesystem"
)

func (e *Evaluator) evalNamedArgs(named []ast.NamedArg, env *Environment) (map[string]Object, error) {
	if len(named) == 0 {
		return nil, nil
	}
	out := make(map[string]Object, len(named))
	for _, na := range named {
		v, err := e.Eval(na.Value, env)
		if err != nil {
			return nil, err
		}
		out[na.Name] = v
	}
	return out, nil
}

func (e *Evaluator) evalCall(n *ast.Call, env *Environment) (Object, error) {
	target, err := e.Eval(n.Target, env)
	if err != nil {
		return nil, err
	}

	// Function parameters declared Syntax (spec.md §4.4's SyntaxPlaceholder)
	// receive the raw, unevaluated argument node instead of its value — this
	// has to be decided before the positional arguments are evaluated, so a
	// direct Function call binds straight off n's argument nodes rather than
	// going through the generic eager-evaluation path below.
	if fn, ok := target.(Function); ok {
		args, err := e.bindFunctionArgs(fn, n, env)
		if err != nil {
			return nil, err
		}
		return e.callFunction(fn, args, n.Loc)
	}

	// RawBuiltin (core::parse): every argument stays raw, unevaluated syntax.
	if rb, ok := target.(RawBuiltin); ok {
		ctx := &CallContext{Eval: e, Env: env, Loc: n.Loc}
		v, err := rb.Fn(ctx, n.Positional, n.Named)
		if err != nil {
			if exc, ok := err.(*Exception); ok {
				exc.Push(rb.Name, n.Loc)
				return nil, exc
			}
			return nil, err
		}
		return v, nil
	}

	// LazyBuiltin (data:: pipeline verbs): the first positional argument is
	// the pipeline/table value, pre-evaluated; the rest stay raw syntax so
	// column expressions never get looked up as evaluator names.
	if lb, ok := target.(LazyBuiltin); ok {
		if len(n.Positional) == 0 {
			return nil, NewException(lb.Name+" requires a pipeline argument", n.Loc)
		}
		self, err := e.Eval(n.Positional[0], env)
		if err != nil {
			return nil, err
		}
		ctx := &CallContext{Eval: e, Env: env, Loc: n.Loc}
		v, err := lb.Fn(ctx, self, n.Positional[1:], n.Named)
		if err != nil {
			if exc, ok := err.(*Exception); ok {
				exc.Push(lb.Name, n.Loc)
				return nil, exc
			}
			return nil, err
		}
		return v, nil
	}

	args := make([]Object, 0, len(n.Positional))
	for _, a := range n.Positional {
		v, err := e.Eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	named, err := e.evalNamedArgs(n.Named, env)
	if err != nil {
		return nil, err
	}
	return e.invokeEnv(target, args, named, n.Loc, env)
}

// bindFunctionArgs evaluates n's positional and named arguments against
// fn's parameter list, passing raw Syntax for any parameter declared Syntax
// (spec.md §4.4) and evaluated, type-checked values for everything else.
func (e *Evaluator) bindFunctionArgs(fn Function, n *ast.Call, env *Environment) ([]Object, error) {
	if len(n.Positional) > len(fn.Params) {
		return nil, NewException(fn.Name+" takes "+strconv.Itoa(len(fn.Params))+" argument(s)", n.Loc)
	}
	args := make([]Object, len(fn.Params))
	bound := make([]bool, len(fn.Params))

	for i, a := range n.Positional {
		v, err := e.bindOneArg(fn.ParamTypes[i], a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
		bound[i] = true
	}
	for _, na := range n.Named {
		idx := -1
		for i, p := range fn.Params {
			if p.Name == na.Name {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, NewException(fn.Name+" has no parameter named "+na.Name, n.Loc)
		}
		v, err := e.bindOneArg(fn.ParamTypes[idx], na.Value, env)
		if err != nil {
			return nil, err
		}
		args[idx] = v
		bound[idx] = true
	}
	for i, ok := range bound {
		if !ok {
			return nil, NewException(fn.Name+" is missing argument "+fn.Params[i].Name, n.Loc)
		}
	}
	return args, nil
}

func (e *Evaluator) bindOneArg(paramType typesystem.Type, node ast.Node, env *Environment) (Object, error) {
	if paramType.Kind == typesystem.KSyntaxPlaceholder {
		return Syntax{Node: node}, nil
	}
	v, err := e.Eval(node, env)
	if err != nil {
		return nil, err
	}
	if !typesystem.AssignableFrom(paramType, v.Type()) {
		return nil, typeMismatch(node.Location(), paramType, v)
	}
	return v, nil
}

func (e *Evaluator) invoke(target Object, args []Object, named map[string]Object, loc ast.SourceLocation) (Object, error) {
	return e.invokeEnv(target, args, named, loc, e.Global)
}

// invokeEnv is invoke with an explicit call-site environment, used where
// the caller already has one at hand (Call/pipe expressions) rather than
// always falling back to the global scope.
func (e *Evaluator) invokeEnv(target Object, args []Object, named map[string]Object, loc ast.SourceLocation, env *Environment) (Object, error) {
	ctx := &CallContext{Eval: e, Env: env, Loc: loc}
	switch fn := target.(type) {
	case Function:
		// Fast path used by pipe, which has already evaluated its args
		// and so can never supply a raw Syntax argument.
		return e.callFunctionRaw(fn, args, named, loc)
	case Builtin:
		if len(named) > 0 {
			return nil, NewException(fn.Name+" does not accept named arguments", loc)
		}
		v, err := fn.Fn(ctx, args)
		if err != nil {
			if exc, ok := err.(*Exception); ok {
				exc.Push(fn.Name, loc)
				return nil, exc
			}
			return nil, err
		}
		return v, nil
	case *Method:
		v, err := fn.Dispatch(ctx, args)
		if err != nil {
			if exc, ok := err.(*Exception); ok {
				exc.Push(fn.Name, loc)
				return nil, exc
			}
			return nil, err
		}
		return v, nil
	default:
		return nil, NewException("value is not callable", loc)
	}
}

// callFunctionRaw binds already-evaluated positional/named args against
// fn's parameters.
func (e *Evaluator) callFunctionRaw(fn Function, args []Object, named map[string]Object, loc ast.SourceLocation) (Object, error) {
	if len(args) > len(fn.Params) {
		return nil, NewException(fn.Name+" takes "+strconv.Itoa(len(fn.Params))+" argument(s)", loc)
	}
	full := make([]Object, len(fn.Params))
	copy(full, args)
	for i := len(args); i < len(fn.Params); i++ {
		if v, ok := named[fn.Params[i].Name]; ok {
			full[i] = v
		} else {
			return nil, NewException(fn.Name+" is missing argument "+fn.Params[i].Name, loc)
		}
	}
	return e.callFunction(fn, full, loc)
}

func (e *Evaluator) callFunction(fn Function, args []Object, loc ast.SourceLocation) (Object, error) {
	if len(e.callStack) >= maxCallDepth {
		return nil, NewException("maximum call depth exceeded", loc)
	}
	callEnv := fn.Env.Child()
	for i, p := range fn.Params {
		callEnv.Set(p.Name, args[i])
	}
	name := fn.Name
	if name == "" {
		name = "<anonymous>"
	}
	result, err := e.callBody(name, fn.Body, callEnv, loc)
	if err != nil {
		return nil, err
	}
	if !typesystem.AssignableFrom(fn.ReturnType, result.Type()) {
		return nil, typeMismatch(loc, fn.ReturnType, result)
	}
	return result, nil
}

// callBody runs a function/impl body, pushing and popping a CallFrame so an
// Exception raised inside accumulates the stack trace spec.md §7 specifies.
func (e *Evaluator) callBody(name string, body []ast.Node, env *Environment, loc ast.SourceLocation) (Object, error) {
	e.callStack = append(e.callStack, CallFrame{Name: name, Location: loc})
	defer func() { e.callStack = e.callStack[:len(e.callStack)-1] }()

	result, err := e.EvalProgram(body, env)
	if err != nil {
		if exc, ok := err.(*Exception); ok {
			exc.Push(name, loc)
		}
		return nil, err
	}
	return result, nil
}
