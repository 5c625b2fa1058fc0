package evaluator

import (
	"strconv"
	"strings"

	"github.com/nyrkio/qry/internal/typesystem"
)

// typeKey is the dispatch key for one argument-type tuple: the types'
// String() forms joined by a separator that can't appear in a type name.
type typeKey string

func keyOf(types []typesystem.Type) typeKey {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return typeKey(strings.Join(names, "\x00"))
}

// MethodImpl is one overload registered against a Method: the exact
// argument types it matches, its declared return type, and the Go function
// implementing it.
type MethodImpl struct {
	ParamTypes []typesystem.Type
	ReturnType typesystem.Type
	Fn         BuiltinFn
}

// Method is a multi-method: a name, a fixed arity, an optional fixed return
// type, and a table from argument-type tuples to implementations (spec.md
// §3/§4.5). `impl` statements add entries to an existing Method (or create
// one), and dispatch at a call site picks the implementation whose
// ParamTypes exactly match the actual argument types, falling back to
// DefaultImpl if present.
//
// ReturnType is nil for methods like ops::add whose overloads legitimately
// return different types per argument tuple (Int,Int -> Int vs
// Float,Float -> Float); it is set for methods like to_string whose result
// type is the same regardless of which overload runs. When set, every
// Register/RegisterDefault call must declare that exact return type (spec.md
// §3's invariant), matching the §8 testable property that re-`impl`-ing a
// method with a mismatched return type raises at registration.
type Method struct {
	Name        string
	Arity       int
	ReturnType  *typesystem.Type
	Impls       map[typeKey]MethodImpl
	DefaultImpl *MethodImpl
}

// NewMethod creates an empty Method of the given name and arity, with no
// fixed return type constraint.
func NewMethod(name string, arity int) *Method {
	return &Method{Name: name, Arity: arity, Impls: make(map[typeKey]MethodImpl)}
}

// NewMethodWithReturnType creates an empty Method whose every registered
// implementation must declare exactly the given return type.
func NewMethodWithReturnType(name string, arity int, ret typesystem.Type) *Method {
	m := NewMethod(name, arity)
	m.ReturnType = &ret
	return m
}

func (m *Method) checkReturnType(returnType typesystem.Type) error {
	if m.ReturnType != nil && !m.ReturnType.Equal(returnType) {
		return &Exception{Message: "impl for " + m.Name + " must return " +
			m.ReturnType.String() + ", got " + returnType.String()}
	}
	return nil
}

// Register adds or replaces the overload for paramTypes (spec.md §4.5:
// re-`impl`-ing the same tuple overwrites the previous implementation).
// returnType must equal m.ReturnType when the Method has one set.
func (m *Method) Register(paramTypes []typesystem.Type, returnType typesystem.Type, fn BuiltinFn) error {
	if len(paramTypes) != m.Arity {
		return &Exception{Message: "impl for " + m.Name + " must take " +
			strconv.Itoa(m.Arity) + " argument(s)"}
	}
	if err := m.checkReturnType(returnType); err != nil {
		return err
	}
	m.Impls[keyOf(paramTypes)] = MethodImpl{ParamTypes: paramTypes, ReturnType: returnType, Fn: fn}
	return nil
}

// RegisterDefault sets the fallback implementation used when no exact
// argument-type match exists. returnType must equal m.ReturnType when the
// Method has one set.
func (m *Method) RegisterDefault(returnType typesystem.Type, fn BuiltinFn) error {
	if err := m.checkReturnType(returnType); err != nil {
		return err
	}
	m.DefaultImpl = &MethodImpl{ReturnType: returnType, Fn: fn}
	return nil
}

// Dispatch finds the overload matching args' runtime types exactly and
// calls it, falling back to DefaultImpl, and raising MethodNotImplemented
// (as an *Exception) otherwise.
func (m *Method) Dispatch(ctx *CallContext, args []Object) (Object, error) {
	loc := ctx.Loc
	if len(args) != m.Arity {
		return nil, NewException(
			m.Name+" takes "+strconv.Itoa(m.Arity)+" argument(s), got "+strconv.Itoa(len(args)), loc)
	}
	types := make([]typesystem.Type, len(args))
	for i, a := range args {
		types[i] = a.Type()
	}
	if impl, ok := m.Impls[keyOf(types)]; ok {
		return impl.Fn(ctx, args)
	}
	if m.DefaultImpl != nil {
		return m.DefaultImpl.Fn(ctx, args)
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return nil, NewException(
		"no implementation of "+m.Name+" for ("+strings.Join(names, ", ")+")", loc)
}

func (m *Method) Type() typesystem.Type { return typesystem.Method }
func (m *Method) Inspect() string       { return "<method " + m.Name + ">" }
func (m *Method) Hash() uint32          { return hashString("method:" + m.Name) }
