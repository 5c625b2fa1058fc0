package evaluator

import (
	"hash/fnv"
	"math"
	"strconv"
	"strings"

	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/typesystem"
)

// Object is the runtime representation of every qry value (spec.md §3's
// Value variant). Every concrete Object also reports its typesystem.Type so
// Method dispatch (method.go) can match argument tuples against
// registered implementations.
type Object interface {
	Type() typesystem.Type
	Inspect() string
	Hash() uint32
}

// Null is the sole value of type Null.
type Null struct{}

func (Null) Type() typesystem.Type { return typesystem.Null }
func (Null) Inspect() string       { return "null" }
func (Null) Hash() uint32          { return 0 }

// Int wraps a native int64, matching spec.md's 64-bit integer semantics
// (DESIGN.md Open Question 2: overflow wraps the way Go's int64 does).
type Int struct{ Value int64 }

func (i Int) Type() typesystem.Type { return typesystem.Int }
func (i Int) Inspect() string       { return strconv.FormatInt(i.Value, 10) }
func (i Int) Hash() uint32          { return hashString("i:" + i.Inspect()) }

// Float wraps a native float64.
type Float struct{ Value float64 }

func (f Float) Type() typesystem.Type { return typesystem.Float }
func (f Float) Inspect() string       { return FormatFloat(f.Value) }
func (f Float) Hash() uint32          { return hashString("f:" + f.Inspect()) }

// FormatFloat renders v the way spec.md §4.8 requires for to_string(Float)
// and §4.9's SQL literal lowering: round-trippable, so an integer-valued
// float like 1.0 prints as "1.0" and not "1" (strconv's 'g' formatting on
// its own drops the fractional part for exact integers).
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Bool wraps a native bool.
type Bool struct{ Value bool }

func (b Bool) Type() typesystem.Type { return typesystem.Bool }
func (b Bool) Inspect() string       { return strconv.FormatBool(b.Value) }
func (b Bool) Hash() uint32          { return hashString("b:" + b.Inspect()) }

var (
	True  = Bool{Value: true}
	False = Bool{Value: false}
)

func NativeBool(b bool) Bool {
	if b {
		return True
	}
	return False
}

// String wraps a native Go string.
type String struct{ Value string }

func (s String) Type() typesystem.Type { return typesystem.String }
func (s String) Inspect() string       { return s.Value }
func (s String) Hash() uint32          { return hashString("s:" + s.Value) }

// TypeValue reifies a typesystem.Type as a first-class value, e.g. the
// identifier `Int` evaluates to TypeValue{typesystem.Int}.
type TypeValue struct{ Value typesystem.Type }

func (t TypeValue) Type() typesystem.Type { return typesystem.TypeT }
func (t TypeValue) Inspect() string       { return t.Value.String() }
func (t TypeValue) Hash() uint32          { return hashString("t:" + t.Value.String()) }

// List is an immutable, ordered sequence of Objects.
type List struct{ Elements []Object }

func (l List) Type() typesystem.Type { return typesystem.List }
func (l List) Inspect() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range l.Elements {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.Inspect())
	}
	sb.WriteByte(']')
	return sb.String()
}
func (l List) Hash() uint32 {
	h := fnv.New32a()
	for _, e := range l.Elements {
		var b [4]byte
		v := e.Hash()
		b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
		h.Write(b[:])
	}
	return h.Sum32()
}

// Syntax wraps a raw, unevaluated ast.Node — the Value bound to a
// SyntaxPlaceholder parameter (spec.md §4.4).
type Syntax struct{ Node ast.Node }

func (s Syntax) Type() typesystem.Type { return typesystem.Syntax }
func (s Syntax) Inspect() string       { return "<syntax>" }
func (s Syntax) Hash() uint32          { return hashString("syntax") }

// Function is a closure: captured environment plus its declaration.
type Function struct {
	Name       string // empty for anonymous function literals
	Params     []ast.ParamDef
	ParamTypes []typesystem.Type // resolved from Params[i].Type at definition time
	ReturnType typesystem.Type
	Body       []ast.Node
	Env        *Environment
}

func (f Function) Type() typesystem.Type { return typesystem.Function }
func (f Function) Inspect() string {
	if f.Name != "" {
		return "<function " + f.Name + ">"
	}
	return "<function>"
}
func (f Function) Hash() uint32 { return hashString("fn:" + f.Name) }

// CallContext carries the evaluator and call-site environment into a
// BuiltinFn/MethodImpl, so library functions that build a deferred
// computation (e.g. data::filter capturing a predicate to be rendered
// later) can still resolve Interpolate sub-expressions against the scope
// the call happened in.
type CallContext struct {
	Eval *Evaluator
	Env  *Environment
	Loc  ast.SourceLocation
}

// BuiltinFn is a Go-implemented callable registered by a standard library.
type BuiltinFn func(ctx *CallContext, args []Object) (Object, error)

// Builtin wraps a BuiltinFn with the name it was registered under.
type Builtin struct {
	Name string
	Fn   BuiltinFn
}

func (b Builtin) Type() typesystem.Type { return typesystem.Builtin }
func (b Builtin) Inspect() string       { return "<builtin " + b.Name + ">" }
func (b Builtin) Hash() uint32          { return hashString("builtin:" + b.Name) }

// LazyBuiltinFn is a Go-implemented callable that receives its first
// argument pre-evaluated (self — the pipeline/table value a data:: verb
// operates on) and every remaining argument as raw, unevaluated syntax.
// This is how data::filter/select/mutate/group_by/aggregate capture column
// expressions like `price * qty` without the evaluator rejecting `price`
// as an undefined name: the expression is only ever lowered to SQL text
// against a pipeline's column metadata (internal/pipeline), never
// evaluated as an ordinary qry expression.
type LazyBuiltinFn func(ctx *CallContext, self Object, rest []ast.Node, named []ast.NamedArg) (Object, error)

// LazyBuiltin wraps a LazyBuiltinFn with the name it was registered under.
type LazyBuiltin struct {
	Name string
	Fn   LazyBuiltinFn
}

func (b LazyBuiltin) Type() typesystem.Type { return typesystem.Builtin }
func (b LazyBuiltin) Inspect() string       { return "<builtin " + b.Name + ">" }
func (b LazyBuiltin) Hash() uint32          { return hashString("builtin:" + b.Name) }

// RawBuiltinFn is a Go-implemented callable whose entire argument list stays
// unevaluated syntax — the general form of a SyntaxPlaceholder parameter
// (spec.md §4.4) for builtins that have no evaluated "self" to thread the
// way LazyBuiltin's pipeline verbs do. core::parse is the one stdlib use: it
// has to receive the call's raw argument node, not whatever evaluating that
// node would produce.
type RawBuiltinFn func(ctx *CallContext, args []ast.Node, named []ast.NamedArg) (Object, error)

// RawBuiltin wraps a RawBuiltinFn with the name it was registered under.
type RawBuiltin struct {
	Name string
	Fn   RawBuiltinFn
}

func (b RawBuiltin) Type() typesystem.Type { return typesystem.Builtin }
func (b RawBuiltin) Inspect() string       { return "<builtin " + b.Name + ">" }
func (b RawBuiltin) Hash() uint32          { return hashString("builtin:" + b.Name) }

// Library is a namespace of bindings reached via `use` or `::` Access
// (spec.md §4.7/§4.8): ops, core and data are each a Library value.
type Library struct {
	Name     string
	Bindings map[string]Object
}

func (l *Library) Type() typesystem.Type { return typesystem.Library }
func (l *Library) Inspect() string       { return "<library " + l.Name + ">" }
func (l *Library) Hash() uint32          { return hashString("library:" + l.Name) }

// Native wraps an arbitrary Go value behind a typesystem.NativeDescriptor —
// data::Connection, data::DataFrame, data::QueryPipeline and the Vector<T>
// family are all represented this way (spec.md §3's Value::Native).
type Native struct {
	Descriptor typesystem.NativeDescriptor
	Value      any
}

func (n Native) Type() typesystem.Type { return typesystem.Native(n.Descriptor) }
func (n Native) Inspect() string       { return "<" + n.Descriptor.Name + ">" }
func (n Native) Hash() uint32          { return hashString("native:" + n.Descriptor.Name) }

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
