// Package stdlib builds the standard libraries qry ships with — ops, core
// and data — following the registration idiom of the teacher's
// sqlite_init_env/virtual-package builtins: a plain Go function that
// allocates a *evaluator.Library and fills its Bindings map with Method and
// Builtin values, called once by internal/evaluator.New's caller (cmd/qry)
// to seed the global environment (spec.md §4.8).
package stdlib

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/typesystem"
)

// NewOps builds the `ops` library: every arithmetic, comparison and
// indexing Method qry's binary/unary operators dispatch through
// (spec.md §4.6's BinaryOp/UnaryOp evaluation).
func NewOps() *evaluator.Library {
	lib := &evaluator.Library{Name: "ops", Bindings: make(map[string]evaluator.Object)}

	add := evaluator.NewMethod("add", 2)
	registerArith(add, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	add.Register([]typesystem.Type{typesystem.String, typesystem.String}, typesystem.String, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.String{Value: args[0].(evaluator.String).Value + args[1].(evaluator.String).Value}, nil
	})
	lib.Bindings["add"] = add

	sub := evaluator.NewMethod("sub", 2)
	registerArith(sub, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	lib.Bindings["sub"] = sub

	mul := evaluator.NewMethod("mul", 2)
	registerArith(mul, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	lib.Bindings["mul"] = mul

	lib.Bindings["div"] = newDivMethod()

	lib.Bindings["eq"] = newCompareMethod("eq", func(c int) bool { return c == 0 })
	lib.Bindings["neq"] = newCompareMethod("neq", func(c int) bool { return c != 0 })
	lib.Bindings["lt"] = newCompareMethod("lt", func(c int) bool { return c < 0 })
	lib.Bindings["lte"] = newCompareMethod("lte", func(c int) bool { return c <= 0 })
	lib.Bindings["gt"] = newCompareMethod("gt", func(c int) bool { return c > 0 })
	lib.Bindings["gte"] = newCompareMethod("gte", func(c int) bool { return c >= 0 })

	and := evaluator.NewMethodWithReturnType("and", 2, typesystem.Bool)
	and.Register([]typesystem.Type{typesystem.Bool, typesystem.Bool}, typesystem.Bool, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.NativeBool(args[0].(evaluator.Bool).Value && args[1].(evaluator.Bool).Value), nil
	})
	lib.Bindings["and"] = and

	or := evaluator.NewMethodWithReturnType("or", 2, typesystem.Bool)
	or.Register([]typesystem.Type{typesystem.Bool, typesystem.Bool}, typesystem.Bool, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.NativeBool(args[0].(evaluator.Bool).Value || args[1].(evaluator.Bool).Value), nil
	})
	lib.Bindings["or"] = or

	not := evaluator.NewMethodWithReturnType("not", 1, typesystem.Bool)
	not.Register([]typesystem.Type{typesystem.Bool}, typesystem.Bool, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.NativeBool(!args[0].(evaluator.Bool).Value), nil
	})
	lib.Bindings["not"] = not

	neg := evaluator.NewMethod("neg", 1)
	neg.Register([]typesystem.Type{typesystem.Int}, typesystem.Int, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.Int{Value: -args[0].(evaluator.Int).Value}, nil
	})
	neg.Register([]typesystem.Type{typesystem.Float}, typesystem.Float, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.Float{Value: -args[0].(evaluator.Float).Value}, nil
	})
	lib.Bindings["neg"] = neg

	lib.Bindings["index"] = newIndexMethod()

	return lib
}

func registerArith(m *evaluator.Method, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) {
	m.Register([]typesystem.Type{typesystem.Int, typesystem.Int}, typesystem.Int, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.Int{Value: intOp(args[0].(evaluator.Int).Value, args[1].(evaluator.Int).Value)}, nil
	})
	m.Register([]typesystem.Type{typesystem.Float, typesystem.Float}, typesystem.Float, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.Float{Value: floatOp(args[0].(evaluator.Float).Value, args[1].(evaluator.Float).Value)}, nil
	})
	m.Register([]typesystem.Type{typesystem.Int, typesystem.Float}, typesystem.Float, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.Float{Value: floatOp(float64(args[0].(evaluator.Int).Value), args[1].(evaluator.Float).Value)}, nil
	})
	m.Register([]typesystem.Type{typesystem.Float, typesystem.Int}, typesystem.Float, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.Float{Value: floatOp(args[0].(evaluator.Float).Value, float64(args[1].(evaluator.Int).Value))}, nil
	})
}

// newDivMethod implements DESIGN.md's Open Question 2 decision: Int/Int
// division raises an Exception on a zero divisor instead of letting Go
// panic; Float division follows IEEE 754 (division by zero yields +/-Inf
// or NaN, never an Exception).
func newDivMethod() *evaluator.Method {
	m := evaluator.NewMethod("div", 2)
	m.Register([]typesystem.Type{typesystem.Int, typesystem.Int}, typesystem.Int, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		a, b := args[0].(evaluator.Int).Value, args[1].(evaluator.Int).Value
		if b == 0 {
			return nil, evaluator.NewException("division by zero", nilLoc())
		}
		return evaluator.Int{Value: a / b}, nil
	})
	m.Register([]typesystem.Type{typesystem.Float, typesystem.Float}, typesystem.Float, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.Float{Value: args[0].(evaluator.Float).Value / args[1].(evaluator.Float).Value}, nil
	})
	m.Register([]typesystem.Type{typesystem.Int, typesystem.Float}, typesystem.Float, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.Float{Value: float64(args[0].(evaluator.Int).Value) / args[1].(evaluator.Float).Value}, nil
	})
	m.Register([]typesystem.Type{typesystem.Float, typesystem.Int}, typesystem.Float, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.Float{Value: args[0].(evaluator.Float).Value / float64(args[1].(evaluator.Int).Value)}, nil
	})
	return m
}

func newCompareMethod(name string, test func(c int) bool) *evaluator.Method {
	m := evaluator.NewMethodWithReturnType(name, 2, typesystem.Bool)
	// collator orders String values; using golang.org/x/text/collate
	// instead of a raw byte-wise strings.Compare means qry's string ordering
	// follows Unicode collation rules rather than ASCII code-point order.
	// A Collator is not safe for concurrent use, so each Method (and thus
	// each evaluator's ops library) gets its own.
	collator := collate.New(language.Und)
	cmpInt := func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		a, b := args[0].(evaluator.Int).Value, args[1].(evaluator.Int).Value
		return evaluator.NativeBool(test(cmp64(a, b))), nil
	}
	cmpFloat := func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		a, b := args[0].(evaluator.Float).Value, args[1].(evaluator.Float).Value
		return evaluator.NativeBool(test(cmpFloat64(a, b))), nil
	}
	m.Register([]typesystem.Type{typesystem.Int, typesystem.Int}, typesystem.Bool, cmpInt)
	m.Register([]typesystem.Type{typesystem.Float, typesystem.Float}, typesystem.Bool, cmpFloat)
	m.Register([]typesystem.Type{typesystem.Int, typesystem.Float}, typesystem.Bool, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		a := float64(args[0].(evaluator.Int).Value)
		b := args[1].(evaluator.Float).Value
		return evaluator.NativeBool(test(cmpFloat64(a, b))), nil
	})
	m.Register([]typesystem.Type{typesystem.Float, typesystem.Int}, typesystem.Bool, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		a := args[0].(evaluator.Float).Value
		b := float64(args[1].(evaluator.Int).Value)
		return evaluator.NativeBool(test(cmpFloat64(a, b))), nil
	})
	m.Register([]typesystem.Type{typesystem.String, typesystem.String}, typesystem.Bool, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		a, b := args[0].(evaluator.String).Value, args[1].(evaluator.String).Value
		c := collator.CompareString(a, b)
		if c == 0 && a != b {
			// Collation ties between distinct strings fall back to byte
			// order, so equality stays structural.
			c = strings.Compare(a, b)
		}
		return evaluator.NativeBool(test(c)), nil
	})
	m.Register([]typesystem.Type{typesystem.Bool, typesystem.Bool}, typesystem.Bool, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		a, b := args[0].(evaluator.Bool).Value, args[1].(evaluator.Bool).Value
		c := 0
		if a != b {
			if a {
				c = 1
			} else {
				c = -1
			}
		}
		return evaluator.NativeBool(test(c)), nil
	})
	m.Register([]typesystem.Type{typesystem.Null, typesystem.Null}, typesystem.Bool, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.NativeBool(test(0)), nil
	})
	return m
}

func cmp64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func newIndexMethod() *evaluator.Method {
	m := evaluator.NewMethod("index", 2)
	m.Register([]typesystem.Type{typesystem.List, typesystem.Int}, typesystem.Any, func(_ *evaluator.CallContext, args []evaluator.Object) (evaluator.Object, error) {
		list := args[0].(evaluator.List)
		idx := args[1].(evaluator.Int).Value
		if idx < 0 || int(idx) >= len(list.Elements) {
			return nil, evaluator.NewException("index out of range", nilLoc())
		}
		return list.Elements[idx], nil
	})
	return m
}
