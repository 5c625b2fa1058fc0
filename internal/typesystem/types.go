// Package typesystem defines the closed set of Type values used for method
// dispatch, argument binding and return-type checking (spec.md §3's Type
// variant and §4.2). Unlike the teacher's typesystem package, which builds a
// full Hindley-Milner TCon/TApp lattice for static inference, this Type is a
// small runtime tag: qry has no static type checker, so Type only needs to
// answer "what is this value" and "does this native type match that
// generic instantiation".
package typesystem

import "github.com/google/uuid"

// Kind discriminates the concrete Type variants.
type Kind int

const (
	KAny Kind = iota
	KNull
	KInt
	KFloat
	KBool
	KString
	KType // the type of Type values themselves
	KFunction
	KBuiltin
	KMethod
	KLibrary
	KSyntax            // unevaluated AST handed to SyntaxPlaceholder parameters
	KSyntaxPlaceholder // the parameter-declaration marker, not a value tag
	KList
	KNative
)

func (k Kind) String() string {
	switch k {
	case KAny:
		return "Any"
	case KNull:
		return "Null"
	case KInt:
		return "Int"
	case KFloat:
		return "Float"
	case KBool:
		return "Bool"
	case KString:
		return "String"
	case KType:
		return "Type"
	case KFunction:
		return "Function"
	case KBuiltin:
		return "Builtin"
	case KMethod:
		return "Method"
	case KLibrary:
		return "Library"
	case KSyntax:
		return "Syntax"
	case KSyntaxPlaceholder:
		return "SyntaxPlaceholder"
	case KList:
		return "List"
	case KNative:
		return "Native"
	default:
		return "?"
	}
}

// NativeDescriptor identifies a native type exposed by a standard library
// (e.g. data::DataFrame, data::Connection, data::IntVector). Identity is by
// ID, not Name, so two libraries can each register a "Connection" native
// type without colliding (spec.md §3's Value::Native(NativeDescriptor)).
//
// GenericResolver is non-nil only for generic native types such as
// Vector<T>: given the instantiating type arguments, it returns the
// concrete Type to use (e.g. Vector<Int> -> IntVector), or an
// error if the type arguments aren't supported (spec.md §4 Supplemented
// Features item 4: this MVP resolver only ever succeeds for Vector<Int>).
type NativeDescriptor struct {
	ID              uuid.UUID
	Name            string
	GenericResolver func(typeArgs []Type) (Type, error)
}

// NewNativeDescriptor allocates a NativeDescriptor with a fresh stable ID.
func NewNativeDescriptor(name string) NativeDescriptor {
	return NativeDescriptor{ID: uuid.New(), Name: name}
}

// Type is the runtime type tag attached to every Value.
type Type struct {
	Kind   Kind
	Native NativeDescriptor // valid when Kind == KNative
}

// Primitive type singletons, matching spec.md §3's Type variant list.
var (
	Any    = Type{Kind: KAny}
	Null   = Type{Kind: KNull}
	Int    = Type{Kind: KInt}
	Float  = Type{Kind: KFloat}
	Bool   = Type{Kind: KBool}
	String = Type{Kind: KString}
	TypeT  = Type{Kind: KType}

	Function          = Type{Kind: KFunction}
	Builtin           = Type{Kind: KBuiltin}
	Method            = Type{Kind: KMethod}
	Library           = Type{Kind: KLibrary}
	Syntax            = Type{Kind: KSyntax}
	SyntaxPlaceholder = Type{Kind: KSyntaxPlaceholder}
	List              = Type{Kind: KList}
)

// Native wraps a NativeDescriptor as a Type.
func Native(d NativeDescriptor) Type {
	return Type{Kind: KNative, Native: d}
}

// String renders the type the way error messages and to_string(Type) do.
func (t Type) String() string {
	if t.Kind == KNative {
		return t.Native.Name
	}
	return t.Kind.String()
}

// Equal reports whether two types are the same type for dispatch purposes.
// Native types compare by descriptor ID, matching spec.md's "identity, not
// structural" equality for natives (two distinct Vector<T> instantiations
// with different element types are different natives).
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind == KNative {
		return t.Native.ID == other.Native.ID
	}
	return true
}

// AssignableFrom reports whether a value of type from satisfies a
// parameter declared as type to — Any accepts everything, otherwise exact
// match is required (qry has no subtyping, per spec.md §4.4).
func AssignableFrom(to, from Type) bool {
	if to.Kind == KAny {
		return true
	}
	return to.Equal(from)
}
