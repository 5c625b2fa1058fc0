package evaluator

import (
	"strings"

	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/typesystem"
)

// Frame is one entry of an Exception's call stack, recorded when the
// exception is raised and unwound through (spec.md §7's Exception
// taxonomy).
type Frame struct {
	Name     string // function name, or "<anonymous>"
	Location ast.SourceLocation
}

// Exception is the single error type every qry runtime failure is carried
// as. It implements Go's error interface so it can cross internal package
// boundaries as a plain error, but it also keeps the stack-frame trail
// spec.md's error model asks for.
type Exception struct {
	Message  string
	Location ast.SourceLocation
	Stack    []Frame
}

// NewException creates an exception at loc with no stack frames yet.
func NewException(message string, loc ast.SourceLocation) *Exception {
	return &Exception{Message: message, Location: loc}
}

// Error implements the error interface, returning the single-line message
// (the full stacktrace rendering is Error()'s multi-line sibling, String).
func (e *Exception) Error() string {
	return e.Message
}

// Push records a stack frame as the exception unwinds out of a function
// call, innermost frame first.
func (e *Exception) Push(name string, loc ast.SourceLocation) {
	e.Stack = append(e.Stack, Frame{Name: name, Location: loc})
}

// String renders the full "exception stacktrace:" report spec.md §7
// specifies, innermost frame first, ending with the message and the
// raise-site location.
func (e *Exception) String() string {
	var sb strings.Builder
	sb.WriteString("exception stacktrace:\n")
	for _, f := range e.Stack {
		sb.WriteString("in ")
		sb.WriteString(f.Name)
		sb.WriteString(" (")
		sb.WriteString(f.Location.String())
		sb.WriteString(")\n")
	}
	sb.WriteString(e.Message)
	sb.WriteString(" (")
	sb.WriteString(e.Location.String())
	sb.WriteString(")")
	return sb.String()
}

// Object implementation, so an Exception satisfies the Object interface and
// can be inspected like any other value. Exceptions are always propagated
// as errors; qry has no construct that catches one.
func (e *Exception) Type() typesystem.Type { return typesystem.Type{Kind: typesystem.KAny} }
func (e *Exception) Inspect() string       { return e.String() }
func (e *Exception) Hash() uint32          { return hashString("exception:" + e.Message) }

// typeMismatch is a small helper every binder/dispatcher uses to format a
// consistent "expected X, got Y" exception.
func typeMismatch(loc ast.SourceLocation, expected typesystem.Type, got Object) *Exception {
	return NewException(
		"expected "+expected.String()+", got "+got.Type().String(),
		loc,
	)
}
