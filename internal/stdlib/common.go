package stdlib

import "github.com/nyrkio/qry/internal/ast"

// nilLoc is used by builtins/Method implementations that raise an
// Exception without a source node at hand. When the implementation is
// reached through a call, the evaluator's call path pushes the real
// call-site frame on top (see internal/evaluator/call.go's invoke); operator
// and index dispatch (Method.Dispatch from expressions.go) push no frame of
// their own.
func nilLoc() ast.SourceLocation { return ast.Unknown }
