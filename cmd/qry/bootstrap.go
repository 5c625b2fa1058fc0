package main

import (
	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/stdlib"
)

// newEvaluator assembles a fresh Evaluator with ops/core/data registered
// in global scope, mirroring the teacher's evaluateModule, which builds a
// new Environment per module and registers its builtin/trait libraries
// into it before running anything (cmd/funxy/main.go). qry has no module
// system (see DESIGN.md's internal/modules deletion note), so this runs
// once per process instead of once per module.
//
// core is additionally wildcard-copied into global scope: spec.md §4.8
// singles it out as the one library every program can use without an
// explicit `use core::*`.
func newEvaluator() *evaluator.Evaluator {
	eval := evaluator.New()

	ops := stdlib.NewOps()
	core := stdlib.NewCore()
	data := stdlib.NewData(ops)

	eval.Global.Set("ops", ops)
	eval.Global.Set("core", core)
	eval.Global.Set("data", data)

	for name, v := range core.Bindings {
		eval.Global.Set(name, v)
	}

	return eval
}
