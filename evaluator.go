package cobalt

import "context"

// Evaluator is the interface implemented by types that can compile and
// evaluate the expressions defined in rules. The expr package provides
// the native implementation.
type Evaluator interface {
	// Compile pre-processes the expression, returning a compiled
	// version. The engine stores the compiled version in the rule,
	// later providing it back to the evaluator.
	//
	// collectDiagnostics instructs the compiler to generate additional
	// information to help provide diagnostic information on the
	// evaluation later. dryRun performs the compilation but does not
	// return the compiled program, mainly for the purpose of checking
	// rule correctness.
	Compile(expr string, s Schema, resultType Type, collectDiagnostics, dryRun bool) (interface{}, error)

	// Evaluate tests the rule expression against the data.
	// Returns the result of the evaluation and, when requested and
	// supported, per-node diagnostic information.
	Evaluate(ctx context.Context, data map[string]interface{}, expr string, s Schema,
		self interface{}, prog interface{}, resultType Type, returnDiagnostics bool) (Value, *Diagnostics, error)
}
