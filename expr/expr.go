// Package expr implements the cobalt.Evaluator interface with the
// native Cobalt expression core: the parser, the type checker and the
// step evaluator. It replaces the engine's view of an expression
// backend with this repository's own pipeline:
//
//	source -> parse -> check -> plan -> program -> evaluate
package expr

import (
	"context"
	"fmt"

	"github.com/ezachrisen/cobalt"
	"github.com/ezachrisen/cobalt/ast"
	"github.com/ezachrisen/cobalt/checker"
	"github.com/ezachrisen/cobalt/ext"
	"github.com/ezachrisen/cobalt/interp"
	"github.com/ezachrisen/cobalt/parser"
	"github.com/ezachrisen/cobalt/types"
)

// Evaluator compiles and evaluates Cobalt expressions. It is safe for
// concurrent use once constructed: the registry and base declarations
// are immutable, and each compilation builds its own environment from
// the rule's schema.
type Evaluator struct {
	registry  *interp.Registry
	container string
	functions []customFunction
	budget    int
}

type customFunction struct {
	decl     *checker.FunctionDecl
	bindings []*interp.Overload
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// Container sets the namespace used to resolve names, e.g.
// "acme.policy".
func Container(name string) Option {
	return func(e *Evaluator) { e.container = name }
}

// IterationBudget caps total comprehension iterations per evaluation.
func IterationBudget(n int) Option {
	return func(e *Evaluator) { e.budget = n }
}

// WithFunction adds a host function: its declaration for the checker
// and its runtime bindings.
func WithFunction(decl *checker.FunctionDecl, bindings ...*interp.Overload) Option {
	return func(e *Evaluator) {
		e.functions = append(e.functions, customFunction{decl: decl, bindings: bindings})
	}
}

// NewEvaluator returns an evaluator with the standard library and the
// strings and format extensions installed.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{registry: interp.NewRegistry()}
	for _, opt := range opts {
		opt(e)
	}
	for _, f := range e.functions {
		for _, b := range f.bindings {
			// Duplicate registration surfaces at compile time as a
			// missing binding; reject it here instead.
			if err := e.registry.Register(b); err != nil {
				panic(err)
			}
		}
	}
	// Extension bindings are registered once; their declarations are
	// added per-environment in newEnv.
	if err := ext.RegisterBindings(e.registry); err != nil {
		panic(err)
	}
	return e
}

// compiledRule is what Compile stores on the rule through the engine.
type compiledRule struct {
	program            *interp.Program
	checked            *checker.Result
	info               *ast.SourceInfo
	collectDiagnostics bool
}

// newEnv builds a checker environment for a schema.
func (e *Evaluator) newEnv(s cobalt.Schema) (*checker.Env, error) {
	env := checker.StandardEnv()
	env.SetContainer(e.container)
	if err := ext.Declare(env); err != nil {
		return nil, err
	}
	for _, f := range e.functions {
		if err := env.AddFunction(f.decl); err != nil {
			return nil, err
		}
	}
	decls, err := schemaToDeclarations(s)
	if err != nil {
		return nil, err
	}
	for _, d := range decls {
		if err := env.AddVariable(d); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// Compile parses, checks and plans the expression against the schema.
// The returned program is immutable and safe for concurrent
// evaluations.
func (e *Evaluator) Compile(exprSource string, s cobalt.Schema, resultType cobalt.Type,
	collectDiagnostics, dryRun bool) (interface{}, error) {

	tree, info, err := parse(exprSource)
	if err != nil {
		return nil, err
	}
	env, err := e.newEnv(s)
	if err != nil {
		return nil, err
	}
	checked := checker.Check(tree, info, env)
	if !checked.Valid() {
		return nil, fmt.Errorf("checking expression: %w", checked.Err())
	}
	if resultType != nil {
		want, err := typeToExprType(resultType)
		if err != nil {
			return nil, err
		}
		got := checked.Type(tree.ID)
		if !types.Assignable(want, got) {
			return nil, fmt.Errorf("expression produces '%s', rule requires '%s'", got, resultType)
		}
	}
	prog, err := interp.Plan(checked, e.registry)
	if err != nil {
		return nil, fmt.Errorf("planning expression: %w", err)
	}
	if dryRun {
		return nil, nil
	}
	return &compiledRule{
		program:            prog,
		checked:            checked,
		info:               info,
		collectDiagnostics: collectDiagnostics,
	}, nil
}

// Evaluate runs the compiled program against the data. Evaluation
// failures (error values) surface as Go errors; unknown values pass
// through in the result for partial evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, data map[string]interface{}, exprSource string,
	s cobalt.Schema, self interface{}, prog interface{}, resultType cobalt.Type,
	returnDiagnostics bool) (cobalt.Value, *cobalt.Diagnostics, error) {

	if exprSource == "" {
		return cobalt.Value{Val: true, Type: cobalt.Bool{}}, nil, nil
	}
	cr, ok := prog.(*compiledRule)
	if !ok || cr == nil {
		return cobalt.Value{}, nil, fmt.Errorf("expression %q has not been compiled", exprSource)
	}

	var opts []interp.EvalOption
	if e.budget > 0 {
		opts = append(opts, interp.IterationBudget(e.budget))
	}
	var state *interp.EvalState
	if returnDiagnostics && cr.collectDiagnostics {
		state = interp.NewEvalState()
		opts = append(opts, interp.WithState(state))
	}

	result, err := interp.Eval(ctx, cr.program, interp.MapActivation(data), opts...)
	if err != nil {
		return cobalt.Value{}, nil, fmt.Errorf("evaluating expression: %w", err)
	}
	if ev, isErr := result.(*types.Error); isErr {
		return cobalt.Value{}, nil, fmt.Errorf("evaluating expression: %s", ev.Message)
	}

	var diagnostics *cobalt.Diagnostics
	if state != nil {
		diagnostics = buildDiagnostics(cr, state, data)
	}
	return valueToCobalt(result), diagnostics, nil
}

func parse(src string) (*ast.Expr, *ast.SourceInfo, error) {
	tree, info, err := parser.Parse(src)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing expression: %w", err)
	}
	return tree, info, nil
}
