package cobalt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Engine is the interface for compiling and evaluating rule
// hierarchies. DefaultEngine is the standard implementation; the Vault
// builds on this interface for hot reloading.
type Engine interface {
	// Compile prepares the rule and all its children for evaluation.
	Compile(r *Rule, opts ...CompilationOption) error
	// Eval evaluates the rule hierarchy against the data.
	Eval(ctx context.Context, r *Rule, data map[string]interface{}, opts ...EvalOption) (*Result, error)
}

// ErrRuleNotFound is wrapped by errors reporting a missing rule.
var ErrRuleNotFound = errors.New("rule not found")

// DefaultEngine compiles and evaluates rules through an Evaluator.
type DefaultEngine struct {
	evaluator Evaluator
}

// NewEngine initializes an engine with the evaluator that will process
// rule expressions.
func NewEngine(evaluator Evaluator) *DefaultEngine {
	return &DefaultEngine{evaluator: evaluator}
}

// CompilationOptions modify how rules are compiled.
type CompilationOptions struct {
	// CollectDiagnostics instructs the evaluator to retain the
	// intermediate state needed to produce per-node diagnostics during
	// evaluation.
	CollectDiagnostics bool
	// DryRun checks the rules without storing compiled programs.
	DryRun bool
}

// CompilationOption is a functional option for Compile.
type CompilationOption func(*CompilationOptions)

// CollectDiagnostics instructs the compiler to retain the intermediate
// state needed for diagnostics. Default: off.
func CollectDiagnostics(b bool) CompilationOption {
	return func(o *CompilationOptions) { o.CollectDiagnostics = b }
}

// DryRun checks rule correctness without storing compiled results.
// Default: off.
func DryRun(b bool) CompilationOption {
	return func(o *CompilationOptions) { o.DryRun = b }
}

// Compile pre-processes the rule and its children, fixing the child
// evaluation order and storing compiled programs on the rules. A rule
// without a schema inherits its parent's.
func (e *DefaultEngine) Compile(r *Rule, opts ...CompilationOption) error {
	if e == nil || e.evaluator == nil {
		return fmt.Errorf("engine has no evaluator")
	}
	if r == nil {
		return fmt.Errorf("nil rule")
	}
	o := CompilationOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return e.compileRule(r, r.Schema, o)
}

func (e *DefaultEngine) compileRule(r *Rule, s Schema, o CompilationOptions) error {
	if len(strings.TrimSpace(r.ID)) == 0 {
		return fmt.Errorf("required rule ID for rule with expression %q", r.Expr)
	}
	if strings.ContainsAny(r.ID, bannedIDCharacters) {
		return fmt.Errorf("rule ID is invalid (%s), cannot contain any of %q", r.ID, bannedIDCharacters)
	}
	if len(r.Schema.Elements) > 0 {
		s = r.Schema
	}
	if r.Expr != "" {
		prog, err := e.evaluator.Compile(r.Expr, s, r.ResultType, o.CollectDiagnostics, o.DryRun)
		if err != nil {
			return fmt.Errorf("compiling rule %s: %w", r.ID, err)
		}
		if !o.DryRun {
			r.Program = prog
		}
	}
	r.sortedRules = r.sortChildRules(r.EvalOptions.SortFunc)
	for _, child := range r.sortedRules {
		if err := e.compileRule(child, s, o); err != nil {
			return err
		}
	}
	return nil
}

// EvalOptions determine how a rule hierarchy is evaluated and what
// results are returned. Options set on a rule apply to that rule and
// its children, overriding options passed to Eval.
type EvalOptions struct {
	// MaxDepth limits rule tree descent. Default 100.
	MaxDepth int `json:"max_depth"`

	// StopIfParentNegative skips the children when the parent's
	// expression is false.
	StopIfParentNegative bool `json:"stop_if_parent_negative"`

	// StopFirstPositiveChild stops child evaluation at the first child
	// that passes.
	StopFirstPositiveChild bool `json:"stop_first_positive_child"`

	// StopFirstNegativeChild stops child evaluation at the first child
	// that fails.
	StopFirstNegativeChild bool `json:"stop_first_negative_child"`

	// TrueIfAny makes the parent pass when any child passes, rather
	// than requiring all children to pass.
	TrueIfAny bool `json:"true_if_any"`

	// DiscardPass drops passing child results from the output.
	DiscardPass bool `json:"discard_pass"`

	// DiscardFail drops failing child results from the output.
	DiscardFail bool `json:"discard_fail"`

	// ReturnDiagnostics requests per-node diagnostic data. The rules
	// must have been compiled with CollectDiagnostics.
	ReturnDiagnostics bool `json:"return_diagnostics"`

	// SortFunc determines the child evaluation order. Without it,
	// children evaluate in ID order.
	SortFunc func(rules []*Rule, i, j int) bool `json:"-"`
}

// EvalOption is a functional option for Eval.
type EvalOption func(*EvalOptions)

// MaxDepth limits rule tree descent.
func MaxDepth(n int) EvalOption {
	return func(o *EvalOptions) { o.MaxDepth = n }
}

// StopIfParentNegative skips children when the parent fails.
func StopIfParentNegative(b bool) EvalOption {
	return func(o *EvalOptions) { o.StopIfParentNegative = b }
}

// StopFirstPositiveChild stops at the first passing child.
func StopFirstPositiveChild(b bool) EvalOption {
	return func(o *EvalOptions) { o.StopFirstPositiveChild = b }
}

// StopFirstNegativeChild stops at the first failing child.
func StopFirstNegativeChild(b bool) EvalOption {
	return func(o *EvalOptions) { o.StopFirstNegativeChild = b }
}

// TrueIfAny makes a parent pass when any child passes.
func TrueIfAny(b bool) EvalOption {
	return func(o *EvalOptions) { o.TrueIfAny = b }
}

// DiscardPass drops passing child results.
func DiscardPass(b bool) EvalOption {
	return func(o *EvalOptions) { o.DiscardPass = b }
}

// DiscardFail drops failing child results.
func DiscardFail(b bool) EvalOption {
	return func(o *EvalOptions) { o.DiscardFail = b }
}

// ReturnDiagnostics requests per-node diagnostics.
func ReturnDiagnostics(b bool) EvalOption {
	return func(o *EvalOptions) { o.ReturnDiagnostics = b }
}

const defaultDepth = 100

// Eval evaluates the rule hierarchy against the input data,
// depth-first, honoring the evaluation options and context
// cancellation.
func (e *DefaultEngine) Eval(ctx context.Context, r *Rule, data map[string]interface{},
	opts ...EvalOption) (*Result, error) {
	if e == nil || e.evaluator == nil {
		return nil, fmt.Errorf("engine has no evaluator")
	}
	if r == nil {
		return nil, fmt.Errorf("%w: nil rule", ErrRuleNotFound)
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	o := EvalOptions{MaxDepth: defaultDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return e.eval(ctx, r, r.Schema, data, 0, o)
}

func (e *DefaultEngine) eval(ctx context.Context, r *Rule, s Schema, data map[string]interface{},
	depth int, o EvalOptions) (*Result, error) {

	if depth > o.MaxDepth {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluating rule %s: %w", r.ID, err)
	}

	// Options set on the rule itself override the inherited ones.
	applyRuleOptions(&o, r.EvalOptions)

	if len(r.Schema.Elements) > 0 {
		s = r.Schema
	}

	pr := &Result{
		Rule:           r,
		Pass:           true,
		ExpressionPass: true,
		Value:          true,
		Results:        make(map[string]*Result, len(r.Rules)),
		EvalOptions:    o,
	}

	// A rule's self object must not leak into its children.
	if r.Self != nil {
		data[selfKey] = r.Self
	} else {
		delete(data, selfKey)
	}

	if r.Expr != "" {
		val, diagnostics, err := e.evaluator.Evaluate(ctx, data, r.Expr, s, r.Self, r.Program,
			r.ResultType, o.ReturnDiagnostics)
		if err != nil {
			return nil, fmt.Errorf("evaluating rule %s: %w", r.ID, err)
		}
		pr.Value = val.Val
		pr.Diagnostics = diagnostics
		if b, ok := val.Val.(bool); ok {
			pr.ExpressionPass = b
			pr.Pass = b
		}
	}

	if o.StopIfParentNegative && !pr.ExpressionPass {
		return pr, nil
	}

	childRules := r.sortedRules
	if childRules == nil {
		childRules = r.sortChildRules(o.SortFunc)
	}

	anyChildPassed := false
	for _, c := range childRules {
		res, err := e.eval(ctx, c, s, data, depth+1, o)
		if err != nil {
			return nil, err
		}
		if res == nil {
			continue
		}
		pr.RulesEvaluated = append(pr.RulesEvaluated, c)
		pr.RulesEvaluated = append(pr.RulesEvaluated, res.RulesEvaluated...)

		if res.Pass {
			anyChildPassed = true
		} else {
			pr.Pass = false
		}

		if (res.Pass && !o.DiscardPass) || (!res.Pass && !o.DiscardFail) {
			pr.Results[c.ID] = res
		}

		if o.StopFirstPositiveChild && res.Pass {
			break
		}
		if o.StopFirstNegativeChild && !res.Pass {
			break
		}
	}

	if o.TrueIfAny && len(childRules) > 0 {
		pr.Pass = pr.ExpressionPass && anyChildPassed
	}
	return pr, nil
}

// applyRuleOptions overlays the options set explicitly on a rule.
func applyRuleOptions(o *EvalOptions, r EvalOptions) {
	if r.MaxDepth != 0 {
		o.MaxDepth = r.MaxDepth
	}
	if r.StopIfParentNegative {
		o.StopIfParentNegative = true
	}
	if r.StopFirstPositiveChild {
		o.StopFirstPositiveChild = true
	}
	if r.StopFirstNegativeChild {
		o.StopFirstNegativeChild = true
	}
	if r.TrueIfAny {
		o.TrueIfAny = true
	}
	if r.DiscardPass {
		o.DiscardPass = true
	}
	if r.DiscardFail {
		o.DiscardFail = true
	}
	if r.ReturnDiagnostics {
		o.ReturnDiagnostics = true
	}
	if r.SortFunc != nil {
		o.SortFunc = r.SortFunc
	}
}
