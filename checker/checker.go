package checker

import (
	"fmt"
	"strings"

	"github.com/ezachrisen/cobalt/ast"
	"github.com/ezachrisen/cobalt/types"
)

const (
	defaultMaxNodes = 50000
	defaultMaxDepth = 200
)

type options struct {
	maxNodes int
	maxDepth int
}

// CheckOption adjusts checker limits.
type CheckOption func(*options)

// MaxNodes caps the number of AST nodes the checker will visit; the
// complexity limit that guards against macro-expanded blowup.
func MaxNodes(n int) CheckOption {
	return func(o *options) { o.maxNodes = n }
}

// MaxDepth caps AST nesting depth.
func MaxDepth(n int) CheckOption {
	return func(o *options) { o.maxDepth = n }
}

// Check resolves names and infers types for the expression against the
// environment. All errors are collected: a failed node checks as dyn so
// unrelated issues still surface. The input AST is not modified.
func Check(e *ast.Expr, info *ast.SourceInfo, env *Env, opts ...CheckOption) *Result {
	o := options{maxNodes: defaultMaxNodes, maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	c := &checker{
		env:  env,
		info: info,
		opts: o,
		result: &Result{
			Expr:       e,
			SourceInfo: info,
			TypeMap:    map[int64]*types.Type{},
			RefMap:     map[int64]*Reference{},
		},
		mapping: newMapping(),
	}
	c.check(e)
	// Finalize: resolve bound type parameters, defaulting the unbound
	// ones to dyn.
	for id, t := range c.result.TypeMap {
		c.result.TypeMap[id] = substitute(c.mapping, t, true)
	}
	return c.result
}

type checker struct {
	env     *Env
	info    *ast.SourceInfo
	opts    options
	result  *Result
	mapping *mapping

	// scopes holds comprehension-variable bindings, innermost last.
	scopes []map[string]*types.Type

	freshCount int
	nodeCount  int
	depth      int
	overBudget bool
}

func (c *checker) errorf(id int64, format string, args ...any) {
	loc, _ := c.info.Position(id)
	c.result.Issues = append(c.result.Issues, Issue{
		Severity: SeverityError,
		ID:       id,
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) setType(e *ast.Expr, t *types.Type) {
	c.result.TypeMap[e.ID] = t
}

func (c *checker) setRef(e *ast.Expr, r *Reference) {
	c.result.RefMap[e.ID] = r
}

func (c *checker) pushScope(vars map[string]*types.Type) {
	c.scopes = append(c.scopes, vars)
}

func (c *checker) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *checker) scopeLookup(name string) (*types.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

// check visits one node, returning its inferred type. Budget violations
// are reported once and the remainder of the tree types as dyn.
func (c *checker) check(e *ast.Expr) *types.Type {
	if e == nil {
		return types.DynType
	}
	c.nodeCount++
	if c.nodeCount > c.opts.maxNodes || c.depth >= c.opts.maxDepth {
		if !c.overBudget {
			c.overBudget = true
			c.errorf(e.ID, "expression exceeds complexity limit (%d nodes, depth %d)",
				c.opts.maxNodes, c.opts.maxDepth)
		}
		c.setType(e, types.DynType)
		return types.DynType
	}
	c.depth++
	defer func() { c.depth-- }()

	var t *types.Type
	switch e.Kind() {
	case ast.ConstKind:
		t = c.checkConst(e)
	case ast.IdentKind:
		t = c.checkIdent(e)
	case ast.SelectKind:
		t = c.checkSelect(e)
	case ast.CallKind:
		t = c.checkCall(e)
	case ast.ListKind:
		t = c.checkList(e)
	case ast.MapKind:
		t = c.checkMap(e)
	case ast.ComprehensionKind:
		t = c.checkComprehension(e)
	default:
		c.errorf(e.ID, "unspecified expression node %d", e.ID)
		t = types.DynType
	}
	c.setType(e, t)
	return t
}

func (c *checker) checkConst(e *ast.Expr) *types.Type {
	switch e.Const.Kind {
	case ast.NullConst:
		return types.NullType
	case ast.BoolConst:
		return types.BoolType
	case ast.IntConst:
		return types.IntType
	case ast.UintConst:
		return types.UintType
	case ast.DoubleConst:
		return types.DoubleType
	case ast.StringConst:
		return types.StringType
	case ast.BytesConst:
		return types.BytesType
	case ast.DurationConst:
		return types.DurationType
	case ast.TimestampConst:
		return types.TimestampType
	}
	return types.DynType
}

func (c *checker) checkIdent(e *ast.Expr) *types.Type {
	name := e.Ident.Name
	// A comprehension variable shadows a plain identifier of the same
	// name, but only qualified declarations can beat it (handled in
	// checkSelect before recursing here).
	if !strings.Contains(name, ".") {
		if t, ok := c.scopeLookup(name); ok {
			c.setRef(e, &Reference{Name: name})
			return t
		}
	}
	if d, ok := c.resolveVariable(name); ok {
		c.setRef(e, &Reference{Name: d.Name})
		return d.Type
	}
	c.errorf(e.ID, "undeclared reference to '%s' (in container '%s')", name, c.env.Container())
	return types.DynType
}

// resolveVariable tries each container-qualified candidate for name,
// longest first.
func (c *checker) resolveVariable(name string) (*VarDecl, bool) {
	for _, cand := range c.env.candidateNames(name) {
		if d, ok := c.env.Variable(cand); ok {
			return d, true
		}
	}
	return nil, false
}

// qualifiedName flattens a chain of selects over an identifier into a
// dotted name. It fails when any link is a presence test or a
// non-ident/select node.
func qualifiedName(e *ast.Expr) (string, bool) {
	switch e.Kind() {
	case ast.IdentKind:
		return e.Ident.Name, true
	case ast.SelectKind:
		if e.Select.TestOnly {
			return "", false
		}
		prefix, ok := qualifiedName(e.Select.Operand)
		if !ok {
			return "", false
		}
		return prefix + "." + e.Select.Field, true
	}
	return "", false
}

func (c *checker) checkSelect(e *ast.Expr) *types.Type {
	sel := e.Select
	// A select chain may be a qualified variable name: `x.y` resolves
	// to a declared `x.y` before it is treated as field access on `x`.
	// Qualified declarations also win over comprehension variables.
	if !sel.TestOnly {
		if qname, ok := qualifiedName(e); ok {
			if d, found := c.resolveVariable(qname); found {
				c.setRef(e, &Reference{Name: d.Name})
				return d.Type
			}
		}
	}
	operandType := substitute(c.mapping, c.check(sel.Operand), false)
	resultType := types.DynType
	switch operandType.Kind() {
	case types.MapKind:
		m := c.mapping
		if !isAssignable(m, operandType.Params()[0], types.StringType) {
			c.errorf(e.ID, "type '%s' does not support field selection", operandType)
		} else {
			resultType = operandType.Params()[1]
		}
	case types.StructKind, types.DynKind, types.TypeParamKind:
		// Struct fields are opaque to the checker; they resolve at
		// evaluation time through the message's descriptor.
		resultType = types.DynType
	default:
		c.errorf(e.ID, "type '%s' does not support field selection", operandType)
	}
	if sel.TestOnly {
		return types.BoolType
	}
	return substitute(c.mapping, resultType, false)
}

func (c *checker) checkCall(e *ast.Expr) *types.Type {
	call := e.Call
	if call.Target == nil {
		for _, cand := range c.env.candidateNames(call.Function) {
			if fn, ok := c.env.Function(cand); ok {
				return c.resolveOverload(e, fn, nil, call.Args)
			}
		}
		c.errorf(e.ID, "undeclared reference to '%s' (in container '%s')", call.Function, c.env.Container())
		return types.DynType
	}
	// Member-style call: a qualified target may name a namespaced
	// function (`ns.f(x)`), otherwise the target is the receiver.
	if qname, ok := qualifiedName(call.Target); ok {
		for _, cand := range c.env.candidateNames(qname + "." + call.Function) {
			if fn, found := c.env.Function(cand); found {
				return c.resolveOverload(e, fn, nil, call.Args)
			}
		}
	}
	if fn, ok := c.env.Function(call.Function); ok {
		return c.resolveOverload(e, fn, call.Target, call.Args)
	}
	c.errorf(e.ID, "undeclared reference to '%s' (in container '%s')", call.Function, c.env.Container())
	return types.DynType
}

// resolveOverload selects the applicable overloads for a call site. A
// non-nil target marks a receiver-style call and is prepended to the
// argument list.
func (c *checker) resolveOverload(e *ast.Expr, fn *FunctionDecl, target *ast.Expr, args []*ast.Expr) *types.Type {
	member := target != nil
	all := args
	if member {
		all = append([]*ast.Expr{target}, args...)
	}
	argTypes := make([]*types.Type, len(all))
	for i, a := range all {
		argTypes[i] = c.check(a)
	}

	var resultType *types.Type
	var matched []string
	arityMatch := false
	for _, o := range fn.Overloads {
		if o.Member != member || len(o.Args) != len(argTypes) {
			continue
		}
		arityMatch = true
		declArgs, declResult := c.freshInstance(o)
		ok := true
		trial := c.mapping.copy()
		for i := range declArgs {
			if !isAssignable(trial, declArgs[i], argTypes[i]) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		c.mapping.bindings = trial.bindings
		matched = append(matched, o.ID)
		resultType = join(resultType, substitute(c.mapping, declResult, false))
	}

	if len(matched) == 0 {
		if !arityMatch {
			c.errorf(e.ID, "undeclared reference to '%s' (in container '%s')", fn.Name, c.env.Container())
		} else {
			c.errorf(e.ID, "found no matching overload for '%s' applied to (%s)",
				fn.Name, typeList(argTypes))
		}
		return types.DynType
	}
	c.setRef(e, &Reference{OverloadIDs: matched})
	return resultType
}

// freshInstance renames the overload's type parameters to names unique
// to this call site, so unrelated calls never share bindings.
func (c *checker) freshInstance(o *OverloadDecl) ([]*types.Type, *types.Type) {
	params := o.TypeParams()
	if len(params) == 0 {
		return o.Args, o.Result
	}
	rename := newMapping()
	for _, p := range params {
		c.freshCount++
		rename.bindings[p] = types.NewTypeParamType(fmt.Sprintf("%%%d", c.freshCount))
	}
	args := make([]*types.Type, len(o.Args))
	for i, a := range o.Args {
		args[i] = substitute(rename, a, false)
	}
	return args, substitute(rename, o.Result, false)
}

func typeList(ts []*types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func (c *checker) checkList(e *ast.Expr) *types.Type {
	var elem *types.Type
	for _, el := range e.List.Elements {
		elem = join(elem, c.check(el))
	}
	if elem == nil {
		elem = types.DynType
	}
	return types.NewListType(elem)
}

func (c *checker) checkMap(e *ast.Expr) *types.Type {
	var key, val *types.Type
	for _, en := range e.Map.Entries {
		key = join(key, c.check(en.Key))
		val = join(val, c.check(en.Value))
	}
	if key == nil {
		key = types.DynType
	}
	if val == nil {
		val = types.DynType
	}
	return types.NewMapType(key, val)
}

func (c *checker) checkComprehension(e *ast.Expr) *types.Type {
	comp := e.Comprehension
	rangeType := substitute(c.mapping, c.check(comp.IterRange), false)

	var elemType *types.Type
	switch rangeType.Kind() {
	case types.ListKind:
		elemType = rangeType.Params()[0]
	case types.MapKind:
		// Iteration visits map keys, in the map's insertion order.
		elemType = rangeType.Params()[0]
	case types.DynKind, types.TypeParamKind:
		elemType = types.DynType
	default:
		c.errorf(comp.IterRange.ID,
			"expression of type '%s' cannot be the range of a comprehension (must be list, map, or dynamic)",
			rangeType)
		elemType = types.DynType
	}

	accuType := c.check(comp.AccuInit)

	// The iteration variable is visible in the loop condition and step;
	// the accumulator additionally in the result expression.
	c.pushScope(map[string]*types.Type{comp.AccuVar: accuType})
	c.pushScope(map[string]*types.Type{comp.IterVar: elemType})

	condType := c.check(comp.LoopCondition)
	if !isAssignable(c.mapping, types.BoolType, condType) {
		c.errorf(comp.LoopCondition.ID, "expected type bool for comprehension condition, found '%s'", condType)
	}
	stepType := c.check(comp.LoopStep)
	if !isAssignable(c.mapping, accuType, stepType) {
		c.errorf(comp.LoopStep.ID, "loop step type '%s' is not assignable to accumulator type '%s'",
			stepType, accuType)
	}
	c.popScope()

	resultType := c.check(comp.Result)
	c.popScope()
	return resultType
}
