package interp

import (
	"fmt"

	"github.com/ezachrisen/cobalt/ast"
	"github.com/ezachrisen/cobalt/checker"
	"github.com/ezachrisen/cobalt/types"
)

// Plan lowers a checked expression to a step program. The checked
// result must be valid and its annotation maps complete; planning the
// same checked AST twice yields an identical program.
func Plan(checked *checker.Result, reg *Registry) (*Program, error) {
	if checked == nil || checked.Expr == nil {
		return nil, fmt.Errorf("nil checked expression")
	}
	if !checked.Valid() {
		return nil, fmt.Errorf("cannot plan an invalid expression: %w", checked.Err())
	}
	p := &planner{checked: checked, reg: reg}
	if err := p.plan(checked.Expr); err != nil {
		return nil, err
	}
	prog := &Program{
		Steps:     p.steps,
		Subexprs:  p.subexprs,
		SlotCount: p.slotCount,
	}
	subMax := make([]int, len(prog.Subexprs))
	for i, sub := range prog.Subexprs {
		subMax[i] = maxStackOf(sub, subMax)
	}
	prog.MaxStack = maxStackOf(prog.Steps, subMax)
	return prog, nil
}

// binding is a planner-scoped variable: a direct slot for comprehension
// variables, or a lazily initialized slot for bind aliases.
type binding struct {
	slot int
	lazy bool
	sub  int
}

type planner struct {
	checked   *checker.Result
	reg       *Registry
	steps     []Step
	subexprs  [][]Step
	scopes    []map[string]binding
	slotCount int
}

func (p *planner) emit(s Step) int {
	p.steps = append(p.steps, s)
	return len(p.steps) - 1
}

func (p *planner) here() int { return len(p.steps) }

func (p *planner) allocSlot() int {
	s := p.slotCount
	p.slotCount++
	return s
}

func (p *planner) pushScope(vars map[string]binding) { p.scopes = append(p.scopes, vars) }
func (p *planner) popScope()                         { p.scopes = p.scopes[:len(p.scopes)-1] }

func (p *planner) lookup(name string) (binding, bool) {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if b, ok := p.scopes[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

func (p *planner) plan(e *ast.Expr) error {
	switch e.Kind() {
	case ast.ConstKind:
		p.emit(Step{Op: OpPushConst, ID: e.ID, Val: constValue(e.Const), Delta: 1})
		return nil
	case ast.IdentKind:
		return p.planIdent(e)
	case ast.SelectKind:
		return p.planSelect(e)
	case ast.CallKind:
		return p.planCall(e)
	case ast.ListKind:
		return p.planList(e)
	case ast.MapKind:
		return p.planMap(e)
	case ast.ComprehensionKind:
		return p.planComprehension(e)
	}
	return fmt.Errorf("cannot plan node %d: unspecified kind", e.ID)
}

func constValue(c *ast.Const) types.Value {
	switch c.Kind {
	case ast.NullConst:
		return types.NullValue
	case ast.BoolConst:
		return types.Bool(c.Bool)
	case ast.IntConst:
		return types.Int(c.Int)
	case ast.UintConst:
		return types.Uint(c.Uint)
	case ast.DoubleConst:
		return types.Double(c.Double)
	case ast.StringConst:
		return types.String(c.String)
	case ast.BytesConst:
		return types.Bytes(c.Bytes)
	case ast.DurationConst:
		return types.Duration(c.Duration)
	case ast.TimestampConst:
		return types.Timestamp(c.Timestamp)
	}
	return types.NewError(0, "unsupported constant")
}

func (p *planner) planIdent(e *ast.Expr) error {
	name := e.Ident.Name
	if b, ok := p.lookup(name); ok {
		if b.lazy {
			p.emit(Step{Op: OpCheckInit, ID: e.ID, Slot: b.slot, Sub: b.sub, Delta: 1})
		} else {
			p.emit(Step{Op: OpLoadSlot, ID: e.ID, Slot: b.slot, Delta: 1})
		}
		return nil
	}
	ref, ok := p.checked.Reference(e.ID)
	if !ok || ref.Name == "" {
		return fmt.Errorf("identifier %q (node %d) has no resolved reference", name, e.ID)
	}
	if t, isType := checker.StandardTypeNames[ref.Name]; isType {
		p.emit(Step{Op: OpPushConst, ID: e.ID, Val: types.TypeValue{T: t}, Delta: 1})
		return nil
	}
	p.emit(Step{Op: OpResolve, ID: e.ID, Name: ref.Name, Delta: 1})
	return nil
}

func (p *planner) planSelect(e *ast.Expr) error {
	// A select chain resolved to a qualified variable name plans as a
	// single resolve.
	if ref, ok := p.checked.Reference(e.ID); ok && ref.Name != "" {
		p.emit(Step{Op: OpResolve, ID: e.ID, Name: ref.Name, Delta: 1})
		return nil
	}
	if err := p.plan(e.Select.Operand); err != nil {
		return err
	}
	p.emit(Step{Op: OpSelect, ID: e.ID, Name: e.Select.Field, TestOnly: e.Select.TestOnly})
	return nil
}

func (p *planner) planCall(e *ast.Expr) error {
	call := e.Call
	if call.Target == nil {
		switch {
		case call.Function == checker.OpLogicalAnd && len(call.Args) == 2:
			return p.planLogical(e, false)
		case call.Function == checker.OpLogicalOr && len(call.Args) == 2:
			return p.planLogical(e, true)
		case call.Function == checker.OpConditional && len(call.Args) == 3:
			return p.planConditional(e)
		}
	}

	args := call.Args
	if call.Target != nil {
		// The checker leaves the target untyped when it resolved the
		// call to a namespaced function; then the target is not
		// evaluated at all.
		if _, checkedTarget := p.checked.TypeMap[call.Target.ID]; checkedTarget {
			args = append([]*ast.Expr{call.Target}, call.Args...)
		}
	}
	for _, a := range args {
		if err := p.plan(a); err != nil {
			return err
		}
	}
	ref, ok := p.checked.Reference(e.ID)
	if !ok || len(ref.OverloadIDs) == 0 {
		return fmt.Errorf("call %q (node %d) has no resolved overloads", call.Function, e.ID)
	}
	overs := make([]*Overload, 0, len(ref.OverloadIDs))
	for _, id := range ref.OverloadIDs {
		if o, found := p.reg.Find(id); found {
			overs = append(overs, o)
		}
	}
	if len(overs) == 0 {
		return fmt.Errorf("no runtime binding for function %q (overloads %v)", call.Function, ref.OverloadIDs)
	}
	p.emit(Step{
		Op:       OpCall,
		ID:       e.ID,
		Function: call.Function,
		Over:     overs,
		Size:     len(args),
		Delta:    1 - len(args),
	})
	return nil
}

// planLogical lowers && and || with a short-circuit jump over the right
// operand and a merge step that applies the commutative error/unknown
// rules.
func (p *planner) planLogical(e *ast.Expr, isOr bool) error {
	call := e.Call
	if err := p.plan(call.Args[0]); err != nil {
		return err
	}
	cj := p.emit(Step{Op: OpCondJump, ID: e.ID, When: isOr, ErrJump: -1})
	if err := p.plan(call.Args[1]); err != nil {
		return err
	}
	merge := OpLogicalAnd
	if isOr {
		merge = OpLogicalOr
	}
	p.emit(Step{Op: merge, ID: e.ID, Delta: -1})
	p.steps[cj].Jump = p.here()
	return nil
}

func (p *planner) planConditional(e *ast.Expr) error {
	call := e.Call
	if err := p.plan(call.Args[0]); err != nil {
		return err
	}
	cj := p.emit(Step{Op: OpCondJump, ID: e.ID, When: false, Pop: true, Delta: -1})
	if err := p.plan(call.Args[1]); err != nil {
		return err
	}
	jmp := p.emit(Step{Op: OpJump, ID: e.ID})
	p.steps[cj].Jump = p.here()
	if err := p.plan(call.Args[2]); err != nil {
		return err
	}
	p.steps[jmp].Jump = p.here()
	// An error or unknown condition becomes the conditional's value.
	p.steps[cj].ErrJump = p.here()
	return nil
}

func (p *planner) planList(e *ast.Expr) error {
	for _, el := range e.List.Elements {
		if err := p.plan(el); err != nil {
			return err
		}
	}
	n := len(e.List.Elements)
	p.emit(Step{
		Op:       OpMakeList,
		ID:       e.ID,
		Size:     n,
		Optional: append([]int(nil), e.List.OptionalIndices...),
		Delta:    1 - n,
	})
	return nil
}

func (p *planner) planMap(e *ast.Expr) error {
	var optional []int
	for i, en := range e.Map.Entries {
		if err := p.plan(en.Key); err != nil {
			return err
		}
		if err := p.plan(en.Value); err != nil {
			return err
		}
		if en.Optional {
			optional = append(optional, i)
		}
	}
	n := len(e.Map.Entries)
	p.emit(Step{
		Op:       OpMakeMap,
		ID:       e.ID,
		Size:     n,
		Optional: optional,
		Delta:    1 - 2*n,
	})
	return nil
}

// isBindPattern recognizes the comprehension shape the bind macro
// produces: an empty iteration range with a constant-false loop
// condition. These lower to a lazily initialized slot instead of a
// loop.
func isBindPattern(c *ast.Comprehension) bool {
	return c.IterRange.Kind() == ast.ListKind &&
		len(c.IterRange.List.Elements) == 0 &&
		c.LoopCondition.Kind() == ast.ConstKind &&
		c.LoopCondition.Const.Kind == ast.BoolConst &&
		!c.LoopCondition.Const.Bool
}

func (p *planner) planComprehension(e *ast.Expr) error {
	c := e.Comprehension
	if isBindPattern(c) {
		return p.planBind(e)
	}

	iterSlot := p.allocSlot()
	varSlot := p.allocSlot()
	accuSlot := p.allocSlot()

	if err := p.plan(c.IterRange); err != nil {
		return err
	}
	initIter := p.emit(Step{Op: OpInitIter, ID: e.ID, Slot: iterSlot})
	if err := p.plan(c.AccuInit); err != nil {
		return err
	}
	p.emit(Step{Op: OpAssignSlotAndPop, ID: e.ID, Slot: accuSlot, Delta: -1})

	p.pushScope(map[string]binding{c.AccuVar: {slot: accuSlot}})
	p.pushScope(map[string]binding{c.IterVar: {slot: varSlot}})

	head := p.here()
	if err := p.plan(c.LoopCondition); err != nil {
		return err
	}
	condJump := p.emit(Step{Op: OpCondJump, ID: c.LoopCondition.ID, When: false, Pop: true, Delta: -1})
	iterNext := p.emit(Step{Op: OpIterNext, ID: e.ID, Slot: iterSlot, Slot2: varSlot, Delta: 1})
	if err := p.plan(c.LoopStep); err != nil {
		return err
	}
	p.emit(Step{Op: OpAssignSlotAndPop, ID: e.ID, Slot: accuSlot, Delta: -1})
	p.emit(Step{Op: OpJump, ID: e.ID, Jump: head})

	p.popScope() // iteration variable is not visible in the result
	result := p.here()
	if err := p.plan(c.Result); err != nil {
		return err
	}
	p.popScope()

	clean := p.here()
	p.emit(Step{Op: OpClearSlot, ID: e.ID, Slot: varSlot})
	p.emit(Step{Op: OpClearSlot, ID: e.ID, Slot: accuSlot})
	p.emit(Step{Op: OpClearSlot, ID: e.ID, Slot: iterSlot})

	p.steps[condJump].Jump = result
	p.steps[iterNext].Jump = result
	p.steps[initIter].ErrJump = clean
	p.steps[condJump].ErrJump = clean
	p.steps[iterNext].ErrJump = clean
	return nil
}

// planBind reserves a slot for the alias and plans the init expression
// as a catalogued subexpression evaluated at the first reference.
func (p *planner) planBind(e *ast.Expr) error {
	c := e.Comprehension
	slot := p.allocSlot()

	saved := p.steps
	p.steps = nil
	if err := p.plan(c.AccuInit); err != nil {
		p.steps = saved
		return err
	}
	sub := len(p.subexprs)
	p.subexprs = append(p.subexprs, p.steps)
	p.steps = saved

	p.pushScope(map[string]binding{c.AccuVar: {slot: slot, lazy: true, sub: sub}})
	if err := p.plan(c.Result); err != nil {
		return err
	}
	p.popScope()
	p.emit(Step{Op: OpClearSlot, ID: e.ID, Slot: slot})
	return nil
}

// maxStackOf estimates the worst-case stack depth by a linear pass over
// the declared deltas. Branch joins make the estimate conservative: the
// cap exists to catch runaway programs, not to size the stack exactly.
func maxStackOf(steps []Step, subMax []int) int {
	depth, max := 0, 0
	for _, s := range steps {
		if s.Op == OpCheckInit && s.Sub < len(subMax) {
			if d := depth + subMax[s.Sub]; d > max {
				max = d
			}
		}
		depth += s.Delta
		if depth > max {
			max = depth
		}
		if depth < 0 {
			depth = 0
		}
	}
	return max
}
