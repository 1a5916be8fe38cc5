package interp

import (
	"context"
	"fmt"
	"strings"

	"github.com/ezachrisen/cobalt/types"
)

const defaultIterationBudget = 100000

type evalOptions struct {
	budget     int
	stackLimit int
	state      *EvalState
}

// EvalOption adjusts one evaluation.
type EvalOption func(*evalOptions)

// IterationBudget caps total comprehension loop iterations across a
// single evaluation.
func IterationBudget(n int) EvalOption {
	return func(o *evalOptions) { o.budget = n }
}

// StackLimit overrides the stack depth limit derived from the planner's
// declared deltas.
func StackLimit(n int) EvalOption {
	return func(o *evalOptions) { o.stackLimit = n }
}

// WithState collects per-node evaluated values into st, for
// diagnostics.
func WithState(st *EvalState) EvalOption {
	return func(o *evalOptions) { o.state = st }
}

// EvalState records the value each AST node produced during one
// evaluation.
type EvalState struct {
	values map[int64]types.Value
}

// NewEvalState returns an empty state.
func NewEvalState() *EvalState {
	return &EvalState{values: map[int64]types.Value{}}
}

// Value returns the recorded value for a node ID.
func (s *EvalState) Value(id int64) (types.Value, bool) {
	v, ok := s.values[id]
	return v, ok
}

func (s *EvalState) record(id int64, v types.Value) {
	if s != nil {
		s.values[id] = v
	}
}

// Eval executes the program against the activation. The returned value
// may be an error or unknown value (evaluation failures and partial
// inputs); the Go error reports only internal invariant violations,
// which a well-typed program cannot trigger.
func Eval(ctx context.Context, prog *Program, act Activation, opts ...EvalOption) (types.Value, error) {
	o := evalOptions{budget: defaultIterationBudget}
	for _, opt := range opts {
		opt(&o)
	}
	if o.stackLimit == 0 {
		o.stackLimit = prog.MaxStack + 16
	}
	f := &frame{
		ctx:        ctx,
		prog:       prog,
		act:        act,
		budget:     o.budget,
		stackLimit: o.stackLimit,
		state:      o.state,
		slots:      make([]slotCell, prog.SlotCount),
		stack:      make([]types.Value, 0, prog.MaxStack+1),
	}
	if pa, ok := act.(*PartialActivation); ok {
		f.partial = pa
	}
	if err := f.run(prog.Steps); err != nil {
		if ab, ok := err.(*abortError); ok {
			return ab.val, nil
		}
		return nil, err
	}
	if len(f.stack) != 1 {
		return nil, fmt.Errorf("internal: evaluation finished with %d values on the stack", len(f.stack))
	}
	return f.stack[0], nil
}

type slotCell struct {
	set  bool
	val  types.Value
	iter *iterator
}

type iterator struct {
	elems []types.Value
	idx   int
}

// abortError carries an error value that ends the whole evaluation
// immediately (cancellation, stack overrun).
type abortError struct {
	val *types.Error
}

func (a *abortError) Error() string { return a.val.Message }

type frame struct {
	ctx        context.Context
	prog       *Program
	act        Activation
	partial    *PartialActivation
	stack      []types.Value
	slots      []slotCell
	iterations int
	budget     int
	stackLimit int
	state      *EvalState
}

func (f *frame) push(s *Step, v types.Value) error {
	if len(f.stack) >= f.stackLimit {
		return &abortError{val: types.NewError(s.ID, "stack depth limit exceeded (%d)", f.stackLimit)}
	}
	f.stack = append(f.stack, v)
	return nil
}

func (f *frame) pop() (types.Value, error) {
	if len(f.stack) == 0 {
		return nil, fmt.Errorf("internal: pop from an empty stack")
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

func (f *frame) popN(n int) ([]types.Value, error) {
	if len(f.stack) < n {
		return nil, fmt.Errorf("internal: pop of %d values from a stack of %d", n, len(f.stack))
	}
	vals := make([]types.Value, n)
	copy(vals, f.stack[len(f.stack)-n:])
	f.stack = f.stack[:len(f.stack)-n]
	return vals, nil
}

func (f *frame) cancelled(s *Step) error {
	if err := f.ctx.Err(); err != nil {
		return &abortError{val: types.NewError(s.ID, "evaluation cancelled: %v", err)}
	}
	return nil
}

// run executes one step list to completion. Subexpression lists run on
// the same frame via OpCheckInit.
func (f *frame) run(steps []Step) error {
	pc := 0
	for pc < len(steps) {
		s := &steps[pc]
		next := pc + 1
		switch s.Op {
		case OpPushConst:
			if err := f.push(s, s.Val); err != nil {
				return err
			}
		case OpResolve:
			if err := f.push(s, f.resolve(s)); err != nil {
				return err
			}
		case OpSelect:
			v, err := f.pop()
			if err != nil {
				return err
			}
			if err := f.push(s, selectField(s, v)); err != nil {
				return err
			}
		case OpCall:
			args, err := f.popN(s.Size)
			if err != nil {
				return err
			}
			if err := f.push(s, invoke(s, args)); err != nil {
				return err
			}
		case OpJump:
			if s.Jump <= pc {
				if err := f.cancelled(s); err != nil {
					return err
				}
			}
			next = s.Jump
		case OpCondJump:
			var err error
			next, err = f.condJump(s, pc)
			if err != nil {
				return err
			}
		case OpLogicalAnd, OpLogicalOr:
			rhs, err := f.pop()
			if err != nil {
				return err
			}
			lhs, err := f.pop()
			if err != nil {
				return err
			}
			if err := f.push(s, mergeLogical(s, lhs, rhs)); err != nil {
				return err
			}
		case OpMakeList:
			args, err := f.popN(s.Size)
			if err != nil {
				return err
			}
			if err := f.push(s, makeList(s, args)); err != nil {
				return err
			}
		case OpMakeMap:
			args, err := f.popN(2 * s.Size)
			if err != nil {
				return err
			}
			if err := f.push(s, makeMap(s, args)); err != nil {
				return err
			}
		case OpCheckInit:
			cell := &f.slots[s.Slot]
			if cell.set {
				if err := f.push(s, cell.val); err != nil {
					return err
				}
				break
			}
			if err := f.run(f.prog.Subexprs[s.Sub]); err != nil {
				return err
			}
			v, err := f.pop()
			if err != nil {
				return err
			}
			f.slots[s.Slot] = slotCell{set: true, val: v}
			if err := f.push(s, v); err != nil {
				return err
			}
		case OpAssignSlot:
			if len(f.stack) == 0 {
				return fmt.Errorf("internal: assign from an empty stack")
			}
			f.slots[s.Slot] = slotCell{set: true, val: f.stack[len(f.stack)-1]}
		case OpAssignSlotAndPop:
			v, err := f.pop()
			if err != nil {
				return err
			}
			f.slots[s.Slot] = slotCell{set: true, val: v}
		case OpClearSlot:
			f.slots[s.Slot] = slotCell{}
		case OpLoadSlot:
			cell := f.slots[s.Slot]
			if !cell.set {
				return fmt.Errorf("internal: read of unassigned slot %d at node %d", s.Slot, s.ID)
			}
			if err := f.push(s, cell.val); err != nil {
				return err
			}
		case OpInitIter:
			v, err := f.pop()
			if err != nil {
				return err
			}
			it, failed := makeIterator(s, v)
			if failed != nil {
				if err := f.push(s, failed); err != nil {
					return err
				}
				next = s.ErrJump
				break
			}
			f.slots[s.Slot] = slotCell{set: true, iter: it}
		case OpIterNext:
			if err := f.cancelled(s); err != nil {
				return err
			}
			cell := f.slots[s.Slot]
			if cell.iter == nil {
				return fmt.Errorf("internal: iterator slot %d unassigned at node %d", s.Slot, s.ID)
			}
			if cell.iter.idx >= len(cell.iter.elems) {
				next = s.Jump
				break
			}
			if f.iterations >= f.budget {
				if err := f.push(s, types.NewError(s.ID, "comprehension iteration budget exceeded (%d)", f.budget)); err != nil {
					return err
				}
				next = s.ErrJump
				break
			}
			f.iterations++
			f.slots[s.Slot2] = slotCell{set: true, val: cell.iter.elems[cell.iter.idx]}
			cell.iter.idx++
		default:
			return fmt.Errorf("internal: unknown opcode %d", s.Op)
		}
		if f.state != nil && pushes(s.Op) && len(f.stack) > 0 {
			f.state.record(s.ID, f.stack[len(f.stack)-1])
		}
		pc = next
	}
	return nil
}

func pushes(op Op) bool {
	switch op {
	case OpPushConst, OpResolve, OpSelect, OpCall, OpLogicalAnd, OpLogicalOr,
		OpMakeList, OpMakeMap, OpLoadSlot, OpCheckInit:
		return true
	}
	return false
}

// condJump decides the next step index for a conditional jump. Errors
// and unknowns divert to ErrJump with the value kept; a non-bool
// condition at a popping jump becomes an error value and diverts the
// same way.
func (f *frame) condJump(s *Step, pc int) (int, error) {
	if len(f.stack) == 0 {
		return 0, fmt.Errorf("internal: conditional jump on an empty stack")
	}
	top := f.stack[len(f.stack)-1]
	switch top.Kind() {
	case types.ErrorKind, types.UnknownKind:
		if s.ErrJump >= 0 {
			return s.ErrJump, nil
		}
		return pc + 1, nil
	}
	b, ok := top.(types.Bool)
	if !ok {
		if s.Pop {
			f.stack[len(f.stack)-1] = types.NewError(s.ID, "no such overload: condition of type %s", top.Type())
			if s.ErrJump >= 0 {
				return s.ErrJump, nil
			}
		}
		return pc + 1, nil
	}
	if s.Pop {
		f.stack = f.stack[:len(f.stack)-1]
	}
	if bool(b) == s.When {
		if s.Jump <= pc {
			if err := f.cancelled(s); err != nil {
				return 0, err
			}
		}
		return s.Jump, nil
	}
	return pc + 1, nil
}

func (f *frame) resolve(s *Step) types.Value {
	if f.partial != nil && f.partial.unknown(s.Name) {
		return types.NewUnknown(s.Name)
	}
	v, ok := f.act.ResolveName(s.Name)
	if !ok {
		return types.NewError(s.ID, "no such attribute: '%s'", s.Name)
	}
	return v
}

func selectField(s *Step, operand types.Value) types.Value {
	switch v := operand.(type) {
	case *types.Error, *types.Unknown:
		return operand
	case *types.Map:
		if s.TestOnly {
			return attributed(s, v.Has(types.String(s.Name)))
		}
		return attributed(s, v.Get(types.String(s.Name)))
	case *types.Struct:
		if s.TestOnly {
			return v.HasField(s.ID, s.Name)
		}
		return v.Field(s.ID, s.Name)
	}
	return types.NewError(s.ID, "type '%s' does not support field selection", operand.Type())
}

// attributed stamps the step's AST id onto error values built without
// one.
func attributed(s *Step, v types.Value) types.Value {
	if e, ok := v.(*types.Error); ok && e.ID == 0 {
		e.ID = s.ID
	}
	return v
}

// invoke applies error/unknown propagation and then the first overload
// whose kind guard fits the arguments.
func invoke(s *Step, args []types.Value) types.Value {
	if len(s.Over) == 1 && s.Over[0].NonStrict {
		return attributed(s, s.Over[0].Function(s.ID, args...))
	}
	var unknown *types.Unknown
	for _, a := range args {
		switch v := a.(type) {
		case *types.Error:
			return v
		case *types.Unknown:
			if unknown == nil {
				unknown = v
			} else {
				unknown = types.MergeUnknowns(unknown, v)
			}
		}
	}
	if unknown != nil {
		return unknown
	}
	for _, o := range s.Over {
		if o.matches(args) {
			return attributed(s, o.Function(s.ID, args...))
		}
	}
	kinds := make([]string, len(args))
	for i, a := range args {
		kinds[i] = a.Kind().String()
	}
	return types.NewError(s.ID, "no such overload: %s(%s)", s.Function, strings.Join(kinds, ", "))
}

// mergeLogical combines the operands of && and || after the
// short-circuit jump did not fire: the absorbing element wins from
// either side, then the first error, then the union of unknowns.
func mergeLogical(s *Step, lhs, rhs types.Value) types.Value {
	isOr := s.Op == OpLogicalOr
	absorb := types.Bool(isOr) // true for ||, false for &&
	if b, ok := lhs.(types.Bool); ok && b == absorb {
		return absorb
	}
	if b, ok := rhs.(types.Bool); ok && b == absorb {
		return absorb
	}
	lb, lok := lhs.(types.Bool)
	rb, rok := rhs.(types.Bool)
	if lok && rok {
		if isOr {
			return lb || rb
		}
		return lb && rb
	}
	if e, ok := lhs.(*types.Error); ok {
		return e
	}
	if e, ok := rhs.(*types.Error); ok {
		return e
	}
	lu, lok := lhs.(*types.Unknown)
	ru, rok := rhs.(*types.Unknown)
	switch {
	case lok && rok:
		return types.MergeUnknowns(lu, ru)
	case lok:
		return lu
	case rok:
		return ru
	}
	op := "&&"
	if isOr {
		op = "||"
	}
	return types.NewError(s.ID, "no such overload: %s %s %s", lhs.Kind(), op, rhs.Kind())
}

func makeList(s *Step, args []types.Value) types.Value {
	optional := map[int]bool{}
	for _, i := range s.Optional {
		optional[i] = true
	}
	elems := make([]types.Value, 0, len(args))
	var unknown *types.Unknown
	for i, a := range args {
		switch v := a.(type) {
		case *types.Error:
			return v
		case *types.Unknown:
			if unknown == nil {
				unknown = v
			} else {
				unknown = types.MergeUnknowns(unknown, v)
			}
			continue
		}
		if a == types.Absent {
			if optional[i] {
				continue
			}
			return types.NewError(s.ID, "absent value for non-optional list element %d", i)
		}
		elems = append(elems, a)
	}
	if unknown != nil {
		return unknown
	}
	return types.NewList(elems...)
}

func makeMap(s *Step, args []types.Value) types.Value {
	optional := map[int]bool{}
	for _, i := range s.Optional {
		optional[i] = true
	}
	var unknown *types.Unknown
	for _, a := range args {
		switch v := a.(type) {
		case *types.Error:
			return v
		case *types.Unknown:
			if unknown == nil {
				unknown = v
			} else {
				unknown = types.MergeUnknowns(unknown, v)
			}
		}
	}
	if unknown != nil {
		return unknown
	}
	m := types.NewMap()
	for i := 0; i+1 < len(args); i += 2 {
		k, v := args[i], args[i+1]
		if (k == types.Absent || v == types.Absent) && optional[i/2] {
			continue
		}
		if r := m.Put(k, v); r.Kind() == types.ErrorKind {
			return attributed(s, r)
		}
	}
	return m
}

func makeIterator(s *Step, v types.Value) (*iterator, types.Value) {
	switch r := v.(type) {
	case *types.Error, *types.Unknown:
		return nil, v
	case *types.List:
		return &iterator{elems: r.Elements()}, nil
	case *types.Map:
		return &iterator{elems: r.Keys()}, nil
	}
	return nil, types.NewError(s.ID, "cannot iterate over value of type '%s'", v.Type())
}
