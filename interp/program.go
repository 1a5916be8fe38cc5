package interp

import (
	"fmt"
	"strings"

	"github.com/ezachrisen/cobalt/types"
)

// Op is a step opcode.
type Op int

const (
	// OpPushConst pushes Val.
	OpPushConst Op = iota
	// OpResolve looks Name up in the activation and pushes the result.
	OpResolve
	// OpSelect pops the operand and pushes the named field's value, or
	// a presence bool when TestOnly.
	OpSelect
	// OpCall pops Size arguments and pushes the result of the first
	// matching overload.
	OpCall
	// OpJump continues at step index Jump.
	OpJump
	// OpCondJump pops the condition (unless Pop is false, which peeks)
	// and jumps to Jump when it equals When. An error or unknown
	// condition jumps to ErrJump with the value left on the stack.
	OpCondJump
	// OpLogicalAnd pops two booleans and pushes their conjunction with
	// commutative error/unknown merging.
	OpLogicalAnd
	// OpLogicalOr is the disjunction counterpart of OpLogicalAnd.
	OpLogicalOr
	// OpMakeList pops Size elements and pushes a list; absent optional
	// elements are spliced out.
	OpMakeList
	// OpMakeMap pops Size key/value pairs and pushes a map; a duplicate
	// key yields an error value.
	OpMakeMap
	// OpCheckInit pushes Slot's value, lazily evaluating subexpression
	// Sub to fill the slot first.
	OpCheckInit
	// OpAssignSlot copies the top of stack into Slot without popping.
	OpAssignSlot
	// OpAssignSlotAndPop pops the top of stack into Slot.
	OpAssignSlotAndPop
	// OpClearSlot marks Slot empty.
	OpClearSlot
	// OpLoadSlot pushes Slot's value; reading an unassigned slot is a
	// fatal internal error.
	OpLoadSlot
	// OpInitIter pops the iteration range and stores an iterator in
	// Slot. An error, unknown or non-iterable range is pushed and
	// control jumps to ErrJump.
	OpInitIter
	// OpIterNext advances the iterator in Slot, assigning the next
	// element to Slot2, or jumps to Jump when exhausted. Enforces the
	// comprehension iteration budget and the cancellation check.
	OpIterNext
)

func (o Op) String() string {
	switch o {
	case OpPushConst:
		return "push_const"
	case OpResolve:
		return "resolve"
	case OpSelect:
		return "select"
	case OpCall:
		return "call"
	case OpJump:
		return "jump"
	case OpCondJump:
		return "cond_jump"
	case OpLogicalAnd:
		return "logical_and"
	case OpLogicalOr:
		return "logical_or"
	case OpMakeList:
		return "make_list"
	case OpMakeMap:
		return "make_map"
	case OpCheckInit:
		return "check_init"
	case OpAssignSlot:
		return "assign_slot"
	case OpAssignSlotAndPop:
		return "assign_slot_pop"
	case OpClearSlot:
		return "clear_slot"
	case OpLoadSlot:
		return "load_slot"
	case OpInitIter:
		return "init_iter"
	case OpIterNext:
		return "iter_next"
	}
	return "unspecified"
}

// Step is a single instruction. Which payload fields are meaningful
// depends on the opcode; ID always names the AST node the step was
// lowered from, and Delta declares the step's stack-depth effect.
type Step struct {
	Op       Op
	ID       int64
	Val      types.Value
	Name     string
	TestOnly bool
	Function string
	Over     []*Overload
	Jump     int
	ErrJump  int
	When     bool
	Pop      bool
	Size     int
	Optional []int
	Slot     int
	Slot2    int
	Sub      int
	Delta    int
}

// Program is an immutable lowered expression: the main step list, a
// catalog of subexpressions for lazy bindings, the number of slots a
// frame needs, and the planner's worst-case stack depth.
type Program struct {
	Steps     []Step
	Subexprs  [][]Step
	SlotCount int
	MaxStack  int
}

// Disassemble renders the program one step per line, a stable format
// used by diagnostics and tests.
func (p *Program) Disassemble() string {
	var b strings.Builder
	writeSteps(&b, p.Steps, "")
	for i, sub := range p.Subexprs {
		fmt.Fprintf(&b, "sub %d:\n", i)
		writeSteps(&b, sub, "  ")
	}
	return b.String()
}

func writeSteps(b *strings.Builder, steps []Step, indent string) {
	for i, s := range steps {
		fmt.Fprintf(b, "%s%3d  %-16s", indent, i, s.Op)
		switch s.Op {
		case OpPushConst:
			fmt.Fprintf(b, " %s", s.Val)
		case OpResolve:
			fmt.Fprintf(b, " %s", s.Name)
		case OpSelect:
			fmt.Fprintf(b, " .%s test=%v", s.Name, s.TestOnly)
		case OpCall:
			ids := make([]string, len(s.Over))
			for j, o := range s.Over {
				ids[j] = o.ID
			}
			fmt.Fprintf(b, " %s/%d [%s]", s.Function, s.Size, strings.Join(ids, " "))
		case OpJump:
			fmt.Fprintf(b, " ->%d", s.Jump)
		case OpCondJump:
			fmt.Fprintf(b, " when=%v pop=%v ->%d err->%d", s.When, s.Pop, s.Jump, s.ErrJump)
		case OpMakeList, OpMakeMap:
			fmt.Fprintf(b, " n=%d opt=%v", s.Size, s.Optional)
		case OpCheckInit:
			fmt.Fprintf(b, " slot=%d sub=%d", s.Slot, s.Sub)
		case OpAssignSlot, OpAssignSlotAndPop, OpClearSlot, OpLoadSlot:
			fmt.Fprintf(b, " slot=%d", s.Slot)
		case OpInitIter:
			fmt.Fprintf(b, " slot=%d err->%d", s.Slot, s.ErrJump)
		case OpIterNext:
			fmt.Fprintf(b, " iter=%d var=%d done->%d err->%d", s.Slot, s.Slot2, s.Jump, s.ErrJump)
		}
		fmt.Fprintf(b, "  (id=%d)\n", s.ID)
	}
}
