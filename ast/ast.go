// Package ast defines the expression tree produced by the parser and
// consumed by the checker and the planner.
//
// Every node carries a stable integer ID assigned by the parser. The
// checker annotates nodes by ID in side maps (see the checker package);
// the tree itself is never mutated after parsing.
package ast

import "time"

// Kind identifies which variant an Expr holds.
type Kind int

const (
	UnspecifiedKind Kind = iota
	ConstKind
	IdentKind
	SelectKind
	CallKind
	ListKind
	MapKind
	ComprehensionKind
)

// Expr is a single expression node. Exactly one of the variant fields is
// set; Kind() reports which.
type Expr struct {
	// ID is a stable identifier for the node, unique within one parse.
	// IDs start at 1; 0 means "no node".
	ID int64

	Const         *Const
	Ident         *Ident
	Select        *Select
	Call          *Call
	List          *List
	Map           *Map
	Comprehension *Comprehension
}

// Kind reports the variant held by the node.
func (e *Expr) Kind() Kind {
	switch {
	case e == nil:
		return UnspecifiedKind
	case e.Const != nil:
		return ConstKind
	case e.Ident != nil:
		return IdentKind
	case e.Select != nil:
		return SelectKind
	case e.Call != nil:
		return CallKind
	case e.List != nil:
		return ListKind
	case e.Map != nil:
		return MapKind
	case e.Comprehension != nil:
		return ComprehensionKind
	}
	return UnspecifiedKind
}

// PrimitiveKind identifies the primitive kind held by a Const node.
type PrimitiveKind int

const (
	NullConst PrimitiveKind = iota
	BoolConst
	IntConst
	UintConst
	DoubleConst
	StringConst
	BytesConst
	DurationConst
	TimestampConst
)

// Const is a literal value.
type Const struct {
	Kind      PrimitiveKind
	Bool      bool
	Int       int64
	Uint      uint64
	Double    float64
	String    string
	Bytes     []byte
	Duration  time.Duration
	Timestamp time.Time
}

// Ident is a possibly dotted name, written exactly as it appeared in the
// source. Resolution against the declaration environment happens in the
// checker.
type Ident struct {
	Name string
}

// Select is a field selection: operand.field. When TestOnly is set the
// node is a presence test (produced by the has() macro) and evaluates to
// a bool rather than the field value.
type Select struct {
	Operand  *Expr
	Field    string
	TestOnly bool
}

// Call is a function invocation. Target is nil for global calls
// (f(x, y)) and non-nil for member-style calls (x.f(y)).
type Call struct {
	Target   *Expr
	Function string
	Args     []*Expr
}

// List is a list literal. OptionalIndices names the element positions
// that are optional; at evaluation time absent optionals are spliced out.
type List struct {
	Elements        []*Expr
	OptionalIndices []int
}

// Entry is a single key/value pair in a map literal.
type Entry struct {
	ID       int64
	Key      *Expr
	Value    *Expr
	Optional bool
}

// Map is a map literal.
type Map struct {
	Entries []Entry
}

// Comprehension is the single looping construct. The higher-order macros
// (all, exists, exists_one, map, filter) expand to this form at parse
// time.
type Comprehension struct {
	// IterVar is the name bound to each element of IterRange.
	IterVar string
	// IterRange produces the value iterated over.
	IterRange *Expr
	// AccuVar is the accumulator name, visible in LoopCondition,
	// LoopStep and Result.
	AccuVar string
	// AccuInit produces the accumulator's starting value.
	AccuInit *Expr
	// LoopCondition is evaluated before each element; a false result
	// ends the loop.
	LoopCondition *Expr
	// LoopStep produces the next accumulator value.
	LoopStep *Expr
	// Result produces the comprehension's value from the final
	// accumulator.
	Result *Expr
}

// AccumulatorName is the accumulator variable introduced by the macro
// expander. User code cannot name it.
const AccumulatorName = "__result__"
