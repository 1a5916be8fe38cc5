// Package checker resolves names and infers types for parsed
// expressions against a declaration environment, producing an annotated
// AST ready for planning.
package checker

import (
	"fmt"

	"github.com/ezachrisen/cobalt/types"
)

// VarDecl binds a (possibly dotted) name to a type.
type VarDecl struct {
	Name string
	Type *types.Type
}

// OverloadDecl is one concrete signature of a function.
type OverloadDecl struct {
	// ID uniquely identifies the signature, e.g. "add_int_int".
	ID string
	// Member marks receiver-style overloads (x.f(y) rather than
	// f(x, y)). For member overloads Args[0] is the receiver type.
	Member bool
	// Args are the declared argument types.
	Args []*types.Type
	// Result is the declared result type.
	Result *types.Type
}

// TypeParams returns the type-parameter names reachable in the
// overload's signature.
func (o *OverloadDecl) TypeParams() []string {
	return types.TypeParamNames(append([]*types.Type{o.Result}, o.Args...)...)
}

// signaturesOverlap reports whether two overloads would be ambiguous:
// same receiver style, same arity, and every argument pair mutually
// assignable in at least one direction.
func signaturesOverlap(a, b *OverloadDecl) bool {
	if a.Member != b.Member || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !types.Assignable(a.Args[i], b.Args[i]) && !types.Assignable(b.Args[i], a.Args[i]) {
			return false
		}
	}
	return true
}

// FunctionDecl binds a function name to a set of overloads.
type FunctionDecl struct {
	Name      string
	Overloads []*OverloadDecl
}

// AddOverload adds an overload, rejecting duplicate overload IDs and
// signature collisions with the existing set.
func (f *FunctionDecl) AddOverload(o *OverloadDecl) error {
	if o.ID == "" {
		return fmt.Errorf("function %s: overload missing id", f.Name)
	}
	for _, existing := range f.Overloads {
		if existing.ID == o.ID {
			return fmt.Errorf("function %s: overload already exists: %s", f.Name, o.ID)
		}
		if signaturesOverlap(existing, o) {
			return fmt.Errorf("function %s: overload signature collision: %s collides with %s",
				f.Name, existing.ID, o.ID)
		}
	}
	f.Overloads = append(f.Overloads, o)
	return nil
}

// NewFunction builds a function declaration from overloads, applying the
// same validation as AddOverload.
func NewFunction(name string, overloads ...*OverloadDecl) (*FunctionDecl, error) {
	f := &FunctionDecl{Name: name}
	for _, o := range overloads {
		if err := f.AddOverload(o); err != nil {
			return nil, err
		}
	}
	if len(f.Overloads) == 0 {
		return nil, fmt.Errorf("function %s: no overloads", name)
	}
	return f, nil
}

// Overload is a convenience constructor for a global overload.
func Overload(id string, args []*types.Type, result *types.Type) *OverloadDecl {
	return &OverloadDecl{ID: id, Args: args, Result: result}
}

// MemberOverload is a convenience constructor for a receiver-style
// overload; the first argument type is the receiver.
func MemberOverload(id string, args []*types.Type, result *types.Type) *OverloadDecl {
	return &OverloadDecl{ID: id, Member: true, Args: args, Result: result}
}
