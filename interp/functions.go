// Package interp lowers checked expressions to flat step programs and
// executes them against a value stack, an activation, and a function
// registry.
package interp

import (
	"fmt"

	"github.com/ezachrisen/cobalt/types"
)

// FunctionValue is the Go implementation of one overload. The id is the
// AST node of the call site, for error attribution. Implementations
// must return a value; failures are reported as error values, not Go
// errors.
type FunctionValue func(id int64, args ...types.Value) types.Value

// Overload binds an overload id to its implementation and the argument
// kinds it accepts at runtime.
type Overload struct {
	// ID matches the checker's overload id, e.g. "add_int_int".
	ID string
	// Kinds guards runtime dispatch: the call step invokes the first
	// candidate whose argument kinds fit. types.DynKind acts as a
	// wildcard position.
	Kinds []types.Kind
	// NonStrict overloads receive raw error and unknown arguments
	// instead of having them propagated before the call.
	NonStrict bool
	// Function is the implementation.
	Function FunctionValue
}

// matches reports whether the argument values fit the overload's kind
// guard.
func (o *Overload) matches(args []types.Value) bool {
	if len(o.Kinds) != len(args) {
		return false
	}
	for i, k := range o.Kinds {
		if k == types.DynKind {
			continue
		}
		if args[i].Kind() != k {
			return false
		}
	}
	return true
}

// Registry indexes runtime overloads by id. It is immutable once
// planning begins and safe for concurrent readers.
type Registry struct {
	overloads map[string]*Overload
}

// NewRegistry returns a registry preloaded with the standard overloads.
func NewRegistry() *Registry {
	r := &Registry{overloads: map[string]*Overload{}}
	registerStandard(r)
	return r
}

// NewEmptyRegistry returns a registry with no overloads at all; hosts
// that want full control over dispatch start here.
func NewEmptyRegistry() *Registry {
	return &Registry{overloads: map[string]*Overload{}}
}

// Register adds an overload. Re-registering an id is an error.
func (r *Registry) Register(o *Overload) error {
	if o == nil || o.ID == "" || o.Function == nil {
		return fmt.Errorf("invalid overload registration: %+v", o)
	}
	if _, ok := r.overloads[o.ID]; ok {
		return fmt.Errorf("overload already registered: %s", o.ID)
	}
	r.overloads[o.ID] = o
	return nil
}

// Find returns the overload bound to id.
func (r *Registry) Find(id string) (*Overload, bool) {
	o, ok := r.overloads[id]
	return o, ok
}
