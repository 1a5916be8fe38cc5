package interp

import (
	"strings"

	"github.com/ezachrisen/cobalt/types"
)

// Activation supplies values for the free variables of one evaluation.
// Implementations must be cheap to consult; the evaluator looks names
// up on every Resolve step and never retains returned values across
// evaluations.
type Activation interface {
	// ResolveName returns the value bound to a fully qualified name.
	ResolveName(name string) (types.Value, bool)
}

// MapActivation adapts a plain map of native Go values. Values convert
// through types.FromNative on lookup.
type MapActivation map[string]any

func (m MapActivation) ResolveName(name string) (types.Value, bool) {
	v, ok := m[name]
	if !ok {
		return nil, false
	}
	return types.FromNative(v), true
}

// EmptyActivation binds nothing.
type EmptyActivation struct{}

func (EmptyActivation) ResolveName(string) (types.Value, bool) { return nil, false }

// PartialActivation wraps an activation with a set of attribute
// patterns whose values are not yet known. Resolving a name that
// matches a pattern yields an unknown value carrying that name, which
// then propagates per the partial-evaluation rules.
type PartialActivation struct {
	Activation
	// UnknownPatterns are fully qualified names; a pattern also covers
	// everything beneath it ("a.b" covers "a.b.c").
	UnknownPatterns []string
}

// NewPartialActivation builds a partial activation over base.
func NewPartialActivation(base Activation, unknownPatterns ...string) *PartialActivation {
	return &PartialActivation{Activation: base, UnknownPatterns: unknownPatterns}
}

func (p *PartialActivation) unknown(name string) bool {
	for _, pat := range p.UnknownPatterns {
		if name == pat || strings.HasPrefix(name, pat+".") {
			return true
		}
	}
	return false
}
