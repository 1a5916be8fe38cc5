package checker

import "github.com/ezachrisen/cobalt/types"

// mapping is the substitution built up during unification: type
// parameter name -> inferred type. All occurrences of one name bind to
// the same type within a single overload resolution.
type mapping struct {
	bindings map[string]*types.Type
}

func newMapping() *mapping {
	return &mapping{bindings: map[string]*types.Type{}}
}

func (m *mapping) copy() *mapping {
	c := newMapping()
	for k, v := range m.bindings {
		c.bindings[k] = v
	}
	return c
}

func (m *mapping) find(t *types.Type) (*types.Type, bool) {
	if t.Kind() != types.TypeParamKind {
		return nil, false
	}
	b, ok := m.bindings[t.TypeName()]
	return b, ok
}

func (m *mapping) bind(param, t *types.Type) {
	m.bindings[param.TypeName()] = t
}

// isAssignable reports whether a value of type from may be used where
// type to is expected, extending the substitution as needed. The
// receiver mapping is only modified on success.
func isAssignable(m *mapping, to, from *types.Type) bool {
	trial := m.copy()
	if internalIsAssignable(trial, to, from) {
		m.bindings = trial.bindings
		return true
	}
	return false
}

func internalIsAssignable(m *mapping, to, from *types.Type) bool {
	// Follow existing bindings first so repeated occurrences of one
	// parameter stay consistent.
	if b, ok := m.find(to); ok {
		return internalIsAssignable(m, b, from)
	}
	if b, ok := m.find(from); ok {
		return internalIsAssignable(m, to, b)
	}
	if to.Kind() == types.DynKind || from.Kind() == types.DynKind {
		return true
	}
	if to.Kind() == types.TypeParamKind {
		if notReferencedIn(m, to, from) {
			m.bind(to, from)
			return true
		}
		return false
	}
	if from.Kind() == types.TypeParamKind {
		if notReferencedIn(m, from, to) {
			m.bind(from, to)
			return true
		}
		return false
	}
	if to.IsWrapper() {
		if from.Kind() == types.NullKind {
			return true
		}
		if from.IsWrapper() {
			return to.Equal(from)
		}
		return internalIsAssignable(m, unwrapped(to), from)
	}
	if to.Kind() != from.Kind() || to.TypeName() != from.TypeName() {
		return false
	}
	tp, fp := to.Params(), from.Params()
	if len(tp) != len(fp) {
		return false
	}
	for i := range tp {
		if !internalIsAssignable(m, tp[i], fp[i]) {
			return false
		}
	}
	return true
}

func unwrapped(t *types.Type) *types.Type {
	switch t.Kind() {
	case types.BoolKind:
		return types.BoolType
	case types.IntKind:
		return types.IntType
	case types.UintKind:
		return types.UintType
	case types.DoubleKind:
		return types.DoubleType
	case types.StringKind:
		return types.StringType
	case types.BytesKind:
		return types.BytesType
	}
	return t
}

// notReferencedIn guards against cyclic bindings such as A -> list(A).
func notReferencedIn(m *mapping, param, t *types.Type) bool {
	if param.Equal(t) {
		return false
	}
	if t.Kind() == types.TypeParamKind {
		if b, ok := m.find(t); ok {
			return notReferencedIn(m, param, b)
		}
		return true
	}
	for _, p := range t.Params() {
		if !notReferencedIn(m, param, p) {
			return false
		}
	}
	return true
}

// substitute replaces bound type parameters in t. Unbound parameters
// become dyn when finalize is set, which is how result types leave the
// checker.
func substitute(m *mapping, t *types.Type, finalize bool) *types.Type {
	if t == nil {
		return t
	}
	if b, ok := m.find(t); ok {
		return substitute(m, b, finalize)
	}
	if t.Kind() == types.TypeParamKind {
		if finalize {
			return types.DynType
		}
		return t
	}
	params := t.Params()
	if len(params) == 0 {
		return t
	}
	changed := false
	out := make([]*types.Type, len(params))
	for i, p := range params {
		out[i] = substitute(m, p, finalize)
		if out[i] != p {
			changed = true
		}
	}
	if !changed {
		return t
	}
	switch t.Kind() {
	case types.ListKind:
		return types.NewListType(out[0])
	case types.MapKind:
		return types.NewMapType(out[0], out[1])
	case types.TypeKind:
		return types.NewTypeTypeWithParam(out[0])
	case types.OpaqueKind:
		return types.NewOpaqueType(t.TypeName(), out...)
	case types.FunctionKind:
		return types.NewFunctionType(out[0], out[1:]...)
	}
	return t
}

// join computes the type recorded when several overloads apply: the
// common type when they agree, dyn when they do not.
func join(a, b *types.Type) *types.Type {
	if a == nil {
		return b
	}
	if a.Equal(b) {
		return a
	}
	return types.DynType
}
