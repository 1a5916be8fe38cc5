package types

// Assignable reports whether a value of type from may appear where type
// to is required:
//
//  1. equal types are assignable
//  2. dyn accepts anything, and anything is assignable to dyn
//  3. a wrapper accepts null and whatever the wrapped primitive accepts
//  4. parameterized types must match on kind, name and arity, with each
//     parameter assignable componentwise (invariant)
//  5. a type parameter accepts anything; binding consistency across
//     occurrences is the checker's job (see checker.isAssignable)
func Assignable(to, from *Type) bool {
	if to == nil || from == nil {
		return false
	}
	if to.Equal(from) {
		return true
	}
	if to.kind == DynKind || from.kind == DynKind {
		return true
	}
	if to.kind == TypeParamKind || from.kind == TypeParamKind {
		return true
	}
	if to.wrapped {
		if from.kind == NullKind {
			return true
		}
		return Assignable(unwrap(to), from)
	}
	if to.kind != from.kind || to.name != from.name {
		return false
	}
	if len(to.params) != len(from.params) {
		return false
	}
	for i := range to.params {
		if !Assignable(to.params[i], from.params[i]) {
			return false
		}
	}
	return true
}

func unwrap(t *Type) *Type {
	switch t.kind {
	case BoolKind:
		return BoolType
	case IntKind:
		return IntType
	case UintKind:
		return UintType
	case DoubleKind:
		return DoubleType
	case StringKind:
		return StringType
	case BytesKind:
		return BytesType
	}
	return t
}
