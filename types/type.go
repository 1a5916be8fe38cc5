package types

import (
	"fmt"
	"strings"
)

// Type describes the static type of an expression or a declared
// variable. Types are immutable; the exported constructors are the only
// way to build one.
type Type struct {
	kind    Kind
	name    string
	params  []*Type
	wrapped bool
}

// Primitive and special type singletons.
var (
	DynType       = &Type{kind: DynKind, name: "dyn"}
	NullType      = &Type{kind: NullKind, name: "null_type"}
	BoolType      = &Type{kind: BoolKind, name: "bool"}
	IntType       = &Type{kind: IntKind, name: "int"}
	UintType      = &Type{kind: UintKind, name: "uint"}
	DoubleType    = &Type{kind: DoubleKind, name: "double"}
	StringType    = &Type{kind: StringKind, name: "string"}
	BytesType     = &Type{kind: BytesKind, name: "bytes"}
	DurationType  = &Type{kind: DurationKind, name: "duration"}
	TimestampType = &Type{kind: TimestampKind, name: "timestamp"}
	ErrorType     = &Type{kind: ErrorKind, name: "error"}
	UnknownType   = &Type{kind: UnknownKind, name: "unknown"}

	// Null-admitting wrappers around the primitive types.
	BoolWrapperType   = &Type{kind: BoolKind, name: "wrapper(bool)", wrapped: true}
	IntWrapperType    = &Type{kind: IntKind, name: "wrapper(int)", wrapped: true}
	UintWrapperType   = &Type{kind: UintKind, name: "wrapper(uint)", wrapped: true}
	DoubleWrapperType = &Type{kind: DoubleKind, name: "wrapper(double)", wrapped: true}
	StringWrapperType = &Type{kind: StringKind, name: "wrapper(string)", wrapped: true}
	BytesWrapperType  = &Type{kind: BytesKind, name: "wrapper(bytes)", wrapped: true}
)

// NewListType returns the type list(elem).
func NewListType(elem *Type) *Type {
	return &Type{kind: ListKind, name: "list", params: []*Type{elem}}
}

// NewMapType returns the type map(key, value).
func NewMapType(key, value *Type) *Type {
	return &Type{kind: MapKind, name: "map", params: []*Type{key, value}}
}

// NewStructType returns the type of a named struct (message) type.
func NewStructType(name string) *Type {
	return &Type{kind: StructKind, name: name}
}

// NewOpaqueType returns a host-defined named type with optional type
// parameters.
func NewOpaqueType(name string, params ...*Type) *Type {
	return &Type{kind: OpaqueKind, name: name, params: params}
}

// NewTypeParamType returns a type parameter with the given name. All
// occurrences of the same name bind to the same inferred type within a
// single overload resolution.
func NewTypeParamType(name string) *Type {
	return &Type{kind: TypeParamKind, name: name}
}

// NewFunctionType returns a function type. The result type is params[0]
// of the returned type, followed by the argument types.
func NewFunctionType(result *Type, args ...*Type) *Type {
	return &Type{kind: FunctionKind, name: "function", params: append([]*Type{result}, args...)}
}

// NewTypeTypeWithParam returns the type of a type witness carrying t,
// i.e. the type of the expression `int` is type(int).
func NewTypeTypeWithParam(t *Type) *Type {
	return &Type{kind: TypeKind, name: "type", params: []*Type{t}}
}

// TypeType is the type of a type witness with no known parameter.
var TypeType = &Type{kind: TypeKind, name: "type"}

// Kind reports the type's kind. Wrappers report the kind of the wrapped
// primitive; use IsWrapper to distinguish.
func (t *Type) Kind() Kind { return t.kind }

// TypeName returns the name used for assignability matching: the struct
// or opaque name, the type-parameter name, or the kind name.
func (t *Type) TypeName() string { return t.name }

// Params returns the type parameters (list element, map key/value,
// function result+args). The slice must not be modified.
func (t *Type) Params() []*Type { return t.params }

// IsWrapper reports whether the type is a null-admitting wrapper around
// a primitive.
func (t *Type) IsWrapper() bool { return t.wrapped }

// Equal reports deep structural equality of two types.
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	if t.kind != o.kind || t.name != o.name || t.wrapped != o.wrapped {
		return false
	}
	if len(t.params) != len(o.params) {
		return false
	}
	for i := range t.params {
		if !t.params[i].Equal(o.params[i]) {
			return false
		}
	}
	return true
}

// String renders the type in its canonical form, e.g. map(string, int).
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.kind {
	case ListKind:
		return fmt.Sprintf("list(%s)", t.params[0])
	case MapKind:
		return fmt.Sprintf("map(%s, %s)", t.params[0], t.params[1])
	case TypeKind:
		if len(t.params) == 1 {
			return fmt.Sprintf("type(%s)", t.params[0])
		}
		return "type"
	case FunctionKind:
		args := make([]string, 0, len(t.params)-1)
		for _, p := range t.params[1:] {
			args = append(args, p.String())
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(args, ", "), t.params[0])
	case OpaqueKind:
		if len(t.params) == 0 {
			return t.name
		}
		args := make([]string, 0, len(t.params))
		for _, p := range t.params {
			args = append(args, p.String())
		}
		return fmt.Sprintf("%s(%s)", t.name, strings.Join(args, ", "))
	}
	return t.name
}

// TypeParamNames returns the set of type-parameter names reachable in
// the type, in first-appearance order.
func TypeParamNames(ts ...*Type) []string {
	var names []string
	seen := map[string]bool{}
	var visit func(*Type)
	visit = func(t *Type) {
		if t == nil {
			return
		}
		if t.kind == TypeParamKind {
			if !seen[t.name] {
				seen[t.name] = true
				names = append(names, t.name)
			}
			return
		}
		for _, p := range t.params {
			visit(p)
		}
	}
	for _, t := range ts {
		visit(t)
	}
	return names
}
