// Package types implements the runtime value model and the type system
// for the Cobalt expression language: construction and equality of
// values, the assignability relation between types, and the adapters
// that convert between native Go values and the value model.
package types

// Kind identifies a variant of the value sum or the type sum. Values and
// types share one kind space; the kinds that apply only to types
// (DynKind, TypeParamKind, FunctionKind) never appear on a value.
type Kind int

const (
	DynKind Kind = iota
	NullKind
	BoolKind
	IntKind
	UintKind
	DoubleKind
	StringKind
	BytesKind
	DurationKind
	TimestampKind
	ListKind
	MapKind
	StructKind
	TypeKind
	OpaqueKind
	FunctionKind
	TypeParamKind
	ErrorKind
	UnknownKind
)

func (k Kind) String() string {
	switch k {
	case DynKind:
		return "dyn"
	case NullKind:
		return "null_type"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case UintKind:
		return "uint"
	case DoubleKind:
		return "double"
	case StringKind:
		return "string"
	case BytesKind:
		return "bytes"
	case DurationKind:
		return "duration"
	case TimestampKind:
		return "timestamp"
	case ListKind:
		return "list"
	case MapKind:
		return "map"
	case StructKind:
		return "struct"
	case TypeKind:
		return "type"
	case OpaqueKind:
		return "opaque"
	case FunctionKind:
		return "function"
	case TypeParamKind:
		return "type_param"
	case ErrorKind:
		return "error"
	case UnknownKind:
		return "unknown"
	}
	return "unspecified"
}
