package types

import (
	"reflect"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// FromNative converts a native Go value into the value model. Values
// already in the model pass through. Unconvertible inputs produce an
// error value rather than a panic, so host-supplied data cannot crash an
// evaluation.
func FromNative(v any) Value {
	switch x := v.(type) {
	case nil:
		return NullValue
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(x)
	case int32:
		return Int(x)
	case int64:
		return Int(x)
	case uint:
		return Uint(x)
	case uint32:
		return Uint(x)
	case uint64:
		return Uint(x)
	case float32:
		return Double(x)
	case float64:
		return Double(x)
	case string:
		return String(x)
	case []byte:
		return Bytes(x)
	case time.Duration:
		return Duration(x)
	case time.Time:
		return Timestamp(x)
	case *durationpb.Duration:
		return Duration(x.AsDuration())
	case *timestamppb.Timestamp:
		return Timestamp(x.AsTime())
	case proto.Message:
		return NewStruct(x)
	case []any:
		elems := make([]Value, 0, len(x))
		for _, e := range x {
			elems = append(elems, FromNative(e))
		}
		return NewList(elems...)
	case map[string]any:
		m := NewMap()
		// Insertion order of a Go map is not observable; fix key order
		// by reflection below for determinism instead.
		return fromNativeMap(reflect.ValueOf(x), m)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elems = append(elems, FromNative(rv.Index(i).Interface()))
		}
		return NewList(elems...)
	case reflect.Map:
		return fromNativeMap(rv, NewMap())
	case reflect.Ptr:
		if rv.IsNil() {
			return NullValue
		}
		return FromNative(rv.Elem().Interface())
	}
	return NewError(0, "unsupported conversion from %T", v)
}

func fromNativeMap(rv reflect.Value, m *Map) Value {
	keys := rv.MapKeys()
	sortReflectKeys(keys)
	for _, k := range keys {
		kv := FromNative(k.Interface())
		vv := FromNative(rv.MapIndex(k).Interface())
		if r := m.Put(kv, vv); r.Kind() == ErrorKind {
			return r
		}
	}
	return m
}

// sortReflectKeys fixes an iteration order for native maps: sorted by
// the key's canonical rendering. Maps built from literals keep insertion
// order; native maps get this stable order instead.
func sortReflectKeys(keys []reflect.Value) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keyString(keys[j]) < keyString(keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}

func keyString(k reflect.Value) string {
	return FromNative(k.Interface()).String()
}

// ToNative converts a value to its closest native Go representation.
// Errors convert to Go errors via the Error type; unknowns convert to
// themselves.
func ToNative(v Value) any {
	switch x := v.(type) {
	case Null:
		return nil
	case Bool:
		return bool(x)
	case Int:
		return int64(x)
	case Uint:
		return uint64(x)
	case Double:
		return float64(x)
	case String:
		return string(x)
	case Bytes:
		return []byte(x)
	case Duration:
		return time.Duration(x)
	case Timestamp:
		return time.Time(x)
	case *List:
		out := make([]any, 0, x.Len())
		for _, e := range x.Elements() {
			out = append(out, ToNative(e))
		}
		return out
	case *Map:
		out := make(map[any]any, x.Len())
		for _, k := range x.Keys() {
			out[ToNative(k)] = ToNative(x.Get(k))
		}
		return out
	case *Struct:
		return x.Message()
	case TypeValue:
		return x.T
	}
	return v
}
