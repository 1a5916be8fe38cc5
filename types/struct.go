package types

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Struct is a named field->value record backed by a protocol buffer
// message. The core treats it as opaque: field access and presence
// testing go through protoreflect, and well-known wrapper messages
// surface as the corresponding primitive kinds.
type Struct struct {
	msg proto.Message
	ref protoreflect.Message
}

// NewStruct wraps a protobuf message as a struct value. Duration and
// timestamp messages convert to their primitive kinds instead; callers
// that may hold one should use FromNative.
func NewStruct(msg proto.Message) *Struct {
	return &Struct{msg: msg, ref: msg.ProtoReflect()}
}

func (*Struct) Kind() Kind { return StructKind }

func (s *Struct) Type() *Type {
	return NewStructType(s.TypeName())
}

// TypeName returns the fully qualified message name.
func (s *Struct) TypeName() string {
	return string(s.ref.Descriptor().FullName())
}

// Message returns the wrapped protobuf message.
func (s *Struct) Message() proto.Message { return s.msg }

// Field returns the value of the named field, or an error value when
// the field does not exist. The id attributes errors to an AST node.
func (s *Struct) Field(id int64, name string) Value {
	fd := s.ref.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		return NewError(id, "no such field: %s in message %s", name, s.TypeName())
	}
	return fieldToValue(id, fd, s.ref.Get(fd))
}

// HasField reports presence of the named field: set for messages,
// non-default for scalars, non-empty for lists and maps.
func (s *Struct) HasField(id int64, name string) Value {
	fd := s.ref.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		return NewError(id, "no such field: %s in message %s", name, s.TypeName())
	}
	return Bool(s.ref.Has(fd))
}

func (s *Struct) IsZero() bool {
	var zero bool = true
	s.ref.Range(func(protoreflect.FieldDescriptor, protoreflect.Value) bool {
		zero = false
		return false
	})
	return zero
}

func (s *Struct) String() string {
	return fmt.Sprintf("%s{%s}", s.TypeName(), prototext(s.msg))
}

func prototext(m proto.Message) string {
	b, err := proto.Marshal(m)
	if err != nil {
		return "?"
	}
	return fmt.Sprintf("%d bytes", len(b))
}

func (s *Struct) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	o, ok := other.(*Struct)
	if !ok {
		return False
	}
	return Bool(proto.Equal(s.msg, o.msg))
}

// fieldToValue converts a protoreflect field value to the value model.
func fieldToValue(id int64, fd protoreflect.FieldDescriptor, v protoreflect.Value) Value {
	switch {
	case fd.IsMap():
		m := NewMap()
		keyFd := fd.MapKey()
		valFd := fd.MapValue()
		var failed Value
		v.Map().Range(func(k protoreflect.MapKey, mv protoreflect.Value) bool {
			r := m.Put(scalarToValue(id, keyFd, k.Value()), fieldToValue(id, valFd, mv))
			if r.Kind() == ErrorKind {
				failed = r
				return false
			}
			return true
		})
		if failed != nil {
			return failed
		}
		return m
	case fd.IsList():
		lst := v.List()
		elems := make([]Value, 0, lst.Len())
		for i := 0; i < lst.Len(); i++ {
			elems = append(elems, scalarToValue(id, fd, lst.Get(i)))
		}
		return NewList(elems...)
	}
	return scalarToValue(id, fd, v)
}

func scalarToValue(id int64, fd protoreflect.FieldDescriptor, v protoreflect.Value) Value {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return Bool(v.Bool())
	case protoreflect.Int32Kind, protoreflect.Int64Kind,
		protoreflect.Sint32Kind, protoreflect.Sint64Kind,
		protoreflect.Sfixed32Kind, protoreflect.Sfixed64Kind:
		return Int(v.Int())
	case protoreflect.Uint32Kind, protoreflect.Uint64Kind,
		protoreflect.Fixed32Kind, protoreflect.Fixed64Kind:
		return Uint(v.Uint())
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return Double(v.Float())
	case protoreflect.StringKind:
		return String(v.String())
	case protoreflect.BytesKind:
		return Bytes(v.Bytes())
	case protoreflect.EnumKind:
		return Int(v.Enum())
	case protoreflect.MessageKind, protoreflect.GroupKind:
		msg := v.Message().Interface()
		switch m := msg.(type) {
		case *durationpb.Duration:
			return Duration(m.AsDuration())
		case *timestamppb.Timestamp:
			return Timestamp(m.AsTime())
		}
		return NewStruct(msg)
	}
	return NewError(id, "unsupported field kind: %v", fd.Kind())
}

// DurationMessage converts a duration value to its protobuf form.
func DurationMessage(d Duration) *durationpb.Duration {
	return durationpb.New(time.Duration(d))
}

// TimestampMessage converts a timestamp value to its protobuf form.
func TimestampMessage(t Timestamp) *timestamppb.Timestamp {
	return timestamppb.New(time.Time(t))
}
