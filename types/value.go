package types

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a runtime value: one of null, bool, int, uint, double,
// string, bytes, duration, timestamp, list, map, struct, type witness,
// error or unknown.
//
// Equal implements the language's equality: cross-type numeric
// comparison by mathematical value, structural comparison for
// containers, false for mismatched kinds, and propagation of error and
// unknown inputs.
type Value interface {
	// Kind reports the value's variant.
	Kind() Kind
	// Type returns the value's runtime type.
	Type() *Type
	// Equal compares the value to another, returning Bool, or an Error
	// or Unknown operand unchanged.
	Equal(other Value) Value
	// IsZero reports whether the value is its kind's default: false, 0,
	// 0.0, empty string/bytes/list/map, zero duration, the Unix epoch.
	IsZero() bool
	// String renders the value in its canonical debug form.
	String() string
}

// Null is the null value.
type Null struct{}

// NullValue is the singleton null.
var NullValue = Null{}

func (Null) Kind() Kind     { return NullKind }
func (Null) Type() *Type    { return NullType }
func (Null) IsZero() bool   { return true }
func (Null) String() string { return "null" }

func (n Null) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	return Bool(other.Kind() == NullKind)
}

// Bool is a boolean value.
type Bool bool

// Boolean singletons.
const (
	True  = Bool(true)
	False = Bool(false)
)

func (Bool) Kind() Kind       { return BoolKind }
func (Bool) Type() *Type      { return BoolType }
func (b Bool) IsZero() bool   { return !bool(b) }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (b Bool) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	o, ok := other.(Bool)
	return Bool(ok && b == o)
}

// Int is a signed 64-bit integer value.
type Int int64

func (Int) Kind() Kind       { return IntKind }
func (Int) Type() *Type      { return IntType }
func (i Int) IsZero() bool   { return i == 0 }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

func (i Int) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	return numericEqual(i, other)
}

// Uint is an unsigned 64-bit integer value.
type Uint uint64

func (Uint) Kind() Kind       { return UintKind }
func (Uint) Type() *Type      { return UintType }
func (u Uint) IsZero() bool   { return u == 0 }
func (u Uint) String() string { return strconv.FormatUint(uint64(u), 10) }

func (u Uint) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	return numericEqual(u, other)
}

// Double is a 64-bit floating point value.
type Double float64

func (Double) Kind() Kind     { return DoubleKind }
func (Double) Type() *Type    { return DoubleType }
func (d Double) IsZero() bool { return d == 0 }

func (d Double) String() string {
	if math.IsInf(float64(d), 1) {
		return "+Inf"
	}
	if math.IsInf(float64(d), -1) {
		return "-Inf"
	}
	if math.IsNaN(float64(d)) {
		return "NaN"
	}
	return strconv.FormatFloat(float64(d), 'g', -1, 64)
}

func (d Double) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	return numericEqual(d, other)
}

// String is a unicode string value.
type String string

func (String) Kind() Kind       { return StringKind }
func (String) Type() *Type      { return StringType }
func (s String) IsZero() bool   { return s == "" }
func (s String) String() string { return string(s) }

func (s String) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	o, ok := other.(String)
	return Bool(ok && s == o)
}

// Bytes is a byte sequence value.
type Bytes []byte

func (Bytes) Kind() Kind     { return BytesKind }
func (Bytes) Type() *Type    { return BytesType }
func (b Bytes) IsZero() bool { return len(b) == 0 }

func (b Bytes) String() string {
	return "b" + strconv.Quote(string(b))
}

func (b Bytes) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	o, ok := other.(Bytes)
	return Bool(ok && bytes.Equal(b, o))
}

// Duration is a signed span of time with nanosecond precision.
type Duration time.Duration

func (Duration) Kind() Kind     { return DurationKind }
func (Duration) Type() *Type    { return DurationType }
func (d Duration) IsZero() bool { return d == 0 }

// String renders the duration as decimal seconds with up to nanosecond
// precision and an "s" suffix, e.g. "123.000000456s".
func (d Duration) String() string {
	n := time.Duration(d).Nanoseconds()
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	sec := n / int64(time.Second)
	frac := n % int64(time.Second)
	if frac == 0 {
		return fmt.Sprintf("%s%ds", sign, sec)
	}
	fs := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return fmt.Sprintf("%s%d.%ss", sign, sec, fs)
}

func (d Duration) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	o, ok := other.(Duration)
	return Bool(ok && d == o)
}

// Timestamp is an instant on the UTC timeline.
type Timestamp time.Time

func (Timestamp) Kind() Kind  { return TimestampKind }
func (Timestamp) Type() *Type { return TimestampType }

func (t Timestamp) IsZero() bool {
	return time.Time(t).Equal(time.Unix(0, 0))
}

func (t Timestamp) String() string {
	return time.Time(t).UTC().Format(time.RFC3339Nano)
}

func (t Timestamp) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	o, ok := other.(Timestamp)
	return Bool(ok && time.Time(t).Equal(time.Time(o)))
}

// TypeValue is a first-class type witness, the value of an expression
// such as `int` or `type(x)`.
type TypeValue struct {
	T *Type
}

func (TypeValue) Kind() Kind       { return TypeKind }
func (v TypeValue) Type() *Type    { return NewTypeTypeWithParam(v.T) }
func (v TypeValue) IsZero() bool   { return v.T == nil }
func (v TypeValue) String() string { return v.T.String() }

func (v TypeValue) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	o, ok := other.(TypeValue)
	return Bool(ok && v.T.Equal(o.T))
}

// propagate returns the value itself when it is an error or unknown,
// otherwise nil. Strict operations call it on each operand before doing
// any work.
func propagate(v Value) Value {
	switch v.Kind() {
	case ErrorKind, UnknownKind:
		return v
	}
	return nil
}

// numericEqual compares a numeric value to any other value by
// mathematical value. NaN is never equal; non-numeric kinds compare
// false.
func numericEqual(a Value, b Value) Bool {
	switch x := a.(type) {
	case Int:
		switch y := b.(type) {
		case Int:
			return Bool(x == y)
		case Uint:
			return Bool(x >= 0 && uint64(x) == uint64(y))
		case Double:
			return intDoubleEqual(int64(x), float64(y))
		}
	case Uint:
		switch y := b.(type) {
		case Int:
			return Bool(y >= 0 && uint64(y) == uint64(x))
		case Uint:
			return Bool(x == y)
		case Double:
			return uintDoubleEqual(uint64(x), float64(y))
		}
	case Double:
		switch y := b.(type) {
		case Int:
			return intDoubleEqual(int64(y), float64(x))
		case Uint:
			return uintDoubleEqual(uint64(y), float64(x))
		case Double:
			return Bool(x == y)
		}
	}
	return False
}

func intDoubleEqual(i int64, d float64) Bool {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return False
	}
	if d != math.Trunc(d) {
		return False
	}
	if d < -9223372036854775808.0 || d >= 9223372036854775808.0 {
		return False
	}
	return Bool(int64(d) == i)
}

func uintDoubleEqual(u uint64, d float64) Bool {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return False
	}
	if d != math.Trunc(d) || d < 0 {
		return False
	}
	if d >= 18446744073709551616.0 {
		return False
	}
	return Bool(uint64(d) == u)
}

// Equal compares two values with full propagation: the first error
// operand wins, then unknowns, then the left operand's Equal.
func Equal(a, b Value) Value {
	if a.Kind() == ErrorKind {
		return a
	}
	if b.Kind() == ErrorKind {
		return b
	}
	if a.Kind() == UnknownKind {
		return a
	}
	if b.Kind() == UnknownKind {
		return b
	}
	return a.Equal(b)
}
