package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericCrossTypeEquality(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int_int", Int(3), Int(3), true},
		{"int_uint", Int(3), Uint(3), true},
		{"uint_int", Uint(3), Int(3), true},
		{"int_double", Int(3), Double(3.0), true},
		{"double_int", Double(3.0), Int(3), true},
		{"uint_double", Uint(3), Double(3.0), true},
		{"int_uint_mismatch", Int(-1), Uint(math.MaxUint64), false},
		{"double_fraction", Int(3), Double(3.5), false},
		{"nan_never_equal", Double(math.NaN()), Double(math.NaN()), false},
		{"inf_equals_itself", Double(math.Inf(1)), Double(math.Inf(1)), true},
		{"inf_sign", Double(math.Inf(1)), Double(math.Inf(-1)), false},
		{"double_out_of_int_range", Double(1e300), Int(math.MaxInt64), false},
		{"string_int_cross_kind", String("3"), Int(3), false},
		{"bool_int_cross_kind", Bool(true), Int(1), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.a.Equal(c.b)
			require.Equal(t, BoolKind, got.Kind())
			assert.Equal(t, Bool(c.want), got)
		})
	}
}

func TestContainerEquality(t *testing.T) {
	a := NewList(Int(1), Int(2), Int(3))
	b := NewList(Int(1), Uint(2), Double(3))
	assert.Equal(t, True, a.Equal(b))

	short := NewList(Int(1), Int(2))
	assert.Equal(t, False, a.Equal(short))

	m1 := NewMap()
	m1.Put(String("a"), Int(1))
	m1.Put(String("b"), Int(2))
	m2 := NewMap()
	m2.Put(String("b"), Int(2))
	m2.Put(String("a"), Uint(1))
	assert.Equal(t, True, m1.Equal(m2))

	m3 := NewMap()
	m3.Put(String("a"), Int(1))
	assert.Equal(t, False, m1.Equal(m3))
}

func TestErrorAndUnknownPropagateThroughEqual(t *testing.T) {
	e := NewError(7, "boom")
	u := NewUnknown("x")

	assert.Same(t, e, Equal(e, Int(1)))
	assert.Same(t, e, Equal(Int(1), e))
	assert.Same(t, u, Equal(u, Int(1)))
	// the first error wins over unknowns
	assert.Same(t, e, Equal(e, u))
}

func TestMapKeyNormalization(t *testing.T) {
	m := NewMap()
	m.Put(Int(1), String("one"))

	assert.Equal(t, String("one"), m.Get(Uint(1)))
	assert.Equal(t, True, m.Has(Uint(1)))

	missing := m.Get(String("z"))
	require.Equal(t, ErrorKind, missing.Kind())
	assert.Contains(t, missing.(*Error).Message, "z")

	dup := NewMap()
	dup.Put(Int(1), String("a"))
	r := dup.Put(Uint(1), String("b"))
	require.Equal(t, ErrorKind, r.Kind())
	assert.Contains(t, r.(*Error).Message, "duplicate")
}

func TestDebugRendering(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{True, "true"},
		{Int(-3), "-3"},
		{Uint(42), "42"},
		{Double(1.5), "1.5"},
		{String("hi"), "hi"},
		{Duration(123*time.Second + 456), "123.000000456s"},
		{Duration(60 * time.Second), "60s"},
		{Duration(-90 * time.Second), "-90s"},
		{NewList(Int(1), String("a")), `[1, "a"]`},
		{NewError(1, "no such key: z"), "<error: no such key: z>"},
		{NewUnknown("x", "y"), "<unknown: {x, y}>"},
		{NullValue, "null"},
		{TypeValue{T: IntType}, "int"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.v.String())
	}

	m := NewMap()
	m.Put(String("a"), Int(1))
	assert.Equal(t, `{"a": 1}`, m.String())

	ts := Timestamp(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-03-01T12:00:00Z", ts.String())
}

func TestZeroValues(t *testing.T) {
	zero := []Value{
		NullValue, False, Int(0), Uint(0), Double(0), String(""), Bytes(nil),
		Duration(0), Timestamp(time.Unix(0, 0)), NewList(), NewMap(),
	}
	for _, v := range zero {
		assert.True(t, v.IsZero(), "%s should be zero", v)
	}
	nonZero := []Value{
		True, Int(1), Uint(1), Double(0.1), String("a"), Bytes("b"),
		Duration(time.Second), Timestamp(time.Unix(1, 0)), NewList(Int(1)),
	}
	for _, v := range nonZero {
		assert.False(t, v.IsZero(), "%s should not be zero", v)
	}
}

func TestFromNative(t *testing.T) {
	assert.Equal(t, Int(3), FromNative(3))
	assert.Equal(t, Uint(3), FromNative(uint64(3)))
	assert.Equal(t, Double(1.5), FromNative(1.5))
	assert.Equal(t, String("x"), FromNative("x"))
	assert.Equal(t, NullValue, FromNative(nil))
	assert.Equal(t, Duration(time.Minute), FromNative(time.Minute))

	l := FromNative([]any{1, "a"})
	require.Equal(t, ListKind, l.Kind())
	assert.Equal(t, 2, l.(*List).Len())

	m := FromNative(map[string]any{"b": 2, "a": 1})
	require.Equal(t, MapKind, m.Kind())
	// native map keys iterate in sorted order
	assert.Equal(t, String("a"), m.(*Map).Keys()[0])

	bad := FromNative(struct{ X int }{1})
	assert.Equal(t, ErrorKind, bad.Kind())
}
