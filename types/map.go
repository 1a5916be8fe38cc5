package types

import "strings"

// Map is an immutable association of keys to values. Keys are restricted
// to bool, int, uint and string. Numerically equal int and uint keys
// address the same entry. Iteration order is insertion order, which
// makes comprehension results deterministic.
type Map struct {
	keys  []Value
	index map[any]int
	vals  []Value
}

// NewMap returns an empty map builder value. Use Put to add entries.
func NewMap() *Map {
	return &Map{index: map[any]int{}}
}

// mapKey normalizes a key for lookup so that numerically equal int and
// uint keys collide. Returns false for an unsupported key kind.
func mapKey(k Value) (any, bool) {
	switch v := k.(type) {
	case Bool:
		return bool(v), true
	case Int:
		return int64(v), true
	case Uint:
		if uint64(v) <= 1<<63-1 {
			return int64(v), true
		}
		return uint64(v), true
	case String:
		return string(v), true
	}
	return nil, false
}

// Put adds an entry, returning an error value on an unsupported key kind
// or a duplicate key. The receiver is returned for chaining during
// construction; maps must not be modified once shared.
func (m *Map) Put(k, v Value) Value {
	nk, ok := mapKey(k)
	if !ok {
		return NewError(0, "unsupported map key type: %s", k.Type())
	}
	if _, exists := m.index[nk]; exists {
		return NewError(0, "duplicate map key: %s", k.String())
	}
	m.index[nk] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	return m
}

func (*Map) Kind() Kind { return MapKind }

func (m *Map) Type() *Type { return NewMapType(DynType, DynType) }

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order. The slice must not be
// modified.
func (m *Map) Keys() []Value { return m.keys }

// Get returns the value for key k, or an error value when the key is
// missing or unsupported.
func (m *Map) Get(k Value) Value {
	nk, ok := mapKey(k)
	if !ok {
		return NewError(0, "unsupported map key type: %s", k.Type())
	}
	i, found := m.index[nk]
	if !found {
		return NewError(0, "no such key: %s", k.String())
	}
	return m.vals[i]
}

// Has reports whether key k is present.
func (m *Map) Has(k Value) Value {
	nk, ok := mapKey(k)
	if !ok {
		return NewError(0, "unsupported map key type: %s", k.Type())
	}
	_, found := m.index[nk]
	return Bool(found)
}

func (m *Map) IsZero() bool { return len(m.keys) == 0 }

func (m *Map) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range m.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(canonical(k))
		b.WriteString(": ")
		b.WriteString(canonical(m.vals[i]))
	}
	b.WriteString("}")
	return b.String()
}

func (m *Map) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	o, ok := other.(*Map)
	if !ok || len(m.keys) != len(o.keys) {
		return False
	}
	for i, k := range m.keys {
		ov := o.Get(k)
		if ov.Kind() == ErrorKind {
			// missing key in the other map
			return False
		}
		eq := Equal(m.vals[i], ov)
		b, ok := eq.(Bool)
		if !ok {
			return eq
		}
		if !bool(b) {
			return False
		}
	}
	return True
}
