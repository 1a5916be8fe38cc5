package types

import "strings"

// List is an immutable ordered sequence of values.
type List struct {
	elems []Value
}

// NewList builds a list from the given elements. The slice is copied.
func NewList(elems ...Value) *List {
	return &List{elems: append([]Value(nil), elems...)}
}

func (*List) Kind() Kind { return ListKind }

func (l *List) Type() *Type { return NewListType(DynType) }

// Len returns the number of elements.
func (l *List) Len() int { return len(l.elems) }

// Get returns the element at index i, or an error value when the index
// is out of range.
func (l *List) Get(i int64) Value {
	if i < 0 || i >= int64(len(l.elems)) {
		return NewError(0, "index %d out of range in list of size %d", i, len(l.elems))
	}
	return l.elems[i]
}

// Elements returns the backing slice. The slice must not be modified.
func (l *List) Elements() []Value { return l.elems }

// Contains reports whether the list has an element equal to v.
// Error and unknown elements propagate only when no match is found.
func (l *List) Contains(v Value) Value {
	var pending Value
	for _, e := range l.elems {
		eq := Equal(e, v)
		switch r := eq.(type) {
		case Bool:
			if bool(r) {
				return True
			}
		default:
			if pending == nil {
				pending = eq
			}
		}
	}
	if pending != nil {
		return pending
	}
	return False
}

// Concat returns a new list holding l's elements followed by o's.
func (l *List) Concat(o *List) *List {
	out := make([]Value, 0, len(l.elems)+len(o.elems))
	out = append(out, l.elems...)
	out = append(out, o.elems...)
	return &List{elems: out}
}

func (l *List) IsZero() bool { return len(l.elems) == 0 }

func (l *List) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, e := range l.elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(canonical(e))
	}
	b.WriteString("]")
	return b.String()
}

func (l *List) Equal(other Value) Value {
	if p := propagate(other); p != nil {
		return p
	}
	o, ok := other.(*List)
	if !ok || len(l.elems) != len(o.elems) {
		return False
	}
	for i := range l.elems {
		eq := Equal(l.elems[i], o.elems[i])
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

// canonical renders a value as it appears inside a container: strings
// quoted, everything else in its debug form.
func canonical(v Value) string {
	if s, ok := v.(String); ok {
		return `"` + string(s) + `"`
	}
	return v.String()
}
