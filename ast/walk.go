package ast

// Walk calls f for every node in the tree rooted at e, parents before
// children. Traversal stops early if f returns false.
func Walk(e *Expr, f func(*Expr) bool) bool {
	if e == nil {
		return true
	}
	if !f(e) {
		return false
	}
	switch e.Kind() {
	case SelectKind:
		return Walk(e.Select.Operand, f)
	case CallKind:
		if !Walk(e.Call.Target, f) {
			return false
		}
		for _, a := range e.Call.Args {
			if !Walk(a, f) {
				return false
			}
		}
	case ListKind:
		for _, el := range e.List.Elements {
			if !Walk(el, f) {
				return false
			}
		}
	case MapKind:
		for _, en := range e.Map.Entries {
			if !Walk(en.Key, f) {
				return false
			}
			if !Walk(en.Value, f) {
				return false
			}
		}
	case ComprehensionKind:
		c := e.Comprehension
		for _, sub := range []*Expr{c.IterRange, c.AccuInit, c.LoopCondition, c.LoopStep, c.Result} {
			if !Walk(sub, f) {
				return false
			}
		}
	}
	return true
}

// Size returns the number of nodes in the tree rooted at e.
func Size(e *Expr) int {
	n := 0
	Walk(e, func(*Expr) bool { n++; return true })
	return n
}

// MaxID returns the largest node ID in the tree rooted at e.
func MaxID(e *Expr) int64 {
	var max int64
	Walk(e, func(x *Expr) bool {
		if x.ID > max {
			max = x.ID
		}
		return true
	})
	return max
}

// Copy returns a deep copy of the tree rooted at e. Node IDs are
// preserved, so checker annotations for the original remain valid for
// the copy.
func Copy(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	out := &Expr{ID: e.ID}
	switch e.Kind() {
	case ConstKind:
		c := *e.Const
		if e.Const.Bytes != nil {
			c.Bytes = append([]byte(nil), e.Const.Bytes...)
		}
		out.Const = &c
	case IdentKind:
		id := *e.Ident
		out.Ident = &id
	case SelectKind:
		out.Select = &Select{
			Operand:  Copy(e.Select.Operand),
			Field:    e.Select.Field,
			TestOnly: e.Select.TestOnly,
		}
	case CallKind:
		c := &Call{
			Target:   Copy(e.Call.Target),
			Function: e.Call.Function,
		}
		for _, a := range e.Call.Args {
			c.Args = append(c.Args, Copy(a))
		}
		out.Call = c
	case ListKind:
		l := &List{
			OptionalIndices: append([]int(nil), e.List.OptionalIndices...),
		}
		for _, el := range e.List.Elements {
			l.Elements = append(l.Elements, Copy(el))
		}
		out.List = l
	case MapKind:
		m := &Map{}
		for _, en := range e.Map.Entries {
			m.Entries = append(m.Entries, Entry{
				ID:       en.ID,
				Key:      Copy(en.Key),
				Value:    Copy(en.Value),
				Optional: en.Optional,
			})
		}
		out.Map = m
	case ComprehensionKind:
		c := e.Comprehension
		out.Comprehension = &Comprehension{
			IterVar:       c.IterVar,
			IterRange:     Copy(c.IterRange),
			AccuVar:       c.AccuVar,
			AccuInit:      Copy(c.AccuInit),
			LoopCondition: Copy(c.LoopCondition),
			LoopStep:      Copy(c.LoopStep),
			Result:        Copy(c.Result),
		}
	}
	return out
}
