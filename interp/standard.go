package interp

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ezachrisen/cobalt/types"
)

// registerStandard installs the runtime bindings for the standard
// declarations. The overload ids here mirror checker.addStandardDecls;
// a declaration without a binding would surface as a plan error.
func registerStandard(r *Registry) {
	k := func(ks ...types.Kind) []types.Kind { return ks }
	reg := func(id string, kinds []types.Kind, fn FunctionValue) {
		if err := r.Register(&Overload{ID: id, Kinds: kinds, Function: fn}); err != nil {
			// The standard table is hardcoded; failure is a programming
			// error in this package.
			panic(err)
		}
	}

	// Logic. The planner lowers && and || to jumps; these bindings
	// serve hosts that call the functions directly.
	reg("logical_and", k(types.BoolKind, types.BoolKind), func(id int64, args ...types.Value) types.Value {
		return args[0].(types.Bool) && args[1].(types.Bool)
	})
	reg("logical_or", k(types.BoolKind, types.BoolKind), func(id int64, args ...types.Value) types.Value {
		return args[0].(types.Bool) || args[1].(types.Bool)
	})
	reg("logical_not", k(types.BoolKind), func(id int64, args ...types.Value) types.Value {
		return !args[0].(types.Bool)
	})
	if err := r.Register(&Overload{
		ID:        "not_strictly_false",
		Kinds:     k(types.DynKind),
		NonStrict: true,
		Function: func(id int64, args ...types.Value) types.Value {
			if b, ok := args[0].(types.Bool); ok {
				return b
			}
			// Errors and unknowns are "not strictly false".
			return types.True
		},
	}); err != nil {
		panic(err)
	}

	// Equality.
	reg("equals", k(types.DynKind, types.DynKind), func(id int64, args ...types.Value) types.Value {
		return types.Equal(args[0], args[1])
	})
	reg("not_equals", k(types.DynKind, types.DynKind), func(id int64, args ...types.Value) types.Value {
		eq := types.Equal(args[0], args[1])
		if b, ok := eq.(types.Bool); ok {
			return !b
		}
		return eq
	})

	// Arithmetic.
	reg("add_int_int", k(types.IntKind, types.IntKind), func(id int64, args ...types.Value) types.Value {
		a, b := int64(args[0].(types.Int)), int64(args[1].(types.Int))
		s := a + b
		if (s > a) != (b > 0) {
			return types.NewError(id, "integer overflow")
		}
		return types.Int(s)
	})
	reg("add_uint_uint", k(types.UintKind, types.UintKind), func(id int64, args ...types.Value) types.Value {
		a, b := uint64(args[0].(types.Uint)), uint64(args[1].(types.Uint))
		if a > math.MaxUint64-b {
			return types.NewError(id, "unsigned integer overflow")
		}
		return types.Uint(a + b)
	})
	reg("add_double_double", k(types.DoubleKind, types.DoubleKind), func(id int64, args ...types.Value) types.Value {
		return args[0].(types.Double) + args[1].(types.Double)
	})
	reg("add_string_string", k(types.StringKind, types.StringKind), func(id int64, args ...types.Value) types.Value {
		return args[0].(types.String) + args[1].(types.String)
	})
	reg("add_bytes_bytes", k(types.BytesKind, types.BytesKind), func(id int64, args ...types.Value) types.Value {
		a, b := args[0].(types.Bytes), args[1].(types.Bytes)
		out := make([]byte, 0, len(a)+len(b))
		return types.Bytes(append(append(out, a...), b...))
	})
	reg("add_list_list", k(types.ListKind, types.ListKind), func(id int64, args ...types.Value) types.Value {
		return args[0].(*types.List).Concat(args[1].(*types.List))
	})
	reg("add_duration_duration", k(types.DurationKind, types.DurationKind), func(id int64, args ...types.Value) types.Value {
		return args[0].(types.Duration) + args[1].(types.Duration)
	})
	reg("add_duration_timestamp", k(types.DurationKind, types.TimestampKind), func(id int64, args ...types.Value) types.Value {
		return types.Timestamp(time.Time(args[1].(types.Timestamp)).Add(time.Duration(args[0].(types.Duration))))
	})
	reg("add_timestamp_duration", k(types.TimestampKind, types.DurationKind), func(id int64, args ...types.Value) types.Value {
		return types.Timestamp(time.Time(args[0].(types.Timestamp)).Add(time.Duration(args[1].(types.Duration))))
	})
	reg("subtract_int_int", k(types.IntKind, types.IntKind), func(id int64, args ...types.Value) types.Value {
		a, b := int64(args[0].(types.Int)), int64(args[1].(types.Int))
		s := a - b
		if (s < a) != (b > 0) {
			return types.NewError(id, "integer overflow")
		}
		return types.Int(s)
	})
	reg("subtract_uint_uint", k(types.UintKind, types.UintKind), func(id int64, args ...types.Value) types.Value {
		a, b := uint64(args[0].(types.Uint)), uint64(args[1].(types.Uint))
		if b > a {
			return types.NewError(id, "unsigned integer overflow")
		}
		return types.Uint(a - b)
	})
	reg("subtract_double_double", k(types.DoubleKind, types.DoubleKind), func(id int64, args ...types.Value) types.Value {
		return args[0].(types.Double) - args[1].(types.Double)
	})
	reg("subtract_duration_duration", k(types.DurationKind, types.DurationKind), func(id int64, args ...types.Value) types.Value {
		return args[0].(types.Duration) - args[1].(types.Duration)
	})
	reg("subtract_timestamp_timestamp", k(types.TimestampKind, types.TimestampKind), func(id int64, args ...types.Value) types.Value {
		return types.Duration(time.Time(args[0].(types.Timestamp)).Sub(time.Time(args[1].(types.Timestamp))))
	})
	reg("subtract_timestamp_duration", k(types.TimestampKind, types.DurationKind), func(id int64, args ...types.Value) types.Value {
		return types.Timestamp(time.Time(args[0].(types.Timestamp)).Add(-time.Duration(args[1].(types.Duration))))
	})
	reg("multiply_int_int", k(types.IntKind, types.IntKind), func(id int64, args ...types.Value) types.Value {
		a, b := int64(args[0].(types.Int)), int64(args[1].(types.Int))
		p := a * b
		if a != 0 && (p/a != b || (a == -1 && b == math.MinInt64)) {
			return types.NewError(id, "integer overflow")
		}
		return types.Int(p)
	})
	reg("multiply_uint_uint", k(types.UintKind, types.UintKind), func(id int64, args ...types.Value) types.Value {
		a, b := uint64(args[0].(types.Uint)), uint64(args[1].(types.Uint))
		p := a * b
		if a != 0 && p/a != b {
			return types.NewError(id, "unsigned integer overflow")
		}
		return types.Uint(p)
	})
	reg("multiply_double_double", k(types.DoubleKind, types.DoubleKind), func(id int64, args ...types.Value) types.Value {
		return args[0].(types.Double) * args[1].(types.Double)
	})
	reg("divide_int_int", k(types.IntKind, types.IntKind), func(id int64, args ...types.Value) types.Value {
		a, b := int64(args[0].(types.Int)), int64(args[1].(types.Int))
		if b == 0 {
			return types.NewError(id, "division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return types.NewError(id, "integer overflow")
		}
		return types.Int(a / b)
	})
	reg("divide_uint_uint", k(types.UintKind, types.UintKind), func(id int64, args ...types.Value) types.Value {
		b := uint64(args[1].(types.Uint))
		if b == 0 {
			return types.NewError(id, "division by zero")
		}
		return types.Uint(uint64(args[0].(types.Uint)) / b)
	})
	reg("divide_double_double", k(types.DoubleKind, types.DoubleKind), func(id int64, args ...types.Value) types.Value {
		return args[0].(types.Double) / args[1].(types.Double)
	})
	reg("modulo_int_int", k(types.IntKind, types.IntKind), func(id int64, args ...types.Value) types.Value {
		a, b := int64(args[0].(types.Int)), int64(args[1].(types.Int))
		if b == 0 {
			return types.NewError(id, "modulus by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return types.NewError(id, "integer overflow")
		}
		return types.Int(a % b)
	})
	reg("modulo_uint_uint", k(types.UintKind, types.UintKind), func(id int64, args ...types.Value) types.Value {
		b := uint64(args[1].(types.Uint))
		if b == 0 {
			return types.NewError(id, "modulus by zero")
		}
		return types.Uint(uint64(args[0].(types.Uint)) % b)
	})
	reg("negate_int", k(types.IntKind), func(id int64, args ...types.Value) types.Value {
		a := int64(args[0].(types.Int))
		if a == math.MinInt64 {
			return types.NewError(id, "integer overflow")
		}
		return types.Int(-a)
	})
	reg("negate_double", k(types.DoubleKind), func(id int64, args ...types.Value) types.Value {
		return -args[0].(types.Double)
	})

	// Comparisons.
	registerCompare(reg, "less", func(c int) bool { return c < 0 })
	registerCompare(reg, "less_equals", func(c int) bool { return c <= 0 })
	registerCompare(reg, "greater", func(c int) bool { return c > 0 })
	registerCompare(reg, "greater_equals", func(c int) bool { return c >= 0 })

	// Containers.
	reg("index_list", k(types.ListKind, types.IntKind), func(id int64, args ...types.Value) types.Value {
		return attributedValue(id, args[0].(*types.List).Get(int64(args[1].(types.Int))))
	})
	reg("index_map", k(types.MapKind, types.DynKind), func(id int64, args ...types.Value) types.Value {
		return attributedValue(id, args[0].(*types.Map).Get(args[1]))
	})
	reg("in_list", k(types.DynKind, types.ListKind), func(id int64, args ...types.Value) types.Value {
		return args[1].(*types.List).Contains(args[0])
	})
	reg("in_map", k(types.DynKind, types.MapKind), func(id int64, args ...types.Value) types.Value {
		return attributedValue(id, args[1].(*types.Map).Has(args[0]))
	})

	// Size, in both global and member form.
	sizes := map[string]types.Kind{
		"size_string": types.StringKind, "string_size": types.StringKind,
		"size_bytes": types.BytesKind, "bytes_size": types.BytesKind,
		"size_list": types.ListKind, "list_size": types.ListKind,
		"size_map": types.MapKind, "map_size": types.MapKind,
	}
	for id, kind := range sizes {
		reg(id, k(kind), func(id int64, args ...types.Value) types.Value {
			switch v := args[0].(type) {
			case types.String:
				return types.Int(len([]rune(string(v))))
			case types.Bytes:
				return types.Int(len(v))
			case *types.List:
				return types.Int(v.Len())
			case *types.Map:
				return types.Int(v.Len())
			}
			return types.NewError(id, "no such overload: size(%s)", args[0].Kind())
		})
	}

	reg("contains_string", k(types.StringKind, types.StringKind), func(id int64, args ...types.Value) types.Value {
		return types.Bool(strings.Contains(string(args[0].(types.String)), string(args[1].(types.String))))
	})
	reg("starts_with_string", k(types.StringKind, types.StringKind), func(id int64, args ...types.Value) types.Value {
		return types.Bool(strings.HasPrefix(string(args[0].(types.String)), string(args[1].(types.String))))
	})
	reg("ends_with_string", k(types.StringKind, types.StringKind), func(id int64, args ...types.Value) types.Value {
		return types.Bool(strings.HasSuffix(string(args[0].(types.String)), string(args[1].(types.String))))
	})

	registerConversions(r, reg)
}

func attributedValue(id int64, v types.Value) types.Value {
	if e, ok := v.(*types.Error); ok && e.ID == 0 {
		e.ID = id
	}
	return v
}

func registerCompare(reg func(string, []types.Kind, FunctionValue), name string, accept func(int) bool) {
	kindSuffix := map[string]types.Kind{
		"int_int":             types.IntKind,
		"uint_uint":           types.UintKind,
		"double_double":       types.DoubleKind,
		"string_string":       types.StringKind,
		"bytes_bytes":         types.BytesKind,
		"duration_duration":   types.DurationKind,
		"timestamp_timestamp": types.TimestampKind,
	}
	for suffix, kind := range kindSuffix {
		reg(name+"_"+suffix, []types.Kind{kind, kind}, func(id int64, args ...types.Value) types.Value {
			c, err := compare(args[0], args[1])
			if err != nil {
				return types.NewError(id, "%s", err)
			}
			return types.Bool(accept(c))
		})
	}
}

func compare(a, b types.Value) (int, error) {
	switch x := a.(type) {
	case types.Int:
		y := b.(types.Int)
		return cmp(int64(x), int64(y)), nil
	case types.Uint:
		y := b.(types.Uint)
		return cmp(uint64(x), uint64(y)), nil
	case types.Double:
		y := b.(types.Double)
		return cmp(float64(x), float64(y)), nil
	case types.String:
		return strings.Compare(string(x), string(b.(types.String))), nil
	case types.Bytes:
		return strings.Compare(string(x), string(b.(types.Bytes))), nil
	case types.Duration:
		return cmp(int64(x), int64(b.(types.Duration))), nil
	case types.Timestamp:
		tx, ty := time.Time(x), time.Time(b.(types.Timestamp))
		switch {
		case tx.Before(ty):
			return -1, nil
		case tx.After(ty):
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("values of kind %s are not ordered", a.Kind())
}

func cmp[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
