package interp

import (
	"math"
	"strconv"
	"time"

	"github.com/ezachrisen/cobalt/types"
)

// registerConversions installs the type conversion overloads.
func registerConversions(r *Registry, reg func(string, []types.Kind, FunctionValue)) {
	k := func(ks ...types.Kind) []types.Kind { return ks }
	identity := func(id int64, args ...types.Value) types.Value { return args[0] }

	// int(...)
	reg("int_to_int", k(types.IntKind), identity)
	reg("uint_to_int", k(types.UintKind), func(id int64, args ...types.Value) types.Value {
		u := uint64(args[0].(types.Uint))
		if u > math.MaxInt64 {
			return types.NewError(id, "integer overflow")
		}
		return types.Int(u)
	})
	reg("double_to_int", k(types.DoubleKind), func(id int64, args ...types.Value) types.Value {
		d := float64(args[0].(types.Double))
		if math.IsNaN(d) || d >= 9223372036854775808.0 || d < -9223372036854775808.0 {
			return types.NewError(id, "integer overflow")
		}
		return types.Int(int64(d))
	})
	reg("string_to_int", k(types.StringKind), func(id int64, args ...types.Value) types.Value {
		v, err := strconv.ParseInt(string(args[0].(types.String)), 10, 64)
		if err != nil {
			return types.NewError(id, "cannot convert string to int: %q", string(args[0].(types.String)))
		}
		return types.Int(v)
	})
	reg("timestamp_to_int", k(types.TimestampKind), func(id int64, args ...types.Value) types.Value {
		return types.Int(time.Time(args[0].(types.Timestamp)).Unix())
	})
	reg("duration_to_int", k(types.DurationKind), func(id int64, args ...types.Value) types.Value {
		return types.Int(time.Duration(args[0].(types.Duration)) / time.Second)
	})

	// uint(...)
	reg("uint_to_uint", k(types.UintKind), identity)
	reg("int_to_uint", k(types.IntKind), func(id int64, args ...types.Value) types.Value {
		i := int64(args[0].(types.Int))
		if i < 0 {
			return types.NewError(id, "unsigned integer overflow")
		}
		return types.Uint(i)
	})
	reg("double_to_uint", k(types.DoubleKind), func(id int64, args ...types.Value) types.Value {
		d := float64(args[0].(types.Double))
		if math.IsNaN(d) || d < 0 || d >= 18446744073709551616.0 {
			return types.NewError(id, "unsigned integer overflow")
		}
		return types.Uint(uint64(d))
	})
	reg("string_to_uint", k(types.StringKind), func(id int64, args ...types.Value) types.Value {
		v, err := strconv.ParseUint(string(args[0].(types.String)), 10, 64)
		if err != nil {
			return types.NewError(id, "cannot convert string to uint: %q", string(args[0].(types.String)))
		}
		return types.Uint(v)
	})

	// double(...)
	reg("double_to_double", k(types.DoubleKind), identity)
	reg("int_to_double", k(types.IntKind), func(id int64, args ...types.Value) types.Value {
		return types.Double(int64(args[0].(types.Int)))
	})
	reg("uint_to_double", k(types.UintKind), func(id int64, args ...types.Value) types.Value {
		return types.Double(uint64(args[0].(types.Uint)))
	})
	reg("string_to_double", k(types.StringKind), func(id int64, args ...types.Value) types.Value {
		v, err := strconv.ParseFloat(string(args[0].(types.String)), 64)
		if err != nil {
			return types.NewError(id, "cannot convert string to double: %q", string(args[0].(types.String)))
		}
		return types.Double(v)
	})

	// string(...): the canonical debug rendering of each kind.
	for _, from := range []struct {
		id   string
		kind types.Kind
	}{
		{"string_to_string", types.StringKind},
		{"bool_to_string", types.BoolKind},
		{"int_to_string", types.IntKind},
		{"uint_to_string", types.UintKind},
		{"double_to_string", types.DoubleKind},
		{"duration_to_string", types.DurationKind},
		{"timestamp_to_string", types.TimestampKind},
	} {
		reg(from.id, k(from.kind), func(id int64, args ...types.Value) types.Value {
			if s, ok := args[0].(types.String); ok {
				return s
			}
			return types.String(args[0].String())
		})
	}
	reg("bytes_to_string", k(types.BytesKind), func(id int64, args ...types.Value) types.Value {
		return types.String(args[0].(types.Bytes))
	})

	// bool(...)
	reg("bool_to_bool", k(types.BoolKind), identity)
	reg("string_to_bool", k(types.StringKind), func(id int64, args ...types.Value) types.Value {
		switch string(args[0].(types.String)) {
		case "true", "1":
			return types.True
		case "false", "0":
			return types.False
		}
		return types.NewError(id, "cannot convert string to bool: %q", string(args[0].(types.String)))
	})

	// bytes(...)
	reg("bytes_to_bytes", k(types.BytesKind), identity)
	reg("string_to_bytes", k(types.StringKind), func(id int64, args ...types.Value) types.Value {
		return types.Bytes(args[0].(types.String))
	})

	// duration(...) and timestamp(...)
	reg("duration_to_duration", k(types.DurationKind), identity)
	reg("string_to_duration", k(types.StringKind), func(id int64, args ...types.Value) types.Value {
		d, err := time.ParseDuration(string(args[0].(types.String)))
		if err != nil {
			return types.NewError(id, "cannot convert string to duration: %q", string(args[0].(types.String)))
		}
		return types.Duration(d)
	})
	reg("timestamp_to_timestamp", k(types.TimestampKind), identity)
	reg("string_to_timestamp", k(types.StringKind), func(id int64, args ...types.Value) types.Value {
		t, err := time.Parse(time.RFC3339, string(args[0].(types.String)))
		if err != nil {
			return types.NewError(id, "cannot convert string to timestamp: %q", string(args[0].(types.String)))
		}
		return types.Timestamp(t)
	})
	reg("int_to_timestamp", k(types.IntKind), func(id int64, args ...types.Value) types.Value {
		return types.Timestamp(time.Unix(int64(args[0].(types.Int)), 0).UTC())
	})

	// type(...) and dyn(...)
	reg("type_of", k(types.DynKind), func(id int64, args ...types.Value) types.Value {
		return types.TypeValue{T: args[0].Type()}
	})
	reg("to_dyn", k(types.DynKind), identity)
}
