package ext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ezachrisen/cobalt/checker"
	"github.com/ezachrisen/cobalt/interp"
	"github.com/ezachrisen/cobalt/types"
)

// Format registers the string formatting function:
//
//	"x is %d and y is %.2f".format([x, y])
//
// Clauses: %s generic, %d decimal, %f fixed (optional .N precision),
// %e scientific, %b binary, %x/%X hex, %o octal, %% literal percent.
// An unrecognized clause or an argument count mismatch is an error
// value.
func Format(env *checker.Env, reg *interp.Registry) error {
	if err := declareFormat(env); err != nil {
		return err
	}
	return registerFormatBinding(reg)
}

func declareFormat(env *checker.Env) error {
	d := fn("format", checker.MemberOverload("string_format",
		args(types.StringType, types.NewListType(types.DynType)), types.StringType))
	return env.AddFunction(d)
}

func registerFormatBinding(reg *interp.Registry) error {
	return reg.Register(&interp.Overload{
		ID:    "string_format",
		Kinds: []types.Kind{types.StringKind, types.ListKind},
		Function: func(id int64, a ...types.Value) types.Value {
			return formatString(id, string(a[0].(types.String)), a[1].(*types.List).Elements())
		},
	})
}

func formatString(id int64, format string, formatArgs []types.Value) types.Value {
	var b strings.Builder
	argIdx := 0
	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(format) {
			return types.NewError(id, "format: unexpected end of clause")
		}
		i++
		if format[i] == '%' {
			b.WriteByte('%')
			i++
			continue
		}
		precision := -1
		if format[i] == '.' {
			j := i + 1
			for j < len(format) && format[j] >= '0' && format[j] <= '9' {
				j++
			}
			p, err := strconv.Atoi(format[i+1 : j])
			if err != nil {
				return types.NewError(id, "format: malformed precision specifier")
			}
			precision = p
			i = j
		}
		if i >= len(format) {
			return types.NewError(id, "format: unexpected end of clause")
		}
		verb := format[i]
		i++
		if argIdx >= len(formatArgs) {
			return types.NewError(id, "format: not enough arguments for clause %%%s", string(verb))
		}
		out, err := formatClause(verb, precision, formatArgs[argIdx])
		if err != nil {
			return types.NewError(id, "format: %v", err)
		}
		argIdx++
		b.WriteString(out)
	}
	if argIdx != len(formatArgs) {
		return types.NewError(id, "format: too many arguments: expected %d, got %d", argIdx, len(formatArgs))
	}
	return types.String(b.String())
}

func formatClause(verb byte, precision int, v types.Value) (string, error) {
	switch verb {
	case 's':
		return v.String(), nil
	case 'd':
		switch x := v.(type) {
		case types.Int:
			return strconv.FormatInt(int64(x), 10), nil
		case types.Uint:
			return strconv.FormatUint(uint64(x), 10), nil
		}
		return "", fmt.Errorf("clause %%d requires an integer, found %s", v.Kind())
	case 'f', 'e':
		d, err := asDouble(v)
		if err != nil {
			return "", err
		}
		if precision < 0 {
			precision = 6
		}
		f := byte('f')
		if verb == 'e' {
			f = 'e'
		}
		return strconv.FormatFloat(d, f, precision, 64), nil
	case 'b':
		switch x := v.(type) {
		case types.Int:
			return strconv.FormatInt(int64(x), 2), nil
		case types.Uint:
			return strconv.FormatUint(uint64(x), 2), nil
		case types.Bool:
			if x {
				return "1", nil
			}
			return "0", nil
		}
		return "", fmt.Errorf("clause %%b requires an integer or bool, found %s", v.Kind())
	case 'x', 'X':
		s, err := formatHex(v)
		if err != nil {
			return "", err
		}
		if verb == 'X' {
			return strings.ToUpper(s), nil
		}
		return s, nil
	case 'o':
		switch x := v.(type) {
		case types.Int:
			return strconv.FormatInt(int64(x), 8), nil
		case types.Uint:
			return strconv.FormatUint(uint64(x), 8), nil
		}
		return "", fmt.Errorf("clause %%o requires an integer, found %s", v.Kind())
	}
	return "", fmt.Errorf("unrecognized formatting clause %%%s", string(verb))
}

func asDouble(v types.Value) (float64, error) {
	switch x := v.(type) {
	case types.Double:
		return float64(x), nil
	case types.Int:
		return float64(x), nil
	case types.Uint:
		return float64(x), nil
	}
	return 0, fmt.Errorf("numeric clause requires a number, found %s", v.Kind())
}

func formatHex(v types.Value) (string, error) {
	switch x := v.(type) {
	case types.Int:
		if x < 0 {
			return "-" + strconv.FormatInt(-int64(x), 16), nil
		}
		return strconv.FormatInt(int64(x), 16), nil
	case types.Uint:
		return strconv.FormatUint(uint64(x), 16), nil
	case types.String:
		return fmt.Sprintf("%x", string(x)), nil
	case types.Bytes:
		return fmt.Sprintf("%x", []byte(x)), nil
	}
	return "", fmt.Errorf("clause %%x requires an integer, string, or bytes, found %s", v.Kind())
}
