// Package ext provides host extension packs for the Cobalt language:
// string manipulation and string formatting. Each pack registers its
// declarations into a checker environment and its bindings into an
// interpreter registry.
package ext

import (
	"strings"

	"github.com/ezachrisen/cobalt/checker"
	"github.com/ezachrisen/cobalt/interp"
	"github.com/ezachrisen/cobalt/types"
)

// Strings registers the string-manipulation functions: lowerAscii,
// upperAscii, split, join, replace, trim, indexOf, substring, charAt.
func Strings(env *checker.Env, reg *interp.Registry) error {
	if err := declareStrings(env); err != nil {
		return err
	}
	return registerStringBindings(reg)
}

func declareStrings(env *checker.Env) error {
	listString := types.NewListType(types.StringType)
	decls := []*checker.FunctionDecl{
		fn("lowerAscii", checker.MemberOverload("string_lower_ascii",
			args(types.StringType), types.StringType)),
		fn("upperAscii", checker.MemberOverload("string_upper_ascii",
			args(types.StringType), types.StringType)),
		fn("split", checker.MemberOverload("string_split_string",
			args(types.StringType, types.StringType), listString)),
		fn("join",
			checker.MemberOverload("list_join", args(listString), types.StringType),
			checker.MemberOverload("list_join_string", args(listString, types.StringType), types.StringType)),
		fn("replace", checker.MemberOverload("string_replace_string_string",
			args(types.StringType, types.StringType, types.StringType), types.StringType)),
		fn("trim", checker.MemberOverload("string_trim",
			args(types.StringType), types.StringType)),
		fn("indexOf", checker.MemberOverload("string_index_of_string",
			args(types.StringType, types.StringType), types.IntType)),
		fn("substring",
			checker.MemberOverload("string_substring_int", args(types.StringType, types.IntType), types.StringType),
			checker.MemberOverload("string_substring_int_int", args(types.StringType, types.IntType, types.IntType), types.StringType)),
		fn("charAt", checker.MemberOverload("string_char_at_int",
			args(types.StringType, types.IntType), types.StringType)),
	}
	for _, d := range decls {
		if err := env.AddFunction(d); err != nil {
			return err
		}
	}
	return nil
}

func fn(name string, overloads ...*checker.OverloadDecl) *checker.FunctionDecl {
	d, err := checker.NewFunction(name, overloads...)
	if err != nil {
		// The extension table is hardcoded; failure is a programming
		// error in this package.
		panic(err)
	}
	return d
}

func args(ts ...*types.Type) []*types.Type { return ts }

func registerStringBindings(reg *interp.Registry) error {
	k := func(ks ...types.Kind) []types.Kind { return ks }
	bindings := []*interp.Overload{
		{
			ID:    "string_lower_ascii",
			Kinds: k(types.StringKind),
			Function: func(id int64, a ...types.Value) types.Value {
				return types.String(asciiMap(string(a[0].(types.String)), 'A', 'Z', 'a'-'A'))
			},
		},
		{
			ID:    "string_upper_ascii",
			Kinds: k(types.StringKind),
			Function: func(id int64, a ...types.Value) types.Value {
				return types.String(asciiMap(string(a[0].(types.String)), 'a', 'z', 'A'-'a'))
			},
		},
		{
			ID:    "string_split_string",
			Kinds: k(types.StringKind, types.StringKind),
			Function: func(id int64, a ...types.Value) types.Value {
				parts := strings.Split(string(a[0].(types.String)), string(a[1].(types.String)))
				out := make([]types.Value, len(parts))
				for i, p := range parts {
					out[i] = types.String(p)
				}
				return types.NewList(out...)
			},
		},
		{
			ID:    "list_join",
			Kinds: k(types.ListKind),
			Function: func(id int64, a ...types.Value) types.Value {
				return joinList(id, a[0].(*types.List), "")
			},
		},
		{
			ID:    "list_join_string",
			Kinds: k(types.ListKind, types.StringKind),
			Function: func(id int64, a ...types.Value) types.Value {
				return joinList(id, a[0].(*types.List), string(a[1].(types.String)))
			},
		},
		{
			ID:    "string_replace_string_string",
			Kinds: k(types.StringKind, types.StringKind, types.StringKind),
			Function: func(id int64, a ...types.Value) types.Value {
				return types.String(strings.ReplaceAll(
					string(a[0].(types.String)), string(a[1].(types.String)), string(a[2].(types.String))))
			},
		},
		{
			ID:    "string_trim",
			Kinds: k(types.StringKind),
			Function: func(id int64, a ...types.Value) types.Value {
				return types.String(strings.TrimSpace(string(a[0].(types.String))))
			},
		},
		{
			ID:    "string_index_of_string",
			Kinds: k(types.StringKind, types.StringKind),
			Function: func(id int64, a ...types.Value) types.Value {
				return types.Int(strings.Index(string(a[0].(types.String)), string(a[1].(types.String))))
			},
		},
		{
			ID:    "string_substring_int",
			Kinds: k(types.StringKind, types.IntKind),
			Function: func(id int64, a ...types.Value) types.Value {
				return substring(id, string(a[0].(types.String)), int64(a[1].(types.Int)), -1)
			},
		},
		{
			ID:    "string_substring_int_int",
			Kinds: k(types.StringKind, types.IntKind, types.IntKind),
			Function: func(id int64, a ...types.Value) types.Value {
				return substring(id, string(a[0].(types.String)), int64(a[1].(types.Int)), int64(a[2].(types.Int)))
			},
		},
		{
			ID:    "string_char_at_int",
			Kinds: k(types.StringKind, types.IntKind),
			Function: func(id int64, a ...types.Value) types.Value {
				runes := []rune(string(a[0].(types.String)))
				i := int64(a[1].(types.Int))
				if i < 0 || i >= int64(len(runes)) {
					return types.NewError(id, "index %d out of range in string of size %d", i, len(runes))
				}
				return types.String(runes[i])
			},
		},
	}
	for _, b := range bindings {
		if err := reg.Register(b); err != nil {
			return err
		}
	}
	return nil
}

func asciiMap(s string, lo, hi byte, delta int) string {
	out := []byte(s)
	for i, c := range out {
		if c >= lo && c <= hi {
			out[i] = byte(int(c) + delta)
		}
	}
	return string(out)
}

func joinList(id int64, l *types.List, sep string) types.Value {
	parts := make([]string, 0, l.Len())
	for _, e := range l.Elements() {
		s, ok := e.(types.String)
		if !ok {
			return types.NewError(id, "join requires a list of strings, found %s", e.Kind())
		}
		parts = append(parts, string(s))
	}
	return types.String(strings.Join(parts, sep))
}

func substring(id int64, s string, start, end int64) types.Value {
	runes := []rune(s)
	if end < 0 {
		end = int64(len(runes))
	}
	if start < 0 || start > int64(len(runes)) || end < start || end > int64(len(runes)) {
		return types.NewError(id, "substring range [%d, %d) out of bounds in string of size %d", start, end, len(runes))
	}
	return types.String(runes[start:end])
}
