package ext_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezachrisen/cobalt/checker"
	"github.com/ezachrisen/cobalt/ext"
	"github.com/ezachrisen/cobalt/interp"
	"github.com/ezachrisen/cobalt/parser"
	"github.com/ezachrisen/cobalt/types"
)

func eval(t *testing.T, src string, data map[string]any) types.Value {
	t.Helper()
	tree, info, err := parser.Parse(src)
	require.NoError(t, err, "parsing %q", src)
	env := checker.StandardEnv()
	require.NoError(t, ext.Declare(env))
	for name := range data {
		require.NoError(t, env.AddVariable(&checker.VarDecl{Name: name, Type: types.DynType}))
	}
	checked := checker.Check(tree, info, env)
	require.True(t, checked.Valid(), "checking %q: %v", src, checked.Issues)
	reg := interp.NewRegistry()
	require.NoError(t, ext.RegisterBindings(reg))
	prog, err := interp.Plan(checked, reg)
	require.NoError(t, err)
	got, err := interp.Eval(context.Background(), prog, interp.MapActivation(data))
	require.NoError(t, err)
	return got
}

func TestStringFunctions(t *testing.T) {
	cases := []struct {
		src  string
		want types.Value
	}{
		{"'UPPER lower'.lowerAscii()", types.String("upper lower")},
		{"'UPPER lower'.lowerAscii() == 'upper lower'", types.True},
		{"'upper'.upperAscii()", types.String("UPPER")},
		{"'a,b,c'.split(',')", types.NewList(types.String("a"), types.String("b"), types.String("c"))},
		{"size('hello world!'.split(''))", types.Int(12)},
		{"'hello world!'.split('')[0]", types.String("h")},
		{"'hello world!'.split('')[11]", types.String("!")},
		{"['a', 'b'].join()", types.String("ab")},
		{"['a', 'b'].join('-')", types.String("a-b")},
		{"'aaa'.replace('a', 'b')", types.String("bbb")},
		{"'  x  '.trim()", types.String("x")},
		{"'hello'.indexOf('ll')", types.Int(2)},
		{"'hello'.indexOf('z')", types.Int(-1)},
		{"'hello'.substring(1)", types.String("ello")},
		{"'hello'.substring(1, 3)", types.String("el")},
		{"'hello'.charAt(1)", types.String("e")},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got := eval(t, c.src, nil)
			res := types.Equal(c.want, got)
			b, ok := res.(types.Bool)
			require.True(t, ok, "got %s", got)
			assert.True(t, bool(b), "%s: got %s, want %s", c.src, got, c.want)
		})
	}

	// split preserves original order
	got := eval(t, "'hello world!'.split('')", nil)
	l := got.(*types.List)
	var rebuilt string
	for _, e := range l.Elements() {
		rebuilt += string(e.(types.String))
	}
	assert.Equal(t, "hello world!", rebuilt)
}

func TestStringFunctionErrors(t *testing.T) {
	got := eval(t, "'abc'.charAt(9)", nil)
	require.Equal(t, types.ErrorKind, got.Kind())
	assert.Contains(t, got.(*types.Error).Message, "out of range")

	got = eval(t, "'abc'.substring(2, 1)", nil)
	assert.Equal(t, types.ErrorKind, got.Kind())
}

func TestFormat(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"'%s'.format(['hi'])", "hi"},
		{"'%s and %s'.format([1, true])", "1 and true"},
		{"'%d items'.format([42])", "42 items"},
		{"'%.2f'.format([1.5])", "1.50"},
		{"'%f'.format([1.5])", "1.500000"},
		{"'%e'.format([1200.0])", "1.200000e+03"},
		{"'%b'.format([5])", "101"},
		{"'%x'.format([255])", "ff"},
		{"'%X'.format([255])", "FF"},
		{"'%o'.format([8])", "10"},
		{"'100%%'.format([])", "100%"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got := eval(t, c.src, nil)
			require.Equal(t, types.StringKind, got.Kind(), "got %s", got)
			assert.Equal(t, c.want, string(got.(types.String)))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	// durations render as decimal seconds with nanosecond precision
	d := types.Duration(123*time.Second + 456*time.Nanosecond)
	got := eval(t, "'%s'.format([d])", map[string]any{"d": d})
	require.Equal(t, types.StringKind, got.Kind())
	assert.Equal(t, "123.000000456s", string(got.(types.String)))
}

func TestFormatErrors(t *testing.T) {
	cases := []struct {
		src     string
		message string
	}{
		{"'%q'.format([1])", "unrecognized formatting clause"},
		{"'%d'.format(['x'])", "requires an integer"},
		{"'%d %d'.format([1])", "not enough arguments"},
		{"'%d'.format([1, 2])", "too many arguments"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got := eval(t, c.src, nil)
			require.Equal(t, types.ErrorKind, got.Kind(), "got %s", got)
			assert.Contains(t, got.(*types.Error).Message, c.message)
		})
	}
}
