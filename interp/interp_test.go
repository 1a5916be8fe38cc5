package interp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezachrisen/cobalt/checker"
	"github.com/ezachrisen/cobalt/interp"
	"github.com/ezachrisen/cobalt/parser"
	"github.com/ezachrisen/cobalt/types"
)

// compile runs the full front half of the pipeline: parse, check, plan.
func compile(t *testing.T, src string, vars map[string]*types.Type) *interp.Program {
	t.Helper()
	prog, _ := compileWith(t, src, vars, interp.NewRegistry(), nil)
	return prog
}

func compileWith(t *testing.T, src string, vars map[string]*types.Type,
	reg *interp.Registry, fns []*checker.FunctionDecl) (*interp.Program, *checker.Result) {
	t.Helper()
	tree, info, err := parser.Parse(src)
	require.NoError(t, err, "parsing %q", src)
	env := checker.StandardEnv()
	for name, typ := range vars {
		require.NoError(t, env.AddVariable(&checker.VarDecl{Name: name, Type: typ}))
	}
	for _, f := range fns {
		require.NoError(t, env.AddFunction(f))
	}
	checked := checker.Check(tree, info, env)
	require.True(t, checked.Valid(), "checking %q: %v", src, checked.Issues)
	prog, err := interp.Plan(checked, reg)
	require.NoError(t, err, "planning %q", src)
	return prog, checked
}

func eval(t *testing.T, src string, vars map[string]*types.Type, data map[string]any) types.Value {
	t.Helper()
	prog := compile(t, src, vars)
	got, err := interp.Eval(context.Background(), prog, interp.MapActivation(data))
	require.NoError(t, err, "evaluating %q", src)
	return got
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		src  string
		want types.Value
	}{
		{"1 + 2", types.Int(3)},
		{"6 - 2 * 2", types.Int(2)},
		{"7 / 2", types.Int(3)},
		{"7 % 2", types.Int(1)},
		{"-(3 + 4)", types.Int(-7)},
		{"2u + 3u", types.Uint(5)},
		{"1.5 * 2.0", types.Double(3.0)},
		{"'foo' + 'bar'", types.String("foobar")},
		{"[1] + [2, 3]", types.NewList(types.Int(1), types.Int(2), types.Int(3))},
		{"duration('1m') + duration('30s')", types.Duration(90 * time.Second)},
		{"1 < 2", types.True},
		{"2u >= 3u", types.False},
		{"'a' < 'b'", types.True},
		{"1 == 1", types.True},
		{"1 != 1", types.False},
		{"!false", types.True},
		{"size('hello')", types.Int(5)},
		{"size([1, 2, 3])", types.Int(3)},
		{"[10, 20, 30][1]", types.Int(20)},
		{"{'a': 1, 'b': 2}['b']", types.Int(2)},
		{"2 in [1, 2, 3]", types.True},
		{"'c' in {'a': 1, 'b': 2}", types.False},
		{"int('42')", types.Int(42)},
		{"string(42)", types.String("42")},
		{"double(3) / 2.0", types.Double(1.5)},
		{"type(1) == int", types.True},
		{"type('a') == string", types.True},
		{"true ? 1 : 2", types.Int(1)},
		{"false ? 1 : 2", types.Int(2)},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got := eval(t, c.src, nil, nil)
			res := types.Equal(c.want, got)
			b, ok := res.(types.Bool)
			require.True(t, ok, "comparison of %s and %s did not yield bool", c.want, got)
			assert.True(t, bool(b), "%s: got %s, want %s", c.src, got, c.want)
		})
	}
}

func TestEvaluationErrors(t *testing.T) {
	cases := []struct {
		src     string
		message string
	}{
		{"1 / 0", "division by zero"},
		{"1 % 0", "modulus by zero"},
		{"9223372036854775807 + 1", "integer overflow"},
		{"{'a': 1}['z']", "no such key: z"},
		{"int('nope')", "cannot convert"},
		{"{'a': 1, 'a': 2}", "duplicate map key"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got := eval(t, c.src, nil, nil)
			require.Equal(t, types.ErrorKind, got.Kind(), "got %s", got)
			assert.Contains(t, got.(*types.Error).Message, c.message)
			assert.NotZero(t, got.(*types.Error).ID, "errors carry the AST node id")
		})
	}
}

func TestShortCircuit(t *testing.T) {
	vars := map[string]*types.Type{"n": types.IntType}

	// false && <error> = false; true || <error> = true
	assert.Equal(t, types.False, eval(t, "false && 1/n > 0", vars, map[string]any{"n": 0}))
	assert.Equal(t, types.True, eval(t, "true || 1/n > 0", vars, map[string]any{"n": 0}))

	// the error dominates when the other side is true
	got := eval(t, "true && 1/n > 0", vars, map[string]any{"n": 0})
	assert.Equal(t, types.ErrorKind, got.Kind())
	got = eval(t, "1/n > 0 || false", vars, map[string]any{"n": 0})
	assert.Equal(t, types.ErrorKind, got.Kind())

	// commutative: the right side's false wins over the left error
	assert.Equal(t, types.False, eval(t, "1/n > 0 && false", vars, map[string]any{"n": 0}))
	assert.Equal(t, types.True, eval(t, "1/n > 0 || true", vars, map[string]any{"n": 0}))
}

func TestConditionalBranches(t *testing.T) {
	vars := map[string]*types.Type{"n": types.IntType}
	data := map[string]any{"n": 0}

	// only the selected branch evaluates
	assert.Equal(t, types.Int(7), eval(t, "true ? 7 : 1/n", vars, data))
	assert.Equal(t, types.Int(7), eval(t, "false ? 1/n : 7", vars, data))

	// an error condition is returned as-is
	got := eval(t, "1/n > 0 ? 1 : 2", vars, data)
	require.Equal(t, types.ErrorKind, got.Kind())
	assert.Contains(t, got.(*types.Error).Message, "division by zero")
}

func TestComprehensions(t *testing.T) {
	cases := []struct {
		src  string
		want types.Value
	}{
		{"[1, 2, 3].exists(x, x * x > 8)", types.True},
		{"[1, 2, 3].exists(x, x > 5)", types.False},
		{"[1, 2, 3].all(x, x > 0)", types.True},
		{"[1, 2, 3].all(x, x > 1)", types.False},
		{"[].all(x, x > 1)", types.True},
		{"[].exists(x, x > 1)", types.False},
		{"[1, 2, 3].exists_one(x, x == 2)", types.True},
		{"[1, 2, 2].exists_one(x, x == 2)", types.False},
		{"[1, 2, 3].filter(x, x % 2 == 1)", types.NewList(types.Int(1), types.Int(3))},
		{"size([1, 2, 3].map(x, x * 10)) == 3", types.True},
		{"[1, 2, 3].map(x, x * 10)[2]", types.Int(30)},
		{"{'a': 1, 'b': 2}.all(k, k != '')", types.True},
		{"{'a': 1, 'b': 2}.exists(k, k == 'b')", types.True},
		{"[[1], [2, 3]].all(l, l.all(x, x > 0))", types.True},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got := eval(t, c.src, nil, nil)
			res := types.Equal(c.want, got)
			b, ok := res.(types.Bool)
			require.True(t, ok)
			assert.True(t, bool(b), "%s: got %s, want %s", c.src, got, c.want)
		})
	}
}

func TestComprehensionErrorRange(t *testing.T) {
	vars := map[string]*types.Type{
		"l": types.NewListType(types.IntType),
		"n": types.IntType,
	}
	// an error iter-range (here: a missing attribute) yields the error
	got := eval(t, "l.all(x, true)", vars, map[string]any{})
	require.Equal(t, types.ErrorKind, got.Kind())
	assert.Contains(t, got.(*types.Error).Message, "no such attribute")

	// an unknown iter-range yields the unknown
	prog := compile(t, "l.all(x, true)", vars)
	unk, err := interp.Eval(context.Background(), prog,
		interp.NewPartialActivation(interp.MapActivation{}, "l"))
	require.NoError(t, err)
	assert.Equal(t, types.UnknownKind, unk.Kind())

	// an error in the loop step poisons the result
	got = eval(t, "[1, 0].all(x, 10 / x > 0)", vars, map[string]any{})
	require.Equal(t, types.ErrorKind, got.Kind())
	assert.Contains(t, got.(*types.Error).Message, "division by zero")
}

func TestIterationBudget(t *testing.T) {
	prog := compile(t, "[1, 2, 3, 4, 5].all(x, x > 0)", nil)
	got, err := interp.Eval(context.Background(), prog, interp.EmptyActivation{},
		interp.IterationBudget(3))
	require.NoError(t, err)
	require.Equal(t, types.ErrorKind, got.Kind())
	assert.Contains(t, got.(*types.Error).Message, "iteration budget")

	// a sufficient budget completes normally
	got, err = interp.Eval(context.Background(), prog, interp.EmptyActivation{},
		interp.IterationBudget(5))
	require.NoError(t, err)
	assert.Equal(t, types.True, got)
}

func TestCancellation(t *testing.T) {
	prog := compile(t, "[1, 2, 3].all(x, x > 0)", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := interp.Eval(ctx, prog, interp.EmptyActivation{})
	require.NoError(t, err)
	require.Equal(t, types.ErrorKind, got.Kind())
	assert.Contains(t, got.(*types.Error).Message, "cancelled")
}

func TestActivationResolution(t *testing.T) {
	vars := map[string]*types.Type{
		"x":   types.IntType,
		"x.y": types.NewMapType(types.StringType, types.IntType),
	}
	data := map[string]any{
		"x":   1,
		"x.y": map[string]any{"a": 10},
	}
	// x.y resolves to the qualified variable, .a is a map lookup
	assert.Equal(t, types.Int(10), eval(t, "x.y.a", vars, data))

	// a missing map key mentions the key
	got := eval(t, "x.y.z", vars, data)
	require.Equal(t, types.ErrorKind, got.Kind())
	assert.Contains(t, got.(*types.Error).Message, "z")

	// a missing attribute is an error naming the attribute
	got = eval(t, "x > 0", vars, map[string]any{})
	require.Equal(t, types.ErrorKind, got.Kind())
	assert.Contains(t, got.(*types.Error).Message, "no such attribute: 'x'")
}

func TestPresenceTest(t *testing.T) {
	vars := map[string]*types.Type{"m": types.NewMapType(types.StringType, types.IntType)}
	data := map[string]any{"m": map[string]any{"a": 1}}

	assert.Equal(t, types.True, eval(t, "has(m.a)", vars, data))
	assert.Equal(t, types.False, eval(t, "has(m.b)", vars, data))
}

func TestPartialEvaluation(t *testing.T) {
	vars := map[string]*types.Type{"x": types.BoolType, "y": types.IntType}
	prog := compile(t, "x && false", vars)
	act := interp.NewPartialActivation(interp.MapActivation{}, "x")

	// unknown && false = false
	got, err := interp.Eval(context.Background(), prog, act)
	require.NoError(t, err)
	assert.Equal(t, types.False, got)

	// unknown && true = unknown({x})
	prog = compile(t, "x && true", vars)
	got, err = interp.Eval(context.Background(), prog, act)
	require.NoError(t, err)
	require.Equal(t, types.UnknownKind, got.Kind())
	assert.Equal(t, []string{"x"}, got.(*types.Unknown).Attributes())

	// unknowns union across strict arguments
	prog = compile(t, "x == (y > 1)", vars)
	act = interp.NewPartialActivation(interp.MapActivation{}, "x", "y")
	got, err = interp.Eval(context.Background(), prog, act)
	require.NoError(t, err)
	require.Equal(t, types.UnknownKind, got.Kind())
	assert.Equal(t, []string{"x", "y"}, got.(*types.Unknown).Attributes())

	// an unknown pattern covers dotted names beneath it
	vars2 := map[string]*types.Type{"a.b": types.IntType}
	prog = compile(t, "a.b > 1", vars2)
	got, err = interp.Eval(context.Background(), prog, interp.NewPartialActivation(interp.MapActivation{}, "a"))
	require.NoError(t, err)
	assert.Equal(t, types.UnknownKind, got.Kind())
}

func TestLazyBinding(t *testing.T) {
	calls := 0
	reg := interp.NewRegistry()
	require.NoError(t, reg.Register(&interp.Overload{
		ID:    "tick",
		Kinds: []types.Kind{},
		Function: func(id int64, args ...types.Value) types.Value {
			calls++
			return types.Int(5)
		},
	}))
	tick, err := checker.NewFunction("tick", checker.Overload("tick", nil, types.IntType))
	require.NoError(t, err)

	// referenced twice, evaluated once
	prog, _ := compileWith(t, "cel.bind(v, tick(), v + v)", nil, reg, []*checker.FunctionDecl{tick})
	got, err := interp.Eval(context.Background(), prog, interp.EmptyActivation{})
	require.NoError(t, err)
	assert.Equal(t, types.Int(10), got)
	assert.Equal(t, 1, calls)

	// never referenced, never evaluated
	calls = 0
	prog, _ = compileWith(t, "cel.bind(v, tick(), 42)", nil, reg, []*checker.FunctionDecl{tick})
	got, err = interp.Eval(context.Background(), prog, interp.EmptyActivation{})
	require.NoError(t, err)
	assert.Equal(t, types.Int(42), got)
	assert.Equal(t, 0, calls)
}

func TestRuntimeOverloadSelection(t *testing.T) {
	// with a dyn-typed operand the checker accepts add_int_int; the
	// evaluator checks argument kinds against it at run time
	vars := map[string]*types.Type{"d": types.DynType}
	assert.Equal(t, types.Int(3), eval(t, "d + 1", vars, map[string]any{"d": 2}))

	got := eval(t, "d + 1", vars, map[string]any{"d": "two"})
	require.Equal(t, types.ErrorKind, got.Kind())
	assert.Contains(t, got.(*types.Error).Message, "no such overload")
}

func TestNestedComprehensionSlots(t *testing.T) {
	// inner and outer comprehensions use distinct slots; the outer
	// variable remains visible inside the inner loop
	got := eval(t, "[1, 2].all(x, [10, 20].exists(y, y / x >= 10))", nil, nil)
	assert.Equal(t, types.True, got)
}
