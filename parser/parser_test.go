package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezachrisen/cobalt/ast"
	"github.com/ezachrisen/cobalt/checker"
)

func parse(t *testing.T, src string) *ast.Expr {
	t.Helper()
	e, _, err := Parse(src)
	require.NoError(t, err, "parsing %q", src)
	return e
}

func TestLiterals(t *testing.T) {
	cases := []struct {
		src  string
		kind ast.PrimitiveKind
	}{
		{"0", ast.IntConst},
		{"42", ast.IntConst},
		{"0x2A", ast.IntConst},
		{"7u", ast.UintConst},
		{"1.5", ast.DoubleConst},
		{".5", ast.DoubleConst},
		{"1e3", ast.DoubleConst},
		{"'hi'", ast.StringConst},
		{`"hi"`, ast.StringConst},
		{`b"hi"`, ast.BytesConst},
		{"true", ast.BoolConst},
		{"false", ast.BoolConst},
		{"null", ast.NullConst},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e := parse(t, c.src)
			require.Equal(t, ast.ConstKind, e.Kind())
			assert.Equal(t, c.kind, e.Const.Kind)
		})
	}

	e := parse(t, "0x2A")
	assert.Equal(t, int64(42), e.Const.Int)
	e = parse(t, "-3")
	assert.Equal(t, int64(-3), e.Const.Int)
	e = parse(t, `'a\nb'`)
	assert.Equal(t, "a\nb", e.Const.String)
	e = parse(t, `r'a\nb'`)
	assert.Equal(t, `a\nb`, e.Const.String)
	e = parse(t, "-9223372036854775808")
	assert.Equal(t, int64(-9223372036854775808), e.Const.Int)
}

func TestPrecedence(t *testing.T) {
	// 1 + 2 * 3 parses as 1 + (2 * 3)
	e := parse(t, "1 + 2 * 3")
	require.Equal(t, ast.CallKind, e.Kind())
	assert.Equal(t, checker.OpAdd, e.Call.Function)
	assert.Equal(t, checker.OpMultiply, e.Call.Args[1].Call.Function)

	// a || b && c parses as a || (b && c)
	e = parse(t, "a || b && c")
	assert.Equal(t, checker.OpLogicalOr, e.Call.Function)
	assert.Equal(t, checker.OpLogicalAnd, e.Call.Args[1].Call.Function)

	// relations bind tighter than &&
	e = parse(t, "1 < 2 && 3 >= 4")
	assert.Equal(t, checker.OpLogicalAnd, e.Call.Function)
	assert.Equal(t, checker.OpLess, e.Call.Args[0].Call.Function)
	assert.Equal(t, checker.OpGreaterEq, e.Call.Args[1].Call.Function)

	// unary binds tighter than *
	e = parse(t, "-x * 2")
	assert.Equal(t, checker.OpMultiply, e.Call.Function)
	assert.Equal(t, checker.OpNegate, e.Call.Args[0].Call.Function)

	// ternary is right-associative and lowest precedence
	e = parse(t, "a ? 1 : b ? 2 : 3")
	require.Equal(t, checker.OpConditional, e.Call.Function)
	assert.Equal(t, checker.OpConditional, e.Call.Args[2].Call.Function)

	// parentheses override
	e = parse(t, "(1 + 2) * 3")
	assert.Equal(t, checker.OpMultiply, e.Call.Function)
}

func TestMemberAndIndex(t *testing.T) {
	e := parse(t, "a.b.c")
	require.Equal(t, ast.SelectKind, e.Kind())
	assert.Equal(t, "c", e.Select.Field)
	assert.Equal(t, "b", e.Select.Operand.Select.Field)
	assert.Equal(t, "a", e.Select.Operand.Select.Operand.Ident.Name)

	e = parse(t, "m['key']")
	require.Equal(t, ast.CallKind, e.Kind())
	assert.Equal(t, checker.OpIndex, e.Call.Function)

	e = parse(t, "x.f(1, 2)")
	require.Equal(t, ast.CallKind, e.Kind())
	assert.Equal(t, "f", e.Call.Function)
	require.NotNil(t, e.Call.Target)
	assert.Len(t, e.Call.Args, 2)

	e = parse(t, "f(1)")
	assert.Nil(t, e.Call.Target)

	e = parse(t, "1 in [1, 2]")
	assert.Equal(t, checker.OpIn, e.Call.Function)
}

func TestContainerLiterals(t *testing.T) {
	e := parse(t, "[1, 2, 3]")
	require.Equal(t, ast.ListKind, e.Kind())
	assert.Len(t, e.List.Elements, 3)

	e = parse(t, "[]")
	assert.Len(t, e.List.Elements, 0)

	e = parse(t, "{'a': 1, 'b': 2}")
	require.Equal(t, ast.MapKind, e.Kind())
	assert.Len(t, e.Map.Entries, 2)

	// trailing commas are accepted
	e = parse(t, "[1, 2,]")
	assert.Len(t, e.List.Elements, 2)
}

func TestMacroExpansion(t *testing.T) {
	e := parse(t, "[1, 2].all(x, x > 0)")
	require.Equal(t, ast.ComprehensionKind, e.Kind(), "all() expands to a comprehension")
	c := e.Comprehension
	assert.Equal(t, "x", c.IterVar)
	assert.Equal(t, ast.AccumulatorName, c.AccuVar)
	assert.Equal(t, ast.BoolConst, c.AccuInit.Const.Kind)
	assert.True(t, c.AccuInit.Const.Bool)
	assert.Equal(t, checker.OpNotStrictlyFalse, c.LoopCondition.Call.Function)
	assert.Equal(t, checker.OpLogicalAnd, c.LoopStep.Call.Function)

	e = parse(t, "[1, 2].exists(x, x > 0)")
	c = e.Comprehension
	assert.False(t, c.AccuInit.Const.Bool)
	assert.Equal(t, checker.OpLogicalOr, c.LoopStep.Call.Function)

	e = parse(t, "[1, 2].exists_one(x, x > 0)")
	c = e.Comprehension
	assert.Equal(t, ast.IntConst, c.AccuInit.Const.Kind)
	assert.Equal(t, checker.OpEquals, c.Result.Call.Function)

	e = parse(t, "[1, 2].map(x, x * 2)")
	c = e.Comprehension
	assert.Equal(t, ast.ListKind, c.AccuInit.Kind())
	assert.Equal(t, checker.OpAdd, c.LoopStep.Call.Function)

	e = parse(t, "[1, 2].filter(x, x > 1)")
	c = e.Comprehension
	assert.Equal(t, checker.OpConditional, c.LoopStep.Call.Function)

	e = parse(t, "has(a.b)")
	require.Equal(t, ast.SelectKind, e.Kind())
	assert.True(t, e.Select.TestOnly)

	e = parse(t, "cel.bind(v, 1 + 2, v * v)")
	require.Equal(t, ast.ComprehensionKind, e.Kind())
	c = e.Comprehension
	assert.Equal(t, "v", c.AccuVar)
	assert.Equal(t, ast.ListKind, c.IterRange.Kind())
	assert.Len(t, c.IterRange.List.Elements, 0)

	// a member call that is not a macro stays a call
	e = parse(t, "s.split(',')")
	assert.Equal(t, ast.CallKind, e.Kind())
}

func TestUniqueIDs(t *testing.T) {
	e := parse(t, "[1, 2].exists(x, x * x > 8) && has(a.b)")
	seen := map[int64]bool{}
	ok := true
	ast.Walk(e, func(n *ast.Expr) bool {
		if n.ID == 0 || seen[n.ID] {
			ok = false
			return false
		}
		seen[n.ID] = true
		return true
	})
	assert.True(t, ok, "every node must carry a unique, nonzero ID")
}

func TestSourcePositions(t *testing.T) {
	_, info, err := Parse("1 +\n  22")
	require.NoError(t, err)
	var found bool
	for _, loc := range info.Positions {
		if loc.Line == 2 && loc.Column == 3 {
			found = true
		}
	}
	assert.True(t, found, "the literal 22 should be located at 2:3")
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"1 +",
		"(1",
		"[1, 2",
		"{1: }",
		"'unterminated",
		"1 @ 2",
		"has(1)",
		"x.all(1, true)",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			_, _, err := Parse(src)
			assert.Error(t, err)
		})
	}
}
