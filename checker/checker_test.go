package checker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezachrisen/cobalt/checker"
	"github.com/ezachrisen/cobalt/parser"
	"github.com/ezachrisen/cobalt/types"
)

func check(t *testing.T, src string, env *checker.Env, opts ...checker.CheckOption) *checker.Result {
	t.Helper()
	tree, info, err := parser.Parse(src)
	require.NoError(t, err, "parsing %q", src)
	return checker.Check(tree, info, env, opts...)
}

func env(t *testing.T, vars ...*checker.VarDecl) *checker.Env {
	t.Helper()
	e := checker.StandardEnv()
	for _, v := range vars {
		require.NoError(t, e.AddVariable(v))
	}
	return e
}

func TestSimpleArithmetic(t *testing.T) {
	r := check(t, "1 + 2", env(t))
	require.True(t, r.Valid(), "issues: %v", r.Issues)

	assert.True(t, r.Type(r.Expr.ID).Equal(types.IntType))
	ref, ok := r.Reference(r.Expr.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"add_int_int"}, ref.OverloadIDs)
}

func TestResultTypes(t *testing.T) {
	cases := []struct {
		src  string
		want *types.Type
	}{
		{"1 + 2", types.IntType},
		{"1u + 2u", types.UintType},
		{"1.5 * 2.0", types.DoubleType},
		{"'a' + 'b'", types.StringType},
		{"1 < 2", types.BoolType},
		{"true ? 1 : 2", types.IntType},
		{"[1, 2, 3]", types.NewListType(types.IntType)},
		{"[1, 'a']", types.NewListType(types.DynType)},
		{"{'a': 1}", types.NewMapType(types.StringType, types.IntType)},
		{"size([1, 2])", types.IntType},
		{"[1, 2][0]", types.IntType},
		{"{'a': 1}['a']", types.IntType},
		{"1 in [1, 2]", types.BoolType},
		{"string(3)", types.StringType},
		{"type(1)", types.NewTypeTypeWithParam(types.IntType)},
		{"duration('60s')", types.DurationType},
		{"'abc'.contains('b')", types.BoolType},
		{"[1, 2].all(x, x > 0)", types.BoolType},
		// the map macro accumulates into an empty (dyn-typed) list
		{"[1, 2].map(x, x * 2)", types.NewListType(types.DynType)},
		{"[1, 2].exists_one(x, x == 1)", types.BoolType},
		{"cel.bind(v, 1 + 2, v * v)", types.IntType},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			r := check(t, c.src, env(t))
			require.True(t, r.Valid(), "issues: %v", r.Issues)
			assert.True(t, r.Type(r.Expr.ID).Equal(c.want),
				"got %s, want %s", r.Type(r.Expr.ID), c.want)
		})
	}
}

func TestUndeclaredReference(t *testing.T) {
	r := check(t, "a < 3", env(t))
	require.False(t, r.Valid())
	assert.Contains(t, r.Err().Error(), "undeclared reference to 'a'")

	// checking continues past the failure: the unrelated error is also
	// reported
	r = check(t, "a < 3 && b", env(t))
	errs := r.Err().Error()
	assert.Contains(t, errs, "'a'")
	assert.Contains(t, errs, "'b'")
}

func TestFunctionArityMismatch(t *testing.T) {
	e := env(t)
	fd, err := checker.NewFunction("foo",
		checker.Overload("foo_int_int", []*types.Type{types.IntType, types.IntType}, types.IntType))
	require.NoError(t, err)
	require.NoError(t, e.AddFunction(fd))

	r := check(t, "foo(1, 2)", e)
	assert.True(t, r.Valid(), "issues: %v", r.Issues)

	r = check(t, "foo(1, 2, 3)", e)
	require.False(t, r.Valid())
	assert.Contains(t, r.Err().Error(), "undeclared reference to 'foo'")
}

func TestNoMatchingOverload(t *testing.T) {
	r := check(t, "1 + 'a'", env(t))
	require.False(t, r.Valid())
	assert.Contains(t, r.Err().Error(), "found no matching overload for '_+_'")
	assert.Contains(t, r.Err().Error(), "(int, string)")
}

func TestNameResolutionPriority(t *testing.T) {
	// Given declarations for both x and x.y, the expression x.y
	// resolves to the variable x.y, not to a field selection on x.
	e := env(t,
		&checker.VarDecl{Name: "x", Type: types.IntType},
		&checker.VarDecl{Name: "x.y", Type: types.NewMapType(types.StringType, types.IntType)},
	)
	r := check(t, "x.y.z", e)
	require.True(t, r.Valid(), "issues: %v", r.Issues)
	assert.True(t, r.Type(r.Expr.ID).Equal(types.IntType))

	// the x.y select node carries the variable reference
	var found bool
	for _, ref := range r.RefMap {
		if ref.Name == "x.y" {
			found = true
		}
	}
	assert.True(t, found, "expected a reference to the variable x.y")

	// Without the x.y declaration, x.y is field selection on an int and
	// fails.
	e2 := env(t, &checker.VarDecl{Name: "x", Type: types.IntType})
	r = check(t, "x.y.z", e2)
	require.False(t, r.Valid())
	assert.Contains(t, r.Err().Error(), "does not support field selection")
}

func TestContainerResolution(t *testing.T) {
	e := env(t, &checker.VarDecl{Name: "acme.policy.limit", Type: types.IntType})
	e.SetContainer("acme.policy")

	r := check(t, "limit > 10", e)
	require.True(t, r.Valid(), "issues: %v", r.Issues)

	ref, ok := r.Reference(r.Expr.Call.Args[0].ID)
	require.True(t, ok)
	assert.Equal(t, "acme.policy.limit", ref.Name)
}

func TestComprehensionScoping(t *testing.T) {
	// the comprehension variable does not leak to sibling expressions
	r := check(t, "[1, 2].all(x, x > 0) && x", env(t))
	require.False(t, r.Valid())
	assert.Contains(t, r.Err().Error(), "undeclared reference to 'x'")

	// a qualified declaration x.y wins over the comprehension variable x
	e := env(t, &checker.VarDecl{Name: "x.y", Type: types.IntType})
	r = check(t, "[1, 2].all(x, x.y == 1)", e)
	require.True(t, r.Valid(), "issues: %v", r.Issues)

	// the comprehension variable shadows a same-name simple declaration
	e2 := env(t, &checker.VarDecl{Name: "x", Type: types.StringType})
	r = check(t, "[1, 2].all(x, x > 0)", e2)
	require.True(t, r.Valid(), "issues: %v", r.Issues)
}

func TestComprehensionRange(t *testing.T) {
	e := env(t,
		&checker.VarDecl{Name: "m", Type: types.NewMapType(types.StringType, types.IntType)},
		&checker.VarDecl{Name: "n", Type: types.IntType},
	)

	// iterating a map binds the key type
	r := check(t, "m.all(k, k.contains('a'))", e)
	require.True(t, r.Valid(), "issues: %v", r.Issues)

	r = check(t, "n.all(x, x > 0)", e)
	require.False(t, r.Valid())
	assert.Contains(t, r.Err().Error(), "cannot be the range of a comprehension")
}

func TestComplexityLimit(t *testing.T) {
	r := check(t, "[1, 2, 3].exists(x, x * x > 8)", env(t), checker.MaxNodes(5))
	require.False(t, r.Valid())
	assert.Contains(t, r.Err().Error(), "complexity limit")
}

func TestIssueSeverities(t *testing.T) {
	r := check(t, "1 + 2", env(t))
	r.Issues = append(r.Issues, checker.Issue{
		Severity: checker.SeverityWarning,
		Message:  "odd style",
	})
	// non-error severities do not invalidate the result
	assert.True(t, r.Valid())
	assert.Nil(t, r.Err())

	var sevs []string
	for _, s := range []checker.Severity{
		checker.SeverityError, checker.SeverityWarning,
		checker.SeverityInformation, checker.SeverityDeprecated,
	} {
		sevs = append(sevs, s.String())
	}
	assert.Equal(t, "error warning information deprecated", strings.Join(sevs, " "))
}

func TestIssueLocations(t *testing.T) {
	r := check(t, "1 +\nbogus", env(t))
	require.False(t, r.Valid())
	require.Len(t, r.Issues, 1)
	assert.Equal(t, 2, r.Issues[0].Location.Line)
}
