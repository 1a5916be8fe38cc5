package interp_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezachrisen/cobalt/ast"
	"github.com/ezachrisen/cobalt/checker"
	"github.com/ezachrisen/cobalt/interp"
	"github.com/ezachrisen/cobalt/parser"
	"github.com/ezachrisen/cobalt/types"
)

// TestRoundtrip: re-planning the same checked AST, or a no-op copy of
// it, yields an identical step list.
func TestRoundtrip(t *testing.T) {
	sources := []string{
		"1 + 2 * 3",
		"a && b || !c",
		"x ? 'yes' : 'no'",
		"[1, 2, 3].exists(x, x * x > 8)",
		"cel.bind(v, 1 + 2, v * v)",
		"{'a': [1, 2], 'b': []}",
	}
	vars := map[string]*types.Type{
		"a": types.BoolType,
		"b": types.BoolType,
		"c": types.BoolType,
		"x": types.BoolType,
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			tree, info, err := parser.Parse(src)
			require.NoError(t, err)
			env := checker.StandardEnv()
			for name, typ := range vars {
				require.NoError(t, env.AddVariable(&checker.VarDecl{Name: name, Type: typ}))
			}
			checked := checker.Check(tree, info, env)
			require.True(t, checked.Valid(), "issues: %v", checked.Issues)

			reg := interp.NewRegistry()
			p1, err := interp.Plan(checked, reg)
			require.NoError(t, err)
			p2, err := interp.Plan(checked, reg)
			require.NoError(t, err)
			if diff := cmp.Diff(p1.Disassemble(), p2.Disassemble()); diff != "" {
				t.Errorf("re-planning produced a different program (-first +second):\n%s", diff)
			}

			// a deep copy preserves IDs, so the checker annotations and
			// therefore the program are identical
			copied := ast.Copy(checked.Expr)
			checkedCopy := &checker.Result{
				Expr:       copied,
				SourceInfo: checked.SourceInfo,
				TypeMap:    checked.TypeMap,
				RefMap:     checked.RefMap,
			}
			p3, err := interp.Plan(checkedCopy, reg)
			require.NoError(t, err)
			if diff := cmp.Diff(p1.Disassemble(), p3.Disassemble()); diff != "" {
				t.Errorf("planning a copied AST produced a different program:\n%s", diff)
			}
		})
	}
}

func TestPlanShapes(t *testing.T) {
	t.Run("constant", func(t *testing.T) {
		prog := compile(t, "42", nil)
		require.Len(t, prog.Steps, 1)
		assert.Equal(t, interp.OpPushConst, prog.Steps[0].Op)
	})

	t.Run("strict_call_args_left_to_right", func(t *testing.T) {
		prog := compile(t, "1 + 2", nil)
		require.Len(t, prog.Steps, 3)
		assert.Equal(t, types.Int(1), prog.Steps[0].Val)
		assert.Equal(t, types.Int(2), prog.Steps[1].Val)
		assert.Equal(t, interp.OpCall, prog.Steps[2].Op)
		assert.Equal(t, "add_int_int", prog.Steps[2].Over[0].ID)
	})

	t.Run("logical_and_jumps_over_rhs", func(t *testing.T) {
		prog := compile(t, "false && true", nil)
		dis := prog.Disassemble()
		assert.Contains(t, dis, "cond_jump")
		assert.Contains(t, dis, "logical_and")
	})

	t.Run("comprehension_allocates_slots", func(t *testing.T) {
		prog := compile(t, "[1].all(x, x > 0)", nil)
		assert.Equal(t, 3, prog.SlotCount)
		dis := prog.Disassemble()
		assert.Contains(t, dis, "init_iter")
		assert.Contains(t, dis, "iter_next")
		assert.Contains(t, dis, "clear_slot")
	})

	t.Run("bind_catalogues_subexpression", func(t *testing.T) {
		prog := compile(t, "cel.bind(v, 1 + 2, v * v)", nil)
		require.Len(t, prog.Subexprs, 1)
		assert.Equal(t, 1, prog.SlotCount)
		count := strings.Count(prog.Disassemble(), "check_init")
		assert.Equal(t, 2, count, "each reference site checks the slot")
	})

	t.Run("max_stack_positive", func(t *testing.T) {
		prog := compile(t, "[1, 2, 3, [4, [5]]]", nil)
		assert.GreaterOrEqual(t, prog.MaxStack, 4)
	})
}

func TestPlanRequiresValidResult(t *testing.T) {
	tree, info, err := parser.Parse("bogus + 1")
	require.NoError(t, err)
	checked := checker.Check(tree, info, checker.StandardEnv())
	require.False(t, checked.Valid())
	_, err = interp.Plan(checked, interp.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid expression")
}
