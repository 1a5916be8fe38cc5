package cobalt_test

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/ezachrisen/cobalt"
	"github.com/ezachrisen/cobalt/expr"
)

func vaultSchema() cobalt.Schema {
	return cobalt.Schema{Elements: []cobalt.DataElement{{Name: "x", Type: cobalt.Int{}}}}
}

func TestVaultInitialRoot(t *testing.T) {
	is := is.New(t)
	engine := cobalt.NewEngine(expr.NewEvaluator())

	v, err := cobalt.NewVault(engine, nil)
	is.NoErr(err)
	is.Equal(v.CurrentRoot().ID, "root")
}

func TestVaultMutations(t *testing.T) {
	is := is.New(t)
	engine := cobalt.NewEngine(expr.NewEvaluator())

	root := cobalt.NewRule("root", "")
	root.Schema = vaultSchema()
	v, err := cobalt.NewVault(engine, root)
	is.NoErr(err)

	// add
	err = v.ApplyMutations([]cobalt.RuleMutation{
		{ID: "a", Rule: cobalt.NewRule("a", "x > 1"), Parent: "root"},
		{ID: "b", Rule: cobalt.NewRule("b", "x > 10"), Parent: "root"},
	})
	is.NoErr(err)
	is.Equal(len(v.CurrentRoot().Rules), 2)

	result, err := engine.Eval(context.Background(), v.CurrentRoot(),
		map[string]interface{}{"x": 5})
	is.NoErr(err)
	is.True(result.Results["a"].Pass)
	is.True(!result.Results["b"].Pass)

	// update
	err = v.ApplyMutations([]cobalt.RuleMutation{
		{ID: "b", Rule: cobalt.NewRule("b", "x > 2")},
	})
	is.NoErr(err)
	result, err = engine.Eval(context.Background(), v.CurrentRoot(),
		map[string]interface{}{"x": 5})
	is.NoErr(err)
	is.True(result.Results["b"].Pass)

	// delete
	err = v.ApplyMutations([]cobalt.RuleMutation{{ID: "a"}})
	is.NoErr(err)
	is.Equal(len(v.CurrentRoot().Rules), 1)
}

func TestVaultFailedMutationLeavesTreeIntact(t *testing.T) {
	is := is.New(t)
	engine := cobalt.NewEngine(expr.NewEvaluator())

	root := cobalt.NewRule("root", "")
	root.Schema = vaultSchema()
	v, err := cobalt.NewVault(engine, root)
	is.NoErr(err)

	is.NoErr(v.ApplyMutations([]cobalt.RuleMutation{
		{ID: "a", Rule: cobalt.NewRule("a", "x > 1"), Parent: "root"},
	}))

	// the new rule fails to compile, so the whole batch is rejected
	err = v.ApplyMutations([]cobalt.RuleMutation{
		{ID: "bad", Rule: cobalt.NewRule("bad", "nope > 1"), Parent: "root"},
	})
	is.True(err != nil)
	is.Equal(len(v.CurrentRoot().Rules), 1)

	// readers still see a working tree
	result, err := engine.Eval(context.Background(), v.CurrentRoot(),
		map[string]interface{}{"x": 5})
	is.NoErr(err)
	is.True(result.Results["a"].Pass)
}

func TestVaultMove(t *testing.T) {
	is := is.New(t)
	engine := cobalt.NewEngine(expr.NewEvaluator())

	root := cobalt.NewRule("root", "")
	root.Schema = vaultSchema()
	v, err := cobalt.NewVault(engine, root)
	is.NoErr(err)

	is.NoErr(v.ApplyMutations([]cobalt.RuleMutation{
		{ID: "group", Rule: cobalt.NewRule("group", ""), Parent: "root"},
		{ID: "a", Rule: cobalt.NewRule("a", "x > 1"), Parent: "root"},
	}))

	// moving: upsert with a new parent
	is.NoErr(v.ApplyMutations([]cobalt.RuleMutation{
		{ID: "a", Rule: cobalt.NewRule("a", "x > 1"), Parent: "group"},
	}))
	cur := v.CurrentRoot()
	is.Equal(len(cur.Rules), 1)
	is.True(cobalt.FindRule(cur, "group").Rules["a"] != nil)
}
