package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezachrisen/cobalt/types"
)

func TestOverloadCollisions(t *testing.T) {
	intInt := []*types.Type{types.IntType, types.IntType}

	t.Run("duplicate_id", func(t *testing.T) {
		_, err := NewFunction("f",
			Overload("f_int", []*types.Type{types.IntType}, types.IntType),
			Overload("f_int", []*types.Type{types.StringType}, types.IntType),
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("same_signature_different_id", func(t *testing.T) {
		_, err := NewFunction("f",
			Overload("f_a", intInt, types.IntType),
			Overload("f_b", intInt, types.IntType),
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "collision")
	})

	t.Run("dyn_collides_with_concrete", func(t *testing.T) {
		_, err := NewFunction("f",
			Overload("f_int", []*types.Type{types.IntType}, types.IntType),
			Overload("f_dyn", []*types.Type{types.DynType}, types.IntType),
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "collision")
	})

	t.Run("member_and_global_do_not_collide", func(t *testing.T) {
		_, err := NewFunction("f",
			Overload("f_global", intInt, types.IntType),
			MemberOverload("f_member", intInt, types.IntType),
		)
		assert.NoError(t, err)
	})

	t.Run("different_arity_ok", func(t *testing.T) {
		_, err := NewFunction("f",
			Overload("f_1", []*types.Type{types.IntType}, types.IntType),
			Overload("f_2", intInt, types.IntType),
		)
		assert.NoError(t, err)
	})

	t.Run("disjoint_kinds_ok", func(t *testing.T) {
		_, err := NewFunction("f",
			Overload("f_int", []*types.Type{types.IntType}, types.IntType),
			Overload("f_string", []*types.Type{types.StringType}, types.IntType),
		)
		assert.NoError(t, err)
	})
}

func TestEnvDeclarations(t *testing.T) {
	e := NewEnv()

	require.NoError(t, e.AddVariable(&VarDecl{Name: "x", Type: types.IntType}))
	require.NoError(t, e.AddVariable(&VarDecl{Name: "x", Type: types.IntType}))
	err := e.AddVariable(&VarDecl{Name: "x", Type: types.StringType})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlapping")

	fd, err := NewFunction("f", Overload("f_int", []*types.Type{types.IntType}, types.IntType))
	require.NoError(t, err)
	require.NoError(t, e.AddFunction(fd))

	// merging more overloads into an existing function
	fd2, err := NewFunction("f", Overload("f_string", []*types.Type{types.StringType}, types.IntType))
	require.NoError(t, err)
	require.NoError(t, e.AddFunction(fd2))

	// a collision with the merged set is rejected
	fd3, err := NewFunction("f", Overload("f_int2", []*types.Type{types.IntType}, types.IntType))
	require.NoError(t, err)
	assert.Error(t, e.AddFunction(fd3))
}

func TestTypeParamAcceptance(t *testing.T) {
	e := NewEnv() // rejects all type parameters
	a := types.NewTypeParamType("A")
	fd, err := NewFunction("first", Overload("first_list", []*types.Type{types.NewListType(a)}, a))
	require.NoError(t, err)
	err = e.AddFunction(fd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type parameter")

	e.AcceptTypeParams(func(name string) bool { return name == "A" })
	assert.NoError(t, e.AddFunction(fd))
}

func TestCandidateNames(t *testing.T) {
	e := NewEnv()
	e.SetContainer("a.b")
	assert.Equal(t, []string{"a.b.c", "a.c", "c"}, e.candidateNames("c"))
	// a leading dot pins the name to the root
	assert.Equal(t, []string{"c"}, e.candidateNames(".c"))

	e.SetContainer("")
	assert.Equal(t, []string{"c"}, e.candidateNames("c"))
}
