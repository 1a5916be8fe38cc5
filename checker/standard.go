package checker

import "github.com/ezachrisen/cobalt/types"

// Operator function names used in the AST. The parser rewrites infix
// and unary syntax to calls of these names.
const (
	OpConditional = "_?_:_"
	OpLogicalAnd  = "_&&_"
	OpLogicalOr   = "_||_"
	OpLogicalNot  = "!_"
	OpEquals      = "_==_"
	OpNotEquals   = "_!=_"
	OpLess        = "_<_"
	OpLessEquals  = "_<=_"
	OpGreater     = "_>_"
	OpGreaterEq   = "_>=_"
	OpAdd         = "_+_"
	OpSubtract    = "_-_"
	OpMultiply    = "_*_"
	OpDivide      = "_/_"
	OpModulo      = "_%_"
	OpNegate      = "-_"
	OpIndex       = "_[_]"
	OpIn          = "@in"

	// OpNotStrictlyFalse is the non-strict helper produced by macro
	// expansion: false stays false, everything else (including error
	// and unknown) becomes true.
	OpNotStrictlyFalse = "@not_strictly_false"
)

func addStandardDecls(e *Env) error {
	a := types.NewTypeParamType("A")
	b := types.NewTypeParamType("B")
	listA := types.NewListType(a)
	mapAB := types.NewMapType(a, b)

	funcs := []struct {
		name      string
		overloads []*OverloadDecl
	}{
		{OpConditional, []*OverloadDecl{
			Overload("conditional", []*types.Type{types.BoolType, a, a}, a),
		}},
		{OpLogicalAnd, []*OverloadDecl{
			Overload("logical_and", []*types.Type{types.BoolType, types.BoolType}, types.BoolType),
		}},
		{OpLogicalOr, []*OverloadDecl{
			Overload("logical_or", []*types.Type{types.BoolType, types.BoolType}, types.BoolType),
		}},
		{OpLogicalNot, []*OverloadDecl{
			Overload("logical_not", []*types.Type{types.BoolType}, types.BoolType),
		}},
		{OpNotStrictlyFalse, []*OverloadDecl{
			Overload("not_strictly_false", []*types.Type{types.BoolType}, types.BoolType),
		}},
		{OpEquals, []*OverloadDecl{
			Overload("equals", []*types.Type{a, a}, types.BoolType),
		}},
		{OpNotEquals, []*OverloadDecl{
			Overload("not_equals", []*types.Type{a, a}, types.BoolType),
		}},
		{OpLess, compareOverloads("less")},
		{OpLessEquals, compareOverloads("less_equals")},
		{OpGreater, compareOverloads("greater")},
		{OpGreaterEq, compareOverloads("greater_equals")},
		{OpAdd, []*OverloadDecl{
			Overload("add_int_int", []*types.Type{types.IntType, types.IntType}, types.IntType),
			Overload("add_uint_uint", []*types.Type{types.UintType, types.UintType}, types.UintType),
			Overload("add_double_double", []*types.Type{types.DoubleType, types.DoubleType}, types.DoubleType),
			Overload("add_string_string", []*types.Type{types.StringType, types.StringType}, types.StringType),
			Overload("add_bytes_bytes", []*types.Type{types.BytesType, types.BytesType}, types.BytesType),
			Overload("add_list_list", []*types.Type{listA, listA}, listA),
			Overload("add_duration_duration", []*types.Type{types.DurationType, types.DurationType}, types.DurationType),
			Overload("add_duration_timestamp", []*types.Type{types.DurationType, types.TimestampType}, types.TimestampType),
			Overload("add_timestamp_duration", []*types.Type{types.TimestampType, types.DurationType}, types.TimestampType),
		}},
		{OpSubtract, []*OverloadDecl{
			Overload("subtract_int_int", []*types.Type{types.IntType, types.IntType}, types.IntType),
			Overload("subtract_uint_uint", []*types.Type{types.UintType, types.UintType}, types.UintType),
			Overload("subtract_double_double", []*types.Type{types.DoubleType, types.DoubleType}, types.DoubleType),
			Overload("subtract_duration_duration", []*types.Type{types.DurationType, types.DurationType}, types.DurationType),
			Overload("subtract_timestamp_timestamp", []*types.Type{types.TimestampType, types.TimestampType}, types.DurationType),
			Overload("subtract_timestamp_duration", []*types.Type{types.TimestampType, types.DurationType}, types.TimestampType),
		}},
		{OpMultiply, []*OverloadDecl{
			Overload("multiply_int_int", []*types.Type{types.IntType, types.IntType}, types.IntType),
			Overload("multiply_uint_uint", []*types.Type{types.UintType, types.UintType}, types.UintType),
			Overload("multiply_double_double", []*types.Type{types.DoubleType, types.DoubleType}, types.DoubleType),
		}},
		{OpDivide, []*OverloadDecl{
			Overload("divide_int_int", []*types.Type{types.IntType, types.IntType}, types.IntType),
			Overload("divide_uint_uint", []*types.Type{types.UintType, types.UintType}, types.UintType),
			Overload("divide_double_double", []*types.Type{types.DoubleType, types.DoubleType}, types.DoubleType),
		}},
		{OpModulo, []*OverloadDecl{
			Overload("modulo_int_int", []*types.Type{types.IntType, types.IntType}, types.IntType),
			Overload("modulo_uint_uint", []*types.Type{types.UintType, types.UintType}, types.UintType),
		}},
		{OpNegate, []*OverloadDecl{
			Overload("negate_int", []*types.Type{types.IntType}, types.IntType),
			Overload("negate_double", []*types.Type{types.DoubleType}, types.DoubleType),
		}},
		{OpIndex, []*OverloadDecl{
			Overload("index_list", []*types.Type{listA, types.IntType}, a),
			Overload("index_map", []*types.Type{mapAB, a}, b),
		}},
		{OpIn, []*OverloadDecl{
			Overload("in_list", []*types.Type{a, listA}, types.BoolType),
			Overload("in_map", []*types.Type{a, mapAB}, types.BoolType),
		}},
		{"size", []*OverloadDecl{
			Overload("size_string", []*types.Type{types.StringType}, types.IntType),
			Overload("size_bytes", []*types.Type{types.BytesType}, types.IntType),
			Overload("size_list", []*types.Type{listA}, types.IntType),
			Overload("size_map", []*types.Type{mapAB}, types.IntType),
			MemberOverload("string_size", []*types.Type{types.StringType}, types.IntType),
			MemberOverload("bytes_size", []*types.Type{types.BytesType}, types.IntType),
			MemberOverload("list_size", []*types.Type{listA}, types.IntType),
			MemberOverload("map_size", []*types.Type{mapAB}, types.IntType),
		}},
		{"contains", []*OverloadDecl{
			MemberOverload("contains_string", []*types.Type{types.StringType, types.StringType}, types.BoolType),
		}},
		{"startsWith", []*OverloadDecl{
			MemberOverload("starts_with_string", []*types.Type{types.StringType, types.StringType}, types.BoolType),
		}},
		{"endsWith", []*OverloadDecl{
			MemberOverload("ends_with_string", []*types.Type{types.StringType, types.StringType}, types.BoolType),
		}},
		{"int", []*OverloadDecl{
			Overload("int_to_int", []*types.Type{types.IntType}, types.IntType),
			Overload("uint_to_int", []*types.Type{types.UintType}, types.IntType),
			Overload("double_to_int", []*types.Type{types.DoubleType}, types.IntType),
			Overload("string_to_int", []*types.Type{types.StringType}, types.IntType),
			Overload("timestamp_to_int", []*types.Type{types.TimestampType}, types.IntType),
			Overload("duration_to_int", []*types.Type{types.DurationType}, types.IntType),
		}},
		{"uint", []*OverloadDecl{
			Overload("uint_to_uint", []*types.Type{types.UintType}, types.UintType),
			Overload("int_to_uint", []*types.Type{types.IntType}, types.UintType),
			Overload("double_to_uint", []*types.Type{types.DoubleType}, types.UintType),
			Overload("string_to_uint", []*types.Type{types.StringType}, types.UintType),
		}},
		{"double", []*OverloadDecl{
			Overload("double_to_double", []*types.Type{types.DoubleType}, types.DoubleType),
			Overload("int_to_double", []*types.Type{types.IntType}, types.DoubleType),
			Overload("uint_to_double", []*types.Type{types.UintType}, types.DoubleType),
			Overload("string_to_double", []*types.Type{types.StringType}, types.DoubleType),
		}},
		{"string", []*OverloadDecl{
			Overload("string_to_string", []*types.Type{types.StringType}, types.StringType),
			Overload("bool_to_string", []*types.Type{types.BoolType}, types.StringType),
			Overload("int_to_string", []*types.Type{types.IntType}, types.StringType),
			Overload("uint_to_string", []*types.Type{types.UintType}, types.StringType),
			Overload("double_to_string", []*types.Type{types.DoubleType}, types.StringType),
			Overload("bytes_to_string", []*types.Type{types.BytesType}, types.StringType),
			Overload("duration_to_string", []*types.Type{types.DurationType}, types.StringType),
			Overload("timestamp_to_string", []*types.Type{types.TimestampType}, types.StringType),
		}},
		{"bool", []*OverloadDecl{
			Overload("bool_to_bool", []*types.Type{types.BoolType}, types.BoolType),
			Overload("string_to_bool", []*types.Type{types.StringType}, types.BoolType),
		}},
		{"bytes", []*OverloadDecl{
			Overload("bytes_to_bytes", []*types.Type{types.BytesType}, types.BytesType),
			Overload("string_to_bytes", []*types.Type{types.StringType}, types.BytesType),
		}},
		{"duration", []*OverloadDecl{
			Overload("duration_to_duration", []*types.Type{types.DurationType}, types.DurationType),
			Overload("string_to_duration", []*types.Type{types.StringType}, types.DurationType),
		}},
		{"timestamp", []*OverloadDecl{
			Overload("timestamp_to_timestamp", []*types.Type{types.TimestampType}, types.TimestampType),
			Overload("string_to_timestamp", []*types.Type{types.StringType}, types.TimestampType),
			Overload("int_to_timestamp", []*types.Type{types.IntType}, types.TimestampType),
		}},
		{"type", []*OverloadDecl{
			Overload("type_of", []*types.Type{a}, types.NewTypeTypeWithParam(a)),
		}},
		{"dyn", []*OverloadDecl{
			Overload("to_dyn", []*types.Type{a}, types.DynType),
		}},
	}

	for _, f := range funcs {
		fd, err := NewFunction(f.name, f.overloads...)
		if err != nil {
			return err
		}
		if err := e.AddFunction(fd); err != nil {
			return err
		}
	}

	// Type witnesses: the identifier `int` denotes the int type.
	for name, t := range StandardTypeNames {
		if err := e.AddVariable(&VarDecl{Name: name, Type: types.NewTypeTypeWithParam(t)}); err != nil {
			return err
		}
	}
	return nil
}

// compareOverloads declares one ordering operator over every ordered
// kind.
func compareOverloads(prefix string) []*OverloadDecl {
	ordered := []struct {
		suffix string
		t      *types.Type
	}{
		{"int_int", types.IntType},
		{"uint_uint", types.UintType},
		{"double_double", types.DoubleType},
		{"string_string", types.StringType},
		{"bytes_bytes", types.BytesType},
		{"duration_duration", types.DurationType},
		{"timestamp_timestamp", types.TimestampType},
	}
	out := make([]*OverloadDecl, 0, len(ordered))
	for _, o := range ordered {
		out = append(out, Overload(prefix+"_"+o.suffix, []*types.Type{o.t, o.t}, types.BoolType))
	}
	return out
}

// StandardTypeNames maps the identifiers that denote types to the types
// they witness. The planner pushes these as constants.
var StandardTypeNames = map[string]*types.Type{
	"bool":      types.BoolType,
	"int":       types.IntType,
	"uint":      types.UintType,
	"double":    types.DoubleType,
	"string":    types.StringType,
	"bytes":     types.BytesType,
	"duration":  types.DurationType,
	"timestamp": types.TimestampType,
	"list":      types.NewListType(types.DynType),
	"map":       types.NewMapType(types.DynType, types.DynType),
	"null_type": types.NullType,
	"type":      types.TypeType,
	"dyn":       types.DynType,
}
