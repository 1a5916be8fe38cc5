package expr

// This file converts between the engine's schema type system and the
// expression core's: schema elements become checker variable
// declarations, and evaluation results convert back to engine values.

import (
	"fmt"

	"github.com/ezachrisen/cobalt"
	"github.com/ezachrisen/cobalt/checker"
	"github.com/ezachrisen/cobalt/types"
)

// schemaToDeclarations converts a schema to the variable declarations
// the checker consumes.
func schemaToDeclarations(s cobalt.Schema) ([]*checker.VarDecl, error) {
	decls := make([]*checker.VarDecl, 0, len(s.Elements)+1)
	for _, d := range s.Elements {
		t, err := typeToExprType(d.Type)
		if err != nil {
			return nil, fmt.Errorf("schema element %s: %w", d.Name, err)
		}
		decls = append(decls, &checker.VarDecl{Name: d.Name, Type: t})
	}
	return decls, nil
}

// typeToExprType converts a schema type to an expression type.
func typeToExprType(t cobalt.Type) (*types.Type, error) {
	switch v := t.(type) {
	case nil:
		return types.DynType, nil
	case cobalt.String:
		return types.StringType, nil
	case cobalt.Int:
		return types.IntType, nil
	case cobalt.Uint:
		return types.UintType, nil
	case cobalt.Float:
		return types.DoubleType, nil
	case cobalt.Bool:
		return types.BoolType, nil
	case cobalt.Duration:
		return types.DurationType, nil
	case cobalt.Timestamp:
		return types.TimestampType, nil
	case cobalt.Any:
		return types.DynType, nil
	case cobalt.List:
		elem, err := typeToExprType(v.ValueType)
		if err != nil {
			return nil, fmt.Errorf("list element: %w", err)
		}
		return types.NewListType(elem), nil
	case cobalt.Map:
		key, err := typeToExprType(v.KeyType)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		val, err := typeToExprType(v.ValueType)
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		return types.NewMapType(key, val), nil
	case cobalt.Proto:
		if v.Protoname == "" {
			return nil, fmt.Errorf("proto type missing name")
		}
		return types.NewStructType(v.Protoname), nil
	}
	return nil, fmt.Errorf("unsupported schema type %T", t)
}

// valueToCobalt converts an evaluation result to the engine's value
// form: the native Go value plus its schema type.
func valueToCobalt(v types.Value) cobalt.Value {
	return cobalt.Value{
		Val:  types.ToNative(v),
		Type: exprTypeToType(v.Type()),
	}
}

// exprTypeToType maps an expression type back to a schema type.
func exprTypeToType(t *types.Type) cobalt.Type {
	switch t.Kind() {
	case types.StringKind:
		return cobalt.String{}
	case types.IntKind:
		return cobalt.Int{}
	case types.UintKind:
		return cobalt.Uint{}
	case types.DoubleKind:
		return cobalt.Float{}
	case types.BoolKind:
		return cobalt.Bool{}
	case types.DurationKind:
		return cobalt.Duration{}
	case types.TimestampKind:
		return cobalt.Timestamp{}
	case types.ListKind:
		params := t.Params()
		if len(params) == 1 {
			return cobalt.List{ValueType: exprTypeToType(params[0])}
		}
		return cobalt.List{ValueType: cobalt.Any{}}
	case types.MapKind:
		params := t.Params()
		if len(params) == 2 {
			return cobalt.Map{KeyType: exprTypeToType(params[0]), ValueType: exprTypeToType(params[1])}
		}
		return cobalt.Map{KeyType: cobalt.Any{}, ValueType: cobalt.Any{}}
	case types.StructKind:
		return cobalt.Proto{Protoname: t.TypeName()}
	}
	return cobalt.Any{}
}
