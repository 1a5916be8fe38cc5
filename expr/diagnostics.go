package expr

// This file collects and processes diagnostic data from an evaluation.
// The per-node values recorded by the step machine are walked alongside
// the AST to produce the engine's diagnostic tree.

import (
	"fmt"
	"strings"

	"github.com/ezachrisen/cobalt"
	"github.com/ezachrisen/cobalt/ast"
	"github.com/ezachrisen/cobalt/interp"
)

// buildDiagnostics walks the AST and annotates each node with the value
// it produced during the evaluation.
func buildDiagnostics(cr *compiledRule, state *interp.EvalState, data map[string]interface{}) *cobalt.Diagnostics {
	d := nodeDiagnostics(cr, state, cr.checked.Expr)
	d.InputData = data
	return &d
}

func nodeDiagnostics(cr *compiledRule, state *interp.EvalState, e *ast.Expr) cobalt.Diagnostics {
	d := cobalt.Diagnostics{
		Expr:   renderNode(e),
		Source: cobalt.Evaluated,
	}
	if loc, ok := cr.info.Position(e.ID); ok {
		d.Line, d.Column, d.Offset = loc.Line, loc.Column, loc.Offset
	}
	if v, ok := state.Value(e.ID); ok {
		d.Value = valueToCobalt(v)
	}
	if e.Kind() == ast.IdentKind {
		d.Source = cobalt.Input
	}

	switch e.Kind() {
	case ast.SelectKind:
		d.Children = append(d.Children, nodeDiagnostics(cr, state, e.Select.Operand))
	case ast.CallKind:
		if e.Call.Target != nil {
			if _, checked := cr.checked.TypeMap[e.Call.Target.ID]; checked {
				d.Children = append(d.Children, nodeDiagnostics(cr, state, e.Call.Target))
			}
		}
		for _, a := range e.Call.Args {
			d.Children = append(d.Children, nodeDiagnostics(cr, state, a))
		}
	case ast.ListKind:
		for _, el := range e.List.Elements {
			d.Children = append(d.Children, nodeDiagnostics(cr, state, el))
		}
	case ast.MapKind:
		for _, en := range e.Map.Entries {
			d.Children = append(d.Children, nodeDiagnostics(cr, state, en.Key))
			d.Children = append(d.Children, nodeDiagnostics(cr, state, en.Value))
		}
	case ast.ComprehensionKind:
		c := e.Comprehension
		d.Children = append(d.Children, nodeDiagnostics(cr, state, c.IterRange))
		d.Children = append(d.Children, nodeDiagnostics(cr, state, c.Result))
	}
	return d
}

// renderNode produces a one-line description of an expression node for
// the diagnostic table.
func renderNode(e *ast.Expr) string {
	switch e.Kind() {
	case ast.ConstKind:
		return constText(e.Const)
	case ast.IdentKind:
		return e.Ident.Name
	case ast.SelectKind:
		if e.Select.TestOnly {
			return fmt.Sprintf("has(.%s)", e.Select.Field)
		}
		return "." + e.Select.Field
	case ast.CallKind:
		return strings.Trim(e.Call.Function, "_@")
	case ast.ListKind:
		return fmt.Sprintf("list(%d)", len(e.List.Elements))
	case ast.MapKind:
		return fmt.Sprintf("map(%d)", len(e.Map.Entries))
	case ast.ComprehensionKind:
		return "comprehension"
	}
	return "?"
}

func constText(c *ast.Const) string {
	switch c.Kind {
	case ast.NullConst:
		return "null"
	case ast.BoolConst:
		return fmt.Sprintf("%t", c.Bool)
	case ast.IntConst:
		return fmt.Sprintf("%d", c.Int)
	case ast.UintConst:
		return fmt.Sprintf("%du", c.Uint)
	case ast.DoubleConst:
		return fmt.Sprintf("%g", c.Double)
	case ast.StringConst:
		return fmt.Sprintf("%q", c.String)
	case ast.BytesConst:
		return fmt.Sprintf("b%q", string(c.Bytes))
	}
	return "const"
}
