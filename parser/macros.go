package parser

import (
	"fmt"

	"github.com/ezachrisen/cobalt/ast"
	"github.com/ezachrisen/cobalt/checker"
)

// The comprehension macros expand here so the checker and planner only
// ever see the single generic loop construct.

func (p *parser) expandHas(tok token, args []*ast.Expr) (*ast.Expr, error) {
	if len(args) != 1 || args[0].Kind() != ast.SelectKind {
		return nil, p.syntaxErrorAt(tok, "has() requires a field selection argument")
	}
	sel := args[0]
	sel.Select.TestOnly = true
	return sel, nil
}

func (p *parser) expandMacro(target *ast.Expr, fnTok token, args []*ast.Expr) (*ast.Expr, bool, error) {
	switch fnTok.text {
	case "all":
		if len(args) != 2 {
			return nil, false, nil
		}
		v, err := p.iterVar(fnTok, args[0])
		if err != nil {
			return nil, false, err
		}
		e, err := p.comprehension(fnTok, v, target,
			p.boolConst(fnTok, true),
			p.notStrictlyFalse(fnTok, p.accu(fnTok)),
			p.call(fnTok, checker.OpLogicalAnd, p.accu(fnTok), args[1]),
			p.accu(fnTok))
		return e, true, err
	case "exists":
		if len(args) != 2 {
			return nil, false, nil
		}
		v, err := p.iterVar(fnTok, args[0])
		if err != nil {
			return nil, false, err
		}
		e, err := p.comprehension(fnTok, v, target,
			p.boolConst(fnTok, false),
			p.notStrictlyFalse(fnTok, p.call(fnTok, checker.OpLogicalNot, p.accu(fnTok))),
			p.call(fnTok, checker.OpLogicalOr, p.accu(fnTok), args[1]),
			p.accu(fnTok))
		return e, true, err
	case "exists_one":
		if len(args) != 2 {
			return nil, false, nil
		}
		v, err := p.iterVar(fnTok, args[0])
		if err != nil {
			return nil, false, err
		}
		e, err := p.comprehension(fnTok, v, target,
			p.intConst(fnTok, 0),
			p.boolConst(fnTok, true),
			p.call(fnTok, checker.OpConditional, args[1],
				p.call(fnTok, checker.OpAdd, p.accu(fnTok), p.intConst(fnTok, 1)),
				p.accu(fnTok)),
			p.call(fnTok, checker.OpEquals, p.accu(fnTok), p.intConst(fnTok, 1)))
		return e, true, err
	case "map":
		if len(args) != 2 && len(args) != 3 {
			return nil, false, nil
		}
		v, err := p.iterVar(fnTok, args[0])
		if err != nil {
			return nil, false, err
		}
		var step *ast.Expr
		if len(args) == 2 {
			step = p.call(fnTok, checker.OpAdd, p.accu(fnTok), p.listOf(fnTok, args[1]))
		} else {
			step = p.call(fnTok, checker.OpConditional, args[1],
				p.call(fnTok, checker.OpAdd, p.accu(fnTok), p.listOf(fnTok, args[2])),
				p.accu(fnTok))
		}
		e, err := p.comprehension(fnTok, v, target,
			p.emptyList(fnTok),
			p.boolConst(fnTok, true),
			step,
			p.accu(fnTok))
		return e, true, err
	case "filter":
		if len(args) != 2 {
			return nil, false, nil
		}
		v, err := p.iterVar(fnTok, args[0])
		if err != nil {
			return nil, false, err
		}
		e, err := p.comprehension(fnTok, v, target,
			p.emptyList(fnTok),
			p.boolConst(fnTok, true),
			p.call(fnTok, checker.OpConditional, args[1],
				p.call(fnTok, checker.OpAdd, p.accu(fnTok), p.listOf(fnTok, p.ident(fnTok, v))),
				p.accu(fnTok)),
			p.accu(fnTok))
		return e, true, err
	case "bind":
		// cel.bind(v, init, body): a lazily initialized alias.
		if target.Kind() != ast.IdentKind || target.Ident.Name != "cel" || len(args) != 3 {
			return nil, false, nil
		}
		v, err := p.iterVar(fnTok, args[0])
		if err != nil {
			return nil, false, err
		}
		node := p.newNode(fnTok)
		node.Comprehension = &ast.Comprehension{
			IterVar:       "#unused",
			IterRange:     p.emptyList(fnTok),
			AccuVar:       v,
			AccuInit:      args[1],
			LoopCondition: p.boolConst(fnTok, false),
			LoopStep:      p.ident(fnTok, v),
			Result:        args[2],
		}
		return node, true, nil
	}
	return nil, false, nil
}

func (p *parser) syntaxErrorAt(tok token, msg string) error {
	return fmt.Errorf("syntax error at %d:%d: %s", tok.line, tok.column, msg)
}

func (p *parser) iterVar(tok token, arg *ast.Expr) (string, error) {
	if arg.Kind() != ast.IdentKind {
		return "", p.syntaxErrorAt(tok, "comprehension variable must be a simple identifier")
	}
	name := arg.Ident.Name
	if name == ast.AccumulatorName {
		return "", p.syntaxErrorAt(tok, "comprehension variable name is reserved")
	}
	return name, nil
}

func (p *parser) comprehension(tok token, iterVar string, iterRange, accuInit, cond, step, result *ast.Expr) (*ast.Expr, error) {
	node := p.newNode(tok)
	node.Comprehension = &ast.Comprehension{
		IterVar:       iterVar,
		IterRange:     iterRange,
		AccuVar:       ast.AccumulatorName,
		AccuInit:      accuInit,
		LoopCondition: cond,
		LoopStep:      step,
		Result:        result,
	}
	return node, nil
}

func (p *parser) accu(tok token) *ast.Expr {
	return p.ident(tok, ast.AccumulatorName)
}

func (p *parser) ident(tok token, name string) *ast.Expr {
	e := p.newNode(tok)
	e.Ident = &ast.Ident{Name: name}
	return e
}

func (p *parser) call(tok token, function string, args ...*ast.Expr) *ast.Expr {
	e := p.newNode(tok)
	e.Call = &ast.Call{Function: function, Args: args}
	return e
}

func (p *parser) notStrictlyFalse(tok token, arg *ast.Expr) *ast.Expr {
	return p.call(tok, checker.OpNotStrictlyFalse, arg)
}

func (p *parser) boolConst(tok token, b bool) *ast.Expr {
	e := p.newNode(tok)
	e.Const = &ast.Const{Kind: ast.BoolConst, Bool: b}
	return e
}

func (p *parser) intConst(tok token, v int64) *ast.Expr {
	e := p.newNode(tok)
	e.Const = &ast.Const{Kind: ast.IntConst, Int: v}
	return e
}

func (p *parser) emptyList(tok token) *ast.Expr {
	e := p.newNode(tok)
	e.List = &ast.List{}
	return e
}

func (p *parser) listOf(tok token, elem *ast.Expr) *ast.Expr {
	e := p.newNode(tok)
	e.List = &ast.List{Elements: []*ast.Expr{elem}}
	return e
}
