package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ezachrisen/cobalt/ast"
	"github.com/ezachrisen/cobalt/checker"
)

// Parse turns source text into an AST with stable node IDs and source
// positions. Macros are expanded; the returned tree contains only the
// node kinds the checker understands.
func Parse(src string) (*ast.Expr, *ast.SourceInfo, error) {
	p := &parser{
		lex: newLexer(src),
		info: &ast.SourceInfo{
			Source:    src,
			Positions: map[int64]ast.Location{},
		},
	}
	p.advance()
	e, err := p.parseExpr()
	if err != nil {
		return nil, nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, nil, p.syntaxError("unexpected %q", p.tok.text)
	}
	return e, p.info, nil
}

type parser struct {
	lex    *lexer
	tok    token
	nextID int64
	info   *ast.SourceInfo
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) syntaxError(format string, args ...any) error {
	return fmt.Errorf("syntax error at %d:%d: %s", p.tok.line, p.tok.column, fmt.Sprintf(format, args...))
}

// newNode allocates a node ID and records the position of tok.
func (p *parser) newNode(tok token) *ast.Expr {
	p.nextID++
	p.info.Positions[p.nextID] = ast.Location{Line: tok.line, Column: tok.column, Offset: tok.offset}
	return &ast.Expr{ID: p.nextID}
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.tok.kind == tokError {
		return p.tok, p.syntaxError("%s", p.tok.text)
	}
	if p.tok.kind != kind {
		return p.tok, p.syntaxError("expected %s, found %q", what, p.tok.text)
	}
	t := p.tok
	p.advance()
	return t, nil
}

// parseExpr parses a ternary conditional.
func (p *parser) parseExpr() (*ast.Expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokQuestion {
		return cond, nil
	}
	opTok := p.tok
	p.advance()
	truthy, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return nil, err
	}
	falsy, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return p.globalCall(opTok, checker.OpConditional, cond, truthy, falsy), nil
}

func (p *parser) parseOr() (*ast.Expr, error) {
	return p.parseBinary(tokOrOr, checker.OpLogicalOr, p.parseAnd)
}

func (p *parser) parseAnd() (*ast.Expr, error) {
	return p.parseBinary(tokAndAnd, checker.OpLogicalAnd, p.parseRelation)
}

func (p *parser) parseBinary(kind tokenKind, op string, sub func() (*ast.Expr, error)) (*ast.Expr, error) {
	left, err := sub()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == kind {
		opTok := p.tok
		p.advance()
		right, err := sub()
		if err != nil {
			return nil, err
		}
		left = p.globalCall(opTok, op, left, right)
	}
	return left, nil
}

var relationOps = map[tokenKind]string{
	tokLess:      checker.OpLess,
	tokLessEq:    checker.OpLessEquals,
	tokGreater:   checker.OpGreater,
	tokGreaterEq: checker.OpGreaterEq,
	tokEqEq:      checker.OpEquals,
	tokNotEq:     checker.OpNotEquals,
}

func (p *parser) parseRelation() (*ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := relationOps[p.tok.kind]
		if !ok {
			if p.tok.kind == tokIdent && p.tok.text == "in" {
				op = checker.OpIn
			} else {
				return left, nil
			}
		}
		opTok := p.tok
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = p.globalCall(opTok, op, left, right)
	}
}

func (p *parser) parseAdditive() (*ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		op := checker.OpAdd
		if p.tok.kind == tokMinus {
			op = checker.OpSubtract
		}
		opTok := p.tok
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = p.globalCall(opTok, op, left, right)
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (*ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.tok.kind {
		case tokStar:
			op = checker.OpMultiply
		case tokSlash:
			op = checker.OpDivide
		case tokPercent:
			op = checker.OpModulo
		default:
			return left, nil
		}
		opTok := p.tok
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = p.globalCall(opTok, op, left, right)
	}
}

func (p *parser) parseUnary() (*ast.Expr, error) {
	switch p.tok.kind {
	case tokBang:
		opTok := p.tok
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.globalCall(opTok, checker.OpLogicalNot, operand), nil
	case tokMinus:
		opTok := p.tok
		p.advance()
		// Fold negation into numeric literals so that -9223372036854775808
		// parses.
		if p.tok.kind == tokInt {
			lit := p.tok
			p.advance()
			return p.intLiteral(lit, "-"+lit.text)
		}
		if p.tok.kind == tokDouble {
			lit := p.tok
			p.advance()
			return p.doubleLiteral(lit, "-"+lit.text)
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.globalCall(opTok, checker.OpNegate, operand), nil
	}
	return p.parseMember()
}

func (p *parser) parseMember() (*ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.kind {
		case tokDot:
			p.advance()
			fieldTok, err := p.expect(tokIdent, "field name")
			if err != nil {
				return nil, err
			}
			if p.tok.kind == tokLParen {
				e, err = p.parseMemberCall(e, fieldTok)
				if err != nil {
					return nil, err
				}
				continue
			}
			sel := p.newNode(fieldTok)
			sel.Select = &ast.Select{Operand: e, Field: fieldTok.text}
			e = sel
		case tokLBracket:
			opTok := p.tok
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
			e = p.globalCall(opTok, checker.OpIndex, e, index)
		default:
			return e, nil
		}
	}
}

func (p *parser) parsePrimary() (*ast.Expr, error) {
	tok := p.tok
	switch tok.kind {
	case tokError:
		return nil, p.syntaxError("%s", tok.text)
	case tokInt:
		p.advance()
		return p.intLiteral(tok, tok.text)
	case tokUint:
		p.advance()
		v, err := strconv.ParseUint(strings.TrimPrefix(tok.text, "0x"), base(tok.text), 64)
		if err != nil {
			return nil, p.syntaxError("invalid uint literal %q", tok.text)
		}
		e := p.newNode(tok)
		e.Const = &ast.Const{Kind: ast.UintConst, Uint: v}
		return e, nil
	case tokDouble:
		p.advance()
		return p.doubleLiteral(tok, tok.text)
	case tokString:
		p.advance()
		e := p.newNode(tok)
		e.Const = &ast.Const{Kind: ast.StringConst, String: tok.str}
		return e, nil
	case tokBytes:
		p.advance()
		e := p.newNode(tok)
		e.Const = &ast.Const{Kind: ast.BytesConst, Bytes: []byte(tok.str)}
		return e, nil
	case tokIdent:
		switch tok.text {
		case "true", "false":
			p.advance()
			e := p.newNode(tok)
			e.Const = &ast.Const{Kind: ast.BoolConst, Bool: tok.text == "true"}
			return e, nil
		case "null":
			p.advance()
			e := p.newNode(tok)
			e.Const = &ast.Const{Kind: ast.NullConst}
			return e, nil
		}
		p.advance()
		if p.tok.kind == tokLParen {
			return p.parseGlobalCall(tok)
		}
		e := p.newNode(tok)
		e.Ident = &ast.Ident{Name: tok.text}
		return e, nil
	case tokDot:
		// Leading dot: absolute (container-free) name.
		p.advance()
		identTok, err := p.expect(tokIdent, "identifier")
		if err != nil {
			return nil, err
		}
		e := p.newNode(identTok)
		e.Ident = &ast.Ident{Name: "." + identTok.text}
		return e, nil
	case tokLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case tokLBracket:
		p.advance()
		var elems []*ast.Expr
		for p.tok.kind != tokRBracket {
			el, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
			if p.tok.kind != tokComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
		e := p.newNode(tok)
		e.List = &ast.List{Elements: elems}
		return e, nil
	case tokLBrace:
		return p.parseMapLiteral(tok)
	}
	return nil, p.syntaxError("unexpected %q", tok.text)
}

func base(text string) int {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") ||
		strings.HasPrefix(text, "-0x") || strings.HasPrefix(text, "-0X") {
		return 16
	}
	return 10
}

func (p *parser) intLiteral(tok token, text string) (*ast.Expr, error) {
	t := text
	if base(t) == 16 {
		t = strings.Replace(t, "0x", "", 1)
		t = strings.Replace(t, "0X", "", 1)
	}
	v, err := strconv.ParseInt(t, base(text), 64)
	if err != nil {
		return nil, p.syntaxError("invalid int literal %q", text)
	}
	e := p.newNode(tok)
	e.Const = &ast.Const{Kind: ast.IntConst, Int: v}
	return e, nil
}

func (p *parser) doubleLiteral(tok token, text string) (*ast.Expr, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.syntaxError("invalid double literal %q", text)
	}
	e := p.newNode(tok)
	e.Const = &ast.Const{Kind: ast.DoubleConst, Double: v}
	return e, nil
}

func (p *parser) parseMapLiteral(tok token) (*ast.Expr, error) {
	p.advance()
	var entries []ast.Entry
	for p.tok.kind != tokRBrace {
		keyTok := p.tok
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokColon, "':'"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.nextID++
		p.info.Positions[p.nextID] = ast.Location{Line: keyTok.line, Column: keyTok.column, Offset: keyTok.offset}
		entries = append(entries, ast.Entry{ID: p.nextID, Key: key, Value: val})
		if p.tok.kind != tokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	e := p.newNode(tok)
	e.Map = &ast.Map{Entries: entries}
	return e, nil
}

func (p *parser) parseArgs() ([]*ast.Expr, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	var args []*ast.Expr
	for p.tok.kind != tokRParen {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.tok.kind != tokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseGlobalCall(nameTok token) (*ast.Expr, error) {
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	if nameTok.text == "has" {
		return p.expandHas(nameTok, args)
	}
	e := p.newNode(nameTok)
	e.Call = &ast.Call{Function: nameTok.text, Args: args}
	return e, nil
}

func (p *parser) parseMemberCall(target *ast.Expr, fnTok token) (*ast.Expr, error) {
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	if m, ok, err := p.expandMacro(target, fnTok, args); err != nil {
		return nil, err
	} else if ok {
		return m, nil
	}
	e := p.newNode(fnTok)
	e.Call = &ast.Call{Target: target, Function: fnTok.text, Args: args}
	return e, nil
}

// globalCall builds a call node for an operator.
func (p *parser) globalCall(tok token, function string, args ...*ast.Expr) *ast.Expr {
	e := p.newNode(tok)
	e.Call = &ast.Call{Function: function, Args: args}
	return e
}
