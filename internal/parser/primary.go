package parser

import (
	"strconv"

	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/token"
)

// parsePrimary parses the tightest productions: `use`, `switch`, and the
// atoms (literals, identifiers, parenthesized expressions, `{{ }}`
// interpolation). `use`/`switch` are listed as their own precedence levels
// in the source grammar but, having no left operand, behave exactly like
// alternate atoms.
func (p *Parser) parsePrimary() (ast.Node, error) {
	loc := p.loc()
	t := p.cur()
	switch t.Type {
	case token.USE:
		return p.parseUse()
	case token.SWITCH:
		return p.parseSwitch()
	case token.INT:
		p.advance()
		v, err := strconv.ParseInt(t.Lexeme, 10, 64)
		if err != nil {
			return nil, &ParseError{Line: t.Line, Column: t.Column, File: t.File, Expected: "integer literal"}
		}
		return &ast.IntLiteral{Loc: loc, Value: v}, nil
	case token.FLOAT:
		p.advance()
		v, err := strconv.ParseFloat(t.Lexeme, 64)
		if err != nil {
			return nil, &ParseError{Line: t.Line, Column: t.Column, File: t.File, Expected: "float literal"}
		}
		return &ast.FloatLiteral{Loc: loc, Value: v}, nil
	case token.STRING:
		p.advance()
		return &ast.StringLiteral{Loc: loc, Value: t.Lexeme}, nil
	case token.TRUE:
		p.advance()
		return &ast.BoolLiteral{Loc: loc, Value: true}, nil
	case token.FALSE:
		p.advance()
		return &ast.BoolLiteral{Loc: loc, Value: false}, nil
	case token.NULL:
		p.advance()
		return &ast.NullLiteral{Loc: loc}, nil
	case token.IDENT:
		p.advance()
		return &ast.Ident{Loc: loc, Name: t.Lexeme}, nil
	case token.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case token.DOUBLE_LBRACE:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.DOUBLE_RBRACE); err != nil {
			return nil, err
		}
		return &ast.Interpolate{Loc: loc, Expr: e}, nil
	default:
		return nil, p.errorf("expression")
	}
}

// parseFunctionLiteral parses a `fn`/`impl` header, parameter list, return
// type and body, ported from the grammar's fn_named_prefix/fn_anon_prefix/
// fn_method_impl productions.
func (p *Parser) parseFunctionLiteral() (ast.Node, error) {
	loc := p.loc()
	var header ast.FunctionHeader
	if p.curIs(token.IMPL) {
		p.advance()
		implFor, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		header = ast.FunctionHeader{Kind: ast.HeaderMethodImpl, ImplFor: implFor}
	} else {
		p.advance() // consume "fn"
		if p.curIs(token.IDENT) {
			header = ast.FunctionHeader{Kind: ast.HeaderFunction, Name: p.cur().Lexeme}
			p.advance()
		} else {
			header = ast.FunctionHeader{Kind: ast.HeaderFunction}
		}
	}

	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []ast.ParamDef
	if !p.curIs(token.RPAREN) {
		for {
			if !p.curIs(token.IDENT) {
				return nil, p.errorf("parameter name")
			}
			name := p.cur().Lexeme
			p.advance()
			if err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			ptype, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			params = append(params, ast.ParamDef{Name: name, Type: ptype})
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if err := p.expect(token.RARROW); err != nil {
		return nil, err
	}
	returnType, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var body []ast.Node
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body = append(body, n)
	}
	if err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Function{Loc: loc, Header: header, Params: params, ReturnType: returnType, Body: body}, nil
}

// parseSwitch parses `switch target { case => returns ... }`. Cases are
// separated by nothing but whitespace (no comma), per switch_case() in the
// source grammar.
func (p *Parser) parseSwitch() (ast.Node, error) {
	loc := p.loc()
	p.advance() // consume "switch"
	target, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var cases []ast.SwitchCase
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		caseExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.FATARROW); err != nil {
			return nil, err
		}
		returns, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cases = append(cases, ast.SwitchCase{Expr: caseExpr, Returns: returns})
	}
	if err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Switch{Loc: loc, Target: target, Cases: cases}, nil
}

// parseUse parses a `use` path. The grammar offers two alternative
// productions: a path of "::"-separated segments followed by a mandatory
// `::{names}`, `::*`, or bare-ident suffix; or, failing that, a single bare
// library name with no path prefix at all. Because the first alternative's
// segment list is parsed greedily, a plain multi-segment path with no
// trailing suffix (`use a::b::c` on its own) satisfies neither alternative
// and is a parse error — an emergent quirk inherited unchanged from
// original_source's parser.rs, not a bug introduced here.
func (p *Parser) parseUse() (ast.Node, error) {
	loc := p.loc()
	p.advance() // consume "use"
	save := p.pos
	from := p.parseIdentSepList()
	if imp, ok := p.tryImportNamed(); ok {
		return &ast.Use{Loc: loc, From: from, Import: imp}, nil
	}
	if imp, ok := p.tryImportWildcard(); ok {
		return &ast.Use{Loc: loc, From: from, Import: imp}, nil
	}
	if imp, ok := p.tryImportLib(); ok {
		return &ast.Use{Loc: loc, From: from, Import: imp}, nil
	}
	p.pos = save
	if len(from) <= 1 {
		if imp, ok := p.tryImportLib(); ok {
			return &ast.Use{Loc: loc, Import: imp}, nil
		}
	}
	return nil, p.errorf("use path")
}

// parseIdentSepList greedily parses `ident ("::" ident)*`, backtracking the
// trailing "::" if it isn't followed by another identifier (so `use a::*`
// stops the segment list before "::*").
func (p *Parser) parseIdentSepList() []string {
	var out []string
	if !p.curIs(token.IDENT) {
		return out
	}
	out = append(out, p.cur().Lexeme)
	p.advance()
	for p.curIs(token.COLONCOLON) {
		save := p.pos
		p.advance()
		if !p.curIs(token.IDENT) {
			p.pos = save
			break
		}
		out = append(out, p.cur().Lexeme)
		p.advance()
	}
	return out
}

func (p *Parser) tryImportNamed() (ast.Import, bool) {
	save := p.pos
	if !p.curIs(token.COLONCOLON) {
		return ast.Import{}, false
	}
	p.advance()
	if !p.curIs(token.LBRACE) {
		p.pos = save
		return ast.Import{}, false
	}
	p.advance()
	var names []string
	if !p.curIs(token.RBRACE) {
		for {
			if !p.curIs(token.IDENT) {
				p.pos = save
				return ast.Import{}, false
			}
			names = append(names, p.cur().Lexeme)
			p.advance()
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if !p.curIs(token.RBRACE) {
		p.pos = save
		return ast.Import{}, false
	}
	p.advance()
	return ast.Import{Names: names}, true
}

func (p *Parser) tryImportWildcard() (ast.Import, bool) {
	save := p.pos
	if !p.curIs(token.COLONCOLON) {
		return ast.Import{}, false
	}
	p.advance()
	if !p.curIs(token.STAR) {
		p.pos = save
		return ast.Import{}, false
	}
	p.advance()
	return ast.Import{Wildcard: true}, true
}

func (p *Parser) tryImportLib() (ast.Import, bool) {
	if !p.curIs(token.IDENT) {
		return ast.Import{}, false
	}
	name := p.cur().Lexeme
	p.advance()
	return ast.Import{Names: []string{name}}, true
}
