package parser

import (
	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/token"
)

// parsePostfix parses a primary and then greedily chains
// Call/Index/GenericInstantiation/Access onto it. The source grammar lists
// these as four adjacent, increasingly tight precedence levels with nothing
// but postfix syntax between them (no intervening binary operator can ever
// separate, say, a Call from a following Index); folding them into one
// greedy loop is behaviorally identical and is the idiomatic Go shape for a
// postfix/member chain (`a(x)[0]::b<T>(y)`), matching how the teacher's own
// parser handles its call/index chains.
func (p *Parser) parsePostfix() (ast.Node, error) {
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.curIs(token.LPAREN):
			pos, named, ok := p.tryCallArgs()
			if !ok {
				return primary, nil
			}
			primary = &ast.Call{Loc: primary.Location(), Target: primary, Positional: pos, Named: named}
		case p.curIs(token.LBRACKET):
			keys, err := p.parseIndexKeys()
			if err != nil {
				return nil, err
			}
			primary = &ast.Index{Loc: primary.Location(), Target: primary, Keys: keys}
		case p.curIs(token.LT):
			args, ok := p.tryGenericArgs()
			if !ok {
				return primary, nil
			}
			primary = &ast.GenericInstantiation{Loc: primary.Location(), Target: primary, TypeArgs: args}
		case p.curIs(token.COLONCOLON):
			p.advance()
			rhs, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			primary = &ast.BinaryOp{Loc: primary.Location(), Op: ast.Access, Lhs: primary, Rhs: rhs}
		default:
			return primary, nil
		}
	}
}

// tryCallArgs tentatively parses `(args)`, restoring position and reporting
// failure instead of erroring when the contents don't look like a call's
// argument list — this is what lets `impl ops::add(a: T, b: T) -> T {...}`
// work: the method-expression parse (a full expr()) reaches this same
// postfix loop for `ops::add`, tries to treat the following "(" as a call,
// discovers "a: T" isn't valid call-argument syntax (a bare Ident must be
// followed by "," or ")", not ":"), backtracks, and leaves "(" for the
// function-literal production's own parameter list.
func (p *Parser) tryCallArgs() ([]ast.Node, []ast.NamedArg, bool) {
	save := p.pos
	p.advance() // consume "("
	var positional []ast.Node
	var named []ast.NamedArg
	if p.curIs(token.RPAREN) {
		p.advance()
		return positional, named, true
	}
	for {
		if p.curIs(token.IDENT) && p.peekIs(token.ASSIGN) {
			name := p.cur().Lexeme
			p.advance()
			p.advance()
			v, err := p.parseExpr()
			if err != nil {
				p.pos = save
				return nil, nil, false
			}
			named = append(named, ast.NamedArg{Name: name, Value: v})
		} else {
			v, err := p.parseExpr()
			if err != nil {
				p.pos = save
				return nil, nil, false
			}
			positional = append(positional, v)
		}
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		if p.curIs(token.RPAREN) {
			p.advance()
			break
		}
		p.pos = save
		return nil, nil, false
	}
	return positional, named, true
}

func (p *Parser) parseIndexKeys() ([]ast.Node, error) {
	p.advance() // consume "["
	var keys []ast.Node
	if p.curIs(token.RBRACKET) {
		p.advance()
		return keys, nil
	}
	for {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		keys = append(keys, v)
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return keys, nil
}

// tryGenericArgs tentatively parses `<type_args>`, disambiguating from the
// relational `<` operator the same way tryCallArgs disambiguates call args
// from an impl header: if the contents don't parse as a comma-separated
// expr() list closed by ">", the attempt is abandoned and "<" is left for
// the (much looser) relational level above to consume as a comparison.
func (p *Parser) tryGenericArgs() ([]ast.Node, bool) {
	save := p.pos
	p.advance() // consume "<"
	var args []ast.Node
	for {
		v, err := p.parseExpr()
		if err != nil {
			p.pos = save
			return nil, false
		}
		args = append(args, v)
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if !p.curIs(token.GT) {
		p.pos = save
		return nil, false
	}
	p.advance()
	return args, true
}
