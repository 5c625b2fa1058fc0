package parser

import (
	"github.com/nyrkio/qry/internal/ast"
	"github.com/nyrkio/qry/internal/token"
)

// parseExpr is the grammar's entry point, re-entered recursively for every
// nested expr() reference in the original grammar (impl headers, return
// types, function bodies, call/index/generic arguments, switch targets and
// case expressions, parenthesized and interpolated sub-expressions).
func (p *Parser) parseExpr() (ast.Node, error) {
	return p.parseLAssign()
}

// parseLAssign is the loosest level. Unlike every other binary level it is
// right-associative: `a <- b <- c` parses as `a <- (b <- c)`, ported from
// the grammar's `lhs:@ __ "<-" __ rhs:(@)` (rhs, not lhs, recurses at this
// same level).
func (p *Parser) parseLAssign() (ast.Node, error) {
	loc := p.loc()
	lhs, err := p.parseRAssign()
	if err != nil {
		return nil, err
	}
	if !p.curIs(token.LARROW) {
		return lhs, nil
	}
	save := p.pos
	p.advance()
	rhs, err := p.parseLAssign()
	if err != nil {
		p.pos = save
		return lhs, nil
	}
	return &ast.BinaryOp{Loc: loc, Op: ast.LAssign, Lhs: lhs, Rhs: rhs}, nil
}

func (p *Parser) parseRAssign() (ast.Node, error) {
	return p.leftAssoc(p.parseOr, map[token.Type]ast.BinaryOperator{token.RARROW: ast.RAssign})
}

func (p *Parser) parseOr() (ast.Node, error) {
	return p.leftAssoc(p.parseAnd, map[token.Type]ast.BinaryOperator{token.BAR: ast.Or})
}

func (p *Parser) parseAnd() (ast.Node, error) {
	return p.leftAssoc(p.parseNegate, map[token.Type]ast.BinaryOperator{token.AMP: ast.And})
}

// parseNegate is the `!` prefix level, sitting between And and equality.
func (p *Parser) parseNegate() (ast.Node, error) {
	if p.curIs(token.BANG) {
		loc := p.loc()
		p.advance()
		target, err := p.parseNegate()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Loc: loc, Op: ast.Negate, Target: target}, nil
	}
	return p.parseEquality()
}

func (p *Parser) parseEquality() (ast.Node, error) {
	return p.leftAssoc(p.parseRelational, map[token.Type]ast.BinaryOperator{
		token.EQ:     ast.Equal,
		token.NOT_EQ: ast.NotEqual,
	})
}

func (p *Parser) parseRelational() (ast.Node, error) {
	return p.leftAssoc(p.parseAdditive, map[token.Type]ast.BinaryOperator{
		token.GT:  ast.Gt,
		token.GTE: ast.Gte,
		token.LT:  ast.Lt,
		token.LTE: ast.Lte,
	})
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	return p.leftAssoc(p.parseMultiplicative, map[token.Type]ast.BinaryOperator{
		token.PLUS:  ast.Add,
		token.MINUS: ast.Sub,
	})
}

func (p *Parser) parseMultiplicative() (ast.Node, error) {
	return p.leftAssoc(p.parseFunctionLevel, map[token.Type]ast.BinaryOperator{
		token.STAR:  ast.Mul,
		token.SLASH: ast.Div,
	})
}

// parseFunctionLevel tries a function literal (`fn ...` or `impl ...`
// header); anything else falls through to Pipe, one level tighter.
func (p *Parser) parseFunctionLevel() (ast.Node, error) {
	if p.curIs(token.FN) || p.curIs(token.IMPL) {
		return p.parseFunctionLiteral()
	}
	return p.parsePipe()
}

func (p *Parser) parsePipe() (ast.Node, error) {
	return p.leftAssoc(p.parseUnaryMinus, map[token.Type]ast.BinaryOperator{token.PIPE_GT: ast.Pipe})
}

// parseUnaryMinus is the prefix `-` level, tighter than Pipe, looser than
// the Call/Index/GenericInstantiation/Access postfix chain.
func (p *Parser) parseUnaryMinus() (ast.Node, error) {
	if p.curIs(token.MINUS) {
		loc := p.loc()
		p.advance()
		target, err := p.parseUnaryMinus()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Loc: loc, Op: ast.Minus, Target: target}, nil
	}
	return p.parsePostfix()
}

// leftAssoc implements every standard left-associative binary level: parse
// one operand at the next tighter level, then loop consuming any operator
// in ops followed by another operand at the same tighter level.
//
// Consuming the operator and then failing to find a valid rhs backtracks
// to just before the operator and stops the loop, returning the operand
// accumulated so far rather than propagating the error. This mirrors the
// source PEG grammar's precedence! macro: each binary level is itself one
// alternative of an ordered choice that falls back to "just the next
// tighter level, no operator" when the full "lhs op rhs" pattern doesn't
// match. Without it, `Vector<Int>` would never parse as a generic
// instantiation: the relational level would greedily consume the closing
// ">" as "greater than" and then fail to find anything after it.
func (p *Parser) leftAssoc(next func() (ast.Node, error), ops map[token.Type]ast.BinaryOperator) (ast.Node, error) {
	loc := p.loc()
	lhs, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.cur().Type]
		if !ok {
			return lhs, nil
		}
		save := p.pos
		p.advance()
		rhs, err := next()
		if err != nil {
			p.pos = save
			return lhs, nil
		}
		lhs = &ast.BinaryOp{Loc: loc, Op: op, Lhs: lhs, Rhs: rhs}
	}
}
