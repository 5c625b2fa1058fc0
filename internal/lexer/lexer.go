// Package lexer turns qry source text into a stream of tokens.
//
// The scanner is a hand-rolled rune reader in the same shape as the
// teacher's lexer: a one-rune lookahead, line/column counters maintained as
// runes are consumed, and a single NextToken dispatch switch. String
// literals are read raw between quotes with no escape processing — this is
// a deliberate MVP limitation carried over from the source language (see
// DESIGN.md, Open Question 1), not an oversight.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nyrkio/qry/internal/token"
)

// Lexer scans a single source file into tokens on demand.
type Lexer struct {
	file         string
	input        string
	position     int
	readPosition int
	ch           rune
	line         int
	column       int
}

// New creates a Lexer over input, attributing tokens to file in error
// positions and SourceLocations downstream.
func New(file, input string) *Lexer {
	l := &Lexer{file: file, input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// isSeparator reports whether r can separate two adjacent top-level
// expressions (spec.md §4.1: "at least one separator is required").
func isSeparator(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func (l *Lexer) skipWhitespace() {
	for isSeparator(l.ch) {
		l.readChar()
	}
}

func newToken(t token.Type, lexeme string, line, column int, file string) token.Token {
	return token.Token{Type: t, Lexeme: lexeme, Line: line, Column: column, File: file}
}

// NextToken scans and returns the next token, advancing the lexer.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	line, column := l.line, l.column

	var tok token.Token
	switch l.ch {
	case '+':
		tok = newToken(token.PLUS, "+", line, column, l.file)
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			tok = newToken(token.RARROW, "->", line, column, l.file)
		} else {
			tok = newToken(token.MINUS, "-", line, column, l.file)
		}
	case '*':
		tok = newToken(token.STAR, "*", line, column, l.file)
	case '/':
		tok = newToken(token.SLASH, "/", line, column, l.file)
	case '<':
		if l.peekChar() == '-' {
			l.readChar()
			tok = newToken(token.LARROW, "<-", line, column, l.file)
		} else if l.peekChar() == '=' {
			l.readChar()
			tok = newToken(token.LTE, "<=", line, column, l.file)
		} else {
			tok = newToken(token.LT, "<", line, column, l.file)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = newToken(token.GTE, ">=", line, column, l.file)
		} else {
			tok = newToken(token.GT, ">", line, column, l.file)
		}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = newToken(token.EQ, "==", line, column, l.file)
		} else if l.peekChar() == '>' {
			l.readChar()
			tok = newToken(token.FATARROW, "=>", line, column, l.file)
		} else {
			tok = newToken(token.ASSIGN, "=", line, column, l.file)
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = newToken(token.NOT_EQ, "!=", line, column, l.file)
		} else {
			tok = newToken(token.BANG, "!", line, column, l.file)
		}
	case '&':
		tok = newToken(token.AMP, "&", line, column, l.file)
	case '|':
		if l.peekChar() == '>' {
			l.readChar()
			tok = newToken(token.PIPE_GT, "|>", line, column, l.file)
		} else {
			tok = newToken(token.BAR, "|", line, column, l.file)
		}
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			tok = newToken(token.COLONCOLON, "::", line, column, l.file)
		} else {
			tok = newToken(token.COLON, ":", line, column, l.file)
		}
	case ',':
		tok = newToken(token.COMMA, ",", line, column, l.file)
	case '(':
		tok = newToken(token.LPAREN, "(", line, column, l.file)
	case ')':
		tok = newToken(token.RPAREN, ")", line, column, l.file)
	case '[':
		tok = newToken(token.LBRACKET, "[", line, column, l.file)
	case ']':
		tok = newToken(token.RBRACKET, "]", line, column, l.file)
	case '{':
		if l.peekChar() == '{' {
			l.readChar()
			tok = newToken(token.DOUBLE_LBRACE, "{{", line, column, l.file)
		} else {
			tok = newToken(token.LBRACE, "{", line, column, l.file)
		}
	case '}':
		if l.peekChar() == '}' {
			l.readChar()
			tok = newToken(token.DOUBLE_RBRACE, "}}", line, column, l.file)
		} else {
			tok = newToken(token.RBRACE, "}", line, column, l.file)
		}
	case '"':
		return l.readString(line, column)
	case 0:
		tok = newToken(token.EOF, "", line, column, l.file)
	default:
		if isIdentRune(l.ch) && !unicode.IsDigit(l.ch) {
			return l.readIdentifier(line, column)
		}
		if unicode.IsDigit(l.ch) {
			return l.readNumber(line, column)
		}
		tok = newToken(token.ILLEGAL, string(l.ch), line, column, l.file)
	}

	l.readChar()
	return tok
}

// isIdentRune reports whether r may appear in an identifier: identifiers
// are ASCII-only, [A-Za-z_][A-Za-z0-9_]*.
func isIdentRune(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

func (l *Lexer) readIdentifier(line, column int) token.Token {
	var sb strings.Builder
	for isIdentRune(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	lit := sb.String()
	return newToken(token.LookupIdent(lit), lit, line, column, l.file)
}

func (l *Lexer) readNumber(line, column int) token.Token {
	var sb strings.Builder
	isFloat := false
	for unicode.IsDigit(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		isFloat = true
		sb.WriteRune(l.ch)
		l.readChar()
		for unicode.IsDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		}
	} else if l.ch == '.' {
		// trailing dot with no fractional digits, e.g. `9 / 2.` (spec.md §8, scenario 3)
		isFloat = true
		sb.WriteRune(l.ch)
		l.readChar()
	}
	lit := sb.String()
	if isFloat {
		return newToken(token.FLOAT, lit, line, column, l.file)
	}
	return newToken(token.INT, lit, line, column, l.file)
}

// readString reads a raw string literal. No escape sequence is processed —
// see the package doc comment and DESIGN.md Open Question 1.
func (l *Lexer) readString(line, column int) token.Token {
	l.readChar() // consume opening quote
	var sb strings.Builder
	for l.ch != '"' && l.ch != 0 {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	lit := sb.String()
	l.readChar() // consume closing quote
	return newToken(token.STRING, lit, line, column, l.file)
}
