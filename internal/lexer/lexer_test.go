package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyrkio/qry/internal/lexer"
	"github.com/nyrkio/qry/internal/token"
)

func lexAll(src string) []token.Token {
	l := lexer.New("<test>", src)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

func types(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestNextTokenOperators(t *testing.T) {
	toks := lexAll("<- -> | & ! == != < <= > >= + - * / |>")
	require.Equal(t, []token.Type{
		token.LARROW, token.RARROW, token.BAR, token.AMP, token.BANG,
		token.EQ, token.NOT_EQ, token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PIPE_GT,
		token.EOF,
	}, types(toks))
}

func TestNextTokenDelimiters(t *testing.T) {
	toks := lexAll("( ) [ ] { } {{ }} :: : , = =>")
	require.Equal(t, []token.Type{
		token.LPAREN, token.RPAREN, token.LBRACKET, token.RBRACKET,
		token.LBRACE, token.RBRACE, token.DOUBLE_LBRACE, token.DOUBLE_RBRACE,
		token.COLONCOLON, token.COLON, token.COMMA, token.ASSIGN, token.FATARROW,
		token.EOF,
	}, types(toks))
}

func TestNextTokenKeywords(t *testing.T) {
	toks := lexAll("fn impl use switch true false null")
	require.Equal(t, []token.Type{
		token.FN, token.IMPL, token.USE, token.SWITCH,
		token.TRUE, token.FALSE, token.NULL, token.EOF,
	}, types(toks))
}

func TestNextTokenIdentifier(t *testing.T) {
	toks := lexAll("row_count")
	require.Len(t, toks, 2)
	assert.Equal(t, token.IDENT, toks[0].Type)
	assert.Equal(t, "row_count", toks[0].Lexeme)
}

func TestNextTokenNumbers(t *testing.T) {
	toks := lexAll("42 9 / 2.")
	require.Equal(t, []token.Type{
		token.INT, token.INT, token.SLASH, token.FLOAT, token.EOF,
	}, types(toks))
	assert.Equal(t, "2.", toks[3].Lexeme)
}

func TestNextTokenFloat(t *testing.T) {
	toks := lexAll("3.14")
	require.Len(t, toks, 2)
	assert.Equal(t, token.FLOAT, toks[0].Type)
	assert.Equal(t, "3.14", toks[0].Lexeme)
}

// TestNextTokenStringRaw documents that string literals are read
// character-for-character between quotes with no escape processing.
func TestNextTokenStringRaw(t *testing.T) {
	toks := lexAll(`"hello\nworld"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Type)
	assert.Equal(t, `hello\nworld`, toks[0].Lexeme)
}

func TestNextTokenLineTracking(t *testing.T) {
	toks := lexAll("a\nb")
	require.Len(t, toks, 3)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
}

func TestNextTokenIllegal(t *testing.T) {
	toks := lexAll("@")
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Type)
}
