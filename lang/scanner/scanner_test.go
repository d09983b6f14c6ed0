package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxeonyx/kal-go/lang/token"
)

func scanAll(t *testing.T, src string) ([]TokenAndValue, int) {
	t.Helper()
	var s Scanner
	var errCount int
	s.Init(&token.File{Name: "test.kal"}, []byte(src), func(token.Pos, string) { errCount++ })
	var toks []TokenAndValue
	for {
		tv := s.Scan()
		if tv.Token == token.EOF {
			return toks, errCount
		}
		toks = append(toks, tv)
	}
}

func kinds(toks []TokenAndValue) []token.Token {
	var res []token.Token
	for _, tv := range toks {
		res = append(res, tv.Token)
	}
	return res
}

func TestScan(t *testing.T) {
	cases := []struct {
		src  string
		want []token.Token
	}{
		{"", nil},
		{"   \n\t ", nil},
		{"# just a comment", nil},
		{"x", []token.Token{token.IDENT}},
		{"let x = 42;", []token.Token{token.LET, token.IDENT, token.ASSIGN, token.INT, token.SEMI}},
		{"a + b - c * d / e", []token.Token{
			token.IDENT, token.PLUS, token.IDENT, token.MINUS, token.IDENT,
			token.STAR, token.IDENT, token.SLASH, token.IDENT,
		}},
		{"< <= > >= == != =>", []token.Token{
			token.LT, token.LE, token.GT, token.GE, token.EQL, token.NEQ, token.ARROW,
		}},
		{"x.y ...xs", []token.Token{
			token.IDENT, token.DOT, token.IDENT, token.SPREAD, token.IDENT,
		}},
		{"([{}])", []token.Token{
			token.LPAREN, token.LBRACK, token.LBRACE, token.RBRACE, token.RBRACK, token.RPAREN,
		}},
		{"fn if else loop handle send continue break", []token.Token{
			token.FN, token.IF, token.ELSE, token.LOOP, token.HANDLE,
			token.SEND, token.CONTINUE, token.BREAK,
		}},
		{"null true false symbol and or xor not", []token.Token{
			token.NULL, token.TRUE, token.FALSE, token.SYMBOL,
			token.AND, token.OR, token.XOR, token.NOT,
		}},
		{"lettuce iffy", []token.Token{token.IDENT, token.IDENT}},
		{"x # trailing comment\ny", []token.Token{token.IDENT, token.IDENT}},
	}
	for _, c := range cases {
		toks, errCount := scanAll(t, c.src)
		assert.Equal(t, c.want, kinds(toks), "source: %q", c.src)
		assert.Zero(t, errCount, "source: %q", c.src)
	}
}

func TestScanLiterals(t *testing.T) {
	toks, errCount := scanAll(t, "foo 123 _bar")
	require.Zero(t, errCount)
	require.Len(t, toks, 3)
	assert.Equal(t, "foo", toks[0].Lit)
	assert.Equal(t, "123", toks[1].Lit)
	assert.Equal(t, "_bar", toks[2].Lit)
}

func TestScanPositions(t *testing.T) {
	toks, _ := scanAll(t, "a\n  b")
	require.Len(t, toks, 2)

	line, col := toks[0].Pos.LineCol()
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	line, col = toks[1].Pos.LineCol()
	assert.Equal(t, 2, line)
	assert.Equal(t, 3, col)
}

func TestScanErrors(t *testing.T) {
	toks, errCount := scanAll(t, "a ! b ? c")
	assert.Equal(t, 2, errCount)
	// illegal tokens are reported but scanning continues
	assert.Equal(t, []token.Token{
		token.IDENT, token.ILLEGAL, token.IDENT, token.ILLEGAL, token.IDENT,
	}, kinds(toks))
}
