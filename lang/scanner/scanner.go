// Package scanner turns Kal source text into a stream of tokens, consumed
// by the parser (lang/parser) to build the AST.
package scanner

import (
	"go/scanner"
	"unicode"
	"unicode/utf8"

	"github.com/maxeonyx/kal-go/lang/token"
)

// Error and ErrorList are reused from the standard library scanner package:
// a lexer's errors are not a novel concern worth a bespoke type.
type (
	Error     = scanner.Error
	ErrorList = scanner.ErrorList
)

// PrintError prints each error in err (a single error or an ErrorList) to
// the given writer, one per line.
var PrintError = scanner.PrintError

// TokenAndValue combines a token kind with its source text and position.
type TokenAndValue struct {
	Token token.Token
	Lit   string
	Pos   token.Pos
}

// Scanner tokenizes a single Kal source file.
type Scanner struct {
	file *token.File
	src  []byte
	errh func(token.Pos, string)

	pos        int // position of ch in src
	readPos    int
	ch         rune
	line, col  int
	ErrorCount int
}

// Init prepares s to scan src. errh, if non-nil, is called for every lexical
// error encountered; otherwise errors are silently skipped over.
func (s *Scanner) Init(file *token.File, src []byte, errh func(token.Pos, string)) {
	s.file = file
	s.src = src
	s.errh = errh
	s.line, s.col = 1, 0
	s.pos, s.readPos, s.ch = 0, 0, 0
	s.advance()
}

func (s *Scanner) advance() {
	if s.ch == '\n' {
		s.line++
		s.col = 0
	}
	if s.readPos >= len(s.src) {
		s.ch = 0
		s.pos = len(s.src)
		return
	}
	r, w := utf8.DecodeRune(s.src[s.readPos:])
	s.ch = r
	s.pos = s.readPos
	s.readPos += w
	s.col++
}

func (s *Scanner) peek() rune {
	if s.readPos >= len(s.src) {
		return 0
	}
	r, _ := utf8.DecodeRune(s.src[s.readPos:])
	return r
}

func (s *Scanner) error(pos token.Pos, msg string) {
	s.ErrorCount++
	if s.errh != nil {
		s.errh(pos, msg)
	}
}

func (s *Scanner) skipSpaceAndComments() {
	for {
		for unicode.IsSpace(s.ch) {
			s.advance()
		}
		if s.ch == '#' {
			for s.ch != '\n' && s.ch != 0 {
				s.advance()
			}
			continue
		}
		break
	}
}

// Scan returns the next token, its literal text and its starting position.
// At end of input it keeps returning token.EOF.
func (s *Scanner) Scan() TokenAndValue {
	s.skipSpaceAndComments()
	pos := token.MakePos(s.line, s.col)

	switch ch := s.ch; {
	case ch == 0:
		return TokenAndValue{Token: token.EOF, Pos: pos}
	case isIdentStart(ch):
		return s.scanIdent(pos)
	case isDigit(ch):
		return s.scanNumber(pos)
	default:
		return s.scanOperator(pos)
	}
}

func isIdentStart(ch rune) bool { return ch == '_' || unicode.IsLetter(ch) }
func isIdentCont(ch rune) bool  { return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch) }
func isDigit(ch rune) bool      { return ch >= '0' && ch <= '9' }

func (s *Scanner) scanIdent(pos token.Pos) TokenAndValue {
	start := s.pos
	for isIdentCont(s.ch) {
		s.advance()
	}
	lit := string(s.src[start:s.pos])
	return TokenAndValue{Token: token.Lookup(lit), Lit: lit, Pos: pos}
}

func (s *Scanner) scanNumber(pos token.Pos) TokenAndValue {
	start := s.pos
	for isDigit(s.ch) {
		s.advance()
	}
	return TokenAndValue{Token: token.INT, Lit: string(s.src[start:s.pos]), Pos: pos}
}

func (s *Scanner) scanOperator(pos token.Pos) TokenAndValue {
	ch := s.ch
	s.advance()

	two := func(next rune, twoTok, oneTok token.Token) TokenAndValue {
		if s.ch == next {
			s.advance()
			return TokenAndValue{Token: twoTok, Pos: pos}
		}
		return TokenAndValue{Token: oneTok, Pos: pos}
	}

	switch ch {
	case '+':
		return TokenAndValue{Token: token.PLUS, Pos: pos}
	case '-':
		return TokenAndValue{Token: token.MINUS, Pos: pos}
	case '*':
		return TokenAndValue{Token: token.STAR, Pos: pos}
	case '/':
		return TokenAndValue{Token: token.SLASH, Pos: pos}
	case ',':
		return TokenAndValue{Token: token.COMMA, Pos: pos}
	case ':':
		return TokenAndValue{Token: token.COLON, Pos: pos}
	case ';':
		return TokenAndValue{Token: token.SEMI, Pos: pos}
	case '(':
		return TokenAndValue{Token: token.LPAREN, Pos: pos}
	case ')':
		return TokenAndValue{Token: token.RPAREN, Pos: pos}
	case '[':
		return TokenAndValue{Token: token.LBRACK, Pos: pos}
	case ']':
		return TokenAndValue{Token: token.RBRACK, Pos: pos}
	case '{':
		return TokenAndValue{Token: token.LBRACE, Pos: pos}
	case '}':
		return TokenAndValue{Token: token.RBRACE, Pos: pos}
	case '.':
		if s.ch == '.' && s.peek() == '.' {
			s.advance()
			s.advance()
			return TokenAndValue{Token: token.SPREAD, Pos: pos}
		}
		return TokenAndValue{Token: token.DOT, Pos: pos}
	case '=':
		if s.ch == '>' {
			s.advance()
			return TokenAndValue{Token: token.ARROW, Pos: pos}
		}
		return two('=', token.EQL, token.ASSIGN)
	case '!':
		if s.ch == '=' {
			s.advance()
			return TokenAndValue{Token: token.NEQ, Pos: pos}
		}
		s.error(pos, "unexpected character '!'")
		return TokenAndValue{Token: token.ILLEGAL, Pos: pos}
	case '<':
		return two('=', token.LE, token.LT)
	case '>':
		return two('=', token.GE, token.GT)
	default:
		s.error(pos, "unexpected character "+string(ch))
		return TokenAndValue{Token: token.ILLEGAL, Pos: pos}
	}
}
