package parser

import (
	"github.com/maxeonyx/kal-go/lang/ast"
	"github.com/maxeonyx/kal-go/lang/token"
)

// parsePattern parses a destructuring pattern: a plain identifier (with `_`
// meaning "discard"), a list pattern or an object pattern.
func (p *parser) parsePattern() ast.Pattern {
	switch p.tok {
	case token.IDENT:
		pat := identPattern(p.pos, p.lit)
		p.advance()
		return pat
	case token.LBRACK:
		return p.parseListPattern()
	case token.LBRACE:
		return p.parseObjectPattern()
	default:
		p.errorExpected(p.pos, "pattern")
		panic(errParse)
	}
}

// identPattern turns an identifier into its pattern node, mapping the `_`
// name to a wildcard.
func identPattern(pos token.Pos, name string) ast.Pattern {
	if name == "_" {
		return &ast.WildcardPattern{Pos: pos}
	}
	return &ast.NamePattern{Pos: pos, Name: name}
}

func (p *parser) parseListPattern() *ast.ListPattern {
	lbrack := p.expect(token.LBRACK)
	elems := p.parseListPatternElems(token.RBRACK)
	rbrack := p.expect(token.RBRACK)
	return &ast.ListPattern{Lbrack: lbrack, Elems: elems, Rbrack: rbrack}
}

// parseListPatternElems parses the comma-separated elements of a list
// pattern, shared with function parameter lists. At most one element may be a
// spread: `...` discards the middle slice, `...name` binds it.
func (p *parser) parseListPatternElems(end token.Token) []ast.ListElemPattern {
	var elems []ast.ListElemPattern
	sawSpread := false
	for p.tok != end && p.tok != token.EOF {
		if p.tok == token.SPREAD {
			spreadAt := p.pos
			p.advance()
			if sawSpread {
				p.error(spreadAt, "only one spread is allowed in a list pattern")
			}
			sawSpread = true
			var sub ast.Pattern
			if p.tok == token.IDENT {
				sub = identPattern(p.pos, p.lit)
				p.advance()
			}
			elems = append(elems, ast.ListElemPattern{Spread: true, SpreadAt: spreadAt, Sub: sub})
		} else {
			elems = append(elems, ast.ListElemPattern{Sub: p.parsePattern()})
		}
		if p.tok != token.COMMA {
			break
		}
		p.advance()
	}
	return elems
}

// parseObjectPattern parses `{ name, name: sub, ...rest }`. The spread, if
// present, must be the final field: it collects every entry not claimed by a
// named sibling (`...` discards them, `...name` binds the remaining object,
// `..._` binds each remaining string-keyed entry under its own name).
func (p *parser) parseObjectPattern() *ast.ObjectPattern {
	lbrace := p.expect(token.LBRACE)
	var fields []ast.ObjectFieldPattern
	for p.tok != token.RBRACE && p.tok != token.EOF {
		if p.tok == token.SPREAD {
			spreadAt := p.pos
			p.advance()
			var sub ast.Pattern
			if p.tok == token.IDENT {
				sub = identPattern(p.pos, p.lit)
				p.advance()
			}
			fields = append(fields, ast.ObjectFieldPattern{Spread: true, SpreadAt: spreadAt, Sub: sub})
			if p.tok == token.COMMA {
				p.error(p.pos, "object pattern spread must be the final field")
			}
			break
		}
		namePos := p.pos
		name := p.lit
		p.expect(token.IDENT)
		var sub ast.Pattern
		if p.tok == token.COLON {
			p.advance()
			sub = p.parsePattern()
		}
		fields = append(fields, ast.ObjectFieldPattern{Name: name, NamePos: namePos, Sub: sub})
		if p.tok != token.COMMA {
			break
		}
		p.advance()
	}
	rbrace := p.expect(token.RBRACE)
	return &ast.ObjectPattern{Lbrace: lbrace, Fields: fields, Rbrace: rbrace}
}
