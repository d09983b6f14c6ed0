// Package parser turns Kal source text into an AST (lang/ast).
//
// The grammar keeps the handler operand immediately after the `handle`
// keyword, before the braced arm list, so the whole language parses with a
// single token of lookahead. See DESIGN.md for the grammar decisions.
package parser

import (
	"fmt"

	"github.com/maxeonyx/kal-go/lang/ast"
	"github.com/maxeonyx/kal-go/lang/scanner"
	"github.com/maxeonyx/kal-go/lang/token"
)

// Parse parses a complete Kal program (the implicit top-level block) from
// src and returns its AST. The error, if non-nil, is a scanner.ErrorList.
func Parse(file *token.File, src []byte) (block *ast.Block, err error) {
	var p parser
	p.init(file, src)

	defer func() {
		if r := recover(); r != nil {
			if r != errParse {
				panic(r)
			}
		}
	}()

	block = p.parseTopLevel()
	p.errors.Sort()
	return block, p.errors.Err()
}

var errParse = fmt.Errorf("parse error")

type parser struct {
	file    *token.File
	scanner scanner.Scanner
	errors  scanner.ErrorList

	tok token.Token
	lit string
	pos token.Pos
}

func (p *parser) init(file *token.File, src []byte) {
	p.file = file
	p.scanner.Init(file, src, func(pos token.Pos, msg string) {
		p.errors.Add(p.position(pos), msg)
	})
	p.advance()
}

func (p *parser) position(pos token.Pos) token.Position {
	line, col := pos.LineCol()
	name := "<input>"
	if p.file != nil && p.file.Name != "" {
		name = p.file.Name
	}
	return token.Position{Filename: name, Line: line, Column: col}
}

func (p *parser) advance() {
	tv := p.scanner.Scan()
	p.tok, p.lit, p.pos = tv.Token, tv.Lit, tv.Pos
}

func (p *parser) error(pos token.Pos, msg string) {
	p.errors.Add(p.position(pos), msg)
}

func (p *parser) errorExpected(pos token.Pos, what string) {
	p.error(pos, "expected "+what+", found "+p.tok.String())
	panic(errParse)
}

// expect consumes the current token if it matches tok, returning its
// position; otherwise it records an error and panics with errParse, caught
// at statement-recovery points.
func (p *parser) expect(tok token.Token) token.Pos {
	if p.tok != tok {
		p.errorExpected(p.pos, "'"+tok.String()+"'")
	}
	pos := p.pos
	p.advance()
	return pos
}

// parseTopLevel parses the implicit top-level block: a sequence of
// statements with an optional trailing expression, same shape as a braced
// Block but delimited by EOF instead of RBRACE.
func (p *parser) parseTopLevel() *ast.Block {
	block := &ast.Block{Start: p.pos}
	p.parseStmtsUntil(block, token.EOF)
	block.End = p.pos
	return block
}

// parseBlock parses a `{ ... }` delimited block.
func (p *parser) parseBlock() *ast.Block {
	lbrace := p.expect(token.LBRACE)
	block := &ast.Block{Start: lbrace}
	p.parseStmtsUntil(block, token.RBRACE)
	block.End = p.expect(token.RBRACE)
	return block
}

func isLetOrAssign(e ast.Expr) bool {
	switch e.(type) {
	case *ast.LetExpr, *ast.AssignExpr:
		return true
	default:
		return false
	}
}

func (p *parser) parseStmtsUntil(block *ast.Block, end token.Token) {
	for p.tok != end && p.tok != token.EOF {
		stmt := p.parseStmtRecover(end)
		if stmt == nil {
			// recovery stopped at a statement boundary; step past it
			for p.tok == token.SEMI {
				p.advance()
			}
			continue
		}

		hadSemi := false
		for p.tok == token.SEMI {
			p.advance()
			hadSemi = true
		}

		if p.tok == end {
			if !hadSemi && !isLetOrAssign(stmt) {
				block.Tail = stmt
			} else {
				block.Stmts = append(block.Stmts, stmt)
			}
			return
		}
		block.Stmts = append(block.Stmts, stmt)
	}
}

// parseStmtRecover parses one statement, recovering from a parse error by
// skipping tokens until a statement boundary (SEMI, end, or EOF) so the
// parser can keep reporting further errors in the rest of the file.
func (p *parser) parseStmtRecover(end token.Token) (stmt ast.Expr) {
	defer func() {
		if r := recover(); r != nil {
			if r != errParse {
				panic(r)
			}
			for p.tok != token.SEMI && p.tok != end && p.tok != token.EOF {
				p.advance()
			}
			stmt = nil
		}
	}()
	return p.parseStmt()
}

func (p *parser) parseStmt() ast.Expr {
	if p.tok == token.LET {
		return p.parseLet()
	}
	e := p.parseExpr()
	if p.tok == token.ASSIGN {
		if !ast.IsAssignable(e) {
			start, _ := e.Span()
			p.error(start, "invalid assignment target")
		}
		eq := p.pos
		p.advance()
		rhs := p.parseExpr()
		return &ast.AssignExpr{Target: e, Eq: eq, Rhs: rhs}
	}
	return e
}

func (p *parser) parseLet() *ast.LetExpr {
	letPos := p.expect(token.LET)
	pat := p.parsePattern()
	eq := p.expect(token.ASSIGN)
	rhs := p.parseExpr()
	return &ast.LetExpr{Let: letPos, Pat: pat, Eq: eq, Rhs: rhs}
}

// parseExpr is the entry point of the precedence-climbing expression
// parser: or/xor, and, equality, ordering, additive, multiplicative,
// unary, postfix, primary.
func (p *parser) parseExpr() ast.Expr { return p.parseOr() }

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.tok == token.OR || p.tok == token.XOR {
		op, opPos := p.tok, p.pos
		p.advance()
		right := p.parseAnd()
		left = &ast.BinOpExpr{Left: left, Op: op, OpPos: opPos, Right: right}
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	for p.tok == token.AND {
		opPos := p.pos
		p.advance()
		right := p.parseEquality()
		left = &ast.BinOpExpr{Left: left, Op: token.AND, OpPos: opPos, Right: right}
	}
	return left
}

func (p *parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	for p.tok == token.EQL || p.tok == token.NEQ {
		op, opPos := p.tok, p.pos
		p.advance()
		right := p.parseComparison()
		left = &ast.BinOpExpr{Left: left, Op: op, OpPos: opPos, Right: right}
	}
	return left
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for p.tok.IsComparison() {
		op, opPos := p.tok, p.pos
		p.advance()
		right := p.parseAdditive()
		left = &ast.BinOpExpr{Left: left, Op: op, OpPos: opPos, Right: right}
	}
	return left
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.tok == token.PLUS || p.tok == token.MINUS {
		op, opPos := p.tok, p.pos
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinOpExpr{Left: left, Op: op, OpPos: opPos, Right: right}
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.tok == token.STAR || p.tok == token.SLASH {
		op, opPos := p.tok, p.pos
		p.advance()
		right := p.parseUnary()
		left = &ast.BinOpExpr{Left: left, Op: op, OpPos: opPos, Right: right}
	}
	return left
}

func (p *parser) parseUnary() ast.Expr {
	if p.tok == token.MINUS || p.tok == token.NOT {
		op, opPos := p.tok, p.pos
		p.advance()
		right := p.parseUnary()
		return &ast.UnaryOpExpr{Op: op, OpPos: opPos, Right: right}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.tok {
		case token.DOT:
			p.advance()
			namePos := p.pos
			name := p.lit
			p.expect(token.IDENT)
			e = &ast.DotExpr{Left: e, Dot: namePos, Name: name, End: namePos}
		case token.LBRACK:
			lbrack := p.pos
			p.advance()
			idx := p.parseExpr()
			rbrack := p.expect(token.RBRACK)
			e = &ast.IndexExpr{Left: e, Lbrack: lbrack, Index: idx, Rbrack: rbrack}
		case token.LPAREN:
			lparen := p.pos
			p.advance()
			args := p.parseListElems(token.RPAREN)
			rparen := p.expect(token.RPAREN)
			e = &ast.CallExpr{Fn: e, Lparen: lparen, Args: args, Rparen: rparen}
		default:
			return e
		}
	}
}

// parseListElems parses a comma-separated sequence of (possibly spread)
// expressions, shared by list literals and call argument lists.
func (p *parser) parseListElems(end token.Token) []ast.ListElem {
	var elems []ast.ListElem
	for p.tok != end && p.tok != token.EOF {
		if p.tok == token.SPREAD {
			spreadAt := p.pos
			p.advance()
			elems = append(elems, ast.ListElem{Spread: true, SpreadAt: spreadAt, Value: p.parseExpr()})
		} else {
			elems = append(elems, ast.ListElem{Value: p.parseExpr()})
		}
		if p.tok != token.COMMA {
			break
		}
		p.advance()
	}
	return elems
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.tok {
	case token.NULL, token.TRUE, token.FALSE:
		lit := &ast.LiteralExpr{Kind: p.tok, Pos: p.pos, Raw: p.lit}
		p.advance()
		return lit
	case token.INT:
		lit := &ast.LiteralExpr{Kind: token.INT, Pos: p.pos, Raw: p.lit, IntVal: parseInt(p.lit)}
		p.advance()
		return lit
	case token.IDENT:
		e := &ast.IdentExpr{Pos: p.pos, Name: p.lit}
		p.advance()
		return e
	case token.SYMBOL:
		return p.parseSymbol()
	case token.LPAREN:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RPAREN)
		return e
	case token.LBRACK:
		return p.parseListExpr()
	case token.LBRACE:
		return p.parseBraceExpr()
	case token.FN:
		return p.parseFunc()
	case token.IF:
		return p.parseIf()
	case token.LOOP:
		return p.parseLoop()
	case token.HANDLE:
		return p.parseHandle()
	case token.SEND:
		return p.parseSend()
	case token.CONTINUE:
		return p.parseContinue()
	case token.BREAK:
		return p.parseBreak()
	default:
		p.errorExpected(p.pos, "expression")
		panic(errParse)
	}
}

func (p *parser) parseSymbol() *ast.SymbolExpr {
	start := p.pos
	p.advance()
	end := start
	hasCall := false
	if p.tok == token.LPAREN {
		p.advance()
		end = p.expect(token.RPAREN)
		hasCall = true
	}
	return &ast.SymbolExpr{Pos: start, End: end, HasCall: hasCall}
}

func (p *parser) parseListExpr() *ast.ListExpr {
	lbrack := p.expect(token.LBRACK)
	elems := p.parseListElems(token.RBRACK)
	rbrack := p.expect(token.RBRACK)
	return &ast.ListExpr{Lbrack: lbrack, Elems: elems, Rbrack: rbrack}
}

// parseBraceExpr disambiguates the shared `{` prefix of object literals and
// blocks-as-expressions with a bounded lookahead: `{}` is an empty object,
// `{ ident :`, `{ ident ,` and `{ ident }` start an object literal, `{ ...`
// is an object spread, anything else is a block.
func (p *parser) parseBraceExpr() ast.Expr {
	if p.looksLikeObject() {
		return p.parseObjectExpr()
	}
	return p.parseBlock()
}

func (p *parser) looksLikeObject() bool {
	if p.tok != token.LBRACE {
		return false
	}
	save := *p
	defer func() { *p = save }()

	p.advance()
	if p.tok == token.RBRACE {
		return true // empty `{}` is an empty object, not an empty block
	}
	if p.tok == token.SPREAD {
		return true
	}
	if p.tok == token.IDENT {
		p.advance()
		return p.tok == token.COLON || p.tok == token.COMMA || p.tok == token.RBRACE
	}
	return false
}

func (p *parser) parseObjectExpr() *ast.ObjectExpr {
	lbrace := p.expect(token.LBRACE)
	var fields []ast.ObjectField
	for p.tok != token.RBRACE && p.tok != token.EOF {
		if p.tok == token.SPREAD {
			spreadAt := p.pos
			p.advance()
			fields = append(fields, ast.ObjectField{Spread: true, SpreadAt: spreadAt, Value: p.parseExpr()})
		} else {
			namePos := p.pos
			name := p.lit
			p.expect(token.IDENT)
			var value ast.Expr
			if p.tok == token.COLON {
				p.advance()
				value = p.parseExpr()
			} else {
				value = &ast.IdentExpr{Pos: namePos, Name: name}
			}
			fields = append(fields, ast.ObjectField{Name: name, NamePos: namePos, Value: value})
		}
		if p.tok != token.COMMA {
			break
		}
		p.advance()
	}
	rbrace := p.expect(token.RBRACE)
	return &ast.ObjectExpr{Lbrace: lbrace, Fields: fields, Rbrace: rbrace}
}

func (p *parser) parseFunc() *ast.FuncExpr {
	fnPos := p.expect(token.FN)
	lparen := p.expect(token.LPAREN)
	elems := p.parseListPatternElems(token.RPAREN)
	rparen := p.expect(token.RPAREN)
	params := &ast.ListPattern{Lbrack: lparen, Elems: elems, Rbrack: rparen}
	body := p.parseBlock()
	return &ast.FuncExpr{Fn: fnPos, Params: params, Body: body, End: body.End}
}

func (p *parser) parseIf() *ast.IfExpr {
	ifPos := p.expect(token.IF)
	var parts []ast.IfPart
	cond := p.parseExpr()
	body := p.parseBlock()
	parts = append(parts, ast.IfPart{Cond: cond, Body: body})
	end := body.End

	var elseBody *ast.Block
	for p.tok == token.ELSE {
		p.advance()
		if p.tok == token.IF {
			p.advance()
			cond := p.parseExpr()
			body := p.parseBlock()
			parts = append(parts, ast.IfPart{Cond: cond, Body: body})
			end = body.End
			continue
		}
		elseBody = p.parseBlock()
		end = elseBody.End
		break
	}
	return &ast.IfExpr{If: ifPos, Parts: parts, Else: elseBody, End: end}
}

func (p *parser) parseLoop() *ast.LoopExpr {
	loopPos := p.expect(token.LOOP)
	body := p.parseBlock()
	return &ast.LoopExpr{Loop: loopPos, Body: body, End: body.End}
}

func (p *parser) parseHandle() *ast.HandleExpr {
	handlePos := p.expect(token.HANDLE)
	operand := p.parseExpr()
	p.expect(token.LBRACE)
	var arms []ast.HandleArm
	for p.tok != token.RBRACE && p.tok != token.EOF {
		sym := p.parseExpr()
		colon := p.expect(token.COLON)
		paramPos := p.pos
		param := p.lit
		p.expect(token.IDENT)
		arrow := p.expect(token.ARROW)
		body := p.parseBlock()
		arms = append(arms, ast.HandleArm{
			Symbol: sym, Colon: colon, Param: param, ParamPos: paramPos,
			Arrow: arrow, Body: body,
		})
		if p.tok != token.COMMA {
			break
		}
		p.advance()
	}
	end := p.expect(token.RBRACE)
	return &ast.HandleExpr{Handle: handlePos, Operand: operand, Arms: arms, End: end}
}

func (p *parser) parseSend() *ast.SendExpr {
	sendPos := p.expect(token.SEND)
	sym := p.parseUnary()
	p.expect(token.COMMA)
	val := p.parseExpr()
	return &ast.SendExpr{Send: sendPos, Symbol: sym, Value: val}
}

// canStartExpr reports whether tok can begin an expression, used to decide
// whether a bare `continue`/`break` carries a trailing value or implicitly
// yields Null.
func canStartExpr(tok token.Token) bool {
	switch tok {
	case token.RBRACE, token.RPAREN, token.RBRACK, token.COMMA, token.SEMI, token.EOF, token.COLON:
		return false
	default:
		return true
	}
}

func (p *parser) parseContinue() *ast.ContinueExpr {
	pos := p.expect(token.CONTINUE)
	var val ast.Expr
	if canStartExpr(p.tok) {
		val = p.parseExpr()
	}
	return &ast.ContinueExpr{Pos: pos, Value: val}
}

func (p *parser) parseBreak() *ast.BreakExpr {
	pos := p.expect(token.BREAK)
	var val ast.Expr
	if canStartExpr(p.tok) {
		val = p.parseExpr()
	}
	return &ast.BreakExpr{Pos: pos, Value: val}
}

func parseInt(lit string) int64 {
	var n int64
	for _, r := range lit {
		n = n*10 + int64(r-'0')
	}
	return n
}
