package ast

import "github.com/maxeonyx/kal-go/lang/token"

// IsAssignable reports whether e is a valid assignment/let target location:
// an identifier, or a dot/index expression whose base is itself assignable.
// Used by the parser to reject malformed location chains.
func IsAssignable(e Expr) bool {
	switch e := e.(type) {
	case *IdentExpr:
		return true
	case *DotExpr:
		return IsAssignable(e.Left)
	case *IndexExpr:
		return IsAssignable(e.Left)
	default:
		return false
	}
}

type (
	// LiteralExpr is a Null, Bool or Int literal.
	LiteralExpr struct {
		Kind   token.Token // NULL, TRUE, FALSE or INT
		Pos    token.Pos
		Raw    string
		IntVal int64 // valid only when Kind == token.INT
	}

	// SymbolExpr is the `symbol` literal, which mints a fresh symbol every
	// time it is evaluated. It also covers the `symbol()` call-sugar
	// spelling: HasCall records whether the parens were present, but both
	// spellings evaluate identically.
	SymbolExpr struct {
		Pos     token.Pos
		End     token.Pos
		HasCall bool
	}

	// IdentExpr is an identifier reference, resolved through the scope
	// chain at evaluation time.
	IdentExpr struct {
		Pos  token.Pos
		Name string
	}

	// BinOpExpr covers arithmetic (+ - * /), ordering comparison (< <= > >=),
	// equality (== !=) and boolean (and or xor) binary operators. All share
	// one node shape since they share the evaluate-both-sides-then-combine
	// scheduling.
	BinOpExpr struct {
		Left  Expr
		Op    token.Token
		OpPos token.Pos
		Right Expr
	}

	// UnaryOpExpr covers numeric negation (-x) and boolean negation (not x).
	UnaryOpExpr struct {
		Op    token.Token
		OpPos token.Pos
		Right Expr
	}

	// DotExpr is a field access, e.g. x.y. Only valid on Object values.
	DotExpr struct {
		Left Expr
		Dot  token.Pos
		Name string
		End  token.Pos
	}

	// IndexExpr is an index access, e.g. x[y]. Valid on List (Int index,
	// negative wraps) and Object (any Key-typed index) values.
	IndexExpr struct {
		Left   Expr
		Lbrack token.Pos
		Index  Expr
		Rbrack token.Pos
	}

	// ListElem is one element of a list literal or call argument list: a
	// plain expression, or a `...expr` spread.
	ListElem struct {
		Spread   bool
		SpreadAt token.Pos // valid only when Spread
		Value    Expr
	}

	// ListExpr is a list literal, e.g. [1, 2, ...xs].
	ListExpr struct {
		Lbrack token.Pos
		Elems  []ListElem
		Rbrack token.Pos
	}

	// ObjectField is one field of an object literal: `name: value` or a
	// `...expr` spread that must evaluate to an Object.
	ObjectField struct {
		Spread   bool
		SpreadAt token.Pos // valid only when Spread
		Name     string    // valid only when !Spread
		NamePos  token.Pos // valid only when !Spread
		Value    Expr
	}

	// ObjectExpr is an object literal, e.g. {x: 1, ...rest}.
	ObjectExpr struct {
		Lbrace token.Pos
		Fields []ObjectField
		Rbrace token.Pos
	}

	// IfPart is one `cond { block }` arm of an IfExpr.
	IfPart struct {
		Cond Expr
		Body *Block
	}

	// IfExpr evaluates Parts in order, taking the first whose Cond is true;
	// if none match, it evaluates Else (or Null if Else is nil).
	IfExpr struct {
		If    token.Pos
		Parts []IfPart
		Else  *Block // nil if there is no else clause
		End   token.Pos
	}

	// LoopExpr repeats Body forever, until a `break` (or an unhandled
	// effect) unwinds it.
	LoopExpr struct {
		Loop token.Pos
		Body *Block
		End  token.Pos
	}

	// FuncExpr is a function literal. Params is a ListPattern so that
	// parameter binding reuses the same destructuring machinery as `let`,
	// including spread params.
	FuncExpr struct {
		Fn     token.Pos
		Params *ListPattern
		Body   *Block
		End    token.Pos
	}

	// CallExpr is a function call, e.g. f(x, ...xs). Fn may evaluate to a
	// Closure or an Intrinsic.
	CallExpr struct {
		Fn     Expr
		Lparen token.Pos
		Args   []ListElem
		Rparen token.Pos
	}

	// HandleArm is one `sym: name => block` match arm of a HandleExpr. Symbol
	// is an expression (usually an identifier) evaluated eagerly, before the
	// handler's Operand, so it may come from a binding.
	HandleArm struct {
		Symbol   Expr
		Colon    token.Pos
		Param    string
		ParamPos token.Pos
		Arrow    token.Pos
		Body     *Block
	}

	// HandleExpr installs a handler around Operand. If Operand evaluates to
	// an Effect whose symbol matches one of Arms, that arm runs; otherwise
	// the effect passes through to the next handler out.
	HandleExpr struct {
		Handle  token.Pos
		Operand Expr
		Arms    []HandleArm
		End     token.Pos
	}

	// SendExpr suspends the current function context as an Effect value
	// carrying Symbol and Value.
	SendExpr struct {
		Send   token.Pos
		Symbol Expr
		Value  Expr
	}

	// ContinueExpr resumes the sub-context's captured continuation (inside a
	// handler arm) or re-enters the loop body (inside a loop), discarding
	// Value in the loop case.
	ContinueExpr struct {
		Pos   token.Pos
		Value Expr // nil means Null
	}

	// BreakExpr abandons the current sub-context, yielding Value as the
	// result of the enclosing loop or handler arm.
	BreakExpr struct {
		Pos   token.Pos
		Value Expr // nil means Null
	}

	// AssignExpr overwrites the location denoted by Target (an identifier,
	// or a chain of .field/[index] accessors on one) with the value of Rhs.
	AssignExpr struct {
		Target Expr
		Eq     token.Pos
		Rhs    Expr
	}

	// LetExpr destructures the value of Rhs against Pat, creating bindings
	// in the current scope.
	LetExpr struct {
		Let token.Pos
		Pat Pattern
		Eq  token.Pos
		Rhs Expr
	}
)

func (n *LiteralExpr) Span() (token.Pos, token.Pos) { return n.Pos, n.Pos }
func (n *SymbolExpr) Span() (token.Pos, token.Pos)  { return n.Pos, n.End }
func (n *IdentExpr) Span() (token.Pos, token.Pos)   { return n.Pos, n.Pos }
func (n *BinOpExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Left.Span()
	_, end := n.Right.Span()
	return start, end
}
func (n *UnaryOpExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Right.Span()
	return n.OpPos, end
}
func (n *DotExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Left.Span()
	return start, n.End
}
func (n *IndexExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Left.Span()
	return start, n.Rbrack
}
func (n *ListExpr) Span() (token.Pos, token.Pos)   { return n.Lbrack, n.Rbrack }
func (n *ObjectExpr) Span() (token.Pos, token.Pos) { return n.Lbrace, n.Rbrace }
func (n *IfExpr) Span() (token.Pos, token.Pos)     { return n.If, n.End }
func (n *LoopExpr) Span() (token.Pos, token.Pos)   { return n.Loop, n.End }
func (n *FuncExpr) Span() (token.Pos, token.Pos)   { return n.Fn, n.End }
func (n *CallExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Fn.Span()
	return start, n.Rparen
}
func (n *HandleExpr) Span() (token.Pos, token.Pos) { return n.Handle, n.End }
func (n *SendExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Value.Span()
	return n.Send, end
}
func (n *ContinueExpr) Span() (token.Pos, token.Pos) { return n.Pos, n.Pos }
func (n *BreakExpr) Span() (token.Pos, token.Pos)    { return n.Pos, n.Pos }
func (n *AssignExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Target.Span()
	_, end := n.Rhs.Span()
	return start, end
}
func (n *LetExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Rhs.Span()
	return n.Let, end
}

func (*LiteralExpr) expr()  {}
func (*SymbolExpr) expr()   {}
func (*IdentExpr) expr()    {}
func (*BinOpExpr) expr()    {}
func (*UnaryOpExpr) expr()  {}
func (*DotExpr) expr()      {}
func (*IndexExpr) expr()    {}
func (*ListExpr) expr()     {}
func (*ObjectExpr) expr()   {}
func (*IfExpr) expr()       {}
func (*LoopExpr) expr()     {}
func (*FuncExpr) expr()     {}
func (*CallExpr) expr()     {}
func (*HandleExpr) expr()   {}
func (*SendExpr) expr()     {}
func (*ContinueExpr) expr() {}
func (*BreakExpr) expr()    {}
func (*AssignExpr) expr()   {}
func (*LetExpr) expr()      {}
func (*Block) expr()        {}
