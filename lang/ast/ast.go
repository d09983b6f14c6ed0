// Package ast defines the AST nodes produced by the parser for Kal. The
// evaluator (lang/machine) treats this tree as immutable: nothing here is
// mutated after parsing.
package ast

import "github.com/maxeonyx/kal-go/lang/token"

// Node is any AST node.
type Node interface {
	// Span reports the start and end position of the node.
	Span() (start, end token.Pos)
}

// Expr is any expression node. In Kal almost everything is an expression;
// the only statement forms are Let and Assign.
type Expr interface {
	Node
	expr()
}

// Pattern is a destructuring pattern node.
type Pattern interface {
	Node
	pattern()
}

// Block is a sequence of statements with an optional trailing expression;
// without one, the block evaluates to Null. A block opens its own scope.
type Block struct {
	Start, End token.Pos
	Stmts      []Expr // Let, Assign, or any Expr used as a statement
	Tail       Expr   // may be nil, meaning the block evaluates to Null
}

func (b *Block) Span() (token.Pos, token.Pos) { return b.Start, b.End }
