package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer pretty-prints AST nodes, one node per line, indented by depth.
type Printer struct {
	// Output is the io.Writer to print to.
	Output io.Writer

	// Pos prints each node's starting position when true.
	Pos bool
}

// Print pretty-prints the AST rooted at n.
func (p *Printer) Print(n Node) error {
	pp := &printer{w: p.Output, pos: p.Pos}
	pp.node(n)
	return pp.err
}

type printer struct {
	w     io.Writer
	pos   bool
	depth int
	err   error
}

func (p *printer) printf(n Node, format string, args ...any) {
	if p.err != nil {
		return
	}
	var prefix string
	if p.pos {
		start, _ := n.Span()
		prefix = fmt.Sprintf("%8s: ", start)
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s%s\n",
		prefix, strings.Repeat("  ", p.depth), fmt.Sprintf(format, args...))
}

func (p *printer) nested(fn func()) {
	p.depth++
	fn()
	p.depth--
}

func (p *printer) node(n Node) {
	switch n := n.(type) {
	case *Block:
		p.printf(n, "block")
		p.nested(func() {
			for _, s := range n.Stmts {
				p.node(s)
			}
			if n.Tail != nil {
				p.node(n.Tail)
			}
		})
	case *LiteralExpr:
		p.printf(n, "literal %s", n.Raw)
	case *SymbolExpr:
		p.printf(n, "symbol")
	case *IdentExpr:
		p.printf(n, "ident %s", n.Name)
	case *BinOpExpr:
		p.printf(n, "binop %s", n.Op)
		p.nested(func() {
			p.node(n.Left)
			p.node(n.Right)
		})
	case *UnaryOpExpr:
		p.printf(n, "unop %s", n.Op)
		p.nested(func() { p.node(n.Right) })
	case *DotExpr:
		p.printf(n, "dot .%s", n.Name)
		p.nested(func() { p.node(n.Left) })
	case *IndexExpr:
		p.printf(n, "index")
		p.nested(func() {
			p.node(n.Left)
			p.node(n.Index)
		})
	case *ListExpr:
		p.printf(n, "list")
		p.nested(func() {
			for _, el := range n.Elems {
				p.elem(el)
			}
		})
	case *ObjectExpr:
		p.printf(n, "object")
		p.nested(func() {
			for _, f := range n.Fields {
				if f.Spread {
					p.printf(n, "spread")
				} else {
					p.printf(n, "field %s", f.Name)
				}
				p.nested(func() { p.node(f.Value) })
			}
		})
	case *IfExpr:
		p.printf(n, "if")
		p.nested(func() {
			for _, part := range n.Parts {
				p.printf(n, "cond")
				p.nested(func() { p.node(part.Cond) })
				p.node(part.Body)
			}
			if n.Else != nil {
				p.printf(n, "else")
				p.node(n.Else)
			}
		})
	case *LoopExpr:
		p.printf(n, "loop")
		p.nested(func() { p.node(n.Body) })
	case *FuncExpr:
		p.printf(n, "fn")
		p.nested(func() {
			p.pattern(n.Params)
			p.node(n.Body)
		})
	case *CallExpr:
		p.printf(n, "call")
		p.nested(func() {
			p.node(n.Fn)
			for _, a := range n.Args {
				p.elem(a)
			}
		})
	case *HandleExpr:
		p.printf(n, "handle")
		p.nested(func() {
			p.node(n.Operand)
			for _, arm := range n.Arms {
				p.printf(n, "arm %s", arm.Param)
				p.nested(func() {
					p.node(arm.Symbol)
					p.node(arm.Body)
				})
			}
		})
	case *SendExpr:
		p.printf(n, "send")
		p.nested(func() {
			p.node(n.Symbol)
			p.node(n.Value)
		})
	case *ContinueExpr:
		p.printf(n, "continue")
		if n.Value != nil {
			p.nested(func() { p.node(n.Value) })
		}
	case *BreakExpr:
		p.printf(n, "break")
		if n.Value != nil {
			p.nested(func() { p.node(n.Value) })
		}
	case *AssignExpr:
		p.printf(n, "assign")
		p.nested(func() {
			p.node(n.Target)
			p.node(n.Rhs)
		})
	case *LetExpr:
		p.printf(n, "let")
		p.nested(func() {
			p.pattern(n.Pat)
			p.node(n.Rhs)
		})
	default:
		p.printf(n, "unknown node %T", n)
	}
}

func (p *printer) elem(el ListElem) {
	if el.Spread {
		p.printf(el.Value, "spread")
		p.nested(func() { p.node(el.Value) })
		return
	}
	p.node(el.Value)
}

func (p *printer) pattern(pat Pattern) {
	switch pat := pat.(type) {
	case *NamePattern:
		p.printf(pat, "pat %s", pat.Name)
	case *WildcardPattern:
		p.printf(pat, "pat _")
	case *ListPattern:
		p.printf(pat, "listpat")
		p.nested(func() {
			for _, el := range pat.Elems {
				if el.Spread {
					p.printf(pat, "spread")
					if el.Sub != nil {
						p.nested(func() { p.pattern(el.Sub) })
					}
					continue
				}
				p.pattern(el.Sub)
			}
		})
	case *ObjectPattern:
		p.printf(pat, "objectpat")
		p.nested(func() {
			for _, f := range pat.Fields {
				if f.Spread {
					p.printf(pat, "spread")
					if f.Sub != nil {
						p.nested(func() { p.pattern(f.Sub) })
					}
					continue
				}
				p.printf(pat, "field %s", f.Name)
				if f.Sub != nil {
					p.nested(func() { p.pattern(f.Sub) })
				}
			}
		})
	}
}
