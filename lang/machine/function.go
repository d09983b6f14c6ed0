package machine

import (
	"fmt"

	"github.com/maxeonyx/kal-go/lang/ast"
)

// A Closure pairs a function literal's AST with the scope captured when the
// literal was evaluated. The capture is a branch of the enclosing scope
// chain (see Interp.branchScope), so the enclosing function can keep
// mutating its own fresh sibling frame without the closure observing it.
type Closure struct {
	refs   int32
	code   *ast.FuncExpr
	parent *Scope
}

var (
	_ Value  = (*Closure)(nil)
	_ shared = (*Closure)(nil)
)

// NewClosure returns a closure over code and the captured scope, taking
// ownership of the caller's hold on scope.
func NewClosure(code *ast.FuncExpr, scope *Scope) *Closure {
	return &Closure{refs: 1, code: code, parent: scope}
}

func (c *Closure) String() string { return fmt.Sprintf("closure(%p)", c) }
func (c *Closure) Type() string   { return "closure" }

func (c *Closure) retain()      { c.refs++ }
func (c *Closure) unique() bool { return c.refs == 1 }

func (c *Closure) release() {
	c.refs--
	if c.refs == 0 {
		c.parent.release()
		c.parent = nil
	}
}

// An Effect is the first-class suspension produced by `send`: the sent
// symbol, its payload, and the function context captured at the send site.
// An effect moves once, from producer to handler; the handler refuses to
// dispatch an effect that has been aliased along the way.
type Effect struct {
	refs int32

	// Symbol identifies the effect for handler matching.
	Symbol Symbol

	// Value is the payload passed to the matching handler arm.
	Value Value

	// Ctx is the captured function context, resumed by `continue`.
	Ctx *FunctionContext
}

var (
	_ Value  = (*Effect)(nil)
	_ shared = (*Effect)(nil)
)

func (e *Effect) String() string {
	return fmt.Sprintf("effect(%s, %s)", e.Symbol, e.Value)
}
func (e *Effect) Type() string { return "effect" }

func (e *Effect) retain()      { e.refs++ }
func (e *Effect) unique() bool { return e.refs == 1 }

func (e *Effect) release() {
	e.refs--
	if e.refs == 0 {
		Release(e.Value)
		e.Value = nil
		if e.Ctx != nil {
			e.Ctx.release()
			e.Ctx = nil
		}
	}
}
