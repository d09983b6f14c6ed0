package machine

import (
	"context"
	"fmt"
	"io"

	"github.com/maxeonyx/kal-go/lang/ast"
	"github.com/maxeonyx/kal-go/lang/token"
)

// Interp drives the evaluation of a Kal program. It is single-threaded and
// cooperative: the only suspension point visible to the program is `send`,
// which materialises suspension by capturing a function context into an
// Effect value.
//
// An Interp evaluates one chunk and is then spent; create a fresh one per
// program.
type Interp struct {
	// MaxSteps is the maximum number of instruction steps before evaluation
	// is aborted. A value of 0 means no limit.
	MaxSteps uint64

	// Trace, if non-nil, receives one line per instruction stepped.
	Trace io.Writer

	// Predeclared is an optional set of extra bindings layered over the core
	// scope before the program's own top-level scope.
	Predeclared map[string]Value

	symGen uint64
	fnCtxs []*FunctionContext
	steps  uint64
	ctx    context.Context
}

// New returns an interpreter whose root scope carries the intrinsics and the
// core bindings.
func New() *Interp {
	scope := CoreScope(IntrinsicScope(nil))
	return &Interp{fnCtxs: []*FunctionContext{newFunctionContext(scope)}}
}

// checkEvery is how many steps pass between context-cancellation checks.
const checkEvery = 127

// Run evaluates chunk and returns its value. The error is non-nil for fatal
// conditions (unresolved names, aliased mutation, arity or pattern
// mismatches, ...); recoverable conditions travel inside the program as
// Effect values and, if unhandled, come back as the program's result value.
func (in *Interp) Run(ctx context.Context, chunk *ast.Block) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(*FatalError)
			if !ok {
				panic(r)
			}
			v, err = nil, fe
		}
	}()

	in.ctx = ctx
	if len(in.Predeclared) > 0 {
		root := in.currentFnCtx()
		old := root.scope
		root.scope = NewScope(old)
		old.release()
		for name, val := range in.Predeclared {
			root.scope.bindings[name] = val
		}
	}

	in.pushStep(&wrapperFunc{body: chunk})

	// Three nested loops drive evaluation. Inner: step the current
	// sub-context's instructions until they run out, leaving exactly one
	// value. Middle: pop the sub-context; hand its value to the one below,
	// or break out of the function context when none remains. Outer: pop
	// the function context; hand its value to the caller, or finish.
	for {
		for {
			for len(in.currentSub().instr) > 0 {
				step := in.popStep()
				in.steps++
				if in.Trace != nil {
					fmt.Fprintf(in.Trace, "step %s\n", step.Name())
				}
				if in.MaxSteps > 0 && in.steps > in.MaxSteps {
					in.fatalf(token.Pos(0), "step budget exceeded (%d steps)", in.MaxSteps)
				}
				if in.steps&checkEvery == 0 {
					if err := in.ctx.Err(); err != nil {
						in.fatalf(token.Pos(0), "evaluation cancelled: %v", err)
					}
				}
				step.Step(in)
			}
			v = in.popValue()
			in.discardSubContext()
			if len(in.currentFnCtx().subs) == 0 {
				break
			}
			in.pushValue(v)
		}
		fc := in.popFnCtx()
		fc.release()
		if len(in.fnCtxs) == 0 {
			return v, nil
		}
		in.pushValue(v)
	}
}

// wrapperFunc runs the top-level chunk inside its own function context, so
// that a top-level `send` has a context to capture.
type wrapperFunc struct {
	body ast.Expr
}

func (w *wrapperFunc) Name() string { return "WrapperFunction" }

func (w *wrapperFunc) Step(in *Interp) {
	in.pushStep(stepFn{"WrapperFunctionInner", func(in *Interp) {
		in.pushValue(in.popValue())
	}})
	scope := NewScope(in.currentFnCtx().scope)
	in.pushFnCtx(newFunctionContext(scope))
	in.pushExpr(w.body)
}

// --- stack plumbing ---

func (in *Interp) currentFnCtx() *FunctionContext {
	if len(in.fnCtxs) == 0 {
		in.fatalf(token.Pos(0), "internal: no function contexts")
	}
	return in.fnCtxs[len(in.fnCtxs)-1]
}

func (in *Interp) pushFnCtx(fc *FunctionContext) {
	in.fnCtxs = append(in.fnCtxs, fc)
}

// popFnCtx pops the current function context without releasing it; the
// caller either releases it (normal return) or moves it into an Effect.
func (in *Interp) popFnCtx() *FunctionContext {
	fc := in.currentFnCtx()
	in.fnCtxs = in.fnCtxs[:len(in.fnCtxs)-1]
	return fc
}

func (in *Interp) currentSub() *subContext {
	fc := in.currentFnCtx()
	if len(fc.subs) == 0 {
		in.fatalf(token.Pos(0), "internal: no sub-contexts")
	}
	return fc.subs[len(fc.subs)-1]
}

func (in *Interp) pushSubContext(sub *subContext) {
	fc := in.currentFnCtx()
	fc.subs = append(fc.subs, sub)
}

// takeSubContext pops the current sub-context after closing the scopes it
// opened and releasing any values stranded on its stacks. The kind payload
// (handler, captured context, loop step) is left intact for the caller.
func (in *Interp) takeSubContext() *subContext {
	sub := in.currentSub()
	for sub.scopesOpened > 0 {
		in.popScope()
	}
	fc := in.currentFnCtx()
	fc.subs = fc.subs[:len(fc.subs)-1]
	for _, v := range sub.values {
		Release(v)
	}
	sub.values = nil
	sub.instr = nil
	return sub
}

// discardSubContext is takeSubContext for callers that also have no use for
// the kind payload, releasing a captured context if one is present.
func (in *Interp) discardSubContext() {
	sub := in.takeSubContext()
	if sub.captured != nil {
		sub.captured.release()
		sub.captured = nil
	}
}

func (in *Interp) pushStep(s Step) {
	sub := in.currentSub()
	sub.instr = append(sub.instr, s)
}

func (in *Interp) popStep() Step {
	sub := in.currentSub()
	s := sub.instr[len(sub.instr)-1]
	sub.instr = sub.instr[:len(sub.instr)-1]
	return s
}

func (in *Interp) pushValue(v Value) {
	sub := in.currentSub()
	sub.values = append(sub.values, v)
}

func (in *Interp) popValue() Value {
	sub := in.currentSub()
	if len(sub.values) == 0 {
		in.fatalf(token.Pos(0), "internal: value stack underflow")
	}
	v := sub.values[len(sub.values)-1]
	sub.values = sub.values[:len(sub.values)-1]
	return v
}

// --- scopes ---

func (in *Interp) pushScope() {
	fc := in.currentFnCtx()
	old := fc.scope
	fc.scope = NewScope(old)
	old.release()
	in.currentSub().scopesOpened++
}

func (in *Interp) popScope() {
	fc := in.currentFnCtx()
	old := fc.scope
	if old.parent == nil {
		in.fatalf(token.Pos(0), "internal: no more scopes to pop")
	}
	fc.scope = old.parent
	fc.scope.retain()
	old.release()
	in.currentSub().scopesOpened--
}

// branchScope replaces the current scope with a fresh child and returns a
// second fresh child for a closure to capture. The shared base frame now has
// two holders, so neither side can mutate it: the enclosing function keeps
// binding into its own sibling, and the capture stays stable.
func (in *Interp) branchScope() *Scope {
	fc := in.currentFnCtx()
	base := fc.scope
	s1 := NewScope(base)
	s2 := NewScope(base)
	fc.scope = s1
	base.release()
	return s2
}

// createBinding binds name in the current scope frame, taking ownership of
// v. Overwriting an existing binding in the same frame releases the old
// value.
func (in *Interp) createBinding(pos token.Pos, name string, v Value) {
	s := in.currentFnCtx().scope
	if !s.unique() {
		in.fatalf(pos, "cannot create binding %q: current scope is shared", name)
	}
	if old, ok := s.bindings[name]; ok {
		Release(old)
	}
	s.bindings[name] = v
}

// genSymbol mints a fresh symbol. The generator counts up from zero, far
// below the reserved error-code region at the top of the symbol space.
func (in *Interp) genSymbol() Symbol {
	s := Symbol(in.symGen)
	in.symGen++
	return s
}
