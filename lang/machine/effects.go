package machine

import (
	"github.com/maxeonyx/kal-go/lang/ast"
	"github.com/maxeonyx/kal-go/lang/token"
)

// sendInner pops the payload and the symbol, pops the current function
// context, and pushes the three wrapped up as an Effect onto the enclosing
// context. The enclosing context is, in a well-formed program, the one whose
// handler installed the operand (see handleOperand).
type sendInner struct{}

func (sendInner) Name() string { return "SendInner" }

func (sendInner) Step(in *Interp) {
	value := in.popValue()
	symv := in.popValue()
	sym, ok := symv.(Symbol)
	if !ok {
		in.fatalf(token.Pos(0), "effect type in send must be a symbol, not %s", symv.Type())
	}
	ctx := in.popFnCtx()
	in.pushValue(&Effect{refs: 1, Symbol: sym, Value: value, Ctx: ctx})
}

// sendStep schedules `send symbol, value`: symbol then payload in source
// order, then the capture.
type sendStep struct {
	node *ast.SendExpr
}

func (s *sendStep) Name() string { return "Send" }

func (s *sendStep) Step(in *Interp) {
	in.pushStep(sendInner{})
	in.pushExpr(s.node.Value)
	in.pushExpr(s.node.Symbol)
}

// handlerArm is one compiled `sym: name => block` arm, its symbol already
// evaluated.
type handlerArm struct {
	sym   Symbol
	param string
	body  *ast.Block
}

// handlerStep intercepts the value its operand produced. A normal value
// passes through untouched; an Effect opens a Handle sub-context and either
// dispatches to the matching arm or re-sends the effect above this handler.
// The step is stateless so `continue` can re-install the same instance for
// the next effect.
type handlerStep struct {
	arms []handlerArm
	pos  token.Pos
}

func (h *handlerStep) Name() string { return "Handler" }

func (h *handlerStep) Step(in *Interp) {
	v := in.popValue()
	eff, ok := v.(*Effect)
	if !ok {
		// normal return of the operand: the handler is the identity
		in.pushValue(v)
		return
	}
	if !eff.unique() {
		in.fatalf(h.pos, "cannot handle an effect that has been aliased")
	}
	sym, value, ctx := eff.Symbol, eff.Value, eff.Ctx
	eff.Value, eff.Ctx, eff.refs = nil, nil, 0

	sub := newSubContext(subHandle)
	sub.handler = h
	sub.captured = ctx
	in.pushSubContext(sub)

	for _, arm := range h.arms {
		if arm.sym == sym {
			in.pushStep(popScopeStep)
			in.pushExpr(arm.body)
			in.pushStep(&bindParamStep{name: arm.param})
			in.pushValue(value)
			in.pushStep(pushScopeStep)
			return
		}
	}

	// No arm matches: pass the effect through. Re-send the same symbol and
	// payload above this handler, and resume the captured context with
	// whatever the outer handler continues with.
	in.pushStep(continueInner{pos: h.pos})
	in.pushStep(sendInner{})
	in.pushValue(sym)
	in.pushValue(value)
}

// bindParamStep binds a handler arm's parameter to the effect payload in the
// arm's fresh scope.
type bindParamStep struct {
	name string
}

func (s *bindParamStep) Name() string { return "BindParam" }

func (s *bindParamStep) Step(in *Interp) {
	in.createBinding(token.Pos(0), s.name, in.popValue())
}

// createHandlerStep pops the eagerly evaluated arm symbols, builds the
// handler, and schedules the operand under it in a fresh function context.
type createHandlerStep struct {
	node *ast.HandleExpr
}

func (s *createHandlerStep) Name() string { return "CreateHandler" }

func (s *createHandlerStep) Step(in *Interp) {
	arms := make([]handlerArm, len(s.node.Arms))
	for i := len(arms) - 1; i >= 0; i-- {
		v := in.popValue()
		sym, ok := v.(Symbol)
		if !ok {
			start, _ := s.node.Arms[i].Symbol.Span()
			in.fatalf(start, "effect type in match arm must be a symbol, not %s", v.Type())
		}
		arms[i] = handlerArm{sym: sym, param: s.node.Arms[i].Param, body: s.node.Arms[i].Body}
	}
	in.pushStep(&handlerStep{arms: arms, pos: s.node.Handle})
	in.pushStep(&handleOperand{expr: s.node.Operand})
}

// handleOperand evaluates the handler's operand inside its own function
// context, so that a `send` reached from it captures exactly the operand's
// work and surfaces the Effect right under the waiting handler step.
type handleOperand struct {
	expr ast.Expr
}

func (s *handleOperand) Name() string { return "HandleOperand" }

func (s *handleOperand) Step(in *Interp) {
	scope := NewScope(in.currentFnCtx().scope)
	in.pushFnCtx(newFunctionContext(scope))
	in.pushExpr(s.expr)
}

// handleStep schedules a `handle` expression: the arm symbols evaluate
// eagerly, in source order, before the operand runs.
type handleStep struct {
	node *ast.HandleExpr
}

func (s *handleStep) Name() string { return "Handle" }

func (s *handleStep) Step(in *Interp) {
	in.pushStep(&createHandlerStep{node: s.node})
	for i := len(s.node.Arms) - 1; i >= 0; i-- {
		in.pushExpr(s.node.Arms[i].Symbol)
	}
}

// continueInner abandons the current sub-context and resumes what it stood
// for: a handler sub-context splices its captured function context back in
// with the continued value as the result of the original send; a loop
// sub-context re-opens the loop, discarding the value.
type continueInner struct {
	pos token.Pos
}

func (s continueInner) Name() string { return "ContinueInner" }

func (s continueInner) Step(in *Interp) {
	v := in.popValue()
	sub := in.takeSubContext()
	switch sub.kind {
	case subHandle:
		// re-install the (stateless) handler first, ready for the next effect
		in.pushStep(sub.handler)
		in.pushFnCtx(sub.captured)
		sub.captured = nil
		in.pushValue(v)
	case subLoop:
		in.pushStep(sub.loop)
		Release(v)
	default:
		in.fatalf(s.pos, `cannot use "continue" outside a loop or effect handler`)
	}
}

// breakInner abandons the current sub-context and yields the value to the
// sub-context below, without resuming anything: a captured continuation, if
// present, is dropped.
type breakInner struct {
	pos token.Pos
}

func (s breakInner) Name() string { return "BreakInner" }

func (s breakInner) Step(in *Interp) {
	v := in.popValue()
	sub := in.takeSubContext()
	switch sub.kind {
	case subHandle:
		sub.captured.release()
		sub.captured = nil
		in.pushValue(v)
	case subLoop:
		in.pushValue(v)
	default:
		in.fatalf(s.pos, `cannot use "break" outside a loop or effect handler`)
	}
}

// continueStep and breakStep evaluate the optional value (Null when absent)
// before their inner halves run.
type continueStep struct {
	node *ast.ContinueExpr
}

func (s *continueStep) Name() string { return "Continue" }

func (s *continueStep) Step(in *Interp) {
	in.pushStep(continueInner{pos: s.node.Pos})
	if s.node.Value != nil {
		in.pushExpr(s.node.Value)
	} else {
		in.pushValue(Null)
	}
}

type breakStep struct {
	node *ast.BreakExpr
}

func (s *breakStep) Name() string { return "Break" }

func (s *breakStep) Step(in *Interp) {
	in.pushStep(breakInner{pos: s.node.Pos})
	if s.node.Value != nil {
		in.pushExpr(s.node.Value)
	} else {
		in.pushValue(Null)
	}
}

// loopContextStep opens a Loop sub-context and starts the body. It runs once
// when the loop is entered and again after every `continue`.
type loopContextStep struct {
	body *ast.Block
}

func (s *loopContextStep) Name() string { return "LoopContext" }

func (s *loopContextStep) Step(in *Interp) {
	sub := newSubContext(subLoop)
	sub.loop = s
	in.pushSubContext(sub)
	in.pushStep(&loopBodyStep{body: s.body})
}

// loopBodyStep evaluates the body, discards its value, and re-schedules
// itself: an unbounded loop, terminated only by `break` or an unhandled
// effect.
type loopBodyStep struct {
	body *ast.Block
}

func (s *loopBodyStep) Name() string { return "LoopBody" }

func (s *loopBodyStep) Step(in *Interp) {
	in.pushStep(s)
	in.pushStep(ignoreValue)
	in.pushExpr(s.body)
}

type loopStep struct {
	node *ast.LoopExpr
}

func (s *loopStep) Name() string { return "Loop" }

func (s *loopStep) Step(in *Interp) {
	in.pushStep(&loopContextStep{body: s.node.Body})
}
