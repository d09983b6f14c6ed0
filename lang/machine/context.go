package machine

// subContextKind discriminates what a sub-context was opened for, which is
// what `continue` and `break` dispatch on when they abandon one.
type subContextKind int8

const (
	subPlain subContextKind = iota
	subHandle
	subLoop
)

// A subContext is the unit of abandonable work inside a function context:
// one is opened per active loop or handler, each with its own instruction
// and value stacks. scopesOpened records how many scopes the sub-context
// pushed so they can be popped when it is abandoned.
type subContext struct {
	kind subContextKind

	// handler and captured are set for subHandle: the handler to re-install
	// and the function context to resume on `continue`.
	handler  *handlerStep
	captured *FunctionContext

	// loop is set for subLoop: the step that re-opens the loop on `continue`.
	loop *loopContextStep

	scopesOpened int
	instr        []Step
	values       []Value
}

func newSubContext(kind subContextKind) *subContext {
	return &subContext{kind: kind}
}

// A FunctionContext is the runtime frame of one in-flight function call: its
// scope chain position and a non-empty stack of sub-contexts. It is the unit
// of capture: `send` pops exactly one and wraps it into an Effect.
type FunctionContext struct {
	scope *Scope
	subs  []*subContext
}

// newFunctionContext returns a context at scope (taking ownership of the
// caller's hold on it) with a single plain sub-context.
func newFunctionContext(scope *Scope) *FunctionContext {
	return &FunctionContext{
		scope: scope,
		subs:  []*subContext{newSubContext(subPlain)},
	}
}

// release drops the context's holds: its scope chain, any values stranded on
// sub-context value stacks, and any captured contexts in handler
// sub-contexts. Called when a context is discarded rather than resumed.
func (fc *FunctionContext) release() {
	if fc.scope != nil {
		fc.scope.release()
		fc.scope = nil
	}
	for _, sub := range fc.subs {
		for _, v := range sub.values {
			Release(v)
		}
		sub.values = nil
		if sub.captured != nil {
			sub.captured.release()
			sub.captured = nil
		}
	}
	fc.subs = nil
}
