package machine

// A Step is one instruction on a sub-context's instruction stack. Stepping
// may push further steps (popped LIFO, so the last push runs first), push or
// pop values, open or close scopes, and push or pop sub-contexts or function
// contexts.
//
// The instruction stream mixes steps made from AST nodes with dynamically
// created combiner steps (the "inner" halves that pop the values their
// sub-expressions produced), scope markers, and type checks; the interface
// is what lets them coexist on one stack.
type Step interface {
	Step(in *Interp)

	// Name identifies the step in traces.
	Name() string
}

// stepFn adapts a bare function into a Step, for the small one-off steps
// that carry no state of their own.
type stepFn struct {
	name string
	fn   func(in *Interp)
}

func (s stepFn) Step(in *Interp) { s.fn(in) }
func (s stepFn) Name() string    { return s.name }

// ignoreValue discards the value produced by an expression statement.
var ignoreValue = stepFn{"IgnoreValue", func(in *Interp) {
	Release(in.popValue())
}}

// pushScopeStep and popScopeStep bracket a block's statements.
var (
	pushScopeStep = stepFn{"PushScope", func(in *Interp) { in.pushScope() }}
	popScopeStep  = stepFn{"PopScope", func(in *Interp) { in.popScope() }}
)
