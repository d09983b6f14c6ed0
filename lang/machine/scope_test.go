package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInterp() *Interp {
	in := New()
	// evaluation normally runs inside a wrapper function context; tests that
	// poke at scopes directly mimic that
	in.pushFnCtx(newFunctionContext(NewScope(in.currentFnCtx().scope)))
	return in
}

func TestScopeResolve(t *testing.T) {
	in := testInterp()
	in.createBinding(0, "x", Int(1))
	in.pushScope()
	in.createBinding(0, "y", Int(2))

	v, ok := in.currentFnCtx().scope.resolve("x")
	require.True(t, ok)
	assert.True(t, Equal(v, Int(1)))

	v, ok = in.currentFnCtx().scope.resolve("y")
	require.True(t, ok)
	assert.True(t, Equal(v, Int(2)))

	_, ok = in.currentFnCtx().scope.resolve("z")
	assert.False(t, ok)
}

func TestScopeShadowing(t *testing.T) {
	in := testInterp()
	in.createBinding(0, "x", Int(1))
	in.pushScope()
	in.createBinding(0, "x", Int(2))

	v, _ := in.currentFnCtx().scope.resolve("x")
	assert.True(t, Equal(v, Int(2)))

	in.popScope()
	v, _ = in.currentFnCtx().scope.resolve("x")
	assert.True(t, Equal(v, Int(1)))
}

// Pushing then popping a scope leaves the chain pointer-identical, with the
// original frame still uniquely held.
func TestScopePushPopIdentity(t *testing.T) {
	in := testInterp()
	before := in.currentFnCtx().scope
	require.True(t, before.unique())

	in.pushScope()
	in.popScope()

	after := in.currentFnCtx().scope
	assert.Same(t, before, after)
	assert.True(t, after.unique())
}

// Branching hands out a sibling frame and leaves the shared base immutable
// from both sides.
func TestBranchScope(t *testing.T) {
	in := testInterp()
	in.createBinding(0, "x", Int(1))
	base := in.currentFnCtx().scope

	captured := in.branchScope()
	cur := in.currentFnCtx().scope

	assert.NotSame(t, base, cur)
	assert.NotSame(t, base, captured)
	assert.Same(t, base, cur.parent)
	assert.Same(t, base, captured.parent)
	assert.False(t, base.unique(), "the branched base is shared by both children")

	// both sides still resolve through the base...
	v, ok := cur.resolve("x")
	require.True(t, ok)
	assert.True(t, Equal(v, Int(1)))
	v, ok = captured.resolve("x")
	require.True(t, ok)
	assert.True(t, Equal(v, Int(1)))

	// ...but neither can reach it mutably
	_, ok = cur.resolveMutFrame("x")
	assert.False(t, ok)

	// new bindings in the fresh sibling are invisible to the capture
	in.createBinding(0, "y", Int(2))
	_, ok = captured.resolve("y")
	assert.False(t, ok)
}

func TestResolveMutFrame(t *testing.T) {
	in := testInterp()
	in.createBinding(0, "x", Int(1))
	in.pushScope()

	frame, ok := in.currentFnCtx().scope.resolveMutFrame("x")
	require.True(t, ok)
	assert.True(t, Equal(frame.bindings["x"], Int(1)))

	_, ok = in.currentFnCtx().scope.resolveMutFrame("nope")
	assert.False(t, ok)
}
