package machine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxeonyx/kal-go/lang/parser"
	"github.com/maxeonyx/kal-go/lang/token"
)

// At program termination both the function-context stack and every
// sub-context stack are empty: everything pushed was matched by a pop, even
// across loops, handlers and resumed continuations.
func TestContextStacksBalanced(t *testing.T) {
	sources := []string{
		"null",
		"let x = 40 + 2; x",
		"let n = 0; let i = 0; loop { if i >= 5 { break n }; n = n + i; i = i + 1 }",
		`let S = symbol(); handle (send S, 10) { S: v => { continue v + 1 } }`,
		`let S = symbol(); handle (send S, 10) { S: v => { break v } }`,
		`let A = symbol(); let B = symbol();
		 handle (handle (send A, (send B, 7)) { B: v => { continue v + 1 } }) { A: v => { continue v } }`,
	}
	for _, src := range sources {
		block, err := parser.Parse(&token.File{Name: "test.kal"}, []byte(src))
		require.NoError(t, err)

		in := New()
		in.MaxSteps = 1 << 20
		_, err = in.Run(context.Background(), block)
		require.NoError(t, err, "source: %s", src)
		require.Empty(t, in.fnCtxs, "source: %s", src)
	}
}

// An abandoned effect (the handler breaks instead of resuming) releases the
// captured continuation and the scopes it held.
func TestAbandonedContinuationReleased(t *testing.T) {
	src := `
		let S = symbol();
		let xs = [1, 2];
		let r = handle (send S, xs) { S: v => { break v } };
		r[0]`
	block, err := parser.Parse(&token.File{Name: "test.kal"}, []byte(src))
	require.NoError(t, err)

	in := New()
	in.MaxSteps = 1 << 20
	v, err := in.Run(context.Background(), block)
	require.NoError(t, err)
	require.Equal(t, "1", v.String())
}
