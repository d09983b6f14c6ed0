package machine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxeonyx/kal-go/lang/machine"
	"github.com/maxeonyx/kal-go/lang/parser"
	"github.com/maxeonyx/kal-go/lang/token"
)

func evalSource(t *testing.T, src string) (machine.Value, error) {
	t.Helper()
	block, err := parser.Parse(&token.File{Name: "test.kal"}, []byte(src))
	require.NoError(t, err, "parse error in test source")
	in := machine.New()
	in.MaxSteps = 1 << 20 // safety net for broken loops
	return in.Run(context.Background(), block)
}

func TestEval(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		want    string // expected printed value
		wantErr string // expected fatal error substring
	}{
		{name: "empty program", src: "", want: "null"},
		{name: "int literal", src: "5", want: "5"},
		{name: "negative literal", src: "-5", want: "-5"},
		{name: "null literal", src: "null", want: "null"},
		{name: "let basic", src: "let x = 40 + 2; x", want: "42"},
		{name: "arithmetic", src: "2 + 3 * 4 - 10 / 2", want: "9"},
		{name: "division truncates", src: "7 / 2", want: "3"},
		{name: "division by zero", src: "1 / 0", wantErr: "division by zero"},
		{name: "comparison true", src: "1 < 2", want: "true"},
		{name: "comparison greater or equal", src: "2 >= 2", want: "true"},
		{name: "equality across variants", src: "1 == true", want: "false"},
		{name: "inequality across variants", src: "1 != null", want: "true"},
		{name: "list equality", src: "[1, [2]] == [1, [2]]", want: "true"},
		{name: "object equality", src: "{a: 1} == {a: 1}", want: "true"},
		{name: "closure never equal", src: "let f = fn() { 1 }; f == f", want: "false"},
		{name: "ordering on bools is fatal", src: "true < false", wantErr: "invalid comparison"},
		{name: "ordering across variants is fatal", src: "1 < true", wantErr: "invalid comparison"},
		{name: "boolean and", src: "true and false", want: "false"},
		{name: "boolean or", src: "false or true", want: "true"},
		{name: "boolean xor", src: "true xor true", want: "false"},
		{name: "no short circuit result", src: "false and (1 == 1)", want: "false"},
		{name: "not", src: "not true", want: "false"},
		{name: "not non-bool is fatal", src: "not 1", wantErr: "expected a bool"},
		{name: "unresolved name", src: "nope", wantErr: `unresolved name "nope"`},

		{name: "function call", src: "let f = fn(a, b) { a * b }; f(3, 5)", want: "15"},
		{name: "function null body", src: "let f = fn() { }; f()", want: "null"},
		{name: "nested closures", src: `
			let add = fn(a) { fn(b) { a + b } };
			add(2)(3)`, want: "5"},
		{name: "recursion", src: `
			let fact = fn(rec, n) { if n <= 1 { 1 } else { n * rec(rec, n - 1) } };
			fact(fact, 5)`, want: "120"},
		{name: "arity mismatch", src: "let f = fn(a) { a }; f(1, 2)", wantErr: "1 argument"},
		{name: "call non-callable", src: "1(2)", wantErr: "cannot call"},
		{name: "spread params", src: "let f = fn(a, ...rest) { rest }; f(1, 2, 3)", want: "[2, 3]"},
		{name: "spread call args", src: "let f = fn(a, b, c) { a + b + c }; f(...[1, 2, 3])", want: "6"},
		{name: "spread params minimum", src: "let f = fn(a, ...rest) { rest }; f()", wantErr: "at least 1"},

		{name: "symbol same binding", src: "let s = symbol(); s == s", want: "true"},
		{name: "fresh symbols unequal", src: "symbol() == symbol()", want: "false"},
		{name: "symbol literal spelling", src: "let s = symbol; s == symbol", want: "false"},

		{name: "list literal and spread", src: "let xs = [1, 2, 3, ...[4, 5]]; xs", want: "[1, 2, 3, 4, 5]"},
		{name: "negative index wraps", src: "let xs = [1, 2, 3, ...[4, 5]]; xs[-1]", want: "5"},
		{name: "index out of range", src: "[1][3]", wantErr: "out of range"},
		{name: "index with non-int", src: "[1][true]", wantErr: "index a list with an int"},
		{name: "spread non-list in literal", src: "[...1]", wantErr: "spread a list"},
		{name: "empty list", src: "[] == []", want: "true"},

		{name: "object literal", src: "{b: 2, a: 1}", want: "{a: 1, b: 2}"},
		{name: "object shorthand field", src: "let a = 1; {a}", want: "{a: 1}"},
		{name: "dot access", src: "let o = {a: 1, b: 2}; o.a + o.b", want: "3"},
		{name: "dot missing key", src: "let o = {a: 1}; o.b", wantErr: `no key "b"`},
		{name: "dot on non-object", src: "let x = 1; x.a", wantErr: "on an object"},
		{name: "object spread overwrites", src: "let o = {a: 1}; {...o, a: 2}.a", want: "2"},
		{name: "index object by symbol", src: "let o = {a: 5}; let k = symbol(); o[k]", wantErr: "no key"},
		{name: "empty object literal", src: "{}", want: "{}"},
		{name: "empty object equality", src: "{} == {}", want: "true"},

		{name: "block scoping", src: "let x = 1; { let x = 2; x }", want: "2"},
		{name: "block trailing value", src: "{ 1; 2 }", want: "2"},
		{name: "if true branch", src: "if 1 < 2 { 71 } else { 72 }", want: "71"},
		{name: "if false branch", src: "if 1 > 2 { 71 } else { 72 }", want: "72"},
		{name: "else if", src: "if false { 1 } else if true { 77 } else { 3 }", want: "77"},
		{name: "if without else", src: "if false { 1 }", want: "null"},
		{name: "if non-bool cond", src: "if 1 { 2 }", wantErr: "expected a bool"},

		{name: "assignment", src: "let x = 1; x = x + 1; x", want: "2"},
		{name: "list element assignment", src: "let xs = [1, 2]; xs[0] = 5; xs[0]", want: "5"},
		{name: "object field assignment", src: "let o = {a: 1}; o.a = 2; o.a", want: "2"},
		{name: "nested location chain", src: "let o = {a: [1, 2]}; o.a[1] = 5; o.a[1]", want: "5"},
		{name: "assign to missing key", src: "let o = {a: 1}; o.b = 2", wantErr: "no key b"},
		{name: "assign unresolved", src: "x = 1", wantErr: "unresolved"},
		{name: "mutate shared list", src: "let xs = [1, 2]; let ys = xs; xs[0] = 5", wantErr: "shared list"},
		{name: "mutate shared object", src: "let o = {a: 1}; let p = o; o.a = 2", wantErr: "shared object"},
		{name: "mutate after alias dropped", src: `
			let xs = [1, 2];
			{ let ys = xs; null };
			xs[0] = 5;
			xs[0]`, want: "5"},
		{name: "assign past closure capture", src: "let x = 1; let f = fn() { x }; x = 2",
			wantErr: "captured by a closure"},
		{name: "let after closure capture", src: "let x = 1; let f = fn() { x }; let y = 2; y", want: "2"},

		{name: "loop with break", src: `
			let n = 0;
			let i = 0;
			loop { if i >= 5 { break n }; n = n + i; i = i + 1 }`, want: "10"},
		{name: "continue in loop ignores value", src: `
			let i = 0;
			loop { if i > 2 { break i }; i = i + 1; continue 99 }`, want: "3"},
		{name: "break outside loop", src: "break 1", wantErr: `"break" outside`},
		{name: "continue outside loop", src: "continue 1", wantErr: `"continue" outside`},
		{name: "step budget stops infinite loop", src: "loop { 1 }", wantErr: "step budget"},

		{name: "destructure list", src: "let [a, b] = [1, 2]; a + b", want: "3"},
		{name: "destructure spread middle", src: "let [a, ...rest, b] = [1, 2, 3, 4]; rest", want: "[2, 3]"},
		{name: "destructure spread after", src: "let [a, ...rest, b] = [1, 2, 3, 4]; b", want: "4"},
		{name: "destructure anonymous spread", src: "let [a, ..., b] = [1, 2, 3, 4]; a + b", want: "5"},
		{name: "destructure wildcard", src: "let [_, b] = [1, 2]; b", want: "2"},
		{name: "destructure nested", src: "let [a, [b, c]] = [1, [2, 3]]; b + c", want: "5"},
		{name: "destructure exact count", src: "let [a] = [1, 2]", wantErr: "exactly 1"},
		{name: "destructure minimum count", src: "let [a, ...rest, b] = [1]", wantErr: "at least 2"},
		{name: "destructure wrong kind", src: "let [a] = {a: 1}", wantErr: "list pattern"},
		{name: "destructure shared list", src: "let xs = [1]; let ys = xs; let [a] = xs",
			wantErr: "another holder"},
		{name: "destructure object", src: "let {a, b} = {a: 1, b: 2}; a + b", want: "3"},
		{name: "destructure object nested", src: "let {a: [x, y]} = {a: [1, 2]}; x + y", want: "3"},
		{name: "destructure object rest", src: "let {a, ...rest} = {a: 1, b: 2}; rest", want: "{b: 2}"},
		{name: "destructure object wildcard rest", src: "let {..._} = {a: 1, b: 2}; a + b", want: "3"},
		{name: "destructure object missing field", src: "let {a} = {b: 1}", wantErr: "not present"},

		{name: "handler resumes send", src: `
			let yield = symbol();
			handle (send yield, 10) { yield: v => { continue v + 1 } }`, want: "11"},
		{name: "identity handler", src: `
			let S = symbol();
			handle (send S, 5) { S: x => { continue x } }`, want: "5"},
		{name: "identity handler on pure operand", src: `
			let S = symbol();
			handle (40 + 2) { S: x => { continue x } }`, want: "42"},
		{name: "handler break does not resume", src: `
			let S = symbol();
			handle (send S, 5) { S: x => { break x * 2 } }`, want: "10"},
		{name: "handler arm value without resume", src: `
			let S = symbol();
			handle (send S, 5) { S: x => { x + 1 } }`, want: "6"},
		{name: "pass-through", src: `
			let A = symbol();
			let B = symbol();
			handle (handle (send A, (send B, 7)) { B: v => { continue v + 1 } }) { A: v => { continue v } }`,
			want: "8"},
		{name: "repeated sends through one handler", src: `
			let S = symbol();
			handle ((send S, 1) + (send S, 10)) { S: v => { continue v * 2 } }`, want: "22"},
		{name: "send from called function", src: `
			let S = symbol();
			let f = fn(x) { send S, x };
			handle (f(20)) { S: v => { continue v + 1 } }`, want: "21"},
		{name: "send non-symbol", src: "send 1, 2", wantErr: "must be a symbol"},
		{name: "handler arm symbol non-symbol", src: "handle (1) { 2: v => { v } }", wantErr: "must be a symbol"},

		{name: "type error int recoverable", src: `
			handle (1 + true) { error: e => { e.code == errors.type_error_int } }`, want: "true"},
		{name: "type error continue replacement", src: `
			handle (1 + true) { error: e => { continue 41 } }`, want: "42"},
		{name: "error loop escalation", src: `
			handle (1 + true) {
				error: e => {
					if e.code == errors.error_loop { break 99 } else { continue false }
				}
			}`, want: "99"},
		{name: "object spread type error recoverable", src: `
			handle ({...1}) { error: e => { e.code == errors.type_error_object } }`, want: "true"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := evalSource(t, c.src)
			if c.wantErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, c.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, v.String())
		})
	}
}

// An unhandled error effect surfaces as the program's result: an Effect
// tagged with the error symbol, whose payload carries the error code.
func TestUnhandledErrorEffect(t *testing.T) {
	v, err := evalSource(t, "-(9223372036854775808)")
	require.NoError(t, err)

	eff, ok := v.(*machine.Effect)
	require.True(t, ok, "want an effect, got %s", v.Type())
	assert.Equal(t, machine.SymError, eff.Symbol)

	payload, ok := eff.Value.(*machine.Object)
	require.True(t, ok)
	code, ok := payload.Get(machine.StrKey("code"))
	require.True(t, ok)
	assert.True(t, machine.Equal(code, machine.SymIntMinNegation))
}

// Handling the minimum-negation error and continuing with a replacement
// resumes the negation with the new operand.
func TestIntMinNegationHandled(t *testing.T) {
	v, err := evalSource(t, `
		handle (-(9223372036854775808)) {
			error: e => {
				if e.code == errors.int_min_negation { continue 5 } else { break null }
			}
		}`)
	require.NoError(t, err)
	assert.Equal(t, "-5", v.String())
}

// Determinism: repeated runs of the same source yield the same value.
func TestDeterministic(t *testing.T) {
	const src = `
		let S = symbol();
		let f = fn(a, ...rest) { [a, rest] };
		handle (send S, f(1, 2, 3)) { S: v => { continue v } }`
	a, err := evalSource(t, src)
	require.NoError(t, err)
	b, err := evalSource(t, src)
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
	assert.True(t, machine.Equal(a, b))
}

// Predeclared bindings layer over the core scope; binding an intrinsic under
// another name exercises the intrinsic call path.
func TestPredeclaredIntrinsic(t *testing.T) {
	block, err := parser.Parse(&token.File{Name: "test.kal"}, []byte("mksym() == mksym()"))
	require.NoError(t, err)
	in := machine.New()
	in.Predeclared = map[string]machine.Value{"mksym": machine.IntrinsicSymbol}
	v, err := in.Run(context.Background(), block)
	require.NoError(t, err)
	assert.Equal(t, "false", v.String())
}

func TestIntrinsicArity(t *testing.T) {
	block, err := parser.Parse(&token.File{Name: "test.kal"}, []byte("mksym(1)"))
	require.NoError(t, err)
	in := machine.New()
	in.Predeclared = map[string]machine.Value{"mksym": machine.IntrinsicSymbol}
	_, err = in.Run(context.Background(), block)
	assert.ErrorContains(t, err, "0 arguments")
}

func TestMaxSteps(t *testing.T) {
	block, err := parser.Parse(&token.File{Name: "test.kal"}, []byte("1 + 2"))
	require.NoError(t, err)
	in := machine.New()
	in.MaxSteps = 2
	_, err = in.Run(context.Background(), block)
	assert.ErrorContains(t, err, "step budget")
}

func TestCancellation(t *testing.T) {
	block, err := parser.Parse(&token.File{Name: "test.kal"}, []byte("loop { 1 }"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := machine.New()
	_, err = in.Run(ctx, block)
	assert.ErrorContains(t, err, "cancelled")
}
