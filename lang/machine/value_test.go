package machine

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The interface header is the whole of a Value: two words on a 64-bit
// target. Aggregates live behind pointers, so passing values around never
// copies payloads.
func TestValueSize(t *testing.T) {
	var v Value
	require.LessOrEqual(t, unsafe.Sizeof(v), uintptr(16))
}

func TestEqualReflexive(t *testing.T) {
	vals := []Value{
		Null,
		True,
		False,
		Int(0),
		Int(-42),
		Symbol(7),
		IntrinsicSymbol,
		NewList([]Value{Int(1), Int(2)}),
		NewObject(0),
	}
	for _, v := range vals {
		assert.True(t, Equal(v, v), "%s should equal itself", v)
	}

	// closures and effects have identity but no observable equality
	cl := NewClosure(nil, NewScope(nil))
	assert.False(t, Equal(cl, cl))
	eff := &Effect{refs: 1, Symbol: Symbol(1), Value: Null}
	assert.False(t, Equal(eff, eff))
}

func TestEqualAcrossVariants(t *testing.T) {
	assert.False(t, Equal(Null, False))
	assert.False(t, Equal(Int(0), False))
	assert.False(t, Equal(Int(1), Symbol(1)))
	assert.False(t, Equal(NewList(nil), NewObject(0)))
}

func TestEqualStructural(t *testing.T) {
	a := NewList([]Value{Int(1), NewList([]Value{Int(2)})})
	b := NewList([]Value{Int(1), NewList([]Value{Int(2)})})
	c := NewList([]Value{Int(1), NewList([]Value{Int(3)})})
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a, NewList([]Value{Int(1)})))

	oa := NewObject(2)
	oa.set(StrKey("x"), Int(1))
	oa.set(IntKey(3), Null)
	ob := NewObject(2)
	ob.set(IntKey(3), Null)
	ob.set(StrKey("x"), Int(1))
	assert.True(t, Equal(oa, ob))

	ob.set(StrKey("x"), Int(2))
	assert.False(t, Equal(oa, ob))

	// empty aggregates equal fresh ones
	assert.True(t, Equal(NewList(nil), NewList([]Value{})))
	assert.True(t, Equal(NewObject(0), NewObject(4)))
}

func TestUniqueTracksHolders(t *testing.T) {
	l := NewList([]Value{Int(1)})
	require.True(t, Unique(l))

	Retain(l)
	require.False(t, Unique(l))

	Release(l)
	require.True(t, Unique(l))

	o := NewObject(0)
	require.True(t, Unique(o))
	Retain(o)
	require.False(t, Unique(o))
	Release(o)
	require.True(t, Unique(o))
}

func TestReleasePropagates(t *testing.T) {
	inner := NewList([]Value{Int(1)})
	Retain(inner) // one hold for us, one for the outer list
	outer := NewList([]Value{inner})

	Release(outer)
	assert.True(t, Unique(inner), "outer's hold on inner should be gone")
}

func TestKeys(t *testing.T) {
	cases := []struct {
		v Value
		k Key
	}{
		{Null, NullKey()},
		{True, BoolKey(true)},
		{Int(-3), IntKey(-3)},
		{Symbol(9), SymbolKey(Symbol(9))},
	}
	for _, c := range cases {
		k, ok := KeyOf(c.v)
		require.True(t, ok)
		assert.Equal(t, c.k, k)
		v, ok := k.Value()
		require.True(t, ok)
		assert.True(t, Equal(c.v, v))
	}

	_, ok := KeyOf(NewList(nil))
	assert.False(t, ok, "aggregates are not keyable")

	_, ok = StrKey("s").Value()
	assert.False(t, ok, "string keys have no value form")
}

func TestPrinting(t *testing.T) {
	assert.Equal(t, "null", Null.String())
	assert.Equal(t, "true", True.String())
	assert.Equal(t, "-7", Int(-7).String())
	assert.Equal(t, "symbol(3)", Symbol(3).String())
	assert.Equal(t, "[]", NewList(nil).String())
	assert.Equal(t, "[1, [2], null]",
		NewList([]Value{Int(1), NewList([]Value{Int(2)}), Null}).String())

	o := NewObject(2)
	o.set(StrKey("b"), Int(2))
	o.set(StrKey("a"), Int(1))
	assert.Equal(t, "{a: 1, b: 2}", o.String())

	eff := &Effect{refs: 1, Symbol: Symbol(5), Value: Int(1)}
	assert.Equal(t, "effect(symbol(5), 1)", eff.String())
}

func TestReservedSymbolRegion(t *testing.T) {
	// the reserved symbols sit at the very top of the symbol space, far
	// beyond anything the generator can mint
	for _, s := range []Symbol{SymError, SymTypeErrorInt, SymErrorLoop, SymIntMinNegation, SymTypeErrorObject} {
		assert.Greater(t, uint64(s), uint64(1)<<63)
	}
	assert.NotEqual(t, SymTypeErrorInt, SymErrorLoop)
	assert.NotEqual(t, SymErrorLoop, SymIntMinNegation)
}
