// Package machine implements the Kal evaluator: a stack-reified tree-walking
// interpreter in which native recursion is replaced by explicit instruction
// and value stacks, organised into sub-contexts and function contexts. That
// structure is what lets `send` capture the current function context as a
// first-class Effect value, and `continue`/`break` resume or abandon it.
package machine

import (
	"fmt"
	"strings"
)

// Value is the interface implemented by any value manipulated by the
// evaluator. The dynamic types behind it are exactly the Kal variants: Null,
// Bool, Int, Symbol, Intrinsic (by-value), *List, *Object, *Closure (shared,
// reference-counted) and *Effect (moves once, from producer to handler).
type Value interface {
	// String returns the printed representation of the value.
	String() string

	// Type returns a short string describing the value's type.
	Type() string
}

// An Indexable is a sequence of known length that supports efficient random
// access.
type Indexable interface {
	Value
	// Index returns the value at the specified index, which must satisfy 0 <= i
	// < Len(). The returned value is borrowed, not retained.
	Index(i int) Value
	// Len returns the number of elements in the sequence.
	Len() int
}

// A Mapping is a mapping from keys to values.
type Mapping interface {
	Value
	// Get returns the value corresponding to the specified key, or !found if
	// the mapping does not contain the key. The returned value is borrowed,
	// not retained.
	Get(k Key) (v Value, found bool)
}

// shared is implemented by the reference-counted variants. A shared value is
// mutable in place only while its reference count is 1; the evaluator never
// clones silently, it fails the mutation instead.
type shared interface {
	Value
	retain()
	release()
	unique() bool
}

// Retain records one more holder of v and returns it. It is a no-op for
// by-value variants.
func Retain(v Value) Value {
	if s, ok := v.(shared); ok {
		s.retain()
	}
	return v
}

// Release drops one holder of v. When the last holder of an aggregate is
// released, the holds it had on its own contents are released recursively.
func Release(v Value) {
	if s, ok := v.(shared); ok {
		s.release()
	}
}

// Unique reports whether v has exactly one holder, and therefore may be
// mutated in place. By-value variants are always unique.
func Unique(v Value) bool {
	if s, ok := v.(shared); ok {
		return s.unique()
	}
	return true
}

// NullType is the type of the Null value.
type NullType byte

// Null is the sole value of its type.
const Null NullType = 0

func (NullType) String() string { return "null" }
func (NullType) Type() string   { return "null" }

// Bool is a Kal boolean.
type Bool bool

// True and False are the two Bool values.
const (
	True  Bool = true
	False Bool = false
)

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Type() string { return "bool" }

// Int is a 64-bit signed Kal integer. Arithmetic wraps where the host integer
// wraps.
type Int int64

func (i Int) String() string { return fmt.Sprintf("%d", int64(i)) }
func (i Int) Type() string   { return "int" }

// Symbol is an opaque, unforgeable identity value: either freshly minted by
// the interpreter's generator, or drawn from the reserved error-code region
// at the top of the uint64 space (see errors.go).
type Symbol uint64

func (s Symbol) String() string { return fmt.Sprintf("symbol(%d)", uint64(s)) }
func (s Symbol) Type() string   { return "symbol" }

// Equal reports structural equality of two values. It is total across
// variants: values of different variants are unequal, lists and objects
// compare elementwise, and closures and effects are never equal to anything,
// themselves included.
func Equal(x, y Value) bool {
	switch x := x.(type) {
	case NullType:
		_, ok := y.(NullType)
		return ok
	case Bool:
		yb, ok := y.(Bool)
		return ok && x == yb
	case Int:
		yi, ok := y.(Int)
		return ok && x == yi
	case Symbol:
		ys, ok := y.(Symbol)
		return ok && x == ys
	case Intrinsic:
		yi, ok := y.(Intrinsic)
		return ok && x == yi
	case *List:
		yl, ok := y.(*List)
		if !ok || len(x.elems) != len(yl.elems) {
			return false
		}
		for i, e := range x.elems {
			if !Equal(e, yl.elems[i]) {
				return false
			}
		}
		return true
	case *Object:
		yo, ok := y.(*Object)
		if !ok || x.Len() != yo.Len() {
			return false
		}
		eq := true
		x.m.Iter(func(k Key, v Value) bool {
			yv, found := yo.Get(k)
			if !found || !Equal(v, yv) {
				eq = false
				return true
			}
			return false
		})
		return eq
	default:
		// closures and effects have identity but no observable equality
		return false
	}
}

// KeyKind discriminates the variants of Key.
type KeyKind int8

// The Key variants. Strings can only enter the key space through object
// literal field names and the core bindings; the other kinds exist so that
// object maps can carry the full by-value portion of the Value algebra.
const (
	KeyNull KeyKind = iota
	KeyBool
	KeyInt
	KeySymbol
	KeyStr
)

// Key is an object map key: Null, Bool, Int, Symbol or a string. Keys hash
// and compare structurally on their payload, which the comparable struct
// encoding gives for free.
type Key struct {
	Kind KeyKind
	Num  int64 // bool (0/1), int or symbol payload
	Str  string
}

// NullKey returns the Null key.
func NullKey() Key { return Key{Kind: KeyNull} }

// BoolKey returns the key for b.
func BoolKey(b bool) Key {
	var n int64
	if b {
		n = 1
	}
	return Key{Kind: KeyBool, Num: n}
}

// IntKey returns the key for i.
func IntKey(i int64) Key { return Key{Kind: KeyInt, Num: i} }

// SymbolKey returns the key for s.
func SymbolKey(s Symbol) Key { return Key{Kind: KeySymbol, Num: int64(s)} }

// StrKey returns the key for s.
func StrKey(s string) Key { return Key{Kind: KeyStr, Str: s} }

// KeyOf converts a by-value Value into a Key. Aggregates, closures and
// effects are not keyable.
func KeyOf(v Value) (Key, bool) {
	switch v := v.(type) {
	case NullType:
		return NullKey(), true
	case Bool:
		return BoolKey(bool(v)), true
	case Int:
		return IntKey(int64(v)), true
	case Symbol:
		return SymbolKey(v), true
	default:
		return Key{}, false
	}
}

// Value returns the Value form of k. String keys have no Value counterpart
// (Kal has no string values) and report !ok.
func (k Key) Value() (Value, bool) {
	switch k.Kind {
	case KeyNull:
		return Null, true
	case KeyBool:
		return Bool(k.Num != 0), true
	case KeyInt:
		return Int(k.Num), true
	case KeySymbol:
		return Symbol(uint64(k.Num)), true
	default:
		return nil, false
	}
}

func (k Key) String() string {
	switch k.Kind {
	case KeyNull:
		return "null"
	case KeyBool:
		return Bool(k.Num != 0).String()
	case KeyInt:
		return fmt.Sprintf("%d", k.Num)
	case KeySymbol:
		return Symbol(uint64(k.Num)).String()
	default:
		return k.Str
	}
}

// keyLess orders keys for deterministic object printing: by kind, then
// payload.
func keyLess(a, b Key) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Num != b.Num {
		return a.Num < b.Num
	}
	return a.Str < b.Str
}

// writeJoined renders a sequence of already-formatted parts as "[a, b, c]"
// or "{a, b, c}".
func writeJoined(b *strings.Builder, open, clos string, parts []string) {
	b.WriteString(open)
	for i, p := range parts {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p)
	}
	b.WriteString(clos)
}
