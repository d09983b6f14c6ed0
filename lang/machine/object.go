package machine

import (
	"strings"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"
)

// An Object is a shared mapping from Key to Value, backed by a swiss-table
// hash map.
type Object struct {
	refs int32
	m    *swiss.Map[Key, Value]
}

var (
	_ Value   = (*Object)(nil)
	_ Mapping = (*Object)(nil)
	_ shared  = (*Object)(nil)
)

// NewObject returns an empty object with capacity for at least size entries
// and a single holder.
func NewObject(size int) *Object {
	return &Object{refs: 1, m: swiss.NewMap[Key, Value](uint32(size))}
}

func (o *Object) String() string {
	type pair struct {
		k Key
		v Value
	}
	pairs := make([]pair, 0, o.m.Count())
	o.m.Iter(func(k Key, v Value) bool {
		pairs = append(pairs, pair{k, v})
		return false
	})
	// swiss iteration order is randomized, sort for deterministic printing
	slices.SortFunc(pairs, func(a, b pair) int {
		if keyLess(a.k, b.k) {
			return -1
		}
		if keyLess(b.k, a.k) {
			return 1
		}
		return 0
	})
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k.String() + ": " + p.v.String()
	}
	var b strings.Builder
	writeJoined(&b, "{", "}", parts)
	return b.String()
}

func (o *Object) Type() string { return "object" }

// Len returns the number of entries.
func (o *Object) Len() int { return o.m.Count() }

// Get returns the value for k. The value is borrowed, not retained.
func (o *Object) Get(k Key) (Value, bool) {
	return o.m.Get(k)
}

// set stores v under k, releasing any overwritten value. The object must be
// mutable (unique) when called from the evaluator; literal construction
// calls it on a fresh object.
func (o *Object) set(k Key, v Value) {
	if old, ok := o.m.Get(k); ok {
		Release(old)
	}
	o.m.Put(k, v)
}

// delete removes k, transferring ownership of the removed value to the
// caller.
func (o *Object) delete(k Key) (Value, bool) {
	v, ok := o.m.Get(k)
	if ok {
		o.m.Delete(k)
	}
	return v, ok
}

// pairs returns a snapshot of the entries, for iteration that mutates or for
// ordered processing. Values are borrowed.
func (o *Object) pairs() ([]Key, []Value) {
	keys := make([]Key, 0, o.m.Count())
	vals := make([]Value, 0, o.m.Count())
	o.m.Iter(func(k Key, v Value) bool {
		keys = append(keys, k)
		vals = append(vals, v)
		return false
	})
	return keys, vals
}

func (o *Object) retain()      { o.refs++ }
func (o *Object) unique() bool { return o.refs == 1 }

func (o *Object) release() {
	o.refs--
	if o.refs == 0 {
		o.m.Iter(func(k Key, v Value) bool {
			Release(v)
			return false
		})
		o.m = nil
	}
}

// disposeShallow drops a unique object wrapper whose contents have been
// moved out by the pattern binder. The remaining entries, if any, keep their
// holds and belong to whoever extracted them.
func (o *Object) disposeShallow() {
	o.refs = 0
	o.m = nil
}
