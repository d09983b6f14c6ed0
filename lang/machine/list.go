package machine

import "strings"

// A List is a shared ordered sequence of values.
type List struct {
	refs  int32
	elems []Value
}

var (
	_ Value     = (*List)(nil)
	_ Indexable = (*List)(nil)
	_ shared    = (*List)(nil)
)

// NewList returns a list owning elems, with a single holder.
func NewList(elems []Value) *List {
	return &List{refs: 1, elems: elems}
}

func (l *List) String() string {
	parts := make([]string, len(l.elems))
	for i, e := range l.elems {
		parts[i] = e.String()
	}
	var b strings.Builder
	writeJoined(&b, "[", "]", parts)
	return b.String()
}

func (l *List) Type() string { return "list" }

// Len returns the number of elements.
func (l *List) Len() int { return len(l.elems) }

// Index returns the element at i, which must satisfy 0 <= i < Len(). The
// element is borrowed, not retained.
func (l *List) Index(i int) Value { return l.elems[i] }

func (l *List) retain()      { l.refs++ }
func (l *List) unique() bool { return l.refs == 1 }

func (l *List) release() {
	l.refs--
	if l.refs == 0 {
		for _, e := range l.elems {
			Release(e)
		}
		l.elems = nil
	}
}

// takeElems moves the elements out of l, which must be unique. The list
// wrapper is dead afterwards; the elements keep their own holds.
func (l *List) takeElems() []Value {
	elems := l.elems
	l.elems = nil
	l.refs = 0
	return elems
}

// wrapIndex maps a possibly negative index onto 0..len-1, with negative
// values counting from the end. ok is false when the result is out of range.
func wrapIndex(length int, i int64) (int, bool) {
	if i < 0 {
		i = int64(length) + i
	}
	if i < 0 || i >= int64(length) {
		return 0, false
	}
	return int(i), true
}
