package machine

import (
	"github.com/maxeonyx/kal-go/lang/ast"
	"github.com/maxeonyx/kal-go/lang/token"
)

// bindPattern destructures v against pat, creating bindings in the current
// scope. It takes ownership of v. Structural mismatches — wrong aggregate
// kind, missing fields, wrong element counts, a shared aggregate where the
// pattern needs to take the contents apart — are fatal.
func (in *Interp) bindPattern(pat ast.Pattern, v Value) {
	switch pat := pat.(type) {
	case *ast.NamePattern:
		in.createBinding(pat.Pos, pat.Name, v)
	case *ast.WildcardPattern:
		Release(v)
	case *ast.ListPattern:
		in.bindListPattern(pat, v)
	case *ast.ObjectPattern:
		in.bindObjectPattern(pat, v)
	default:
		in.fatalf(token.Pos(0), "internal: unknown pattern kind")
	}
}

// bindListPattern de-shares a list value and binds its elements. The value
// must be a list with a single holder: the pattern moves elements out, which
// a second holder must not observe.
func (in *Interp) bindListPattern(pat *ast.ListPattern, v Value) {
	l, ok := v.(*List)
	if !ok {
		in.fatalf(pat.Lbrack, "cannot destructure %s with a list pattern", v.Type())
	}
	if !l.unique() {
		in.fatalf(pat.Lbrack, "cannot destructure a list that has another holder")
	}
	in.bindListValues(pat, l.takeElems())
}

// bindListValues binds a slice of owned values against a list pattern. It is
// shared by `let` destructuring and function parameter binding, which
// collects its argument values without an intervening list.
func (in *Interp) bindListValues(pat *ast.ListPattern, vals []Value) {
	spreadIdx, hasSpread := pat.HasSpread()

	if !hasSpread {
		if len(vals) != len(pat.Elems) {
			in.fatalf(pat.Lbrack, "list pattern expects exactly %d values, got %d",
				len(pat.Elems), len(vals))
		}
		for i, el := range pat.Elems {
			in.bindPattern(el.Sub, vals[i])
		}
		return
	}

	before := pat.Elems[:spreadIdx]
	after := pat.Elems[spreadIdx+1:]
	if len(vals) < len(before)+len(after) {
		in.fatalf(pat.Lbrack, "list pattern expects at least %d values, got %d",
			len(before)+len(after), len(vals))
	}

	for i, el := range before {
		in.bindPattern(el.Sub, vals[i])
	}

	middle := vals[len(before) : len(vals)-len(after)]
	switch sub := pat.Elems[spreadIdx].Sub.(type) {
	case *ast.NamePattern:
		bound := make([]Value, len(middle))
		copy(bound, middle)
		in.createBinding(sub.Pos, sub.Name, NewList(bound))
	default:
		// anonymous (or wildcard) spread discards the middle slice
		for _, v := range middle {
			Release(v)
		}
	}

	for i, el := range after {
		in.bindPattern(el.Sub, vals[len(vals)-len(after)+i])
	}
}

// bindObjectPattern de-shares an object value and binds its fields. Every
// named field must be present. The trailing spread decides the fate of the
// remaining entries: discarded, bound as an object, or — for the wildcard
// form — bound one by one under their own string keys, dropping entries
// whose key is not a string.
func (in *Interp) bindObjectPattern(pat *ast.ObjectPattern, v Value) {
	o, ok := v.(*Object)
	if !ok {
		in.fatalf(pat.Lbrace, "cannot destructure %s with an object pattern", v.Type())
	}
	if !o.unique() {
		in.fatalf(pat.Lbrace, "cannot destructure an object that has another holder")
	}

	var spread *ast.ObjectFieldPattern
	for i := range pat.Fields {
		f := &pat.Fields[i]
		if f.Spread {
			spread = f
			continue
		}
		val, ok := o.delete(StrKey(f.Name))
		if !ok {
			in.fatalf(f.NamePos, "object pattern field %q is not present in the value", f.Name)
		}
		if f.Sub == nil {
			in.createBinding(f.NamePos, f.Name, val)
		} else {
			in.bindPattern(f.Sub, val)
		}
	}

	if spread == nil {
		o.release()
		return
	}
	switch sub := spread.Sub.(type) {
	case *ast.NamePattern:
		// the remainder keeps living in the same (still unique) object
		in.createBinding(sub.Pos, sub.Name, o)
	case *ast.WildcardPattern:
		keys, vals := o.pairs()
		for i, k := range keys {
			if k.Kind == KeyStr {
				in.createBinding(sub.Pos, k.Str, vals[i])
			} else {
				Release(vals[i])
			}
		}
		o.disposeShallow()
	default:
		o.release()
	}
}
