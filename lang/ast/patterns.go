package ast

import "github.com/maxeonyx/kal-go/lang/token"

type (
	// NamePattern binds the matched value to a plain identifier, e.g. the `x`
	// in `let x = ...` or a simple function parameter.
	NamePattern struct {
		Pos  token.Pos
		Name string
	}

	// WildcardPattern discards the matched value, e.g. the `_` in
	// `let [a, _, b] = xs`.
	WildcardPattern struct {
		Pos token.Pos
	}

	// ListElemPattern is one element of a ListPattern: either a plain
	// sub-pattern, or the single `...rest` pattern collecting every element
	// not claimed by a sibling.
	ListElemPattern struct {
		Spread   bool
		SpreadAt token.Pos // valid only when Spread
		Sub      Pattern
	}

	// ListPattern destructures a List value positionally. At most one element
	// may be a spread; elements before it bind from the front, elements after
	// it bind from the back, and the spread itself binds the remaining
	// middle slice.
	ListPattern struct {
		Lbrack token.Pos
		Elems  []ListElemPattern
		Rbrack token.Pos
	}

	// ObjectFieldPattern is one field of an ObjectPattern: `name` (shorthand
	// for `name: name`), `name: sub`, or the single trailing spread
	// collecting every field not claimed by a sibling. For a spread field,
	// Sub is nil (`...`, remainder discarded), a NamePattern (`...rest`,
	// remainder bound as an object) or a WildcardPattern (`..._`, each
	// remaining string-keyed entry bound under its own name).
	ObjectFieldPattern struct {
		Spread   bool
		SpreadAt token.Pos // valid only when Spread
		Name     string    // valid only when !Spread
		NamePos  token.Pos // valid only when !Spread
		Sub      Pattern   // nested pattern, or spread binder (see above)
	}

	// ObjectPattern destructures an Object value by field name. At most one
	// field may be a spread.
	ObjectPattern struct {
		Lbrace token.Pos
		Fields []ObjectFieldPattern
		Rbrace token.Pos
	}
)

func (n *NamePattern) Span() (token.Pos, token.Pos)     { return n.Pos, n.Pos }
func (n *WildcardPattern) Span() (token.Pos, token.Pos) { return n.Pos, n.Pos }
func (n *ListPattern) Span() (token.Pos, token.Pos)     { return n.Lbrack, n.Rbrack }
func (n *ObjectPattern) Span() (token.Pos, token.Pos)   { return n.Lbrace, n.Rbrace }

func (*NamePattern) pattern()     {}
func (*WildcardPattern) pattern() {}
func (*ListPattern) pattern()     {}
func (*ObjectPattern) pattern()   {}

// HasSpread reports whether p contains a spread element, and its index.
func (p *ListPattern) HasSpread() (idx int, ok bool) {
	for i, e := range p.Elems {
		if e.Spread {
			return i, true
		}
	}
	return -1, false
}

// HasSpread reports whether p contains a spread field, and its index.
func (p *ObjectPattern) HasSpread() (idx int, ok bool) {
	for i, f := range p.Fields {
		if f.Spread {
			return i, true
		}
	}
	return -1, false
}
