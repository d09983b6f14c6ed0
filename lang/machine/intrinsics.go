package machine

import "fmt"

// Intrinsic is a built-in callable, identified by its index into the
// intrinsic table. Each has a fixed arity and a fixed step body; the table
// is the place to add new built-ins.
type Intrinsic int8

// The built-in callables.
const (
	// IntrinsicSymbol mints a fresh symbol.
	IntrinsicSymbol Intrinsic = iota
)

type intrinsicDef struct {
	name  string
	arity int
	body  Step
}

var intrinsicTable = [...]intrinsicDef{
	IntrinsicSymbol: {
		name:  "symbol",
		arity: 0,
		body: stepFn{"IntrinsicSymbol", func(in *Interp) {
			in.pushValue(in.genSymbol())
		}},
	},
}

func (i Intrinsic) def() intrinsicDef { return intrinsicTable[i] }

func (i Intrinsic) String() string { return fmt.Sprintf("intrinsic(%s)", i.def().name) }
func (i Intrinsic) Type() string   { return "intrinsic" }

// IntrinsicScope returns a scope frame binding every intrinsic under its
// table name, extending parent.
func IntrinsicScope(parent *Scope) *Scope {
	bindings := make(map[string]Value, len(intrinsicTable))
	for i, def := range intrinsicTable {
		bindings[def.name] = Intrinsic(i)
	}
	return NewScopeWith(parent, bindings)
}
