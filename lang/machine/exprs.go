package machine

import (
	"math"

	"github.com/maxeonyx/kal-go/lang/ast"
	"github.com/maxeonyx/kal-go/lang/token"
)

// pushExpr schedules the evaluation of e on the current instruction stack.
func (in *Interp) pushExpr(e ast.Expr) {
	in.pushStep(stepFor(e))
}

// stepFor maps an AST node to its Step. The step types below are only the
// entry points; most of them schedule sub-expression steps followed by a
// dynamically created combiner that pops the produced values.
func stepFor(e ast.Expr) Step {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		return &literalStep{node: e}
	case *ast.SymbolExpr:
		return &symbolStep{node: e}
	case *ast.IdentExpr:
		return &identStep{node: e}
	case *ast.BinOpExpr:
		return &binOpStep{node: e}
	case *ast.UnaryOpExpr:
		return &unaryOpStep{node: e}
	case *ast.DotExpr:
		return &dotStep{node: e}
	case *ast.IndexExpr:
		return &indexStep{node: e}
	case *ast.ListExpr:
		return &listStep{node: e}
	case *ast.ObjectExpr:
		return &objectStep{node: e}
	case *ast.Block:
		return &blockStep{node: e}
	case *ast.LetExpr:
		return &letStep{node: e}
	case *ast.AssignExpr:
		return &assignStep{node: e}
	case *ast.IfExpr:
		return &ifStep{node: e}
	case *ast.LoopExpr:
		return &loopStep{node: e}
	case *ast.FuncExpr:
		return &funcStep{node: e}
	case *ast.CallExpr:
		return &callStep{node: e}
	case *ast.HandleExpr:
		return &handleStep{node: e}
	case *ast.SendExpr:
		return &sendStep{node: e}
	case *ast.ContinueExpr:
		return &continueStep{node: e}
	case *ast.BreakExpr:
		return &breakStep{node: e}
	default:
		panic(&FatalError{Msg: "internal: no evaluator for this expression"})
	}
}

// --- atoms ---

type literalStep struct {
	node *ast.LiteralExpr
}

func (s *literalStep) Name() string { return "Literal" }

func (s *literalStep) Step(in *Interp) {
	switch s.node.Kind {
	case token.NULL:
		in.pushValue(Null)
	case token.TRUE:
		in.pushValue(True)
	case token.FALSE:
		in.pushValue(False)
	default:
		in.pushValue(Int(s.node.IntVal))
	}
}

type symbolStep struct {
	node *ast.SymbolExpr
}

func (s *symbolStep) Name() string { return "Symbol" }

func (s *symbolStep) Step(in *Interp) {
	in.pushValue(in.genSymbol())
}

type identStep struct {
	node *ast.IdentExpr
}

func (s *identStep) Name() string { return "Ident" }

func (s *identStep) Step(in *Interp) {
	v, ok := in.currentFnCtx().scope.resolve(s.node.Name)
	if !ok {
		in.fatalf(s.node.Pos, "unresolved name %q", s.node.Name)
	}
	in.pushValue(Retain(v))
}

// --- operators ---

// binOpStep schedules a binary operator. Sub-expressions are pushed right
// then left, so that the LIFO instruction stack evaluates them in source
// order; the combiner then pops right first. Arithmetic operands pass
// through a recoverable Int check on their way to the combiner.
type binOpStep struct {
	node *ast.BinOpExpr
}

func (s *binOpStep) Name() string { return "BinOp" }

func (s *binOpStep) Step(in *Interp) {
	switch s.node.Op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH:
		in.pushStep(&arithInner{op: s.node.Op, pos: s.node.OpPos})
		in.pushStep(&checkIntStep{})
		in.pushExpr(s.node.Right)
		in.pushStep(&checkIntStep{})
		in.pushExpr(s.node.Left)
	case token.AND, token.OR, token.XOR:
		// no short-circuiting: both sides always evaluate
		in.pushStep(&boolInner{op: s.node.Op, pos: s.node.OpPos})
		in.pushExpr(s.node.Right)
		in.pushExpr(s.node.Left)
	default:
		in.pushStep(&cmpInner{op: s.node.Op, pos: s.node.OpPos})
		in.pushExpr(s.node.Right)
		in.pushExpr(s.node.Left)
	}
}

type arithInner struct {
	op  token.Token
	pos token.Pos
}

func (s *arithInner) Name() string { return "ArithInner" }

func (s *arithInner) Step(in *Interp) {
	right := in.mustInt(in.popValue())
	left := in.mustInt(in.popValue())
	var v Int
	switch s.op {
	case token.PLUS:
		v = left + right
	case token.MINUS:
		v = left - right
	case token.STAR:
		v = left * right
	default:
		if right == 0 {
			in.fatalf(s.pos, "division by zero")
		}
		v = left / right
	}
	in.pushValue(v)
}

// mustInt unwraps an Int that a check step already validated.
func (in *Interp) mustInt(v Value) Int {
	i, ok := v.(Int)
	if !ok {
		in.fatalf(token.Pos(0), "internal: expected int on value stack, got %s", v.Type())
	}
	return i
}

type cmpInner struct {
	op  token.Token
	pos token.Pos
}

func (s *cmpInner) Name() string { return "ComparisonInner" }

func (s *cmpInner) Step(in *Interp) {
	right := in.popValue()
	left := in.popValue()

	var v Bool
	switch s.op {
	case token.EQL:
		v = Bool(Equal(left, right))
	case token.NEQ:
		v = Bool(!Equal(left, right))
	default:
		// ordering is defined only for Int pairs
		li, lok := left.(Int)
		ri, rok := right.(Int)
		if !lok || !rok {
			in.fatalf(s.pos, "invalid comparison: cannot apply %s to %s and %s",
				s.op, left.Type(), right.Type())
		}
		switch s.op {
		case token.LT:
			v = Bool(li < ri)
		case token.LE:
			v = Bool(li <= ri)
		case token.GT:
			v = Bool(li > ri)
		default:
			v = Bool(li >= ri)
		}
	}
	Release(left)
	Release(right)
	in.pushValue(v)
}

type boolInner struct {
	op  token.Token
	pos token.Pos
}

func (s *boolInner) Name() string { return "BooleanInner" }

func (s *boolInner) Step(in *Interp) {
	right := in.mustBool(in.popValue(), s.pos)
	left := in.mustBool(in.popValue(), s.pos)
	var v Bool
	switch s.op {
	case token.AND:
		v = left && right
	case token.OR:
		v = left || right
	default:
		v = left != right
	}
	in.pushValue(v)
}

func (in *Interp) mustBool(v Value, pos token.Pos) Bool {
	b, ok := v.(Bool)
	if !ok {
		in.fatalf(pos, "expected a bool, got %s", v.Type())
	}
	return b
}

type unaryOpStep struct {
	node *ast.UnaryOpExpr
}

func (s *unaryOpStep) Name() string { return "UnaryOp" }

func (s *unaryOpStep) Step(in *Interp) {
	if s.node.Op == token.NOT {
		in.pushStep(&notInner{pos: s.node.OpPos})
		in.pushExpr(s.node.Right)
		return
	}
	in.pushStep(&negInner{pos: s.node.OpPos})
	in.pushStep(&checkIntMinStep{})
	in.pushStep(&checkIntStep{})
	in.pushExpr(s.node.Right)
}

type notInner struct {
	pos token.Pos
}

func (s *notInner) Name() string { return "NotInner" }

func (s *notInner) Step(in *Interp) {
	in.pushValue(!in.mustBool(in.popValue(), s.pos))
}

type negInner struct {
	pos token.Pos
}

func (s *negInner) Name() string { return "NegativeInner" }

func (s *negInner) Step(in *Interp) {
	v := in.mustInt(in.popValue())
	if v == Int(math.MinInt64) {
		in.fatalf(s.pos, "internal: min negation reached the combiner")
	}
	in.pushValue(-v)
}

// --- access ---

type dotStep struct {
	node *ast.DotExpr
}

func (s *dotStep) Name() string { return "Dot" }

func (s *dotStep) Step(in *Interp) {
	in.pushStep(&dotInner{name: s.node.Name, pos: s.node.Dot})
	in.pushExpr(s.node.Left)
}

type dotInner struct {
	name string
	pos  token.Pos
}

func (s *dotInner) Name() string { return "DotInner" }

func (s *dotInner) Step(in *Interp) {
	base := in.popValue()
	obj, ok := base.(*Object)
	if !ok {
		in.fatalf(s.pos, "can only use the . operator on an object, not %s", base.Type())
	}
	v, ok := obj.Get(StrKey(s.name))
	if !ok {
		in.fatalf(s.pos, "object has no key %q", s.name)
	}
	in.pushValue(Retain(v))
	Release(base)
}

type indexStep struct {
	node *ast.IndexExpr
}

func (s *indexStep) Name() string { return "Index" }

func (s *indexStep) Step(in *Interp) {
	in.pushStep(&indexInner{pos: s.node.Lbrack})
	in.pushExpr(s.node.Index)
	in.pushExpr(s.node.Left)
}

type indexInner struct {
	pos token.Pos
}

func (s *indexInner) Name() string { return "IndexInner" }

func (s *indexInner) Step(in *Interp) {
	idx := in.popValue()
	base := in.popValue()
	switch base := base.(type) {
	case *List:
		i, ok := idx.(Int)
		if !ok {
			in.fatalf(s.pos, "can only index a list with an int, not %s", idx.Type())
		}
		at, ok := wrapIndex(base.Len(), int64(i))
		if !ok {
			in.fatalf(s.pos, "index %d out of range for list of length %d", int64(i), base.Len())
		}
		in.pushValue(Retain(base.Index(at)))
		Release(base)
	case *Object:
		k, ok := KeyOf(idx)
		if !ok {
			in.fatalf(s.pos, "cannot index an object with %s", idx.Type())
		}
		v, ok := base.Get(k)
		if !ok {
			in.fatalf(s.pos, "object has no key %s", k)
		}
		in.pushValue(Retain(v))
		Release(base)
	default:
		in.fatalf(s.pos, "can only apply the [] operator to a list or object, not %s", base.Type())
	}
}

// --- literals with elements ---

type listStep struct {
	node *ast.ListExpr
}

func (s *listStep) Name() string { return "List" }

func (s *listStep) Step(in *Interp) {
	in.pushStep(&listInner{node: s.node})
	for i := len(s.node.Elems) - 1; i >= 0; i-- {
		in.pushExpr(s.node.Elems[i].Value)
	}
}

type listInner struct {
	node *ast.ListExpr
}

func (s *listInner) Name() string { return "ListInner" }

func (s *listInner) Step(in *Interp) {
	n := len(s.node.Elems)
	vals := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		vals[i] = in.popValue()
	}
	elems := make([]Value, 0, n)
	for i, el := range s.node.Elems {
		if !el.Spread {
			elems = append(elems, vals[i])
			continue
		}
		sl, ok := vals[i].(*List)
		if !ok {
			in.fatalf(el.SpreadAt, "can only spread a list into a list literal, not %s", vals[i].Type())
		}
		for j := 0; j < sl.Len(); j++ {
			elems = append(elems, Retain(sl.Index(j)))
		}
		Release(sl)
	}
	in.pushValue(NewList(elems))
}

type objectStep struct {
	node *ast.ObjectExpr
}

func (s *objectStep) Name() string { return "Object" }

func (s *objectStep) Step(in *Interp) {
	in.pushStep(&objectInner{node: s.node})
	for i := len(s.node.Fields) - 1; i >= 0; i-- {
		f := s.node.Fields[i]
		if f.Spread {
			in.pushStep(&checkObjectStep{})
		}
		in.pushExpr(f.Value)
	}
}

type objectInner struct {
	node *ast.ObjectExpr
}

func (s *objectInner) Name() string { return "ObjectInner" }

func (s *objectInner) Step(in *Interp) {
	n := len(s.node.Fields)
	vals := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		vals[i] = in.popValue()
	}
	obj := NewObject(n)
	for i, f := range s.node.Fields {
		if !f.Spread {
			obj.set(StrKey(f.Name), vals[i])
			continue
		}
		src, ok := vals[i].(*Object)
		if !ok {
			in.fatalf(f.SpreadAt, "internal: object spread value is %s", vals[i].Type())
		}
		src.m.Iter(func(k Key, v Value) bool {
			obj.set(k, Retain(v))
			return false
		})
		Release(src)
	}
	in.pushValue(obj)
}

// --- blocks and bindings ---

type blockStep struct {
	node *ast.Block
}

func (s *blockStep) Name() string { return "Block" }

func (s *blockStep) Step(in *Interp) {
	in.pushStep(popScopeStep)
	if s.node.Tail != nil {
		in.pushExpr(s.node.Tail)
	} else {
		in.pushValue(Null)
	}
	for i := len(s.node.Stmts) - 1; i >= 0; i-- {
		stmt := s.node.Stmts[i]
		switch stmt.(type) {
		case *ast.LetExpr, *ast.AssignExpr:
			// binding forms produce no value
			in.pushExpr(stmt)
		default:
			in.pushStep(ignoreValue)
			in.pushExpr(stmt)
		}
	}
	in.pushStep(pushScopeStep)
}

type letStep struct {
	node *ast.LetExpr
}

func (s *letStep) Name() string { return "Let" }

func (s *letStep) Step(in *Interp) {
	in.pushStep(&letInner{pat: s.node.Pat})
	in.pushExpr(s.node.Rhs)
}

type letInner struct {
	pat ast.Pattern
}

func (s *letInner) Name() string { return "LetInner" }

func (s *letInner) Step(in *Interp) {
	in.bindPattern(s.pat, in.popValue())
}

// --- functions and calls ---

type funcStep struct {
	node *ast.FuncExpr
}

func (s *funcStep) Name() string { return "Function" }

func (s *funcStep) Step(in *Interp) {
	scope := in.branchScope()
	in.pushValue(NewClosure(s.node, scope))
}

type callStep struct {
	node *ast.CallExpr
}

func (s *callStep) Name() string { return "Call" }

func (s *callStep) Step(in *Interp) {
	in.pushStep(&callInner{node: s.node})
	in.pushExpr(s.node.Fn)
	for i := len(s.node.Args) - 1; i >= 0; i-- {
		in.pushExpr(s.node.Args[i].Value)
	}
}

type callInner struct {
	node *ast.CallExpr
}

func (s *callInner) Name() string { return "CallInner" }

func (s *callInner) Step(in *Interp) {
	callee := in.popValue()

	n := len(s.node.Args)
	raw := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		raw[i] = in.popValue()
	}

	// flatten spread arguments into the final argument values
	var args []Value
	for i, a := range s.node.Args {
		if !a.Spread {
			args = append(args, raw[i])
			continue
		}
		sl, ok := raw[i].(*List)
		if !ok {
			in.fatalf(a.SpreadAt, "can only spread a list into a call, not %s", raw[i].Type())
		}
		if sl.unique() {
			args = append(args, sl.takeElems()...)
		} else {
			for j := 0; j < sl.Len(); j++ {
				args = append(args, Retain(sl.Index(j)))
			}
			Release(sl)
		}
	}

	switch callee := callee.(type) {
	case Intrinsic:
		def := callee.def()
		if len(args) != def.arity {
			in.fatalf(s.node.Lparen, "intrinsic %s takes %d arguments, got %d",
				def.name, def.arity, len(args))
		}
		for _, a := range args {
			in.pushValue(a)
		}
		in.pushStep(def.body)
	case *Closure:
		params := callee.code.Params
		if _, hasSpread := params.HasSpread(); hasSpread {
			if min := len(params.Elems) - 1; len(args) < min {
				in.fatalf(s.node.Lparen, "function takes at least %d arguments, got %d", min, len(args))
			}
		} else if len(args) != len(params.Elems) {
			in.fatalf(s.node.Lparen, "function takes %d arguments, got %d", len(params.Elems), len(args))
		}

		// the parameter scope extends the closure's captured scope
		body := callee.code.Body
		in.pushFnCtx(newFunctionContext(NewScope(callee.parent)))
		in.bindListValues(params, args)
		in.pushExpr(body)
		Release(callee)
	default:
		in.fatalf(s.node.Lparen, "cannot call a value of type %s", callee.Type())
	}
}

// --- assignment ---

// assignPart is one resolved accessor of a location chain: a field name or
// an index whose sub-expression value is popped during resolution.
type assignPart struct {
	dot   bool
	name  string
	index ast.Expr
	pos   token.Pos
}

// flattenTarget decomposes a validated assignment target into its base
// identifier and accessor parts, base first.
func flattenTarget(e ast.Expr) (*ast.IdentExpr, []assignPart) {
	switch e := e.(type) {
	case *ast.IdentExpr:
		return e, nil
	case *ast.DotExpr:
		base, parts := flattenTarget(e.Left)
		return base, append(parts, assignPart{dot: true, name: e.Name, pos: e.Dot})
	case *ast.IndexExpr:
		base, parts := flattenTarget(e.Left)
		return base, append(parts, assignPart{index: e.Index, pos: e.Lbrack})
	default:
		panic(&FatalError{Msg: "internal: invalid assignment target"})
	}
}

type assignStep struct {
	node *ast.AssignExpr
}

func (s *assignStep) Name() string { return "Assignment" }

// Step schedules the right-hand side first, then the index sub-expressions
// of the location chain, then the overwrite.
func (s *assignStep) Step(in *Interp) {
	base, parts := flattenTarget(s.node.Target)
	in.pushStep(&assignInner{base: base, parts: parts, pos: s.node.Eq})
	for _, p := range parts {
		if !p.dot {
			in.pushExpr(p.index)
		}
	}
	in.pushExpr(s.node.Rhs)
}

type assignInner struct {
	base  *ast.IdentExpr
	parts []assignPart
	pos   token.Pos
}

func (s *assignInner) Name() string { return "AssignmentInner" }

// Step resolves the location chain mutably and overwrites the target slot.
// Mutation requires unique ownership along the entire path, from the scope
// binding down to the slot; a shared link anywhere fails the assignment.
func (s *assignInner) Step(in *Interp) {
	scope := in.currentFnCtx().scope
	frame, ok := scope.resolveMutFrame(s.base.Name)
	if !ok {
		if _, found := scope.resolve(s.base.Name); !found {
			in.fatalf(s.base.Pos, "unresolved name %q", s.base.Name)
		}
		in.fatalf(s.base.Pos, "cannot assign to %q: its scope is captured by a closure", s.base.Name)
	}

	if len(s.parts) == 0 {
		rhs := in.popValue()
		Release(frame.bindings[s.base.Name])
		frame.bindings[s.base.Name] = rhs
		return
	}

	cur := frame.bindings[s.base.Name]
	for _, p := range s.parts[:len(s.parts)-1] {
		cur = in.descend(cur, p)
	}

	last := s.parts[len(s.parts)-1]
	switch cur := cur.(type) {
	case *Object:
		if !cur.unique() {
			in.fatalf(last.pos, "cannot mutate a shared object")
		}
		var k Key
		if last.dot {
			k = StrKey(last.name)
		} else {
			k = in.popIndexKey(last.pos)
		}
		if _, ok := cur.Get(k); !ok {
			in.fatalf(last.pos, "object has no key %s", k)
		}
		rhs := in.popValue()
		cur.set(k, rhs)
	case *List:
		if last.dot {
			in.fatalf(last.pos, "can only use the . operator on an object, not list")
		}
		if !cur.unique() {
			in.fatalf(last.pos, "cannot mutate a shared list")
		}
		at := in.popListIndex(cur, last.pos)
		rhs := in.popValue()
		Release(cur.elems[at])
		cur.elems[at] = rhs
	default:
		in.fatalf(last.pos, "cannot assign into a value of type %s", cur.Type())
	}
}

// descend follows one intermediate accessor of a location chain, requiring
// the aggregate it crosses to be unique. The returned value is borrowed from
// the containing aggregate.
func (in *Interp) descend(cur Value, p assignPart) Value {
	switch cur := cur.(type) {
	case *Object:
		if !cur.unique() {
			in.fatalf(p.pos, "cannot mutate through a shared object")
		}
		var k Key
		if p.dot {
			k = StrKey(p.name)
		} else {
			k = in.popIndexKey(p.pos)
		}
		v, ok := cur.Get(k)
		if !ok {
			in.fatalf(p.pos, "object has no key %s", k)
		}
		return v
	case *List:
		if p.dot {
			in.fatalf(p.pos, "can only use the . operator on an object, not list")
		}
		if !cur.unique() {
			in.fatalf(p.pos, "cannot mutate through a shared list")
		}
		return cur.Index(in.popListIndex(cur, p.pos))
	default:
		in.fatalf(p.pos, "cannot navigate into a value of type %s", cur.Type())
		return nil
	}
}

// popIndexKey pops an evaluated index value and converts it to an object
// key.
func (in *Interp) popIndexKey(pos token.Pos) Key {
	idx := in.popValue()
	k, ok := KeyOf(idx)
	if !ok {
		in.fatalf(pos, "cannot index an object with %s", idx.Type())
	}
	return k
}

// popListIndex pops an evaluated index value and wraps it onto the list.
func (in *Interp) popListIndex(l *List, pos token.Pos) int {
	idx := in.popValue()
	i, ok := idx.(Int)
	if !ok {
		in.fatalf(pos, "can only index a list with an int, not %s", idx.Type())
	}
	at, ok := wrapIndex(l.Len(), int64(i))
	if !ok {
		in.fatalf(pos, "index %d out of range for list of length %d", int64(i), l.Len())
	}
	return at
}

// --- if ---

type ifStep struct {
	node *ast.IfExpr
}

func (s *ifStep) Name() string { return "If" }

func (s *ifStep) Step(in *Interp) {
	in.pushStep(&ifInner{node: s.node})
	in.pushExpr(s.node.Parts[0].Cond)
}

// ifInner consumes one condition value at a time, scheduling the taken
// branch, the next condition, the else block, or Null.
type ifInner struct {
	node *ast.IfExpr
	idx  int
}

func (s *ifInner) Name() string { return "IfInner" }

func (s *ifInner) Step(in *Interp) {
	part := s.node.Parts[s.idx]
	start, _ := part.Cond.Span()
	cond := in.mustBool(in.popValue(), start)
	switch {
	case bool(cond):
		in.pushExpr(part.Body)
	case s.idx < len(s.node.Parts)-1:
		s.idx++
		in.pushStep(s)
		in.pushExpr(s.node.Parts[s.idx].Cond)
	case s.node.Else != nil:
		in.pushExpr(s.node.Else)
	default:
		in.pushValue(Null)
	}
}
