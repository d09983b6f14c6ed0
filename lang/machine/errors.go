package machine

import (
	"fmt"
	"math"

	"github.com/maxeonyx/kal-go/lang/token"
)

// The reserved symbols live at the top of the uint64 symbol space so they
// can never collide with generated symbols. SymError tags error effects;
// the error codes sit in a region of their own below it.
const (
	SymError Symbol = math.MaxUint64

	symErrorCodeStart Symbol = math.MaxUint64 - 10000

	SymTypeErrorInt    = symErrorCodeStart - 1
	SymErrorLoop       = symErrorCodeStart - 2
	SymIntMinNegation  = symErrorCodeStart - 3
	SymTypeErrorObject = symErrorCodeStart - 4
)

// A FatalError aborts evaluation. Fatal conditions — unresolved names,
// mutation through a shared path, arity and pattern mismatches, malformed
// call targets — are not representable as effects and cannot be handled by
// the program.
type FatalError struct {
	Pos token.Pos
	Msg string
}

func (e *FatalError) Error() string {
	if e.Pos.Unknown() {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// fatalf aborts evaluation; Run recovers it into the returned error.
func (in *Interp) fatalf(pos token.Pos, format string, args ...any) {
	panic(&FatalError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// raiseStep synthesises a recoverable error: it sends an ERROR effect whose
// payload is an object {code: <error-code symbol>}. The program may handle
// it like any other effect; unhandled, it surfaces as the program's result.
type raiseStep struct {
	code Symbol
}

func (s *raiseStep) Name() string { return "RaiseError" }

func (s *raiseStep) Step(in *Interp) {
	payload := NewObject(1)
	payload.set(StrKey("code"), s.code)
	// sendInner pops the payload first, then the symbol
	in.pushValue(SymError)
	in.pushValue(payload)
	in.pushStep(sendInner{})
}

// checkIntStep pops a value and verifies it is an Int, pushing it back when
// it is. On a mismatch it re-installs itself and raises TYPE_ERROR_INT, so
// that a handler may `continue` with a replacement value, which is then
// re-checked. A second mismatch escalates to the terminal ERROR_LOOP.
type checkIntStep struct {
	retried bool
}

func (s *checkIntStep) Name() string { return "CheckTypeInt" }

func (s *checkIntStep) Step(in *Interp) {
	v := in.popValue()
	if _, ok := v.(Int); ok {
		in.pushValue(v)
		return
	}
	Release(v)
	if s.retried {
		in.pushStep(&raiseStep{code: SymErrorLoop})
		return
	}
	s.retried = true
	in.pushStep(s)
	in.pushStep(&raiseStep{code: SymTypeErrorInt})
}

// checkIntMinStep guards negation: negating the minimum signed value has no
// representable result, so it raises INT_MIN_NEGATION with the same
// retry-then-escalate shape as checkIntStep.
type checkIntMinStep struct {
	retried bool
}

func (s *checkIntMinStep) Name() string { return "CheckIntMinNegation" }

func (s *checkIntMinStep) Step(in *Interp) {
	v := in.popValue()
	if i, ok := v.(Int); ok && i != Int(math.MinInt64) {
		in.pushValue(v)
		return
	}
	Release(v)
	if s.retried {
		in.pushStep(&raiseStep{code: SymErrorLoop})
		return
	}
	s.retried = true
	in.pushStep(s)
	in.pushStep(&raiseStep{code: SymIntMinNegation})
}

// checkObjectStep guards object spreads the way checkIntStep guards
// arithmetic operands.
type checkObjectStep struct {
	retried bool
}

func (s *checkObjectStep) Name() string { return "CheckTypeObject" }

func (s *checkObjectStep) Step(in *Interp) {
	v := in.popValue()
	if _, ok := v.(*Object); ok {
		in.pushValue(v)
		return
	}
	Release(v)
	if s.retried {
		in.pushStep(&raiseStep{code: SymErrorLoop})
		return
	}
	s.retried = true
	in.pushStep(s)
	in.pushStep(&raiseStep{code: SymTypeErrorObject})
}
