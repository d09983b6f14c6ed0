package machine

// CoreScope returns a scope frame with the core bindings every program can
// rely on, extending parent: `error`, the symbol that tags error effects,
// and `errors`, an object mapping code names to the reserved error-code
// symbols. A program matches error effects with
//
//	handle expr { error: e => ... }
//
// and inspects e.code against the entries of `errors`.
func CoreScope(parent *Scope) *Scope {
	codes := NewObject(4)
	codes.set(StrKey("type_error_int"), SymTypeErrorInt)
	codes.set(StrKey("type_error_object"), SymTypeErrorObject)
	codes.set(StrKey("error_loop"), SymErrorLoop)
	codes.set(StrKey("int_min_negation"), SymIntMinNegation)

	return NewScopeWith(parent, map[string]Value{
		"error":  SymError,
		"errors": codes,
	})
}
