package ir

// ParserDescriptor is the record registered with the runtime at module
// init, per §6.
type ParserDescriptor struct {
	Name            string
	Description     string
	Ports           []int
	MIMETypes       []string
	Params          int
	HasParseFunc    bool
	HasComposeFunc  bool
	GenerateParsers bool
}

// FuncBody is the body of an emitted IR function: given a block to emit
// into (for [Interp], to execute against) and the call arguments, it
// produces a result or an error.
type FuncBody func(blk Block, args []Value) ([]Value, error)

// Func is a declared IR function. It is returned by
// [Builder.DeclareFunc] before its body is known, so that recursive
// emission (§9 "Cyclic grammars") can close over the Func value before
// [Builder.DefineFunc] supplies the body.
type Func struct {
	Name string
	body FuncBody
}

// Call invokes the function's body. Defining a Func with no body first is
// a caller bug; Call reports it as an [InternalError] rather than a nil
// dereference, since it usually indicates a cycle that was never closed.
func (f *Func) Call(blk Block, args ...Value) ([]Value, error) {
	if f.body == nil {
		return nil, &InternalError{Reason: "ir: call to undefined function " + f.Name}
	}
	return f.body(blk, args)
}

// Builder is the abstract IR builder the core emits module-level
// declarations through: struct/union/function declarations, and the
// parser-descriptor registration call. Function *bodies* are built per-call
// through a [Block] supplied to the [FuncBody].
type Builder interface {
	// DeclareStruct registers a named struct type before its fields are
	// known, returning a handle later completed by DefineStruct.
	DeclareStruct(name string) *StructType
	DefineStruct(t *StructType, fields []Field)

	DeclareUnion(name string) *UnionType
	DefineUnion(t *UnionType, cases []Field)

	// DeclareFunc registers a named function before its body is known.
	DeclareFunc(name string) *Func
	DefineFunc(f *Func, body FuncBody)

	// Func looks up an already-declared function by name, or nil.
	Func(name string) *Func

	RegisterParser(desc ParserDescriptor)
}
