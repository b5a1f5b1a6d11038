// Package ir is the abstract IR builder boundary the core emits through.
// Lowering the emitted IR to machine code, and the runtime it targets
// (fibers, reference-counted heap objects, bytes iterators, regex, sinks)
// are external collaborators per the core's scope; this package only
// defines the surface the core calls and ships one reference
// implementation, [Interp], that actually executes what's emitted so the
// rest of the module can be tested without a real backend attached.
package ir

// Field names one member of a [StructType] or one arm of a [UnionType].
type Field struct {
	Name string
	Type Type
}

// Type is an IR storage type: the shapes [TypeLayout] lowers source types
// to.
type Type interface {
	irType()
}

// ScalarType is an integer or boolean IR scalar of the given bit width.
type ScalarType struct {
	Bits   int
	Signed bool
}

func (ScalarType) irType() {}

// BytesType is an IR byte-string type.
type BytesType struct{}

func (BytesType) irType() {}

// StructType is a named product type — the parse-object layout for one
// unit, or the nested-struct storage for a multi-item switch case.
// StructType values are mutated in place by [Builder.DefineStruct] so that
// a forward declaration (see §9 "Cyclic grammars") and its later
// definition share identity.
type StructType struct {
	Name   string
	Fields []Field
}

func (*StructType) irType() {}

// UnionType is a named sum type — the anonymous union slot storage for a
// switch field, per §3.
type UnionType struct {
	Name  string
	Cases []Field
}

func (*UnionType) irType() {}

// ContainerType is the IR type of a repeated field.
type ContainerType struct {
	Elem Type
}

func (*ContainerType) irType() {}

// SinkType is the IR type of a sink-only field.
type SinkType struct{}

func (SinkType) irType() {}
