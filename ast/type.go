// Package ast holds the data model the core consumes from the external
// front end: a resolved [Unit] tree with its computed [Grammar], plus the
// value [Type]s and [Expr]s that the front end has already resolved. Nothing
// in this package parses source text or resolves names — that's the job of
// the collaborator that builds these values in the first place.
package ast

// Type is a resolved source-language value type, already lowered to the
// shapes [TypeLayout] understands: scalars, byte strings, bitfields,
// tuples, unit references, sinks, and containers.
type Type interface {
	typeNode()
	String() string
}

// ScalarType is an integer, boolean, or floating-point scalar.
type ScalarType struct {
	Width   int // bits
	Signed  bool
	Float   bool
	Address bool // &ipv4/&ipv6 scalar
}

func (*ScalarType) typeNode() {}
func (t *ScalarType) String() string {
	switch {
	case t.Float:
		return "float"
	case t.Address:
		return "addr"
	case t.Signed:
		return "int"
	default:
		return "uint"
	}
}

// BytesType is an opaque byte string, possibly length-bounded by a field's
// &length attribute rather than by the type itself.
type BytesType struct{}

func (*BytesType) typeNode() {}
func (*BytesType) String() string { return "bytes" }

// BitRange names one extracted sub-field of a [BitfieldType], as the
// inclusive bit indices [Lo, Hi] within the underlying word.
type BitRange struct {
	Name   string
	Lo, Hi int
}

// BitfieldType is an integer type with named, possibly-overlapping bit
// ranges extracted per §4.4 "Bit fields".
type BitfieldType struct {
	Width  int
	Fields []BitRange
}

func (*BitfieldType) typeNode() {}
func (*BitfieldType) String() string { return "bitfield" }

// TupleType is a fixed-arity product of other types (the storage shape for
// a switch case with more than one item, per §3's parse-object rules).
type TupleType struct {
	Elems []Type
}

func (*TupleType) typeNode() {}
func (*TupleType) String() string { return "tuple" }

// UnitRefType is the type of a sub-unit field (a [ChildGrammar] target).
type UnitRefType struct {
	Unit *Unit
}

func (*UnitRefType) typeNode() {}
func (t *UnitRefType) String() string { return "unit<" + t.Unit.Name + ">" }

// SinkType is the type of a field bound only to a sink, never stored.
type SinkType struct{}

func (*SinkType) typeNode() {}
func (*SinkType) String() string { return "sink" }

// ContainerType is the type of a repeated field (produced by [Counter] or
// [Loop]).
type ContainerType struct {
	Elem Type
}

func (*ContainerType) typeNode() {}
func (*ContainerType) String() string { return "container" }
