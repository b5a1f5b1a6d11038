package ir

// Value is an opaque IR value handle. [Interp], the reference backend,
// stores the actual runtime data behind it; a machine-code backend would
// instead store an SSA register or stack slot — callers never look inside.
type Value struct {
	v any
}

// Nil is the zero Value, used where a production has no result (e.g. an
// Epsilon).
var Nil = Value{}

// IntValue wraps a signed integer result.
func IntValue(i int64) Value { return Value{v: i} }

// BoolValue wraps a boolean result.
func BoolValue(b bool) Value { return Value{v: b} }

// BytesValue wraps a byte-string result.
func BytesValue(b []byte) Value { return Value{v: append([]byte(nil), b...)} }

// ObjectValue wraps a parse (or compose) object.
func ObjectValue(o *Object) Value { return Value{v: o} }

// ListValue wraps a container result.
func ListValue(l []Value) Value { return Value{v: l} }

// Int returns the wrapped integer, or 0 if Value does not hold one.
func (v Value) Int() int64 { i, _ := v.v.(int64); return i }

// Bool returns the wrapped boolean.
func (v Value) Bool() bool { b, _ := v.v.(bool); return b }

// Bytes returns the wrapped byte string.
func (v Value) Bytes() []byte { b, _ := v.v.([]byte); return b }

// Object returns the wrapped parse object, or nil if Value does not hold
// one.
func (v Value) Object() *Object { o, _ := v.v.(*Object); return o }

// List returns the wrapped container elements.
func (v Value) List() []Value { l, _ := v.v.([]Value); return l }

// IsNil reports whether this is the zero Value.
func (v Value) IsNil() bool { return v.v == nil }

// Any returns the underlying dynamic value, for use by callers (tests,
// difftest comparisons) that need to inspect results generically.
func (v Value) Any() any { return v.v }
