//go:build !debug

// Package tracelog includes debugging helpers for the code generator.
package tracelog

// Enabled is true if the generator is being built with the debug tag.
const Enabled = false

// Log is a no-op outside of debug builds.
func Log(context []any, operation string, format string, args ...any) {}

// Assert is a no-op outside of debug builds.
func Assert(cond bool, format string, args ...any) {}

// Value is a value of any type that only exists when the debug tag is
// enabled. Outside of debug builds it carries no storage.
type Value[T any] struct{}

// Get panics outside of debug builds; there is nothing to point to.
func (v *Value[T]) Get() *T { panic("tracelog: Value.Get() called outside of a debug build") }
