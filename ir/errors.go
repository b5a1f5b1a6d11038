package ir

import (
	"errors"
	"fmt"
)

// ParseError reports that input does not conform to the grammar: a
// mismatched literal, a missing required look-ahead, an unfulfilled
// &length, no matching switch case, insufficient input on a
// non-EOD-tolerant production, or an ambiguous look-ahead.
type ParseError struct {
	Reason string
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Reason)
}

// ComposeError reports that the composer could not serialize a value: a
// missing stored value, or an unimplemented production kind.
type ComposeError struct {
	Reason string
}

func (e *ComposeError) Error() string { return "compose error: " + e.Reason }

// errWouldBlock is the internal would-block signal: input is temporarily
// exhausted. The reference [Interp] never raises it: when an unpack finds
// too little input, [execState.yield] suspends the fiber directly.
var errWouldBlock = errors.New("ir: would block")

// ErrBacktrack is the internal signal that &try should restore the saved
// iterator silently. Caught by the nearest &try wrapper; see [Block.Mark]
// and [Block.Reset].
var ErrBacktrack = errors.New("ir: backtrack")

// UndefinedValueError reports a read of an unset parse-object slot without
// a &default.
type UndefinedValueError struct {
	Field string
}

func (e *UndefinedValueError) Error() string { return "undefined value: " + e.Field }

// InternalError indicates a code generator invariant was violated — it
// always indicates a bug in the core, never bad input.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string { return "internal error: " + e.Reason }
