package binpac

import "github.com/binpac-dev/corepac/ir"

// The error taxonomy of §7, re-exported from [ir] so a caller never needs
// to import the IR package itself just to type-switch on a failed Compile
// or a failed generated parse.
//
// WouldBlock and Backtrack are deliberately not re-exported: §7 calls them
// internal signals, caught locally at the unpack site and the &try site
// respectively, and never visible to user code.
type (
	// ParseError reports that input did not conform to the grammar.
	ParseError = ir.ParseError

	// ComposeError reports that the composer could not serialize a value.
	ComposeError = ir.ComposeError

	// UndefinedValueError reports a read of an unset parse-object slot
	// with no &default.
	UndefinedValueError = ir.UndefinedValueError

	// InternalError reports a code generator invariant violation.
	InternalError = ir.InternalError
)

// ErrBacktrack is re-exported only for the benefit of a custom [ir.Builder]
// that needs to recognize it while implementing &try support; ordinary
// callers of [Compile] never see it escape a generated function.
var ErrBacktrack = ir.ErrBacktrack

// ParserDescriptor is the record registered with the runtime at module
// init (§6): one per exported unit, describing its name, documentation,
// transport hints, and which entry points were generated.
type ParserDescriptor = ir.ParserDescriptor
