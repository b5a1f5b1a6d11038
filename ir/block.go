package ir

import "github.com/binpac-dev/corepac/ast"

// Terminal mirrors [ast.Terminal] at the IR boundary, so packages below
// ast (none currently import it directly for this) don't have to; kept as
// a type alias rather than a duplicate definition.
type Terminal = ast.Terminal

// Block is the per-call emission/execution surface a [FuncBody] is handed.
// Every method corresponds to one of the primitive operations §4 describes
// the core as emitting: type-directed unpack/pack, struct/union
// get/set, look-ahead matching, bitfield extraction, hook dispatch, sink
// writes, child-unit invocation, and the yield/raise control signals.
//
// [Interp] executes these immediately against real bytes and a real
// [Object]; a machine-code backend would instead emit instructions for
// later lowering. Either way, callers (TypeLayout, LiteralMatcher,
// Synchronizer, ParserBuilder, Composer) only ever see this interface.
type Block interface {
	// UnpackInt consumes bits/8 bytes at the current position and decodes
	// them as an integer in the given order. Blocks (see [Block.Yield])
	// internally if input is temporarily short.
	UnpackInt(bits int, signed bool, order ast.ByteOrder) (Value, error)
	// UnpackBytes consumes exactly n bytes at the current position.
	UnpackBytes(n int) (Value, error)
	// MatchExact consumes len(want) bytes and reports whether they equal
	// want, without advancing past a short match.
	MatchExact(want []byte) (bool, error)

	// PackInt encodes val as bits/8 bytes in the given order.
	PackInt(bits int, signed bool, order ast.ByteOrder, val Value) []byte
	// PackBytes returns val's bytes unchanged (the identity pack operator
	// for a bytes-typed field).
	PackBytes(val Value) []byte
	// EmitBytes writes data to the composer's output callback.
	EmitBytes(data []byte)

	// MatchLiteral runs [internal/litmatch]'s automaton over terminals at
	// the current position, per §4.2.
	MatchLiteral(terminals []Terminal) (token int, consumed []byte, err error)

	// Get, Set, IsSet and Unset are TypeLayout's struct/union get/set
	// instructions, already resolved to a field path.
	Get(obj *Object, path []string) (Value, bool)
	Set(obj *Object, path []string, val Value)
	IsSet(obj *Object, path []string) bool
	Unset(obj *Object, path []string)

	// Bitfield extracts bits [lo, hi] (inclusive) of a width-bit word,
	// inverting the indices against the word width first when msb0.
	Bitfield(src Value, lo, hi, width int, msb0 bool) Value

	// RunHook dispatches every registered implementation of id in
	// descending-priority order, per §6's hook calling convention. element
	// is the foreach element value, or the zero Value for non-foreach
	// hooks.
	RunHook(id string, self Value, element Value) (stop bool, err error)

	// WriteSink forwards data to a bound sink, carrying the active cookie.
	WriteSink(sink string, data []byte)
	// Trim discards input before the current position. It does not check
	// whether trimming is allowed: Interp always trims, and the caller
	// decides (ParserBuilder calls it only for units without buffering).
	Trim()

	// ParseChild invokes a sub-unit's internal parse function against the
	// same fiber, advancing the shared cursor.
	ParseChild(unit *ast.Unit, args []Value) (Value, error)

	// PushLength bounds the remainder of the current frame to n bytes,
	// runs body, and on return asserts the frame was fully consumed (per
	// §4.4's &length wrapping rule) unless the body already returned an
	// error.
	PushLength(n int, body func(Block) error) error
	// PushData runs body against a private, frozen byte string instead of
	// the live stream (the &parse attribute).
	PushData(data []byte, body func(Block) error) error

	// Yield suspends the fiber until at least need more bytes are
	// available or the input is frozen, in which case it returns a
	// [ParseError] unless eodOK.
	Yield(need int, eodOK bool) error
	// Raise constructs and returns a [ParseError] at the current position.
	Raise(reason string) error

	// Pos returns the current iterator position.
	Pos() int
	// AtEOD reports whether the current position has reached the end of the
	// input: the innermost active PushLength bound, or the end of the data
	// once it is frozen. While the input is not frozen and no bound is
	// active, it reports false even when every buffered byte is consumed.
	AtEOD() bool

	// Mark saves the current iterator position for a later Reset, per
	// §4.4's &try wrapping rule ("save cur").
	Mark() int
	// Reset restores the iterator to a position previously returned by
	// Mark, silently discarding any intervening advance. Used at the
	// nearest &try site when the wrapped body signals [ErrBacktrack].
	Reset(mark int)

	// Buffered returns the currently available input from the current
	// position onward, for callers (the Synchronizer) that need to scan
	// raw bytes rather than unpack through a type. It does not consume.
	Buffered() []byte
	// Frozen reports whether no further input will ever arrive.
	Frozen() bool
}
