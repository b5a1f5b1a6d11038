package ast

// ByteOrder selects the endianness an integer field is unpacked/packed
// with. The zero value, ByteOrderHost, leaves the order to the backend; the
// reference ir.Interp backend unpacks and packs it big-endian, the same as
// ByteOrderBig.
type ByteOrder int

const (
	ByteOrderHost ByteOrder = iota
	ByteOrderBig
	ByteOrderLittle
)

// BitOrder selects how named bit ranges in a [BitfieldType] are indexed.
// Under BitOrderMSB0, range indices are taken against the inverted word
// width before masking, per §4.4 "Bit fields".
type BitOrder int

const (
	BitOrderLSB0 BitOrder = iota
	BitOrderMSB0
)

// Attributes holds a field's resolved `&`-attributes. A nil Expr means the
// attribute was not declared.
type Attributes struct {
	Length      Expr // &length
	Until       Expr // &until
	Parse       Expr // &parse: bytes to parse instead of the live stream
	Try         bool // &try
	Chunked     Expr // &chunked <target_size>, nil if not chunked
	Default     Expr // &default
	Convert     Expr // &convert
	ConvertBack Expr // &convert_back
	Synchronize bool // &synchronize
	IPv4, IPv6  bool
	ByteOrder   ByteOrder
	BitOrder    BitOrder
}

// HasDefault reports whether the field reserves a fallback default slot,
// per §3's parse-object storage rule for &default fields.
func (a Attributes) HasDefault() bool { return a.Default != nil }
