package parserbuilder

import (
	"bytes"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// emitVariable implements the `Variable` row of §4.4's table: dispatch on
// the value type to the type-specific unpacker, run &convert if present,
// and store the result into the parse object unless the field is
// transient. Sink write-through and hook dispatch for the *field as a
// whole* happen in [Builder.dispatchFieldHooks]; this function only
// records the just-produced value on sc.result so a container body
// (Counter/Loop/ByteBlock, which call emitBare directly) can read it back.
func (pb *Builder) emitVariable(p *ast.Variable, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	f := p.Meta().Field

	v, err := pb.unpack(p.Type, f, blk, u, obj, sc)
	if err != nil {
		return err
	}

	if f != nil && f.Attrs.Convert != nil {
		converted, err := f.Attrs.Convert.Eval(sc.with(v.Any()))
		if err != nil {
			return err
		}
		v = toValue(converted)
	}

	sc.result = v

	if f == nil {
		return nil
	}

	if bf, ok := f.Type.(*ast.BitfieldType); ok {
		msb0 := f.Attrs.BitOrder == ast.BitOrderMSB0
		for _, br := range bf.Fields {
			extracted := blk.Bitfield(v, br.Lo, br.Hi, bf.Width, msb0)
			blk.Set(obj, pb.tl.BitRangePath(f.ID, br.Name), extracted)
		}
	}

	if f.Transient {
		return nil
	}

	if _, isContainer := f.Type.(*ast.ContainerType); isContainer {
		cur, _ := pb.tl.Get(blk, u, obj, f)
		list := append(append([]ir.Value(nil), cur.List()...), v)
		pb.tl.Set(blk, u, obj, f, ir.ListValue(list))
		return nil
	}

	pb.tl.Set(blk, u, obj, f, v)
	return nil
}

// unpack dispatches a resolved source type to the matching [ir.Block]
// unpacker, per §4.4 "Bit fields" for the bitfield case and honoring
// &byteorder for scalars. A bytes type needs an explicit bound: &length
// (re-evaluated here, cheaply, against the same scope the field wrapper
// already evaluated it against, since emitVariable is reached both
// directly and from inside a Counter/Loop/ByteBlock body that already
// pushed the relevant bound frame) or &until, scanning for a delimiter
// instead of a fixed count.
func (pb *Builder) unpack(t ast.Type, f *ast.Field, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) (ir.Value, error) {
	order := ast.ByteOrderBig
	if f != nil {
		order = f.Attrs.ByteOrder
	}

	switch t := t.(type) {
	case *ast.ScalarType:
		if t.Address {
			return pb.unpackAddress(f, blk, order)
		}
		return blk.UnpackInt(t.Width, t.Signed, order)
	case *ast.BytesType:
		if f != nil && f.Attrs.Length != nil {
			v, err := f.Attrs.Length.Eval(sc)
			if err != nil {
				return ir.Nil, err
			}
			n, _ := v.(int64)
			if f.Attrs.Chunked != nil {
				return pb.unpackChunked(f, blk, u, obj, sc, int(n))
			}
			return blk.UnpackBytes(int(n))
		}
		if f != nil && f.Attrs.Until != nil {
			return pb.unpackUntil(f, blk, sc)
		}
		return ir.Nil, &ir.InternalError{Reason: "parserbuilder: bytes value type with no &length or &until bound"}
	case *ast.BitfieldType:
		return blk.UnpackInt(t.Width, false, order)
	default:
		return ir.Nil, &ir.InternalError{Reason: "parserbuilder: unsupported value type " + t.String()}
	}
}

// unpackAddress implements an `&ipv4`/`&ipv6`-attributed address field
// (§3): exactly one of the two attributes picks the packed width (4 or 16
// bytes), honoring &byteorder the same way a scalar integer would, per
// `ParserBuilder::visit(type::Address*)`. An address wider than 64 bits
// doesn't fit [ir.IntValue]'s int64 accumulator, so it is carried as a
// plain byte string rather than through UnpackInt/PackInt.
func (pb *Builder) unpackAddress(f *ast.Field, blk ir.Block, order ast.ByteOrder) (ir.Value, error) {
	if f == nil || (!f.Attrs.IPv4 && !f.Attrs.IPv6) {
		return ir.Nil, &ir.InternalError{Reason: "parserbuilder: addr field missing &ipv4/&ipv6"}
	}

	n := 16
	if f.Attrs.IPv4 {
		n = 4
	}
	v, err := blk.UnpackBytes(n)
	if err != nil {
		return ir.Nil, err
	}
	if order == ast.ByteOrderLittle {
		return ir.BytesValue(reverseBytes(v.Bytes())), nil
	}
	return v, nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

// unpackUntil implements the `&until <delim>` scan for a bytes field
// without a fixed &length: repeatedly grow the buffered window until the
// delimiter appears, then consume the value and discard the delimiter
// itself, mirroring how [internal/resync] scans raw Buffered bytes for a
// first-terminal match rather than unpacking through a typed primitive.
func (pb *Builder) unpackUntil(f *ast.Field, blk ir.Block, sc *scope) (ir.Value, error) {
	dv, err := f.Attrs.Until.Eval(sc)
	if err != nil {
		return ir.Nil, err
	}
	delim, _ := dv.([]byte)
	if len(delim) == 0 {
		return ir.Nil, &ir.InternalError{Reason: "parserbuilder: &until delimiter evaluated empty"}
	}

	for {
		buf := blk.Buffered()
		if idx := bytes.Index(buf, delim); idx >= 0 {
			v, err := blk.UnpackBytes(idx)
			if err != nil {
				return ir.Nil, err
			}
			if _, err := blk.UnpackBytes(len(delim)); err != nil {
				return ir.Nil, err
			}
			return v, nil
		}
		if blk.Frozen() {
			return ir.Nil, blk.Raise("&until delimiter not found before end of input")
		}
		if err := blk.Yield(len(buf)+1, false); err != nil {
			return ir.Nil, err
		}
	}
}

// unpackChunked implements the `&chunked <target_size>` streaming row of
// §4.4: accumulate the field's &length-bounded bytes in windows of at
// least target_size (or whatever remains, whichever is smaller), emitting
// each window as a partial value — storing it, running the field's hooks,
// and trimming consumed input, per [Builder.dispatchFieldHooks] — before
// continuing to accumulate the rest. The final return value is the full
// reassembly, which the caller stores (and hook-dispatches) again exactly
// as an unchunked field would.
func (pb *Builder) unpackChunked(f *ast.Field, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope, total int) (ir.Value, error) {
	tv, err := f.Attrs.Chunked.Eval(sc)
	if err != nil {
		return ir.Nil, err
	}
	target, _ := tv.(int64)
	if target <= 0 {
		target = int64(total)
	}

	var whole []byte
	remaining := total
	for remaining > 0 {
		for int64(len(blk.Buffered())) < target && len(blk.Buffered()) < remaining && !blk.Frozen() {
			if err := blk.Yield(1, false); err != nil {
				return ir.Nil, err
			}
		}
		take := len(blk.Buffered())
		if take > remaining {
			take = remaining
		}
		if take == 0 {
			return ir.Nil, blk.Raise("insufficient input for &chunked field")
		}

		chunk, err := blk.UnpackBytes(take)
		if err != nil {
			return ir.Nil, err
		}
		whole = append(whole, chunk.Bytes()...)
		remaining -= take

		// A transient &chunked field still accumulates correctly but has
		// no slot to emit a partial value from, so the interim hook
		// dispatch below only applies to a stored field.
		if !f.Transient {
			pb.tl.Set(blk, u, obj, f, ir.BytesValue(append([]byte(nil), whole...)))
			if err := pb.dispatchFieldHooks(f, u, obj, blk, sc); err != nil {
				return ir.Nil, err
			}
		}
	}
	return ir.BytesValue(whole), nil
}

// toValue lifts a plain Go value produced by expression evaluation back
// into an [ir.Value], matching the dynamic types [ast]'s expression
// evaluator produces.
func toValue(v any) ir.Value {
	switch v := v.(type) {
	case int64:
		return ir.IntValue(v)
	case int:
		return ir.IntValue(int64(v))
	case bool:
		return ir.BoolValue(v)
	case []byte:
		return ir.BytesValue(v)
	default:
		return ir.Nil
	}
}
