package composer

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// emitVariable implements the `Variable` row of §4.5's table: read the
// field's stored value, apply &convert_back if present, pack it per its
// value type and &byteorder, emit it, and follow with the &until
// delimiter if declared.
func (cb *Builder) emitVariable(p *ast.Variable, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	f := p.Meta().Field
	if f == nil {
		return &ErrNotImplemented{Kind: "Variable(no field)"}
	}

	v, err := cb.tl.Get(blk, u, obj, f)
	if err != nil {
		return err
	}

	if f.Attrs.ConvertBack != nil {
		converted, err := f.Attrs.ConvertBack.Eval(sc.with(v.Any()))
		if err != nil {
			return err
		}
		v = toValue(converted)
	}

	data, err := cb.pack(p.Type, f, v, blk)
	if err != nil {
		return err
	}
	blk.EmitBytes(data)

	if f.Attrs.Until != nil {
		d, err := f.Attrs.Until.Eval(sc)
		if err != nil {
			return err
		}
		if delim, ok := d.([]byte); ok {
			blk.EmitBytes(delim)
		}
	}

	return nil
}

// pack mirrors parserbuilder's unpack: dispatch a resolved value type to
// the matching [ir.Block] packer, honoring &byteorder for scalars.
func (cb *Builder) pack(t ast.Type, f *ast.Field, v ir.Value, blk ir.Block) ([]byte, error) {
	order := ast.ByteOrderBig
	if f != nil {
		order = f.Attrs.ByteOrder
	}

	switch t := t.(type) {
	case *ast.ScalarType:
		if t.Address {
			return cb.packAddress(f, v, blk), nil
		}
		return blk.PackInt(t.Width, t.Signed, order, v), nil
	case *ast.BytesType:
		return blk.PackBytes(v), nil
	case *ast.BitfieldType:
		return blk.PackInt(t.Width, false, order, v), nil
	default:
		return nil, &ir.InternalError{Reason: "composer: unsupported value type " + t.String()}
	}
}

// packAddress mirrors parserbuilder's unpackAddress: an address value is
// carried as a plain byte string (4 bytes for &ipv4, 16 for &ipv6, already
// fixed by whichever attribute the field declared), byte-swapped on output
// only when &byteorder asks for little-endian.
func (cb *Builder) packAddress(f *ast.Field, v ir.Value, blk ir.Block) []byte {
	data := blk.PackBytes(v)
	if f != nil && f.Attrs.ByteOrder == ast.ByteOrderLittle {
		out := make([]byte, len(data))
		for i, c := range data {
			out[len(data)-1-i] = c
		}
		return out
	}
	return data
}

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
