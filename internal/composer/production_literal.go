package composer

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// emitLiteral implements the `Literal` row of §4.5's table: a fixed-bytes
// literal is always emitted verbatim. A regex literal has no single
// canonical byte form to regenerate from, so it is only reproducible when
// it has a field: the parser side stashes the fragment it actually
// matched there (see parserbuilder's emitLiteral), and this replays it.
// An anonymous regex literal (no field to have stashed anything) is still
// rejected, since there is nothing to replay.
func (cb *Builder) emitLiteral(p *ast.Literal, blk ir.Block, u *ast.Unit, obj *ir.Object) error {
	if p.Token.Regex != "" {
		f := p.Meta().Field
		if f == nil {
			return &ErrNotImplemented{Kind: "Literal(regex, no field)"}
		}
		v, err := cb.tl.Get(blk, u, obj, f)
		if err != nil {
			return err
		}
		blk.EmitBytes(v.Bytes())
		return nil
	}
	blk.EmitBytes(p.Token.Bytes)
	return nil
}
