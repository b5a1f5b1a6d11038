package parserbuilder

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// emitByteBlock implements the `ByteBlock(n)` row of §4.4's table:
// evaluate n, bound the remainder of the current frame to those n bytes,
// parse Body within the bound, and assert it was fully consumed — the same
// containment rule §4.4 gives &length, reused here via [ir.Block.PushLength].
func (pb *Builder) emitByteBlock(p *ast.ByteBlock, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	v, err := p.N.Eval(sc)
	if err != nil {
		return err
	}
	n, _ := v.(int64)

	return blk.PushLength(int(n), func(inner ir.Block) error {
		return pb.emitBare(p.Body, inner, u, obj, sc)
	})
}
