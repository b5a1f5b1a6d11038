package parserbuilder

import (
	"errors"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/resync"
	"github.com/binpac-dev/corepac/ir"
)

// emitEnclosure implements the `Enclosure(child)` row of §4.4's table:
// parse Child, and on a [ir.ParseError] from Child, scan forward to the
// next valid offset and retry once rather than propagating, firing %sync
// on success — but only when the enclosure itself is marked `&synchronize`
// (p.Meta().MaySynchronize) *and* Child structurally supports it (§4.3),
// matching `_hiltiPrepareSynchronize`'s `sync_check->maySynchronize() &&
// sync_on->supportsSynchronize()` pair of checks.
func (pb *Builder) emitEnclosure(p *ast.Enclosure, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	err := pb.emitBare(p.Child, blk, u, obj, sc)
	if err == nil {
		return nil
	}

	var pe *ir.ParseError
	if !errors.As(err, &pe) || !p.Meta().MaySynchronize || !resync.SupportsSynchronize(p.Child) {
		return err
	}

	if serr := pb.synchronize(blk, p.Child); serr != nil {
		return serr
	}
	for _, h := range u.GlobalHooks(ast.EventSync) {
		if _, herr := h.Impl(ast.HookContext{Self: obj}); herr != nil {
			return herr
		}
	}
	return pb.emitBare(p.Child, blk, u, obj, sc)
}
