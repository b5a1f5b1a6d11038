package parserbuilder

import (
	"errors"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/resync"
	"github.com/binpac-dev/corepac/ir"
)

// emitLoop implements the `Loop(eod_ok)` row of §4.4's table: repeat Body
// until end-of-data (when EODOk) or until the field's foreach hook signals
// stop. A [ir.ParseError] from Body is recovered by scanning forward to the
// next valid offset and firing %sync rather than propagating, but only when
// the loop itself is marked `&synchronize` (p.Meta().MaySynchronize) *and*
// Body structurally supports it (§4.3) — matching
// `_hiltiPrepareSynchronize`'s `sync_check->maySynchronize() &&
// sync_on->supportsSynchronize()` pair of checks.
func (pb *Builder) emitLoop(p *ast.Loop, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	f := p.Meta().Field

	for {
		if p.EODOk && blk.AtEOD() {
			return nil
		}

		if err := pb.emitBare(p.Body, blk, u, obj, sc); err != nil {
			var pe *ir.ParseError
			if errors.As(err, &pe) && p.Meta().MaySynchronize && resync.SupportsSynchronize(p.Body) {
				if serr := pb.synchronize(blk, p.Body); serr != nil {
					return serr
				}
				for _, h := range u.GlobalHooks(ast.EventSync) {
					if _, herr := h.Impl(ast.HookContext{Self: obj}); herr != nil {
						return herr
					}
				}
				continue
			}
			return err
		}

		if f != nil {
			stop, err := pb.runForeachHook(f, u, obj, blk, sc.result)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}

		if !p.EODOk && blk.AtEOD() {
			return nil
		}
	}
}
