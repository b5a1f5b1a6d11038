package composer

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// emitLoop implements the `Loop(eod_ok)` row of §4.5's table: emit Body
// once per stored element, under the same trivial-body restriction as
// Counter (§4.5) since a Loop's length isn't itself stored anywhere to
// replay from.
func (cb *Builder) emitLoop(p *ast.Loop, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	f := p.Meta().Field
	if f == nil || p.Body.Meta().Field != f {
		return &ErrNotImplemented{Kind: "Loop(non-trivial body)"}
	}

	v, err := cb.tl.Get(blk, u, obj, f)
	if err != nil {
		return err
	}

	for _, elem := range v.List() {
		if err := cb.emitElement(p.Body, elem, blk, u, obj, sc); err != nil {
			return err
		}
	}
	return nil
}
