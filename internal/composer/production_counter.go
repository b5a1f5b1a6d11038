package composer

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// emitCounter implements the `Counter(n)` row of §4.5's table: emit Body
// once per stored element. Only the "trivial" shape parserbuilder itself
// produces — Body's own field reference is the same container field the
// Counter owns — has defined compose semantics; anything else (a Body
// that derives n independently of the container length) can't be
// losslessly replayed and is rejected.
func (cb *Builder) emitCounter(p *ast.Counter, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	f := p.Meta().Field
	if f == nil || p.Body.Meta().Field != f {
		return &ErrNotImplemented{Kind: "Counter(non-trivial body)"}
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

// emitElement emits one already-unpacked container element by temporarily
// swapping the field's stored value for elem, so emitBare's ordinary
// field-read path (cb.tl.Get) produces it without a separate code path
// per production kind.
func (cb *Builder) emitElement(body ast.Production, elem ir.Value, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	f := body.Meta().Field
	saved, _ := cb.tl.Get(blk, u, obj, f)
	cb.tl.Set(blk, u, obj, f, elem)
	defer cb.tl.Set(blk, u, obj, f, saved)

	return cb.emitBare(body, blk, u, obj, sc)
}
