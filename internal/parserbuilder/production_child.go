package parserbuilder

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// emitChildGrammar implements the `ChildGrammar(unit, args)` row of §4.4's
// table: allocate the sub-unit's parse object, bind Args to its formal
// parameters, invoke its internal parse function against the same fiber
// (so the cursor advances in lock-step, per [ir.Block.ParseChild]), and
// store the result into the owning field.
func (pb *Builder) emitChildGrammar(p *ast.ChildGrammar, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	childObj := ir.NewObject()

	args := make([]ir.Value, 0, len(p.Args)+1)
	args = append(args, ir.ObjectValue(childObj))
	for _, e := range p.Args {
		v, err := e.Eval(sc)
		if err != nil {
			return err
		}
		args = append(args, toValue(v))
	}

	result, err := blk.ParseChild(p.Unit, args)
	if err != nil {
		return err
	}
	sc.result = result

	if f := p.Meta().Field; f != nil && !f.Transient {
		pb.tl.Set(blk, u, obj, f, result)
	}
	return nil
}
