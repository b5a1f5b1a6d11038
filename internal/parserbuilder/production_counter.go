package parserbuilder

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// emitCounter implements the `Counter(n)` row of §4.4's table: evaluate n,
// then run Body that many times, dispatching the field's foreach hook (if
// any) with the just-parsed element after each iteration and stopping
// early if a hook implementation returns stop.
func (pb *Builder) emitCounter(p *ast.Counter, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	f := p.Meta().Field

	v, err := p.N.Eval(sc)
	if err != nil {
		return err
	}
	n, _ := v.(int64)

	for i := int64(0); i < n; i++ {
		if err := pb.emitBare(p.Body, blk, u, obj, sc); err != nil {
			return err
		}
		if f == nil {
			continue
		}
		stop, err := pb.runForeachHook(f, u, obj, blk, sc.result)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return nil
}
